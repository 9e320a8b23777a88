package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/studentgroup/core/schedule"
)

type lessonRow struct {
	Day       string `db:"day"`
	Number    int    `db:"number"`
	Subject   string `db:"subject"`
	Room      string `db:"room"`
	StartTime string `db:"start_time"`
	EndTime   string `db:"end_time"`
}

func (r lessonRow) toCore() schedule.Lesson {
	return schedule.Lesson{
		Number:    r.Number,
		Subject:   r.Subject,
		Room:      r.Room,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
	}
}

type scheduleRepository struct {
	db *sqlx.DB
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *sqlx.DB) schedule.Repository {
	return &scheduleRepository{db: db}
}

func (repo *scheduleRepository) GetDaySchedule(ctx context.Context, day schedule.Day) (schedule.DaySchedule, error) {
	var rows []lessonRow
	q := `SELECT * FROM schedule_lessons WHERE day = $1`
	if err := repo.db.SelectContext(ctx, &rows, q, string(day)); err != nil {
		return nil, errors.Wrap(err, "querying day schedule")
	}
	if len(rows) == 0 {
		return nil, schedule.ErrNotFound
	}

	ds := make(schedule.DaySchedule, len(rows))
	for _, row := range rows {
		ds[row.Number] = row.toCore()
	}
	return ds, nil
}

func (repo *scheduleRepository) GetWeekSchedule(ctx context.Context) (schedule.WeekSchedule, error) {
	var rows []lessonRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM schedule_lessons`); err != nil {
		return nil, errors.Wrap(err, "querying week schedule")
	}

	week := make(schedule.WeekSchedule)
	for _, row := range rows {
		day := schedule.Day(row.Day)
		if week[day] == nil {
			week[day] = make(schedule.DaySchedule)
		}
		week[day][row.Number] = row.toCore()
	}
	return week, nil
}

func (repo *scheduleRepository) SeedWeekSchedule(ctx context.Context, week schedule.WeekSchedule) error {
	var count int
	if err := repo.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM schedule_lessons`); err != nil {
		return errors.Wrap(err, "counting lessons")
	}
	if count > 0 {
		return nil
	}

	q := `
	INSERT INTO schedule_lessons (day, number, subject, room, start_time, end_time)
	VALUES (:day, :number, :subject, :room, :start_time, :end_time)`
	for day, ds := range week {
		for number, lesson := range ds {
			row := lessonRow{
				Day:       string(day),
				Number:    number,
				Subject:   lesson.Subject,
				Room:      lesson.Room,
				StartTime: lesson.StartTime,
				EndTime:   lesson.EndTime,
			}
			if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
				return errors.Wrap(err, "seeding week schedule")
			}
		}
	}
	return nil
}
