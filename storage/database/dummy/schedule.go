package dummydb

import (
	"context"

	"github.com/trezcool/studentgroup/core/schedule"
)

type scheduleRepository struct {
	db *scheduleTable
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *DB) schedule.Repository {
	return &scheduleRepository{db: db.schedule}
}

func (repo *scheduleRepository) GetDaySchedule(_ context.Context, day schedule.Day) (schedule.DaySchedule, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	ds, ok := repo.db.table[day]
	if !ok {
		return nil, schedule.ErrNotFound
	}
	out := make(schedule.DaySchedule, len(ds))
	for n, l := range ds {
		out[n] = l
	}
	return out, nil
}

func (repo *scheduleRepository) GetWeekSchedule(context.Context) (schedule.WeekSchedule, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	week := make(schedule.WeekSchedule, len(repo.db.table))
	for day, ds := range repo.db.table {
		out := make(schedule.DaySchedule, len(ds))
		for n, l := range ds {
			out[n] = l
		}
		week[day] = out
	}
	return week, nil
}

func (repo *scheduleRepository) SeedWeekSchedule(_ context.Context, week schedule.WeekSchedule) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if len(repo.db.table) > 0 {
		return nil
	}
	for day, ds := range week {
		cp := make(schedule.DaySchedule, len(ds))
		for n, l := range ds {
			cp[n] = l
		}
		repo.db.table[day] = cp
	}
	return nil
}
