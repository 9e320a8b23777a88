package schedule

import (
	"context"
	"errors"
)

// ErrNotFound is returned by repositories when a day has no stored schedule.
var ErrNotFound = errors.New("day schedule not found")

type (
	Repository interface {
		GetDaySchedule(ctx context.Context, day Day) (DaySchedule, error)
		GetWeekSchedule(ctx context.Context) (WeekSchedule, error)
		// SeedWeekSchedule writes the given week only if the collection is empty.
		SeedWeekSchedule(ctx context.Context, week WeekSchedule) error
	}

	Service interface {
		Day(ctx context.Context, day Day) (DaySchedule, error)
		Week(ctx context.Context) (WeekSchedule, error)
		Seed(ctx context.Context, week WeekSchedule) error
	}

	service struct {
		repo Repository
	}
)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Day returns the stored schedule for `day`. An absent day resolves to a nil
// DaySchedule rather than an error: callers classify it as not-in-schedule.
func (svc *service) Day(ctx context.Context, day Day) (DaySchedule, error) {
	ds, err := svc.repo.GetDaySchedule(ctx, day)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return ds, err
}

func (svc *service) Week(ctx context.Context) (WeekSchedule, error) {
	return svc.repo.GetWeekSchedule(ctx)
}

func (svc *service) Seed(ctx context.Context, week WeekSchedule) error {
	return svc.repo.SeedWeekSchedule(ctx, week)
}
