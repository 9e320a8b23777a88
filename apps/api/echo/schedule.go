package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studentgroup/core/schedule"
)

type scheduleApi struct {
	svc schedule.Service
}

func registerScheduleAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc schedule.Service) {
	api := scheduleApi{svc: svc}

	sg := g.Group("/schedule", jwt)
	sg.GET("", api.week)
	sg.GET("/:day", api.day)
}

func (api *scheduleApi) week(ctx echo.Context) error {
	week, err := api.svc.Week(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying week schedule")
	}

	resp := make(map[schedule.Day][]schedule.Lesson, len(week))
	for _, day := range schedule.Weekdays {
		if ds, ok := week[day]; ok {
			resp[day] = ds.Sorted()
		}
	}
	return ctx.JSON(http.StatusOK, resp)
}

// day returns the lessons of one weekday with their live status relative to
// the server clock, plus the day's entry and exit times.
func (api *scheduleApi) day(ctx echo.Context) error {
	day := schedule.Day(ctx.Param("day"))
	if !day.IsValid() {
		return errHttpNotFound
	}

	ds, err := api.svc.Day(ctx.Request().Context(), day)
	if err != nil {
		return errors.Wrap(err, "querying day schedule")
	}

	now := time.Now().Format("15:04")
	resp := DayScheduleResponse{
		Day:       day,
		Lessons:   make([]LessonResponse, 0, len(ds)),
		EntryTime: ds.EntryTime(),
		ExitTime:  ds.ExitTime(),
	}
	for _, lesson := range ds.Sorted() {
		lr := LessonResponse{
			Lesson: lesson,
			Status: ds.Classify(lesson.Number, now),
		}
		switch lr.Status {
		case schedule.StatusCurrent:
			if m, err := schedule.MinutesBetween(now, lesson.EndTime); err == nil {
				lr.MinutesLeft = &m
			}
		case schedule.StatusNext:
			if m, err := schedule.MinutesBetween(now, lesson.StartTime); err == nil {
				lr.MinutesLeft = &m
			}
		}
		resp.Lessons = append(resp.Lessons, lr)
	}
	return ctx.JSON(http.StatusOK, resp)
}

type (
	LessonResponse struct {
		schedule.Lesson
		Status schedule.LessonStatus `json:"status"`

		// MinutesLeft counts down to the end of the current lesson, or to the
		// start of the next one; absent for every other status.
		MinutesLeft *int `json:"minutesLeft,omitempty"`
	}

	DayScheduleResponse struct {
		Day       schedule.Day     `json:"day"`
		Lessons   []LessonResponse `json:"lessons"`
		EntryTime string           `json:"entryTime"`
		ExitTime  string           `json:"exitTime"`
	}
)
