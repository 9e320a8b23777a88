package schedule

import (
	"fmt"
	"time"
)

// LessonStatus is the temporal state of a lesson slot relative to a
// reference clock time.
type LessonStatus int

const (
	StatusNotInSchedule LessonStatus = iota
	StatusUpcoming
	StatusNext
	StatusCurrent
	StatusCompleted
)

var statusNames = map[LessonStatus]string{
	StatusNotInSchedule: "not_in_schedule",
	StatusUpcoming:      "upcoming",
	StatusNext:          "next",
	StatusCurrent:       "current",
	StatusCompleted:     "completed",
}

func (s LessonStatus) String() string { return statusNames[s] }

func (s LessonStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Defaults used when a day has no lessons to derive entry/exit times from.
const (
	DefaultEntryTime = "08:05"
	DefaultExitTime  = "13:55"
)

func (l Lesson) isCurrent(now string) bool {
	return l.StartTime <= now && now <= l.EndTime
}

func (l Lesson) isCompleted(now string) bool {
	return now > l.EndTime
}

// Next returns the lesson that starts soonest among lessons that are neither
// current nor completed at `now`. When two lessons share a start time the one
// with the lower number wins, keeping the result deterministic.
func (ds DaySchedule) Next(now string) (Lesson, bool) {
	var next Lesson
	var found bool
	for _, l := range ds {
		if l.isCurrent(now) || l.isCompleted(now) {
			continue
		}
		if !found || l.StartTime < next.StartTime ||
			(l.StartTime == next.StartTime && l.Number < next.Number) {
			next = l
			found = true
		}
	}
	return next, found
}

// Classify determines the status of the lesson slot `number` at `now`
// ("HH:MM"). Exactly one status holds per slot, and at most one lesson in the
// day is StatusNext.
func (ds DaySchedule) Classify(number int, now string) LessonStatus {
	if ds == nil {
		return StatusNotInSchedule
	}
	lesson, ok := ds[number]
	if !ok {
		return StatusNotInSchedule
	}

	next, hasNext := ds.Next(now)
	switch {
	case lesson.isCurrent(now):
		return StatusCurrent
	case hasNext && next.Number == number:
		return StatusNext
	case lesson.isCompleted(now):
		return StatusCompleted
	default:
		return StatusUpcoming
	}
}

// EntryTime is the earliest lesson start of the day.
func (ds DaySchedule) EntryTime() string {
	entry := ""
	for _, l := range ds {
		if entry == "" || l.StartTime < entry {
			entry = l.StartTime
		}
	}
	if entry == "" {
		return DefaultEntryTime
	}
	return entry
}

// ExitTime is the latest lesson end of the day.
func (ds DaySchedule) ExitTime() string {
	exit := ""
	for _, l := range ds {
		if exit == "" || l.EndTime > exit {
			exit = l.EndTime
		}
	}
	if exit == "" {
		return DefaultExitTime
	}
	return exit
}

// MinutesBetween returns the whole minutes from `from` to `to`, both "HH:MM".
// Used for the "N minutes left in this lesson / until the next one" labels.
func MinutesBetween(from, to string) (int, error) {
	f, err := time.Parse("15:04", from)
	if err != nil {
		return 0, fmt.Errorf("parsing %q: %w", from, err)
	}
	t, err := time.Parse("15:04", to)
	if err != nil {
		return 0, fmt.Errorf("parsing %q: %w", to, err)
	}
	return int(t.Sub(f) / time.Minute), nil
}
