package schedule

import "sort"

// Day is a lower-case weekday key as stored in the schedule collection.
// Weekends are not represented; an absent day means no classes.
type Day string

const (
	Monday    Day = "monday"
	Tuesday   Day = "tuesday"
	Wednesday Day = "wednesday"
	Thursday  Day = "thursday"
	Friday    Day = "friday"
)

var Weekdays = []Day{Monday, Tuesday, Wednesday, Thursday, Friday}

func (d Day) IsValid() bool {
	switch d {
	case Monday, Tuesday, Wednesday, Thursday, Friday:
		return true
	}
	return false
}

// Lesson is immutable once scheduled; identified within a day by Number.
// StartTime and EndTime are zero-padded "HH:MM" strings, so plain string
// comparison is time-ordered within a day.
type Lesson struct {
	Number    int    `json:"number" db:"number"`
	Subject   string `json:"subject" db:"subject"`
	Room      string `json:"room" db:"room"`
	StartTime string `json:"startTime" db:"start_time"`
	EndTime   string `json:"endTime" db:"end_time"`
}

// DaySchedule maps lesson numbers to lessons. A nil map means the day is
// absent from the schedule (e.g. a weekend).
type DaySchedule map[int]Lesson

type WeekSchedule map[Day]DaySchedule

// Sorted returns the day's lessons ordered by number.
func (ds DaySchedule) Sorted() []Lesson {
	lessons := make([]Lesson, 0, len(ds))
	for _, l := range ds {
		lessons = append(lessons, l)
	}
	sort.Slice(lessons, func(i, j int) bool { return lessons[i].Number < lessons[j].Number })
	return lessons
}
