package task

import (
	"time"

	"github.com/trezcool/studentgroup/core"
)

// Status is a closed set; arbitrary strings from storage are rejected at the
// repository boundary.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusExpired:
		return true
	}
	return false
}

type Task struct {
	ID          string `json:"id" db:"id"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`
	Subject     string `json:"subject" db:"subject"`
	TeacherID   string `json:"teacherId" db:"teacher_id"`
	TeacherName string `json:"teacherName" db:"teacher_name"`
	Deadline    int64  `json:"deadline" db:"deadline"`    // epoch millis, UTC
	Status      Status `json:"status" db:"status"`
	CreatedAt   int64  `json:"createdAt" db:"created_at"` // epoch millis, UTC
}

// expiredAt reports whether the task should transition to expired at `now`.
// Completed and expired tasks never transition; expiry is monotonic.
func (t Task) expiredAt(now int64) bool {
	return t.Status == StatusActive && t.Deadline < now
}

// EpochMillis converts a time to the storage representation.
func EpochMillis(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}

// NewTask contains information needed to publish a new Task.
type NewTask struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Subject     string `json:"subject" validate:"required"`
	Deadline    int64  `json:"deadline" validate:"required,gt=0"`
}

func (nt *NewTask) Validate() error {
	nt.Title = core.CleanString(nt.Title)
	nt.Description = core.CleanString(nt.Description)
	nt.Subject = core.CleanString(nt.Subject)
	return core.Validate.Struct(nt)
}
