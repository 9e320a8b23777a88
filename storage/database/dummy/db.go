// Package dummydb is a volatile in-memory database used in DEV/TEST.
package dummydb

import (
	"sync"

	"github.com/trezcool/studentgroup/core/group"
	"github.com/trezcool/studentgroup/core/schedule"
	"github.com/trezcool/studentgroup/core/task"
	"github.com/trezcool/studentgroup/core/user"
)

type (
	DB struct {
		user     *userTable
		code     *codeTable
		group    *groupTable
		schedule *scheduleTable
		task     *taskTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	codeTable struct {
		sync.RWMutex
		table map[string]*user.RegistrationCode
	}

	groupTable struct {
		sync.RWMutex
		table map[string]*group.Student
	}

	scheduleTable struct {
		sync.RWMutex
		table map[schedule.Day]schedule.DaySchedule
	}

	taskTable struct {
		sync.RWMutex
		table    map[string]*task.Task
		watchers map[chan []task.Task]struct{}
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:     &userTable{table: make(map[string]*user.User)},
		code:     &codeTable{table: make(map[string]*user.RegistrationCode)},
		group:    &groupTable{table: make(map[string]*group.Student)},
		schedule: &scheduleTable{table: make(map[schedule.Day]schedule.DaySchedule)},
		task:     &taskTable{table: make(map[string]*task.Task), watchers: make(map[chan []task.Task]struct{})},
	}
	return db, nil
}
