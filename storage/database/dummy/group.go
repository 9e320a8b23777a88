package dummydb

import (
	"context"

	"github.com/trezcool/studentgroup/core/group"
)

type groupRepository struct {
	db *groupTable
}

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(db *DB) group.Repository {
	return &groupRepository{db: db.group}
}

func (repo *groupRepository) QueryAllStudents(context.Context) ([]group.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	students := make([]group.Student, 0, len(repo.db.table))
	for _, s := range repo.db.table {
		students = append(students, *s)
	}
	return students, nil
}

func (repo *groupRepository) SeedGroup(_ context.Context, students []group.Student) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if len(repo.db.table) > 0 {
		return nil
	}
	for i := range students {
		s := students[i]
		repo.db.table[s.ID] = &s
	}
	return nil
}
