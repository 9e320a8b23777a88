package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/studentgroup/core/group"
)

type groupRepository struct {
	db *sqlx.DB
}

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(db *sqlx.DB) group.Repository {
	return &groupRepository{db: db}
}

func (repo *groupRepository) QueryAllStudents(ctx context.Context) ([]group.Student, error) {
	var students []group.Student
	if err := repo.db.SelectContext(ctx, &students, `SELECT * FROM group_students`); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return students, nil
}

func (repo *groupRepository) SeedGroup(ctx context.Context, students []group.Student) error {
	var count int
	if err := repo.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM group_students`); err != nil {
		return errors.Wrap(err, "counting students")
	}
	if count > 0 {
		return nil
	}

	q := `
	INSERT INTO group_students (id, last_name, first_name, middle_name)
	VALUES (:id, :last_name, :first_name, :middle_name)`
	for _, s := range students {
		if _, err := repo.db.NamedExecContext(ctx, q, s); err != nil {
			return errors.Wrap(err, "seeding group roster")
		}
	}
	return nil
}
