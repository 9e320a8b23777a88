package group

import (
	"context"
	"sort"
)

type (
	Repository interface {
		QueryAllStudents(ctx context.Context) ([]Student, error)
		// SeedGroup writes the given roster only if the collection is empty.
		SeedGroup(ctx context.Context, students []Student) error
	}

	Service interface {
		List(ctx context.Context) ([]Student, error)
		Seed(ctx context.Context, students []Student) error
	}

	service struct {
		repo Repository
	}
)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// List returns the roster ordered by last name, then first name.
func (svc *service) List(ctx context.Context) ([]Student, error) {
	students, err := svc.repo.QueryAllStudents(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(students, func(i, j int) bool {
		if students[i].LastName != students[j].LastName {
			return students[i].LastName < students[j].LastName
		}
		return students[i].FirstName < students[j].FirstName
	})
	return students, nil
}

func (svc *service) Seed(ctx context.Context, students []Student) error {
	return svc.repo.SeedGroup(ctx, students)
}
