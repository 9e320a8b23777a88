package dummydb

import (
	"context"
	"strings"

	"github.com/trezcool/studentgroup/core/user"
)

type userRepository struct {
	users *userTable
	codes *codeTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{users: db.user, codes: db.code}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.users.table))
	for _, u := range repo.users.table {
		users = append(users, *u)
	}
	return users
}

func (repo *userRepository) CheckEmailUniqueness(_ context.Context, email string, excludedUsers ...user.User) error {
	repo.users.RLock()
	defer repo.users.RUnlock()

	for _, usr := range repo.query() {
		if strings.EqualFold(usr.Email, email) && !isExcluded(usr, excludedUsers) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.users.Lock()
	defer repo.users.Unlock()

	repo.users.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(context.Context) ([]user.User, error) {
	repo.users.RLock()
	defer repo.users.RUnlock()
	return repo.query(), nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id string) (user.User, error) {
	repo.users.RLock()
	defer repo.users.RUnlock()

	if usr, ok := repo.users.table[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	repo.users.RLock()
	defer repo.users.RUnlock()

	for _, usr := range repo.query() {
		if strings.EqualFold(usr.Email, email) {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.users.Lock()
	defer repo.users.Unlock()

	// only save set fields
	origUsr, ok := repo.users.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if usr.Email != "" {
		origUsr.Email = usr.Email
	}
	if usr.Role != "" {
		origUsr.Role = usr.Role
	}
	if usr.PasswordHash != nil {
		origUsr.PasswordHash = usr.PasswordHash
	}
	if !usr.UpdatedAt.IsZero() {
		origUsr.UpdatedAt = usr.UpdatedAt
	}
	if !usr.LastLogin.IsZero() {
		origUsr.LastLogin = usr.LastLogin
	}

	repo.users.table[usr.ID] = origUsr
	return *origUsr, nil
}

func (repo *userRepository) DeleteUsersByID(_ context.Context, ids ...string) error {
	repo.users.Lock()
	defer repo.users.Unlock()
	for _, id := range ids {
		delete(repo.users.table, id)
	}
	return nil
}

func (repo *userRepository) GetRegistrationCode(_ context.Context, code string) (user.RegistrationCode, error) {
	repo.codes.RLock()
	defer repo.codes.RUnlock()

	if rc, ok := repo.codes.table[code]; ok {
		return *rc, nil
	}
	return user.RegistrationCode{}, user.ErrCodeNotFound
}

func (repo *userRepository) ConsumeRegistrationCode(_ context.Context, code, usedBy string) error {
	repo.codes.Lock()
	defer repo.codes.Unlock()

	rc, ok := repo.codes.table[code]
	if !ok {
		return user.ErrCodeNotFound
	}
	rc.IsUsed = true
	rc.UsedBy = usedBy
	return nil
}

func (repo *userRepository) QueryAllRegistrationCodes(context.Context) ([]user.RegistrationCode, error) {
	repo.codes.RLock()
	defer repo.codes.RUnlock()

	codes := make([]user.RegistrationCode, 0, len(repo.codes.table))
	for _, rc := range repo.codes.table {
		codes = append(codes, *rc)
	}
	return codes, nil
}

func (repo *userRepository) SeedRegistrationCodes(_ context.Context, codes []user.RegistrationCode) error {
	repo.codes.Lock()
	defer repo.codes.Unlock()

	if len(repo.codes.table) > 0 {
		return nil
	}
	for i := range codes {
		rc := codes[i]
		repo.codes.table[rc.Code] = &rc
	}
	return nil
}

func isExcluded(usr user.User, excludedUsers []user.User) bool {
	for _, ex := range excludedUsers {
		if ex.ID == usr.ID {
			return true
		}
	}
	return false
}
