// Package sqlxrepos implements the domain repositories on PostgreSQL via sqlx.
package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/studentgroup/core/user"
)

type userRow struct {
	ID               string    `db:"id"`
	Email            string    `db:"email"`
	FirstName        string    `db:"first_name"`
	LastName         string    `db:"last_name"`
	RegistrationCode string    `db:"registration_code"`
	Role             string    `db:"role"`
	PasswordHash     []byte    `db:"password_hash"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
	LastLogin        null.Time `db:"last_login"`
}

func (r userRow) toCore() user.User {
	usr := user.User{
		ID:               r.ID,
		Email:            r.Email,
		FirstName:        r.FirstName,
		LastName:         r.LastName,
		RegistrationCode: r.RegistrationCode,
		Role:             user.Role(r.Role),
		PasswordHash:     r.PasswordHash,
		CreatedAt:        r.CreatedAt.UTC(),
		UpdatedAt:        r.UpdatedAt.UTC(),
	}
	if r.LastLogin.Valid {
		usr.LastLogin = r.LastLogin.Time.UTC()
	}
	return usr
}

func newUserRow(usr user.User) userRow {
	row := userRow{
		ID:               usr.ID,
		Email:            usr.Email,
		FirstName:        usr.FirstName,
		LastName:         usr.LastName,
		RegistrationCode: usr.RegistrationCode,
		Role:             string(usr.Role),
		PasswordHash:     usr.PasswordHash,
		CreatedAt:        usr.CreatedAt,
		UpdatedAt:        usr.UpdatedAt,
	}
	if !usr.LastLogin.IsZero() {
		row.LastLogin = null.TimeFrom(usr.LastLogin)
	}
	return row
}

type codeRow struct {
	Code      string      `db:"code"`
	FirstName string      `db:"first_name"`
	LastName  string      `db:"last_name"`
	IsUsed    bool        `db:"is_used"`
	UsedBy    null.String `db:"used_by"`
}

func (r codeRow) toCore() user.RegistrationCode {
	return user.RegistrationCode{
		Code:      r.Code,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		IsUsed:    r.IsUsed,
		UsedBy:    r.UsedBy.String,
	}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	q := `SELECT COUNT(*) FROM users WHERE lower(email) = lower($1)`
	args := []interface{}{email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, usr := range excludedUsers {
			ids = append(ids, usr.ID)
		}
		inQ, inArgs, err := sqlx.In(`SELECT COUNT(*) FROM users WHERE lower(email) = lower(?) AND id NOT IN (?)`, email, ids)
		if err != nil {
			return errors.Wrap(err, "building uniqueness query")
		}
		q = repo.db.Rebind(inQ)
		args = inArgs
	}

	var count int
	if err := repo.db.GetContext(ctx, &count, q, args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `
	INSERT INTO users (id, email, first_name, last_name, registration_code, role, password_hash, created_at, updated_at, last_login)
	VALUES (:id, :email, :first_name, :last_name, :registration_code, :role, :password_hash, :created_at, :updated_at, :last_login)`
	if _, err := repo.db.NamedExecContext(ctx, q, newUserRow(usr)); err != nil {
		return user.User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM users`); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toCore())
	}
	return users, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM users WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user by id")
	}
	return row.toCore(), nil
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM users WHERE lower(email) = lower($1)`, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user by email")
	}
	return row.toCore(), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	// only save set fields
	orig, err := repo.GetUserByID(ctx, usr.ID)
	if err != nil {
		return user.User{}, err
	}
	if usr.Email != "" {
		orig.Email = usr.Email
	}
	if usr.Role != "" {
		orig.Role = usr.Role
	}
	if usr.PasswordHash != nil {
		orig.PasswordHash = usr.PasswordHash
	}
	if !usr.UpdatedAt.IsZero() {
		orig.UpdatedAt = usr.UpdatedAt
	}
	if !usr.LastLogin.IsZero() {
		orig.LastLogin = usr.LastLogin
	}

	q := `
	UPDATE users
	SET email = :email, role = :role, password_hash = :password_hash, updated_at = :updated_at, last_login = :last_login
	WHERE id = :id`
	if _, err := repo.db.NamedExecContext(ctx, q, newUserRow(orig)); err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return orig, nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}

func (repo *userRepository) GetRegistrationCode(ctx context.Context, code string) (user.RegistrationCode, error) {
	var row codeRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM registration_codes WHERE code = $1`, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.RegistrationCode{}, user.ErrCodeNotFound
		}
		return user.RegistrationCode{}, errors.Wrap(err, "getting registration code")
	}
	return row.toCore(), nil
}

func (repo *userRepository) ConsumeRegistrationCode(ctx context.Context, code, usedBy string) error {
	q := `UPDATE registration_codes SET is_used = TRUE, used_by = $2 WHERE code = $1`
	res, err := repo.db.ExecContext(ctx, q, code, null.StringFrom(usedBy))
	if err != nil {
		return errors.Wrap(err, "consuming registration code")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.ErrCodeNotFound
	}
	return nil
}

func (repo *userRepository) QueryAllRegistrationCodes(ctx context.Context) ([]user.RegistrationCode, error) {
	var rows []codeRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM registration_codes`); err != nil {
		return nil, errors.Wrap(err, "querying registration codes")
	}
	codes := make([]user.RegistrationCode, 0, len(rows))
	for _, row := range rows {
		codes = append(codes, row.toCore())
	}
	return codes, nil
}

func (repo *userRepository) SeedRegistrationCodes(ctx context.Context, codes []user.RegistrationCode) error {
	var count int
	if err := repo.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM registration_codes`); err != nil {
		return errors.Wrap(err, "counting registration codes")
	}
	if count > 0 {
		return nil
	}

	q := `
	INSERT INTO registration_codes (code, first_name, last_name, is_used, used_by)
	VALUES (:code, :first_name, :last_name, :is_used, :used_by)`
	for _, code := range codes {
		row := codeRow{Code: code.Code, FirstName: code.FirstName, LastName: code.LastName}
		if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
			return errors.Wrap(err, "seeding registration codes")
		}
	}
	return nil
}
