package user

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/studentgroup/core"
)

type fakeRepo struct {
	users map[string]User // keyed by ID
	codes map[string]RegistrationCode

	consumeCalls int
}

var _ Repository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users: make(map[string]User),
		codes: make(map[string]RegistrationCode),
	}
}

func (r *fakeRepo) CheckEmailUniqueness(_ context.Context, email string, exclUsers ...User) error {
	for _, usr := range r.users {
		excluded := false
		for _, ex := range exclUsers {
			if ex.ID == usr.ID {
				excluded = true
				break
			}
		}
		if !excluded && strings.EqualFold(usr.Email, email) {
			return ErrEmailExists
		}
	}
	return nil
}

func (r *fakeRepo) CreateUser(_ context.Context, usr User) (User, error) {
	r.users[usr.ID] = usr
	return usr, nil
}

func (r *fakeRepo) QueryAllUsers(context.Context) ([]User, error) {
	all := make([]User, 0, len(r.users))
	for _, usr := range r.users {
		all = append(all, usr)
	}
	return all, nil
}

func (r *fakeRepo) GetUserByID(_ context.Context, id string) (User, error) {
	if usr, ok := r.users[id]; ok {
		return usr, nil
	}
	return User{}, ErrNotFound
}

func (r *fakeRepo) GetUserByEmail(_ context.Context, email string) (User, error) {
	for _, usr := range r.users {
		if strings.EqualFold(usr.Email, email) {
			return usr, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *fakeRepo) UpdateUser(_ context.Context, usr User) (User, error) {
	if _, ok := r.users[usr.ID]; !ok {
		return User{}, ErrNotFound
	}
	r.users[usr.ID] = usr
	return usr, nil
}

func (r *fakeRepo) DeleteUsersByID(_ context.Context, ids ...string) error {
	for _, id := range ids {
		delete(r.users, id)
	}
	return nil
}

func (r *fakeRepo) GetRegistrationCode(_ context.Context, code string) (RegistrationCode, error) {
	if rc, ok := r.codes[code]; ok {
		return rc, nil
	}
	return RegistrationCode{}, ErrCodeNotFound
}

func (r *fakeRepo) ConsumeRegistrationCode(_ context.Context, code, usedBy string) error {
	r.consumeCalls++
	rc, ok := r.codes[code]
	if !ok {
		return ErrCodeNotFound
	}
	rc.IsUsed = true
	rc.UsedBy = usedBy
	r.codes[code] = rc
	return nil
}

func (r *fakeRepo) QueryAllRegistrationCodes(context.Context) ([]RegistrationCode, error) {
	all := make([]RegistrationCode, 0, len(r.codes))
	for _, rc := range r.codes {
		all = append(all, rc)
	}
	return all, nil
}

func (r *fakeRepo) SeedRegistrationCodes(_ context.Context, codes []RegistrationCode) error {
	if len(r.codes) > 0 {
		return nil
	}
	for _, rc := range codes {
		r.codes[rc.Code] = rc
	}
	return nil
}

type fakeMailer struct {
	messages []*core.EmailMessage
}

func (m *fakeMailer) SendMessages(messages ...*core.EmailMessage) {
	m.messages = append(m.messages, messages...)
}

func newTestService(repo Repository) (Service, *fakeMailer) {
	mailer := new(fakeMailer)
	return NewServiceMock(repo, mailer, core.StdLogger{Std: log.New(io.Discard, "", 0)}), mailer
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("valid code creates account and consumes code", func(t *testing.T) {
		repo := newFakeRepo()
		repo.codes["AB12CD34"] = RegistrationCode{Code: "AB12CD34", FirstName: "Jan", LastName: "Kowalski"}
		svc, _ := newTestService(repo)

		usr, err := svc.Register(ctx, NewUser{Email: "jan@test.cm", Password: "secret", RegistrationCode: "AB12CD34"})
		require.NoError(t, err)

		assert.NotEmpty(t, usr.ID)
		assert.Equal(t, "jan@test.cm", usr.Email)
		assert.Equal(t, "Jan", usr.FirstName)
		assert.Equal(t, "Kowalski", usr.LastName)
		assert.Equal(t, RoleStudent, usr.Role)
		assert.NoError(t, usr.CheckPassword("secret"))

		rc := repo.codes["AB12CD34"]
		assert.True(t, rc.IsUsed)
		assert.Equal(t, "jan@test.cm", rc.UsedBy)
	})

	t.Run("unknown code writes nothing", func(t *testing.T) {
		repo := newFakeRepo()
		svc, _ := newTestService(repo)

		_, err := svc.Register(ctx, NewUser{Email: "jan@test.cm", Password: "secret", RegistrationCode: "NOPE0000"})
		require.Error(t, err)
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "registration_code", vErr.Fields[0].Field)

		assert.Empty(t, repo.users)
		assert.Zero(t, repo.consumeCalls)
	})

	t.Run("used code fails without mutation", func(t *testing.T) {
		repo := newFakeRepo()
		repo.codes["AB12CD34"] = RegistrationCode{Code: "AB12CD34", FirstName: "Jan", LastName: "Kowalski", IsUsed: true, UsedBy: "first@test.cm"}
		svc, _ := newTestService(repo)

		_, err := svc.Register(ctx, NewUser{Email: "second@test.cm", Password: "secret", RegistrationCode: "AB12CD34"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrCodeUsed.Error())

		assert.Empty(t, repo.users)
		assert.Equal(t, "first@test.cm", repo.codes["AB12CD34"].UsedBy)
		assert.Zero(t, repo.consumeCalls)
	})

	t.Run("duplicate email leaves code unused", func(t *testing.T) {
		repo := newFakeRepo()
		repo.codes["AB12CD34"] = RegistrationCode{Code: "AB12CD34", FirstName: "Jan", LastName: "Kowalski"}
		svc, _ := newTestService(repo)

		existing := User{ID: "u1", Email: "jan@test.cm"}
		repo.users[existing.ID] = existing

		_, err := svc.Register(ctx, NewUser{Email: "jan@test.cm", Password: "secret", RegistrationCode: "AB12CD34"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrEmailExists.Error())

		assert.Len(t, repo.users, 1)
		assert.False(t, repo.codes["AB12CD34"].IsUsed)
	})
}

func TestService_Authenticate(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	usr := User{ID: "u1", Email: "jan@test.cm"}
	require.NoError(t, usr.SetPassword("secret"))
	repo.users[usr.ID] = usr

	t.Run("ok", func(t *testing.T) {
		got, err := svc.Authenticate(ctx, "Jan@Test.cm", "secret")
		require.NoError(t, err)
		assert.Equal(t, usr.ID, got.ID)
		assert.False(t, got.LastLogin.IsZero())
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "jan@test.cm", "nope")
		assert.ErrorIs(t, err, ErrBadPassword)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "ghost@test.cm", "secret")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestService_UpdateEmail(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	usr := User{ID: "u1", Email: "jan@test.cm"}
	require.NoError(t, usr.SetPassword("secret"))
	repo.users[usr.ID] = usr

	t.Run("requires current password", func(t *testing.T) {
		_, err := svc.UpdateEmail(ctx, usr.ID, UpdateEmail{NewEmail: "new@test.cm", CurrentPassword: "nope"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrBadPassword.Error())
		assert.Equal(t, "jan@test.cm", repo.users[usr.ID].Email)
	})

	t.Run("ok", func(t *testing.T) {
		got, err := svc.UpdateEmail(ctx, usr.ID, UpdateEmail{NewEmail: "new@test.cm", CurrentPassword: "secret"})
		require.NoError(t, err)
		assert.Equal(t, "new@test.cm", got.Email)
		assert.Equal(t, "new@test.cm", repo.users[usr.ID].Email)
	})
}

func TestService_UpdatePassword(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	usr := User{ID: "u1", Email: "jan@test.cm"}
	require.NoError(t, usr.SetPassword("secret"))
	repo.users[usr.ID] = usr

	t.Run("requires current password", func(t *testing.T) {
		err := svc.UpdatePassword(ctx, usr.ID, UpdatePassword{CurrentPassword: "nope", NewPassword: "changed"})
		require.Error(t, err)
		stored := repo.users[usr.ID]
		assert.NoError(t, stored.CheckPassword("secret"))
	})

	t.Run("ok", func(t *testing.T) {
		err := svc.UpdatePassword(ctx, usr.ID, UpdatePassword{CurrentPassword: "secret", NewPassword: "changed"})
		require.NoError(t, err)
		stored := repo.users[usr.ID]
		assert.NoError(t, stored.CheckPassword("changed"))
	})
}

func TestService_PasswordReset(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc, mailer := newTestService(repo)

	usr := User{ID: "u1", Email: "jan@test.cm", FirstName: "Jan", LastName: "Kowalski"}
	require.NoError(t, usr.SetPassword("secret"))
	repo.users[usr.ID] = usr

	require.NoError(t, svc.RequestPasswordReset(ctx, usr.Email))
	require.Len(t, mailer.messages, 1)
	assert.Equal(t, usr.Email, mailer.messages[0].To[0].Address)

	t.Run("bad token rejected", func(t *testing.T) {
		err := svc.ConfirmPasswordReset(ctx, ResetUserPassword{UID: EncodeUID(usr), Token: "bad-token", Password: "changed"})
		require.Error(t, err)
		stored := repo.users[usr.ID]
		assert.NoError(t, stored.CheckPassword("secret"))
	})

	t.Run("ok", func(t *testing.T) {
		err := svc.ConfirmPasswordReset(ctx, ResetUserPassword{UID: EncodeUID(usr), Token: makeToken(usr), Password: "changed"})
		require.NoError(t, err)
		stored := repo.users[usr.ID]
		assert.NoError(t, stored.CheckPassword("changed"))
	})

	t.Run("password change invalidates token", func(t *testing.T) {
		stale := makeToken(usr) // minted against the old hash
		err := svc.ConfirmPasswordReset(ctx, ResetUserPassword{UID: EncodeUID(usr), Token: stale, Password: "changed again"})
		require.Error(t, err)
	})
}

func TestService_SetRole(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	usr := User{ID: "u1", Email: "prof@test.cm", Role: RoleStudent, CreatedAt: time.Now().UTC()}
	repo.users[usr.ID] = usr

	got, err := svc.SetRole(ctx, usr.Email, RoleTeacher)
	require.NoError(t, err)
	assert.True(t, got.IsTeacher())
	assert.Equal(t, RoleTeacher, repo.users[usr.ID].Role)

	_, err = svc.SetRole(ctx, usr.Email, Role("principal"))
	assert.Error(t, err)
}

func TestService_SeedCodes(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	invitees := []Invitee{
		{FirstName: "Jan", LastName: "Kowalski"},
		{FirstName: "Anna", LastName: "Nowak"},
	}
	codes, err := svc.SeedCodes(ctx, invitees)
	require.NoError(t, err)
	require.Len(t, codes, 2)

	seen := make(map[string]bool)
	for i, rc := range codes {
		assert.Len(t, rc.Code, 8)
		assert.Equal(t, strings.ToUpper(rc.Code), rc.Code)
		assert.False(t, rc.IsUsed)
		assert.Equal(t, invitees[i].FirstName, rc.FirstName)
		assert.False(t, seen[rc.Code], "codes must be unique")
		seen[rc.Code] = true
	}
	assert.Len(t, repo.codes, 2)
}
