package user

import (
	"context"
	"crypto/rand"
	"errors"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/studentgroup/core"
)

var (
	// errors
	ErrNotFound     = errors.New("user not found")
	ErrEmailExists  = errors.New("a user with this email already exists")
	ErrCodeNotFound = errors.New("invalid registration code")
	ErrCodeUsed     = errors.New("registration code already used")
	ErrBadPassword  = errors.New("incorrect password")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		QueryAllUsers(ctx context.Context) ([]User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		// UpdateUser persists the set (non-zero) fields of usr, ID excepted.
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUsersByID(ctx context.Context, ids ...string) error

		GetRegistrationCode(ctx context.Context, code string) (RegistrationCode, error)
		// ConsumeRegistrationCode marks the code used by the given email.
		ConsumeRegistrationCode(ctx context.Context, code, usedBy string) error
		QueryAllRegistrationCodes(ctx context.Context) ([]RegistrationCode, error)
		// SeedRegistrationCodes writes the codes only if the collection is empty.
		SeedRegistrationCodes(ctx context.Context, codes []RegistrationCode) error
	}

	Service interface {
		Register(ctx context.Context, nu NewUser) (User, error)
		Authenticate(ctx context.Context, email, pwd string) (User, error)
		QueryAll(ctx context.Context) ([]User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		UpdateEmail(ctx context.Context, id string, ue UpdateEmail) (User, error)
		UpdatePassword(ctx context.Context, id string, up UpdatePassword) error
		RequestPasswordReset(ctx context.Context, email string) error
		ConfirmPasswordReset(ctx context.Context, rp ResetUserPassword) error
		SetRole(ctx context.Context, email string, role Role) (User, error)
		Codes(ctx context.Context) ([]RegistrationCode, error)
		SeedCodes(ctx context.Context, invitees []Invitee) ([]RegistrationCode, error)
	}

	// Invitee is a pre-provisioned person a registration code is minted for.
	Invitee struct {
		FirstName string
		LastName  string
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
		log     core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, log core.Logger) Service {
	return &service{repo: repo, mailSvc: mailSvc, log: log}
}

// Register creates an account against a pre-provisioned registration code.
// The code must exist and be unused; either guard failing aborts the attempt
// before any record is written. The check-create-consume sequence is not
// atomic: two concurrent registrations can both observe an unused code and
// double-consume it. Known gap, accepted for the low-concurrency setting.
func (svc *service) Register(ctx context.Context, nu NewUser) (User, error) {
	code, err := svc.repo.GetRegistrationCode(ctx, nu.RegistrationCode)
	if err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			return User{}, core.NewValidationError(err, core.FieldError{Field: "registration_code", Error: ErrCodeNotFound.Error()})
		}
		return User{}, err
	}
	if code.IsUsed {
		return User{}, core.NewValidationError(ErrCodeUsed, core.FieldError{Field: "registration_code", Error: ErrCodeUsed.Error()})
	}

	if err := svc.checkUniqueness(ctx, nu.Email); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		ID:               uuid.New().String(),
		Email:            nu.Email,
		FirstName:        code.FirstName,
		LastName:         code.LastName,
		RegistrationCode: code.Code,
		Role:             RoleStudent,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	usr, err = svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, err
	}

	if err := svc.repo.ConsumeRegistrationCode(ctx, code.Code, usr.Email); err != nil {
		return User{}, err
	}
	return usr, nil
}

func (svc *service) checkUniqueness(ctx context.Context, email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, exclUsers...); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Authenticate validates credentials and stamps LastLogin on success.
func (svc *service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return User{}, err
	}
	if err := usr.CheckPassword(pwd); err != nil {
		return User{}, ErrBadPassword
	}

	usr.LastLogin = time.Now().UTC()
	if usr, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return User{}, err
	}
	return usr, nil
}

func (svc *service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryAllUsers(ctx)
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

// UpdateEmail re-authenticates with the current password, then rotates the
// account email and the stored user record together.
func (svc *service) UpdateEmail(ctx context.Context, id string, ue UpdateEmail) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err := usr.CheckPassword(ue.CurrentPassword); err != nil {
		return User{}, core.NewValidationError(ErrBadPassword, core.FieldError{Field: "current_password", Error: ErrBadPassword.Error()})
	}
	if err := svc.checkUniqueness(ctx, ue.NewEmail, usr); err != nil {
		return User{}, err
	}

	usr.Email = ue.NewEmail
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) UpdatePassword(ctx context.Context, id string, up UpdatePassword) error {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if err := usr.CheckPassword(up.CurrentPassword); err != nil {
		return core.NewValidationError(ErrBadPassword, core.FieldError{Field: "current_password", Error: ErrBadPassword.Error()})
	}

	if err := usr.SetPassword(up.NewPassword); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return err
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	go svc.sendPasswordResetMail(usr)
	return nil
}

func (svc *service) sendPasswordResetMail(usr User) {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: usr.FullName(), Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password-reset",
		TemplateData: struct {
			FullName string
			UID      string
			Token    string
		}{usr.FullName(), EncodeUID(usr), makeToken(usr)},
	}
	svc.mailSvc.SendMessages(msg)
}

func (svc *service) ConfirmPasswordReset(ctx context.Context, rp ResetUserPassword) error {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "uid", Error: errInvalidToken.Error()})
	}
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if err := verifyToken(usr, rp.Token); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "token", Error: err.Error()})
	}

	if err := usr.SetPassword(rp.Password); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return err
}

// SetRole grants or revokes the teacher role; used by the admin CLI.
func (svc *service) SetRole(ctx context.Context, email string, role Role) (User, error) {
	if !role.IsValid() {
		return User{}, core.NewValidationError(nil, core.FieldError{Field: "role", Error: "invalid role"})
	}
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	usr.Role = role
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) Codes(ctx context.Context) ([]RegistrationCode, error) {
	return svc.repo.QueryAllRegistrationCodes(ctx)
}

// SeedCodes mints one single-use code per invitee and stores them, only if no
// codes exist yet.
func (svc *service) SeedCodes(ctx context.Context, invitees []Invitee) ([]RegistrationCode, error) {
	codes := make([]RegistrationCode, 0, len(invitees))
	for _, inv := range invitees {
		code, err := generateCode()
		if err != nil {
			return nil, err
		}
		codes = append(codes, RegistrationCode{
			Code:      code,
			FirstName: inv.FirstName,
			LastName:  inv.LastName,
		})
	}
	if err := svc.repo.SeedRegistrationCodes(ctx, codes); err != nil {
		return nil, err
	}
	return codes, nil
}

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 8
)

func generateCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
