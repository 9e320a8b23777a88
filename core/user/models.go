package user

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/studentgroup/core"
)

// Role is the single source of truth for access decisions.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

var AllRoles = []Role{RoleStudent, RoleTeacher}

func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleTeacher:
		return true
	}
	return false
}

type User struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	RegistrationCode string    `json:"registrationCode"`
	Role             Role      `json:"role"`
	PasswordHash     []byte    `json:"-"`
	CreatedAt        time.Time `json:"createdAt"` // UTC
	UpdatedAt        time.Time `json:"updatedAt"` // UTC
	LastLogin        time.Time `json:"lastLogin"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u User) IsStudent() bool { return u.Role == RoleStudent }

func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// RegistrationCode is a single-use invite token binding a pre-provisioned
// name to a new account. IsUsed transitions false → true exactly once.
type RegistrationCode struct {
	Code      string `json:"code"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	IsUsed    bool   `json:"isUsed"`
	UsedBy    string `json:"usedBy"`
}

// NewUser contains information needed to register a new account.
type NewUser struct {
	Email            string `json:"email" validate:"required,email"`
	Password         string `json:"password" validate:"required"`
	PasswordConfirm  string `json:"password_confirm" validate:"required,eqfield=Password"`
	RegistrationCode string `json:"registration_code" validate:"required"`
}

func (nu *NewUser) Validate() error {
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.RegistrationCode = strings.ToUpper(core.CleanString(nu.RegistrationCode))
	return core.Validate.Struct(nu)
}

// UpdateEmail rotates the account email; the current password re-authenticates
// the caller before anything is touched.
type UpdateEmail struct {
	NewEmail        string `json:"new_email" validate:"required,email"`
	CurrentPassword string `json:"current_password" validate:"required"`
}

func (ue *UpdateEmail) Validate() error {
	ue.NewEmail = core.CleanString(ue.NewEmail, true /* lower */)
	return core.Validate.Struct(ue)
}

type UpdatePassword struct {
	CurrentPassword    string `json:"current_password" validate:"required"`
	NewPassword        string `json:"new_password" validate:"required"`
	NewPasswordConfirm string `json:"new_password_confirm" validate:"required,eqfield=NewPassword"`
}

func (up UpdatePassword) Validate() error { return core.Validate.Struct(up) }

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate() error { return core.Validate.Struct(rp) }

type ForgotPassword struct {
	Email string `json:"email" validate:"required,email"`
}

func (fp *ForgotPassword) Validate() error {
	fp.Email = core.CleanString(fp.Email, true /* lower */)
	return core.Validate.Struct(fp)
}
