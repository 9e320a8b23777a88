package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/studentgroup/core/user"
)

func Test_userApi_register(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	seedCodes := []user.RegistrationCode{
		{Code: "AB12CD34", FirstName: "Jan", LastName: "Kowalski"},
		{Code: "ZZ99XX88", FirstName: "Anna", LastName: "Nowak", IsUsed: true, UsedBy: "anna@test.cm"},
	}
	if err := env.usrRepo.SeedRegistrationCodes(ctx, seedCodes); err != nil {
		t.Fatalf("seeding codes failed: %v", err)
	}

	body := func(email, code string) []byte {
		return marshallObj(t, map[string]string{
			"email":             email,
			"password":          "s3cr3tpwd",
			"password_confirm":  "s3cr3tpwd",
			"registration_code": code,
		})
	}

	tests := []httpTest{
		{
			name: "valid code creates account", method: http.MethodPost, path: "/v1/users/register",
			body: body("jan@test.cm", "AB12CD34"), wantCode: http.StatusCreated,
		},
		{
			name: "unknown code rejected", method: http.MethodPost, path: "/v1/users/register",
			body: body("ghost@test.cm", "NOPE0000"), wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"registration_code": "invalid registration code"}),
		},
		{
			name: "used code rejected", method: http.MethodPost, path: "/v1/users/register",
			body: body("second@test.cm", "ZZ99XX88"), wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"registration_code": "registration code already used"}),
		},
		{
			name: "code is single-use", method: http.MethodPost, path: "/v1/users/register",
			body: body("other@test.cm", "AB12CD34"), wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"registration_code": "registration code already used"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// registration filled names from the code and granted the student role
	usr, err := env.usrRepo.GetUserByEmail(ctx, "jan@test.cm")
	if err != nil {
		t.Fatalf("registered user not found: %v", err)
	}
	if usr.FirstName != "Jan" || usr.LastName != "Kowalski" {
		t.Errorf("names = %q %q; want Jan Kowalski", usr.FirstName, usr.LastName)
	}
	if !usr.IsStudent() {
		t.Errorf("role = %v; want student", usr.Role)
	}
	code, _ := env.usrRepo.GetRegistrationCode(ctx, "AB12CD34")
	if !code.IsUsed || code.UsedBy != "jan@test.cm" {
		t.Errorf("code not consumed: %+v", code)
	}

	// account created by the rejected attempt must not exist
	if _, err := env.usrRepo.GetUserByEmail(ctx, "other@test.cm"); err != user.ErrNotFound {
		t.Errorf("rejected registration created an account; err = %v", err)
	}
}

func Test_userApi_login(t *testing.T) {
	env := setup(t)
	env.createUser(t, "u1", "jan@test.cm", user.RoleStudent)

	tests := []httpTest{
		{
			name: "ok", method: http.MethodPost, path: "/v1/users/login",
			body:     marshallObj(t, map[string]string{"email": "jan@test.cm", "password": "secret"}),
			wantCode: http.StatusOK,
		},
		{
			name: "email is case-insensitive", method: http.MethodPost, path: "/v1/users/login",
			body:     marshallObj(t, map[string]string{"email": "Jan@Test.cm", "password": "secret"}),
			wantCode: http.StatusOK,
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/users/login",
			body:     marshallObj(t, map[string]string{"email": "jan@test.cm", "password": "nope"}),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "unknown account", method: http.MethodPost, path: "/v1/users/login",
			body:     marshallObj(t, map[string]string{"email": "ghost@test.cm", "password": "secret"}),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Error: "authentication failed"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				var resp LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Token == "" {
					t.Errorf("expected a token; body = %s", rec.Body.String())
				}
			}
		})
	}
}

func Test_userApi_me(t *testing.T) {
	env := setup(t)
	usr := env.createUser(t, "u1", "jan@test.cm", user.RoleStudent)

	t.Run("auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/users/me")
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)}, rec)
	})

	t.Run("ok", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/me", getToken(t, usr))
		env.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want 200; body = %s", rec.Code, rec.Body.String())
		}
		var got user.User
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("unmarshalling body: %v", err)
		}
		if got.Email != usr.Email {
			t.Errorf("email = %q; want %q", got.Email, usr.Email)
		}
	})
}

func Test_userApi_updateEmail(t *testing.T) {
	env := setup(t)
	usr := env.createUser(t, "u1", "jan@test.cm", user.RoleStudent)
	token := getToken(t, usr)

	tests := []httpTest{
		{
			name: "wrong current password", method: http.MethodPut, path: "/v1/users/me/email", token: token,
			body:     marshallObj(t, map[string]string{"new_email": "new@test.cm", "current_password": "nope"}),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"current_password": "incorrect password"}),
		},
		{
			name: "ok", method: http.MethodPut, path: "/v1/users/me/email", token: token,
			body:     marshallObj(t, map[string]string{"new_email": "new@test.cm", "current_password": "secret"}),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	got, err := env.usrRepo.GetUserByID(context.Background(), usr.ID)
	if err != nil {
		t.Fatalf("fetching user: %v", err)
	}
	if got.Email != "new@test.cm" {
		t.Errorf("email = %q; want new@test.cm", got.Email)
	}
}

func Test_userApi_query(t *testing.T) {
	env := setup(t)
	student := env.createUser(t, "u1", "student@test.cm", user.RoleStudent)
	teacher := env.createUser(t, "u2", "teacher@test.cm", user.RoleTeacher)

	tests := []httpTest{
		{name: "auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{
			name: "teacher role required", path: "/v1/users", token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "ok", path: "/v1/users", token: getToken(t, teacher), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_signout(t *testing.T) {
	env := setup(t)
	usr := env.createUser(t, "u1", "jan@test.cm", user.RoleStudent)

	req, rec := newAuthRequest(http.MethodPost, "/v1/users/signout", getToken(t, usr))
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("code = %v; want 204", rec.Code)
	}
}
