package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/studentgroup/core"
	"github.com/trezcool/studentgroup/core/group"
	"github.com/trezcool/studentgroup/core/schedule"
	"github.com/trezcool/studentgroup/core/task"
	"github.com/trezcool/studentgroup/core/user"
	emailsvc "github.com/trezcool/studentgroup/services/email"
	prefssvc "github.com/trezcool/studentgroup/services/prefs"
	dummydb "github.com/trezcool/studentgroup/storage/database/dummy"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testEnv struct {
	server   Server
	db       *dummydb.DB
	usrRepo  user.Repository
	schRepo  schedule.Repository
	taskRepo task.Repository
	grpRepo  group.Repository
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	// deterministic error payloads
	core.Conf.Debug = false
	core.Conf.TestMode = true

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	usrRepo := dummydb.NewUserRepository(db)
	schRepo := dummydb.NewScheduleRepository(db)
	taskRepo := dummydb.NewTaskRepository(db)
	grpRepo := dummydb.NewGroupRepository(db)

	logger := core.StdLogger{Std: log.New(io.Discard, "", 0)}
	mailSvc := emailsvc.NewConsoleServiceMock()

	prefsSvc, err := prefssvc.NewService(t.TempDir())
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}

	server := NewServer(&Options{
		DisableReqLogs: true,
		Logger:         logger,
		UserSvc:        user.NewServiceMock(usrRepo, mailSvc, logger),
		ScheduleSvc:    schedule.NewService(schRepo),
		TaskSvc:        task.NewService(taskRepo, logger),
		GroupSvc:       group.NewService(grpRepo),
		PrefsSvc:       prefsSvc,
	})

	return &testEnv{
		server:   server,
		db:       db,
		usrRepo:  usrRepo,
		schRepo:  schRepo,
		taskRepo: taskRepo,
		grpRepo:  grpRepo,
	}
}

func (env *testEnv) createUser(t *testing.T, id, email string, role user.Role) user.User {
	t.Helper()
	usr := user.User{ID: id, Email: email, FirstName: "Test", LastName: "User", Role: role}
	if err := usr.SetPassword("secret"); err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	usr, err := env.usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
