package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"

	. "github.com/erise-club/website/apps/api/echo"
	"github.com/erise-club/website/core"
	"github.com/erise-club/website/core/achievement"
	"github.com/erise-club/website/core/admin"
	"github.com/erise-club/website/core/chat"
	"github.com/erise-club/website/core/event"
	"github.com/erise-club/website/core/member"
	"github.com/erise-club/website/core/resource"
	dummychat "github.com/erise-club/website/services/chat/dummy"
	sqlxrepos "github.com/erise-club/website/storage/database/sqlx"
	"github.com/erise-club/website/testutil"
)

const adminPassword = "erise2026"

var (
	errUnauthorized    = httpErr{Error: "unauthorized"}
	errInvalidPassword = httpErr{Error: "invalid password"}
	success            = map[string]bool{"success": true}
)

type testApp struct {
	*Server
	conf      *core.Config
	db        *sqlx.DB
	adminRepo admin.Repository
	events    resource.Repository[event.Event]
	team      resource.Repository[member.Member]
	awards    resource.Repository[achievement.Achievement]
	assistant *dummychat.Assistant
}

type setupOption func(conf *core.Config, deps *ServerDeps)

func withLimiterStore(store middleware.RateLimiterStore) setupOption {
	return func(_ *core.Config, deps *ServerDeps) { deps.ChatLimiterStore = store }
}

func withConf(f func(conf *core.Config)) setupOption {
	return func(conf *core.Config, _ *ServerDeps) { f(conf) }
}

func setup(t *testing.T, opts ...setupOption) *testApp {
	conf := testutil.NewConfig(t)
	conf.Server.StaticDir = ""
	logger := testutil.NewLogger(conf)

	// set up DB & repos
	db := testutil.PrepareDB(t, conf)
	app := &testApp{
		conf:      conf,
		db:        db,
		adminRepo: sqlxrepos.NewAdminRepository(db),
		events:    sqlxrepos.NewResourceRepository[event.Event](db, event.Schema),
		team:      sqlxrepos.NewResourceRepository[member.Member](db, member.Schema),
		awards:    sqlxrepos.NewResourceRepository[achievement.Achievement](db, achievement.Schema),
		assistant: dummychat.NewAssistant("Hello from E.R.I.S.E.!"),
	}

	// set up services
	adminSvc := admin.NewService(app.adminRepo, conf.Server.SessionTTL)
	if _, err := adminSvc.Bootstrap(context.Background(), admin.DefaultUsername, adminPassword); err != nil {
		t.Fatalf("setup() failed: %v", err)
	}

	validate, translator := core.NewValidator()
	admin.InitValidators(validate, translator)

	deps := ServerDeps{
		Conf:           conf,
		Logger:         logger,
		DB:             db,
		AdminSvc:       adminSvc,
		EventSvc:       event.NewService(app.events),
		MemberSvc:      member.NewService(app.team),
		AchievementSvc: achievement.NewService(app.awards),
		ChatSvc:        chat.NewService(app.assistant, conf.Chat.Timeout, logger),
		Validate:       validate,
		Translator:     translator,
	}
	for _, opt := range opts {
		opt(conf, &deps)
	}

	// set up server
	app.Server = NewServer(deps)
	return app
}

// login returns a token issued by the API.
func (app *testApp) login(t *testing.T) string {
	req, rec := newRequest(http.MethodPost, "/api/login", marchallObj(t, LoginRequest{Password: adminPassword}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login() failed: %d %s", rec.Code, rec.Body.String())
	}
	var resp LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("login() failed: %v", err)
	}
	return resp.Token
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

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

// jsonBytesEqual compares JSON documents; lists must have the same order.
func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		assert.JSONEq(t, string(tt.wantData), rec.Body.String())
	}
}

func runHTTPTests(t *testing.T, app *testApp, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
