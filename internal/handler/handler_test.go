package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/GoPolymarket/schemascope/internal/config"
	"github.com/GoPolymarket/schemascope/internal/introspect"
	"github.com/GoPolymarket/schemascope/internal/model"
	"github.com/GoPolymarket/schemascope/internal/repository"
	"github.com/GoPolymarket/schemascope/internal/sanitize"
	"github.com/GoPolymarket/schemascope/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type nopSink struct{}

func (nopSink) Write(string) error { return nil }

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

type fixture struct {
	router *gin.Engine
	diag   *service.DiagnosticService
}

func newFixture(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=127.0.0.1 user=test password=test dbname=test port=5432 sslmode=disable",
	}), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	require.NoError(t, err)
	require.NoError(t, repository.AttachRecorder(db))

	registry := repository.NewGormRegistry(db, repository.Models()...)
	diag := service.NewDiagnosticService(
		service.NewAssembler(introspect.New(registry)),
		nopSink{},
		service.NewHub(8),
		service.DiagnosticOptions{BufferSize: 64},
	)
	t.Cleanup(diag.Close)

	if cfg == nil {
		cfg = &config.Config{}
	}
	router := NewRouter(RouterDeps{
		Config:      cfg,
		Diagnostics: diag,
		Users:       service.NewUserService(repository.NewUserRepo(db)),
		Orders:      service.NewOrderService(repository.NewOrderRepo(db)),
		Health:      map[string]Pinger{"database": fakePinger{}},
	})
	return &fixture{router: router, diag: diag}
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) latest(t *testing.T) model.DiagnosticRecord {
	t.Helper()
	recs := f.diag.Recent(service.RecentFilter{Limit: 1})
	require.Len(t, recs, 1)
	return recs[0]
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestCreateUserRuleViolations(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodPost, "/users", `{"name":"bob","email":"not-an-email","password":"123"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decode(t, w)
	assert.Equal(t, "ValidationError", body["name"])
	assert.True(t, strings.HasPrefix(body["message"].(string), "User validation failed: "))
	errs, ok := body["errors"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")

	rec := f.latest(t)
	require.True(t, rec.ValidationErrors.Present)
	require.Len(t, rec.ValidationErrors.Entries, 2)
	assert.Equal(t, "email", rec.ValidationErrors.Entries[0].Field)
	assert.Equal(t, "not-an-email", rec.ValidationErrors.Entries[0].ProvidedValue)
	assert.Equal(t, "email", rec.ValidationErrors.Entries[0].ExpectedType)
	assert.Equal(t, "password", rec.ValidationErrors.Entries[1].Field)
	assert.Equal(t, "min", rec.ValidationErrors.Entries[1].ExpectedType)
	assert.Equal(t, sanitize.RedactedMarker, rec.ValidationErrors.Entries[1].ProvidedValue)

	payload := rec.PayloadSent.(map[string]any)
	assert.Equal(t, sanitize.RedactedMarker, payload["password"])
	// Nothing reached storage.
	assert.Nil(t, rec.ExpectedSchema)
}

func TestCreateUserRejectedPasswordNeverRecorded(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		secret string
		kind   string
	}{
		{"too short", `{"name":"bob","email":"b@x.io","password":"hunt2"}`, "hunt2", "min"},
		{"not a string", `{"name":"bob","email":"b@x.io","password":9182736455}`, "9182736455", "String"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, nil)

			w := f.do(http.MethodPost, "/users", tc.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotContains(t, w.Body.String(), tc.secret)

			rec := f.latest(t)
			require.Len(t, rec.ValidationErrors.Entries, 1)
			entry := rec.ValidationErrors.Entries[0]
			assert.Equal(t, "password", entry.Field)
			assert.Equal(t, tc.kind, entry.ExpectedType)
			assert.Equal(t, sanitize.RedactedMarker, entry.ProvidedValue)

			encoded, err := service.Encode(rec, false)
			require.NoError(t, err)
			assert.Contains(t, encoded, `"validation_errors":[`)
			assert.NotContains(t, encoded, tc.secret)

			pretty, err := service.Encode(rec, true)
			require.NoError(t, err)
			assert.NotContains(t, pretty, tc.secret)
		})
	}
}

func TestCreateUserTypeMismatch(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodPost, "/users", `{"name":"bob","email":"b@x.io","password":"secret1","age":"abc"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	rec := f.latest(t)
	require.Len(t, rec.ValidationErrors.Entries, 1)
	assert.Equal(t, model.ValidationErrorEntry{
		Field:         "age",
		ProvidedValue: "abc",
		ExpectedType:  "Number",
		Message:       `Cast to Number failed for value "abc" (type string) at path "age"`,
	}, rec.ValidationErrors.Entries[0])
}

func TestCreateUserSuccess(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodPost, "/users", `{"name":"bob","email":"b@x.io","password":"secret1","age":30}`)
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, "bob", body["name"])
	assert.NotContains(t, body, "password")

	rec := f.latest(t)
	assert.Equal(t, http.StatusCreated, rec.Status)
	assert.False(t, rec.ValidationErrors.Present)
	require.Contains(t, rec.ExpectedSchema, "users")
	users := rec.ExpectedSchema["users"]
	require.True(t, users.Found())
	assert.Equal(t, "Number", users.Map()["age"])
	assert.Equal(t, "String", users.Map()["email"])

	encoded, err := service.Encode(rec, false)
	require.NoError(t, err)
	assert.Contains(t, encoded, `"validation_errors":"None"`)
	assert.NotContains(t, encoded, "secret1")
}

func TestCreateOrderViolations(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodPost, "/orders", `{"orderId":7,"userId":"nope","amount":-1}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	rec := f.latest(t)
	fields := make([]string, 0, len(rec.ValidationErrors.Entries))
	for _, e := range rec.ValidationErrors.Entries {
		fields = append(fields, e.Field)
	}
	assert.Equal(t, []string{"userId", "amount"}, fields)
}

func TestCreateOrderSuccessTouchesOrders(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodPost, "/orders", `{"orderId":7,"userId":"2f1d3c9e-4a55-4a8e-9d53-3c2e8c1a7b10","amount":12.5}`)
	require.Equal(t, http.StatusCreated, w.Code)

	rec := f.latest(t)
	require.Contains(t, rec.ExpectedSchema, "orders")
	assert.Equal(t, "Number", rec.ExpectedSchema["orders"].Map()["amount"])
}

func TestMalformedBodyIsGenericError(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodPost, "/users", `{"name":`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", decode(t, w)["code"])

	rec := f.latest(t)
	assert.False(t, rec.ValidationErrors.Present)
	assert.Equal(t, map[string]any{}, rec.PayloadSent)
}

func TestListUsersIsNotRecorded(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodGet, "/users?limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, f.diag.Recent(service.RecentFilter{}))
}

func TestUnknownRouteIsRecorded(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodGet, "/nowhere", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	rec := f.latest(t)
	assert.Equal(t, "http://example.com/nowhere", rec.URI)
	assert.Nil(t, rec.PayloadSent)
}

func TestUnavailableStorage(t *testing.T) {
	router := NewRouter(RouterDeps{
		Users:  service.NewUserService(nil),
		Orders: service.NewOrderService(nil),
	})
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	// Without a diagnostic service there are no debug routes.
	req = httptest.NewRequest(http.MethodGet, "/debug/diagnostics", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])

	h := NewHealthHandler(map[string]Pinger{"redis": fakePinger{err: errors.New("down")}, "database": nil})
	r := gin.New()
	r.GET("/health", h.Check)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decode(t, w)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, map[string]any{"redis": "down", "database": "disabled"}, body["checks"])
}

func TestDiagnosticsList(t *testing.T) {
	f := newFixture(t, &config.Config{Debug: config.DebugConfig{Key: "k"}})
	f.do(http.MethodPost, "/users", `{"name":"bob"}`)
	f.do(http.MethodGet, "/nowhere", "")

	req := httptest.NewRequest(http.MethodGet, "/debug/diagnostics?method=post", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/debug/diagnostics?method=post", nil)
	req.Header.Set("X-Debug-Key", "k")
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Count   int                      `json:"count"`
		Records []model.DiagnosticRecord `json:"records"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "POST", out.Records[0].Method)
	assert.True(t, out.Records[0].ValidationErrors.Present)

	req = httptest.NewRequest(http.MethodGet, "/debug/diagnostics?limit=abc", nil)
	req.Header.Set("X-Debug-Key", "k")
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDiagnosticsStream(t *testing.T) {
	f := newFixture(t, nil)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/debug/diagnostics/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return f.diag.Hub().Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Post(srv.URL+"/users", "application/json", strings.NewReader(`{"name":"bob"}`))
	require.NoError(t, err)
	resp.Body.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var rec model.DiagnosticRecord
	require.NoError(t, conn.ReadJSON(&rec))
	assert.Equal(t, "POST", rec.Method)
	assert.Equal(t, http.StatusBadRequest, rec.Status)
	assert.True(t, strings.HasSuffix(rec.URI, "/users"))
}
