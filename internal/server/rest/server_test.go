package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/drivesense/internal/common"
	"github.com/dmitrijs2005/drivesense/internal/logging"
	"github.com/dmitrijs2005/drivesense/internal/server/classifier"
	"github.com/dmitrijs2005/drivesense/internal/server/config"
	"github.com/dmitrijs2005/drivesense/internal/server/models"
	"github.com/dmitrijs2005/drivesense/internal/server/repositories/events"
	"github.com/dmitrijs2005/drivesense/internal/server/services"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeUsers struct {
	byToken map[string]*models.User
	regErr  error
	loginFn func(name, pw string) (string, error)
}

func (f *fakeUsers) Register(_ context.Context, in services.RegisterInput) (*models.User, error) {
	if f.regErr != nil {
		return nil, f.regErr
	}
	return &models.User{ID: 1, Email: in.Email, UserName: in.UserName, FullName: in.FullName, IsActive: true, CreatedAt: created}, nil
}

func (f *fakeUsers) Login(_ context.Context, name, pw string) (string, error) {
	return f.loginFn(name, pw)
}

func (f *fakeUsers) Resolve(_ context.Context, token string) (*models.User, error) {
	if token == "ghost" {
		return nil, common.ErrorNotFound
	}
	u, ok := f.byToken[token]
	if !ok {
		return nil, fmt.Errorf("%w: %w", common.ErrAuthentication, common.ErrBadSignature)
	}
	return u, nil
}

type fakeEvents struct {
	rows     []*models.DrivingEvent
	lastPage events.Page
}

func (f *fakeEvents) Record(_ context.Context, u *models.User, in models.DrivingEventInput) (*models.DrivingEvent, error) {
	e := &models.DrivingEvent{
		ID: int64(len(f.rows) + 1), UserID: u.ID, EventType: in.EventType, Severity: in.Severity,
		Speed: in.Speed, Notes: in.Notes, Timestamp: created, CreatedAt: created,
	}
	f.rows = append(f.rows, e)
	return e, nil
}

func (f *fakeEvents) ListFor(_ context.Context, u *models.User, page events.Page) ([]*models.DrivingEvent, error) {
	f.lastPage = page
	out := make([]*models.DrivingEvent, 0)
	for _, e := range f.rows {
		if e.UserID == u.ID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEvents) GetOne(_ context.Context, u *models.User, id int64) (*models.DrivingEvent, error) {
	for _, e := range f.rows {
		if e.ID == id && e.UserID == u.ID {
			return e, nil
		}
	}
	return nil, common.ErrorNotFound
}

type fakeStyles struct {
	rows []*models.DrivingStyle
}

func (f *fakeStyles) Save(_ context.Context, u *models.User, in models.DrivingStyleInput) (*models.DrivingStyle, error) {
	days := in.AnalysisPeriodDays
	if days == 0 {
		days = 7
	}
	s := &models.DrivingStyle{
		ID: int64(len(f.rows) + 1), UserID: u.ID, StyleCategory: in.StyleCategory, Confidence: in.Confidence,
		TotalEvents: in.TotalEvents, AnalysisPeriodDays: days, CreatedAt: created, UpdatedAt: created,
	}
	f.rows = append(f.rows, s)
	return s, nil
}

func (f *fakeStyles) LatestFor(_ context.Context, u *models.User) (*models.DrivingStyle, error) {
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].UserID == u.ID {
			return f.rows[i], nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeStyles) History(_ context.Context, u *models.User) ([]*models.DrivingStyle, error) {
	out := make([]*models.DrivingStyle, 0)
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].UserID == u.ID {
			out = append(out, f.rows[i])
		}
	}
	return out, nil
}

type fakeModels struct {
	eventErr error
}

func (f fakeModels) ClassifyEvent(features []float64) (*classifier.Verdict, error) {
	if f.eventErr != nil {
		return nil, f.eventErr
	}
	return &classifier.Verdict{Label: "harsh_braking", Confidence: 0.91, ModelType: common.ModelTypeDrivingEvent}, nil
}

func (f fakeModels) ClassifyStyle([]float64) (*classifier.Verdict, error) {
	return nil, classifier.ErrModelUnavailable
}

type env struct {
	srv    *Server
	users  *fakeUsers
	events *fakeEvents
	styles *fakeStyles
	models *fakeModels
}

func newEnv(t *testing.T, enforceActive bool) *env {
	t.Helper()
	e := &env{
		users: &fakeUsers{
			byToken: map[string]*models.User{
				"alice-token": {ID: 1, UserName: "alice", IsActive: true},
				"bob-token":   {ID: 2, UserName: "bob", IsActive: true},
				"carl-token":  {ID: 3, UserName: "carl", IsActive: false},
			},
			loginFn: func(name, pw string) (string, error) {
				switch {
				case name == "alice" && pw == "pw":
					return "alice-token", nil
				case name == "carl":
					return "", common.ErrForbidden
				}
				return "", common.ErrAuthentication
			},
		},
		events: &fakeEvents{},
		styles: &fakeStyles{},
		models: &fakeModels{},
	}
	cfg := &config.Config{
		HTTPAddr:              "127.0.0.1:0",
		AllowedOrigins:        []string{"http://localhost:3000"},
		EnforceActiveOnAccess: enforceActive,
	}
	e.srv = NewServer(cfg, Deps{Users: e.users, Events: e.events, Styles: e.styles, Models: e.models}, logging.Nop{})
	return e
}

func (e *env) do(t *testing.T, method, target, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.srv.App().Test(req, -1)
	require.NoError(t, err)
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func detail(t *testing.T, body []byte) string {
	t.Helper()
	var er errorResponse
	require.NoError(t, json.Unmarshal(body, &er))
	return er.Detail
}

func TestHealthAndRoot(t *testing.T) {
	e := newEnv(t, true)

	resp, body := e.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"healthy","api_version":"1.0.0"}`, string(body))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.NotEmpty(t, resp.Header.Get("X-Process-Time"))

	resp, _ = e.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandlerPanicIsLoggedAndCounted(t *testing.T) {
	e := newEnv(t, true)
	e.srv.App().Get("/boom", func(*fiber.Ctx) error { panic("boom") })

	resp, body := e.do(t, http.MethodGet, "/boom", "", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Internal server error", detail(t, body))
	assert.NotEmpty(t, resp.Header.Get("X-Process-Time"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	_, body = e.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Contains(t, string(body), `drivesense_http_requests_total{method="GET",route="/boom",status="500"} 1`)
}

func TestRequestIDIsEchoed(t *testing.T) {
	e := newEnv(t, true)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := e.srv.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))
}

func TestRegister(t *testing.T) {
	e := newEnv(t, true)

	resp, body := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": "alice@example.com", "username": "alice", "password": "pw", "full_name": "Alice",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var u userResponse
	require.NoError(t, json.Unmarshal(body, &u))
	assert.Equal(t, "alice", u.Username)
	assert.True(t, u.IsActive)
	assert.NotContains(t, string(body), "password")

	resp, body = e.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": "not-an-email", "username": "alice", "password": "pw",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, detail(t, body), "validation error")

	e.users.regErr = common.ErrDuplicate
	resp, body = e.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": "alice@example.com", "username": "alice", "password": "pw",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Email or username already registered", detail(t, body))
}

func TestLogin(t *testing.T) {
	e := newEnv(t, true)

	resp, body := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "alice", "password": "pw"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"access_token":"alice-token","token_type":"bearer"}`, string(body))

	// query-string form
	resp, _ = e.do(t, http.MethodPost, "/api/auth/login?username=alice&password=pw", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "alice", "password": "no"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid credentials", detail(t, body))
	assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))

	resp, body = e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "carl", "password": "pw"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "User account is inactive", detail(t, body))

	resp, _ = e.do(t, http.MethodPost, "/api/auth/login", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuthRequired(t *testing.T) {
	e := newEnv(t, true)

	resp, body := e.do(t, http.MethodGet, "/api/driving-events", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Not authenticated", detail(t, body))

	resp, body = e.do(t, http.MethodGet, "/api/driving-events", "forged", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid authentication credentials", detail(t, body))

	resp, body = e.do(t, http.MethodGet, "/api/driving-events", "ghost", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "User not found", detail(t, body))

	// query parameter fallback
	resp, _ = e.do(t, http.MethodGet, "/api/driving-events?token=alice-token", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestInactiveUserOnResourceRoutes(t *testing.T) {
	resp, body := newEnv(t, true).do(t, http.MethodGet, "/api/predictions/driving-style/history", "carl-token", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "User account is inactive", detail(t, body))

	resp, _ = newEnv(t, false).do(t, http.MethodGet, "/api/predictions/driving-style/history", "carl-token", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEvents(t *testing.T) {
	e := newEnv(t, true)

	resp, body := e.do(t, http.MethodPost, "/api/driving-events", "alice-token", map[string]any{
		"event_type": "harsh_braking", "severity": 1.4, "speed": 72.0,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var ev eventResponse
	require.NoError(t, json.Unmarshal(body, &ev))
	assert.Equal(t, int64(1), ev.UserID)
	assert.Equal(t, 1.4, ev.Severity)
	assert.Nil(t, ev.Latitude)

	resp, _ = e.do(t, http.MethodPost, "/api/driving-events", "alice-token", map[string]any{"event_type": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = e.do(t, http.MethodGet, "/api/driving-events", "alice-token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []eventResponse
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 1)
	assert.Equal(t, events.Page{Limit: 100, Offset: 0}, e.events.lastPage)

	resp, _ = e.do(t, http.MethodGet, "/api/driving-events?skip=5&limit=10", "alice-token", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, events.Page{Limit: 10, Offset: 5}, e.events.lastPage)

	resp, _ = e.do(t, http.MethodGet, "/api/driving-events?limit=0", "alice-token", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = e.do(t, http.MethodGet, "/api/driving-events", "bob-token", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "[]", strings.TrimSpace(string(body)))

	resp, _ = e.do(t, http.MethodGet, "/api/driving-events/1", "alice-token", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = e.do(t, http.MethodGet, "/api/driving-events/1", "bob-token", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Event not found", detail(t, body))

	resp, _ = e.do(t, http.MethodGet, "/api/driving-events/abc", "alice-token", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPredictions(t *testing.T) {
	e := newEnv(t, true)

	resp, body := e.do(t, http.MethodPost, "/api/predictions/driving-event", "alice-token", map[string]any{"features": []float64{1, 2, 3}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"prediction":"harsh_braking","confidence":0.91,"model_type":"driving_event"}`, string(body))

	resp, body = e.do(t, http.MethodPost, "/api/predictions/driving-style", "alice-token", map[string]any{"features": []float64{1}})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Model not loaded", detail(t, body))

	e.models.eventErr = fmt.Errorf("%w: %w", classifier.ErrPredictionFailed, errors.New("expected 4 features, got 3"))
	resp, body = e.do(t, http.MethodPost, "/api/predictions/driving-event", "alice-token", map[string]any{"features": []float64{1, 2, 3}})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Prediction failed: expected 4 features, got 3", detail(t, body))

	resp, _ = e.do(t, http.MethodPost, "/api/predictions/driving-event", "alice-token", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStyles(t *testing.T) {
	e := newEnv(t, true)

	resp, body := e.do(t, http.MethodGet, "/api/predictions/driving-style/latest", "alice-token", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "No style analysis found", detail(t, body))

	resp, body = e.do(t, http.MethodPost, "/api/predictions/driving-style/save", "alice-token", map[string]any{
		"style_category": "calm", "confidence": 0.8, "total_events": 3,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var st styleResponse
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, 7, st.AnalysisPeriodDays)

	resp, _ = e.do(t, http.MethodPost, "/api/predictions/driving-style/save?style_category=aggressive&confidence=0.6", "alice-token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPost, "/api/predictions/driving-style/save", "alice-token", map[string]any{"style_category": "calm"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = e.do(t, http.MethodGet, "/api/predictions/driving-style/latest", "alice-token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, "aggressive", st.StyleCategory)

	resp, body = e.do(t, http.MethodGet, "/api/predictions/driving-style/history", "alice-token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var hist []styleResponse
	require.NoError(t, json.Unmarshal(body, &hist))
	assert.Len(t, hist, 2)

	resp, _ = e.do(t, http.MethodGet, "/api/predictions/driving-style/latest", "bob-token", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	e := newEnv(t, true)
	e.do(t, http.MethodGet, "/health", "", nil)
	e.do(t, http.MethodPost, "/api/predictions/driving-style", "alice-token", map[string]any{"features": []float64{1}})

	resp, body := e.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `drivesense_http_requests_total{method="GET",route="/health",status="200"} 1`)
	assert.Contains(t, string(body), `drivesense_predictions_total{model_type="driving_style",outcome="unavailable"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	e := newEnv(t, true)
	req := httptest.NewRequest(http.MethodOptions, "/api/driving-events", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := e.srv.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		code int
		msg  string
	}{
		{fmt.Errorf("%w: %w", common.ErrAuthentication, common.ErrTokenExpired), 401, "Invalid authentication credentials"},
		{common.ErrForbidden, 403, "User account is inactive"},
		{fmt.Errorf("wrap: %w", common.ErrorNotFound), 404, "Not found"},
		{common.ErrDuplicate, 400, "Email or username already registered"},
		{classifier.ErrModelUnavailable, 500, "Model not loaded"},
		{errors.New("db error: boom"), 500, "Internal server error"},
	}
	for _, tt := range tests {
		code, msg := statusFor(tt.err)
		assert.Equal(t, tt.code, code, tt.err.Error())
		assert.Equal(t, tt.msg, msg)
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	e := newEnv(t, true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.srv.Run(ctx) }()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop after context cancel")
	}
}
