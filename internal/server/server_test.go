package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"skillswap/internal/config"
	"skillswap/internal/engine"
	"skillswap/internal/models"
	"skillswap/internal/store"
)

// MockPublisher is a mock of service.ModerationPublisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event models.ModerationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type testServer struct {
	*Server
	t *testing.T
}

func newTestServer(t *testing.T, pub *MockPublisher) *testServer {
	t.Helper()
	cfg := &config.Config{
		Env:           "test",
		Port:          "0",
		StorageDriver: config.StorageFile,
		FeatureFlags:  "demo_login=on,reciprocal_hints=on",
	}
	opts := Options{Clock: func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	}}
	if pub != nil {
		opts.Publisher = pub
	}
	s := NewServer(cfg, store.New(engine.Initial(), nil), opts)
	t.Cleanup(s.unfollow)
	return &testServer{Server: s, t: t}
}

// do sends a JSON request and decodes a JSON response into out when set.
func (ts *testServer) do(method, path string, body any, out any) *http.Response {
	ts.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(ts.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(ts.t, err)
	ts.t.Cleanup(func() { _ = resp.Body.Close() })
	if out != nil {
		require.NoError(ts.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func (ts *testServer) register(name, email string, offered ...string) models.User {
	ts.t.Helper()
	var u models.User
	resp := ts.do(http.MethodPost, "/api/auth/register", map[string]string{"name": name, "email": email}, &u)
	require.Equal(ts.t, http.StatusCreated, resp.StatusCode)
	if len(offered) > 0 {
		resp = ts.do(http.MethodPut, "/api/users/me", map[string]any{"skillsOffered": offered}, &u)
		require.Equal(ts.t, http.StatusOK, resp.StatusCode)
	}
	return u
}

func (ts *testServer) login(email string) {
	ts.t.Helper()
	resp := ts.do(http.MethodPost, "/api/auth/login", map[string]string{"email": email}, nil)
	require.Equal(ts.t, http.StatusOK, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)

	var health map[string]any
	resp := ts.do(http.MethodGet, "/health", nil, &health)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "up", health["status"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp = ts.do(http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthHandlers(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)

	ada := ts.register("Ada", "ada@example.com")
	assert.True(t, ada.IsAdmin)

	var session SessionResponse
	resp := ts.do(http.MethodGet, "/api/session", nil, &session)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, ada.ID, session.User.ID)
	assert.True(t, session.Flags["demo_login"])

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"duplicate email", http.MethodPost, "/api/auth/register", map[string]string{"name": "A", "email": "ADA@example.com"}, http.StatusConflict, models.CodeConflict},
		{"missing name", http.MethodPost, "/api/auth/register", map[string]string{"email": "x@example.com"}, http.StatusBadRequest, models.CodeValidation},
		{"unknown login", http.MethodPost, "/api/auth/login", map[string]string{"email": "nobody@example.com"}, http.StatusUnauthorized, models.CodeUnauthorized},
		{"bad demo role", http.MethodPost, "/api/auth/demo", map[string]string{"role": "root"}, http.StatusBadRequest, models.CodeValidation},
	}
	for _, tt := range tests {
		var body models.ErrorResponse
		resp := ts.do(tt.method, tt.path, tt.body, &body)
		assert.Equal(t, tt.status, resp.StatusCode, tt.name)
		assert.Equal(t, tt.code, body.Code, tt.name)
	}

	resp = ts.do(http.MethodPost, "/api/auth/logout", nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = ts.do(http.MethodGet, "/api/session", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	ts.login("ada@example.com")
	resp = ts.do(http.MethodGet, "/api/session", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthHandlers_MalformedBody(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDemoLogin(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)

	var u models.User
	resp := ts.do(http.MethodPost, "/api/auth/demo", map[string]string{"role": "admin"}, &u)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, u.IsAdmin)

	resp = ts.do(http.MethodPost, "/api/auth/demo?role=user", nil, &u)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, u.IsAdmin)
	assert.Equal(t, "user@demo.com", u.Email)
}

func TestUserHandlers(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)

	ts.register("Ada", "ada@example.com", "Guitar")
	bob := ts.register("Bob", "bob@example.com", "Pottery", "UI/UX Design")

	var entries []map[string]any
	resp := ts.do(http.MethodGet, "/api/users?q=guitar", nil, &entries)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, entries, 1)
	assert.Equal(t, "Ada", entries[0]["name"])

	var u models.User
	resp = ts.do(http.MethodGet, "/api/users/"+bob.ID, nil, &u)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bob", u.Name)

	resp = ts.do(http.MethodGet, "/api/users/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = ts.do(http.MethodPost, "/api/users/me/skills/wanted", SkillRequest{Skill: "Guitar"}, &u)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"Guitar"}, u.SkillsWanted)

	resp = ts.do(http.MethodDelete, "/api/users/me/skills/offered/UI%2FUX%20Design", nil, &u)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"Pottery"}, u.SkillsOffered)

	resp = ts.do(http.MethodPost, "/api/users/me/skills/hobbies", SkillRequest{Skill: "Chess"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var dash map[string]any
	resp = ts.do(http.MethodGet, "/api/dashboard", nil, &dash)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, dash, "summary")
}

func TestSwapHandlers_Lifecycle(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)

	ada := ts.register("Ada", "ada@example.com", "Guitar")
	ts.register("Bob", "bob@example.com", "Pottery")

	var created struct {
		Request models.SwapRequest `json:"request"`
	}
	resp := ts.do(http.MethodPost, "/api/swaps", map[string]string{
		"toUserId": ada.ID, "offeredSkill": "Pottery", "requestedSkill": "Guitar",
	}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, models.SwapStatusPending, created.Request.Status)
	id := created.Request.ID

	resp = ts.do(http.MethodPost, "/api/swaps", map[string]string{
		"toUserId": ada.ID, "offeredSkill": "Pottery", "requestedSkill": "Guitar",
	}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = ts.do(http.MethodPost, "/api/swaps/"+id+"/accept", nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "requester cannot accept")

	ts.login("ada@example.com")

	var dirs struct {
		Received []models.SwapRequest `json:"received"`
	}
	resp = ts.do(http.MethodGet, "/api/swaps", nil, &dirs)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, dirs.Received, 1)

	steps := []struct {
		path   string
		status int
		want   models.SwapStatus
	}{
		{"/complete", http.StatusConflict, ""},
		{"/accept", http.StatusOK, models.SwapStatusAccepted},
		{"/accept", http.StatusConflict, ""},
		{"/complete", http.StatusOK, models.SwapStatusCompleted},
	}
	for _, step := range steps {
		var req models.SwapRequest
		resp := ts.do(http.MethodPost, "/api/swaps/"+id+step.path, nil, &req)
		require.Equal(t, step.status, resp.StatusCode, step.path)
		if step.want != "" {
			assert.Equal(t, step.want, req.Status)
		}
	}

	var fb models.Feedback
	resp = ts.do(http.MethodPost, "/api/swaps/"+id+"/feedback", map[string]any{"rating": 5, "comment": "Great"}, &fb)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 5, fb.Rating)

	resp = ts.do(http.MethodPost, "/api/swaps/"+id+"/feedback", map[string]any{"rating": 4}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = ts.do(http.MethodPost, "/api/swaps/missing/accept", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSwapHandlers_Delete(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)

	ada := ts.register("Ada", "ada@example.com", "Guitar")
	ts.register("Bob", "bob@example.com", "Pottery")

	var created struct {
		Request models.SwapRequest `json:"request"`
	}
	resp := ts.do(http.MethodPost, "/api/swaps", map[string]string{
		"toUserId": ada.ID, "offeredSkill": "Pottery", "requestedSkill": "Guitar",
	}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = ts.do(http.MethodDelete, "/api/swaps/"+created.Request.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = ts.do(http.MethodDelete, "/api/swaps/"+created.Request.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminRequired(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)

	resp := ts.do(http.MethodGet, "/api/admin/stats", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	ts.register("Ada", "ada@example.com")
	ts.register("Bob", "bob@example.com")
	resp = ts.do(http.MethodGet, "/api/admin/stats", nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	ts.login("ada@example.com")
	var stats map[string]any
	resp = ts.do(http.MethodGet, "/api/admin/stats", nil, &stats)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, stats["totalUsers"])
	assert.EqualValues(t, 1, stats["adminUsers"])
}

func TestAdminHandlers_Moderation(t *testing.T) {
	t.Parallel()
	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(e models.ModerationEvent) bool {
		return e.Action == models.ModerationBan
	})).Return(nil).Once()
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(e models.ModerationEvent) bool {
		return e.Action == models.ModerationUnban
	})).Return(nil).Once()
	ts := newTestServer(t, pub)

	ada := ts.register("Ada", "ada@example.com")
	bob := ts.register("Bob", "bob@example.com")
	ts.login("ada@example.com")

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"ban", "/api/admin/users/" + bob.ID + "/ban", http.StatusNoContent},
		{"ban twice", "/api/admin/users/" + bob.ID + "/ban", http.StatusConflict},
		{"ban self", "/api/admin/users/" + ada.ID + "/ban", http.StatusForbidden},
		{"ban unknown", "/api/admin/users/missing/ban", http.StatusNotFound},
		{"demote self", "/api/admin/users/" + ada.ID + "/demote", http.StatusForbidden},
		{"promote banned", "/api/admin/users/" + bob.ID + "/promote", http.StatusConflict},
		{"unban", "/api/admin/users/" + bob.ID + "/unban", http.StatusNoContent},
	}
	for _, tt := range tests {
		resp := ts.do(http.MethodPost, tt.path, nil, nil)
		assert.Equal(t, tt.status, resp.StatusCode, tt.name)
	}
	pub.AssertExpectations(t)

	var users []models.User
	resp := ts.do(http.MethodGet, "/api/admin/users", nil, &users)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, users, 2)
}

func TestAdminHandlers_ReportAndBroadcast(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)
	ts.register("Ada", "ada@example.com")

	var msg models.AdminMessage
	resp := ts.do(http.MethodPost, "/api/admin/messages", map[string]string{"title": "Maintenance", "content": "Down at noon"}, &msg)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Maintenance", msg.Title)

	resp = ts.do(http.MethodPost, "/api/admin/messages", map[string]string{"title": " "}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var msgs []models.AdminMessage
	resp = ts.do(http.MethodGet, "/api/messages", nil, &msgs)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, msgs, 1)

	var report map[string]any
	resp = ts.do(http.MethodGet, "/api/admin/report", nil, &report)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="skill-swap-report-2026-03-01.json"`, resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "Ada", report["generatedBy"])

	var flags map[string]any
	resp = ts.do(http.MethodGet, "/api/admin/feature-flags", nil, &flags)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, flags, "configured")
}

func TestWebsocketRequiresUpgrade(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)

	resp := ts.do(http.MethodGet, "/ws/events", nil, nil)
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}

func TestShutdown(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)

	require.NoError(t, ts.Shutdown(context.Background()))
	_, err := ts.hub.Register("", nil)
	assert.Error(t, err)
}
