package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tvtracker/tvtracker/internal/config"
	"github.com/tvtracker/tvtracker/internal/scheduler/tasks"
	"github.com/tvtracker/tvtracker/internal/testutil"
)

type testServer struct {
	*Server
	userToken string
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tdb := testutil.NewTestDB(t)

	cfg := config.Default()
	cfg.Catalog.Mock = true
	cfg.Scheduler.Timezone = "UTC"
	cfg.Scheduler.LockPath = filepath.Join(tdb.Path, "scheduler.lock")

	// Background alert firings may outlive the test, so the server logs nowhere.
	server, err := NewServer(tdb.Conn, nil, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	ctx := context.Background()
	user, err := server.authService.Signup(ctx, "walt@example.com", "heisenberg")
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	token, err := server.authService.GenerateToken(user)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	return &testServer{Server: server, userToken: token}
}

func (ts *testServer) do(method, path, body string, authenticated bool) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if authenticated {
		req.Header.Set("Authorization", "Bearer "+ts.userToken)
	}

	rec := httptest.NewRecorder()
	ts.echo.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to parse response %q: %v", rec.Body.String(), err)
	}
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	decode(t, rec, &body)
	return body.Message
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(http.MethodGet, "/api/health", "", false)
	if rec.Code != http.StatusOK {
		t.Errorf("HealthCheck status = %d, want %d", rec.Code, http.StatusOK)
	}

	var response map[string]string
	decode(t, rec, &response)
	if response["status"] != "ok" {
		t.Errorf("HealthCheck status = %q, want %q", response["status"], "ok")
	}
}

func TestGetStatus(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(http.MethodGet, "/api/status", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("GetStatus status = %d, want %d", rec.Code, http.StatusOK)
	}

	var response map[string]any
	decode(t, rec, &response)
	for _, field := range []string{"version", "showCount", "alertCount", "schedulerRunning"} {
		if _, ok := response[field]; !ok {
			t.Errorf("GetStatus missing %s field", field)
		}
	}
	if response["schedulerRunning"] != false {
		t.Errorf("schedulerRunning = %v, want false", response["schedulerRunning"])
	}
}

func TestAddShow(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(http.MethodPost, "/api/shows", `{"showName":"Breaking Bad"}`, false)
	if rec.Code != http.StatusCreated {
		t.Fatalf("AddShow status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var show struct {
		ID       int64  `json:"id"`
		Name     string `json:"name"`
		Network  string `json:"network"`
		Episodes []any  `json:"episodes"`
	}
	decode(t, rec, &show)
	if show.ID != 81189 || show.Name != "Breaking Bad" || show.Network != "AMC" {
		t.Errorf("AddShow = %+v", show)
	}
	if len(show.Episodes) == 0 {
		t.Error("AddShow returned no episodes")
	}

	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantMessage string
	}{
		{"duplicate", `{"showName":"Breaking Bad"}`, http.StatusConflict, "Breaking Bad already exists."},
		{"unknown", `{"showName":"Nope Show"}`, http.StatusNotFound, "Nope Show was not found."},
		{"empty", `{"showName":"  "}`, http.StatusBadRequest, "showName is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/api/shows", tt.body, false)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := errorMessage(t, rec); got != tt.wantMessage {
				t.Errorf("message = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestListAndGetShows(t *testing.T) {
	ts := setupTestServer(t)

	for _, name := range []string{"Breaking Bad", "Game of Thrones", "The Office"} {
		if rec := ts.do(http.MethodPost, "/api/shows", `{"showName":"`+name+`"}`, false); rec.Code != http.StatusCreated {
			t.Fatalf("AddShow(%q) status = %d: %s", name, rec.Code, rec.Body.String())
		}
	}

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantCount  int
	}{
		{"unfiltered", "", http.StatusOK, 3},
		{"genre", "?genre=Drama", http.StatusOK, 2},
		{"alphabet", "?alphabet=g", http.StatusOK, 1},
		{"alphabet range", "?alphabet=A-H", http.StatusOK, 2},
		{"reversed alphabet range", "?alphabet=T-B", http.StatusBadRequest, 0},
		{"invalid alphabet", "?alphabet=ab", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodGet, "/api/shows"+tt.query, "", false)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var list []map[string]any
			decode(t, rec, &list)
			if len(list) != tt.wantCount {
				t.Errorf("got %d shows, want %d", len(list), tt.wantCount)
			}
		})
	}

	if rec := ts.do(http.MethodGet, "/api/shows/121361", "", false); rec.Code != http.StatusOK {
		t.Errorf("GetShow status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec := ts.do(http.MethodGet, "/api/shows/1", "", false); rec.Code != http.StatusNotFound {
		t.Errorf("GetShow(missing) status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if rec := ts.do(http.MethodGet, "/api/shows/abc", "", false); rec.Code != http.StatusBadRequest {
		t.Errorf("GetShow(abc) status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSignupLoginMe(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(http.MethodPost, "/api/auth/signup", `{"email":"Jesse@Example.com","password":"yo"}`, false)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Signup status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(http.MethodPost, "/api/auth/signup", `{"email":"jesse@example.com","password":"yo"}`, false)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate Signup status = %d, want %d", rec.Code, http.StatusConflict)
	}

	rec = ts.do(http.MethodPost, "/api/auth/signup", `{"email":"not-an-email","password":"yo"}`, false)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid Signup status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = ts.do(http.MethodPost, "/api/auth/login", `{"email":"jesse@example.com","password":"wrong"}`, false)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad Login status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	rec = ts.do(http.MethodPost, "/api/auth/login", `{"email":"jesse@example.com","password":"yo"}`, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("Login status = %d: %s", rec.Code, rec.Body.String())
	}
	var login AuthResponse
	decode(t, rec, &login)
	if login.Token == "" || login.User == nil || login.User.Email != "jesse@example.com" {
		t.Fatalf("Login response = %+v", login)
	}

	ts.userToken = login.Token
	rec = ts.do(http.MethodGet, "/api/auth/me", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("Me status = %d: %s", rec.Code, rec.Body.String())
	}
	var me map[string]any
	decode(t, rec, &me)
	if me["email"] != "jesse@example.com" {
		t.Errorf("Me email = %v", me["email"])
	}
}

func TestSubscription(t *testing.T) {
	ts := setupTestServer(t)

	if rec := ts.do(http.MethodPost, "/api/shows", `{"showName":"Breaking Bad"}`, false); rec.Code != http.StatusCreated {
		t.Fatalf("AddShow status = %d", rec.Code)
	}

	if rec := ts.do(http.MethodPost, "/api/subscribe", `{"showId":81189}`, false); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous Subscribe status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if rec := ts.do(http.MethodPost, "/api/subscribe", `{"showId":81189}`, true); rec.Code != http.StatusOK {
		t.Fatalf("Subscribe status = %d: %s", rec.Code, rec.Body.String())
	}

	show, err := ts.showService.FindByID(context.Background(), 81189)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if len(show.Subscribers) != 1 {
		t.Errorf("Subscribers = %v, want one", show.Subscribers)
	}

	if rec := ts.do(http.MethodPost, "/api/subscribe", `{"showId":1}`, true); rec.Code != http.StatusNotFound {
		t.Errorf("Subscribe(missing) status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	if rec := ts.do(http.MethodPost, "/api/unsubscribe", `{"showId":81189}`, true); rec.Code != http.StatusOK {
		t.Fatalf("Unsubscribe status = %d: %s", rec.Code, rec.Body.String())
	}
	show, _ = ts.showService.FindByID(context.Background(), 81189)
	if len(show.Subscribers) != 0 {
		t.Errorf("Subscribers after unsubscribe = %v", show.Subscribers)
	}
}

func TestAlertRoutes(t *testing.T) {
	ts := setupTestServer(t)

	if rec := ts.do(http.MethodGet, "/api/alerts", "", false); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous ListAlerts status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	if rec := ts.do(http.MethodPost, "/api/shows", `{"showName":"Breaking Bad"}`, false); rec.Code != http.StatusCreated {
		t.Fatalf("AddShow status = %d", rec.Code)
	}

	rec := ts.do(http.MethodGet, "/api/alerts", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("ListAlerts status = %d: %s", rec.Code, rec.Body.String())
	}
	var jobs []map[string]any
	decode(t, rec, &jobs)
	if len(jobs) != 1 {
		t.Fatalf("got %d alert jobs, want 1", len(jobs))
	}

	rec = ts.do(http.MethodGet, "/api/alerts/81189", "", true)
	if rec.Code != http.StatusOK {
		t.Errorf("GetAlert status = %d, want %d", rec.Code, http.StatusOK)
	}

	if rec := ts.do(http.MethodPost, "/api/alerts/81189/run", "", true); rec.Code != http.StatusAccepted {
		t.Errorf("RunAlert status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	if rec := ts.do(http.MethodPost, "/api/alerts/1/run", "", true); rec.Code != http.StatusNotFound {
		t.Errorf("RunAlert(missing) status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if rec := ts.do(http.MethodGet, "/api/alerts/1", "", true); rec.Code != http.StatusNotFound {
		t.Errorf("GetAlert(missing) status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestSchedulerRoutes(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(http.MethodGet, "/api/scheduler/tasks", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("ListTasks status = %d", rec.Code)
	}
	var list []map[string]any
	decode(t, rec, &list)
	if len(list) != 1 || list[0]["id"] != tasks.AlertReconcileTaskID {
		t.Errorf("ListTasks = %v", list)
	}

	if rec := ts.do(http.MethodGet, "/api/scheduler/tasks/missing", "", true); rec.Code != http.StatusNotFound {
		t.Errorf("GetTask(missing) status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
