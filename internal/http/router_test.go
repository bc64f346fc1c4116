package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/todohub/internal/accounts"
	"github.com/geocoder89/todohub/internal/auth"
	"github.com/geocoder89/todohub/internal/config"
	"github.com/geocoder89/todohub/internal/domain/todo"
	"github.com/geocoder89/todohub/internal/observability"
	"github.com/geocoder89/todohub/internal/sharing"
	"github.com/geocoder89/todohub/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{
		Env:           "test",
		DBDriver:      config.DriverSQLite,
		SQLitePath:    filepath.Join(t.TempDir(), "todohub.db"),
		CORSOrigins:   []string{"*"},
		AuthRateLimit: 100,
		MaxBodyBytes:  1 << 20,
		ServiceName:   "todohub-test",
	}

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	st, err := store.Open(context.Background(), cfg, prom, log)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(st.Close)

	registry := sharing.NewRegistry(st.Lists, st.Grants, st.Users,
		sharing.WithObserver(prom),
		sharing.WithLogger(log),
	)

	r := NewRouter(log, Deps{
		Accounts: accounts.NewService(st.Users, log),
		Tokens:   auth.NewManager("test-secret", time.Hour, auth.NewMemoryRevocations()),
		Lists:    st.Lists,
		Items:    st.Items,
		Sharing:  registry,
		Store:    st,
		Prom:     prom,
		Metrics:  reg,
	}, cfg)

	return &testServer{t: t, router: r}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()

	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) expect(w *httptest.ResponseRecorder, status int, out any) {
	s.t.Helper()

	if w.Code != status {
		s.t.Fatalf("status: got %d want %d (%s)", w.Code, status, w.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			s.t.Fatalf("decode %q: %v", w.Body.String(), err)
		}
	}
}

func (s *testServer) register(username string) {
	s.t.Helper()

	w := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@x.com",
		"password": "secret1",
	})
	s.expect(w, http.StatusCreated, nil)
}

func (s *testServer) login(username string) string {
	s.t.Helper()

	var resp struct {
		Token string `json:"token"`
	}
	w := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": username, "password": "secret1"})
	s.expect(w, http.StatusOK, &resp)
	if resp.Token == "" {
		s.t.Fatalf("empty token for %s", username)
	}
	return resp.Token
}

func TestEndToEnd_ShareFlow(t *testing.T) {
	s := newTestServer(t)

	s.register("alice")
	alice := s.login("alice")

	var list todo.List
	s.expect(s.do(http.MethodPost, "/api/todos", alice, map[string]string{"title": "groceries"}), http.StatusCreated, &list)
	if list.ID != 1 {
		t.Fatalf("first list id: got %d want 1", list.ID)
	}

	var item todo.Item
	s.expect(s.do(http.MethodPost, "/api/todos/1/items", alice, map[string]string{"title": "milk"}), http.StatusCreated, &item)
	if item.ID != 1 || item.Status != todo.StatusPending {
		t.Fatalf("unexpected item %+v", item)
	}

	s.expect(s.do(http.MethodPut, "/api/todos/1/items/1", alice, map[string]string{"status": "completed"}), http.StatusOK, &item)
	if item.Status != todo.StatusCompleted {
		t.Fatalf("status after update: got %q", item.Status)
	}

	s.register("bob")
	bob := s.login("bob")

	var bobLists []todo.List
	s.expect(s.do(http.MethodGet, "/api/todos", bob, nil), http.StatusOK, &bobLists)
	if len(bobLists) != 0 {
		t.Fatalf("bob should see nothing before the share, got %d lists", len(bobLists))
	}

	var shared struct {
		Message    string   `json:"message"`
		SharedWith []string `json:"sharedWith"`
	}
	s.expect(s.do(http.MethodPost, "/api/todos/1/share", alice, map[string]string{"sharedWith": "bob"}), http.StatusOK, &shared)
	if len(shared.SharedWith) != 1 || shared.SharedWith[0] != "bob" {
		t.Fatalf("sharedWith: got %v", shared.SharedWith)
	}

	// sharing again is a no-op
	w := s.do(http.MethodPost, "/api/todos/1/share", alice, map[string][]string{"sharedWith": {"bob"}})
	s.expect(w, http.StatusBadRequest, nil)
	if !strings.Contains(w.Body.String(), "already_shared") {
		t.Fatalf("expected already_shared, got %s", w.Body.String())
	}

	s.expect(s.do(http.MethodGet, "/api/todos", bob, nil), http.StatusOK, &bobLists)
	if len(bobLists) != 1 || bobLists[0].ID != 1 || len(bobLists[0].Items) != 1 {
		t.Fatalf("bob should see the shared list with its item, got %+v", bobLists)
	}

	// default grant is edit: bob may add items but not delete the list
	s.expect(s.do(http.MethodPost, "/api/todos/1/items", bob, map[string]string{"title": "eggs"}), http.StatusCreated, nil)
	s.expect(s.do(http.MethodDelete, "/api/todos/1", bob, nil), http.StatusForbidden, nil)

	var collaborators struct {
		Count int `json:"count"`
	}
	s.expect(s.do(http.MethodGet, "/api/todos/1/collaborators", bob, nil), http.StatusOK, &collaborators)
	if collaborators.Count != 1 {
		t.Fatalf("collaborators: got %d", collaborators.Count)
	}

	s.expect(s.do(http.MethodDelete, "/api/todos/1", alice, nil), http.StatusNoContent, nil)
	s.expect(s.do(http.MethodGet, "/api/todos/1", alice, nil), http.StatusNotFound, nil)
	s.expect(s.do(http.MethodGet, "/api/todos", bob, nil), http.StatusOK, &bobLists)
	if len(bobLists) != 0 {
		t.Fatalf("deleted list still visible to bob")
	}
}

func TestEndToEnd_Isolation(t *testing.T) {
	s := newTestServer(t)

	s.register("alice")
	s.register("mallory")
	alice := s.login("alice")
	mallory := s.login("mallory")

	s.expect(s.do(http.MethodPost, "/api/todos", alice, map[string]string{"title": "private"}), http.StatusCreated, nil)
	s.expect(s.do(http.MethodPost, "/api/todos/1/items", alice, map[string]string{"title": "secret"}), http.StatusCreated, nil)

	for _, tc := range []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, "/api/todos/1", nil},
		{http.MethodPut, "/api/todos/1", map[string]string{"title": "mine"}},
		{http.MethodDelete, "/api/todos/1", nil},
		{http.MethodPost, "/api/todos/1/items", map[string]string{"title": "x"}},
		{http.MethodPut, "/api/todos/1/items/1", map[string]string{"title": "x"}},
		{http.MethodDelete, "/api/todos/1/items/1", nil},
		{http.MethodPost, "/api/todos/1/share", map[string]string{"sharedWith": "mallory"}},
		{http.MethodGet, "/api/todos/1/collaborators", nil},
		{http.MethodPost, "/api/users/2/assign-item", map[string]int64{"itemId": 1}},
	} {
		t.Run(fmt.Sprintf("%s %s", tc.method, tc.path), func(t *testing.T) {
			w := s.do(tc.method, tc.path, mallory, tc.body)
			if w.Code != http.StatusNotFound {
				t.Fatalf("got %d want 404 (%s)", w.Code, w.Body.String())
			}
		})
	}
}

func TestEndToEnd_Auth(t *testing.T) {
	s := newTestServer(t)

	s.expect(s.do(http.MethodGet, "/api/todos", "", nil), http.StatusUnauthorized, nil)
	s.expect(s.do(http.MethodGet, "/api/todos", "not-a-token", nil), http.StatusUnauthorized, nil)

	s.register("alice")

	w := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice", "email": "other@x.com", "password": "secret1",
	})
	s.expect(w, http.StatusBadRequest, nil)
	if !strings.Contains(w.Body.String(), "duplicate_user") {
		t.Fatalf("expected duplicate_user, got %s", w.Body.String())
	}

	s.expect(s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "alice", "password": "nope"}), http.StatusUnauthorized, nil)

	token := s.login("alice")

	var me struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	s.expect(s.do(http.MethodGet, "/api/auth/me", token, nil), http.StatusOK, &me)
	if me.Username != "alice" || me.Password != "" {
		t.Fatalf("unexpected me %+v", me)
	}

	s.expect(s.do(http.MethodPost, "/api/auth/logout", token, nil), http.StatusOK, nil)
	s.expect(s.do(http.MethodGet, "/api/auth/me", token, nil), http.StatusUnauthorized, nil)
}

func TestRouter_Operational(t *testing.T) {
	s := newTestServer(t)

	s.expect(s.do(http.MethodGet, "/healthz", "", nil), http.StatusOK, nil)
	s.expect(s.do(http.MethodGet, "/readyz", "", nil), http.StatusOK, nil)

	w := s.do(http.MethodGet, "/docs/openapi.yaml", "", nil)
	s.expect(w, http.StatusOK, nil)
	if !strings.Contains(w.Body.String(), "openapi:") {
		t.Fatalf("expected an OpenAPI document")
	}

	w = s.do(http.MethodGet, "/metrics", "", nil)
	s.expect(w, http.StatusOK, nil)
	if !strings.Contains(w.Body.String(), "todohub_http_requests_total") {
		t.Fatalf("expected http metrics in /metrics output")
	}

	if got := w.Header().Get("X-Request-Id"); got == "" {
		t.Fatalf("expected a request id header")
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("username=alice"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("form body: got %d want 415", rec.Code)
	}
}
