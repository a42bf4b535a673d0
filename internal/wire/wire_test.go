package wire

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"yamdb-api/internal/data/entity"
	"yamdb-api/internal/testsupport/memrepo"
	"yamdb-api/internal/usecase"
	"yamdb-api/pkg/metrics"
	"yamdb-api/pkg/token"
	"yamdb-api/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type envelope struct {
	Status  bool              `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

type inbox struct {
	mu    sync.Mutex
	codes map[string]string
	got   chan struct{}
}

func (i *inbox) SendConfirmationCode(_ context.Context, email, code string) error {
	i.mu.Lock()
	i.codes[email] = code
	i.mu.Unlock()
	i.got <- struct{}{}
	return nil
}

func (i *inbox) wait(t *testing.T, email string) string {
	t.Helper()
	select {
	case <-i.got:
	case <-time.After(2 * time.Second):
		t.Fatalf("no code for %s", email)
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.codes[email]
}

type testServer struct {
	*httptest.Server
	store  *memrepo.Store
	issuer *token.Issuer
	inbox  *inbox
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("down") }

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	config := &utils.Config{
		JWT: utils.JWTConfig{
			Secret:     "wire-secret",
			Issuer:     "yamdb-test",
			AccessTTL:  time.Hour,
			RefreshTTL: 24 * time.Hour,
		},
		Confirmation: utils.ConfirmationConfig{Length: 10},
		CORS:         utils.CORSConfig{AllowedOrigins: []string{"*"}},
	}
	clock := utils.FixedClock(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))
	issuer := token.NewIssuer(config.JWT, clock)
	store := memrepo.New()
	box := &inbox{codes: make(map[string]string), got: make(chan struct{}, 8)}

	infra := usecase.Infra{
		Tokens:  issuer,
		Revoked: token.NewMemoryStore(),
		Mailer:  box,
		Clock:   clock,
		Metrics: metrics.New(),
	}

	app := Wiring(store.Repository(), infra, nil, config, zap.NewNop())
	srv := httptest.NewServer(app.Router)
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, store: store, issuer: issuer, inbox: box}
}

// userToken creates a user directly in the store and returns an access token.
func (s *testServer) userToken(t *testing.T, username string, role entity.UserRole) string {
	t.Helper()
	user := &entity.User{
		Base:     entity.Base{ID: uuid.New()},
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
	}
	if err := s.store.Repository().User.Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	pair, err := s.issuer.Issue(user.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return pair.Access
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body any) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		_ = json.NewDecoder(resp.Body).Decode(&env)
	}
	return resp.StatusCode, env
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	status, env := srv.do(t, http.MethodGet, "/health", "", nil)
	if status != http.StatusOK || !env.Status {
		t.Fatalf("health = %d %+v", status, env)
	}

	rec := httptest.NewRecorder()
	healthHandler(failingPinger{})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("failing db health = %d", rec.Code)
	}
}

func TestSignupHandshake(t *testing.T) {
	srv := newTestServer(t)

	status, env := srv.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{"username": "me", "email": "me@example.com"})
	if status != http.StatusBadRequest || env.Errors["username"] == "" {
		t.Fatalf("reserved signup = %d %+v", status, env)
	}

	status, _ = srv.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{"username": "walt", "email": "walt@example.com"})
	if status != http.StatusOK {
		t.Fatalf("signup = %d", status)
	}
	code := srv.inbox.wait(t, "walt@example.com")

	status, env = srv.do(t, http.MethodPost, "/api/v1/auth/token", "", map[string]string{"username": "walt", "confirmation_code": "nope"})
	if status != http.StatusUnauthorized || env.Message != "invalid confirmation code" {
		t.Fatalf("bad code = %d %+v", status, env)
	}

	status, _ = srv.do(t, http.MethodPost, "/api/v1/auth/token", "", map[string]string{"username": "ghost", "confirmation_code": code})
	if status != http.StatusNotFound {
		t.Fatalf("unknown user = %d", status)
	}

	status, env = srv.do(t, http.MethodPost, "/api/v1/auth/token", "", map[string]string{"username": "walt", "confirmation_code": code})
	if status != http.StatusOK {
		t.Fatalf("token = %d %+v", status, env)
	}
	var tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := json.Unmarshal(env.Data, &tokens); err != nil || tokens.Access == "" {
		t.Fatalf("token body %s: %v", env.Data, err)
	}

	status, env = srv.do(t, http.MethodPatch, "/api/v1/users/me", tokens.Access, map[string]string{"role": "admin", "bio": "chemist"})
	if status != http.StatusOK {
		t.Fatalf("patch me = %d %+v", status, env)
	}
	var me struct {
		Username string `json:"username"`
		Role     string `json:"role"`
		Bio      string `json:"bio"`
	}
	_ = json.Unmarshal(env.Data, &me)
	if me.Username != "walt" || me.Role != "user" || me.Bio != "chemist" {
		t.Fatalf("profile = %+v", me)
	}

	status, _ = srv.do(t, http.MethodPost, "/api/v1/auth/logout", tokens.Access, nil)
	if status != http.StatusNoContent {
		t.Fatalf("logout = %d", status)
	}
	status, _ = srv.do(t, http.MethodGet, "/api/v1/users/me", tokens.Access, nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("revoked token = %d, want 401", status)
	}
}

func TestCatalogPermissions(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.userToken(t, "boss", entity.RoleAdmin)
	user := srv.userToken(t, "pleb", entity.RoleUser)
	body := map[string]string{"name": "Music", "slug": "music"}

	tests := []struct {
		name   string
		bearer string
		want   int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"user", user, http.StatusForbidden},
		{"admin", admin, http.StatusCreated},
		{"admin duplicate", admin, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := srv.do(t, http.MethodPost, "/api/v1/categories", tt.bearer, body)
			if status != tt.want {
				t.Fatalf("status = %d, want %d (%+v)", status, tt.want, env)
			}
		})
	}

	status, env := srv.do(t, http.MethodGet, "/api/v1/categories?search=mus", "", nil)
	if status != http.StatusOK || !strings.Contains(string(env.Data), `"slug":"music"`) {
		t.Fatalf("list = %d %s", status, env.Data)
	}
	if strings.Contains(string(env.Data), `"id"`) {
		t.Fatalf("category ids must not be exposed: %s", env.Data)
	}

	status, _ = srv.do(t, http.MethodDelete, "/api/v1/categories/music", admin, nil)
	if status != http.StatusNoContent {
		t.Fatalf("delete = %d", status)
	}

	// no update or detail routes for categories
	status, _ = srv.do(t, http.MethodGet, "/api/v1/categories/music", admin, nil)
	if status != http.StatusMethodNotAllowed {
		t.Fatalf("category detail = %d, want 405", status)
	}
}

func TestReviewFlow(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.userToken(t, "boss", entity.RoleAdmin)
	alice := srv.userToken(t, "alice", entity.RoleUser)
	bob := srv.userToken(t, "bob", entity.RoleUser)

	status, env := srv.do(t, http.MethodPost, "/api/v1/titles", admin, map[string]any{"name": "Persona", "year": 1966})
	if status != http.StatusCreated {
		t.Fatalf("create title = %d %+v", status, env)
	}
	var title struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(env.Data, &title)
	reviews := "/api/v1/titles/" + title.ID + "/reviews"

	status, _ = srv.do(t, http.MethodPost, "/api/v1/titles", admin, map[string]any{"name": "Future", "year": 2025})
	if status != http.StatusBadRequest {
		t.Fatalf("future year = %d", status)
	}

	status, _ = srv.do(t, http.MethodPost, reviews, "", map[string]any{"text": "x", "score": 5})
	if status != http.StatusUnauthorized {
		t.Fatalf("anonymous review = %d", status)
	}

	status, env = srv.do(t, http.MethodPost, reviews, alice, map[string]any{"text": "haunting", "score": 9})
	if status != http.StatusCreated {
		t.Fatalf("review = %d %+v", status, env)
	}
	var review struct {
		ID     string `json:"id"`
		Author string `json:"author"`
	}
	_ = json.Unmarshal(env.Data, &review)
	if review.Author != "alice" {
		t.Fatalf("author = %q", review.Author)
	}

	status, _ = srv.do(t, http.MethodPost, reviews, alice, map[string]any{"text": "again", "score": 3})
	if status != http.StatusBadRequest {
		t.Fatalf("second review = %d", status)
	}
	status, _ = srv.do(t, http.MethodPost, reviews, bob, map[string]any{"text": "slow", "score": 6})
	if status != http.StatusCreated {
		t.Fatalf("bob review = %d", status)
	}

	status, _ = srv.do(t, http.MethodPatch, reviews+"/"+review.ID, bob, map[string]any{"score": 1})
	if status != http.StatusForbidden {
		t.Fatalf("bob edits alice = %d", status)
	}

	status, env = srv.do(t, http.MethodGet, "/api/v1/titles/"+title.ID, "", nil)
	if status != http.StatusOK || !strings.Contains(string(env.Data), `"rating":7.5`) {
		t.Fatalf("title = %d %s", status, env.Data)
	}

	comments := reviews + "/" + review.ID + "/comments"
	status, _ = srv.do(t, http.MethodPost, comments, bob, map[string]any{"text": "disagree"})
	if status != http.StatusCreated {
		t.Fatalf("comment = %d", status)
	}
	status, env = srv.do(t, http.MethodGet, comments, "", nil)
	if status != http.StatusOK || !strings.Contains(string(env.Data), `"author":"bob"`) {
		t.Fatalf("comments = %d %s", status, env.Data)
	}

	status, _ = srv.do(t, http.MethodDelete, "/api/v1/titles/"+title.ID, admin, nil)
	if status != http.StatusNoContent {
		t.Fatalf("delete title = %d", status)
	}
	status, _ = srv.do(t, http.MethodGet, comments, "", nil)
	if status != http.StatusNotFound {
		t.Fatalf("comments after cascade = %d", status)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	srv.do(t, http.MethodGet, "/api/v1/genres", "", nil)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), `route="/api/v1/genres"`) {
		t.Fatalf("metrics missing route label:\n%s", buf.String())
	}
}
