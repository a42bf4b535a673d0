package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"yamdb-api/internal/data/entity"
	"yamdb-api/internal/testsupport/memrepo"
	"yamdb-api/pkg/token"
	"yamdb-api/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func newAuthFixture(t *testing.T) (*token.Issuer, *memrepo.Store, *token.MemoryStore, *entity.User) {
	t.Helper()
	issuer := token.NewIssuer(utils.JWTConfig{
		Secret:     "middleware-secret",
		Issuer:     "yamdb-test",
		AccessTTL:  time.Hour,
		RefreshTTL: 2 * time.Hour,
	}, utils.SystemClock{})

	store := memrepo.New()
	user := &entity.User{
		Base:     entity.Base{ID: uuid.New()},
		Username: "ursula",
		Email:    "ursula@example.com",
		Role:     entity.RoleModerator,
	}
	if err := store.Repository().User.Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return issuer, store, token.NewMemoryStore(), user
}

func TestAuthenticate(t *testing.T) {
	issuer, store, revoked, user := newAuthFixture(t)
	pair, err := issuer.Issue(user.ID)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	var gotUser, gotRole string
	handler := Authenticate(issuer, store.Repository().User, revoked, zap.NewNop())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUser, _ = utils.GetUsernameFromContext(r.Context())
			gotRole, _ = utils.GetRoleFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}),
	)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"anonymous", "", http.StatusOK},
		{"valid bearer", "Bearer " + pair.Access, http.StatusOK},
		{"lowercase scheme", "bearer " + pair.Access, http.StatusOK},
		{"wrong scheme", "Token " + pair.Access, http.StatusUnauthorized},
		{"refresh used as access", "Bearer " + pair.Refresh, http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUser, gotRole = "", ""
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.header != "" && tt.want == http.StatusOK && (gotUser != "ursula" || gotRole != "moderator") {
				t.Fatalf("context user = %q role = %q", gotUser, gotRole)
			}
		})
	}
}

func TestAuthenticateRejectsRevokedToken(t *testing.T) {
	issuer, store, revoked, user := newAuthFixture(t)
	pair, _ := issuer.Issue(user.ID)
	claims, _ := issuer.Parse(pair.Access, token.TypeAccess)
	if _, err := revoked.Revoke(context.Background(), claims.ID, time.Hour); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}

	handler := Authenticate(issuer, store.Repository().User, revoked, zap.NewNop())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }),
	)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.Access)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuth(t *testing.T) {
	handler := RequireAuth(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(utils.SetUserContext(req.Context(), uuid.New(), "vic", "user"))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("authenticated status = %d", rec.Code)
	}
}

func TestRecover(t *testing.T) {
	handler := Recover(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := CORS([]string{"https://app.example"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/titles", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Fatalf("allow origin = %q", got)
	}
}
