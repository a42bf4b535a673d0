package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"yamdb-api/internal/data/entity"
	"yamdb-api/internal/dto/request"
	"yamdb-api/internal/policy"
	"yamdb-api/pkg/apperror"
	"yamdb-api/pkg/token"
	"yamdb-api/pkg/utils"
)

func TestSignupRejectsReservedUsername(t *testing.T) {
	env := newTestEnv(t)

	for _, name := range []string{"me", "ME", "Me"} {
		_, err := env.svc.Auth.Signup(context.Background(), &request.SignupRequest{Username: name, Email: "x@example.com"})
		if apperror.KindOf(err) != apperror.KindValidation {
			t.Fatalf("Signup(%q) error = %v, want validation error", name, err)
		}
	}
}

func TestSignupAndExchangeToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.svc.Auth.Signup(ctx, &request.SignupRequest{Username: "alice", Email: "Alice@Example.com"})
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	if resp.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %q", resp.Email)
	}
	code := env.notifier.waitCode(t, "alice@example.com")

	_, err = env.svc.Auth.ExchangeToken(ctx, &request.TokenRequest{Username: "alice", ConfirmationCode: "wrong-code"})
	if !errors.Is(err, apperror.ErrInvalidCode) {
		t.Fatalf("mismatched code error = %v, want ErrInvalidCode", err)
	}

	tokens, err := env.svc.Auth.ExchangeToken(ctx, &request.TokenRequest{Username: "alice", ConfirmationCode: code})
	if err != nil {
		t.Fatalf("ExchangeToken() error = %v", err)
	}
	if tokens.Access == "" || tokens.Refresh == "" {
		t.Fatalf("expected both tokens, got %+v", tokens)
	}

	user, _ := env.store.Repository().User.FindByUsername(ctx, "alice")
	if !user.IsConfirmed || user.Role != entity.RoleUser {
		t.Fatalf("unexpected user state %+v", user)
	}

	// the code stays valid by default
	if _, err := env.svc.Auth.ExchangeToken(ctx, &request.TokenRequest{Username: "alice", ConfirmationCode: code}); err != nil {
		t.Fatalf("second exchange with standing code error = %v", err)
	}
}

func TestExchangeTokenUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Auth.ExchangeToken(context.Background(), &request.TokenRequest{Username: "ghost", ConfirmationCode: "abc"})
	if apperror.KindOf(err) != apperror.KindNotFound {
		t.Fatalf("error = %v, want not found", err)
	}
}

func TestSignupSameAccountReissuesCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	req := &request.SignupRequest{Username: "bob", Email: "bob@example.com"}

	if _, err := env.svc.Auth.Signup(ctx, req); err != nil {
		t.Fatalf("first Signup() error = %v", err)
	}
	first := env.notifier.waitCode(t, "bob@example.com")

	if _, err := env.svc.Auth.Signup(ctx, req); err != nil {
		t.Fatalf("repeat Signup() error = %v", err)
	}
	second := env.notifier.waitCode(t, "bob@example.com")

	if _, err := env.svc.Auth.ExchangeToken(ctx, &request.TokenRequest{Username: "bob", ConfirmationCode: second}); err != nil {
		t.Fatalf("new code rejected: %v", err)
	}
	if first != second {
		_, err := env.svc.Auth.ExchangeToken(ctx, &request.TokenRequest{Username: "bob", ConfirmationCode: first})
		if !errors.Is(err, apperror.ErrInvalidCode) {
			t.Fatalf("replaced code error = %v, want ErrInvalidCode", err)
		}
	}
}

func TestSignupConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addUser(t, "carol", entity.RoleUser)

	tests := []struct {
		name  string
		req   request.SignupRequest
		field string
	}{
		{"username taken", request.SignupRequest{Username: "carol", Email: "other@example.com"}, "username"},
		{"email taken", request.SignupRequest{Username: "carol2", Email: "carol@example.com"}, "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Auth.Signup(ctx, &tt.req)
			var appErr *apperror.Error
			if !errors.As(err, &appErr) || appErr.Kind != apperror.KindValidation {
				t.Fatalf("error = %v, want validation error", err)
			}
			if _, ok := appErr.Fields[tt.field]; !ok {
				t.Fatalf("expected field %q in %v", tt.field, appErr.Fields)
			}
		})
	}
}

func TestConfirmationCodeTTL(t *testing.T) {
	env := newTestEnv(t, func(c *utils.Config) { c.Confirmation.TTLMinutes = 10 })
	ctx := context.Background()

	if _, err := env.svc.Auth.Signup(ctx, &request.SignupRequest{Username: "dave", Email: "dave@example.com"}); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	code := env.notifier.waitCode(t, "dave@example.com")

	env.clock.Advance(11 * time.Minute)

	_, err := env.svc.Auth.ExchangeToken(ctx, &request.TokenRequest{Username: "dave", ConfirmationCode: code})
	if !errors.Is(err, apperror.ErrInvalidCode) {
		t.Fatalf("expired code error = %v, want ErrInvalidCode", err)
	}
}

func TestConfirmationCodeSingleUse(t *testing.T) {
	env := newTestEnv(t, func(c *utils.Config) { c.Confirmation.SingleUse = true })
	ctx := context.Background()

	if _, err := env.svc.Auth.Signup(ctx, &request.SignupRequest{Username: "erin", Email: "erin@example.com"}); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	code := env.notifier.waitCode(t, "erin@example.com")
	req := &request.TokenRequest{Username: "erin", ConfirmationCode: code}

	if _, err := env.svc.Auth.ExchangeToken(ctx, req); err != nil {
		t.Fatalf("first exchange error = %v", err)
	}
	if _, err := env.svc.Auth.ExchangeToken(ctx, req); !errors.Is(err, apperror.ErrInvalidCode) {
		t.Fatalf("second exchange error = %v, want ErrInvalidCode", err)
	}
}

func TestConfirmationCodeSingleUseConcurrent(t *testing.T) {
	env := newTestEnv(t, func(c *utils.Config) { c.Confirmation.SingleUse = true })
	ctx := context.Background()

	if _, err := env.svc.Auth.Signup(ctx, &request.SignupRequest{Username: "ella", Email: "ella@example.com"}); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	code := env.notifier.waitCode(t, "ella@example.com")

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := env.svc.Auth.ExchangeToken(ctx, &request.TokenRequest{Username: "ella", ConfirmationCode: code})
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
				return
			}
			if !errors.Is(err, apperror.ErrInvalidCode) {
				t.Errorf("ExchangeToken() error = %v, want ErrInvalidCode", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if accepted != 1 {
		t.Fatalf("code accepted %d times, want exactly once", accepted)
	}
}

func TestReissueCodePermissions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.addUser(t, "root", entity.RoleAdmin)
	user := env.addUser(t, "frank", entity.RoleUser)

	req := &request.SignupRequest{Username: "frank", Email: "frank@example.com"}

	if _, err := env.svc.Auth.ReissueCode(ctx, policy.Anonymous(), req); !errors.Is(err, apperror.ErrAuthenticationRequired) {
		t.Fatalf("anonymous error = %v", err)
	}
	if _, err := env.svc.Auth.ReissueCode(ctx, user, req); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("non-admin error = %v", err)
	}

	wrongEmail := &request.SignupRequest{Username: "frank", Email: "nope@example.com"}
	if _, err := env.svc.Auth.ReissueCode(ctx, admin, wrongEmail); apperror.KindOf(err) != apperror.KindValidation {
		t.Fatalf("mismatched email error = %v", err)
	}

	unknown := &request.SignupRequest{Username: "nobody", Email: "nobody@example.com"}
	if _, err := env.svc.Auth.ReissueCode(ctx, admin, unknown); apperror.KindOf(err) != apperror.KindNotFound {
		t.Fatalf("unknown user error = %v", err)
	}

	if _, err := env.svc.Auth.ReissueCode(ctx, admin, req); err != nil {
		t.Fatalf("ReissueCode() error = %v", err)
	}
	code := env.notifier.waitCode(t, "frank@example.com")
	if _, err := env.svc.Auth.ExchangeToken(ctx, &request.TokenRequest{Username: "frank", ConfirmationCode: code}); err != nil {
		t.Fatalf("reissued code rejected: %v", err)
	}
}

func TestRefreshRotation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.Auth.Signup(ctx, &request.SignupRequest{Username: "gina", Email: "gina@example.com"}); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	code := env.notifier.waitCode(t, "gina@example.com")
	tokens, err := env.svc.Auth.ExchangeToken(ctx, &request.TokenRequest{Username: "gina", ConfirmationCode: code})
	if err != nil {
		t.Fatalf("ExchangeToken() error = %v", err)
	}

	rotated, err := env.svc.Auth.Refresh(ctx, &request.RefreshRequest{Refresh: tokens.Refresh})
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if rotated.Refresh == tokens.Refresh {
		t.Fatal("refresh token was not rotated")
	}

	if _, err := env.svc.Auth.Refresh(ctx, &request.RefreshRequest{Refresh: tokens.Refresh}); !errors.Is(err, apperror.ErrInvalidToken) {
		t.Fatalf("replayed refresh error = %v, want ErrInvalidToken", err)
	}

	// an access token is not a refresh token
	if _, err := env.svc.Auth.Refresh(ctx, &request.RefreshRequest{Refresh: rotated.Access}); !errors.Is(err, apperror.ErrInvalidToken) {
		t.Fatalf("access-as-refresh error = %v, want ErrInvalidToken", err)
	}
}

func TestLogoutRevokesTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	actor := env.addUser(t, "hank", entity.RoleUser)

	issuer := token.NewIssuer(env.config.JWT, env.clock)
	pair, err := issuer.Issue(actor.ID)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	access, _ := issuer.Parse(pair.Access, token.TypeAccess)
	refresh, _ := issuer.Parse(pair.Refresh, token.TypeRefresh)

	if err := env.svc.Auth.Logout(ctx, policy.Anonymous(), "", nil); !errors.Is(err, apperror.ErrAuthenticationRequired) {
		t.Fatalf("anonymous logout error = %v", err)
	}

	if err := env.svc.Auth.Logout(ctx, actor, access.ID, &request.LogoutRequest{Refresh: pair.Refresh}); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	for _, jti := range []string{access.ID, refresh.ID} {
		revoked, err := env.revoked.IsRevoked(ctx, jti)
		if err != nil || !revoked {
			t.Fatalf("jti %s revoked = %v, err = %v", jti, revoked, err)
		}
	}
}

func TestLogoutForeignRefreshRevokesNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	actor := env.addUser(t, "iris", entity.RoleUser)
	other := env.addUser(t, "jack", entity.RoleUser)

	issuer := token.NewIssuer(env.config.JWT, env.clock)
	own, err := issuer.Issue(actor.ID)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	foreign, err := issuer.Issue(other.ID)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	access, _ := issuer.Parse(own.Access, token.TypeAccess)

	cases := map[string]string{
		"foreign refresh": foreign.Refresh,
		"garbage refresh": "not-a-token",
	}
	for name, raw := range cases {
		err := env.svc.Auth.Logout(ctx, actor, access.ID, &request.LogoutRequest{Refresh: raw})
		if !errors.Is(err, apperror.ErrInvalidToken) {
			t.Fatalf("%s: Logout() error = %v, want ErrInvalidToken", name, err)
		}
	}

	revoked, err := env.revoked.IsRevoked(ctx, access.ID)
	if err != nil || revoked {
		t.Fatalf("access token revoked = %v, err = %v; want untouched after failed logout", revoked, err)
	}
}
