package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"yamdb-api/internal/data/entity"
	"yamdb-api/internal/policy"
	"yamdb-api/internal/testsupport/memrepo"
	"yamdb-api/pkg/token"
	"yamdb-api/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// manualClock is a clock tests can move forward.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// captureNotifier records delivered codes per email.
type captureNotifier struct {
	mu    sync.Mutex
	codes map[string]chan string
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{codes: make(map[string]chan string)}
}

func (n *captureNotifier) inbox(email string) chan string {
	n.mu.Lock()
	defer n.mu.Unlock()
	ch, ok := n.codes[email]
	if !ok {
		ch = make(chan string, 16)
		n.codes[email] = ch
	}
	return ch
}

func (n *captureNotifier) SendConfirmationCode(_ context.Context, email, code string) error {
	n.inbox(email) <- code
	return nil
}

// waitCode blocks until a code for email arrives.
func (n *captureNotifier) waitCode(t *testing.T, email string) string {
	t.Helper()
	select {
	case code := <-n.inbox(email):
		return code
	case <-time.After(2 * time.Second):
		t.Fatalf("no confirmation code delivered to %s", email)
		return ""
	}
}

type testEnv struct {
	store    *memrepo.Store
	svc      *Service
	clock    *manualClock
	notifier *captureNotifier
	revoked  *token.MemoryStore
	config   *utils.Config
}

func newTestEnv(t *testing.T, tweak ...func(*utils.Config)) *testEnv {
	t.Helper()

	cfg := &utils.Config{
		JWT: utils.JWTConfig{
			Secret:     "test-secret",
			Issuer:     "yamdb-test",
			AccessTTL:  time.Hour,
			RefreshTTL: 24 * time.Hour,
		},
		Confirmation: utils.ConfirmationConfig{Length: 10},
	}
	for _, fn := range tweak {
		fn(cfg)
	}

	clock := &manualClock{now: time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)}
	store := memrepo.New()
	notifier := newCaptureNotifier()
	revoked := token.NewMemoryStore()

	infra := Infra{
		Tokens:  token.NewIssuer(cfg.JWT, clock),
		Revoked: revoked,
		Mailer:  notifier,
		Clock:   clock,
	}

	return &testEnv{
		store:    store,
		svc:      NewService(store.Repository(), infra, cfg, zap.NewNop()),
		clock:    clock,
		notifier: notifier,
		revoked:  revoked,
		config:   cfg,
	}
}

// addUser inserts a confirmed user directly and returns it as an actor.
func (e *testEnv) addUser(t *testing.T, username string, role entity.UserRole) policy.Actor {
	t.Helper()
	user := &entity.User{
		Base:        entity.Base{ID: uuid.New(), CreatedAt: e.clock.Now(), UpdatedAt: e.clock.Now()},
		Username:    username,
		Email:       username + "@example.com",
		Role:        role,
		IsConfirmed: true,
	}
	if err := e.store.Repository().User.Create(context.Background(), user); err != nil {
		t.Fatalf("add user %s: %v", username, err)
	}
	return policy.Actor{ID: user.ID, Username: user.Username, Role: user.Role}
}
