package cmd

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"yamdb-api/pkg/utils"

	"go.uber.org/zap"
)

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	srv := NewHTTPServer(handler, utils.AppConfig{ReadTimeout: time.Second, WriteTimeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, ln, srv, time.Second, zap.NewNop()) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusTeapot {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestNewHTTPServerAppliesTimeouts(t *testing.T) {
	srv := NewHTTPServer(http.NotFoundHandler(), utils.AppConfig{Port: "9999", ReadTimeout: 7 * time.Second, WriteTimeout: 9 * time.Second})

	if srv.Addr != ":9999" || srv.ReadTimeout != 7*time.Second || srv.WriteTimeout != 9*time.Second {
		t.Fatalf("unexpected server %+v", srv)
	}
}

func TestCleanupLoopStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := make(chan struct{}, 8)

	done := make(chan struct{})
	go func() {
		CleanupLoop(ctx, 5*time.Millisecond, func(context.Context) (int64, error) {
			select {
			case calls <- struct{}{}:
			default:
			}
			return 0, nil
		}, zap.NewNop())
		close(done)
	}()

	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("clean was never called")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("CleanupLoop did not return after cancel")
	}
}
