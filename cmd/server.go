package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"yamdb-api/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultShutdownTimeout = 10 * time.Second

// NewHTTPServer applies the configured timeouts to handler.
func NewHTTPServer(handler http.Handler, cfg utils.AppConfig) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       2 * time.Minute,
	}
}

// APIServer listens on the configured port and serves until ctx is cancelled,
// then shuts down gracefully.
func APIServer(ctx context.Context, handler http.Handler, cfg utils.AppConfig, logger *zap.Logger) error {
	srv := NewHTTPServer(handler, cfg)

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", srv.Addr, err)
	}

	logger.Info("Server running", zap.String("addr", ln.Addr().String()))
	return Serve(ctx, ln, srv, cfg.ShutdownTimeout, logger)
}

// Serve runs srv on ln. Cancelling ctx triggers Shutdown bounded by timeout;
// a clean shutdown returns nil.
func Serve(ctx context.Context, ln net.Listener, srv *http.Server, timeout time.Duration, logger *zap.Logger) error {
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server", zap.Duration("timeout", timeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
