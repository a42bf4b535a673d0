package wire

import (
	"context"
	"net/http"
	"time"

	"yamdb-api/internal/adaptor"
	"yamdb-api/internal/data/repository"
	"yamdb-api/internal/usecase"
	"yamdb-api/pkg/middleware"
	"yamdb-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Pinger reports storage health for /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// App holds the wired router and services
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring builds services, handlers and the router. db may be nil, in which
// case /health reports only that the process is up.
func Wiring(repo *repository.Repository, infra usecase.Infra, db Pinger, config *utils.Config, logger *zap.Logger) *App {
	service := usecase.NewService(repo, infra, config, logger)
	handler := adaptor.NewHandler(service, logger)

	return &App{
		Router:  setupRouter(handler, repo, infra, db, config, logger),
		Service: service,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	infra usecase.Infra,
	db Pinger,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimw.RequestID)
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logger(logger))
	if infra.Metrics != nil {
		r.Use(infra.Metrics.Middleware)
	}
	r.Use(middleware.CORS(config.CORS.AllowedOrigins))

	r.Get("/health", healthHandler(db))
	if infra.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", infra.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(infra.Tokens, repo.User, infra.Revoked, logger))

		wireAuth(r, handler.Auth, logger)
		wireUser(r, handler.User, logger)
		wireCatalog(r, handler.Category, handler.Genre)
		wireTitle(r, handler.Title, handler.Review, handler.Comment)
	})

	return r
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			utils.ResponseSuccess(w, "OK", map[string]string{"database": "disabled"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			utils.ResponseJSON(w, http.StatusServiceUnavailable, false, "database unavailable", nil, nil)
			return
		}
		utils.ResponseSuccess(w, "OK", map[string]string{"database": "ok"})
	}
}
