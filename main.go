// main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yamdb-api/cmd"
	"yamdb-api/internal/data/repository"
	"yamdb-api/internal/usecase"
	"yamdb-api/internal/wire"
	"yamdb-api/pkg/database"
	"yamdb-api/pkg/mailer"
	"yamdb-api/pkg/metrics"
	"yamdb-api/pkg/token"
	"yamdb-api/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const revokedTokenCleanupInterval = time.Hour

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("env", config.App.Env),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	// Connect to database
	db, err := database.InitDB(ctx, config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	if config.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logger.Fatal("Failed to apply schema", zap.Error(err))
		}
		logger.Info("Database schema is up to date")
	}

	clock := utils.SystemClock{}

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	// Revoked token ids live in postgres unless redis is configured
	revokedTokens := repository.NewRevokedTokenRepository(db, clock, logger)
	var revoked token.RevocationStore = revokedTokens
	if config.Redis.Enabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		defer client.Close()

		if err := client.Ping(ctx).Err(); err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err), zap.String("addr", config.Redis.Addr))
		}
		revoked = token.NewRedisStore(client)
		logger.Info("Token revocation backed by redis", zap.String("addr", config.Redis.Addr))
	}

	infra := usecase.Infra{
		Tokens:  token.NewIssuer(config.JWT, clock),
		Revoked: revoked,
		Mailer:  mailer.New(config.Email, logger),
		Clock:   clock,
		Metrics: metrics.New(),
	}

	// Wire all dependencies
	app := wire.Wiring(repos, infra, db, config, logger)

	g, gctx := errgroup.WithContext(ctx)

	// Start server
	g.Go(func() error {
		return cmd.APIServer(gctx, app.Router, config.App, logger)
	})

	if !config.Redis.Enabled() {
		g.Go(func() error {
			cmd.CleanupLoop(gctx, revokedTokenCleanupInterval, revokedTokens.CleanExpired, logger)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return
	}

	logger.Info("Server stopped")
}
