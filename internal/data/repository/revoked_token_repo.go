package repository

import (
	"context"
	"fmt"
	"time"

	"yamdb-api/pkg/database"
	"yamdb-api/pkg/utils"

	"go.uber.org/zap"
)

// RevokedTokenRepository keeps revoked token ids in postgres. It satisfies
// token.RevocationStore for deployments without redis.
type RevokedTokenRepository interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) (bool, error)
	IsRevoked(ctx context.Context, jti string) (bool, error)
	CleanExpired(ctx context.Context) (int64, error)
}

type revokedTokenRepository struct {
	db    database.PgxIface
	clock utils.Clock
	log   *zap.Logger
}

func NewRevokedTokenRepository(db database.PgxIface, clock utils.Clock, log *zap.Logger) RevokedTokenRepository {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &revokedTokenRepository{
		db:    db,
		clock: clock,
		log:   log.With(zap.String("repository", "revoked_token")),
	}
}

// Revoke reports false when jti is already revoked and not yet expired.
// An expired row is reclaimed.
func (r *revokedTokenRepository) Revoke(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = time.Second
	}
	now := r.clock.Now()

	query := `
		INSERT INTO revoked_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO UPDATE SET expires_at = EXCLUDED.expires_at
		WHERE revoked_tokens.expires_at <= $3
	`
	result, err := r.db.Exec(ctx, query, jti, now.Add(ttl), now)
	if err != nil {
		r.log.Error("Failed to revoke token",
			zap.Error(err),
			zap.String("jti", jti),
		)
		return false, fmt.Errorf("revoke token %s: %w", jti, err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *revokedTokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = $1 AND expires_at > $2)`

	var revoked bool
	if err := r.db.QueryRow(ctx, query, jti, r.clock.Now()).Scan(&revoked); err != nil {
		r.log.Error("Failed to check revoked token",
			zap.Error(err),
			zap.String("jti", jti),
		)
		return false, fmt.Errorf("check revoked token %s: %w", jti, err)
	}

	return revoked, nil
}

// CleanExpired drops rows whose token would be rejected by expiry anyway.
func (r *revokedTokenRepository) CleanExpired(ctx context.Context) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM revoked_tokens WHERE expires_at <= $1`, r.clock.Now())
	if err != nil {
		r.log.Error("Failed to clean revoked tokens", zap.Error(err))
		return 0, fmt.Errorf("clean revoked tokens: %w", err)
	}

	if n := result.RowsAffected(); n > 0 {
		r.log.Info("Revoked tokens cleaned", zap.Int64("count", n))
	}
	return result.RowsAffected(), nil
}
