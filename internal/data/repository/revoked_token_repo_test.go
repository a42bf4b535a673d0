package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"yamdb-api/pkg/utils"

	"github.com/pashagolub/pgxmock/v4"
	"go.uber.org/zap"
)

func TestRevokedTokenRevokeFirstWins(t *testing.T) {
	mock := newMock(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewRevokedTokenRepository(mock, utils.FixedClock(now), zap.NewNop())

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO revoked_tokens")).
		WithArgs("jti-1", now.Add(time.Hour), now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO revoked_tokens")).
		WithArgs("jti-1", now.Add(time.Hour), now).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	first, err := repo.Revoke(context.Background(), "jti-1", time.Hour)
	if err != nil || !first {
		t.Fatalf("first Revoke() = %v, %v", first, err)
	}
	second, err := repo.Revoke(context.Background(), "jti-1", time.Hour)
	if err != nil || second {
		t.Fatalf("second Revoke() = %v, %v", second, err)
	}
}

func TestRevokedTokenIsRevoked(t *testing.T) {
	mock := newMock(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewRevokedTokenRepository(mock, utils.FixedClock(now), zap.NewNop())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM revoked_tokens")).
		WithArgs("jti-1", now).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	revoked, err := repo.IsRevoked(context.Background(), "jti-1")
	if err != nil || !revoked {
		t.Fatalf("IsRevoked() = %v, %v", revoked, err)
	}
}

func TestRevokedTokenCleanExpired(t *testing.T) {
	mock := newMock(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewRevokedTokenRepository(mock, utils.FixedClock(now), zap.NewNop())

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM revoked_tokens WHERE expires_at <= $1")).
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := repo.CleanExpired(context.Background())
	if err != nil || n != 3 {
		t.Fatalf("CleanExpired() = %d, %v", n, err)
	}
}
