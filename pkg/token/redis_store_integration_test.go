package token

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func TestRedisStoreIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD")})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}

	store := NewRedisStore(client)
	jti := uuid.NewString()
	t.Cleanup(func() { client.Del(context.Background(), redisKeyPrefix+jti) })

	ok, err := store.Revoke(ctx, jti, time.Minute)
	if err != nil || !ok {
		t.Fatalf("first Revoke() = %v, %v", ok, err)
	}
	ok, err = store.Revoke(ctx, jti, time.Minute)
	if err != nil || ok {
		t.Fatalf("second Revoke() = %v, %v; want false", ok, err)
	}
	revoked, err := store.IsRevoked(ctx, jti)
	if err != nil || !revoked {
		t.Fatalf("IsRevoked() = %v, %v", revoked, err)
	}
}
