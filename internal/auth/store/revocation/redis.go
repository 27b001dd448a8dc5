// Package revocation tracks revoked token JTIs until their natural expiry.
// The Redis store shares state across instances; the in-memory store backs
// tests and single-instance deployments without Redis.
package revocation

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	dErrors "govinda/pkg/domain-errors"
)

var isRevokedDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "govinda_token_revocation_check_duration_seconds",
	Help:    "Latency of token revocation checks",
	Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
})

const revokedKeyPrefix = "trl:jti:"

// RedisStore is a Redis-backed revocation list.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Revoke marks a JTI revoked for ttl. Key expiry matches token expiry so
// the list never grows past the live token window.
func (s *RedisStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if ttl <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "revocation ttl must be positive")
	}
	return s.client.Set(ctx, revokedKeyPrefix+jti, "1", ttl).Err()
}

// IsTokenRevoked reports whether the JTI is on the list. A missing key means
// not revoked or already expired.
func (s *RedisStore) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	start := time.Now()
	defer func() { isRevokedDuration.Observe(time.Since(start).Seconds()) }()

	if jti == "" {
		return false, nil
	}
	_, err := s.client.Get(ctx, revokedKeyPrefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
