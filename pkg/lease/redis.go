package lease

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisLease implements the lease on Redis for deployments where the
// session store's conditional update is not a single round trip. SET NX
// with a TTL gives both the atomic claim and the staleness takeover: an
// expired key is exactly a stale lease.
type RedisLease struct {
	client  *redis.Client
	policy  Policy
	ownerID string
	prefix  string
}

// NewRedisLease creates a Redis-backed lease. ownerID identifies this
// worker so Release and Renew only touch leases it holds.
func NewRedisLease(client *redis.Client, policy Policy, ownerID string) *RedisLease {
	return &RedisLease{
		client:  client,
		policy:  policy,
		ownerID: ownerID,
		prefix:  "jornada:lease:",
	}
}

func (l *RedisLease) key(sessionID string) string {
	return l.prefix + sessionID
}

// Acquire claims the session via SET NX PX. Key expiry implements the
// stale takeover.
func (l *RedisLease) Acquire(ctx context.Context, sessionID string) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key(sessionID), l.ownerID, l.policy.Duration).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lease for session %s: %w", sessionID, err)
	}

	return ok, nil
}

// renewScript extends the TTL only while we still own the lease.
var renewScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("PEXPIRE", KEYS[1], ARGV[2])
	end
	return 0
`)

// Renew extends a held lease. Renewing a lease another worker took over is
// a silent no-op; the next write under the lost lease will be superseded.
func (l *RedisLease) Renew(ctx context.Context, sessionID string) error {
	err := renewScript.Run(ctx, l.client, []string{l.key(sessionID)},
		l.ownerID, l.policy.Duration.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("failed to renew lease for session %s: %w", sessionID, err)
	}

	return nil
}

// releaseScript deletes the key only while we still own the lease.
var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

// Release frees the session. Called on every exit path.
func (l *RedisLease) Release(ctx context.Context, sessionID string) error {
	err := releaseScript.Run(ctx, l.client, []string{l.key(sessionID)}, l.ownerID).Err()
	if err != nil {
		return fmt.Errorf("failed to release lease for session %s: %w", sessionID, err)
	}

	return nil
}

// IsStale exposes the takeover policy.
func (l *RedisLease) IsStale(startedAt time.Time, now time.Time) bool {
	return l.policy.IsStale(startedAt, now)
}
