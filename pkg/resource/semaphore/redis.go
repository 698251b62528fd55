package semaphore

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	gfcontext "github.com/sharwell/machinelearning/pkg/common/context"
	"github.com/sharwell/machinelearning/pkg/common/validation"
)

// RedisConfig holds configuration for a Redis-backed semaphore.
type RedisConfig struct {
	// Redis client for coordination
	Redis redis.UniversalClient

	// Key names the sorted set holding the current leases.
	Key string

	// Capacity is the cluster-wide number of permits.
	Capacity int

	// InstanceID prefixes the lease members created by this process.
	InstanceID string

	// LeaseTTL bounds how long a permit survives a holder that never releases it.
	LeaseTTL time.Duration

	// RetryInterval is how often a blocked Wait polls Redis.
	RetryInterval time.Duration

	// RedisTimeout is the timeout for a single Redis round trip.
	RedisTimeout time.Duration

	// Logger receives release failures. Defaults to a discard logger.
	Logger *slog.Logger
}

// DefaultRedisConfig returns a RedisConfig with every field but Redis, Key
// and Capacity filled in.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		InstanceID:    generateInstanceID(),
		LeaseTTL:      10 * time.Minute,
		RetryInterval: 50 * time.Millisecond,
		RedisTimeout:  500 * time.Millisecond,
	}
}

// RedisError represents a failed Redis operation.
type RedisError struct {
	Operation string
	Err       error
}

func (e *RedisError) Error() string {
	return "redis error in " + e.Operation + ": " + e.Err.Error()
}

func (e *RedisError) Unwrap() error {
	return e.Err
}

// RedisSemaphore shares a fixed number of permits between processes. Each
// permit is a lease in a Redis sorted set scored by its expiry.
type RedisSemaphore struct {
	config RedisConfig
	logger *slog.Logger
	seq    atomic.Uint64

	mu     sync.Mutex
	leases []string

	acquireScript *redis.Script
	releaseScript *redis.Script
	countScript   *redis.Script
}

// NewRedis creates a Redis-backed semaphore.
func NewRedis(config RedisConfig) (*RedisSemaphore, error) {
	if err := validation.ValidateNotNil("semaphore", "redis", config.Redis); err != nil {
		return nil, err
	}
	if err := validation.ValidateNotEmpty("semaphore", "key", config.Key); err != nil {
		return nil, err
	}
	if err := validation.ValidatePositive("semaphore", "capacity", config.Capacity); err != nil {
		return nil, err
	}

	config = applyRedisDefaults(config)
	return &RedisSemaphore{
		config:        config,
		logger:        config.Logger,
		acquireScript: redis.NewScript(luaAcquire),
		releaseScript: redis.NewScript(luaRelease),
		countScript:   redis.NewScript(luaCount),
	}, nil
}

func applyRedisDefaults(config RedisConfig) RedisConfig {
	defaults := DefaultRedisConfig()
	if config.InstanceID == "" {
		config.InstanceID = defaults.InstanceID
	}
	if config.LeaseTTL <= 0 {
		config.LeaseTTL = defaults.LeaseTTL
	}
	if config.RetryInterval <= 0 {
		config.RetryInterval = defaults.RetryInterval
	}
	if config.RedisTimeout <= 0 {
		config.RedisTimeout = defaults.RedisTimeout
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return config
}

// TryAcquire takes a permit if one is free.
func (rs *RedisSemaphore) TryAcquire(ctx context.Context) (bool, error) {
	member := rs.config.InstanceID + ":" + strconv.FormatUint(rs.seq.Add(1), 10)
	ok, err := rs.tryLease(ctx, member)
	if err != nil {
		// The script may have run even though the reply was lost.
		rs.forget(member)
		return false, err
	}
	if !ok {
		return false, nil
	}
	rs.mu.Lock()
	rs.leases = append(rs.leases, member)
	rs.mu.Unlock()
	return true, nil
}

func (rs *RedisSemaphore) tryLease(ctx context.Context, member string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, rs.config.RedisTimeout)
	defer cancel()

	now := time.Now()
	result, err := rs.acquireScript.Run(ctx, rs.config.Redis,
		[]string{rs.config.Key},
		now.UnixMilli(),
		now.Add(rs.config.LeaseTTL).UnixMilli(),
		rs.config.Capacity,
		member,
		rs.config.LeaseTTL.Milliseconds(),
	).Int()
	if err != nil {
		return false, &RedisError{"acquire", err}
	}
	return result == 1, nil
}

// forget removes member from the lease set, ignoring its context so a
// canceled caller cannot leave a lease behind.
func (rs *RedisSemaphore) forget(member string) {
	ctx, cancel := context.WithTimeout(context.Background(), rs.config.RedisTimeout)
	defer cancel()
	if err := rs.config.Redis.ZRem(ctx, rs.config.Key, member).Err(); err != nil {
		rs.logger.Warn("semaphore lease cleanup failed",
			slog.String("key", rs.config.Key),
			slog.String("lease", member),
			slog.Any("error", err))
	}
}

// Wait polls until a permit is taken or ctx is done.
func (rs *RedisSemaphore) Wait(ctx context.Context) error {
	ticker := time.NewTicker(rs.config.RetryInterval)
	defer ticker.Stop()

	for {
		if err := gfcontext.Err(ctx); err != nil {
			return err
		}
		ok, err := rs.TryAcquire(ctx)
		if err != nil {
			if ctxErr := gfcontext.Err(ctx); ctxErr != nil {
				return ctxErr
			}
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return gfcontext.Err(ctx)
		}
	}
}

// Release returns the most recent lease taken by this semaphore.
// It panics if no lease is held.
func (rs *RedisSemaphore) Release() {
	rs.mu.Lock()
	if len(rs.leases) == 0 {
		rs.mu.Unlock()
		panic("semaphore: released more permits than acquired")
	}
	member := rs.leases[len(rs.leases)-1]
	rs.leases = rs.leases[:len(rs.leases)-1]
	rs.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), rs.config.RedisTimeout)
	defer cancel()
	if err := rs.releaseScript.Run(ctx, rs.config.Redis, []string{rs.config.Key}, member).Err(); err != nil {
		// The lease still expires after LeaseTTL.
		rs.logger.Warn("semaphore release failed",
			slog.String("key", rs.config.Key),
			slog.String("lease", member),
			slog.Any("error", err))
	}
}

// InUse returns the number of live leases across all processes.
func (rs *RedisSemaphore) InUse(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, rs.config.RedisTimeout)
	defer cancel()

	n, err := rs.countScript.Run(ctx, rs.config.Redis, []string{rs.config.Key}, time.Now().UnixMilli()).Int()
	if err != nil {
		return 0, &RedisError{"count", err}
	}
	return n, nil
}

// Held returns the number of leases held by this semaphore.
func (rs *RedisSemaphore) Held() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.leases)
}

// Capacity returns the cluster-wide number of permits.
func (rs *RedisSemaphore) Capacity() int {
	return rs.config.Capacity
}

// Close releases every lease still held by this semaphore.
func (rs *RedisSemaphore) Close() error {
	for rs.Held() > 0 {
		rs.Release()
	}
	return nil
}

func generateInstanceID() string {
	hostname, _ := os.Hostname()
	randomBytes := make([]byte, 4)
	_, _ = rand.Read(randomBytes)
	return fmt.Sprintf("%s-%d-%x", hostname, os.Getpid(), randomBytes)
}

const luaAcquire = `
-- KEYS[1]: lease set
-- ARGV[1]: now (ms)
-- ARGV[2]: lease expiry (ms)
-- ARGV[3]: capacity
-- ARGV[4]: lease member
-- ARGV[5]: key ttl (ms)
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
if redis.call('ZCARD', KEYS[1]) < tonumber(ARGV[3]) then
	redis.call('ZADD', KEYS[1], ARGV[2], ARGV[4])
	redis.call('PEXPIRE', KEYS[1], ARGV[5])
	return 1
end
return 0
`

const luaRelease = `
-- KEYS[1]: lease set
-- ARGV[1]: lease member
return redis.call('ZREM', KEYS[1], ARGV[1])
`

const luaCount = `
-- KEYS[1]: lease set
-- ARGV[1]: now (ms)
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
return redis.call('ZCARD', KEYS[1])
`
