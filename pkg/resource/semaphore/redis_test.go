package semaphore

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sharwell/machinelearning/internal/testutil"
	gferrors "github.com/sharwell/machinelearning/pkg/common/errors"
)

func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("redis not available at %s: %v", addr, err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestNewRedisValidation(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	tests := []struct {
		name   string
		config RedisConfig
	}{
		{"missing client", RedisConfig{Key: "k", Capacity: 1}},
		{"missing key", RedisConfig{Redis: client, Capacity: 1}},
		{"zero capacity", RedisConfig{Redis: client, Key: "k"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRedis(tt.config)
			testutil.AssertEqual(t, gferrors.IsValidationError(err), true)
		})
	}
}

func TestRedisSemaphore(t *testing.T) {
	client := redisClient(t)
	key := "fitchain:test:" + strconv.FormatInt(time.Now().UnixNano(), 36)
	defer client.Del(context.Background(), key)

	a, err := NewRedis(RedisConfig{Redis: client, Key: key, Capacity: 2, RetryInterval: 5 * time.Millisecond})
	testutil.AssertNoError(t, err)
	b, err := NewRedis(RedisConfig{Redis: client, Key: key, Capacity: 2, RetryInterval: 5 * time.Millisecond})
	testutil.AssertNoError(t, err)

	ctx := context.Background()
	testutil.AssertNoError(t, a.Wait(ctx))
	ok, err := b.TryAcquire(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, ok, true)

	ok, err = a.TryAcquire(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, ok, false)

	n, err := a.InUse(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, n, 2)

	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	err = a.Wait(waitCtx)
	testutil.AssertEqual(t, gferrors.IsCanceled(err), true)

	b.Release()
	testutil.AssertNoError(t, a.Wait(ctx))
	testutil.AssertEqual(t, a.Held(), 2)

	testutil.AssertNoError(t, a.Close())
	n, err = b.InUse(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, n, 0)
}

func TestRedisLeaseExpires(t *testing.T) {
	client := redisClient(t)
	key := "fitchain:test:" + strconv.FormatInt(time.Now().UnixNano(), 36)
	defer client.Del(context.Background(), key)

	crashed, err := NewRedis(RedisConfig{Redis: client, Key: key, Capacity: 1, LeaseTTL: 20 * time.Millisecond})
	testutil.AssertNoError(t, err)
	ok, err := crashed.TryAcquire(context.Background())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, ok, true)

	other, err := NewRedis(RedisConfig{Redis: client, Key: key, Capacity: 1, RetryInterval: 5 * time.Millisecond})
	testutil.AssertNoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	testutil.AssertNoError(t, other.Wait(ctx))
	other.Release()
}

// lostReply lets scripts run on the server and then reports a deadline to
// the caller, as when a reply arrives after the caller gave up.
type lostReply struct{}

func (lostReply) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (lostReply) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err == nil && (cmd.Name() == "evalsha" || cmd.Name() == "eval") {
			cmd.SetErr(context.DeadlineExceeded)
			return context.DeadlineExceeded
		}
		return err
	}
}

func (lostReply) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRedisLostAcquireReplyLeavesNoLease(t *testing.T) {
	client := redisClient(t)
	key := "fitchain:test:" + strconv.FormatInt(time.Now().UnixNano(), 36)
	defer client.Del(context.Background(), key)

	flaky := redis.NewClient(client.Options())
	defer flaky.Close()
	flaky.AddHook(lostReply{})

	sem, err := NewRedis(RedisConfig{Redis: flaky, Key: key, Capacity: 1})
	testutil.AssertNoError(t, err)

	ok, err := sem.TryAcquire(context.Background())
	testutil.AssertError(t, err)
	testutil.AssertEqual(t, ok, false)
	testutil.AssertEqual(t, sem.Held(), 0)

	leases, err := client.ZCard(context.Background(), key).Result()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, leases, int64(0))

	other, err := NewRedis(RedisConfig{Redis: client, Key: key, Capacity: 1})
	testutil.AssertNoError(t, err)
	ok, err = other.TryAcquire(context.Background())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, ok, true)
	other.Release()
}
