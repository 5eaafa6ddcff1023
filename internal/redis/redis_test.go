package redisclient

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCounterIsGapFree(t *testing.T) {
	_, client := newTestClient(t)
	counter := NewCounter(client, QueueNumberKey)
	ctx := context.Background()

	cur, err := counter.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), cur)

	prev := int64(0)
	for i := 0; i < 25; i++ {
		n, err := counter.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, prev+1, n)
		prev = n
	}

	cur, err = counter.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(25), cur)
}

func TestCounterEnsureAtLeast(t *testing.T) {
	mr, client := newTestClient(t)
	counter := NewCounter(client, QueueNumberKey)
	ctx := context.Background()

	// Redis lost its data while the ledger already holds 1..41.
	moved, err := counter.EnsureAtLeast(ctx, 41)
	require.NoError(t, err)
	assert.True(t, moved)
	n, err := counter.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	// Never lowered.
	moved, err = counter.EnsureAtLeast(ctx, 10)
	require.NoError(t, err)
	assert.False(t, moved)
	got, err := mr.Get(QueueNumberKey)
	require.NoError(t, err)
	assert.Equal(t, "42", got)
}

func TestWithLockReleasesKey(t *testing.T) {
	mr, client := newTestClient(t)
	locker := NewRedisLocker(client, time.Second, 0)

	called := false
	err := locker.WithLock(context.Background(), "booking:session-1", func(ctx context.Context) error {
		called = true
		assert.True(t, mr.Exists("lock:booking:session-1"))
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.False(t, mr.Exists("lock:booking:session-1"))
}

func TestWithLockHeldByOther(t *testing.T) {
	mr, client := newTestClient(t)
	require.NoError(t, mr.Set("lock:slot:x", "someone-else"))

	locker := NewRedisLocker(client, time.Second, 0)
	err := locker.WithLock(context.Background(), "slot:x", func(ctx context.Context) error {
		t.Fatal("critical section must not run")
		return nil
	})
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	got, _ := mr.Get("lock:slot:x")
	assert.Equal(t, "someone-else", got)
}

func TestWithLockPropagatesError(t *testing.T) {
	_, client := newTestClient(t)
	locker := NewRedisLocker(client, time.Second, 0)
	boom := errors.New("boom")

	err := locker.WithLock(context.Background(), "x", func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestConnectPingsServer(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireUserAuth("clinic", "s3cret")

	client, err := Connect(context.Background(), Options{Addr: mr.Addr(), Username: "clinic", Password: "s3cret"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.Equal(t, 20, client.Options().PoolSize)
}

func TestConnectFailsOnBadCredentials(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("s3cret")

	_, err := Connect(context.Background(), Options{Addr: mr.Addr(), Password: "wrong"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping redis")
}
