package cron

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedisStore struct {
	values map[string]string
}

func newFakeRedisStore() *fakeRedisStore {
	return &fakeRedisStore{values: map[string]string{}}
}

func (s *fakeRedisStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := s.values[key]; ok {
		return false, nil
	}
	s.values[key] = value.(string)
	return true, nil
}

func (s *fakeRedisStore) Get(_ context.Context, key string) (string, error) {
	value, ok := s.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (s *fakeRedisStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func TestRedisLockAcquireRelease(t *testing.T) {
	store := newFakeRedisStore()
	ctx := context.Background()

	lock, err := NewRedisLock(store, "cron-worker:test", time.Minute)
	require.NoError(t, err)

	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, store.values, 1)

	require.NoError(t, lock.Release(ctx))
	assert.Empty(t, store.values)

	// The lock can be taken again after release.
	ok, err = lock.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockContention(t *testing.T) {
	store := newFakeRedisStore()
	ctx := context.Background()

	first, err := NewRedisLock(store, "cron-worker:test", time.Minute)
	require.NoError(t, err)
	second, err := NewRedisLock(store, "cron-worker:test", time.Minute)
	require.NoError(t, err)

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// A holder that never acquired must not free someone else's lock.
	require.NoError(t, second.Release(ctx))
	assert.Len(t, store.values, 1)

	require.NoError(t, first.Release(ctx))
	assert.Empty(t, store.values)
}

func TestRedisLockReleaseAfterExpiry(t *testing.T) {
	store := newFakeRedisStore()
	ctx := context.Background()

	lock, err := NewRedisLock(store, "cron-worker:test", time.Minute)
	require.NoError(t, err)

	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// TTL expiry drops the key; a stolen lock must not be deleted either.
	other, err := NewRedisLock(store, "cron-worker:test", time.Minute)
	require.NoError(t, err)
	for key := range store.values {
		delete(store.values, key)
	}
	ok, err = other.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, lock.Release(ctx))
	assert.Len(t, store.values, 1)
}

func TestNewRedisLockValidation(t *testing.T) {
	_, err := NewRedisLock(nil, "name", time.Minute)
	require.Error(t, err)

	_, err = NewRedisLock(newFakeRedisStore(), "", time.Minute)
	require.Error(t, err)
}
