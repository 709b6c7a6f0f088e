package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eohue/ibookee-web-sub000/internal/domain/entity"
	"github.com/eohue/ibookee-web-sub000/internal/domain/repository"
)

func newStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb), mr
}

func newSession(id, uid string, ttl time.Duration) *entity.Session {
	now := time.Now().UTC().Truncate(time.Second)
	return &entity.Session{ID: id, UserID: uid, CreatedAt: now, ExpiresAt: now.Add(ttl)}
}

func TestRedisStore_CreateGet(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()
	sess := newSession("sid-1", "u-1", time.Hour)

	require.NoError(t, s.Create(ctx, sess))

	got, err := s.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.UserID)
	assert.True(t, sess.ExpiresAt.Equal(got.ExpiresAt))

	assert.InDelta(t, time.Hour.Seconds(), mr.TTL("session:sid-1").Seconds(), 2)
	members, err := mr.Members("user:sessions:u-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"sid-1"}, members)
}

func TestRedisStore_ExpiresWithTTL(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, newSession("sid-1", "u-1", time.Minute)))

	mr.FastForward(2 * time.Minute)

	_, err := s.Get(ctx, "sid-1")
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestRedisStore_RejectsExpiredSession(t *testing.T) {
	s, _ := newStore(t)
	err := s.Create(context.Background(), newSession("sid-1", "u-1", -time.Second))
	assert.Error(t, err)
}

func TestRedisStore_Delete(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, newSession("sid-1", "u-1", time.Hour)))
	require.NoError(t, s.Create(ctx, newSession("sid-2", "u-1", time.Hour)))

	require.NoError(t, s.Delete(ctx, "sid-1"))

	_, err := s.Get(ctx, "sid-1")
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
	members, err := mr.Members("user:sessions:u-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"sid-2"}, members)

	assert.ErrorIs(t, s.Delete(ctx, "sid-1"), repository.ErrSessionNotFound)
}

func TestRedisStore_DeleteByUserID(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, newSession("a", "u-1", time.Hour)))
	require.NoError(t, s.Create(ctx, newSession("b", "u-1", time.Hour)))
	require.NoError(t, s.Create(ctx, newSession("c", "u-2", time.Hour)))

	require.NoError(t, s.DeleteByUserID(ctx, "u-1"))

	for _, id := range []string{"a", "b"} {
		_, err := s.Get(ctx, id)
		assert.ErrorIs(t, err, repository.ErrSessionNotFound)
	}
	assert.False(t, mr.Exists("user:sessions:u-1"))

	_, err := s.Get(ctx, "c")
	assert.NoError(t, err)

	assert.NoError(t, s.DeleteByUserID(ctx, "nobody"))
}
