// Package session stores login sessions in Redis.
//
// Layout:
//
//	session:<id>         JSON entity.Session, expiring with the session
//	user:sessions:<uid>  SET of the user's session ids
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eohue/ibookee-web-sub000/internal/domain/entity"
	"github.com/eohue/ibookee-web-sub000/internal/domain/repository"
	"github.com/eohue/ibookee-web-sub000/pkg/helpers"
)

const (
	sessionPrefix     = "session:"
	userSessionPrefix = "user:sessions:"
)

type RedisStore struct {
	rdb redis.UniversalClient
	now func() time.Time
}

func NewRedisStore(rdb redis.UniversalClient) *RedisStore {
	return &RedisStore{rdb: rdb, now: time.Now}
}

func sessionKey(id string) string { return sessionPrefix + id }
func userSessionsKey(uid string) string { return userSessionPrefix + uid }

func (s *RedisStore) Create(ctx context.Context, sess *entity.Session) error {
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return fmt.Errorf("session already expired at %s", sess.ExpiresAt.Format(time.RFC3339))
	}
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(sess.ID), b, ttl)
		pipe.SAdd(ctx, userSessionsKey(sess.UserID), sess.ID)
		// the newest session always expires last
		pipe.Expire(ctx, userSessionsKey(sess.UserID), ttl)
		return nil
	})
	return err
}

func (s *RedisStore) Get(ctx context.Context, id string) (*entity.Session, error) {
	var sess entity.Session
	ok, err := helpers.RedisGetJSON(ctx, s.rdb, sessionKey(id), &sess)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	return &sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(id))
		pipe.SRem(ctx, userSessionsKey(sess.UserID), id)
		return nil
	})
	return err
}

func (s *RedisStore) DeleteByUserID(ctx context.Context, userID string) error {
	ids, err := s.rdb.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("list user sessions: %w", err)
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, userSessionsKey(userID))
	return s.rdb.Del(ctx, keys...).Err()
}

var _ repository.SessionRepository = (*RedisStore)(nil)
