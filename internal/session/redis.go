package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const sidCookie = "sid"

// RedisBackend keeps credential fields in a Redis hash keyed by an opaque
// session id cookie. Only the id travels to the browser.
type RedisBackend struct {
	Client *redis.Client
	TTL    time.Duration
	Secure bool
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func (b RedisBackend) Bind(c echo.Context) Storage {
	s := &redisStorage{c: c, b: b}
	if ck, err := c.Cookie(sidCookie); err == nil {
		if _, err := uuid.Parse(ck.Value); err == nil {
			s.sid = ck.Value
		}
	}
	return s
}

type redisStorage struct {
	c   echo.Context
	b   RedisBackend
	sid string
}

func keyFor(sid string) string { return "console:session:" + sid }

func (s *redisStorage) key() string { return keyFor(s.sid) }

func (s *redisStorage) Get(ctx context.Context, field string) (string, error) {
	if s.sid == "" {
		return "", nil
	}
	v, err := s.b.Client.HGet(ctx, s.key(), field).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis hget %s: %w", field, err)
	}
	return v, nil
}

func (s *redisStorage) Set(ctx context.Context, field, value string) error {
	if s.sid == "" {
		s.issue()
	}
	pipe := s.b.Client.TxPipeline()
	pipe.HSet(ctx, s.key(), field, value)
	pipe.Expire(ctx, s.key(), s.b.TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis hset %s: %w", field, err)
	}
	return nil
}

func (s *redisStorage) Remove(ctx context.Context, field string) error {
	if s.sid == "" {
		return nil
	}
	if err := s.b.Client.HDel(ctx, s.key(), field).Err(); err != nil {
		return fmt.Errorf("redis hdel %s: %w", field, err)
	}
	return nil
}

func (s *redisStorage) issue() {
	s.sid = uuid.NewString()
	s.c.SetCookie(CreateCookie(sidCookie, s.sid, "/", time.Now().Add(s.b.TTL), s.b.Secure))
}

// Rotate switches to a freshly issued sid. The new id is in place even when
// deleting the old hash fails.
func (s *redisStorage) Rotate(ctx context.Context) error {
	old := s.sid
	s.issue()
	if old == "" {
		return nil
	}
	if err := s.b.Client.Del(ctx, keyFor(old)).Err(); err != nil {
		return fmt.Errorf("redis del previous session: %w", err)
	}
	return nil
}
