package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jrsteele09/engine-dashboard/users"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisStore keeps the token and user under <prefix>:token and <prefix>:user
type RedisStore struct {
	rdb      redis.UniversalClient
	tokenKey string
	userKey  string
	logger   zerolog.Logger
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(rdb redis.UniversalClient, prefix string, opts ...Option) *RedisStore {
	if prefix == "" {
		prefix = "engine-dashboard"
	}
	o := newOptions(opts)
	return &RedisStore{
		rdb:      rdb,
		tokenKey: prefix + ":token",
		userKey:  prefix + ":user",
		logger:   o.logger.With().Str("backend", "redis").Logger(),
	}
}

func (s *RedisStore) Get(ctx context.Context) Credentials {
	vals, err := s.rdb.MGet(ctx, s.tokenKey, s.userKey).Result()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read credentials")
		return Credentials{}
	}
	token, _ := vals[0].(string)
	userData, _ := vals[1].(string)
	return credentials(token, decodeUser(s.logger, []byte(userData)))
}

// Set writes the token before the user, inside one MULTI/EXEC block
func (s *RedisStore) Set(ctx context.Context, token string, user users.User) error {
	data, err := user.Encode()
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.tokenKey, token, 0)
		pipe.Set(ctx, s.userKey, data, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store credentials: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.tokenKey, s.userKey).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

// Close closes the underlying redis client
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
