package tokenstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/engine-dashboard/internal/config"
	"github.com/jrsteele09/engine-dashboard/internal/errors"
	"github.com/jrsteele09/engine-dashboard/users"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Store persists the bearer token and the cached user record across restarts.
//
// Get never fails: missing, unreadable or unparsable entries read as absent. A token
// whose user entry is missing or corrupt is returned with a nil User so the caller can
// discard it.
type Store interface {
	Get(ctx context.Context) Credentials
	Set(ctx context.Context, token string, user users.User) error
	Clear(ctx context.Context) error
}

// Credentials is the persisted pair read back from a Store
type Credentials struct {
	Token string
	User  *users.User
}

// Valid reports whether both the token and the user are present
func (c Credentials) Valid() bool {
	return c.Token != "" && c.User != nil
}

// Empty reports whether nothing was persisted
func (c Credentials) Empty() bool {
	return c.Token == "" && c.User == nil
}

// Option configures a store backend
type Option func(*options)

type options struct {
	logger zerolog.Logger
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func newOptions(opts []Option) options {
	o := options{logger: log.Logger}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = o.logger.With().Str("component", "tokenstore").Logger()
	return o
}

const defaultPingTimeout = 3 * time.Second

// New builds the backend selected by TOKEN_STORE. A redis backend is pinged before
// it is returned; the caller closes it with Close.
func New(ctx context.Context, c config.StoreConfig, opts ...Option) (Store, error) {
	switch c.GetTokenStore() {
	case config.TokenStoreFile, "":
		return NewFileStore(c.GetTokenStoreDir(), opts...)
	case config.TokenStoreRedis:
		rdb := redis.NewClient(&redis.Options{Addr: c.GetRedisAddr()})
		timeout := c.GetTokenStoreTimeout()
		if timeout <= 0 {
			timeout = defaultPingTimeout
		}
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis %s: %w", c.GetRedisAddr(), err)
		}
		return NewRedisStore(rdb, c.GetRedisKeyPrefix(), opts...), nil
	case config.TokenStoreMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown token store %q", c.GetTokenStore())
	}
}

// decodeUser turns a stored user entry into a User. Corrupt entries are reported as
// ErrStorageCorrupt and read as absent.
func decodeUser(logger zerolog.Logger, raw []byte) *users.User {
	if len(raw) == 0 {
		return nil
	}
	u, err := users.Decode(raw)
	if err != nil {
		logger.Warn().Err(errors.Wrapf(errors.ErrStorageCorrupt, "decode user: %v", err)).Msg("Ignoring cached user")
		return nil
	}
	return &u
}

func credentials(token string, user *users.User) Credentials {
	if token == "" {
		// a user without a token is never an authenticated session
		return Credentials{}
	}
	return Credentials{Token: token, User: user}
}
