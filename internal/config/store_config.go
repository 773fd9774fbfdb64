package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	TokenStoreFile   = "file"
	TokenStoreRedis  = "redis"
	TokenStoreMemory = "memory"
)

type Store struct {
	Backend   string        `env:"TOKEN_STORE" envDefault:"file"`
	Dir       string        `env:"TOKEN_STORE_DIR"`
	RedisAddr string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	KeyPrefix string        `env:"REDIS_KEY_PREFIX" envDefault:"engine-dashboard"`
	Timeout   time.Duration `env:"TOKEN_STORE_TIMEOUT" envDefault:"3s"`
}

var _ StoreConfig = Store{}

func (s Store) GetTokenStore() string {
	return s.Backend
}

// GetTokenStoreDir defaults to ~/.engine-dashboard, or ./.engine-dashboard when
// the home directory cannot be resolved
func (s Store) GetTokenStoreDir() string {
	if s.Dir != "" {
		return s.Dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".engine-dashboard"
	}
	return filepath.Join(home, ".engine-dashboard")
}

func (s Store) GetRedisAddr() string {
	return s.RedisAddr
}

func (s Store) GetRedisKeyPrefix() string {
	return s.KeyPrefix
}

// GetTokenStoreTimeout bounds each store call, including the startup redis ping
func (s Store) GetTokenStoreTimeout() time.Duration {
	return s.Timeout
}
