package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	APIConfig
	StoreConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type APIConfig interface {
	GetAPIBaseURL() string
	GetAPITimeout() time.Duration
	GetCycleBatchConcurrency() int
}

type StoreConfig interface {
	GetTokenStore() string
	GetTokenStoreDir() string
	GetRedisAddr() string
	GetRedisKeyPrefix() string
	GetTokenStoreTimeout() time.Duration
}

type mainConfig struct {
	EnvVars
	API
	Store
}

// New loads an optional .env file and parses the environment.
func New() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return Parse()
}

// Parse reads the configuration from the process environment only.
func Parse() (Config, error) {
	var c mainConfig
	if err := env.Parse(&c); err != nil {
		return nil, err
	}
	return c, nil
}
