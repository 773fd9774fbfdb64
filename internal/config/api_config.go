package config

import (
	"strings"
	"time"
)

type API struct {
	BaseURL          string        `env:"API_BASE_URL" envDefault:"http://localhost:5000/api"`
	Timeout          time.Duration `env:"API_TIMEOUT" envDefault:"15s"`
	BatchConcurrency int           `env:"CYCLE_BATCH_CONCURRENCY" envDefault:"4"`
}

var _ APIConfig = API{}

// GetAPIBaseURL returns the external API root without a trailing slash
func (a API) GetAPIBaseURL() string {
	return strings.TrimRight(a.BaseURL, "/")
}

func (a API) GetAPITimeout() time.Duration {
	return a.Timeout
}

func (a API) GetCycleBatchConcurrency() int {
	if a.BatchConcurrency < 1 {
		return 1
	}
	return a.BatchConcurrency
}
