package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config carries every tunable the service reads from the environment.
// It is constructed once in main and passed down explicitly; nothing reads
// ambient global state after startup.
type Config struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`
	LogMode    string `env:"LOG_MODE" envDefault:"dev"`

	// PostgresDSN selects the Postgres store when set; the in-memory store
	// is used otherwise.
	PostgresDSN string `env:"POSTGRES_DSN"`

	// RedisAddr enables the Redis cache layer when set.
	RedisAddr string `env:"REDIS_ADDR"`

	// KafkaBrokers enables the Kafka event publisher when non-empty.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// CommitRetries bounds the optimistic-concurrency retry loop.
	CommitRetries int `env:"COMMIT_RETRIES" envDefault:"5"`

	// CommitBackoff is the base delay between commit retries; actual delay
	// is jittered up to twice this value.
	CommitBackoff time.Duration `env:"COMMIT_BACKOFF" envDefault:"10ms"`

	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"5m"`

	// CardOverdraft controls whether Card accounts may go negative. Cash
	// and Bank accounts never may.
	CardOverdraft bool `env:"CARD_OVERDRAFT" envDefault:"true"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
