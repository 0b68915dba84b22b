package main

import (
	"fmt"
	"time"

	"github.com/fastprodman/wagerledger/internal/config"
	"github.com/fastprodman/wagerledger/internal/services/outcome"
	"go.uber.org/zap/zapcore"
)

const (
	storePostgres = "postgres"
	storeMemory   = "memory"
)

type apiConfig struct {
	Port            uint16        `env:"APP_PORT" envDefault:"8080"`
	Env             string        `env:"APP_ENV" envDefault:"local"`
	LogLevel        zapcore.Level `env:"APP_LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	StoreDriver     string        `env:"STORE_DRIVER" envDefault:"postgres"`
	Multipliers     outcome.Table `env:"MULTIPLIERS" envDefault:"classic:2.5:0.4"`

	Postgres config.PostgresConfig
	Redis    config.RedisConfig
	Kafka    config.KafkaConfig
	Ledger   config.LedgerConfig
	History  config.HistoryConfig
}

func (c *apiConfig) Validate() error {
	switch c.StoreDriver {
	case storePostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("%w: PG_DSN required with STORE_DRIVER=postgres", config.ErrInvalidConfig)
		}
	case storeMemory:
	default:
		return fmt.Errorf("%w: STORE_DRIVER %q, want postgres or memory", config.ErrInvalidConfig, c.StoreDriver)
	}

	if c.Multipliers.Len() == 0 {
		return fmt.Errorf("%w: MULTIPLIERS is empty", config.ErrInvalidConfig)
	}

	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: APP_SHUTDOWN_TIMEOUT must be > 0", config.ErrInvalidConfig)
	}

	return nil
}
