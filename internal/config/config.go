package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidConfig = errors.New("invalid config")

type PostgresConfig struct {
	DSN             string        `env:"PG_DSN"`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS" envDefault:"10"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" envDefault:"5m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// RedisConfig is optional. An empty Addr disables the result cache.
type RedisConfig struct {
	Addr      string        `env:"REDIS_ADDR"`
	Password  string        `env:"REDIS_PASSWORD"`
	DB        int           `env:"REDIS_DB" envDefault:"0"`
	ResultTTL time.Duration `env:"REDIS_RESULT_TTL" envDefault:"24h"`
}

func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// KafkaConfig is optional. No brokers disables event publishing.
type KafkaConfig struct {
	Brokers         []string      `env:"KAFKA_BROKERS" envSeparator:","`
	TopicBetSettled string        `env:"KAFKA_TOPIC_BET_SETTLED" envDefault:"bet_settled"`
	WriteTimeout    time.Duration `env:"KAFKA_WRITE_TIMEOUT" envDefault:"5s"`
	BatchTimeout    time.Duration `env:"KAFKA_BATCH_TIMEOUT" envDefault:"10ms"`
}

func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 }

type LedgerConfig struct {
	DefaultBalance    decimal.Decimal `env:"LEDGER_DEFAULT_BALANCE" envDefault:"0.00"`
	MaxStake          decimal.Decimal `env:"LEDGER_MAX_STAKE" envDefault:"10000.00"`
	MinTransfer       decimal.Decimal `env:"LEDGER_MIN_TRANSFER" envDefault:"10.00"`
	MaxAttempts       int             `env:"LEDGER_MAX_ATTEMPTS" envDefault:"5"`
	BackoffInitial    time.Duration   `env:"LEDGER_BACKOFF_INITIAL" envDefault:"5ms"`
	BackoffMax        time.Duration   `env:"LEDGER_BACKOFF_MAX" envDefault:"100ms"`
	StoreTimeout      time.Duration   `env:"LEDGER_STORE_TIMEOUT" envDefault:"2s"`
	AppendMaxInterval time.Duration   `env:"LEDGER_APPEND_MAX_INTERVAL" envDefault:"30s"`
	FlushInterval     time.Duration   `env:"LEDGER_FLUSH_INTERVAL" envDefault:"10s"`
	FlushBatch        int             `env:"LEDGER_FLUSH_BATCH" envDefault:"100"`
	MaxPending        int             `env:"LEDGER_MAX_PENDING" envDefault:"50"`
}

func (c LedgerConfig) Validate() error {
	switch {
	case c.DefaultBalance.IsNegative():
		return fmt.Errorf("%w: LEDGER_DEFAULT_BALANCE must be >= 0", ErrInvalidConfig)
	case !c.MaxStake.IsPositive():
		return fmt.Errorf("%w: LEDGER_MAX_STAKE must be > 0", ErrInvalidConfig)
	case c.MinTransfer.IsNegative():
		return fmt.Errorf("%w: LEDGER_MIN_TRANSFER must be >= 0", ErrInvalidConfig)
	case c.MaxAttempts < 1:
		return fmt.Errorf("%w: LEDGER_MAX_ATTEMPTS must be >= 1", ErrInvalidConfig)
	case c.StoreTimeout <= 0:
		return fmt.Errorf("%w: LEDGER_STORE_TIMEOUT must be > 0", ErrInvalidConfig)
	case c.FlushInterval <= 0:
		return fmt.Errorf("%w: LEDGER_FLUSH_INTERVAL must be > 0", ErrInvalidConfig)
	case c.MaxPending < 1:
		return fmt.Errorf("%w: LEDGER_MAX_PENDING must be >= 1", ErrInvalidConfig)
	}

	return nil
}

type HistoryConfig struct {
	MaxLimit     int           `env:"HISTORY_MAX_LIMIT" envDefault:"100"`
	StoreTimeout time.Duration `env:"HISTORY_STORE_TIMEOUT" envDefault:"2s"`
}
