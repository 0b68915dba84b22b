package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fastprodman/wagerledger/internal/api"
	"github.com/fastprodman/wagerledger/internal/events"
	eventskafka "github.com/fastprodman/wagerledger/internal/events/kafka"
	"github.com/fastprodman/wagerledger/internal/infra/kafkautil"
	"github.com/fastprodman/wagerledger/internal/infra/logging"
	"github.com/fastprodman/wagerledger/internal/infra/pgutils"
	"github.com/fastprodman/wagerledger/internal/infra/redisutil"
	"github.com/fastprodman/wagerledger/internal/repos/accounts"
	memaccounts "github.com/fastprodman/wagerledger/internal/repos/accounts/memory"
	pgaccounts "github.com/fastprodman/wagerledger/internal/repos/accounts/postgres"
	"github.com/fastprodman/wagerledger/internal/repos/betcache"
	rediscache "github.com/fastprodman/wagerledger/internal/repos/betcache/redis"
	"github.com/fastprodman/wagerledger/internal/repos/bets"
	membets "github.com/fastprodman/wagerledger/internal/repos/bets/memory"
	pgbets "github.com/fastprodman/wagerledger/internal/repos/bets/postgres"
	"github.com/fastprodman/wagerledger/internal/services/history"
	"github.com/fastprodman/wagerledger/internal/services/ledger"
	"github.com/fastprodman/wagerledger/internal/services/outcome"
	"github.com/fastprodman/wagerledger/pkg/envconf"
	"github.com/fastprodman/wagerledger/pkg/shutdownqueue"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v\n", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

//nolint:funlen
func run(ctx context.Context) (retErr error) {
	cfg := new(apiConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	log, err := logging.New("wagerledger-api", cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}

		_ = log.Sync()
	}()

	// --- Infra ---
	var (
		accountStore accounts.Accounts
		betStore     bets.Bets
		cache        betcache.Cache   = betcache.Nop{}
		publisher    events.Publisher = events.Nop{}
	)

	switch cfg.StoreDriver {
	case storePostgres:
		db, err := pgutils.OpenDB(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}

		shutdownqueue.Add("postgres", func(context.Context) error {
			return db.Close()
		})

		accountStore = pgaccounts.New(db)
		betStore = pgbets.New(db)
	case storeMemory:
		log.Warn("using in-memory stores, state is lost on exit")

		accountStore = memaccounts.New()
		betStore = membets.New()
	}

	if cfg.Redis.Enabled() {
		rdb, err := redisutil.Connect(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}

		shutdownqueue.Add("redis", func(context.Context) error {
			return rdb.Close()
		})

		cache = rediscache.New(rdb, cfg.Redis.ResultTTL)
	}

	if cfg.Kafka.Enabled() {
		w := kafkautil.NewWriter(cfg.Kafka, cfg.Kafka.TopicBetSettled)

		shutdownqueue.Add("kafka writer", func(context.Context) error {
			return w.Close()
		})

		publisher = eventskafka.NewPublisher(w)
	}

	// --- Services ---
	coordinator := ledger.New(cfg.Ledger, ledger.Deps{
		Accounts:  accountStore,
		Bets:      betStore,
		Table:     cfg.Multipliers,
		Engine:    outcome.New(nil),
		Cache:     cache,
		Publisher: publisher,
		Logger:    log,
	})

	shutdownqueue.Add("ledger", coordinator.Close)

	reader := history.New(accountStore, betStore, cfg.History)

	flushCtx, stopFlusher := context.WithCancel(context.Background())
	flushDone := make(chan struct{})

	go func() {
		defer close(flushDone)
		ledger.NewFlusher(coordinator, cfg.Ledger).Run(flushCtx)
	}()

	shutdownqueue.Add("outbox flusher", func(c context.Context) error {
		stopFlusher()

		select {
		case <-flushDone:
			return nil
		case <-c.Done():
			return fmt.Errorf("wait for flusher: %w", c.Err())
		}
	})

	// --- HTTP server ---
	srv := api.NewServer(cfg.Port, coordinator, reader, log)

	shutdownqueue.Add("http server", func(c context.Context) error {
		log.Info("shut down server")

		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		// http.ErrServerClosed is the normal path during Shutdown
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	log.Info("API started",
		zap.Uint16("port", cfg.Port),
		zap.String("store", cfg.StoreDriver),
		zap.Bool("redis", cfg.Redis.Enabled()),
		zap.Bool("kafka", cfg.Kafka.Enabled()),
		zap.Int("multipliers", cfg.Multipliers.Len()),
	)

	select {
	case <-ctx.Done():
		// graceful path; deferred shutdownqueue.Shutdown will run
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}
