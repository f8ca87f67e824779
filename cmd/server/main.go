package main

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/moneta-app/moneta/internal/cache"
	redisc "github.com/moneta-app/moneta/internal/cache/redis"
	"github.com/moneta-app/moneta/internal/config"
	"github.com/moneta-app/moneta/internal/currency"
	"github.com/moneta-app/moneta/internal/events"
	"github.com/moneta-app/moneta/internal/events/kafka"
	"github.com/moneta-app/moneta/internal/interfaces"
	"github.com/moneta-app/moneta/internal/ledger"
	"github.com/moneta-app/moneta/internal/logger"
	"github.com/moneta-app/moneta/internal/models"
	"github.com/moneta-app/moneta/internal/planning"
	"github.com/moneta-app/moneta/internal/storage/memory"
	"github.com/moneta-app/moneta/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()

	var (
		ledgerStore   interfaces.LedgerStore
		planningStore interfaces.PlanningStore
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Fatal("failed to open postgres", "error", err)
		}
		if err := db.PingContext(ctx); err != nil {
			log.Fatal("failed to reach postgres", "error", err)
		}
		store := postgres.NewStore(db)
		ledgerStore, planningStore = store, store
		log.Info("using postgres store")
	} else {
		store := memory.NewStore()
		ledgerStore, planningStore = store, store
		log.Info("using in-memory store")
	}

	var cacheLayer interfaces.Cache = cache.Nop{}
	if cfg.RedisAddr != "" {
		redisCache, err := redisc.New(ctx, cfg.RedisAddr, log)
		if err != nil {
			log.Fatal("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
		}
		defer redisCache.Close()
		cacheLayer = redisCache
		log.Info("redis cache enabled", "addr", cfg.RedisAddr)
	}

	var publisher interfaces.EventPublisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := kafka.NewPublisher(cfg.KafkaBrokers)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		log.Info("kafka publisher enabled", "brokers", cfg.KafkaBrokers)
	}

	// Rates come from an external provider in production; an empty table
	// still serves every same-currency operation.
	rates := currency.NewStaticRates()

	engineCfg := ledger.Config{
		MaxCommitRetries: cfg.CommitRetries,
		RetryBackoff:     cfg.CommitBackoff,
		CacheTTL:         cfg.CacheTTL,
		AllowOverdraft: map[models.AccountKind]bool{
			models.AccountCard: cfg.CardOverdraft,
		},
	}

	coordinator := ledger.NewCoordinator(ledgerStore, cacheLayer, publisher, log, engineCfg)
	accounts := ledger.NewAccountService(ledgerStore, cacheLayer, coordinator, log, engineCfg)
	transactions := ledger.NewTransactionService(ledgerStore, coordinator, publisher, rates, log)
	budgets := planning.NewBudgetService(planningStore, ledgerStore, rates, log)
	goals := planning.NewGoalService(planningStore, log)

	srv := &server{
		accounts:     accounts,
		transactions: transactions,
		budgets:      budgets,
		goals:        goals,
		log:          log.With("component", "http"),
	}

	log.Info("starting server", "addr", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, srv.routes()); err != nil {
		log.Fatal("server stopped", "error", err)
	}
}
