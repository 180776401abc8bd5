package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lv-riskdash/internal/accounts"
	"lv-riskdash/internal/config"
	"lv-riskdash/internal/db"
	"lv-riskdash/internal/health"
	"lv-riskdash/internal/httpserver"
	"lv-riskdash/internal/marketdata"
	"lv-riskdash/internal/risk"
	"lv-riskdash/internal/store"
	"lv-riskdash/internal/trading"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		st        store.Store
		pool      *pgxpool.Pool
		storeKind = "memory"
	)
	if cfg.DBDSN != "" {
		pool, err = db.NewPool(ctx, cfg.DBDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect database")
		}
		defer pool.Close()
		pg := store.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("ensure schema")
		}
		st = pg
		storeKind = "postgres"
	} else {
		st = store.NewMemory()
	}

	if cfg.SeedDemo {
		account, err := store.SeedDemo(ctx, st)
		if err != nil {
			logger.Fatal().Err(err).Msg("seed demo data")
		}
		logger.Info().Str("account_id", account.ID).Msg("demo account seeded")
	}

	loc, err := time.LoadLocation(cfg.RiskTimezone)
	if err != nil {
		logger.Fatal().Err(err).Str("timezone", cfg.RiskTimezone).Msg("load risk timezone")
	}
	clock := risk.NewClock(loc)

	feed := marketdata.NewFeed()
	bus := marketdata.NewBus(256)
	locks := trading.NewLockSet()

	analyzer := risk.NewAnalyzer(st, clock, logger)
	controller := trading.NewController(st, feed, bus, locks, clock, logger)
	engine := trading.NewEngine(st, analyzer, feed, bus, locks, logger)
	accountsSvc := accounts.NewService(st)

	router := httpserver.NewRouter(httpserver.RouterDeps{
		AccountsHandler: accounts.NewHandler(accountsSvc),
		RiskHandler:     risk.NewHandler(analyzer, st),
		TradingHandler:  trading.NewHandler(engine, controller, st),
		MarketHandler:   marketdata.NewHandler(feed),
		HealthHandler:   health.NewHandler(pool, time.Now(), cfg.HTTPAddr, storeKind),
		WSHandler:       httpserver.NewWSHandler(bus, cfg.WebSocketOrigin, logger),
		DefaultUserID:   store.DemoUserID,
		Logger:          logger,
	})
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	publisher := marketdata.NewPublisher(feed, bus, st, cfg.QuoteInterval, logger)
	go publisher.Run(ctx)

	logger.Info().
		Str("addr", cfg.HTTPAddr).
		Str("store", storeKind).
		Str("timezone", cfg.RiskTimezone).
		Msg("server listening")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
