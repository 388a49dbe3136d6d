package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"cartflow/pkg/cart"
	cartmem "cartflow/pkg/cart/memory"
	cartpg "cartflow/pkg/cart/postgres"
	cartredis "cartflow/pkg/cart/redis"
	"cartflow/pkg/cartview"
	"cartflow/pkg/catalog"
	"cartflow/pkg/checkout"
	"cartflow/pkg/config"
	"cartflow/pkg/logger"
	"cartflow/pkg/order"
	ordermem "cartflow/pkg/order/memory"
	orderpg "cartflow/pkg/order/postgres"
	"cartflow/pkg/otel"
)

// @title CartFlow API
// @version 1.0
// @description Cart, catalog view and checkout API for the ordering client
// @host localhost:8443
// @BasePath /
func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	log := logger.New(os.Stdout, logger.ParseLevel(cfg.LogLevel), "cartflow", otel.GetTraceID)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err != nil {
		log.Error(ctx, "load config", "error", err)
		return err
	}

	tp, shutdown, err := otel.InitTracing(log, otel.Config{ServiceName: "cartflow", Host: cfg.OTELHost, Probability: cfg.TraceProbability})
	if err != nil {
		log.Error(ctx, "init tracing", "error", err)
		return err
	}
	defer shutdown(context.Background())

	db, err := openDB(ctx, cfg)
	if err != nil {
		log.Error(ctx, "db connect", "error", err)
		return err
	}
	if db != nil {
		defer db.Close()
	}

	storage, err := cartStorage(cfg, db)
	if err != nil {
		log.Error(ctx, "cart storage", "error", err)
		return err
	}
	repo := orderRepository(cfg, db)

	fetcher := catalog.NewHTTPFetcher(&http.Client{Timeout: cfg.CatalogTimeout}, cfg.CatalogURL)
	loader := catalog.NewLoader(fetcher, log)
	go loader.Run(ctx, cfg.CatalogRefresh)

	carts := newSessions(storage, log)
	go carts.run(ctx, cfg.SessionIdle)

	a := &api{
		log:      log,
		tracer:   tp.Tracer("cartflow"),
		sessions: carts,
		catalog:  loader,
		views: cartview.Aggregator{
			Resolver: catalog.NewResolver(cfg.ImageBaseURL),
			Pricing:  cfg.Pricing,
			Log:      log,
		},
		checkout: checkout.NewService(repo, log),
		orders:   repo,
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           a.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info(ctx, "listening", "addr", cfg.HTTPAddr, "cart_backend", cfg.CartBackend, "order_backend", cfg.OrderBackend)
	if cfg.TLSCert != "" {
		err = srv.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
	} else {
		err = srv.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error(ctx, "server closed", "error", err)
		return err
	}
	log.Info(ctx, "server stopped")
	return nil
}

// openDB connects to PostgreSQL when any backend needs it and creates the
// tables. It returns nil when no backend uses the database.
func openDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if cfg.CartBackend != config.BackendPostgres && cfg.OrderBackend != config.BackendPostgres {
		return nil, nil
	}
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	for _, schema := range []string{cartpg.Schema, orderpg.Schema} {
		if _, err := db.ExecContext(ctx, schema); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

func cartStorage(cfg config.Config, db *sql.DB) (cart.Storage, error) {
	switch cfg.CartBackend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return cartredis.New(client, cfg.CartTTL), nil
	case config.BackendPostgres:
		return cartpg.New(db), nil
	case config.BackendMemory:
		return cartmem.New(), nil
	}
	return nil, errors.New("unknown cart backend " + cfg.CartBackend)
}

func orderRepository(cfg config.Config, db *sql.DB) order.Repository {
	if cfg.OrderBackend == config.BackendPostgres {
		return orderpg.New(db)
	}
	return ordermem.New()
}
