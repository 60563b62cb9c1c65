package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shop-service/internal/api"
	"shop-service/internal/auth"
	"shop-service/internal/cache"
	"shop-service/internal/config"
	"shop-service/internal/database"
	"shop-service/internal/messaging"
	"shop-service/internal/repository"
	"shop-service/internal/repository/memory"
	"shop-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	var (
		notifiers    service.Notifiers
		productCache service.ProductCache
	)

	if cfg.RedisURL != "" {
		rdb, err := cache.ConnectRedis(ctx, cfg)
		if err != nil {
			logger.Warn("redis unavailable, product cache disabled", "error", err)
		} else {
			defer rdb.Close()
			pc := cache.NewProductCache(store.Products(), rdb, logger)
			productCache = pc
			notifiers = append(notifiers, pc)
			logger.Info("redis connected", "addr", cfg.RedisURL)
		}
	}

	if cfg.AMQPURL != "" {
		conn, ch, err := messaging.Dial(ctx, cfg.AMQPURL, 5, logger)
		if err != nil {
			logger.Warn("rabbitmq unavailable, order events disabled", "error", err)
		} else {
			defer conn.Close()
			defer ch.Close()
			notifiers = append(notifiers, messaging.NewPublisher(ch))
			logger.Info("rabbitmq connected", "exchange", messaging.ExchangeName)
		}
	}

	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL)

	router := api.NewRouter(api.Deps{
		Store:          store,
		Tokens:         tokens,
		Accounts:       service.NewAccounts(store, tokens, logger),
		Catalog:        service.NewCatalog(store, productCache, logger),
		Carts:          service.NewCartManager(store, logger),
		Orders:         service.NewOrderEngine(store, notifiers, logger),
		AdminAPIKey:    cfg.AdminAPIKey,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "address", cfg.HTTPAddr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server exited")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.Store, error) {
	if cfg.StoreDriver == config.DriverMemory {
		logger.Warn("using in-memory store, data is lost on restart")
		return memory.New(), nil
	}

	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, pool, logger); err != nil {
		pool.Close()
		return nil, err
	}
	return repository.NewPgStore(pool, cfg.TxTimeout), nil
}
