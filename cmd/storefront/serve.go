package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/clock"
	httpapi "github.com/fjod/go_cart/storefront/internal/http"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/publisher"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/fjod/go_cart/storefront/internal/shipping"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the storefront HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(rootOpts.ConfigPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *Config) error {
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck
	zap.ReplaceGlobals(log)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	products, closeCatalog, err := openCatalog(cfg, true)
	if err != nil {
		return err
	}
	defer closeCatalog()

	views, closeViews := openViewCache(ctx, cfg, log)
	defer closeViews()

	var pub checkout.Publisher = publisher.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		kp := publisher.NewKafkaPublisher(cfg.Kafka.Topic, cfg.Kafka.Brokers...)
		defer kp.Close()
		pub = kp
		log.Info("publishing confirmations", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	clk := clock.System()
	engine := shipping.NewEngine(clk)
	cart := service.NewCartService(products, views, clk, log)

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Cart:           cart,
		Catalog:        products,
		Checkout:       checkout.NewFlow(cart, engine, pub, clk, log),
		Shipping:       engine,
		Views:          views,
		Cookies:        repository.NewCookieStoreFactory(repository.DefaultCookieOptions(cfg.Production()), clk, log),
		SecureCookies:  cfg.Production(),
		RequestTimeout: cfg.Server.RequestTimeout,
		Logger:         log,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("storefront starting", zap.String("addr", srv.Addr), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server exited")
	return nil
}

// openCatalog returns the configured product source and its closer.
func openCatalog(cfg *Config, migrate bool) (catalog.Catalog, func(), error) {
	if cfg.Catalog.Source == "yaml" {
		static, err := catalog.LoadStatic(cfg.Catalog.File)
		if err != nil {
			return nil, nil, err
		}
		return static, func() {}, nil
	}

	repo, err := catalog.NewRepository(cfg.Catalog.DSN)
	if err != nil {
		return nil, nil, err
	}
	if migrate {
		if err := repo.RunMigrations(); err != nil {
			repo.Close()
			return nil, nil, err
		}
	}
	return repo, func() { repo.Close() }, nil
}

// openViewCache connects to Redis when enabled. An unreachable Redis
// leaves the service running without a view cache.
func openViewCache(ctx context.Context, cfg *Config, log *zap.Logger) (cache.ViewCache, func()) {
	if !cfg.Redis.Enabled {
		return cache.Nop{}, func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unavailable, view cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		client.Close()
		return cache.Nop{}, func() {}
	}

	return cache.NewRedisCache(client, cfg.Cache.TTL), func() { client.Close() }
}
