package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lendshare/internal/api"
	"lendshare/internal/cache"
	"lendshare/internal/config"
	"lendshare/internal/database"
	"lendshare/internal/domain"
	"lendshare/internal/events"
	"lendshare/internal/export"
	"lendshare/internal/logging"
	"lendshare/internal/metrics"
	"lendshare/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	viewCache := initCache(cfg, &logger)

	bus := events.NewEventBus()
	cache.NewInvalidator(viewCache, &logger).Register(bus)
	registerEventCounters(bus)

	userService := service.NewUserService(db, &logger)
	itemService := service.NewItemService(db, viewCache, bus, &logger)
	bookingService := service.NewBookingService(db, bus, &logger)
	requestService := service.NewRequestService(db, &logger)
	exporter := export.NewExporter(&logger)

	server := api.NewServer(cfg.Server, userService, itemService, bookingService,
		requestService, exporter, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startMetrics(ctx, cfg, &logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownSec)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}

	logger.Info().Msg("server stopped")
	return nil
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	logger, closer, err := logging.New(cfg.Logging, cfg.App, "server")
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, *logger, closer, nil
}

// initCache builds the view cache: Redis with an in-memory fallback when
// Redis is configured and reachable, memory only otherwise.
func initCache(cfg *config.Config, logger *zerolog.Logger) domain.ViewCache {
	ttl := time.Duration(cfg.Cache.TTLSec) * time.Second
	memory := cache.NewMemoryViewCache(ttl)

	if !cfg.Redis.Enabled || cfg.Redis.Address == "" {
		return memory
	}

	client := cache.NewRedisClient(cfg.Redis)
	if err := cache.Ping(context.Background(), client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing with memory cache")
		_ = cache.Close(client)
		return memory
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return cache.NewFailoverViewCache(cache.NewRedisViewCache(client, ttl), memory, logger)
}

func registerEventCounters(bus *events.EventBus) {
	bus.Subscribe(events.EventBookingCreated, func(*events.Event) error {
		metrics.IncBookingCreated()
		return nil
	})
	bus.Subscribe(events.EventBookingApproved, func(*events.Event) error {
		metrics.IncBookingDecision("approved")
		return nil
	})
	bus.Subscribe(events.EventBookingRejected, func(*events.Event) error {
		metrics.IncBookingDecision("rejected")
		return nil
	})
	bus.Subscribe(events.EventCommentAdded, func(*events.Event) error {
		metrics.IncCommentCreated()
		return nil
	})
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 2112
	}
	go startMetricsServer(ctx, port, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
