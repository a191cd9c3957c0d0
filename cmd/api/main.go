package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/afrifurn-storefront/api"
	"github.com/angelmondragon/afrifurn-storefront/api/routes"
	"github.com/angelmondragon/afrifurn-storefront/internal/browse"
	"github.com/angelmondragon/afrifurn-storefront/internal/catalog"
	"github.com/angelmondragon/afrifurn-storefront/pkg/config"
	"github.com/angelmondragon/afrifurn-storefront/pkg/instance"
	"github.com/angelmondragon/afrifurn-storefront/pkg/logger"
	"github.com/angelmondragon/afrifurn-storefront/pkg/metrics"
	"github.com/angelmondragon/afrifurn-storefront/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	browseMetrics := metrics.NewBrowseMetrics(registry)

	var (
		pinger redis.Pinger
		cache  redis.Cache
	)
	if cfg.Cache.Enabled && cfg.Redis.Configured() {
		redisClient, redisErr := redis.New(ctx, cfg.Redis)
		if redisErr != nil {
			logg.Warn(logg.WithField(ctx, "error", redisErr.Error()), "redis unavailable, serving without response cache")
		} else {
			defer func() {
				err = multierr.Append(err, redisClient.Close())
			}()
			pinger = redisClient
			cache = redisClient
		}
	}

	breaker := catalog.NewBreaker(catalog.BreakerSettings{
		MaxRequests:  cfg.ProductService.BreakerMaxRequests,
		Interval:     cfg.ProductService.BreakerInterval,
		OpenTimeout:  cfg.ProductService.BreakerOpenTimeout,
		MinRequests:  cfg.ProductService.BreakerMinRequests,
		FailureRatio: cfg.ProductService.BreakerFailureRatio,
	}, logg, browseMetrics)

	client, err := catalog.NewClient(cfg.ProductService.BaseURL,
		catalog.WithTimeout(cfg.ProductService.Timeout),
		catalog.WithBreaker(breaker),
	)
	if err != nil {
		return err
	}

	var source catalog.Catalog = client
	if cache != nil {
		source = catalog.NewCachedFetcher(client, cache, catalog.CacheTTLs{
			Filter: cfg.Cache.FilterTTL,
			Facets: cfg.Cache.FacetTTL,
		}, logg, browseMetrics)
	}

	sessions := browse.NewManager(source, browse.ManagerConfig{
		Debounce:      cfg.Browse.Debounce,
		PageSize:      cfg.Browse.PageSize,
		SessionTTL:    cfg.Browse.SessionTTL,
		SweepInterval: cfg.Browse.SweepInterval,
		MaxSessions:   cfg.Browse.MaxSessions,
	}, logg, browseMetrics)
	defer func() {
		err = multierr.Append(err, sessions.Close())
	}()
	go sessions.Run(ctx)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	serveCtx := logg.WithFields(ctx, map[string]any{
		"env":             cfg.App.Env,
		"addr":            addr,
		"instance":        instance.GetID(),
		"product_service": cfg.ProductService.BaseURL,
		"cache":           cache != nil,
	})
	logg.Info(serveCtx, "starting api server")

	handler := routes.NewRouter(cfg, logg, pinger, source, sessions, registry)
	return api.Serve(serveCtx, api.NewServer(addr, handler), ln, cfg.HTTP, logg)
}
