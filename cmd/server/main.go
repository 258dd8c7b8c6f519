package main // Entry point package

import (
	"context"
	"errors"
	"log" // Logging library
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4" // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware"
	glog "github.com/labstack/gommon/log"

	"github.com/iliyamo/babymonitor-readings/internal/config"
	"github.com/iliyamo/babymonitor-readings/internal/database"
	"github.com/iliyamo/babymonitor-readings/internal/handler"
	"github.com/iliyamo/babymonitor-readings/internal/middleware"
	"github.com/iliyamo/babymonitor-readings/internal/observability"
	"github.com/iliyamo/babymonitor-readings/internal/queue"
	"github.com/iliyamo/babymonitor-readings/internal/repository"
	"github.com/iliyamo/babymonitor-readings/internal/router"
	"github.com/iliyamo/babymonitor-readings/internal/service"
)

func main() {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("ignoring .env: %v", err)
	}
	cfg := config.Load() // Load environment config

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.Params{
		Driver:  cfg.DBDriver,
		User:    cfg.DBUser,
		Pass:    cfg.DBPass,
		Host:    cfg.DBHost,
		Port:    cfg.DBPort,
		Name:    cfg.DBName,
		SSLMode: cfg.DBSSLMode,
	})
	if err != nil {
		log.Fatalf("open %s database: %v", cfg.DBDriver, err)
	}
	defer db.Close()

	rdb := config.NewRedisClient(ctx)
	if rdb == nil {
		log.Printf("redis unavailable; response cache and rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	metrics := observability.NewMetrics()

	repo := repository.NewReadingRepo(db, repository.DialectFor(cfg.DBDriver), cfg.ReadingsTable, cfg.DBLocation)
	repo.SkipMalformed = cfg.TimestampPolicy == config.TimestampSkip
	svc := service.NewReadingService(repo, service.Options{
		DefaultLimit: cfg.DefaultLimit,
		MaxLimit:     cfg.MaxLimit,
		QueryTimeout: cfg.QueryTimeout,
	})
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb, metrics)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Logger.SetLevel(logLevel(cfg.LogLevel))
	repo.Warnf = e.Logger.Warnf

	e.Use(
		echomw.Recover(),
		echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}),
		echomw.Logger(),
		middleware.CORS(),
		middleware.Metrics(metrics),
	)
	router.RegisterRoutes(e, repo, metrics.Handler())
	router.RegisterReadings(e, &handler.ReadingHandler{Readings: svc, Metrics: metrics},
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		cache.Middleware(),
	)

	if qcfg := config.LoadQueueConfig(); qcfg.Enabled {
		consumer := queue.NewConsumer(qcfg, cache)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("readings-consumer stopped: %v", err)
			}
		}()
	}

	addr := ":" + cfg.Port // Address string with port
	log.Printf("listening on %s (env=%s, driver=%s, table=%s)", addr, cfg.Env, cfg.DBDriver, cfg.ReadingsTable)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err) // Log and exit if server fails
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func logLevel(s string) glog.Lvl {
	switch s {
	case "debug":
		return glog.DEBUG
	case "warn":
		return glog.WARN
	case "error":
		return glog.ERROR
	case "off":
		return glog.OFF
	default:
		return glog.INFO
	}
}
