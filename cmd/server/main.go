package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"emulator-service/internal/adapters/primary/http/handlers"
	"emulator-service/internal/adapters/primary/http/middleware"
	"emulator-service/internal/adapters/secondary/memory"
	"emulator-service/internal/adapters/secondary/postgres"
	"emulator-service/internal/config"
	"emulator-service/internal/core/ports/output"
	"emulator-service/internal/core/services"
	"emulator-service/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	initLogger(cfg)

	// Secondary adapters: the repository backend is chosen by config so the
	// same binary serves local runs (memory) and deployments (postgres).
	var (
		datasetRepo  ports.DatasetRepository
		emulatorRepo ports.EmulatorRepository
	)
	ping := func(context.Context) error { return nil }

	switch cfg.Store.Driver {
	case "postgres":
		poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
		if err != nil {
			log.Fatalf("parse db config: %v", err)
		}
		poolCfg.MaxConns = int32(cfg.Database.MaxOpenConns)
		poolCfg.MinConns = int32(cfg.Database.MaxIdleConns)
		poolCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime

		pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
		if err != nil {
			log.Fatalf("create db pool: %v", err)
		}
		defer pool.Close()

		if err := pool.Ping(context.Background()); err != nil {
			log.Fatalf("ping db: %v", err)
		}
		if err := postgres.CreateSchema(context.Background(), pool); err != nil {
			log.Fatalf("create schema: %v", err)
		}
		log.Info("database connection established")

		datasetRepo = postgres.NewDatasetRepository(pool)
		emulatorRepo = postgres.NewEmulatorRepository(pool)
		ping = pool.Ping
	default:
		log.Info("using in-memory store")
		datasetRepo = memory.NewDatasetRepo()
		emulatorRepo = memory.NewEmulatorRepo()
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	// Core services
	runner := services.NewTrainingRunner(emulatorRepo, cfg.Training.Workers, cfg.Training.QueueSize, m)
	datasetSvc := services.NewDatasetService(datasetRepo, emulatorRepo)
	emulatorSvc := services.NewEmulatorService(emulatorRepo, datasetRepo, runner)

	// Primary adapter
	h := handlers.New(datasetSvc, emulatorSvc)

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logging())
	if m != nil {
		router.Use(middleware.Metrics(m))
	}
	router.Use(gin.Recovery())

	api := router.Group("/api/v1")
	if cfg.Auth.APIKey != "" {
		api.Use(middleware.APIKey(cfg.Auth.APIKey))
		log.Info("API key authentication enabled")
	}
	h.RegisterRoutes(api)

	// Health check pings the store backend
	router.GET("/healthz", func(c *gin.Context) {
		if err := ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Infof("starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown: stop accepting requests, then drain the training
	// queue so running jobs record a terminal status.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced shutdown: %v", err)
	}
	runner.Close()

	log.Info("server stopped")
}

func initLogger(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Logger.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	if cfg.Logger.File != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   cfg.Logger.File,
			MaxSize:    cfg.Logger.MaxSizeMB,
			MaxBackups: cfg.Logger.MaxBackups,
			MaxAge:     cfg.Logger.MaxAgeDays,
			Compress:   true,
		})
	}
}
