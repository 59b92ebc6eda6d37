package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoPolymarket/schemascope/internal/config"
	"github.com/GoPolymarket/schemascope/internal/handler"
	"github.com/GoPolymarket/schemascope/internal/introspect"
	"github.com/GoPolymarket/schemascope/internal/pkg/logger"
	"github.com/GoPolymarket/schemascope/internal/repository"
	"github.com/GoPolymarket/schemascope/internal/service"
	"github.com/gin-gonic/gin"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize Logger
	logger.Init(cfg.Log.Level)
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	// 3. Initialize Persistence
	health := map[string]handler.Pinger{"database": nil, "redis": nil}
	var (
		registry  introspect.Registry
		userRepo  service.UserRepo
		orderRepo service.OrderRepo
	)
	if cfg.Database.DSN != "" {
		db, err := repository.NewDB(cfg)
		if err != nil {
			logger.Error("Failed to connect to DB, resource routes disabled", "error", err)
		} else {
			logger.Info("Connected to PostgreSQL")
			if err := repository.AttachRecorder(db); err != nil {
				log.Fatalf("Failed to attach resource recorder: %v", err)
			}
			registry = repository.NewGormRegistry(db, repository.Models()...)
			userRepo = repository.NewUserRepo(db)
			orderRepo = repository.NewOrderRepo(db)
			if sqlDB, err := db.DB(); err == nil {
				health["database"] = sqlDB
			}
		}
	} else {
		logger.Warn("database.dsn not set, schemas will be reported as unavailable")
	}

	var redisClient *repository.RedisClient
	if cfg.Redis.Addr != "" {
		redisClient, err = repository.NewRedisClient(cfg)
		if err != nil {
			logger.Error("Failed to connect to Redis, tail sink disabled", "error", err)
			redisClient = nil
		} else {
			logger.Info("Connected to Redis")
			health["redis"] = redisClient
		}
	}

	// 4. Initialize Core Services
	var diagSvc *service.DiagnosticService
	var closers []io.Closer
	if cfg.Diagnostics.Enabled {
		sink, sinkClosers, err := buildSink(cfg, redisClient)
		if err != nil {
			log.Fatalf("Failed to initialize diagnostic sink: %v", err)
		}
		closers = append(closers, sinkClosers...)
		diagSvc = service.NewDiagnosticService(
			service.NewAssembler(introspect.New(registry)),
			sink,
			service.NewHub(64),
			service.DiagnosticOptions{
				BufferSize:   cfg.Diagnostics.BufferSize,
				RecentMax:    cfg.Diagnostics.RecentMax,
				Pretty:       cfg.Diagnostics.Pretty,
				MaxPerSecond: cfg.Diagnostics.MaxPerSecond,
				Burst:        cfg.Diagnostics.Burst,
			},
		)
	}

	// 5. Setup Router
	r := handler.NewRouter(handler.RouterDeps{
		Config:      cfg,
		Diagnostics: diagSvc,
		Users:       service.NewUserService(userRepo),
		Orders:      service.NewOrderService(orderRepo),
		Health:      health,
	})

	// 6. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("schemascope started", "port", cfg.Server.Port, "diagnostics", cfg.Diagnostics.Enabled)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	if diagSvc != nil {
		diagSvc.Close()
	}
	for _, c := range closers {
		_ = c.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}

	logger.Info("Server exiting")
}

func buildSink(cfg *config.Config, redisClient *repository.RedisClient) (service.Sink, []io.Closer, error) {
	var (
		sinks   service.MultiSink
		closers []io.Closer
	)
	switch cfg.Diagnostics.Sink {
	case "stdout":
		sinks = append(sinks, service.NewWriterSink("stdout", os.Stdout))
	case "file":
		fs, err := service.NewFileSink(cfg.Diagnostics.FileDir)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, fs)
		closers = append(closers, fs)
	default:
		sinks = append(sinks, service.NewWriterSink("stderr", os.Stderr))
	}
	if redisClient != nil {
		sinks = append(sinks, repository.NewRedisSink(
			redisClient.Client,
			cfg.Redis.ListKey,
			cfg.Redis.ListMax,
			time.Duration(cfg.Redis.TTLSeconds)*time.Second,
		))
	}
	if len(sinks) == 1 {
		return sinks[0], closers, nil
	}
	return sinks, closers, nil
}
