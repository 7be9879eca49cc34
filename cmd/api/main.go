package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/promptgov/promptgov/internal/api"
	"github.com/promptgov/promptgov/internal/cache"
	"github.com/promptgov/promptgov/internal/config"
	"github.com/promptgov/promptgov/internal/executor"
	"github.com/promptgov/promptgov/internal/pipeline"
	"github.com/promptgov/promptgov/internal/queue"
	"github.com/promptgov/promptgov/internal/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Redis connection (optional — the server degrades to in-memory cache
	// and in-process run execution when it is unreachable)
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	redisUp := true
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, using in-memory cache and local execution", "error", err)
		redisUp = false
		rdb.Close()
		rdb = nil
	} else {
		defer rdb.Close()
	}

	var c cache.Cache
	if redisUp {
		c = cache.NewRedis(rdb)
	} else {
		c = cache.NewMemory()
	}

	store := storage.New(cfg.Storage.DataDir)
	llm := pipeline.NewLLM(cfg.LLM)
	exec := executor.New(store, llm, cfg.Storage.DocumentsDir, cfg.Storage.GroundTruthDir, cfg.Executor.Timeout)

	var dispatcher queue.Dispatcher
	if redisUp {
		dispatcher = queue.NewAsynqDispatcher(queue.NewClient(cfg.Redis, cfg.Executor.Timeout))
	} else {
		dispatcher = queue.NewLocalDispatcher(exec, c, cfg.Executor.Concurrency)
	}

	router := api.NewRouter(store, c, dispatcher, rdb, cfg)
	handler := router.Setup()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
