package main

import (
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/promptgov/promptgov/internal/cache"
	"github.com/promptgov/promptgov/internal/config"
	"github.com/promptgov/promptgov/internal/executor"
	"github.com/promptgov/promptgov/internal/pipeline"
	"github.com/promptgov/promptgov/internal/queue"
	"github.com/promptgov/promptgov/internal/queue/workers"
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

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	store := storage.New(cfg.Storage.DataDir)
	llm := pipeline.NewLLM(cfg.LLM)
	exec := executor.New(store, llm, cfg.Storage.DocumentsDir, cfg.Storage.GroundTruthDir, cfg.Executor.Timeout)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: cfg.Executor.Concurrency,
		},
	)

	registry := queue.NewHandlersRegistry()

	runWorker := workers.NewRunWorker(exec, cache.NewRedis(rdb))
	registry.Register(queue.TypeRunExecute, asynq.HandlerFunc(runWorker.ProcessTask))

	slog.Info("starting worker", "concurrency", cfg.Executor.Concurrency)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
