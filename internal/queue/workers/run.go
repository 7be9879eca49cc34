package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/promptgov/promptgov/internal/cache"
	"github.com/promptgov/promptgov/internal/executor"
	"github.com/promptgov/promptgov/internal/queue"
)

// RunWorker executes queued extraction runs.
type RunWorker struct {
	exec  *executor.Executor
	cache cache.Cache
}

func NewRunWorker(exec *executor.Executor, c cache.Cache) *RunWorker {
	return &RunWorker{exec: exec, cache: c}
}

func (w *RunWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.RunExecutePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	slog.Info("executing run", "run_id", payload.RunID, "document", payload.DocumentName)

	_, err := w.exec.Execute(ctx, payload.RunID, payload.PromptID, payload.ConfigID, payload.DocumentName)
	if cacheErr := w.cache.InvalidateNamespace(ctx, "runs"); cacheErr != nil {
		slog.Warn("invalidate runs cache", "error", cacheErr)
	}
	if err != nil {
		// The run record already carries the terminal failed state;
		// the task is not retried.
		return fmt.Errorf("run %s: %w", payload.RunID, err)
	}
	return nil
}
