package queue

import (
	"context"
	"log/slog"

	"github.com/promptgov/promptgov/internal/cache"
	"github.com/promptgov/promptgov/internal/executor"
)

// Dispatcher hands a run off for background execution. The API returns 202
// as soon as Dispatch succeeds; callers poll the run for progress.
type Dispatcher interface {
	Dispatch(ctx context.Context, payload RunExecutePayload) error
}

// AsynqDispatcher pushes runs onto the Redis queue for the worker process.
type AsynqDispatcher struct {
	client *Client
}

func NewAsynqDispatcher(client *Client) *AsynqDispatcher {
	return &AsynqDispatcher{client: client}
}

func (d *AsynqDispatcher) Dispatch(_ context.Context, payload RunExecutePayload) error {
	return d.client.EnqueueRunExecute(payload)
}

// LocalDispatcher executes runs on in-process goroutines, bounded by a
// semaphore. Used when Redis is unavailable; the 202-accept + poll contract
// is unchanged.
type LocalDispatcher struct {
	exec  *executor.Executor
	cache cache.Cache
	slots chan struct{}
}

func NewLocalDispatcher(exec *executor.Executor, c cache.Cache, concurrency int) *LocalDispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &LocalDispatcher{
		exec:  exec,
		cache: c,
		slots: make(chan struct{}, concurrency),
	}
}

func (d *LocalDispatcher) Dispatch(_ context.Context, payload RunExecutePayload) error {
	go func() {
		d.slots <- struct{}{}
		defer func() { <-d.slots }()

		// Detached from the request context: execution outlives the
		// 202 response.
		ctx := context.Background()
		if _, err := d.exec.Execute(ctx, payload.RunID, payload.PromptID, payload.ConfigID, payload.DocumentName); err != nil {
			slog.Error("background run failed", "run_id", payload.RunID, "error", err)
		}
		if err := d.cache.InvalidateNamespace(ctx, "runs"); err != nil {
			slog.Warn("invalidate runs cache", "error", err)
		}
	}()
	return nil
}
