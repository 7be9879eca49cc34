package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/promptgov/promptgov/internal/config"
)

// Client enqueues run-execution tasks onto the Redis-backed queue.
type Client struct {
	client  *asynq.Client
	timeout time.Duration
}

func NewClient(cfg config.RedisConfig, timeout time.Duration) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		timeout: timeout,
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueRunExecute schedules one run execution. Runs never retry
// automatically: a failed run is recreated, not re-run.
func (c *Client) EnqueueRunExecute(payload RunExecutePayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(TypeRunExecute, data)
	_, err = c.client.Enqueue(task, asynq.MaxRetry(0), asynq.Timeout(c.timeout))
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", TypeRunExecute, err)
	}
	return nil
}
