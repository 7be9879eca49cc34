package models

import (
	"time"

	"github.com/promptgov/promptgov/internal/metrics"
)

// Run statuses. Progression is one-way: pending -> running -> completed or
// failed. A failed run is recreated to retry, never transitioned back.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run records one execution of a prompt+config against a document.
// prompt_id and config_id are weak references: validated at creation time
// only, not cascade-deleted with their referents.
type Run struct {
	ID           string              `json:"id"`
	PromptID     string              `json:"prompt_id"`
	ConfigID     string              `json:"config_id"`
	DocumentName string              `json:"document_name"`
	Status       string              `json:"status"`
	StartedAt    time.Time           `json:"started_at"`
	CompletedAt  *time.Time          `json:"completed_at"`
	Output       map[string]any      `json:"output"`
	Metrics      *metrics.Result     `json:"metrics"`
	CostUSD      *float64            `json:"cost_usd"`
	Tokens       *metrics.TokenUsage `json:"tokens"`
}

// Terminal reports whether the run has reached a final state.
func (r *Run) Terminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}

// IndexEntry returns the lightweight metadata mirrored into the runs
// collection index.
func (r *Run) IndexEntry() map[string]any {
	var completed any
	if r.CompletedAt != nil {
		completed = r.CompletedAt.UTC().Format(time.RFC3339)
	}
	var cost any
	if r.CostUSD != nil {
		cost = *r.CostUSD
	}
	return map[string]any{
		"id":            r.ID,
		"prompt_id":     r.PromptID,
		"config_id":     r.ConfigID,
		"document_name": r.DocumentName,
		"status":        r.Status,
		"started_at":    r.StartedAt.UTC().Format(time.RFC3339),
		"completed_at":  completed,
		"cost_usd":      cost,
	}
}
