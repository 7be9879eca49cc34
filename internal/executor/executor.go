// Package executor drives the run state machine: pending -> running ->
// completed or failed. Completed and failed are terminal; a failed run is
// recreated to retry.
package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/promptgov/promptgov/internal/metrics"
	"github.com/promptgov/promptgov/internal/models"
	"github.com/promptgov/promptgov/internal/pipeline"
	"github.com/promptgov/promptgov/internal/storage"
	"github.com/promptgov/promptgov/pkg/textextract"
)

// Executor resolves a run's collaborators, invokes the extraction pipeline
// and persists the outcome.
type Executor struct {
	store          *storage.Store
	pipeline       pipeline.Pipeline
	documentsDir   string
	groundTruthDir string
	timeout        time.Duration
}

func New(store *storage.Store, p pipeline.Pipeline, documentsDir, groundTruthDir string, timeout time.Duration) *Executor {
	return &Executor{
		store:          store,
		pipeline:       p,
		documentsDir:   documentsDir,
		groundTruthDir: groundTruthDir,
		timeout:        timeout,
	}
}

// Execute runs one extraction end to end. Entry is idempotent: an existing
// run record with this id is reused, otherwise a fresh pending record is
// synthesized. Any resolution or extraction failure leaves the run in a
// terminal failed state on disk and is returned to the caller; a run is
// never left in "running".
func (e *Executor) Execute(ctx context.Context, runID, promptID, configID, documentName string) (*models.Run, error) {
	run, err := e.loadOrCreateRun(runID, promptID, configID, documentName)
	if err != nil {
		return nil, err
	}
	if run.Terminal() {
		// Completed and failed are final; a retry is a new run.
		return run, nil
	}

	prompt, cfg, document, groundTruth, err := e.resolve(promptID, configID, documentName)
	if err != nil {
		e.markFailed(run, err)
		return run, err
	}

	run.Status = models.StatusRunning
	run.StartedAt = time.Now().UTC()
	if err := e.saveRun(run); err != nil {
		return nil, err
	}

	execCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	result, err := e.pipeline.Extract(execCtx, prompt, cfg, document)
	if err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrExtractionFailed, err)
		run.Output = map[string]any{"error": err.Error()}
		e.markFailed(run, wrapped)
		return run, wrapped
	}

	scores := metrics.Compare(result.Output, groundTruth)
	scores.LatencyMs = result.LatencyMs
	cost := metrics.CalculateCost(result.Tokens, cfg.ModelID)
	tokens := result.Tokens
	now := time.Now().UTC()

	run.Output = result.Output
	run.Metrics = scores
	run.Tokens = &tokens
	run.CostUSD = &cost
	run.Status = models.StatusCompleted
	run.CompletedAt = &now

	if err := e.saveRun(run); err != nil {
		return nil, err
	}
	slog.Info("run completed",
		"run_id", run.ID,
		"document", documentName,
		"recall", scores.Recall,
		"cost_usd", cost,
	)
	return run, nil
}

func (e *Executor) loadOrCreateRun(runID, promptID, configID, documentName string) (*models.Run, error) {
	var run models.Run
	err := e.store.Load(storage.CollectionRuns, runID, &run)
	if err == nil {
		return &run, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	return &models.Run{
		ID:           storage.NormalizeID(runID),
		PromptID:     storage.NormalizeID(promptID),
		ConfigID:     storage.NormalizeID(configID),
		DocumentName: documentName,
		Status:       models.StatusPending,
		StartedAt:    time.Now().UTC(),
	}, nil
}

func (e *Executor) resolve(promptID, configID, documentName string) (*models.PromptVersion, *models.ModelConfig, string, map[string]any, error) {
	var prompt models.PromptVersion
	if err := e.store.Load(storage.CollectionPrompts, promptID, &prompt); err != nil {
		return nil, nil, "", nil, fmt.Errorf("%w: %s", ErrPromptNotFound, promptID)
	}

	var cfg models.ModelConfig
	if err := e.store.Load(storage.CollectionConfigs, configID, &cfg); err != nil {
		return nil, nil, "", nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configID)
	}

	document, err := e.loadDocument(documentName)
	if err != nil {
		return nil, nil, "", nil, err
	}

	groundTruth, err := e.LoadGroundTruth(documentName)
	if err != nil {
		return nil, nil, "", nil, err
	}

	return &prompt, &cfg, document, groundTruth, nil
}

// loadDocument reads a document's text content. PDFs go through text
// extraction; extraction failures degrade to a placeholder string rather
// than failing the run, because real OCR is the pipeline's job.
func (e *Executor) loadDocument(documentName string) (string, error) {
	path := filepath.Join(e.documentsDir, documentName)
	if _, err := os.Stat(path); err != nil && !strings.Contains(documentName, ".") {
		for _, ext := range []string{".pdf", ".txt", ".text"} {
			alt := path + ext
			if _, err := os.Stat(alt); err == nil {
				path = alt
				break
			}
		}
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrDocumentNotFound, documentName)
	}

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		text, err := textextract.FromPDFFile(path)
		if err != nil {
			slog.Warn("PDF text extraction failed, using placeholder", "document", documentName, "error", err)
			return fmt.Sprintf("[Binary document: %s]", documentName), nil
		}
		return text, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document %s: %w", documentName, err)
	}
	return string(data), nil
}

// LoadGroundTruth reads the expected structured document for documentName
// from the ground truth directory, matching on the base name.
func (e *Executor) LoadGroundTruth(documentName string) (map[string]any, error) {
	base := strings.TrimSuffix(documentName, filepath.Ext(documentName))
	path := filepath.Join(e.groundTruthDir, base+".json")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrGroundTruthNotFound, base)
	}
	var groundTruth map[string]any
	if err := json.Unmarshal(data, &groundTruth); err != nil {
		return nil, fmt.Errorf("parse ground truth %s: %w", base, err)
	}
	return groundTruth, nil
}

// markFailed moves the run into its terminal failed state and persists it.
// Persistence errors here are logged, not returned: the typed resolution or
// extraction error is what the caller needs.
func (e *Executor) markFailed(run *models.Run, cause error) {
	now := time.Now().UTC()
	run.Status = models.StatusFailed
	run.CompletedAt = &now
	if err := e.saveRun(run); err != nil {
		slog.Error("persist failed run", "run_id", run.ID, "error", err)
	}
	slog.Warn("run failed", "run_id", run.ID, "error", cause)
}

func (e *Executor) saveRun(run *models.Run) error {
	if err := e.store.Save(storage.CollectionRuns, run.ID, run); err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	if err := e.store.UpsertIndexEntry(storage.CollectionRuns, run.IndexEntry()); err != nil {
		return fmt.Errorf("index run %s: %w", run.ID, err)
	}
	return nil
}
