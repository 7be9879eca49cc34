package executor

import "errors"

// Resolution failures are typed so callers can distinguish which
// collaborator was missing; anything that goes wrong after resources are
// resolved is wrapped in ErrExtractionFailed.
var (
	ErrPromptNotFound      = errors.New("prompt not found")
	ErrConfigNotFound      = errors.New("config not found")
	ErrDocumentNotFound    = errors.New("document not found")
	ErrGroundTruthNotFound = errors.New("ground truth not found")
	ErrExtractionFailed    = errors.New("extraction failed")
)
