package queue

const TypeRunExecute = "run:execute"

// RunExecutePayload carries everything the worker needs to execute a run.
type RunExecutePayload struct {
	RunID        string `json:"run_id"`
	PromptID     string `json:"prompt_id"`
	ConfigID     string `json:"config_id"`
	DocumentName string `json:"document_name"`
}
