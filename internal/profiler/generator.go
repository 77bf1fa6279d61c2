package profiler

import "context"

// Task identifies which generation a call serves.
type Task string

const (
	TaskPreparation Task = "preparation"
	TaskAnalysis    Task = "analysis"
)

// GenerateRequest is one schema-constrained model call.
type GenerateRequest struct {
	Task   Task
	Prompt string
	Schema *Schema
}

// Generator sends a prompt to a hosted model and returns the raw reply text.
// Implementations request JSON output matching req.Schema, and mark
// retryable failures with Transient.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	Model() string
}
