// Package workflow holds the two interview workflows as small state
// machines. Each instance allows one model request in flight, and only the
// most recently started request may move it to a new state.
package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/BerylCAtieno/clientlens/internal/models"
)

var (
	// ErrBusy is returned by Submit while a request is already in flight.
	ErrBusy = errors.New("a request is already in progress")

	// ErrStale is returned by Submit when the workflow was cancelled, reset or
	// edited before the response arrived. The response is discarded.
	ErrStale = errors.New("response superseded by a newer action")

	// ErrNoResult is returned by Confirm and Discard when nothing is pending.
	ErrNoResult = errors.New("no result to act on")

	// ErrUnknownWorkflow is returned by the Registry for an unknown id.
	ErrUnknownWorkflow = errors.New("unknown workflow")
)

type Kind string

const (
	KindPreparation Kind = "preparation"
	KindAnalysis    Kind = "analysis"
)

type State string

const (
	StateEditing State = "editing"
	StateLoading State = "loading"
	StateResult  State = "result"
	// StateApplied is passed through when an analysis is confirmed; the
	// workflow settles back in StateEditing right after.
	StateApplied State = "applied"
)

// Preparer produces pre-interview briefs.
type Preparer interface {
	PreparePreInterview(ctx context.Context, req models.PreparationRequest) (*models.PreparationResult, error)
}

// Analyzer produces post-interview analyses.
type Analyzer interface {
	AnalyzePostInterview(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error)
}

// Observer is told about every state change.
type Observer interface {
	OnTransition(ctx context.Context, kind Kind, from, to State)
}

type options struct {
	now      func() time.Time
	observer Observer
	logger   *slog.Logger
}

type Option func(*options)

// WithClock sets the clock used for timestamps and the interview date
// stamped on confirmed analyses.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) transition(ctx context.Context, kind Kind, id string, from, to State) {
	if from == to {
		return
	}
	o.logger.DebugContext(ctx, "workflow transition",
		slog.String("workflow", string(kind)),
		slog.String("id", id),
		slog.String("from", string(from)),
		slog.String("to", string(to)))
	if o.observer != nil {
		o.observer.OnTransition(ctx, kind, from, to)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
