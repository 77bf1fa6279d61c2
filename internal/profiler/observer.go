package profiler

import (
	"context"
	"log/slog"
	"time"
)

// CallEvent records one Service call, including all of its attempts.
type CallEvent struct {
	Task      Task
	Model     string
	Latency   time.Duration
	Attempts  int
	Success   bool
	ErrorCode string
}

// Observer receives call events for logging and metrics.
type Observer interface {
	OnCallComplete(ctx context.Context, event CallEvent)
}

// NoopObserver discards all events.
type NoopObserver struct{}

func (NoopObserver) OnCallComplete(context.Context, CallEvent) {}

// LogObserver writes call events to a slog.Logger.
type LogObserver struct {
	logger *slog.Logger
}

func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{logger: logger}
}

func (o *LogObserver) OnCallComplete(ctx context.Context, event CallEvent) {
	attrs := []any{
		slog.String("task", string(event.Task)),
		slog.String("model", event.Model),
		slog.Int64("latency_ms", event.Latency.Milliseconds()),
		slog.Int("attempts", event.Attempts),
	}
	if event.Success {
		o.logger.InfoContext(ctx, "model call completed", attrs...)
		return
	}
	attrs = append(attrs, slog.String("error_code", event.ErrorCode))
	o.logger.WarnContext(ctx, "model call failed", attrs...)
}

// MultiObserver fans an event out to several observers.
type MultiObserver []Observer

func (m MultiObserver) OnCallComplete(ctx context.Context, event CallEvent) {
	for _, o := range m {
		if o != nil {
			o.OnCallComplete(ctx, event)
		}
	}
}
