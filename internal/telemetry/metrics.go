package telemetry

import (
	"context"

	"github.com/BerylCAtieno/clientlens/internal/profiler"
	"github.com/BerylCAtieno/clientlens/internal/workflow"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records model calls and workflow transitions. It satisfies both
// profiler.Observer and workflow.Observer.
type Metrics struct {
	calls          metric.Int64Counter
	callDuration   metric.Float64Histogram
	callAttempts   metric.Int64Histogram
	transitions    metric.Int64Counter
	personaUpdates metric.Int64Counter
}

func NewMetrics(m metric.Meter) (*Metrics, error) {
	var (
		out Metrics
		err error
	)
	out.calls, err = m.Int64Counter("clientlens_model_calls_total",
		metric.WithDescription("Model calls by task and outcome"))
	if err != nil {
		return nil, err
	}
	out.callDuration, err = m.Float64Histogram("clientlens_model_call_duration_seconds",
		metric.WithDescription("Model call latency including retries"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	out.callAttempts, err = m.Int64Histogram("clientlens_model_call_attempts",
		metric.WithDescription("Attempts made per model call"))
	if err != nil {
		return nil, err
	}
	out.transitions, err = m.Int64Counter("clientlens_workflow_transitions_total",
		metric.WithDescription("Workflow state transitions"))
	if err != nil {
		return nil, err
	}
	out.personaUpdates, err = m.Int64Counter("clientlens_persona_updates_total",
		metric.WithDescription("Confirmed persona updates written to the store"))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *Metrics) OnCallComplete(ctx context.Context, e profiler.CallEvent) {
	status := "ok"
	if !e.Success {
		status = "error"
	}
	attrs := metric.WithAttributes(
		AttrTask.String(string(e.Task)),
		AttrModel.String(e.Model),
		AttrStatus.String(status),
		AttrErrorCode.String(e.ErrorCode),
	)
	m.calls.Add(ctx, 1, attrs)
	m.callDuration.Record(ctx, e.Latency.Seconds(), attrs)
	m.callAttempts.Record(ctx, int64(e.Attempts), metric.WithAttributes(AttrTask.String(string(e.Task))))
}

func (m *Metrics) OnTransition(ctx context.Context, kind workflow.Kind, from, to workflow.State) {
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		AttrWorkflow.String(string(kind)),
		AttrState.String(string(to)),
	))
	if to == workflow.StateApplied {
		m.personaUpdates.Add(ctx, 1)
	}
}
