package telemetry

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BerylCAtieno/clientlens/internal/profiler"
	"github.com/BerylCAtieno/clientlens/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum, got %T", data)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetrics_RecordsCallsAndTransitions(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { provider.Shutdown(ctx) })

	m, err := NewMetrics(provider.Meter("test"))
	require.NoError(t, err)

	m.OnCallComplete(ctx, profiler.CallEvent{Task: profiler.TaskPreparation, Model: "m", Latency: time.Second, Attempts: 1, Success: true})
	m.OnCallComplete(ctx, profiler.CallEvent{Task: profiler.TaskAnalysis, Model: "m", Attempts: 2, ErrorCode: "TIMEOUT"})
	m.OnTransition(ctx, workflow.KindAnalysis, workflow.StateResult, workflow.StateApplied)
	m.OnTransition(ctx, workflow.KindAnalysis, workflow.StateApplied, workflow.StateEditing)

	data := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, data["clientlens_model_calls_total"]))
	assert.Equal(t, int64(2), sumOf(t, data["clientlens_workflow_transitions_total"]))
	assert.Equal(t, int64(1), sumOf(t, data["clientlens_persona_updates_total"]))

	hist, ok := data["clientlens_model_call_duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.NotEmpty(t, hist.DataPoints)
}

func TestInitMeterProvider_ServesMetrics(t *testing.T) {
	ctx := context.Background()
	handler, provider, err := InitMeterProvider(ctx, "clientlens-test")
	require.NoError(t, err)
	t.Cleanup(func() { provider.Shutdown(ctx) })

	m, err := NewMetrics(Meter())
	require.NoError(t, err)
	m.OnCallComplete(ctx, profiler.CallEvent{Task: profiler.TaskPreparation, Model: "m", Attempts: 1, Success: true})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "clientlens_model_calls_total")
}
