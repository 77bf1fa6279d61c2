// Package telemetry exposes OpenTelemetry metrics through a Prometheus
// /metrics handler and records model calls and workflow activity.
package telemetry

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelglobal "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const meterName = "github.com/BerylCAtieno/clientlens"

// InitMeterProvider installs a global MeterProvider backed by a Prometheus
// exporter and returns the handler serving /metrics. The provider must be
// shut down by the caller.
func InitMeterProvider(ctx context.Context, serviceName string) (http.Handler, *sdkmetric.MeterProvider, error) {
	if serviceName == "" {
		serviceName = "clientlens"
	}
	reg := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, nil, err
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	otelglobal.SetMeterProvider(provider)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true}), provider, nil
}

// Meter returns the global clientlens meter.
func Meter() metric.Meter {
	return otelglobal.Meter(meterName)
}

// Attribute keys used on every instrument.
var (
	AttrTask      = attribute.Key("task")
	AttrModel     = attribute.Key("model")
	AttrStatus    = attribute.Key("status")
	AttrWorkflow  = attribute.Key("workflow")
	AttrState     = attribute.Key("state")
	AttrErrorCode = attribute.Key("error_code")
)
