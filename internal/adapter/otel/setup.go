// Package otel provides OpenTelemetry metric and span instrumentation for
// MediaScout.
package otel

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// exportInterval is how often the periodic reader pushes accumulated
// metrics to the collector.
const exportInterval = 15 * time.Second

// ShutdownFunc flushes pending telemetry and shuts the provider down.
type ShutdownFunc func(ctx context.Context) error

// InitMeter wires an OTLP gRPC metric exporter to the given collector
// endpoint, installs it as the global meter provider, and returns a
// shutdown function. Instruments created by NewMetrics record into this
// provider once it is installed; until then they are no-ops.
func InitMeter(ctx context.Context, serviceName, endpoint string) (ShutdownFunc, error) {
	exporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", serviceName),
	)

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(exportInterval))),
	)
	otel.SetMeterProvider(provider)

	return provider.Shutdown, nil
}
