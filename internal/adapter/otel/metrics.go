package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "mediascout"

// Metrics holds all MediaScout metric instruments.
type Metrics struct {
	RunsStarted   metric.Int64Counter
	RunsCompleted metric.Int64Counter
	RunsFallback  metric.Int64Counter
	FastPathHits  metric.Int64Counter
	ToolCalls     metric.Int64Counter
	RunDuration   metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.RunsStarted, err = meter.Int64Counter("mediascout.runs.started",
		metric.WithDescription("Number of recommendation runs started"))
	if err != nil {
		return nil, err
	}

	m.RunsCompleted, err = meter.Int64Counter("mediascout.runs.completed",
		metric.WithDescription("Number of recommendation runs completed with pipeline output"))
	if err != nil {
		return nil, err
	}

	m.RunsFallback, err = meter.Int64Counter("mediascout.runs.fallback",
		metric.WithDescription("Number of recommendation runs answered from the static fallback list"))
	if err != nil {
		return nil, err
	}

	m.FastPathHits, err = meter.Int64Counter("mediascout.fastpath.hits",
		metric.WithDescription("Number of requests classified onto the fast path"))
	if err != nil {
		return nil, err
	}

	m.ToolCalls, err = meter.Int64Counter("mediascout.toolcalls",
		metric.WithDescription("Number of content tool calls issued by agents"))
	if err != nil {
		return nil, err
	}

	m.RunDuration, err = meter.Float64Histogram("mediascout.run.duration_seconds",
		metric.WithDescription("Recommendation run duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
