package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "mediascout"

// StartRunSpan starts a span for one recommendation run.
func StartRunSpan(ctx context.Context, runID, mediaType string, fastPath bool) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "run",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("media.type", mediaType),
			attribute.Bool("run.fast_path", fastPath),
		),
	)
}

// StartTaskSpan starts a span for one pipeline task. Run identity comes from
// the parent span, so the task span only carries the task name.
func StartTaskSpan(ctx context.Context, task string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "task",
		trace.WithAttributes(
			attribute.String("task.name", task),
		),
	)
}

// StartToolCallSpan starts a span for a content tool call within a task.
func StartToolCallSpan(ctx context.Context, callID, tool string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "toolcall",
		trace.WithAttributes(
			attribute.String("toolcall.id", callID),
			attribute.String("toolcall.tool", tool),
		),
	)
}
