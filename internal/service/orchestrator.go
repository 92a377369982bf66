package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	msotel "github.com/Strob0t/MediaScout/internal/adapter/otel"
	"github.com/Strob0t/MediaScout/internal/adapter/ws"
	"github.com/Strob0t/MediaScout/internal/domain/pipeline"
	"github.com/Strob0t/MediaScout/internal/domain/recommendation"
	"github.com/Strob0t/MediaScout/internal/domain/request"
	"github.com/Strob0t/MediaScout/internal/port/broadcast"
)

// DefaultRunTimeout bounds one pipeline execution wall-clock. Deployments
// may lower it; the pipeline context is cancelled at the deadline so agent
// calls in flight stop instead of running on abandoned.
const DefaultRunTimeout = 600 * time.Second

// Run stage names, broadcast over the hub as run.stage events.
const (
	StageStarted   = "started"
	StageParsing   = "parsing"
	StageEnriching = "enriching"
	StageCompleted = "completed"
	StageFallback  = "fallback"
)

// OrchestratorService owns one recommendation run end to end: validation,
// fast-path classification, plan construction, bounded pipeline execution,
// parsing, and enrichment. Invalid input is the only error Run surfaces;
// every failure past validation degrades to the static fallback list.
type OrchestratorService struct {
	crew    *CrewService
	post    *PostProcessService
	hub     broadcast.Broadcaster
	metrics *msotel.Metrics
	timeout time.Duration

	mu     sync.Mutex
	active map[string]RunInfo // in-flight runs, cleared when Run returns
}

// RunInfo describes one in-flight recommendation run.
type RunInfo struct {
	RunID     string                   `json:"run_id"`
	MediaType recommendation.MediaType `json:"media_type"`
	FastPath  bool                     `json:"fast_path"`
	StartedAt time.Time                `json:"started_at"`
}

// NewOrchestratorService creates an OrchestratorService. The hub and metrics
// may be nil; timeout values <= 0 fall back to DefaultRunTimeout.
func NewOrchestratorService(
	crew *CrewService,
	post *PostProcessService,
	hub broadcast.Broadcaster,
	metrics *msotel.Metrics,
	timeout time.Duration,
) *OrchestratorService {
	if timeout <= 0 {
		timeout = DefaultRunTimeout
	}
	return &OrchestratorService{
		crew:    crew,
		post:    post,
		hub:     hub,
		metrics: metrics,
		timeout: timeout,
		active:  make(map[string]RunInfo),
	}
}

// Run executes one recommendation request. It validates, classifies the fast
// path, builds and executes the task plan under the run timeout, parses the
// pipeline output, and enriches the records. The returned error is non-nil
// only for invalid input; execution failures, timeouts, and unparseable
// output all resolve to the curated fallback list for the requested media
// kind, so callers past validation always get recommendations.
func (s *OrchestratorService) Run(ctx context.Context, req request.Request) ([]recommendation.Recommendation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	start := time.Now()

	// The classifier's verdict wins over the declared media type: a bare
	// "comedy movies" request gets the movie specialist even when the caller
	// pre-selected books. The matched genre only fills an empty genre field.
	media := req.MediaType
	genre := req.Genre
	match, fastPath := ClassifyFastPath(req.UserRequest)
	if fastPath {
		media = match.MediaType
		if strings.TrimSpace(genre) == "" {
			genre = match.Genre
		}
	}

	ctx, span := msotel.StartRunSpan(ctx, runID, string(media), fastPath)
	defer span.End()

	if s.metrics != nil {
		s.metrics.RunsStarted.Add(ctx, 1, metric.WithAttributes(
			attribute.String("media.type", string(media)),
			attribute.Bool("fast_path", fastPath),
		))
		if fastPath {
			s.metrics.FastPathHits.Add(ctx, 1, metric.WithAttributes(
				attribute.String("media.type", string(media)),
			))
		}
	}

	s.trackRun(RunInfo{RunID: runID, MediaType: media, FastPath: fastPath, StartedAt: start})
	defer s.untrackRun(runID)

	slog.Info("run started",
		"run_id", runID,
		"media_type", media,
		"fast_path", fastPath,
		"request", clip(req.UserRequest, 100),
	)

	plan, err := pipeline.Build(pipeline.RenderInput{
		UserRequest:     req.UserRequest,
		MediaType:       media,
		Genre:           genre,
		Mood:            req.Mood,
		Timeframe:       req.Timeframe,
		Count:           req.Count,
		Personalization: req.PersonalizationContext,
	}, fastPath)
	if err != nil {
		slog.Error("plan build failed", "run_id", runID, "error", err)
		return s.fallback(ctx, runID, req, start, "plan construction failed"), nil
	}

	detail := fmt.Sprintf("full pipeline, %d tasks", len(plan.Tasks))
	if plan.FastPath {
		detail = fmt.Sprintf("fast path, %d tasks", len(plan.Tasks))
	}
	s.broadcastStage(ctx, runID, StageStarted, detail)

	raw, err := s.execute(ctx, runID, plan)
	if err != nil {
		slog.Error("pipeline execution failed",
			"run_id", runID, "elapsed", time.Since(start), "error", err)
		return s.fallback(ctx, runID, req, start, "pipeline execution failed"), nil
	}

	s.broadcastStage(ctx, runID, StageParsing, "")
	recs := ParseRecommendations(raw)
	if len(recs) == 0 {
		slog.Warn("no recommendations parsed from pipeline output",
			"run_id", runID, "output_len", len(raw))
		return s.fallback(ctx, runID, req, start, "pipeline output had no recommendations"), nil
	}

	s.broadcastStage(ctx, runID, StageEnriching, fmt.Sprintf("%d records", len(recs)))
	recs = s.post.Process(ctx, recs)
	if len(recs) == 0 {
		slog.Warn("post-processing dropped every record", "run_id", runID)
		return s.fallback(ctx, runID, req, start, "no usable records after post-processing"), nil
	}

	elapsed := time.Since(start)
	if s.metrics != nil {
		attrs := metric.WithAttributes(attribute.String("media.type", string(media)))
		s.metrics.RunsCompleted.Add(ctx, 1, attrs)
		s.metrics.RunDuration.Record(ctx, elapsed.Seconds(), attrs)
	}
	s.broadcastStage(ctx, runID, StageCompleted, fmt.Sprintf("%d recommendations", len(recs)))
	slog.Info("run completed",
		"run_id", runID, "elapsed", elapsed, "recommendations", len(recs))
	return recs, nil
}

// execute runs the plan under the run timeout. The crew runs in its own
// goroutine with a context cancelled at the deadline, so a timeout both
// returns promptly and stops the in-flight agent call; the buffered channel
// lets the goroutine finish its send either way.
func (s *OrchestratorService) execute(ctx context.Context, runID string, plan *pipeline.Plan) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	progress := func(task, status string) {
		slog.Debug("pipeline task", "run_id", runID, "task", task, "status", status)
		if s.hub != nil {
			s.hub.BroadcastEvent(ctx, ws.EventTaskStatus, ws.TaskStatusEvent{
				RunID:  runID,
				Task:   task,
				Status: status,
			})
		}
	}

	type crewResult struct {
		output string
		err    error
	}
	done := make(chan crewResult, 1)
	go func() {
		out, err := s.crew.Execute(runCtx, plan, progress)
		done <- crewResult{output: out, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("execute plan: %w", r.err)
		}
		return r.output, nil
	case <-runCtx.Done():
		return "", fmt.Errorf("execute plan: %w", runCtx.Err())
	}
}

// fallback serves the curated list for the requested media kind and records
// the degradation. It never fails, so every path through Run that calls it
// still returns recommendations.
func (s *OrchestratorService) fallback(ctx context.Context, runID string, req request.Request, start time.Time, reason string) []recommendation.Recommendation {
	recs := FallbackRecommendations(req.MediaType, req.Count)

	trace.SpanFromContext(ctx).SetStatus(codes.Error, reason)
	if s.metrics != nil {
		attrs := metric.WithAttributes(attribute.String("media.type", string(req.MediaType)))
		s.metrics.RunsFallback.Add(ctx, 1, attrs)
		s.metrics.RunDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	}
	s.broadcastStage(ctx, runID, StageFallback, reason)
	slog.Warn("serving fallback recommendations",
		"run_id", runID, "media_type", req.MediaType, "reason", reason, "count", len(recs))
	return recs
}

func (s *OrchestratorService) broadcastStage(ctx context.Context, runID, stage, detail string) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastEvent(ctx, ws.EventRunStage, ws.RunStageEvent{
		RunID:  runID,
		Stage:  stage,
		Detail: detail,
	})
}

func (s *OrchestratorService) trackRun(info RunInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[info.RunID] = info
}

func (s *OrchestratorService) untrackRun(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, runID)
}

// ActiveRuns returns a snapshot of in-flight runs, oldest first.
func (s *OrchestratorService) ActiveRuns() []RunInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	infos := make([]RunInfo, 0, len(s.active))
	for _, info := range s.active {
		infos = append(infos, info)
	}
	slices.SortFunc(infos, func(a, b RunInfo) int {
		return a.StartedAt.Compare(b.StartedAt)
	})
	return infos
}

// clip shortens s for log lines.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
