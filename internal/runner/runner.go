// Package runner executes one summarization request end to end: it picks
// the entry point, traces the call and records summary metrics.
package runner

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/typical/internal/observability"
	"github.com/Sumatoshi-tech/typical/internal/pointio"
	"github.com/Sumatoshi-tech/typical/pkg/sample"
	"github.com/Sumatoshi-tech/typical/pkg/summary"
)

const spanName = "typical.summarize"

// ErrNoBatch is returned when a request carries no points.
var ErrNoBatch = errors.New("request has no batch")

// Request describes one summarization.
type Request struct {
	Batch *pointio.Batch

	// Distance names a metric from sample.DistanceNames. Empty means L2.
	Distance string

	MaxNumber int

	// Representatives above one selects the multi-representative clusterer
	// over borrowed views of the batch.
	Representatives int
	Shrinkage       float32
	Parallel        bool
}

// Result is a finished summarization.
type Result struct {
	Summary  *summary.SampleSummary
	Entry    string
	Duration time.Duration
}

// Deps holds optional collaborators. Nil fields fall back to defaults.
type Deps struct {
	Summarizer *summary.Summarizer
	Metrics    *observability.SummaryMetrics
	Tracer     trace.Tracer
	Logger     *slog.Logger
}

// Runner is safe for concurrent use.
type Runner struct {
	summarizer *summary.Summarizer
	metrics    *observability.SummaryMetrics
	tracer     trace.Tracer
	logger     *slog.Logger
}

// New creates a Runner.
func New(deps Deps) *Runner {
	r := &Runner{
		summarizer: deps.Summarizer,
		metrics:    deps.Metrics,
		tracer:     deps.Tracer,
		logger:     deps.Logger,
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}

	if r.summarizer == nil {
		r.summarizer = summary.NewSummarizer(nil, r.logger)
	}

	if r.tracer == nil {
		r.tracer = noop.NewTracerProvider().Tracer("typical")
	}

	return r
}

// Run summarizes req.Batch.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Batch == nil {
		return nil, ErrNoBatch
	}

	entry := observability.EntrySummarize
	if req.Representatives > 1 {
		entry = observability.EntryMultiSummarizeRef
	}

	ctx, span := r.tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.String("typical.entry", entry),
		attribute.Int("typical.points", req.Batch.Len()),
		attribute.Int("typical.dimensions", req.Batch.Dimensions),
		attribute.Int("typical.max_number", req.MaxNumber),
		attribute.String("typical.distance", req.Distance),
	))
	defer span.End()

	start := time.Now()

	result, err := r.run(req, entry)

	stats := observability.SummaryStats{Entry: entry, Err: err, Points: req.Batch.Len()}
	if err == nil {
		stats.Centers = len(result.Summary.SummaryPoints)
		result.Duration = time.Since(start)
	}

	r.metrics.RecordSummary(ctx, stats)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.WarnContext(ctx, "summarize failed", "entry", entry, "points", req.Batch.Len(), "error", err)

		return nil, err
	}

	span.SetAttributes(attribute.Int("typical.centers", stats.Centers))
	r.logger.DebugContext(ctx, "summarize done",
		"entry", entry, "points", req.Batch.Len(), "centers", stats.Centers, "duration", result.Duration)

	return result, nil
}

func (r *Runner) run(req Request, entry string) (*Result, error) {
	distance, err := sample.DistanceByName(cmp.Or(req.Distance, sample.DistanceL2))
	if err != nil {
		return nil, err
	}

	var s *summary.SampleSummary

	if entry == observability.EntryMultiSummarizeRef {
		views, viewErr := req.Batch.Views()
		if viewErr != nil {
			return nil, fmt.Errorf("view batch: %w", viewErr)
		}

		s, err = r.summarizer.MultiSummarizeRef(views, distance, req.Representatives, req.Shrinkage, req.MaxNumber, req.Parallel)
	} else {
		s, err = r.summarizer.Summarize(req.Batch.Vectors(), distance, req.MaxNumber, req.Parallel)
	}

	if err != nil {
		return nil, fmt.Errorf("%s: %w", entry, err)
	}

	return &Result{Summary: s, Entry: entry}, nil
}
