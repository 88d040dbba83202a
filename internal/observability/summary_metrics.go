package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricSummariesTotal = "typical.summaries.total"
	metricSummaryPoints  = "typical.summary.points"
	metricSummaryCenters = "typical.summary.centers"

	attrEntry = "entry"
)

// Entry points labelled on summary metrics.
const (
	EntrySummarize         = "summarize"
	EntryMultiSummarizeRef = "multi_summarize_ref"
)

var (
	pointBucketBoundaries  = []float64{1, 10, 100, 1000, 10000, 100000, 1000000}
	centerBucketBoundaries = []float64{0, 1, 2, 5, 10, 20, 50, 100}
)

// SummaryMetrics holds OTel instruments for summarization runs.
type SummaryMetrics struct {
	summariesTotal metric.Int64Counter
	points         metric.Int64Histogram
	centers        metric.Int64Histogram
}

// SummaryStats describes one finished summarization call.
type SummaryStats struct {
	Entry   string
	Err     error
	Points  int
	Centers int
}

// NewSummaryMetrics creates summary metric instruments from the given meter.
func NewSummaryMetrics(mt metric.Meter) (*SummaryMetrics, error) {
	b := newMetricBuilder(mt)

	sm := &SummaryMetrics{
		summariesTotal: b.counter(metricSummariesTotal, "Total summarization calls", "{summary}"),
		points:         b.countHistogram(metricSummaryPoints, "Points per summarized batch", "{point}", pointBucketBoundaries...),
		centers:        b.countHistogram(metricSummaryCenters, "Typical points per summary", "{center}", centerBucketBoundaries...),
	}

	if b.err != nil {
		return nil, b.err
	}

	return sm, nil
}

// RecordSummary records one summarization call. Size histograms are only
// recorded for successful calls. Safe to call on a nil receiver (no-op).
func (sm *SummaryMetrics) RecordSummary(ctx context.Context, stats SummaryStats) {
	if sm == nil {
		return
	}

	entry := attribute.String(attrEntry, stats.Entry)

	sm.summariesTotal.Add(ctx, 1, metric.WithAttributes(entry, attribute.String(attrStatus, Status(stats.Err))))

	if stats.Err != nil {
		return
	}

	sm.points.Record(ctx, int64(stats.Points), metric.WithAttributes(entry))
	sm.centers.Record(ctx, int64(stats.Centers), metric.WithAttributes(entry))
}
