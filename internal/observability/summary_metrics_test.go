package observability_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/typical/internal/observability"
)

func TestSummaryMetrics_RecordSummary(t *testing.T) {
	t.Parallel()

	mp, reader := newTestReader(t)

	sm, err := observability.NewSummaryMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()

	sm.RecordSummary(ctx, observability.SummaryStats{Entry: observability.EntrySummarize, Points: 600, Centers: 2})
	sm.RecordSummary(ctx, observability.SummaryStats{Entry: observability.EntrySummarize, Points: 10, Centers: 1})
	sm.RecordSummary(ctx, observability.SummaryStats{Entry: observability.EntryMultiSummarizeRef, Err: errTestFailure, Points: 5})

	rm := collectMetrics(t, reader)

	total := findMetric(rm, "typical.summaries.total")
	require.NotNil(t, total)

	sum, ok := total.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	counts := map[string]int64{}

	for _, dp := range sum.DataPoints {
		entry, _ := dp.Attributes.Value(attribute.Key("entry"))
		status, _ := dp.Attributes.Value(attribute.Key("status"))
		counts[entry.AsString()+"/"+status.AsString()] = dp.Value
	}

	assert.Equal(t, map[string]int64{
		"summarize/ok":              2,
		"multi_summarize_ref/error": 1,
	}, counts)

	points := findMetric(rm, "typical.summary.points")
	require.NotNil(t, points)

	hist, ok := points.Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1, "failed calls are not sized")
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
	assert.Equal(t, int64(610), hist.DataPoints[0].Sum)

	require.NotNil(t, findMetric(rm, "typical.summary.centers"))
}

func TestSummaryMetrics_NilReceiver(t *testing.T) {
	t.Parallel()

	var sm *observability.SummaryMetrics

	assert.NotPanics(t, func() {
		sm.RecordSummary(context.Background(), observability.SummaryStats{Entry: observability.EntrySummarize})
	})
}
