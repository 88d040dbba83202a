package runner_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/typical/internal/observability"
	"github.com/Sumatoshi-tech/typical/internal/pointio"
	"github.com/Sumatoshi-tech/typical/internal/runner"
	"github.com/Sumatoshi-tech/typical/pkg/sample"
	"github.com/Sumatoshi-tech/typical/pkg/summary"
)

func newTestProvider(t *testing.T) (*tracetest.InMemoryExporter, trace.Tracer) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	return exporter, tp.Tracer("typical")
}

// twoBlobs returns 20 points around (0,0) and 20 around (10,10).
func twoBlobs(t *testing.T) *pointio.Batch {
	t.Helper()

	rows := make([][]float32, 0, 40)

	for i := range 20 {
		jitter := float32(i%5) * 0.1
		rows = append(rows, []float32{jitter, -jitter}, []float32{10 + jitter, 10 - jitter})
	}

	batch, err := pointio.FromRows(rows, nil, 0)
	require.NoError(t, err)

	return batch
}

func TestRun_SingleRepresentative(t *testing.T) {
	t.Parallel()

	exporter, tracer := newTestProvider(t)

	r := runner.New(runner.Deps{Tracer: tracer})

	result, err := r.Run(context.Background(), runner.Request{Batch: twoBlobs(t), MaxNumber: 2})
	require.NoError(t, err)

	assert.Equal(t, observability.EntrySummarize, result.Entry)
	assert.Len(t, result.Summary.SummaryPoints, 2)
	assert.InDelta(t, 40.0, float64(result.Summary.TotalWeight), 1e-6)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "typical.summarize", spans[0].Name)
	assert.Equal(t, codes.Unset, spans[0].Status.Code)
}

func TestRun_MultiRepresentativeUsesViews(t *testing.T) {
	t.Parallel()

	r := runner.New(runner.Deps{})

	result, err := r.Run(context.Background(), runner.Request{
		Batch:           twoBlobs(t),
		Distance:        sample.DistanceL1,
		MaxNumber:       2,
		Representatives: 3,
		Shrinkage:       0.5,
		Parallel:        true,
	})
	require.NoError(t, err)

	assert.Equal(t, observability.EntryMultiSummarizeRef, result.Entry)
	assert.Len(t, result.Summary.SummaryPoints, 2)
}

func TestRun_ZeroMaxNumberSkipsClustering(t *testing.T) {
	t.Parallel()

	result, err := runner.New(runner.Deps{}).Run(context.Background(), runner.Request{Batch: twoBlobs(t)})
	require.NoError(t, err)
	assert.Empty(t, result.Summary.SummaryPoints)
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	exporter, tracer := newTestProvider(t)

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	sm, err := observability.NewSummaryMetrics(mp.Meter("test"))
	require.NoError(t, err)

	r := runner.New(runner.Deps{Tracer: tracer, Metrics: sm})

	_, err = r.Run(context.Background(), runner.Request{})
	require.ErrorIs(t, err, runner.ErrNoBatch)

	_, err = r.Run(context.Background(), runner.Request{Batch: twoBlobs(t), Distance: "cosine"})
	require.ErrorIs(t, err, sample.ErrUnknownDistance)

	_, err = r.Run(context.Background(), runner.Request{Batch: twoBlobs(t), MaxNumber: -1})
	require.ErrorIs(t, err, summary.ErrMaxNumber)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2, "requests without a batch are rejected before tracing")

	for _, span := range spans {
		assert.Equal(t, codes.Error, span.Status.Code)
	}

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.NotEmpty(t, rm.ScopeMetrics)

	found := false

	for _, m := range rm.ScopeMetrics[0].Metrics {
		if m.Name == "typical.summaries.total" {
			found = true
		}
	}

	assert.True(t, found)
}
