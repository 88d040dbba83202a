package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/typical/internal/config"
	"github.com/Sumatoshi-tech/typical/internal/mcp"
	"github.com/Sumatoshi-tech/typical/internal/observability"
	"github.com/Sumatoshi-tech/typical/internal/pointio"
	"github.com/Sumatoshi-tech/typical/pkg/summary"
)

type renderedDoc struct {
	Points  int                   `json:"points"  yaml:"points"`
	Summary summary.SampleSummary `json:"summary" yaml:"summary"`
}

// execute runs the summarize command under a root carrying --config.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := &cobra.Command{Use: "typical", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().String(ConfigFlag, "", "")
	root.AddCommand(NewSummarizeCommand())

	var stdout, stderr bytes.Buffer

	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())

	return stdout.String(), err
}

// fixture writes a quiet config file and a two-blob JSON batch.
func fixture(t *testing.T) (configPath, batchPath string) {
	t.Helper()

	dir := t.TempDir()

	configPath = filepath.Join(dir, "typical.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("logging:\n  level: error\n"), 0o600))

	var sb strings.Builder

	sb.WriteString(`{"points": [`)

	for i := range 30 {
		if i > 0 {
			sb.WriteString(",")
		}

		jitter := float64(i%3) * 0.1
		fmt.Fprintf(&sb, `{"values": [%g, %g]}, {"values": [%g, %g], "weight": 2}`, jitter, jitter, 8+jitter, 8-jitter)
	}

	sb.WriteString(`]}`)

	batchPath = filepath.Join(dir, "batch.json")
	require.NoError(t, os.WriteFile(batchPath, []byte(sb.String()), 0o600))

	return configPath, batchPath
}

func TestSummarize_JSON(t *testing.T) {
	t.Parallel()

	cfgPath, batchPath := fixture(t)

	out, err := execute(t, "summarize", batchPath, "--config", cfgPath, "--format", "json", "-n", "2")
	require.NoError(t, err)

	var doc renderedDoc

	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 60, doc.Points)
	assert.InDelta(t, 90.0, float64(doc.Summary.TotalWeight), 1e-6)
	require.Len(t, doc.Summary.SummaryPoints, 2)
	assert.Greater(t, doc.Summary.RelativeWeight[0], doc.Summary.RelativeWeight[1], "heaviest blob first")
	assert.Greater(t, doc.Summary.SummaryPoints[0][0], float32(7))
}

func TestSummarize_TableIsDefault(t *testing.T) {
	t.Parallel()

	cfgPath, batchPath := fixture(t)

	out, err := execute(t, "summarize", batchPath, "--config", cfgPath, "--no-color")
	require.NoError(t, err)

	assert.Contains(t, out, "batch.json")
	assert.Contains(t, out, "60 points")
	assert.Contains(t, out, "Typical points")
}

func TestSummarize_MultiRepresentativeToFile(t *testing.T) {
	t.Parallel()

	cfgPath, batchPath := fixture(t)
	target := filepath.Join(t.TempDir(), "report.yaml")

	out, err := execute(t, "summarize", batchPath, "--config", cfgPath,
		"--format", "yaml", "--output", target, "-r", "3", "--shrinkage", "0.2", "--distance", "l1", "--parallel")
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(target)
	require.NoError(t, err)

	var doc renderedDoc

	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.NotEmpty(t, doc.Summary.SummaryPoints)
}

func TestSummarize_StatisticsOnly(t *testing.T) {
	t.Parallel()

	cfgPath, batchPath := fixture(t)

	out, err := execute(t, "summarize", batchPath, "--config", cfgPath, "--format", "json", "--max-number", "0")
	require.NoError(t, err)

	var doc renderedDoc

	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Empty(t, doc.Summary.SummaryPoints)
	assert.Len(t, doc.Summary.Mean, 2)
}

func TestSummarize_Errors(t *testing.T) {
	t.Parallel()

	cfgPath, batchPath := fixture(t)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{name: "shrinkage", args: []string{"--shrinkage", "2"}, want: config.ErrInvalidShrinkage},
		{name: "distance", args: []string{"--distance", "cosine"}, want: config.ErrInvalidDistance},
		{name: "format", args: []string{"--format", "xml"}, want: config.ErrInvalidOutputFormat},
		{name: "max_points", args: []string{"--max-points", "10"}, want: pointio.ErrTooManyPoints},
		{name: "max_number", args: []string{"--max-number", "-1"}, want: config.ErrInvalidMaxNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			args := append([]string{"summarize", batchPath, "--config", cfgPath}, tt.args...)

			_, err := execute(t, args...)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSummarize_MissingInput(t *testing.T) {
	t.Parallel()

	cfgPath, _ := fixture(t)

	_, err := execute(t, "summarize", filepath.Join(t.TempDir(), "none.json"), "--config", cfgPath)
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = execute(t, "summarize", "--config", cfgPath)
	require.Error(t, err, "file argument is required")
}

func TestNewMCPServer(t *testing.T) {
	t.Parallel()

	providers := observability.Providers{
		Tracer: nooptrace.NewTracerProvider().Tracer("test"),
		Meter:  noop.NewMeterProvider().Meter("test"),
	}

	srv, err := newMCPServer(providers, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{mcp.ToolNameSummarize}, srv.ListToolNames())
}
