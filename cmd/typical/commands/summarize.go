package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/typical/internal/config"
	"github.com/Sumatoshi-tech/typical/internal/observability"
	"github.com/Sumatoshi-tech/typical/internal/pointio"
	"github.com/Sumatoshi-tech/typical/internal/report"
	"github.com/Sumatoshi-tech/typical/internal/runner"
	"github.com/Sumatoshi-tech/typical/pkg/sample"
)

// SummarizeCommand holds the flags of the summarize command. Flags override
// the config file only when set on the command line.
type SummarizeCommand struct {
	maxNumber       int
	distance        string
	representatives int
	shrinkage       float64
	parallel        bool

	inputFormat  string
	maxPoints    string
	noValidation bool

	format  string
	output  string
	noColor bool
}

// NewSummarizeCommand creates the summarize command.
func NewSummarizeCommand() *cobra.Command {
	sc := &SummarizeCommand{}

	cmd := &cobra.Command{
		Use:   "summarize <file>",
		Short: "Summarize a batch of weighted points",
		Long: `Summarize a batch of weighted points read from a JSON, YAML or CSV file
(optionally LZ4 compressed, "-" for stdin).

The summary holds the weighted mean, deviation, 10th percentile, median and
90th percentile of every dimension, plus up to --max-number typical points
found by clustering, heaviest first.`,
		Args: cobra.ExactArgs(1),
		RunE: sc.run,
	}

	cmd.Flags().IntVarP(&sc.maxNumber, "max-number", "n", config.DefaultMaxNumber,
		"Maximum number of typical points (0 = statistics only)")
	cmd.Flags().StringVarP(&sc.distance, "distance", "d", config.DefaultDistance,
		"Distance between points: "+strings.Join(sample.DistanceNames(), ", "))
	cmd.Flags().IntVarP(&sc.representatives, "representatives", "r", config.DefaultRepresentatives,
		"Representatives per cluster (>1 uses multi-representative clustering)")
	cmd.Flags().Float64Var(&sc.shrinkage, "shrinkage", config.DefaultShrinkage,
		"Pull of representatives toward their centroid, in [0, 1]")
	cmd.Flags().BoolVar(&sc.parallel, "parallel", false, "Assign points to clusters in parallel")

	cmd.Flags().StringVar(&sc.inputFormat, "input-format", config.DefaultInputFormat,
		"Input format: "+strings.Join(config.InputFormats, ", "))
	cmd.Flags().StringVar(&sc.maxPoints, "max-points", "", "Reject batches with more points (e.g. '10k', '2M'; empty = no limit)")
	cmd.Flags().BoolVar(&sc.noValidation, "no-validation", false, "Skip JSON schema validation of the input")

	cmd.Flags().StringVarP(&sc.format, "format", "f", config.DefaultOutputFormat,
		"Output format: "+strings.Join(config.OutputFormats, ", "))
	cmd.Flags().StringVarP(&sc.output, "output", "o", "", "Write the report to this file instead of stdout")
	cmd.Flags().BoolVar(&sc.noColor, "no-color", false, "Disable colored table output")

	return cmd
}

func (sc *SummarizeCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	sc.override(cmd, cfg)

	err = cfg.Validate()
	if err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	providers, err := initObservability(cfg, observability.ModeCLI, false)
	if err != nil {
		return err
	}

	defer func() {
		shutdownErr := providers.Shutdown(context.Background())
		if shutdownErr != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	summaryMetrics, err := observability.NewSummaryMetrics(providers.Meter)
	if err != nil {
		return err
	}

	limit, err := cfg.Input.Limit()
	if err != nil {
		return err
	}

	path := args[0]

	batch, err := pointio.Load(path, pointio.Options{
		Format:           cfg.Input.Format,
		SchemaValidation: cfg.Input.SchemaValidation,
		MaxPoints:        limit,
	})
	if err != nil {
		return err
	}

	providers.Logger.Debug("batch loaded", "path", path, "points", batch.Len(), "dimensions", batch.Dimensions)

	run := runner.New(runner.Deps{Metrics: summaryMetrics, Tracer: providers.Tracer, Logger: providers.Logger})

	result, err := run.Run(cmd.Context(), runner.Request{
		Batch:           batch,
		Distance:        cfg.Summary.Distance,
		MaxNumber:       cfg.Summary.MaxNumber,
		Representatives: cfg.Summary.Representatives,
		Shrinkage:       float32(cfg.Summary.Shrinkage),
		Parallel:        cfg.Summary.Parallel,
	})
	if err != nil {
		return err
	}

	return sc.write(cmd.OutOrStdout(), cfg, path, batch.Len(), result)
}

// override copies explicitly set flags over the loaded configuration.
func (sc *SummarizeCommand) override(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("max-number") {
		cfg.Summary.MaxNumber = sc.maxNumber
	}

	if flags.Changed("distance") {
		cfg.Summary.Distance = sc.distance
	}

	if flags.Changed("representatives") {
		cfg.Summary.Representatives = sc.representatives
	}

	if flags.Changed("shrinkage") {
		cfg.Summary.Shrinkage = sc.shrinkage
	}

	if flags.Changed("parallel") {
		cfg.Summary.Parallel = sc.parallel
	}

	if flags.Changed("input-format") {
		cfg.Input.Format = sc.inputFormat
	}

	if flags.Changed("max-points") {
		cfg.Input.MaxPoints = sc.maxPoints
	}

	if sc.noValidation {
		cfg.Input.SchemaValidation = false
	}

	if flags.Changed("format") {
		cfg.Output.Format = sc.format
	}

	if sc.noColor || sc.output != "" {
		cfg.Output.Color = false
	}
}

func (sc *SummarizeCommand) write(stdout io.Writer, cfg *config.Config, path string, points int, result *runner.Result) (err error) {
	out := stdout

	if sc.output != "" {
		file, createErr := os.Create(sc.output)
		if createErr != nil {
			return fmt.Errorf("create %s: %w", sc.output, createErr)
		}

		defer func() {
			err = errors.Join(err, file.Close())
		}()

		out = file
	}

	title := "stdin"
	if path != pointio.StdinPath {
		title = filepath.Base(path)
	}

	return report.Render(out, cfg.Output.Format, result.Summary, report.Options{
		Title:  title,
		Points: points,
		Color:  cfg.Output.Color && !color.NoColor,
	})
}
