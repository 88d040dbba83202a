// Package config loads the run configuration of the typical CLI and MCP server.
package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/typical/pkg/sample"
)

// Config is the top-level configuration struct for typical.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Summary   SummaryConfig   `mapstructure:"summary"`
	Input     InputConfig     `mapstructure:"input"`
	Output    OutputConfig    `mapstructure:"output"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// SummaryConfig holds summarization knobs.
type SummaryConfig struct {
	MaxNumber       int     `mapstructure:"max_number"`
	Representatives int     `mapstructure:"representatives"`
	Shrinkage       float64 `mapstructure:"shrinkage"`
	Parallel        bool    `mapstructure:"parallel"`
	Distance        string  `mapstructure:"distance"`
}

// InputConfig holds point file loading settings.
type InputConfig struct {
	Format           string `mapstructure:"format"`
	SchemaValidation bool   `mapstructure:"schema_validation"`
	// MaxPoints caps the batch size; SI suffixes are accepted ("10k", "2M").
	// Empty means unlimited.
	MaxPoints string `mapstructure:"max_points"`
}

// OutputConfig holds rendering settings.
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

// LoggingConfig holds slog settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPInsecure   bool   `mapstructure:"otlp_insecure"`
	PrometheusAddr string `mapstructure:"prometheus_addr"`
}

// Accepted enumerations.
var (
	InputFormats  = []string{"auto", "json", "yaml", "csv"}
	OutputFormats = []string{"table", "json", "yaml", "html"}
	LogLevels     = []string{"debug", "info", "warn", "error"}
	LogFormats    = []string{"text", "json"}
)

// maxShrinkage is the upper bound for summary.shrinkage.
const maxShrinkage = 1.0

// Sentinel errors for configuration validation.
var (
	// ErrInvalidMaxNumber indicates a negative summary.max_number.
	ErrInvalidMaxNumber = errors.New("summary.max_number must be non-negative")
	// ErrInvalidRepresentatives indicates a non-positive representative count.
	ErrInvalidRepresentatives = errors.New("summary.representatives must be positive")
	// ErrInvalidShrinkage indicates shrinkage outside [0, 1].
	ErrInvalidShrinkage = errors.New("summary.shrinkage must be between 0 and 1")
	// ErrInvalidDistance indicates an unknown distance name.
	ErrInvalidDistance = errors.New("summary.distance is not a known distance")
	// ErrInvalidInputFormat indicates an unsupported input format.
	ErrInvalidInputFormat = errors.New("input.format is not supported")
	// ErrInvalidMaxPoints indicates an unparsable or negative input.max_points.
	ErrInvalidMaxPoints = errors.New("input.max_points must be a non-negative count")
	// ErrInvalidOutputFormat indicates an unsupported output format.
	ErrInvalidOutputFormat = errors.New("output.format is not supported")
	// ErrInvalidLogLevel indicates an unknown logging level.
	ErrInvalidLogLevel = errors.New("logging.level is not supported")
	// ErrInvalidLogFormat indicates an unknown logging format.
	ErrInvalidLogFormat = errors.New("logging.format is not supported")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	summaryErr := c.validateSummary()
	if summaryErr != nil {
		return summaryErr
	}

	ioErr := c.validateIO()
	if ioErr != nil {
		return ioErr
	}

	if !slices.Contains(LogLevels, c.Logging.Level) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	if !slices.Contains(LogFormats, c.Logging.Format) {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	return nil
}

func (c *Config) validateSummary() error {
	if c.Summary.MaxNumber < 0 {
		return ErrInvalidMaxNumber
	}

	if c.Summary.Representatives <= 0 {
		return ErrInvalidRepresentatives
	}

	if c.Summary.Shrinkage < 0 || c.Summary.Shrinkage > maxShrinkage {
		return ErrInvalidShrinkage
	}

	_, err := sample.DistanceByName(c.Summary.Distance)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDistance, c.Summary.Distance)
	}

	return nil
}

func (c *Config) validateIO() error {
	if !slices.Contains(InputFormats, c.Input.Format) {
		return fmt.Errorf("%w: %q", ErrInvalidInputFormat, c.Input.Format)
	}

	_, err := c.Input.Limit()
	if err != nil {
		return err
	}

	if !slices.Contains(OutputFormats, c.Output.Format) {
		return fmt.Errorf("%w: %q", ErrInvalidOutputFormat, c.Output.Format)
	}

	return nil
}

// Limit returns MaxPoints as a count, zero meaning unlimited.
func (ic InputConfig) Limit() (int, error) {
	if ic.MaxPoints == "" {
		return 0, nil
	}

	value, unit, err := humanize.ParseSI(ic.MaxPoints)
	if err != nil || unit != "" || value < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMaxPoints, ic.MaxPoints)
	}

	return int(value), nil
}
