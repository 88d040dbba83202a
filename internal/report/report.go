// Package report renders sample summaries for people and machines.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/typical/pkg/summary"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatHTML  = "html"
)

// ErrUnknownFormat is returned by Render for unsupported formats.
var ErrUnknownFormat = errors.New("unknown output format")

// defaultDigits is the precision of table cells when Options.Digits is zero.
const defaultDigits = 4

// Options tune rendering. Zero values give plain four-digit tables.
type Options struct {
	// Title heads the table and HTML outputs.
	Title string

	// Points is the number of input points, shown in the table header when positive.
	Points int

	// Color enables ANSI colors in the table output.
	Color bool

	// Digits bounds the fractional digits of table cells.
	Digits int
}

// Document is the JSON and YAML shape of a rendered summary.
type Document struct {
	Points  int                    `json:"points,omitempty" yaml:"points,omitempty"`
	Summary *summary.SampleSummary `json:"summary"          yaml:"summary"`
}

// Render writes s to w in the given format.
func Render(w io.Writer, format string, s *summary.SampleSummary, opts Options) error {
	if opts.Digits <= 0 {
		opts.Digits = defaultDigits
	}

	switch format {
	case FormatTable, "":
		return renderTable(w, s, opts)
	case FormatJSON:
		return renderJSON(w, s, opts)
	case FormatYAML:
		return renderYAML(w, s, opts)
	case FormatHTML:
		return renderHTML(w, s, opts)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func renderJSON(w io.Writer, s *summary.SampleSummary, opts Options) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(Document{Points: opts.Points, Summary: s})
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}

func renderYAML(w io.Writer, s *summary.SampleSummary, opts Options) error {
	enc := yaml.NewEncoder(w)

	err := enc.Encode(Document{Points: opts.Points, Summary: s})
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	err = enc.Close()
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	return nil
}
