package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/typical/pkg/summary"
)

const percent = 100

func renderTable(w io.Writer, s *summary.SampleSummary, opts Options) error {
	heading := color.New(color.FgCyan, color.Bold)
	muted := color.New(color.FgYellow)

	if !opts.Color {
		heading.DisableColor()
		muted.DisableColor()
	}

	if opts.Title != "" {
		heading.Fprintln(w, opts.Title)
	}

	muted.Fprintln(w, headline(s, opts))

	_, err := fmt.Fprintf(w, "%s\n\n", statsTable(s, opts.Digits))
	if err != nil {
		return fmt.Errorf("write table: %w", err)
	}

	if len(s.SummaryPoints) == 0 {
		muted.Fprintln(w, "no typical points")

		return nil
	}

	heading.Fprintln(w, "Typical points")

	_, err = fmt.Fprintf(w, "%s\n", typicalTable(s, opts.Digits))
	if err != nil {
		return fmt.Errorf("write table: %w", err)
	}

	return nil
}

func headline(s *summary.SampleSummary, opts Options) string {
	parts := make([]string, 0, 3)

	if opts.Points > 0 {
		parts = append(parts, humanize.Comma(int64(opts.Points))+" points")
	}

	parts = append(parts,
		fmt.Sprintf("%d dimensions", s.Dimensions()),
		"total weight "+humanize.CommafWithDigits(float64(s.TotalWeight), opts.Digits),
	)

	return strings.Join(parts, ", ")
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false

	return tbl
}

func statsTable(s *summary.SampleSummary, digits int) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"dim", "mean", "deviation", "lower", "median", "upper"})

	for d := range s.Dimensions() {
		tbl.AppendRow(table.Row{
			d,
			cell(s.Mean[d], digits),
			cell(s.Deviation[d], digits),
			cell(s.Lower[d], digits),
			cell(s.Median[d], digits),
			cell(s.Upper[d], digits),
		})
	}

	return tbl.Render()
}

func typicalTable(s *summary.SampleSummary, digits int) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"#", "weight", "point"})

	for i, point := range s.SummaryPoints {
		coords := make([]string, len(point))
		for d, v := range point {
			coords[d] = cell(v, digits)
		}

		share := humanize.FtoaWithDigits(float64(s.RelativeWeight[i])*percent, 2) + "%"

		tbl.AppendRow(table.Row{i + 1, share, "(" + strings.Join(coords, ", ") + ")"})
	}

	tbl.AppendFooter(table.Row{"", "", "Total: " + strconv.Itoa(len(s.SummaryPoints)) + " points"})

	return tbl.Render()
}

func cell(v float32, digits int) string {
	return humanize.FtoaWithDigits(float64(v), digits)
}
