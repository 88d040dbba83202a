package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/typical/pkg/summary"
)

const (
	defaultChartTitle = "Typical points"
	minSymbolSize     = 8
	maxSymbolSize     = 48
)

// renderHTML draws the typical points as a scatter over the first two
// dimensions, sized by relative weight. One-dimensional summaries use
// the point index as the second axis. The mean is drawn as its own series.
func renderHTML(w io.Writer, s *summary.SampleSummary, opts Options) error {
	err := newScatter(s, opts).Render(w)
	if err != nil {
		return fmt.Errorf("render html: %w", err)
	}

	return nil
}

func newScatter(s *summary.SampleSummary, o Options) *charts.Scatter {
	title := o.Title
	if title == "" {
		title = defaultChartTitle
	}

	xName, yName := axisNames(s.Dimensions())

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "600px", PageTitle: title}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: headline(s, o),
			Left:     "center",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: xName, Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName, Type: "value"}),
	)

	typical := make([]opts.ScatterData, len(s.SummaryPoints))
	for i, point := range s.SummaryPoints {
		x, y := project(point, i)
		typical[i] = opts.ScatterData{
			Name:       fmt.Sprintf("#%d", i+1),
			Value:      []any{x, y, s.RelativeWeight[i]},
			SymbolSize: symbolSize(s.RelativeWeight[i]),
		}
	}

	scatter.AddSeries("typical", typical)

	if s.Dimensions() > 0 {
		x, y := project(s.Mean, 0)
		scatter.AddSeries("mean", []opts.ScatterData{{
			Name:       "mean",
			Value:      []any{x, y},
			Symbol:     "diamond",
			SymbolSize: minSymbolSize,
		}})
	}

	return scatter
}

func axisNames(dimensions int) (string, string) {
	if dimensions < 2 {
		return "dim 0", "index"
	}

	return "dim 0", "dim 1"
}

func project(point []float32, index int) (float32, float32) {
	switch len(point) {
	case 0:
		return 0, float32(index)
	case 1:
		return point[0], float32(index)
	default:
		return point[0], point[1]
	}
}

func symbolSize(relativeWeight float32) int {
	size := minSymbolSize + int(float32(maxSymbolSize-minSymbolSize)*relativeWeight)

	return min(max(size, minSymbolSize), maxSymbolSize)
}
