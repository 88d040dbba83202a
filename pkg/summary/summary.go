// Package summary computes robust statistics and typical points for a batch
// of weighted vectors.
//
// The statistics (mean, deviation, weighted lower percentile, median and
// upper percentile per dimension) are computed directly. Typical points are
// obtained from a [Clusterer] and attached with normalized weights.
package summary

import (
	"slices"
)

// SampleSummary is the result of summarizing a batch. It is built once from
// the statistics and extended at most once with typical points; afterwards it
// is treated as immutable.
type SampleSummary struct {
	// SummaryPoints are the typical points, heaviest first.
	SummaryPoints [][]float32 `json:"summary_points" yaml:"summary_points"`

	// RelativeWeight holds the normalized weight of each typical point.
	RelativeWeight []float32 `json:"relative_weight" yaml:"relative_weight"`

	// TotalWeight is the sum of the input weights.
	TotalWeight float32 `json:"total_weight" yaml:"total_weight"`

	Mean   []float32 `json:"mean"   yaml:"mean"`
	Median []float32 `json:"median" yaml:"median"`

	// Upper and Lower are weighted percentiles taken per dimension.
	Upper []float32 `json:"upper" yaml:"upper"`
	Lower []float32 `json:"lower" yaml:"lower"`

	// Deviation is the weighted population standard deviation per dimension.
	Deviation []float32 `json:"deviation" yaml:"deviation"`

	typicalSet bool
}

// NewSampleSummary stores the statistics verbatim with no typical points.
func NewSampleSummary(totalWeight float32, mean, median, lower, upper, deviation []float32) *SampleSummary {
	return &SampleSummary{
		SummaryPoints:  [][]float32{},
		RelativeWeight: []float32{},
		TotalWeight:    totalWeight,
		Mean:           mean,
		Median:         median,
		Upper:          upper,
		Lower:          lower,
		Deviation:      deviation,
	}
}

// FromPoint summarizes a single weighted point: every statistic equals the
// point and the point itself is the only typical point.
func FromPoint(point []float32, weight float32) *SampleSummary {
	dims := len(point)

	s := NewSampleSummary(weight,
		slices.Clone(point), slices.Clone(point), slices.Clone(point), slices.Clone(point),
		make([]float32, dims))
	s.SummaryPoints = [][]float32{slices.Clone(point)}
	s.RelativeWeight = []float32{1}
	s.typicalSet = true

	return s
}

// Dimensions returns the length of the per-dimension statistics.
func (s *SampleSummary) Dimensions() int {
	return len(s.Mean)
}

// AddTypical attaches typical points and their relative weights as a pair.
// The vectors are copied. It may be called once per summary.
func (s *SampleSummary) AddTypical(points [][]float32, relativeWeight []float32) error {
	err := check(!s.typicalSet, ErrTypicalAlreadySet, "")
	if err != nil {
		return err
	}

	err = check(len(points) == len(relativeWeight), ErrTypicalLength,
		"%d points, %d weights", len(points), len(relativeWeight))
	if err != nil {
		return err
	}

	copied := make([][]float32, len(points))

	for i, p := range points {
		err = check(len(p) == s.Dimensions(), ErrTypicalDimension,
			"point %d has %d values, want %d", i, len(p), s.Dimensions())
		if err != nil {
			return err
		}

		copied[i] = slices.Clone(p)
	}

	s.SummaryPoints = copied
	s.RelativeWeight = append(make([]float32, 0, len(relativeWeight)), relativeWeight...)
	s.typicalSet = true

	return nil
}
