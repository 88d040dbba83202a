package summary

import (
	"cmp"
	"math"
	"slices"

	"github.com/Sumatoshi-tech/typical/pkg/config"
	"github.com/Sumatoshi-tech/typical/pkg/sample"
)

// valueWeight is one coordinate of one point together with the point's weight.
type valueWeight struct {
	value  float32
	weight float32
}

// cursor walks a sorted sequence of value/weight pairs to find weighted order
// statistics. Targets must be fed in nondecreasing order: the position and
// the weight accumulated so far carry over from one target to the next.
type cursor struct {
	pairs   []valueWeight
	index   int
	running float64
}

// pick advances while the weight before the cursor plus the weight at the
// cursor stays below target, and returns the value at the final position.
// The cursor never moves past the last element, even when target is not reached.
func (c *cursor) pick(target float64) float32 {
	for c.index+1 < len(c.pairs) && float64(c.pairs[c.index].weight)+c.running < target {
		c.running += float64(c.pairs[c.index].weight)
		c.index++
	}

	return c.pairs[c.index].value
}

// FromPoints computes the statistics of a batch of owned vectors.
// lowerFraction must be below 0.5 and upperFraction above 0.5.
func FromPoints(dimensions int, points []sample.Weighted[sample.Vector], lowerFraction, upperFraction float64) (*SampleSummary, error) {
	return fromIndexed(dimensions, points, lowerFraction, upperFraction)
}

// FromViews computes the statistics of a batch of borrowed views.
// lowerFraction must be below 0.5 and upperFraction above 0.5.
func FromViews(dimensions int, points []sample.Weighted[sample.View], lowerFraction, upperFraction float64) (*SampleSummary, error) {
	return fromIndexed(dimensions, points, lowerFraction, upperFraction)
}

func validate[P sample.Indexed](dimensions int, points []sample.Weighted[P], lowerFraction, upperFraction float64) (float64, error) {
	checks := []error{
		check(len(points) > 0, ErrEmptyBatch, ""),
		check(lowerFraction < config.MedianFraction, ErrLowerFraction, "%v", lowerFraction),
		check(upperFraction > config.MedianFraction, ErrUpperFraction, "%v", upperFraction),
		check(dimensions > 0, ErrZeroDimensions, ""),
	}

	for _, err := range checks {
		if err != nil {
			return 0, err
		}
	}

	for i, p := range points {
		err := check(sample.IsFinite(p.Weight), ErrNonFiniteWeight, "point %d", i)
		if err != nil {
			return 0, err
		}

		err = check(p.Weight >= 0, ErrNegativeWeight, "point %d has weight %v", i, p.Weight)
		if err != nil {
			return 0, err
		}
	}

	totalWeight := sample.TotalWeight(points)

	err := check(totalWeight > 0 && totalWeight <= math.MaxFloat32, ErrTotalWeight, "%v", totalWeight)
	if err != nil {
		return 0, err
	}

	for i, p := range points {
		err = check(p.Point.Len() == dimensions, ErrDimensionMismatch,
			"point %d has %d values, want %d", i, p.Point.Len(), dimensions)
		if err != nil {
			return 0, err
		}

		for j := range dimensions {
			err = check(sample.IsFinite(p.Point.At(j)), ErrNonFiniteValue, "point %d, coordinate %d", i, j)
			if err != nil {
				return 0, err
			}
		}
	}

	return totalWeight, nil
}

// fromIndexed is shared by the owned and borrowed batch shapes.
func fromIndexed[P sample.Indexed](dimensions int, points []sample.Weighted[P], lowerFraction, upperFraction float64) (*SampleSummary, error) {
	totalWeight, err := validate(dimensions, points, lowerFraction, upperFraction)
	if err != nil {
		return nil, err
	}

	sumValues := make([]float64, dimensions)
	sumValuesSq := make([]float64, dimensions)

	for _, p := range points {
		weight := float64(p.Weight)

		for j := range dimensions {
			value := float64(p.Point.At(j))
			sumValues[j] += weight * value
			sumValuesSq[j] += weight * value * value
		}
	}

	mean := make([]float32, dimensions)
	deviation := make([]float32, dimensions)

	for j := range dimensions {
		m := sumValues[j] / totalWeight
		mean[j] = float32(m)
		// Cancellation can leave a tiny negative variance on constant dimensions.
		variance := max(sumValuesSq[j]/totalWeight-m*m, 0)
		deviation[j] = float32(math.Sqrt(variance))
	}

	lower := make([]float32, dimensions)
	median := make([]float32, dimensions)
	upper := make([]float32, dimensions)

	lowerTarget := totalWeight * lowerFraction
	medianTarget := totalWeight * config.MedianFraction
	upperTarget := totalWeight * upperFraction

	pairs := make([]valueWeight, len(points))

	for j := range dimensions {
		for i, p := range points {
			pairs[i] = valueWeight{value: p.Point.At(j), weight: p.Weight}
		}

		slices.SortFunc(pairs, func(a, b valueWeight) int {
			return cmp.Compare(a.value, b.value)
		})

		c := cursor{pairs: pairs}
		lower[j] = c.pick(lowerTarget)
		median[j] = c.pick(medianTarget)
		upper[j] = c.pick(upperTarget)
	}

	return NewSampleSummary(float32(totalWeight), mean, median, lower, upper, deviation), nil
}
