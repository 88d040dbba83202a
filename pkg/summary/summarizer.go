package summary

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/Sumatoshi-tech/typical/pkg/cluster"
	"github.com/Sumatoshi-tech/typical/pkg/config"
	"github.com/Sumatoshi-tech/typical/pkg/sample"
)

// Clusterer groups weighted points into at most maxClusters weighted centers.
// The order of the returned centers carries no meaning.
type Clusterer interface {
	// Cluster returns centers with a single representative each.
	Cluster(
		points []sample.Weighted[sample.Vector],
		distance sample.Distance,
		maxClusters int,
		parallel bool,
	) ([]sample.Center, error)

	// MultiCluster returns centers with up to representatives vectors each;
	// shrinkage controls how far the representatives are pulled toward their centroid.
	MultiCluster(
		points []sample.Weighted[sample.Vector],
		distance sample.Distance,
		representatives int,
		shrinkage float32,
		maxClusters int,
		parallel bool,
	) ([]sample.Center, error)
}

// Summarizer computes statistics and, on request, typical points.
// A Summarizer holds no per-call state and may be shared between goroutines
// as long as its Clusterer may.
type Summarizer struct {
	clusterer Clusterer
	logger    *slog.Logger
}

// NewSummarizer creates a Summarizer. A nil clusterer selects the default
// [cluster.Clusterer]; a nil logger selects slog.Default().
func NewSummarizer(clusterer Clusterer, logger *slog.Logger) *Summarizer {
	if clusterer == nil {
		clusterer = cluster.New(cluster.Options{})
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Summarizer{clusterer: clusterer, logger: logger}
}

var defaultSummarizer = NewSummarizer(nil, nil)

// Summarize summarizes owned vectors with the default clusterer.
// See [Summarizer.Summarize].
func Summarize(
	points []sample.Weighted[sample.Vector],
	distance sample.Distance,
	maxNumber int,
	parallel bool,
) (*SampleSummary, error) {
	return defaultSummarizer.Summarize(points, distance, maxNumber, parallel)
}

// MultiSummarizeRef summarizes borrowed views with the default clusterer.
// See [Summarizer.MultiSummarizeRef].
func MultiSummarizeRef(
	points []sample.Weighted[sample.View],
	distance sample.Distance,
	representatives int,
	shrinkage float32,
	maxNumber int,
	parallel bool,
) (*SampleSummary, error) {
	return defaultSummarizer.MultiSummarizeRef(points, distance, representatives, shrinkage, maxNumber, parallel)
}

// MaxAllowed returns the number of clusters requested for a batch of the
// given dimension when the caller asks for at most maxNumber.
func MaxAllowed(dimensions, maxNumber int) int {
	return min(dimensions*config.MaxNumberPerDimension, maxNumber)
}

// Summarize computes the statistics of points and, when maxNumber > 0,
// attaches up to MaxAllowed(D, maxNumber) typical points found by
// single-centroid clustering. The dimension is taken from the first point.
func (s *Summarizer) Summarize(
	points []sample.Weighted[sample.Vector],
	distance sample.Distance,
	maxNumber int,
	parallel bool,
) (*SampleSummary, error) {
	dimensions := 0
	if len(points) > 0 {
		dimensions = points[0].Point.Len()
	}

	summary, err := FromPoints(dimensions, points, config.DefaultLowerFraction, config.DefaultUpperFraction)
	if err != nil {
		return nil, err
	}

	return s.attach(summary, len(points), maxNumber, func(maxAllowed int) ([]sample.Center, error) {
		return s.clusterer.Cluster(points, distance, maxAllowed, parallel)
	})
}

// MultiSummarizeRef is [Summarizer.Summarize] for borrowed views, clustering
// with up to representatives vectors per center and the given shrinkage.
// Only the first representative of each center becomes a typical point.
func (s *Summarizer) MultiSummarizeRef(
	points []sample.Weighted[sample.View],
	distance sample.Distance,
	representatives int,
	shrinkage float32,
	maxNumber int,
	parallel bool,
) (*SampleSummary, error) {
	dimensions := 0
	if len(points) > 0 {
		dimensions = points[0].Point.Len()
	}

	summary, err := FromViews(dimensions, points, config.DefaultLowerFraction, config.DefaultUpperFraction)
	if err != nil {
		return nil, err
	}

	return s.attach(summary, len(points), maxNumber, func(maxAllowed int) ([]sample.Center, error) {
		return s.clusterer.MultiCluster(sample.Vectors(points), distance, representatives, shrinkage, maxAllowed, parallel)
	})
}

// attach runs clusterFn with the bounded cap and stores its centers, heaviest
// first, as typical points. Errors from clusterFn are returned as they are.
func (s *Summarizer) attach(
	summary *SampleSummary,
	batchSize, maxNumber int,
	clusterFn func(maxAllowed int) ([]sample.Center, error),
) (*SampleSummary, error) {
	err := check(maxNumber >= 0, ErrMaxNumber, "%d", maxNumber)
	if err != nil {
		return nil, err
	}

	if maxNumber == 0 {
		return summary, nil
	}

	maxAllowed := MaxAllowed(summary.Dimensions(), maxNumber)

	centers, err := clusterFn(maxAllowed)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("clustered batch",
		"points", batchSize,
		"dimensions", summary.Dimensions(),
		"max_allowed", maxAllowed,
		"centers", len(centers))

	err = check(len(centers) <= maxAllowed, ErrTooManyCenters, "%d > %d", len(centers), maxAllowed)
	if err != nil {
		return nil, err
	}

	points, weights, err := typical(centers)
	if err != nil {
		return nil, err
	}

	err = summary.AddTypical(points, weights)
	if err != nil {
		return nil, err
	}

	return summary, nil
}

// typical orders centers by decreasing weight and normalizes their weights.
// The input slice is reordered in place.
func typical(centers []sample.Center) ([][]float32, []float32, error) {
	slices.SortFunc(centers, func(a, b sample.Center) int {
		return cmp.Compare(b.Weight, a.Weight)
	})

	var centerSum float64

	for _, c := range centers {
		centerSum += c.Weight
	}

	points := make([][]float32, len(centers))
	weights := make([]float32, len(centers))

	for i, c := range centers {
		representative := c.Representative()

		err := check(representative != nil, ErrNoRepresentative, "center %d", i)
		if err != nil {
			return nil, nil, err
		}

		points[i] = representative

		if centerSum > 0 {
			weights[i] = float32(c.Weight / centerSum)
		} else {
			weights[i] = 1 / float32(len(centers))
		}
	}

	return points, weights, nil
}
