// Package cluster groups weighted points into a bounded number of weighted
// centers.
//
// The procedure follows the spirit of CURE and data stream clustering: a
// seeded weighted sample of the batch seeds more centers than requested, then
// the closest overlapping pair of centers is merged repeatedly, or failing
// that the lightest center is evicted, until the cap is met. A last pass
// assigns the full batch so that center weights account for every point.
package cluster

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/typical/pkg/config"
	"github.com/Sumatoshi-tech/typical/pkg/sample"
)

// Sentinel errors.
var (
	// ErrInvalidCap indicates a non-positive cluster cap.
	ErrInvalidCap = errors.New("max clusters must be positive")
	// ErrInvalidRepresentatives indicates a non-positive representative count.
	ErrInvalidRepresentatives = errors.New("representatives per cluster must be positive")
	// ErrInvalidShrinkage indicates shrinkage outside [0, 1].
	ErrInvalidShrinkage = errors.New("shrinkage must be between 0 and 1")
	// ErrNilDistance indicates a missing distance function.
	ErrNilDistance = errors.New("distance function is required")
	// ErrDimensionMismatch indicates points of different lengths.
	ErrDimensionMismatch = errors.New("points have to be of same length")
)

// Options tunes a Clusterer. Zero fields take the defaults from package config.
type Options struct {
	// Seed seeds the sampling. Zero selects config.ClusterSeed.
	Seed uint64

	// SampleBound caps the number of points used to form centers.
	SampleBound int

	// SeparationRatio scales the summed radii under which two centers merge.
	SeparationRatio float64

	// RefineIterations bounds the assign/recompute passes after each reduction.
	RefineIterations int
}

func (o Options) withDefaults() Options {
	if o.Seed == 0 {
		o.Seed = config.ClusterSeed
	}

	if o.SampleBound <= 0 {
		o.SampleBound = config.LengthBound
	}

	if o.SeparationRatio <= 0 {
		o.SeparationRatio = config.DefaultSeparationRatio
	}

	if o.RefineIterations <= 0 {
		o.RefineIterations = config.MaxRefineIterations
	}

	return o
}

// Clusterer is the default clustering collaborator. It is stateless between
// calls; every call reseeds its sampler, so equal inputs give equal centers.
type Clusterer struct {
	opts Options
}

// New creates a Clusterer.
func New(opts Options) *Clusterer {
	return &Clusterer{opts: opts.withDefaults()}
}

// Cluster groups points into at most maxClusters centers, each represented by
// its weighted centroid.
func (c *Clusterer) Cluster(
	points []sample.Weighted[sample.Vector],
	distance sample.Distance,
	maxClusters int,
	parallel bool,
) ([]sample.Center, error) {
	err := validate(points, distance, maxClusters)
	if err != nil {
		return nil, err
	}

	r := &run{
		opts:            c.opts,
		points:          points,
		distance:        distance,
		maxClusters:     maxClusters,
		representatives: 1,
		shrinkage:       1,
		parallel:        parallel,
	}

	return r.execute(), nil
}

// MultiCluster groups points into at most maxClusters centers, each carrying
// up to representatives well scattered member points moved toward the
// centroid by shrinkage (1 yields the centroid, 0 the raw members). The first
// representative of every center is the one nearest its centroid.
func (c *Clusterer) MultiCluster(
	points []sample.Weighted[sample.Vector],
	distance sample.Distance,
	representatives int,
	shrinkage float32,
	maxClusters int,
	parallel bool,
) ([]sample.Center, error) {
	err := validate(points, distance, maxClusters)
	if err != nil {
		return nil, err
	}

	if representatives <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRepresentatives, representatives)
	}

	if !(shrinkage >= 0 && shrinkage <= 1) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShrinkage, shrinkage)
	}

	r := &run{
		opts:            c.opts,
		points:          points,
		distance:        distance,
		maxClusters:     maxClusters,
		representatives: representatives,
		shrinkage:       float64(shrinkage),
		parallel:        parallel,
	}

	return r.execute(), nil
}

func validate(points []sample.Weighted[sample.Vector], distance sample.Distance, maxClusters int) error {
	if maxClusters <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCap, maxClusters)
	}

	if distance == nil {
		return ErrNilDistance
	}

	for i, p := range points {
		if len(p.Point) != len(points[0].Point) {
			return fmt.Errorf("%w: point %d has %d values, want %d",
				ErrDimensionMismatch, i, len(p.Point), len(points[0].Point))
		}
	}

	return nil
}
