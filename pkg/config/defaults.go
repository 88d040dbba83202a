// Package config holds the process-wide policy constants for summarization
// and clustering. They encode documented design decisions and are not
// exposed as runtime knobs.
package config

// Summary policy.
const (
	// MaxNumberPerDimension bounds the requested cluster count to this many
	// clusters per input dimension.
	MaxNumberPerDimension = 5

	// DefaultLowerFraction is the cumulative weight fraction of the lower order statistic.
	DefaultLowerFraction = 0.1

	// DefaultUpperFraction is the cumulative weight fraction of the upper order statistic.
	DefaultUpperFraction = 0.9

	// MedianFraction is the cumulative weight fraction of the median.
	MedianFraction = 0.5
)

// Clustering policy.
const (
	// ClusterSeed seeds the sampling inside the default clustering collaborator
	// so that repeated runs over the same batch give the same centers.
	ClusterSeed = 42

	// LengthBound caps the number of points sampled to seed clusters.
	LengthBound = 1000

	// InitialCentersFactor is the ratio of seeded centers to the requested cap.
	InitialCentersFactor = 4

	// Phase2Threshold is the ratio of current centers to the cap above which
	// centers are evicted by weight before any merging is attempted.
	Phase2Threshold = 2

	// DefaultSeparationRatio scales the summed radii of two centers; centers
	// closer than that are merged.
	DefaultSeparationRatio = 0.8

	// MaxRefineIterations bounds the assign/recompute passes after each reduction.
	MaxRefineIterations = 3
)
