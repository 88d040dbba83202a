package cluster

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/typical/pkg/sample"
)

func blobs(seed uint64, perBlob int, origins ...[2]float32) []sample.Weighted[sample.Vector] {
	rng := rand.New(rand.NewPCG(seed, seed))
	points := make([]sample.Weighted[sample.Vector], 0, perBlob*len(origins))

	for _, o := range origins {
		for range perBlob {
			points = append(points, sample.Weighted[sample.Vector]{
				Point:  sample.Vector{o[0] + float32(rng.Float64()*2-1), o[1] + float32(rng.Float64()*2-1)},
				Weight: 1,
			})
		}
	}

	return points
}

func totalCenterWeight(centers []sample.Center) float64 {
	var total float64
	for _, c := range centers {
		total += c.Weight
	}

	return total
}

func TestCluster_SeparatesBlobs(t *testing.T) {
	t.Parallel()

	origins := [][2]float32{{0, 0}, {10, 10}}
	points := blobs(1, 300, origins...)

	centers, err := New(Options{}).Cluster(points, sample.L2, 2, false)
	require.NoError(t, err)
	require.Len(t, centers, 2)

	for _, o := range origins {
		found := false

		for _, c := range centers {
			rep := c.Representative()
			require.Len(t, rep, 2)

			if sample.L2(rep, []float32{o[0], o[1]}) < 1.5 {
				found = true

				assert.InDelta(t, 300.0, c.Weight, 1e-9)
				assert.Len(t, c.Representatives, 1)
			}
		}

		assert.True(t, found, "no center near %v", o)
	}
}

func TestCluster_RespectsCap(t *testing.T) {
	t.Parallel()

	points := blobs(2, 100, [2]float32{0, 0}, [2]float32{3, 0}, [2]float32{0, 3}, [2]float32{3, 3})

	for _, maxClusters := range []int{1, 3, 5, 12} {
		centers, err := New(Options{}).Cluster(points, sample.L1, maxClusters, false)
		require.NoError(t, err)

		assert.NotEmpty(t, centers)
		assert.LessOrEqual(t, len(centers), maxClusters)
		assert.InDelta(t, 400.0, totalCenterWeight(centers), 1e-9, "every point is accounted for")
	}
}

func TestCluster_Deterministic(t *testing.T) {
	t.Parallel()

	points := blobs(3, 200, [2]float32{0, 0}, [2]float32{5, 5}, [2]float32{-5, 5})

	first, err := New(Options{}).Cluster(points, sample.L2, 4, false)
	require.NoError(t, err)

	second, err := New(Options{}).Cluster(points, sample.L2, 4, false)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCluster_ParallelMatchesSequential(t *testing.T) {
	t.Parallel()

	points := blobs(4, 400, [2]float32{0, 0}, [2]float32{8, 0})
	require.GreaterOrEqual(t, len(points), minParallelPoints)

	sequential, err := New(Options{}).MultiCluster(points, sample.L2, 3, 0.3, 3, false)
	require.NoError(t, err)

	parallel, err := New(Options{}).MultiCluster(points, sample.L2, 3, 0.3, 3, true)
	require.NoError(t, err)

	assert.Equal(t, sequential, parallel)
}

func TestCluster_DifferentSeedsStillCoverBatch(t *testing.T) {
	t.Parallel()

	points := blobs(5, 150, [2]float32{0, 0}, [2]float32{10, 0})

	centers, err := New(Options{Seed: 7, SampleBound: 50}).Cluster(points, sample.L2, 2, false)
	require.NoError(t, err)

	assert.Len(t, centers, 2)
	assert.InDelta(t, 300.0, totalCenterWeight(centers), 1e-9)
}

func TestMultiCluster_RawRepresentativesAreMembers(t *testing.T) {
	t.Parallel()

	points := blobs(6, 120, [2]float32{0, 0}, [2]float32{10, 10})

	members := make(map[[2]float32]bool, len(points))
	for _, p := range points {
		members[[2]float32{p.Point[0], p.Point[1]}] = true
	}

	centers, err := New(Options{}).MultiCluster(points, sample.L2, 3, 0, 2, false)
	require.NoError(t, err)
	require.Len(t, centers, 2)

	for _, c := range centers {
		require.NotEmpty(t, c.Representatives)
		assert.LessOrEqual(t, len(c.Representatives), 3)

		for _, rep := range c.Representatives {
			assert.True(t, members[[2]float32{rep[0], rep[1]}], "representative %v is not an input point", rep)
		}
	}
}

func TestMultiCluster_FullShrinkageCollapsesToCentroid(t *testing.T) {
	t.Parallel()

	points := blobs(7, 80, [2]float32{0, 0})

	centers, err := New(Options{}).MultiCluster(points, sample.L2, 4, 1, 1, false)
	require.NoError(t, err)
	require.Len(t, centers, 1)

	reps := centers[0].Representatives
	require.NotEmpty(t, reps)

	for _, rep := range reps[1:] {
		assert.Equal(t, reps[0], rep)
	}
}

func TestMultiCluster_FirstRepresentativeIsNearestCentroid(t *testing.T) {
	t.Parallel()

	r := &run{
		opts:            Options{}.withDefaults(),
		distance:        sample.L1,
		representatives: 3,
		shrinkage:       0,
	}

	points := []sample.Weighted[sample.Vector]{
		{Point: sample.Vector{-4}, Weight: 1},
		{Point: sample.Vector{1}, Weight: 1},
		{Point: sample.Vector{5}, Weight: 1},
		{Point: sample.Vector{0.5}, Weight: 1},
	}

	reps := r.scatter(points, []int{0, 1, 2, 3}, []float32{0})

	require.Len(t, reps, 3)
	assert.Equal(t, []float32{0.5}, reps[0])
	assert.ElementsMatch(t, [][]float32{{0.5}, {5}, {-4}}, reps)
}

func TestCluster_Validation(t *testing.T) {
	t.Parallel()

	points := blobs(8, 10, [2]float32{0, 0})
	ragged := append(blobs(8, 3, [2]float32{0, 0}), sample.Weighted[sample.Vector]{Point: sample.Vector{1}, Weight: 1})

	tests := []struct {
		name      string
		points    []sample.Weighted[sample.Vector]
		distance  sample.Distance
		reps      int
		shrinkage float32
		max       int
		want      error
	}{
		{name: "zero_cap", points: points, distance: sample.L2, reps: 1, shrinkage: 0.5, max: 0, want: ErrInvalidCap},
		{name: "nil_distance", points: points, reps: 1, shrinkage: 0.5, max: 2, want: ErrNilDistance},
		{name: "ragged_points", points: ragged, distance: sample.L2, reps: 1, shrinkage: 0.5, max: 2, want: ErrDimensionMismatch},
		{name: "zero_representatives", points: points, distance: sample.L2, reps: 0, shrinkage: 0.5, max: 2, want: ErrInvalidRepresentatives},
		{name: "negative_shrinkage", points: points, distance: sample.L2, reps: 2, shrinkage: -0.1, max: 2, want: ErrInvalidShrinkage},
		{name: "shrinkage_above_one", points: points, distance: sample.L2, reps: 2, shrinkage: 1.5, max: 2, want: ErrInvalidShrinkage},
		{name: "nan_shrinkage", points: points, distance: sample.L2, reps: 2, shrinkage: float32(math.NaN()), max: 2, want: ErrInvalidShrinkage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			centers, err := New(Options{}).MultiCluster(tt.points, tt.distance, tt.reps, tt.shrinkage, tt.max, false)
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, centers)
		})
	}

	_, err := New(Options{}).Cluster(points, sample.L2, -3, false)
	require.ErrorIs(t, err, ErrInvalidCap)
}

func TestCluster_NoPositiveWeight(t *testing.T) {
	t.Parallel()

	points := []sample.Weighted[sample.Vector]{
		{Point: sample.Vector{1, 2}},
		{Point: sample.Vector{3, 4}},
	}

	centers, err := New(Options{}).Cluster(points, sample.L2, 2, false)
	require.NoError(t, err)
	assert.NotNil(t, centers)
	assert.Empty(t, centers)

	centers, err = New(Options{}).Cluster(nil, sample.L2, 2, false)
	require.NoError(t, err)
	assert.Empty(t, centers)
}

func TestReduce(t *testing.T) {
	t.Parallel()

	r := &run{opts: Options{}.withDefaults(), distance: sample.L1, maxClusters: 1}

	t.Run("merges_overlapping_pair", func(t *testing.T) {
		t.Parallel()

		a := &center{centroid: []float32{0}, representatives: [][]float32{{0}}, weight: 1, radius: 1}
		b := &center{centroid: []float32{1}, representatives: [][]float32{{1}}, weight: 3, radius: 1}

		out := r.reduce([]*center{a, b})
		require.Len(t, out, 1)
		assert.InDelta(t, 4.0, out[0].weight, 1e-12)
		assert.InDelta(t, 0.75, float64(out[0].centroid[0]), 1e-6)
	})

	t.Run("evicts_lightest_when_separated", func(t *testing.T) {
		t.Parallel()

		a := &center{centroid: []float32{0}, representatives: [][]float32{{0}}, weight: 1, radius: 1}
		b := &center{centroid: []float32{10}, representatives: [][]float32{{10}}, weight: 3, radius: 1}

		out := r.reduce([]*center{a, b})
		require.Len(t, out, 1)
		assert.Same(t, b, out[0])
	})

	t.Run("evicts_before_merging_when_far_above_cap", func(t *testing.T) {
		t.Parallel()

		a := &center{centroid: []float32{0}, representatives: [][]float32{{0}}, weight: 5, radius: 1}
		b := &center{centroid: []float32{0.1}, representatives: [][]float32{{0.1}}, weight: 2, radius: 1}
		c := &center{centroid: []float32{9}, representatives: [][]float32{{9}}, weight: 4, radius: 1}

		out := r.reduce([]*center{a, b, c})
		require.Len(t, out, 2)
		assert.Same(t, a, out[0])
		assert.Same(t, c, out[1])
	})
}

func TestWeightedSample(t *testing.T) {
	t.Parallel()

	points := []sample.Weighted[sample.Vector]{
		{Point: sample.Vector{0}, Weight: 1e-6},
		{Point: sample.Vector{1}, Weight: 0},
		{Point: sample.Vector{2}, Weight: 1e6},
		{Point: sample.Vector{3}, Weight: 1e-6},
	}

	t.Run("covers_all_positive_points", func(t *testing.T) {
		t.Parallel()

		rng := rand.New(rand.NewPCG(1, 1))
		out := weightedSample(rng, points, 10)

		require.Len(t, out, 3)
		assert.Equal(t, sample.Vector{0}, out[0].Point)
		assert.Equal(t, sample.Vector{2}, out[1].Point)
		assert.Equal(t, sample.Vector{3}, out[2].Point)
	})

	t.Run("prefers_heavy_points", func(t *testing.T) {
		t.Parallel()

		rng := rand.New(rand.NewPCG(1, 1))
		out := weightedSample(rng, points, 1)

		require.Len(t, out, 1)
		assert.Equal(t, sample.Vector{2}, out[0].Point)
	})
}
