package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestView_Window(t *testing.T) {
	t.Parallel()

	store := []float32{1, 2, 3, 4, 5, 6}

	view, err := NewView(store, 2, 3)
	require.NoError(t, err)

	assert.Equal(t, 3, view.Len())
	assert.InDelta(t, 3.0, float64(view.At(0)), 1e-9)
	assert.InDelta(t, 5.0, float64(view.At(2)), 1e-9)
	assert.Equal(t, []float32{3, 4, 5}, view.Slice())
}

func TestView_SliceSharesStore(t *testing.T) {
	t.Parallel()

	store := []float32{1, 2, 3, 4}

	view, err := NewView(store, 1, 2)
	require.NoError(t, err)

	s := view.Slice()
	s[0] = 42

	assert.InDelta(t, 42.0, float64(store[1]), 1e-9)
	assert.Equal(t, 2, cap(s), "slice must not expose the rest of the store")
}

func TestNewView_OutOfBounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		offset, dim int
	}{
		{name: "past_end", offset: 3, dim: 2},
		{name: "negative_offset", offset: -1, dim: 1},
		{name: "negative_dim", offset: 0, dim: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewView([]float32{1, 2, 3, 4}, tt.offset, tt.dim)
			require.ErrorIs(t, err, ErrViewBounds)
		})
	}
}

func TestVector_Indexed(t *testing.T) {
	t.Parallel()

	v := Vector{7, 8}

	assert.Equal(t, 2, v.Len())
	assert.InDelta(t, 8.0, float64(v.At(1)), 1e-9)
}

func TestTotalWeight(t *testing.T) {
	t.Parallel()

	points := []Weighted[Vector]{
		{Point: Vector{0}, Weight: 1.5},
		{Point: Vector{1}, Weight: 2.5},
	}

	assert.InDelta(t, 4.0, TotalWeight(points), 1e-9)
}

func TestVectors_SharesStorage(t *testing.T) {
	t.Parallel()

	store := []float32{1, 2, 3, 4}
	a, err := NewView(store, 0, 2)
	require.NoError(t, err)
	b, err := NewView(store, 2, 2)
	require.NoError(t, err)

	vectors := Vectors([]Weighted[View]{{Point: a, Weight: 1}, {Point: b, Weight: 3}})

	require.Len(t, vectors, 2)
	assert.Equal(t, Vector{3, 4}, vectors[1].Point)
	assert.InDelta(t, 3.0, float64(vectors[1].Weight), 1e-9)
}

func TestCenter_Representative(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Center{}.Representative())
	assert.Equal(t, []float32{1}, Center{Representatives: [][]float32{{1}, {2}}}.Representative())
}

func TestDistances(t *testing.T) {
	t.Parallel()

	a := []float32{0, 0}
	b := []float32{3, -4}

	assert.InDelta(t, 7.0, L1(a, b), 1e-9)
	assert.InDelta(t, 5.0, L2(a, b), 1e-9)
	assert.InDelta(t, 4.0, LInf(a, b), 1e-9)
	assert.InDelta(t, L2(a, b), L2(b, a), 1e-12)
}

func TestDistanceByName(t *testing.T) {
	t.Parallel()

	fn, err := DistanceByName(DistanceL1)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, fn([]float32{0}, []float32{2}), 1e-9)

	_, err = DistanceByName("cosine")
	require.ErrorIs(t, err, ErrUnknownDistance)

	assert.Equal(t, []string{"l1", "l2", "linf"}, DistanceNames())
}

func TestIsFinite(t *testing.T) {
	t.Parallel()

	var zero float32

	assert.True(t, IsFinite(1))
	assert.False(t, IsFinite(zero/zero))
	assert.False(t, IsFinite(1/zero))
}
