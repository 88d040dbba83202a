// Package sample defines the weighted point types shared by the statistics
// engine, the summarizer and the clustering collaborator.
package sample

import (
	"fmt"
	"math"
)

// Indexed exposes the coordinates of a point by position.
type Indexed interface {
	// At returns the coordinate at index j.
	At(j int) float32
	// Len returns the number of coordinates.
	Len() int
}

// Weighted pairs a point with a nonnegative weight.
type Weighted[P Indexed] struct {
	Point  P
	Weight float32
}

// Vector is a point that owns its coordinates.
type Vector []float32

// At returns the coordinate at index j.
func (v Vector) At(j int) float32 { return v[j] }

// Len returns the number of coordinates.
func (v Vector) Len() int { return len(v) }

// View is a borrowed window of dim coordinates into a shared store,
// typically a flat buffer holding many points back to back.
// The store is never copied or modified through a View.
type View struct {
	store  []float32
	offset int
	dim    int
}

// NewView returns a View over store[offset : offset+dim].
func NewView(store []float32, offset, dim int) (View, error) {
	if offset < 0 || dim < 0 || offset+dim > len(store) {
		return View{}, fmt.Errorf("%w: offset %d dim %d store %d", ErrViewBounds, offset, dim, len(store))
	}

	return View{store: store, offset: offset, dim: dim}, nil
}

// ViewOf returns a View covering the whole of values.
func ViewOf(values []float32) View {
	return View{store: values, dim: len(values)}
}

// At returns the coordinate at index j.
func (v View) At(j int) float32 { return v.store[v.offset+j] }

// Len returns the number of coordinates.
func (v View) Len() int { return v.dim }

// Slice returns the coordinates as a slice sharing the underlying store.
func (v View) Slice() []float32 {
	return v.store[v.offset : v.offset+v.dim : v.offset+v.dim]
}

// Distance measures the dissimilarity of two points of equal length.
// Implementations must be pure, nonnegative and are expected to be symmetric.
type Distance func(a, b []float32) float64

// Center is one cluster reported by a clustering collaborator: its weight and
// one or more representative vectors, the first being the preferred one.
type Center struct {
	Representatives [][]float32
	Weight          float64
}

// Representative returns the first representative, or nil when there is none.
func (c Center) Representative() []float32 {
	if len(c.Representatives) == 0 {
		return nil
	}

	return c.Representatives[0]
}

// TotalWeight sums the weights of points in float64.
func TotalWeight[P Indexed](points []Weighted[P]) float64 {
	var total float64

	for _, p := range points {
		total += float64(p.Weight)
	}

	return total
}

// Vectors adapts a batch of views into a batch of vectors sharing the same storage.
func Vectors(points []Weighted[View]) []Weighted[Vector] {
	out := make([]Weighted[Vector], len(points))

	for i, p := range points {
		out[i] = Weighted[Vector]{Point: p.Point.Slice(), Weight: p.Weight}
	}

	return out
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float32) bool {
	f := float64(v)

	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
