package sample

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Sentinel errors.
var (
	ErrViewBounds      = errors.New("view out of store bounds")
	ErrUnknownDistance = errors.New("unknown distance")
)

// Distance names accepted by [DistanceByName].
const (
	DistanceL1   = "l1"
	DistanceL2   = "l2"
	DistanceLInf = "linf"
)

// L1 returns the Manhattan distance between a and b.
func L1(a, b []float32) float64 {
	var sum float64

	for i := range a {
		sum += math.Abs(float64(a[i]) - float64(b[i]))
	}

	return sum
}

// L2 returns the Euclidean distance between a and b.
func L2(a, b []float32) float64 {
	var sum float64

	for i := range a {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}

	return math.Sqrt(sum)
}

// LInf returns the Chebyshev distance between a and b.
func LInf(a, b []float32) float64 {
	var largest float64

	for i := range a {
		largest = max(largest, math.Abs(float64(a[i])-float64(b[i])))
	}

	return largest
}

var distances = map[string]Distance{
	DistanceL1:   L1,
	DistanceL2:   L2,
	DistanceLInf: LInf,
}

// DistanceByName resolves one of the stock distances.
func DistanceByName(name string) (Distance, error) {
	fn, ok := distances[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownDistance, name, DistanceNames())
	}

	return fn, nil
}

// DistanceNames returns the sorted names of the stock distances.
func DistanceNames() []string {
	names := make([]string, 0, len(distances))

	for name := range distances {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
