package cluster

import (
	"cmp"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/Sumatoshi-tech/typical/pkg/config"
	"github.com/Sumatoshi-tech/typical/pkg/sample"
)

// center is a cluster under construction.
type center struct {
	centroid        []float32
	representatives [][]float32
	weight          float64
	radius          float64
}

// run holds the inputs of one clustering call.
type run struct {
	opts            Options
	points          []sample.Weighted[sample.Vector]
	distance        sample.Distance
	maxClusters     int
	representatives int
	shrinkage       float64
	parallel        bool
}

func (r *run) execute() []sample.Center {
	rng := rand.New(rand.NewPCG(r.opts.Seed, r.opts.Seed))

	working := weightedSample(rng, r.points, r.opts.SampleBound)
	if len(working) == 0 {
		return []sample.Center{}
	}

	seeds := weightedSample(rng, working, config.InitialCentersFactor*r.maxClusters)

	centers := make([]*center, len(seeds))
	for i, s := range seeds {
		centers[i] = singleton(s.Point)
	}

	centers = r.refine(working, centers, r.opts.RefineIterations)

	for len(centers) > r.maxClusters {
		centers = r.reduce(centers)
		centers = r.refine(working, centers, r.opts.RefineIterations)
	}

	centers = r.refine(r.points, centers, 1)

	out := make([]sample.Center, len(centers))
	for i, c := range centers {
		out[i] = sample.Center{Representatives: c.representatives, Weight: c.weight}
	}

	return out
}

func singleton(point []float32) *center {
	centroid := slices.Clone(point)

	return &center{centroid: centroid, representatives: [][]float32{centroid}}
}

// refine alternates assignment and recomputation up to iterations times,
// stopping early once the assignment is stable. Centers that attract no
// weight are dropped.
func (r *run) refine(points []sample.Weighted[sample.Vector], centers []*center, iterations int) []*center {
	var previous []int

	for range iterations {
		if len(centers) == 0 {
			return centers
		}

		assignment := r.assign(points, centers)
		if slices.Equal(assignment, previous) {
			break
		}

		centers = r.recompute(points, assignment, len(centers))
		previous = assignment
	}

	return centers
}

func (r *run) recompute(points []sample.Weighted[sample.Vector], assignment []int, count int) []*center {
	dims := len(points[0].Point)
	sums := make([][]float64, count)
	weights := make([]float64, count)
	members := make([][]int, count)
	buf := make([]float64, dims)

	for i, p := range points {
		if p.Weight == 0 {
			continue
		}

		k := assignment[i]
		if sums[k] == nil {
			sums[k] = make([]float64, dims)
		}

		widen(buf, p.Point)
		floats.AddScaled(sums[k], float64(p.Weight), buf)
		weights[k] += float64(p.Weight)
		members[k] = append(members[k], i)
	}

	out := make([]*center, 0, count)

	for k := range count {
		if weights[k] == 0 {
			continue
		}

		floats.Scale(1/weights[k], sums[k])
		centroid := narrow(sums[k])

		var spread float64

		for _, i := range members[k] {
			spread += float64(points[i].Weight) * r.distance(points[i].Point, centroid)
		}

		out = append(out, &center{
			centroid:        centroid,
			representatives: r.scatter(points, members[k], centroid),
			weight:          weights[k],
			radius:          spread / weights[k],
		})
	}

	return out
}

// scatter picks up to r.representatives members: the one nearest the centroid
// first, then repeatedly the member farthest from those already picked. Each
// pick is moved toward the centroid by the shrinkage.
func (r *run) scatter(points []sample.Weighted[sample.Vector], members []int, centroid []float32) [][]float32 {
	if r.shrinkage == 1 && r.representatives == 1 {
		return [][]float32{centroid}
	}

	nearest := members[0]
	nearestDist := r.distance(points[nearest].Point, centroid)

	for _, i := range members[1:] {
		d := r.distance(points[i].Point, centroid)
		if d < nearestDist {
			nearest, nearestDist = i, d
		}
	}

	chosen := []int{nearest}
	gap := make(map[int]float64, len(members))

	for _, i := range members {
		gap[i] = r.distance(points[i].Point, points[nearest].Point)
	}

	for len(chosen) < r.representatives && len(chosen) < len(members) {
		farthest, farthestGap := -1, -1.0

		for _, i := range members {
			if slices.Contains(chosen, i) {
				continue
			}

			if gap[i] > farthestGap {
				farthest, farthestGap = i, gap[i]
			}
		}

		chosen = append(chosen, farthest)

		for _, i := range members {
			gap[i] = min(gap[i], r.distance(points[i].Point, points[farthest].Point))
		}
	}

	reps := make([][]float32, len(chosen))
	for n, i := range chosen {
		reps[n] = shrink(points[i].Point, centroid, r.shrinkage)
	}

	slices.SortStableFunc(reps, func(a, b []float32) int {
		return cmp.Compare(r.distance(a, centroid), r.distance(b, centroid))
	})

	return reps
}

func shrink(point, centroid []float32, shrinkage float64) []float32 {
	if shrinkage == 1 {
		return slices.Clone(centroid)
	}

	out := make([]float32, len(point))
	for j := range point {
		p := float64(point[j])
		out[j] = float32(p + shrinkage*(float64(centroid[j])-p))
	}

	return out
}

// reduce removes one center: lightest first while there are far more centers
// than requested, otherwise by merging the closest overlapping pair, else by
// evicting the lightest.
func (r *run) reduce(centers []*center) []*center {
	if len(centers) > config.Phase2Threshold*r.maxClusters {
		return evictLightest(centers)
	}

	first, second := 0, 1
	closest := math.Inf(1)

	for a := range centers {
		for b := a + 1; b < len(centers); b++ {
			d := r.between(centers[a], centers[b])
			if d < closest {
				first, second, closest = a, b, d
			}
		}
	}

	if closest < r.opts.SeparationRatio*(centers[first].radius+centers[second].radius) {
		centers[first] = merge(centers[first], centers[second])

		return slices.Delete(centers, second, second+1)
	}

	return evictLightest(centers)
}

// between is the smallest distance between representatives of a and b.
func (r *run) between(a, b *center) float64 {
	best := math.Inf(1)

	for _, x := range a.representatives {
		for _, y := range b.representatives {
			best = min(best, r.distance(x, y))
		}
	}

	return best
}

func merge(a, b *center) *center {
	total := a.weight + b.weight
	acc := make([]float64, len(a.centroid))
	buf := make([]float64, len(a.centroid))

	widen(buf, a.centroid)
	floats.AddScaled(acc, a.weight/total, buf)
	widen(buf, b.centroid)
	floats.AddScaled(acc, b.weight/total, buf)

	centroid := narrow(acc)

	return &center{
		centroid:        centroid,
		representatives: [][]float32{centroid},
		weight:          total,
		radius:          max(a.radius, b.radius),
	}
}

func evictLightest(centers []*center) []*center {
	lightest := 0

	for k, c := range centers {
		if c.weight < centers[lightest].weight {
			lightest = k
		}
	}

	return slices.Delete(centers, lightest, lightest+1)
}

// weightedSample draws up to k points with positive weight, without
// replacement, with probability proportional to weight. The selected points
// keep their input order. When k covers every positive point, all of them are returned.
func weightedSample(rng *rand.Rand, points []sample.Weighted[sample.Vector], k int) []sample.Weighted[sample.Vector] {
	type keyed struct {
		index int
		key   float64
	}

	candidates := make([]keyed, 0, len(points))

	for i, p := range points {
		if p.Weight > 0 {
			candidates = append(candidates, keyed{index: i})
		}
	}

	if len(candidates) > k {
		for n := range candidates {
			u := 1 - rng.Float64()
			candidates[n].key = math.Log(u) / float64(points[candidates[n].index].Weight)
		}

		slices.SortStableFunc(candidates, func(a, b keyed) int {
			return cmp.Compare(b.key, a.key)
		})

		candidates = candidates[:k]

		slices.SortFunc(candidates, func(a, b keyed) int {
			return cmp.Compare(a.index, b.index)
		})
	}

	out := make([]sample.Weighted[sample.Vector], len(candidates))
	for n, c := range candidates {
		out[n] = points[c.index]
	}

	return out
}

func widen(dst []float64, src []float32) {
	for j, v := range src {
		dst[j] = float64(v)
	}
}

func narrow(src []float64) []float32 {
	out := make([]float32, len(src))
	for j, v := range src {
		out[j] = float32(v)
	}

	return out
}
