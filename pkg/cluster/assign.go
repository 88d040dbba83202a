package cluster

import (
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/typical/pkg/sample"
)

// minParallelPoints is the batch size below which assignment stays on the calling goroutine.
const minParallelPoints = 256

// assign returns, for each point, the index of its nearest center. Ties go to
// the lower index, so the parallel and sequential paths agree exactly.
func (r *run) assign(points []sample.Weighted[sample.Vector], centers []*center) []int {
	assignment := make([]int, len(points))

	if !r.parallel || len(points) < minParallelPoints {
		r.assignRange(points, centers, assignment, 0, len(points))

		return assignment
	}

	workers := runtime.GOMAXPROCS(0)
	chunk := (len(points) + workers - 1) / workers

	var group errgroup.Group

	group.SetLimit(workers)

	for start := 0; start < len(points); start += chunk {
		end := min(start+chunk, len(points))

		group.Go(func() error {
			r.assignRange(points, centers, assignment, start, end)

			return nil
		})
	}

	// Workers never fail.
	_ = group.Wait()

	return assignment
}

func (r *run) assignRange(points []sample.Weighted[sample.Vector], centers []*center, assignment []int, start, end int) {
	for i := start; i < end; i++ {
		best, bestDist := 0, math.Inf(1)

		for k, c := range centers {
			for _, rep := range c.representatives {
				d := r.distance(points[i].Point, rep)
				if d < bestDist {
					best, bestDist = k, d
				}
			}
		}

		assignment[i] = best
	}
}
