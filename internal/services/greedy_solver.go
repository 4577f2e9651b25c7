package services

import (
	"context"
	"math"
)

// SolveGreedy builds a route with the nearest-neighbor heuristic.
//
// Starting at index 0 it repeatedly moves to the closest unvisited stop.
// It does not attempt global optimization and runs in O(n²).
func SolveGreedy(ctx context.Context, m DistanceMatrix) ([]int, float64, error) {
	n := m.Size()
	if n <= 1 {
		return []int{}, 0, nil
	}

	visited := make([]bool, n)
	visited[0] = true

	order := make([]int, 0, n-1)
	current := 0
	total := 0.0

	for len(order) < n-1 {
		if err := checkCtx(ctx, "greedy search"); err != nil {
			return nil, 0, err
		}

		best := -1
		minDist := math.Inf(1)

		// Select next stop by minimum distance (greedy step).
		for j := 1; j < n; j++ {
			if visited[j] {
				continue
			}
			// Ties go to the lowest index.
			if d := m[current][j]; best < 0 || d < minDist {
				best = j
				minDist = d
			}
		}

		visited[best] = true
		order = append(order, best)
		total += minDist
		current = best
	}

	return order, total, nil
}
