package services

import (
	"math"
	"math/rand"
	"slices"
)

// lineMatrix places stops on a line at xs (km) and uses |xi - xj| as distance.
func lineMatrix(xs []float64) DistanceMatrix {
	m := make(DistanceMatrix, len(xs))
	for i := range xs {
		m[i] = make([]float64, len(xs))
		for j := range xs {
			m[i][j] = math.Abs(xs[i] - xs[j])
		}
	}
	return m
}

// scenarioLine is a 6-stop instance whose unique shortest open path is
// [2 3 5 6 1 4] with length 6.
func scenarioLine() DistanceMatrix {
	return lineMatrix([]float64{0, 5, 1, 2, 6, 3, 4})
}

// randomMatrix returns a symmetric matrix of random planar points.
func randomMatrix(rng *rand.Rand, n int) DistanceMatrix {
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range xs {
		xs[i] = rng.Float64() * 100
		ys[i] = rng.Float64() * 100
	}
	m := make(DistanceMatrix, n)
	for i := range m {
		m[i] = make([]float64, n)
		for j := range m[i] {
			m[i][j] = math.Hypot(xs[i]-xs[j], ys[i]-ys[j])
		}
	}
	return m
}

// bruteForce enumerates all orders with the standard library's permutation
// of a sorted slice and returns the shortest length.
func bruteForce(m DistanceMatrix) float64 {
	order := stopIndices(m)
	best := math.Inf(1)
	for {
		best = math.Min(best, pathLength(m, order))
		if !nextPermutation(order) {
			return best
		}
	}
}

func nextPermutation(a []int) bool {
	i := len(a) - 2
	for i >= 0 && a[i] >= a[i+1] {
		i--
	}
	if i < 0 {
		return false
	}
	j := len(a) - 1
	for a[j] <= a[i] {
		j--
	}
	a[i], a[j] = a[j], a[i]
	slices.Reverse(a[i+1:])
	return true
}

func isPermutation(order []int, n int) bool {
	return validatePermutation(order, n) == nil
}
