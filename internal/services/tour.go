package services

import "fmt"

// pathLength returns the open-path length from the start stop (index 0)
// through order. No return leg is added.
func pathLength(m DistanceMatrix, order []int) float64 {
	total := 0.0
	prev := 0
	for _, idx := range order {
		total += m[prev][idx]
		prev = idx
	}
	return total
}

// stopIndices returns the non-start indices 1..n-1 of an n×n matrix.
func stopIndices(m DistanceMatrix) []int {
	out := make([]int, 0, len(m)-1)
	for i := 1; i < len(m); i++ {
		out = append(out, i)
	}
	return out
}

// validatePermutation checks that order visits every index in 1..n-1 exactly once.
func validatePermutation(order []int, n int) error {
	if len(order) != n-1 {
		return fmt.Errorf("%w: route has %d stops, want %d", ErrInternalInconsistency, len(order), n-1)
	}

	seen := make([]bool, n)
	for pos, idx := range order {
		if idx <= 0 || idx >= n {
			return fmt.Errorf("%w: stop index %d at position %d out of range 1..%d", ErrInternalInconsistency, idx, pos, n-1)
		}
		if seen[idx] {
			return fmt.Errorf("%w: stop index %d visited twice", ErrInternalInconsistency, idx)
		}
		seen[idx] = true
	}
	return nil
}
