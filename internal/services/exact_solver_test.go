package services

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSolveExact_LineScenario(t *testing.T) {
	order, length, err := SolveExact(context.Background(), scenarioLine())
	require.NoError(t, err)
	require.Equal(t, []int{2, 3, 5, 6, 1, 4}, order)
	require.InDelta(t, 6.0, length, 1e-9)
}

func TestSolveExact_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 20; trial++ {
		n := 2 + rng.Intn(7)
		m := randomMatrix(rng, n)

		order, length, err := SolveExact(context.Background(), m)
		require.NoError(t, err)
		require.True(t, isPermutation(order, n), "order %v", order)
		require.InDelta(t, pathLength(m, order), length, 1e-9)
		require.InDelta(t, bruteForce(m), length, 1e-9, "trial %d n=%d", trial, n)
	}
}

func TestSolveExact_TiesPickFirstLexicographicOrder(t *testing.T) {
	// Every stop is equidistant, so every order has the same length.
	m := lineMatrix([]float64{0, 0, 0, 0, 0})

	order, length, err := SolveExact(context.Background(), m)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3, 4}, order)
	require.Zero(t, length)
}

func TestSolveExact_Deterministic(t *testing.T) {
	m := randomMatrix(rand.New(rand.NewSource(99)), 9)

	first, _, err := SolveExact(context.Background(), m)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, _, err := SolveExact(context.Background(), m)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestSolveExact_TrivialSizes(t *testing.T) {
	order, length, err := SolveExact(context.Background(), lineMatrix([]float64{0}))
	require.NoError(t, err)
	require.Empty(t, order)
	require.Zero(t, length)

	order, length, err = SolveExact(context.Background(), lineMatrix([]float64{0, 3}))
	require.NoError(t, err)
	require.Equal(t, []int{1}, order)
	require.InDelta(t, 3.0, length, 1e-9)
}

func TestSolveExact_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := SolveExact(ctx, scenarioLine())
	require.ErrorIs(t, err, ErrTimeout)
	require.ErrorIs(t, err, context.Canceled)
}
