package services

import (
	"context"
	"fmt"
	"route-optimization-service/internal/domain"
	"route-optimization-service/internal/platform/obs"
	"route-optimization-service/internal/ports"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultProviderTimeout bounds the single provider call made per build.
const DefaultProviderTimeout = 5 * time.Second

// Origin of the distances in a built matrix.
const (
	SourceProvider  = "provider"
	SourceMixed     = "mixed"
	SourceHaversine = "haversine"
)

// DistanceMatrix holds pairwise travel distances in kilometers.
// Row i, column j is the distance from stop i to stop j.
type DistanceMatrix [][]float64

// Size returns the number of stops covered by the matrix.
func (m DistanceMatrix) Size() int { return len(m) }

// MatrixBuild is a fully populated matrix plus how it was obtained.
type MatrixBuild struct {
	Matrix        DistanceMatrix
	FallbackCells int
	Source        string
	// Degraded is set when a provider was configured but at least one cell
	// had to be estimated.
	Degraded bool
}

// DistanceMatrixBuilder resolves pairwise distances with one batched provider
// call and fills anything the provider could not answer with haversine.
type DistanceMatrixBuilder struct {
	Provider ports.DistanceMatrixProvider
	Timeout  time.Duration
}

func NewDistanceMatrixBuilder(provider ports.DistanceMatrixProvider, timeout time.Duration) *DistanceMatrixBuilder {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &DistanceMatrixBuilder{Provider: provider, Timeout: timeout}
}

// Build returns an n×n matrix for locations. Provider failures never fail the
// build; only fewer than two locations does.
func (b *DistanceMatrixBuilder) Build(ctx context.Context, locations []domain.Location) (_ MatrixBuild, err error) {
	defer obs.Time(ctx, "matrix.Build")(&err)

	n := len(locations)
	if n < 2 {
		return MatrixBuild{}, invalidInput("distance matrix needs at least 2 locations, got %d", n)
	}

	var cells [][]*ports.DistanceResult
	if b.Provider != nil {
		cells, err = b.fetch(ctx, locations)
		if err != nil {
			log.Warn().
				Str("req_id", obs.RequestID(ctx)).
				Int("locations", n).
				Err(err).
				Msg("distance provider unavailable, using haversine fallback")
			cells = nil
			err = nil
		}
	}

	matrix := make(DistanceMatrix, n)
	fallback := 0
	for i := 0; i < n; i++ {
		matrix[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if km, ok := providerCellKm(cells, i, j); ok {
				matrix[i][j] = km
				continue
			}
			matrix[i][j] = HaversineKm(locations[i], locations[j])
			fallback++
		}
	}

	build := MatrixBuild{Matrix: matrix, FallbackCells: fallback}
	switch {
	case b.Provider == nil || fallback == n*(n-1):
		build.Source = SourceHaversine
	case fallback > 0:
		build.Source = SourceMixed
	default:
		build.Source = SourceProvider
	}

	if b.Provider != nil && fallback > 0 {
		build.Degraded = true
		obs.DegradedBuilds.Inc()
		obs.DistanceFallbackCells.Add(float64(fallback))
		log.Warn().
			Str("req_id", obs.RequestID(ctx)).
			Int("fallback_cells", fallback).
			Int("total_cells", n*(n-1)).
			Msg("distance matrix degraded")
	}

	return build, nil
}

// fetch calls the provider under its own timeout and validates the shape.
func (b *DistanceMatrixBuilder) fetch(ctx context.Context, locations []domain.Location) ([][]*ports.DistanceResult, error) {
	ctx, cancel := context.WithTimeout(ctx, b.Timeout)
	defer cancel()

	cells, err := b.Provider.GetDistanceMatrix(ctx, locations)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}

	if len(cells) != len(locations) {
		return nil, fmt.Errorf("%w: provider returned %d rows for %d locations", ErrUpstreamUnavailable, len(cells), len(locations))
	}
	return cells, nil
}

// providerCellKm returns the provider's distance for (i, j) in kilometers
// when it is present and usable. Short rows are treated as missing cells.
func providerCellKm(cells [][]*ports.DistanceResult, i, j int) (float64, bool) {
	if i >= len(cells) || j >= len(cells[i]) {
		return 0, false
	}
	c := cells[i][j]
	if c == nil || c.DistanceMeters < 0 {
		return 0, false
	}
	return float64(c.DistanceMeters) / 1000, true
}
