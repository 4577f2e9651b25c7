package ports

import (
	"context"
	"route-optimization-service/internal/domain"
)

// Distance and travel duration between two locations.
type DistanceResult struct {
	DistanceMeters  int
	DurationSeconds int
}

// Contract for retrieving pairwise driving distances for a coordinate set.
type DistanceMatrixProvider interface {
	// Return an n×n matrix for the given locations in a single batched call.
	// A nil cell means the provider could not resolve that pair.
	GetDistanceMatrix(ctx context.Context, locations []domain.Location) ([][]*DistanceResult, error)
}
