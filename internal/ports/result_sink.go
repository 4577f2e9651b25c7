package ports

import (
	"context"
	"route-optimization-service/internal/domain"
)

// Port: a destination for finished optimization results (analytics, training data).
type ResultSink interface {
	SaveResult(ctx context.Context, result *domain.OptimizationResult) error
}
