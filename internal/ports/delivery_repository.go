package ports

import (
	"context"
	"route-optimization-service/internal/domain"
)

// Port: a read-only boundary for looking up deliveries by id.
type DeliveryRepository interface {
	// Return the deliveries that exist among ids. Unknown ids are omitted
	// rather than reported as an error.
	GetDeliveries(ctx context.Context, ids []string) ([]domain.Delivery, error)
}
