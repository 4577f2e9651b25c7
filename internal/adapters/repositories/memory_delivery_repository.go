package repositories

import (
	"context"
	"route-optimization-service/internal/domain"
	"sync"
)

// In-memory DeliveryRepository for tests and local demos.
type MemoryDeliveryRepository struct {
	mu         sync.RWMutex
	deliveries map[string]domain.Delivery
	// Err, when set, is returned by every lookup.
	Err error
}

func NewMemoryDeliveryRepository(deliveries ...domain.Delivery) *MemoryDeliveryRepository {
	r := &MemoryDeliveryRepository{deliveries: make(map[string]domain.Delivery, len(deliveries))}
	for _, d := range deliveries {
		r.deliveries[d.ID] = d
	}
	return r
}

// Put stores or replaces a delivery.
func (r *MemoryDeliveryRepository) Put(d domain.Delivery) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries[d.ID] = d
}

func (r *MemoryDeliveryRepository) GetDeliveries(ctx context.Context, ids []string) ([]domain.Delivery, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Delivery, 0, len(ids))
	for _, id := range ids {
		if d, ok := r.deliveries[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}
