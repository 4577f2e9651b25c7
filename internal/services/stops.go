package services

import "route-optimization-service/internal/domain"

// BuildStops flattens deliveries into matrix-indexed stops.
//
// Index 0 is the start location. A delivery that still needs collecting
// contributes a pickup and a reskflow stop; one already picked up contributes
// only its reskflow stop. Deliveries keep their input order, which is also the
// order the naive baseline visits them in.
func BuildStops(start domain.Location, deliveries []domain.Delivery) []domain.Stop {
	stops := make([]domain.Stop, 0, 1+2*len(deliveries))
	stops = append(stops, domain.Stop{Index: 0, Role: domain.RoleStart, Location: start})

	for _, d := range deliveries {
		if d.NeedsPickup() {
			stops = append(stops, domain.Stop{
				Index:      len(stops),
				Role:       domain.RolePickup,
				DeliveryID: d.ID,
				Location:   d.PickupLocation,
				Address:    d.PickupAddress,
			})
		}
		stops = append(stops, domain.Stop{
			Index:      len(stops),
			Role:       domain.RoleReskflow,
			DeliveryID: d.ID,
			Location:   d.DropoffLocation,
			Address:    d.DropoffAddress,
		})
	}

	return stops
}

func stopLocations(stops []domain.Stop) []domain.Location {
	out := make([]domain.Location, len(stops))
	for i, s := range stops {
		out[i] = s.Location
	}
	return out
}
