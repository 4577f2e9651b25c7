package services

import (
	"fmt"
	"route-optimization-service/internal/domain"
	"time"
)

// MinutesPerKm is the fixed travel-time heuristic used for ETAs (30 km/h).
const MinutesPerKm = 2.0

// AssembledRoute is a timed route built from a solver's index order.
type AssembledRoute struct {
	Stops                []domain.RouteStop
	TotalDistanceKm      float64
	TotalDurationMinutes float64
	// Human readable notes, e.g. a drop-off routed before its pickup.
	Warnings []string
}

// AssembleRoute walks order from the start stop and produces sequenced route
// stops with leg distances, leg durations and estimated arrival times.
//
// Stop metadata is looked up by matrix index and pickups are correlated with
// drop-offs by delivery id, never by position in the stop list.
func AssembleRoute(
	order []int,
	m DistanceMatrix,
	stops []domain.Stop,
	departAt time.Time,
	minutesPerKm float64,
) (AssembledRoute, error) {
	n := m.Size()
	if len(stops) != n {
		return AssembledRoute{}, fmt.Errorf("%w: %d stops for a %d×%d matrix", ErrInternalInconsistency, len(stops), n, n)
	}
	for i, s := range stops {
		if s.Index != i {
			return AssembledRoute{}, fmt.Errorf("%w: stop at position %d has index %d", ErrInternalInconsistency, i, s.Index)
		}
	}
	if err := validatePermutation(order, n); err != nil {
		return AssembledRoute{}, err
	}

	hasPickup := make(map[string]bool)
	for _, s := range stops {
		if s.Role == domain.RolePickup {
			hasPickup[s.DeliveryID] = true
		}
	}

	out := AssembledRoute{Stops: make([]domain.RouteStop, 0, len(order))}
	pickedUp := make(map[string]bool, len(hasPickup))
	prev := 0
	elapsed := 0.0

	for seq, idx := range order {
		legKm := m[prev][idx]
		legMin := legKm * minutesPerKm
		elapsed += legMin

		s := stops[idx]
		switch s.Role {
		case domain.RolePickup:
			pickedUp[s.DeliveryID] = true
		case domain.RoleReskflow:
			if hasPickup[s.DeliveryID] && !pickedUp[s.DeliveryID] {
				out.Warnings = append(out.Warnings, fmt.Sprintf(
					"delivery %s: reskflow at sequence %d is routed before its pickup", s.DeliveryID, seq+1,
				))
			}
		}

		out.Stops = append(out.Stops, domain.RouteStop{
			Sequence:           seq + 1,
			Role:               s.Role,
			DeliveryID:         s.DeliveryID,
			Location:           s.Location,
			Address:            s.Address,
			EstimatedArrival:   departAt.Add(minutesToDuration(elapsed)),
			LegDistanceKm:      legKm,
			LegDurationMinutes: legMin,
		})

		out.TotalDistanceKm += legKm
		out.TotalDurationMinutes += legMin
		prev = idx
	}

	return out, nil
}

func minutesToDuration(minutes float64) time.Duration {
	return time.Duration(minutes * float64(time.Minute))
}
