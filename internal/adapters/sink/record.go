package sink

import (
	"encoding/json"
	"fmt"
	"route-optimization-service/internal/domain"
	"time"
)

// Serialized form of an optimization result, shared by all sinks.
type resultRecord struct {
	ID                   string                   `json:"id"`
	DriverID             string                   `json:"driver_id"`
	Strategy             string                   `json:"strategy"`
	Seed                 int64                    `json:"seed"`
	DepartAt             time.Time                `json:"depart_at"`
	CreatedAt            time.Time                `json:"created_at"`
	Stops                []stopRecord             `json:"stops"`
	TotalDistanceKm      float64                  `json:"total_distance_km"`
	TotalDurationMinutes float64                  `json:"total_duration_minutes"`
	NaiveDistanceKm      float64                  `json:"naive_distance_km"`
	EstimatedCost        float64                  `json:"estimated_cost"`
	SavingsPercent       float64                  `json:"savings_percent"`
	DistanceSource       string                   `json:"distance_source"`
	Degraded             bool                     `json:"degraded"`
	Warnings             []string                 `json:"warnings,omitempty"`
	Constraints          *domain.RouteConstraints `json:"constraints,omitempty"`
}

type stopRecord struct {
	Sequence           int       `json:"sequence"`
	Role               string    `json:"role"`
	DeliveryID         string    `json:"delivery_id"`
	Lat                float64   `json:"lat"`
	Lng                float64   `json:"lng"`
	Address            string    `json:"address,omitempty"`
	EstimatedArrival   time.Time `json:"estimated_arrival"`
	LegDistanceKm      float64   `json:"leg_distance_km"`
	LegDurationMinutes float64   `json:"leg_duration_minutes"`
}

func toRecord(r *domain.OptimizationResult) resultRecord {
	stops := make([]stopRecord, 0, len(r.Stops))
	for _, s := range r.Stops {
		stops = append(stops, stopRecord{
			Sequence:           s.Sequence,
			Role:               string(s.Role),
			DeliveryID:         s.DeliveryID,
			Lat:                s.Location.Lat,
			Lng:                s.Location.Lng,
			Address:            s.Address,
			EstimatedArrival:   s.EstimatedArrival,
			LegDistanceKm:      s.LegDistanceKm,
			LegDurationMinutes: s.LegDurationMinutes,
		})
	}

	return resultRecord{
		ID:                   r.ID,
		DriverID:             r.DriverID,
		Strategy:             r.Strategy,
		Seed:                 r.Seed,
		DepartAt:             r.DepartAt,
		CreatedAt:            r.CreatedAt,
		Stops:                stops,
		TotalDistanceKm:      r.TotalDistanceKm,
		TotalDurationMinutes: r.TotalDurationMinutes,
		NaiveDistanceKm:      r.NaiveDistanceKm,
		EstimatedCost:        r.EstimatedCost,
		SavingsPercent:       r.SavingsPercent,
		DistanceSource:       r.DistanceSource,
		Degraded:             r.Degraded,
		Warnings:             r.Warnings,
		Constraints:          r.Constraints,
	}
}

func marshalResult(r *domain.OptimizationResult) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("marshal result: result is nil")
	}
	b, err := json.Marshal(toRecord(r))
	if err != nil {
		return nil, fmt.Errorf("marshal result %s: %w", r.ID, err)
	}
	return b, nil
}
