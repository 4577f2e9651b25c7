package dto

import (
	"route-optimization-service/internal/domain"
	"time"
)

type LocationRequest struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
}

func (l LocationRequest) ToDomain() domain.Location {
	var loc domain.Location
	if l.Lat != nil {
		loc.Lat = *l.Lat
	}
	if l.Lng != nil {
		loc.Lng = *l.Lng
	}
	return loc
}

type OptimizeRouteRequest struct {
	DriverID    string                   `json:"driver_id" validate:"required"`
	DeliveryIDs []string                 `json:"delivery_ids" validate:"required,min=1,dive,required"`
	Start       *LocationRequest         `json:"start" validate:"required"`
	Constraints *domain.RouteConstraints `json:"constraints"`
	Strategy    string                   `json:"strategy" validate:"omitempty,oneof=exact genetic greedy"`
	Seed        *int64                   `json:"seed"`
	DepartAt    *time.Time               `json:"depart_at"`
}

type RouteStopResponse struct {
	Sequence           int             `json:"sequence"`
	Role               string          `json:"role"`
	DeliveryID         string          `json:"delivery_id"`
	Location           domain.Location `json:"location"`
	Address            string          `json:"address,omitempty"`
	EstimatedArrival   time.Time       `json:"estimated_arrival"`
	LegDistanceKm      float64         `json:"leg_distance_km"`
	LegDurationMinutes float64         `json:"leg_duration_minutes"`
}

type OptimizeRouteResponse struct {
	ID                   string                   `json:"id"`
	DriverID             string                   `json:"driver_id"`
	Strategy             string                   `json:"strategy"`
	Seed                 int64                    `json:"seed"`
	DepartAt             time.Time                `json:"depart_at"`
	Stops                []RouteStopResponse      `json:"stops"`
	TotalDistanceKm      float64                  `json:"total_distance_km"`
	TotalDurationMinutes float64                  `json:"total_duration_minutes"`
	NaiveDistanceKm      float64                  `json:"naive_distance_km"`
	EstimatedCost        float64                  `json:"estimated_cost"`
	SavingsPercent       float64                  `json:"savings_percent"`
	DistanceSource       string                   `json:"distance_source"`
	Degraded             bool                     `json:"degraded"`
	Warnings             []string                 `json:"warnings"`
	Constraints          *domain.RouteConstraints `json:"constraints,omitempty"`
}

func NewOptimizeRouteResponse(r *domain.OptimizationResult) OptimizeRouteResponse {
	stops := make([]RouteStopResponse, 0, len(r.Stops))
	for _, s := range r.Stops {
		stops = append(stops, RouteStopResponse{
			Sequence:           s.Sequence,
			Role:               string(s.Role),
			DeliveryID:         s.DeliveryID,
			Location:           s.Location,
			Address:            s.Address,
			EstimatedArrival:   s.EstimatedArrival,
			LegDistanceKm:      s.LegDistanceKm,
			LegDurationMinutes: s.LegDurationMinutes,
		})
	}

	warnings := r.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	return OptimizeRouteResponse{
		ID:                   r.ID,
		DriverID:             r.DriverID,
		Strategy:             r.Strategy,
		Seed:                 r.Seed,
		DepartAt:             r.DepartAt,
		Stops:                stops,
		TotalDistanceKm:      r.TotalDistanceKm,
		TotalDurationMinutes: r.TotalDurationMinutes,
		NaiveDistanceKm:      r.NaiveDistanceKm,
		EstimatedCost:        r.EstimatedCost,
		SavingsPercent:       r.SavingsPercent,
		DistanceSource:       r.DistanceSource,
		Degraded:             r.Degraded,
		Warnings:             warnings,
		Constraints:          r.Constraints,
	}
}
