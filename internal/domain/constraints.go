package domain

import "time"

// Window during which a delivery's stop should be visited.
type TimeWindow struct {
	DeliveryID string    `json:"delivery_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
}

// Optional limits supplied with a request. They are recorded on the
// result but not enforced by the solvers.
type RouteConstraints struct {
	MaxDistanceKm      float64      `json:"max_distance_km,omitempty"`
	MaxDurationMinutes float64      `json:"max_duration_minutes,omitempty"`
	MaxDeliveries      int          `json:"max_deliveries,omitempty"`
	VehicleCapacity    int          `json:"vehicle_capacity,omitempty"`
	TimeWindows        []TimeWindow `json:"time_windows,omitempty"`
}
