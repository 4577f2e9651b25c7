package domain

import "time"

// Represents a single stop in an optimized route.
// Sequence is 1-based; leg values describe travel from the previous stop
// (or the start location for the first stop).
type RouteStop struct {
	Sequence           int
	Role               StopRole
	DeliveryID         string
	Location           Location
	Address            string
	EstimatedArrival   time.Time
	LegDistanceKm      float64
	LegDurationMinutes float64
}

// Represents the optimized route for a single driver.
// It is the output of the optimizer and contains no side effects.
type OptimizationResult struct {
	ID                   string
	DriverID             string
	Strategy             string
	Seed                 int64
	DepartAt             time.Time
	CreatedAt            time.Time
	Stops                []RouteStop
	TotalDistanceKm      float64
	TotalDurationMinutes float64
	NaiveDistanceKm      float64
	EstimatedCost        float64
	SavingsPercent       float64
	DistanceSource       string
	Degraded             bool
	Warnings             []string
	Constraints          *RouteConstraints
}
