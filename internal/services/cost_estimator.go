package services

import "math"

// Operating cost rates, in currency units.
const (
	FuelCostPerKm       = 0.12
	DepreciationPerKm   = 0.08
	DriverCostPerMinute = 0.35
)

// EstimateCost prices a route from its distance and driving time.
// The result is rounded to cents.
func EstimateCost(distanceKm, durationMinutes float64) float64 {
	cost := distanceKm*(FuelCostPerKm+DepreciationPerKm) + durationMinutes*DriverCostPerMinute
	return roundTo(cost, 2)
}

// NaiveDistance is the baseline the savings figure is measured against:
// stops visited in their original input order, plus the leg back to the start.
func NaiveDistance(m DistanceMatrix) float64 {
	n := m.Size()
	if n <= 1 {
		return 0
	}
	return pathLength(m, stopIndices(m)) + m[n-1][0]
}

// SavingsPercent is the percentage reduction of optimized versus naive.
// It is 0 when the baseline is 0 or either input is not finite, and can be
// negative when the optimized route is longer than the baseline.
func SavingsPercent(naive, optimized float64) float64 {
	if naive == 0 || !finite(naive) || !finite(optimized) {
		return 0
	}
	return roundTo((naive-optimized)/naive*100, 2)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func roundTo(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}
