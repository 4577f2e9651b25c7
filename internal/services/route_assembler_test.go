package services

import (
	"testing"
	"time"

	"route-optimization-service/internal/domain"

	"github.com/stretchr/testify/require"
)

func assemblerStops() []domain.Stop {
	return BuildStops(domain.Location{Lat: 0, Lng: 0}, []domain.Delivery{
		{ID: "D1", Status: domain.DeliveryPending, PickupLocation: domain.Location{Lat: 0, Lng: 1}, DropoffLocation: domain.Location{Lat: 0, Lng: 2}},
		{ID: "D2", Status: domain.DeliveryPickedUp, DropoffLocation: domain.Location{Lat: 0, Lng: 3}},
	})
}

func TestAssembleRoute_SequencesAndTimes(t *testing.T) {
	stops := assemblerStops()
	m := lineMatrix([]float64{0, 1, 2, 3})
	depart := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	route, err := AssembleRoute([]int{1, 2, 3}, m, stops, depart, MinutesPerKm)
	require.NoError(t, err)
	require.Len(t, route.Stops, 3)
	require.Empty(t, route.Warnings)

	prev := depart
	for i, s := range route.Stops {
		require.Equal(t, i+1, s.Sequence)
		require.False(t, s.EstimatedArrival.Before(prev))
		prev = s.EstimatedArrival
	}

	require.Equal(t, domain.RolePickup, route.Stops[0].Role)
	require.Equal(t, "D1", route.Stops[1].DeliveryID)
	require.Equal(t, domain.RoleReskflow, route.Stops[2].Role)
	require.InDelta(t, 3.0, route.TotalDistanceKm, 1e-9)
	require.InDelta(t, 6.0, route.TotalDurationMinutes, 1e-9)
	require.Equal(t, depart.Add(6*time.Minute), route.Stops[2].EstimatedArrival)
}

func TestAssembleRoute_WarnsWhenReskflowPrecedesPickup(t *testing.T) {
	stops := assemblerStops()
	m := lineMatrix([]float64{0, 1, 2, 3})

	route, err := AssembleRoute([]int{2, 1, 3}, m, stops, time.Time{}, MinutesPerKm)
	require.NoError(t, err)
	require.Len(t, route.Warnings, 1)
	require.Contains(t, route.Warnings[0], "delivery D1")
}

func TestAssembleRoute_RejectsInconsistentInput(t *testing.T) {
	stops := assemblerStops()
	m := lineMatrix([]float64{0, 1, 2, 3})

	_, err := AssembleRoute([]int{1, 2}, m, stops, time.Time{}, MinutesPerKm)
	require.ErrorIs(t, err, ErrInternalInconsistency)

	_, err = AssembleRoute([]int{1, 2, 3}, m, stops[:3], time.Time{}, MinutesPerKm)
	require.ErrorIs(t, err, ErrInternalInconsistency)
}

func TestBuildStops(t *testing.T) {
	stops := assemblerStops()
	require.Len(t, stops, 4)
	require.Equal(t, domain.RoleStart, stops[0].Role)
	for i, s := range stops {
		require.Equal(t, i, s.Index)
	}
	require.Equal(t, []domain.StopRole{domain.RoleStart, domain.RolePickup, domain.RoleReskflow, domain.RoleReskflow},
		[]domain.StopRole{stops[0].Role, stops[1].Role, stops[2].Role, stops[3].Role})
	require.Equal(t, "D2", stops[3].DeliveryID)
}
