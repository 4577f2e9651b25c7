package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"route-optimization-service/internal/adapters/distance"
	"route-optimization-service/internal/adapters/repositories"
	"route-optimization-service/internal/domain"

	"github.com/stretchr/testify/require"
)

var (
	testStart  = domain.Location{Lat: 33.4484, Lng: -112.0740}
	testDepart = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
)

// pickedUp returns n deliveries that only need a drop-off, spread around
// the start location.
func pickedUp(n int) []domain.Delivery {
	out := make([]domain.Delivery, n)
	for i := range out {
		out[i] = domain.Delivery{
			ID:     fmt.Sprintf("D%d", i+1),
			Status: domain.DeliveryPickedUp,
			DropoffLocation: domain.Location{
				Lat: testStart.Lat + 0.05*math.Sin(float64(i)*1.7),
				Lng: testStart.Lng + 0.05*math.Cos(float64(i)*2.3),
			},
		}
	}
	return out
}

func idsOf(ds []domain.Delivery) []string {
	ids := make([]string, len(ds))
	for i, d := range ds {
		ids[i] = d.ID
	}
	return ids
}

type recordingSink struct {
	mu      sync.Mutex
	results []*domain.OptimizationResult
	err     error
}

func (s *recordingSink) SaveResult(_ context.Context, r *domain.OptimizationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
	return s.err
}

func newTestOptimizer(repo *repositories.MemoryDeliveryRepository, provider *distance.MockMatrixProvider, sink *recordingSink) *RouteOptimizer {
	var builder *DistanceMatrixBuilder
	if provider != nil {
		builder = NewDistanceMatrixBuilder(provider, time.Second)
	} else {
		builder = NewDistanceMatrixBuilder(nil, 0)
	}

	o := NewRouteOptimizer(repo, builder, nil)
	if sink != nil {
		o.Sink = sink
	}
	o.Now = func() time.Time { return testDepart }
	return o
}

func lineMeters(xs []float64) [][]int {
	m := lineMatrix(xs)
	out := make([][]int, len(m))
	for i := range m {
		out[i] = make([]int, len(m))
		for j := range m[i] {
			out[i][j] = int(m[i][j] * 1000)
		}
	}
	return out
}

func TestOptimize_ExactOnProviderMatrix(t *testing.T) {
	deliveries := pickedUp(6)
	repo := repositories.NewMemoryDeliveryRepository(deliveries...)
	provider := distance.NewMockMatrixProvider(lineMeters([]float64{0, 5, 1, 2, 6, 3, 4}))
	sink := &recordingSink{}
	o := newTestOptimizer(repo, provider, sink)

	res, err := o.Optimize(context.Background(), OptimizeRequest{
		DriverID:    "driver-1",
		DeliveryIDs: idsOf(deliveries),
		Start:       testStart,
	})
	require.NoError(t, err)

	got := make([]string, len(res.Stops))
	for i, s := range res.Stops {
		got[i] = s.DeliveryID
		require.Equal(t, i+1, s.Sequence)
		require.Equal(t, domain.RoleReskflow, s.Role)
	}
	require.Equal(t, []string{"D2", "D3", "D5", "D6", "D1", "D4"}, got)

	require.Equal(t, string(StrategyExact), res.Strategy)
	require.Equal(t, SourceProvider, res.DistanceSource)
	require.False(t, res.Degraded)
	require.InDelta(t, 6.0, res.TotalDistanceKm, 1e-9)
	require.InDelta(t, 12.0, res.TotalDurationMinutes, 1e-9)
	require.InDelta(t, 22.0, res.NaiveDistanceKm, 1e-9)
	require.Equal(t, 72.73, res.SavingsPercent)
	require.Equal(t, 5.4, res.EstimatedCost)
	require.Equal(t, testDepart, res.DepartAt)
	require.Equal(t, testDepart.Add(12*time.Minute), res.Stops[5].EstimatedArrival)
	require.NotEmpty(t, res.ID)

	require.Len(t, sink.results, 1)
	require.Same(t, res, sink.results[0])
}

// pending returns n deliveries that still need collecting, each
// contributing a pickup and a reskflow stop.
func pending(n int) []domain.Delivery {
	out := pickedUp(n)
	for i := range out {
		out[i].Status = domain.DeliveryPending
		out[i].PickupLocation = domain.Location{
			Lat: testStart.Lat + 0.01*float64(i+1),
			Lng: testStart.Lng,
		}
	}
	return out
}

func TestOptimize_ExactWithPickupsOnProviderMatrix(t *testing.T) {
	deliveries := pending(3)
	repo := repositories.NewMemoryDeliveryRepository(deliveries...)
	// Stop indices: 0 start, then (pickup, reskflow) for D1, D2, D3.
	// Pickups sit at 1..3 km and drop-offs at 4..6 km along one line, so the
	// only shortest open path collects everything before dropping anything.
	provider := distance.NewMockMatrixProvider(lineMeters([]float64{0, 1, 4, 2, 5, 3, 6}))
	o := newTestOptimizer(repo, provider, nil)

	res, err := o.Optimize(context.Background(), OptimizeRequest{
		DriverID:    "driver-1",
		DeliveryIDs: idsOf(deliveries),
		Start:       testStart,
	})
	require.NoError(t, err)
	require.Equal(t, string(StrategyExact), res.Strategy)
	require.Len(t, res.Stops, 6)

	type visit struct {
		role domain.StopRole
		id   string
	}
	got := make([]visit, len(res.Stops))
	for i, s := range res.Stops {
		got[i] = visit{s.Role, s.DeliveryID}
	}
	require.Equal(t, []visit{
		{domain.RolePickup, "D1"},
		{domain.RolePickup, "D2"},
		{domain.RolePickup, "D3"},
		{domain.RoleReskflow, "D1"},
		{domain.RoleReskflow, "D2"},
		{domain.RoleReskflow, "D3"},
	}, got)

	require.Empty(t, res.Warnings)
	require.InDelta(t, 6.0, res.TotalDistanceKm, 1e-9)
	require.InDelta(t, 20.0, res.NaiveDistanceKm, 1e-9)
	require.Equal(t, 70.0, res.SavingsPercent)
	require.Equal(t, 5.4, res.EstimatedCost)
}

func TestOptimize_TrimsPaddedIDs(t *testing.T) {
	deliveries := pickedUp(2)
	repo := repositories.NewMemoryDeliveryRepository(deliveries...)

	ids := []string{"D1", " D2 "}
	res, err := newTestOptimizer(repo, nil, nil).Optimize(context.Background(), OptimizeRequest{
		DriverID:    " driver-1 ",
		DeliveryIDs: ids,
		Start:       testStart,
	})
	require.NoError(t, err)
	require.Equal(t, "driver-1", res.DriverID)
	require.Len(t, res.Stops, 2)
	require.Equal(t, " D2 ", ids[1])
}

func TestOptimize_ProviderDownUsesHaversine(t *testing.T) {
	deliveries := pickedUp(5)
	repo := repositories.NewMemoryDeliveryRepository(deliveries...)
	provider := distance.NewFailingMatrixProvider(errors.New("503 from provider"))

	res, err := newTestOptimizer(repo, provider, nil).Optimize(context.Background(), OptimizeRequest{
		DriverID:    "driver-1",
		DeliveryIDs: idsOf(deliveries),
		Start:       testStart,
	})
	require.NoError(t, err)
	require.True(t, res.Degraded)
	require.Equal(t, SourceHaversine, res.DistanceSource)
	require.Len(t, res.Stops, 5)
	require.Greater(t, res.TotalDistanceKm, 0.0)
}

func TestOptimize_LargeRequestUsesGreedy(t *testing.T) {
	deliveries := pickedUp(40)
	repo := repositories.NewMemoryDeliveryRepository(deliveries...)

	res, err := newTestOptimizer(repo, nil, nil).Optimize(context.Background(), OptimizeRequest{
		DriverID:    "driver-1",
		DeliveryIDs: idsOf(deliveries),
		Start:       testStart,
	})
	require.NoError(t, err)
	require.Equal(t, string(StrategyGreedy), res.Strategy)
	require.Len(t, res.Stops, 40)
	require.False(t, res.Degraded)

	seen := map[string]bool{}
	for _, s := range res.Stops {
		require.False(t, seen[s.DeliveryID], "delivery %s visited twice", s.DeliveryID)
		seen[s.DeliveryID] = true
	}
}

func TestOptimize_GeneticIsReproducibleWithSeed(t *testing.T) {
	deliveries := pickedUp(15)
	repo := repositories.NewMemoryDeliveryRepository(deliveries...)
	o := newTestOptimizer(repo, nil, nil)
	o.Genetic.Generations = 100

	seed := int64(42)
	req := OptimizeRequest{
		DriverID:    "driver-1",
		DeliveryIDs: idsOf(deliveries),
		Start:       testStart,
		Seed:        &seed,
	}

	first, err := o.Optimize(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, string(StrategyGenetic), first.Strategy)
	require.Equal(t, seed, first.Seed)

	second, err := o.Optimize(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, first.Stops, second.Stops)
	require.NotEqual(t, first.ID, second.ID)
}

func TestOptimize_PendingDeliveriesAddPickups(t *testing.T) {
	deliveries := []domain.Delivery{
		{
			ID:              "P1",
			Status:          domain.DeliveryPending,
			PickupLocation:  domain.Location{Lat: 33.45, Lng: -112.05},
			DropoffLocation: domain.Location{Lat: 33.50, Lng: -112.00},
		},
		{
			ID:              "P2",
			Status:          domain.DeliveryAssigned,
			PickupLocation:  domain.Location{Lat: 33.44, Lng: -112.10},
			DropoffLocation: domain.Location{Lat: 33.40, Lng: -112.15},
		},
	}
	repo := repositories.NewMemoryDeliveryRepository(deliveries...)

	res, err := newTestOptimizer(repo, nil, nil).Optimize(context.Background(), OptimizeRequest{
		DriverID:    "driver-1",
		DeliveryIDs: []string{"P1", "P2"},
		Start:       testStart,
	})
	require.NoError(t, err)
	require.Len(t, res.Stops, 4)

	roles := map[domain.StopRole]int{}
	for _, s := range res.Stops {
		roles[s.Role]++
	}
	require.Equal(t, 2, roles[domain.RolePickup])
	require.Equal(t, 2, roles[domain.RoleReskflow])
}

func TestOptimize_StrategyOverride(t *testing.T) {
	deliveries := pickedUp(13)
	repo := repositories.NewMemoryDeliveryRepository(deliveries...)
	o := newTestOptimizer(repo, nil, nil)

	res, err := o.Optimize(context.Background(), OptimizeRequest{
		DriverID:    "driver-1",
		DeliveryIDs: idsOf(deliveries),
		Start:       testStart,
		Strategy:    "greedy",
	})
	require.NoError(t, err)
	require.Equal(t, string(StrategyGreedy), res.Strategy)

	_, err = o.Optimize(context.Background(), OptimizeRequest{
		DriverID:    "driver-1",
		DeliveryIDs: idsOf(deliveries),
		Start:       testStart,
		Strategy:    "exact",
	})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestOptimize_InvalidInput(t *testing.T) {
	deliveries := append(pickedUp(2),
		domain.Delivery{ID: "DONE", Status: domain.DeliveryDelivered, DropoffLocation: testStart},
		domain.Delivery{ID: "GONE", Status: domain.DeliveryCancelled, DropoffLocation: testStart},
		domain.Delivery{ID: "BAD", Status: domain.DeliveryPickedUp, DropoffLocation: domain.Location{Lat: 120, Lng: 0}},
	)
	repo := repositories.NewMemoryDeliveryRepository(deliveries...)
	o := newTestOptimizer(repo, nil, nil)

	base := OptimizeRequest{DriverID: "driver-1", DeliveryIDs: []string{"D1", "D2"}, Start: testStart}

	cases := map[string]func(r *OptimizeRequest){
		"no deliveries":    func(r *OptimizeRequest) { r.DeliveryIDs = nil },
		"duplicate ids":    func(r *OptimizeRequest) { r.DeliveryIDs = []string{"D1", "D1"} },
		"blank id":         func(r *OptimizeRequest) { r.DeliveryIDs = []string{"D1", ""} },
		"missing driver":   func(r *OptimizeRequest) { r.DriverID = "" },
		"blank driver":     func(r *OptimizeRequest) { r.DriverID = "   " },
		"padded blank id":  func(r *OptimizeRequest) { r.DeliveryIDs = []string{"D1", "  "} },
		"padded duplicate": func(r *OptimizeRequest) { r.DeliveryIDs = []string{" D1", "D1"} },
		"unknown delivery": func(r *OptimizeRequest) { r.DeliveryIDs = []string{"D1", "NOPE"} },
		"delivered":        func(r *OptimizeRequest) { r.DeliveryIDs = []string{"DONE"} },
		"cancelled":        func(r *OptimizeRequest) { r.DeliveryIDs = []string{"GONE"} },
		"bad coordinates":  func(r *OptimizeRequest) { r.DeliveryIDs = []string{"BAD"} },
		"bad start":        func(r *OptimizeRequest) { r.Start = domain.Location{Lat: 0, Lng: 200} },
		"unknown strategy": func(r *OptimizeRequest) { r.Strategy = "random" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := base
			req.DeliveryIDs = append([]string(nil), base.DeliveryIDs...)
			mutate(&req)

			_, err := o.Optimize(context.Background(), req)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

type blockingRepo struct{}

func (blockingRepo) GetDeliveries(ctx context.Context, _ []string) ([]domain.Delivery, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestOptimize_Timeout(t *testing.T) {
	o := NewRouteOptimizer(blockingRepo{}, NewDistanceMatrixBuilder(nil, 0), nil)
	o.Timeout = 20 * time.Millisecond

	_, err := o.Optimize(context.Background(), OptimizeRequest{
		DriverID:    "driver-1",
		DeliveryIDs: []string{"D1"},
		Start:       testStart,
	})
	require.ErrorIs(t, err, ErrTimeout)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOptimize_CanceledByCaller(t *testing.T) {
	repo := repositories.NewMemoryDeliveryRepository(pickedUp(3)...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestOptimizer(repo, nil, nil).Optimize(ctx, OptimizeRequest{
		DriverID:    "driver-1",
		DeliveryIDs: []string{"D1", "D2"},
		Start:       testStart,
	})
	require.ErrorIs(t, err, ErrTimeout)
}

func TestOptimize_RepositoryError(t *testing.T) {
	repo := repositories.NewMemoryDeliveryRepository()
	repo.Err = errors.New("database is locked")

	_, err := newTestOptimizer(repo, nil, nil).Optimize(context.Background(), OptimizeRequest{
		DriverID:    "driver-1",
		DeliveryIDs: []string{"D1"},
		Start:       testStart,
	})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidInput)
	require.NotErrorIs(t, err, ErrTimeout)
}

func TestOptimize_SinkErrorDoesNotFailRequest(t *testing.T) {
	deliveries := pickedUp(3)
	repo := repositories.NewMemoryDeliveryRepository(deliveries...)
	sink := &recordingSink{err: errors.New("sink down")}

	res, err := newTestOptimizer(repo, nil, sink).Optimize(context.Background(), OptimizeRequest{
		DriverID:    "driver-1",
		DeliveryIDs: idsOf(deliveries),
		Start:       testStart,
		DepartAt:    testDepart.Add(time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, sink.results, 1)
	require.Equal(t, testDepart.Add(time.Hour), res.DepartAt)
}

func TestOptimize_ConcurrentCalls(t *testing.T) {
	deliveries := pickedUp(8)
	repo := repositories.NewMemoryDeliveryRepository(deliveries...)
	o := newTestOptimizer(repo, nil, nil)

	var wg sync.WaitGroup
	results := make([]*domain.OptimizationResult, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = o.Optimize(context.Background(), OptimizeRequest{
				DriverID:    fmt.Sprintf("driver-%d", i),
				DeliveryIDs: idsOf(deliveries),
				Start:       testStart,
			})
		}()
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		require.Equal(t, results[0].Stops, results[i].Stops)
	}
}
