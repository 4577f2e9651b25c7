package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"route-optimization-service/internal/domain"
	"route-optimization-service/internal/platform/obs"
	"route-optimization-service/internal/ports"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// DefaultOptimizeTimeout bounds a whole Optimize call when the caller's
// context carries no earlier deadline.
const DefaultOptimizeTimeout = 30 * time.Second

var validate = validator.New(validator.WithRequiredStructEnabled())

// OptimizeRequest is the logical input of one optimization.
type OptimizeRequest struct {
	DriverID    string   `validate:"required"`
	DeliveryIDs []string `validate:"required,min=1,unique,dive,required"`
	Start       domain.Location
	Constraints *domain.RouteConstraints
	// Optional solver override; empty selects by stop count.
	Strategy string
	// Optional seed for reproducible genetic runs.
	Seed *int64
	// Departure time used for ETAs; zero means now.
	DepartAt time.Time
}

// RouteOptimizer computes a visiting order for one driver's pending stops.
// It holds only read-only collaborators, so one instance can serve
// concurrent calls.
type RouteOptimizer struct {
	Deliveries ports.DeliveryRepository
	Matrix     *DistanceMatrixBuilder
	// Optional; receives finished results. Expected not to block.
	Sink    ports.ResultSink
	Genetic GeneticParams
	Timeout time.Duration
	Now     func() time.Time
}

func NewRouteOptimizer(
	deliveries ports.DeliveryRepository,
	matrix *DistanceMatrixBuilder,
	sink ports.ResultSink,
) *RouteOptimizer {
	return &RouteOptimizer{
		Deliveries: deliveries,
		Matrix:     matrix,
		Sink:       sink,
		Genetic:    DefaultGeneticParams(),
		Timeout:    DefaultOptimizeTimeout,
		Now:        time.Now,
	}
}

// Optimize looks up the deliveries, builds the stop list and distance matrix,
// solves for a visiting order, and returns the timed and priced route.
func (o *RouteOptimizer) Optimize(ctx context.Context, req OptimizeRequest) (_ *domain.OptimizationResult, err error) {
	defer obs.Time(ctx, "optimizer.Optimize")(&err)

	req = normalizeRequest(req)

	strategy, err := o.validateRequest(req)
	if err != nil {
		return nil, fmt.Errorf("optimize route: %w", err)
	}

	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	deliveries, err := o.lookupDeliveries(ctx, req.DeliveryIDs)
	if err != nil {
		return nil, fmt.Errorf("optimize route: %w", err)
	}

	stops := BuildStops(req.Start, deliveries)
	n := len(stops) - 1
	if n == 0 {
		return nil, fmt.Errorf("optimize route: %w", invalidInput("no stops to visit"))
	}

	if strategy == "" {
		strategy = SelectStrategy(n)
	}
	if err := strategy.validFor(n); err != nil {
		return nil, fmt.Errorf("optimize route: %w", err)
	}

	build, err := o.Matrix.Build(ctx, stopLocations(stops))
	if err != nil {
		return nil, fmt.Errorf("optimize route: build distance matrix: %w", err)
	}
	if err := checkCtx(ctx, "distance matrix build"); err != nil {
		return nil, fmt.Errorf("optimize route: %w", err)
	}

	now := o.now()
	seed := now.UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}
	rng := rand.New(rand.NewSource(seed))

	order, err := o.solve(ctx, strategy, build.Matrix, rng)
	if err != nil {
		obs.OptimizationsTotal.WithLabelValues(strategy.String(), outcome(err)).Inc()
		return nil, fmt.Errorf("optimize route: %s solver: %w", strategy, err)
	}

	// A solver returning anything but a permutation is a defect; never
	// substitute or repair the order.
	if err := validatePermutation(order, build.Matrix.Size()); err != nil {
		obs.OptimizationsTotal.WithLabelValues(strategy.String(), outcome(err)).Inc()
		log.Error().
			Str("req_id", obs.RequestID(ctx)).
			Str("strategy", strategy.String()).
			Ints("order", order).
			Err(err).
			Msg("solver returned an invalid route")
		return nil, fmt.Errorf("optimize route: %s solver: %w", strategy, err)
	}

	departAt := req.DepartAt
	if departAt.IsZero() {
		departAt = now
	}

	route, err := AssembleRoute(order, build.Matrix, stops, departAt, MinutesPerKm)
	if err != nil {
		return nil, fmt.Errorf("optimize route: assemble: %w", err)
	}

	naive := NaiveDistance(build.Matrix)
	result := &domain.OptimizationResult{
		ID:                   uuid.NewString(),
		DriverID:             req.DriverID,
		Strategy:             strategy.String(),
		Seed:                 seed,
		DepartAt:             departAt,
		CreatedAt:            now,
		Stops:                route.Stops,
		TotalDistanceKm:      route.TotalDistanceKm,
		TotalDurationMinutes: route.TotalDurationMinutes,
		NaiveDistanceKm:      naive,
		EstimatedCost:        EstimateCost(route.TotalDistanceKm, route.TotalDurationMinutes),
		SavingsPercent:       SavingsPercent(naive, route.TotalDistanceKm),
		DistanceSource:       build.Source,
		Degraded:             build.Degraded,
		Warnings:             route.Warnings,
		Constraints:          req.Constraints,
	}

	obs.OptimizationsTotal.WithLabelValues(strategy.String(), "ok").Inc()
	log.Info().
		Str("req_id", obs.RequestID(ctx)).
		Str("driver_id", req.DriverID).
		Str("strategy", result.Strategy).
		Int("stops", n).
		Float64("distance_km", result.TotalDistanceKm).
		Float64("savings_pct", result.SavingsPercent).
		Bool("degraded", result.Degraded).
		Msg("route optimized")

	o.publish(ctx, result)

	return result, nil
}

func (o *RouteOptimizer) validateRequest(req OptimizeRequest) (Strategy, error) {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return "", invalidInput("%s", strings.Join(fields, "; "))
		}
		return "", invalidInput("%v", err)
	}

	if !req.Start.Valid() {
		return "", invalidInput("start location %s is out of range", req.Start)
	}
	if err := o.Genetic.Validate(); err != nil {
		return "", err
	}
	return ParseStrategy(req.Strategy)
}

// normalizeRequest trims identifiers so duplicate and lookup checks use the
// same keys as the repositories. The caller's slice is not modified.
func normalizeRequest(req OptimizeRequest) OptimizeRequest {
	req.DriverID = strings.TrimSpace(req.DriverID)
	if req.DeliveryIDs != nil {
		req.DeliveryIDs = lo.Map(req.DeliveryIDs, func(id string, _ int) string {
			return strings.TrimSpace(id)
		})
	}
	return req
}

// lookupDeliveries fetches ids and returns them in request order.
func (o *RouteOptimizer) lookupDeliveries(ctx context.Context, ids []string) ([]domain.Delivery, error) {
	if o.Deliveries == nil {
		return nil, errors.New("lookup deliveries: repository is nil")
	}

	found, err := o.Deliveries.GetDeliveries(ctx, ids)
	if err != nil {
		if ctxErr := checkCtx(ctx, "delivery lookup"); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("lookup deliveries: %w", err)
	}

	byID := lo.KeyBy(found, func(d domain.Delivery) string { return d.ID })

	out := make([]domain.Delivery, 0, len(ids))
	for _, id := range ids {
		d, ok := byID[id]
		if !ok {
			return nil, invalidInput("unknown delivery %q", id)
		}
		if d.Status.Terminal() {
			return nil, invalidInput("delivery %q is %s and cannot be routed", id, d.Status)
		}
		if !d.DropoffLocation.Valid() || (d.NeedsPickup() && !d.PickupLocation.Valid()) {
			return nil, invalidInput("delivery %q has out-of-range coordinates", id)
		}
		out = append(out, d)
	}

	return out, nil
}

func (o *RouteOptimizer) solve(ctx context.Context, strategy Strategy, m DistanceMatrix, rng *rand.Rand) ([]int, error) {
	start := time.Now()
	defer func() {
		obs.SolveDuration.WithLabelValues(strategy.String()).Observe(time.Since(start).Seconds())
	}()

	var (
		order []int
		err   error
	)
	switch strategy {
	case StrategyExact:
		order, _, err = SolveExact(ctx, m)
	case StrategyGenetic:
		order, _, err = SolveGenetic(ctx, m, o.Genetic, rng)
	case StrategyGreedy:
		order, _, err = SolveGreedy(ctx, m)
	default:
		return nil, invalidInput("unknown strategy %q", strategy)
	}
	if err != nil {
		return nil, err
	}

	if err := checkCtx(ctx, "solve"); err != nil {
		return nil, err
	}
	return order, nil
}

// publish hands the result to the sink without letting sink errors or the
// request deadline affect the caller.
func (o *RouteOptimizer) publish(ctx context.Context, result *domain.OptimizationResult) {
	if o.Sink == nil {
		return
	}
	if err := o.Sink.SaveResult(context.WithoutCancel(ctx), result); err != nil {
		log.Warn().
			Str("req_id", obs.RequestID(ctx)).
			Str("result_id", result.ID).
			Err(err).
			Msg("result sink rejected optimization result")
	}
}

func (o *RouteOptimizer) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrInternalInconsistency):
		return "internal_inconsistency"
	default:
		return "error"
	}
}
