package distance

import (
	"context"
	"fmt"
	"route-optimization-service/internal/domain"
	"route-optimization-service/internal/ports"

	"go.uber.org/atomic"
)

// MockMatrixProvider returns a fixed matrix (in meters) regardless of the
// locations it is asked about. Missing cells and whole-call failures can be
// injected for fallback tests.
type MockMatrixProvider struct {
	Meters  [][]int
	Missing map[[2]int]bool
	Err     error

	calls atomic.Int64
}

func NewMockMatrixProvider(meters [][]int) *MockMatrixProvider {
	return &MockMatrixProvider{Meters: meters, Missing: map[[2]int]bool{}}
}

// NewFailingMatrixProvider returns a provider whose every call fails.
func NewFailingMatrixProvider(err error) *MockMatrixProvider {
	return &MockMatrixProvider{Err: err}
}

func (p *MockMatrixProvider) GetDistanceMatrix(ctx context.Context, locations []domain.Location) ([][]*ports.DistanceResult, error) {
	p.calls.Inc()

	if p.Err != nil {
		return nil, p.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(p.Meters) != len(locations) {
		return nil, fmt.Errorf("mock matrix has %d rows, asked for %d locations", len(p.Meters), len(locations))
	}

	out := make([][]*ports.DistanceResult, len(locations))
	for i := range locations {
		out[i] = make([]*ports.DistanceResult, len(locations))
		for j := range locations {
			if p.Missing[[2]int{i, j}] {
				continue
			}
			meters := p.Meters[i][j]
			out[i][j] = &ports.DistanceResult{
				DistanceMeters:  meters,
				DurationSeconds: meters * 120 / 1000,
			}
		}
	}
	return out, nil
}

// Calls returns how many times the provider was invoked.
func (p *MockMatrixProvider) Calls() int64 { return p.calls.Load() }
