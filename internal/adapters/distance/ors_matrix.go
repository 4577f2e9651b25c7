package distance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"route-optimization-service/internal/domain"
	"route-optimization-service/internal/platform/obs"
	"route-optimization-service/internal/ports"
)

type matrixRequest struct {
	Locations [][]float64 `json:"locations"`
	Metrics   []string    `json:"metrics"`
	Units     string      `json:"units"`
}

type matrixResponse struct {
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

// GetDistanceMatrix retrieves the full n×n distance/duration matrix for
// locations using the OpenRouteService matrix endpoint. Cells ORS could not
// route (null in the response) are returned as nil.
func (o *ORSMatrixProvider) GetDistanceMatrix(
	ctx context.Context,
	locations []domain.Location,
) (_ [][]*ports.DistanceResult, err error) {
	defer obs.Time(ctx, "ors.GetDistanceMatrix")(&err)

	n := len(locations)
	if n == 0 {
		return nil, errors.New("ors matrix: locations must not be empty")
	}

	endpoint := fmt.Sprintf("%s/v2/matrix/%s", o.baseURL, o.profile)

	coords := make([][]float64, 0, n)
	for _, l := range locations {
		coords = append(coords, l.CoordsToList())
	}

	payload, err := json.Marshal(matrixRequest{
		Locations: coords,
		Metrics:   []string{"distance", "duration"},
		Units:     "m",
	})
	if err != nil {
		return nil, fmt.Errorf("ors matrix: marshal request: %w", err)
	}

	resp, err := o.postJSON(ctx, endpoint, payload)
	if err != nil {
		return nil, fmt.Errorf("ors matrix: request failed: %w", err)
	}
	defer resp.Body.Close()

	var mr matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, fmt.Errorf("ors matrix: decode response: %w", err)
	}

	if len(mr.Distances) != n || len(mr.Durations) != n {
		return nil, fmt.Errorf(
			"ors matrix: expected %d rows; got distances=%d durations=%d",
			n, len(mr.Distances), len(mr.Durations),
		)
	}

	out := make([][]*ports.DistanceResult, n)
	for i := 0; i < n; i++ {
		out[i] = make([]*ports.DistanceResult, n)
		// Short rows leave the remaining cells nil.
		for j := 0; j < n && j < len(mr.Distances[i]) && j < len(mr.Durations[i]); j++ {
			metersPtr := mr.Distances[i][j]
			secondsPtr := mr.Durations[i][j]
			if metersPtr == nil || secondsPtr == nil {
				continue
			}

			// ORS returns float metrics; round to nearest integer for domain consistency.
			out[i][j] = &ports.DistanceResult{
				DistanceMeters:  int(math.Round(*metersPtr)),
				DurationSeconds: int(math.Round(*secondsPtr)),
			}
		}
	}

	return out, nil
}
