package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"route-optimization-service/internal/domain"
	"route-optimization-service/internal/platform/obs"
	"route-optimization-service/internal/ports"
	"strings"
	"time"
)

// maxOSRMCoordinates is the maximum number of coordinates the public OSRM
// demo server accepts in one table request.
const maxOSRMCoordinates = 100

// ErrDistanceCalculationFailed is returned when the OSRM API fails.
type ErrDistanceCalculationFailed struct {
	Reason string
}

func (e *ErrDistanceCalculationFailed) Error() string {
	return fmt.Sprintf("distance calculation failed: %s", e.Reason)
}

// OSRMMatrixProvider implements DistanceMatrixProvider on top of the OSRM
// table service.
type OSRMMatrixProvider struct {
	baseURL    string
	httpClient *http.Client
}

type osrmTableResponse struct {
	Code      string       `json:"code"`
	Message   string       `json:"message"`
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

func NewOSRMMatrixProvider(baseURL string) *OSRMMatrixProvider {
	if baseURL == "" {
		baseURL = "https://router.project-osrm.org"
	}
	return &OSRMMatrixProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetDistanceMatrix fetches the full table for locations in a single request.
func (c *OSRMMatrixProvider) GetDistanceMatrix(
	ctx context.Context,
	locations []domain.Location,
) (_ [][]*ports.DistanceResult, err error) {
	defer obs.Time(ctx, "osrm.GetDistanceMatrix")(&err)

	n := len(locations)
	if n == 0 {
		return nil, &ErrDistanceCalculationFailed{Reason: "no locations"}
	}
	if n > maxOSRMCoordinates {
		return nil, &ErrDistanceCalculationFailed{
			Reason: fmt.Sprintf("%d locations exceeds the %d coordinate limit", n, maxOSRMCoordinates),
		}
	}

	coords := make([]string, n)
	for i, p := range locations {
		coords[i] = fmt.Sprintf("%.6f,%.6f", p.Lng, p.Lat)
	}
	queryURL := fmt.Sprintf("%s/table/v1/driving/%s?annotations=distance,duration", c.baseURL, strings.Join(coords, ";"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, &ErrDistanceCalculationFailed{Reason: err.Error()}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ErrDistanceCalculationFailed{Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &ErrDistanceCalculationFailed{
			Reason: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var table osrmTableResponse
	if err := json.NewDecoder(resp.Body).Decode(&table); err != nil {
		return nil, &ErrDistanceCalculationFailed{Reason: err.Error()}
	}
	if table.Code != "Ok" {
		return nil, &ErrDistanceCalculationFailed{Reason: fmt.Sprintf("OSRM code %s: %s", table.Code, table.Message)}
	}
	if len(table.Distances) != n || len(table.Durations) != n {
		return nil, &ErrDistanceCalculationFailed{
			Reason: fmt.Sprintf("expected %d rows, got distances=%d durations=%d", n, len(table.Distances), len(table.Durations)),
		}
	}

	out := make([][]*ports.DistanceResult, n)
	for i := 0; i < n; i++ {
		out[i] = make([]*ports.DistanceResult, n)
		for j := 0; j < n && j < len(table.Distances[i]) && j < len(table.Durations[i]); j++ {
			d, t := table.Distances[i][j], table.Durations[i][j]
			if d == nil || t == nil {
				continue
			}
			out[i][j] = &ports.DistanceResult{
				DistanceMeters:  int(math.Round(*d)),
				DurationSeconds: int(math.Round(*t)),
			}
		}
	}

	return out, nil
}
