package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"route-optimization-service/internal/api/dto"
	"route-optimization-service/internal/domain"
	"route-optimization-service/internal/platform/obs"
	"route-optimization-service/internal/services"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// Request bodies above this size are rejected.
const maxBodyBytes = 1 << 20

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// RouteOptimizer is the service the handler delegates to.
type RouteOptimizer interface {
	Optimize(ctx context.Context, req services.OptimizeRequest) (*domain.OptimizationResult, error)
}

type RouteHandler struct {
	Optimizer RouteOptimizer
}

// Optimize decodes a route request, runs the optimizer and maps its error
// taxonomy onto HTTP status codes.
func (h *RouteHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	var req dto.OptimizeRouteRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	if err := validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, validationMessage(err))
		return
	}

	svcReq := services.OptimizeRequest{
		DriverID:    strings.TrimSpace(req.DriverID),
		DeliveryIDs: req.DeliveryIDs,
		Start:       req.Start.ToDomain(),
		Constraints: req.Constraints,
		Strategy:    req.Strategy,
		Seed:        req.Seed,
	}
	if req.DepartAt != nil {
		svcReq.DepartAt = req.DepartAt.UTC()
	} else {
		svcReq.DepartAt = time.Now().UTC()
	}

	result, err := h.Optimizer.Optimize(r.Context(), svcReq)
	if err != nil {
		status, msg := statusFor(err)
		if status >= http.StatusInternalServerError {
			log.Error().
				Str("req_id", obs.RequestID(r.Context())).
				Str("driver_id", svcReq.DriverID).
				Err(err).
				Msg("optimize route failed")
		}
		writeError(w, r, status, msg)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewOptimizeRouteResponse(result))
}

// statusFor maps optimizer errors to a status code and a client-safe message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrTimeout):
		return http.StatusGatewayTimeout, "optimization timed out"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
