package handlers

import (
	"net/http"
	"route-optimization-service/internal/api/dto"
	"route-optimization-service/internal/platform/obs"
	"route-optimization-service/internal/ports"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Upper bound on ids accepted by a single lookup.
const maxLookupIDs = 200

// DeliveryHandler exposes read-only delivery lookups.
type DeliveryHandler struct {
	Repo ports.DeliveryRepository
}

// List returns the deliveries named by the comma separated ids query parameter.
func (h *DeliveryHandler) List(w http.ResponseWriter, r *http.Request) {
	ids := lo.Uniq(lo.Compact(lo.Map(strings.Split(r.URL.Query().Get("ids"), ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})))

	if len(ids) == 0 {
		writeError(w, r, http.StatusBadRequest, "ids query parameter is required")
		return
	}
	if len(ids) > maxLookupIDs {
		writeError(w, r, http.StatusBadRequest, "too many ids")
		return
	}

	deliveries, err := h.Repo.GetDeliveries(r.Context(), ids)
	if err != nil {
		log.Error().Str("req_id", obs.RequestID(r.Context())).Err(err).Msg("list deliveries failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListDeliveriesResponse{
		Deliveries: make([]dto.DeliveryResponse, 0, len(deliveries)),
	}
	for _, d := range deliveries {
		res.Deliveries = append(res.Deliveries, dto.DeliveryResponse{
			DeliveryID:      d.ID,
			Status:          string(d.Status),
			PickupLocation:  d.PickupLocation,
			PickupAddress:   d.PickupAddress,
			DropoffLocation: d.DropoffLocation,
			DropoffAddress:  d.DropoffAddress,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
