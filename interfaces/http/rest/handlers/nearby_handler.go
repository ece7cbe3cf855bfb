package handlers

import (
	"net/http"

	"focuslink/application/services"
	"focuslink/domain/core/valueobjects"
	"focuslink/pkg/common"
	pkgerrors "focuslink/pkg/errors"

	"go.uber.org/zap"
)

// NearbyHandler serves the map
type NearbyHandler struct {
	base
	nearby *services.NearbyService
}

// NewNearbyHandler creates a new nearby handler
func NewNearbyHandler(nearby *services.NearbyService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *NearbyHandler {
	return &NearbyHandler{base: newBase(errs, logger), nearby: nearby}
}

// Nearby handles GET /nearby?lat=&lng=&radius=. Without lat and lng the
// caller's stored location is used.
func (h *NearbyHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}

	center, err := centerFromQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	radius, _, err := common.QueryFloat(r, "radius")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	users, err := h.nearby.Nearby(r.Context(), uid, center, radius)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"count": len(users),
	})
}

// SameGoal handles GET /nearby/same-goal?text=&doing=
func (h *NearbyHandler) SameGoal(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	doing, err := common.QueryBool(r, "doing")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	users, err := h.nearby.SameGoal(r.Context(), uid, r.URL.Query().Get("text"), doing)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"count": len(users),
	})
}

func centerFromQuery(r *http.Request) (*valueobjects.Coordinates, error) {
	lat, hasLat, err := common.QueryFloat(r, "lat")
	if err != nil {
		return nil, err
	}
	lng, hasLng, err := common.QueryFloat(r, "lng")
	if err != nil {
		return nil, err
	}
	if !hasLat && !hasLng {
		return nil, nil
	}
	if hasLat != hasLng {
		return nil, pkgerrors.NewValidationError("lat and lng must be given together")
	}

	c, err := valueobjects.NewCoordinates(lat, lng)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	return &c, nil
}
