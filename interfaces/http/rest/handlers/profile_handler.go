package handlers

import (
	"net/http"

	"focuslink/application/services"
	"focuslink/domain/core/entities"
	"focuslink/pkg/common"
	pkgerrors "focuslink/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProfileHandler handles profile, location and goal requests
type ProfileHandler struct {
	base
	goals *services.GoalService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(goals *services.GoalService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{base: newBase(errs, logger), goals: goals}
}

// UpdateProfileRequest is the body of PUT /profile
type UpdateProfileRequest struct {
	Name          *string `json:"name" validate:"omitempty,max=60"`
	Bio           *string `json:"bio" validate:"omitempty,max=500"`
	PhotoURL      *string `json:"photoURL" validate:"omitempty,url"`
	MapEmoji      *string `json:"mapEmoji" validate:"omitempty,max=16"`
	IsActive      *bool   `json:"isActive"`
	ShareLocation *bool   `json:"shareLocation"`
}

// UpdateLocationRequest is the body of PUT /profile/location
type UpdateLocationRequest struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
}

// CreateGoalRequest is the body of POST /goals
type CreateGoalRequest struct {
	Text         string `json:"text" validate:"required"`
	AlreadyDoing bool   `json:"alreadyDoing"`
}

// UpdateGoalRequest is the body of PUT /goals/{goalID}
type UpdateGoalRequest struct {
	Text         *string `json:"text" validate:"omitempty,min=1"`
	IsActive     *bool   `json:"isActive"`
	AlreadyDoing *bool   `json:"alreadyDoing"`
}

// GetProfile handles GET /profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}

	profile, err := h.goals.GetProfile(r.Context(), uid)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, profile)
}

// UpdateProfile handles PUT /profile, creating the profile on first use
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	profile, err := h.goals.UpsertProfile(r.Context(), uid, entities.ProfileUpdate{
		Name:          req.Name,
		Bio:           req.Bio,
		PhotoURL:      req.PhotoURL,
		MapEmoji:      req.MapEmoji,
		IsActive:      req.IsActive,
		ShareLocation: req.ShareLocation,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, profile)
}

// UpdateLocation handles PUT /profile/location
func (h *ProfileHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req UpdateLocationRequest
	if !h.decode(w, r, &req) {
		return
	}

	profile, err := h.goals.UpdateLocation(r.Context(), uid, *req.Lat, *req.Lng)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, profile)
}

// CreateGoal handles POST /goals
func (h *ProfileHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req CreateGoalRequest
	if !h.decode(w, r, &req) {
		return
	}

	goal, err := h.goals.AddGoal(r.Context(), uid, req.Text, req.AlreadyDoing)
	if err != nil {
		h.logger.Debug("Failed to add goal", zap.String("userID", uid), zap.Error(err))
		h.fail(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, goal)
}

// UpdateGoal handles PUT /goals/{goalID}
func (h *ProfileHandler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req UpdateGoalRequest
	if !h.decode(w, r, &req) {
		return
	}

	goal, err := h.goals.UpdateGoal(r.Context(), uid, chi.URLParam(r, "goalID"), entities.GoalUpdate{
		Text:         req.Text,
		IsActive:     req.IsActive,
		AlreadyDoing: req.AlreadyDoing,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, goal)
}

// DeleteGoal handles DELETE /goals/{goalID}
func (h *ProfileHandler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.goals.DeleteGoal(r.Context(), uid, chi.URLParam(r, "goalID")); err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondNoContent(w)
}

// SetSpotlight handles POST /goals/{goalID}/spotlight
func (h *ProfileHandler) SetSpotlight(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}

	profile, err := h.goals.SetSpotlight(r.Context(), uid, chi.URLParam(r, "goalID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, profile)
}

// ClearSpotlight handles DELETE /goals/spotlight
func (h *ProfileHandler) ClearSpotlight(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}

	profile, err := h.goals.SetSpotlight(r.Context(), uid, "")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, profile)
}
