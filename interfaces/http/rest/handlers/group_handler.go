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

// GroupHandler handles group and membership requests
type GroupHandler struct {
	base
	groups *services.GroupService
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(groups *services.GroupService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *GroupHandler {
	return &GroupHandler{base: newBase(errs, logger), groups: groups}
}

// CreateGroupRequest is the body of POST /groups
type CreateGroupRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	PhotoURL    string   `json:"photoURL" validate:"omitempty,url"`
	IsPublic    bool     `json:"isPublic"`
	MemberIDs   []string `json:"memberIds" validate:"dive,required"`
}

// UpdateGroupRequest is the body of PUT /groups/{groupID}
type UpdateGroupRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1"`
	Description *string `json:"description"`
	PhotoURL    *string `json:"photoURL" validate:"omitempty,url"`
	IsPublic    *bool   `json:"isPublic"`
}

// AddMembersRequest is the body of POST /groups/{groupID}/members
type AddMembersRequest struct {
	UserIDs []string `json:"userIds" validate:"required,min=1,dive,required"`
}

// ListGroups handles GET /groups
func (h *GroupHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}

	views, err := h.groups.ListForUser(r.Context(), uid)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"groups": views,
		"count":  len(views),
	})
}

// CreateGroup handles POST /groups
func (h *GroupHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req CreateGroupRequest
	if !h.decode(w, r, &req) {
		return
	}

	group, err := h.groups.Create(r.Context(), uid, services.CreateGroupInput{
		Name:        req.Name,
		Description: req.Description,
		PhotoURL:    req.PhotoURL,
		IsPublic:    req.IsPublic,
		MemberIDs:   req.MemberIDs,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, group)
}

// GetGroup handles GET /groups/{groupID}
func (h *GroupHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}

	view, err := h.groups.Get(r.Context(), uid, chi.URLParam(r, "groupID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, view)
}

// UpdateGroup handles PUT /groups/{groupID}
func (h *GroupHandler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req UpdateGroupRequest
	if !h.decode(w, r, &req) {
		return
	}

	group, err := h.groups.Update(r.Context(), uid, chi.URLParam(r, "groupID"), entities.GroupUpdate{
		Name:        req.Name,
		Description: req.Description,
		PhotoURL:    req.PhotoURL,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, group)
}

// AddMembers handles POST /groups/{groupID}/members
func (h *GroupHandler) AddMembers(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req AddMembersRequest
	if !h.decode(w, r, &req) {
		return
	}

	added, err := h.groups.AddMembers(r.Context(), uid, chi.URLParam(r, "groupID"), req.UserIDs)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{"added": added})
}

// RemoveMember handles DELETE /groups/{groupID}/members/{userID}
func (h *GroupHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}

	err := h.groups.RemoveMember(r.Context(), uid, chi.URLParam(r, "groupID"), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondNoContent(w)
}

// Leave handles POST /groups/{groupID}/leave
func (h *GroupHandler) Leave(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.groups.Leave(r.Context(), uid, chi.URLParam(r, "groupID")); err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondNoContent(w)
}
