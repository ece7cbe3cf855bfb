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

// ConnectionHandler handles connection requests between users
type ConnectionHandler struct {
	base
	connections *services.ConnectionService
}

// NewConnectionHandler creates a new connection handler
func NewConnectionHandler(connections *services.ConnectionService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *ConnectionHandler {
	return &ConnectionHandler{base: newBase(errs, logger), connections: connections}
}

// CreateConnectionRequest is the body of POST /connections
type CreateConnectionRequest struct {
	UserID string `json:"userId" validate:"required"`
}

// ConnectionStatusResponse tells how the caller relates to another user
type ConnectionStatusResponse struct {
	State        entities.ConnectionState `json:"state"`
	ConnectionID string                   `json:"connectionId,omitempty"`
}

// ListConnections handles GET /connections?status=
func (h *ConnectionHandler) ListConnections(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	status := entities.ConnectionStatus(r.URL.Query().Get("status"))
	switch status {
	case "", entities.ConnectionPending, entities.ConnectionAccepted:
	default:
		h.fail(w, r, pkgerrors.NewValidationError("status must be one of: pending accepted"))
		return
	}

	views, err := h.connections.List(r.Context(), uid, status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"connections": views,
		"count":       len(views),
	})
}

// CreateConnection handles POST /connections
func (h *ConnectionHandler) CreateConnection(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req CreateConnectionRequest
	if !h.decode(w, r, &req) {
		return
	}

	conn, err := h.connections.Request(r.Context(), uid, req.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, conn)
}

// GetStatus handles GET /connections/status/{userID}
func (h *ConnectionHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}

	state, connID, err := h.connections.Status(r.Context(), uid, chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, ConnectionStatusResponse{State: state, ConnectionID: connID})
}

// Accept handles POST /connections/{connID}/accept
func (h *ConnectionHandler) Accept(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}

	conn, err := h.connections.Accept(r.Context(), uid, chi.URLParam(r, "connID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, conn)
}

// Decline handles POST /connections/{connID}/decline
func (h *ConnectionHandler) Decline(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.connections.Decline(r.Context(), uid, chi.URLParam(r, "connID")); err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondNoContent(w)
}

// Remove handles DELETE /connections/{connID}
func (h *ConnectionHandler) Remove(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.connections.Remove(r.Context(), uid, chi.URLParam(r, "connID")); err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondNoContent(w)
}
