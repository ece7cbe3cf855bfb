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

// MessageHandler handles direct and group threads
type MessageHandler struct {
	base
	messages *services.MessageService
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messages *services.MessageService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{base: newBase(errs, logger), messages: messages}
}

// SendMessageRequest is the body of a message send
type SendMessageRequest struct {
	Text string `json:"text" validate:"required"`
}

// DeleteMessagesRequest is the body of POST /threads/{threadID}/messages/delete
type DeleteMessagesRequest struct {
	MessageIDs []string `json:"messageIds" validate:"required,min=1,dive,required"`
}

// MessagesResponse wraps one page of a thread
type MessagesResponse struct {
	Messages []*entities.Message `json:"messages"`
	Count    int                 `json:"count"`
}

// ListDirect handles GET /connections/{connID}/messages
func (h *MessageHandler) ListDirect(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, chi.URLParam(r, "connID"))
}

// ListGroup handles GET /groups/{groupID}/messages
func (h *MessageHandler) ListGroup(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, chi.URLParam(r, "groupID"))
}

func (h *MessageHandler) list(w http.ResponseWriter, r *http.Request, threadID string) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	limit, err := common.QueryInt(r, "limit", 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if limit < 0 {
		h.fail(w, r, pkgerrors.NewValidationError("limit cannot be negative"))
		return
	}

	msgs, err := h.messages.ListThread(r.Context(), uid, threadID, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, MessagesResponse{Messages: msgs, Count: len(msgs)})
}

// SendDirect handles POST /connections/{connID}/messages
func (h *MessageHandler) SendDirect(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req SendMessageRequest
	if !h.decode(w, r, &req) {
		return
	}

	msg, err := h.messages.SendDirect(r.Context(), uid, chi.URLParam(r, "connID"), req.Text)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, msg)
}

// SendGroup handles POST /groups/{groupID}/messages
func (h *MessageHandler) SendGroup(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req SendMessageRequest
	if !h.decode(w, r, &req) {
		return
	}

	msg, err := h.messages.SendGroup(r.Context(), uid, chi.URLParam(r, "groupID"), req.Text)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, msg)
}

// MarkDirectRead handles POST /connections/{connID}/read
func (h *MessageHandler) MarkDirectRead(w http.ResponseWriter, r *http.Request) {
	h.markRead(w, r, chi.URLParam(r, "connID"))
}

// MarkGroupRead handles POST /groups/{groupID}/read
func (h *MessageHandler) MarkGroupRead(w http.ResponseWriter, r *http.Request) {
	h.markRead(w, r, chi.URLParam(r, "groupID"))
}

func (h *MessageHandler) markRead(w http.ResponseWriter, r *http.Request, threadID string) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}

	n, err := h.messages.MarkRead(r.Context(), uid, threadID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{"marked": n})
}

// DeleteMessages handles POST /threads/{threadID}/messages/delete
func (h *MessageHandler) DeleteMessages(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req DeleteMessagesRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.messages.DeleteMessages(r.Context(), uid, chi.URLParam(r, "threadID"), req.MessageIDs); err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondNoContent(w)
}

// ClearThread handles DELETE /threads/{threadID}/messages
func (h *MessageHandler) ClearThread(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.messages.ClearThread(r.Context(), uid, chi.URLParam(r, "threadID")); err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondNoContent(w)
}
