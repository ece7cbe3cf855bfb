package handlers

import (
	"net/http"

	"focuslink/application/services"
	"focuslink/pkg/common"
	pkgerrors "focuslink/pkg/errors"

	"go.uber.org/zap"
)

// MatchHandler serves synergy matches and keyword search
type MatchHandler struct {
	base
	matches *services.MatchService
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(matches *services.MatchService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *MatchHandler {
	return &MatchHandler{base: newBase(errs, logger), matches: matches}
}

// MatchesResponse wraps a ranked match list
type MatchesResponse struct {
	Matches []services.MatchResult `json:"matches"`
	Count   int                    `json:"count"`
}

// ListMatches handles GET /matches
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}

	results, err := h.matches.FindMatches(r.Context(), uid)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, MatchesResponse{Matches: results, Count: len(results)})
}

// Search handles GET /matches/search?q=
func (h *MatchHandler) Search(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	results, err := h.matches.Search(r.Context(), uid, r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, MatchesResponse{Matches: results, Count: len(results)})
}

// Keywords handles GET /keywords, the caller's own extracted keywords
func (h *MatchHandler) Keywords(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}

	keywords, err := h.matches.Keywords(r.Context(), uid)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{"keywords": keywords})
}
