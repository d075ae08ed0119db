package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/velaphi/legal-assist/internal/api/middleware"
	"github.com/velaphi/legal-assist/internal/api/response"
	"github.com/velaphi/legal-assist/internal/domain"
)

// HistoryHandler handles conversation history endpoints
type HistoryHandler struct {
	history domain.ConversationRepository
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(history domain.ConversationRepository) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// List returns the user's conversations, most recent first
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.GetUserEmail(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	conversations, err := h.history.GetHistory(r.Context(), email)
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.OK(w, map[string]any{
		"conversations": conversations,
	})
}

// Delete removes one conversation from history
func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.GetUserEmail(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	conversationID := chi.URLParam(r, "conversationID")
	if conversationID == "" {
		response.BadRequest(w, "missing conversation ID")
		return
	}

	if err := h.history.Delete(r.Context(), email, conversationID); err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.NoContent(w)
}
