package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/velaphi/legal-assist/internal/api/middleware"
	"github.com/velaphi/legal-assist/internal/api/response"
	"github.com/velaphi/legal-assist/internal/domain"
)

// KnowledgeHandler handles knowledge base endpoints
type KnowledgeHandler struct {
	knowledge domain.KnowledgeRepository
}

// NewKnowledgeHandler creates a new knowledge handler
func NewKnowledgeHandler(knowledge domain.KnowledgeRepository) *KnowledgeHandler {
	return &KnowledgeHandler{knowledge: knowledge}
}

// ListForAgent returns an agent's approved entries in approval order
func (h *KnowledgeHandler) ListForAgent(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUserEmail(r.Context()); !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	agentID := chi.URLParam(r, "agentID")
	entries, err := h.knowledge.GetForAgent(r.Context(), agentID)
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.OK(w, map[string]any{
		"agent_id": agentID,
		"entries":  entries,
	})
}

// Delete removes one knowledge entry
func (h *KnowledgeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUserEmail(r.Context()); !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	agentID := chi.URLParam(r, "agentID")
	entryID := chi.URLParam(r, "entryID")
	if entryID == "" {
		response.BadRequest(w, "missing entry ID")
		return
	}

	if err := h.knowledge.Delete(r.Context(), agentID, entryID); err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.NoContent(w)
}
