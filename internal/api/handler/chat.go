package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/velaphi/legal-assist/internal/api/middleware"
	"github.com/velaphi/legal-assist/internal/api/response"
	"github.com/velaphi/legal-assist/internal/domain"
	"github.com/velaphi/legal-assist/internal/service"
)

// ChatHandler handles conversation endpoints
type ChatHandler struct {
	chatService   *service.ChatService
	exportService *service.ExportService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService, exportService *service.ExportService) *ChatHandler {
	return &ChatHandler{
		chatService:   chatService,
		exportService: exportService,
	}
}

// Current returns the active session
func (h *ChatHandler) Current(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.GetUserEmail(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	response.OK(w, h.chatService.Current(r.Context(), email))
}

// New starts a fresh conversation with an agent
func (h *ChatHandler) New(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.GetUserEmail(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input struct {
		AgentID string `json:"agent_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	response.OK(w, h.chatService.NewChat(r.Context(), email, input.AgentID))
}

// Send runs one chat turn
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.GetUserEmail(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	view, err := h.chatService.SendMessage(r.Context(), email, input.Text)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyMessage):
			response.BadRequest(w, err.Error())
		case errors.Is(err, domain.ErrSendInFlight):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w, err.Error())
		}
		return
	}

	response.OK(w, view)
}

// Select resumes a conversation from history
func (h *ChatHandler) Select(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.GetUserEmail(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input struct {
		ConversationID string `json:"conversation_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.ConversationID == "" {
		response.BadRequest(w, "invalid request body")
		return
	}

	view, err := h.chatService.SelectConversation(r.Context(), email, input.ConversationID)
	if err != nil {
		if errors.Is(err, domain.ErrConversationNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, err.Error())
		return
	}

	response.OK(w, view)
}

// Export renders the active conversation as text, letter, or email
func (h *ChatHandler) Export(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.GetUserEmail(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input struct {
		Format string `json:"format"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	document, err := h.exportService.Export(r.Context(), email, input.Format)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedFormat):
			response.BadRequest(w, err.Error())
		case errors.Is(err, domain.ErrCredentialMissing):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w, "export failed: "+err.Error())
		}
		return
	}

	response.OK(w, map[string]string{
		"format":   input.Format,
		"document": document,
	})
}
