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

// EducationHandler handles knowledge ingestion endpoints
type EducationHandler struct {
	educationService *service.EducationService
}

// NewEducationHandler creates a new education handler
func NewEducationHandler(educationService *service.EducationService) *EducationHandler {
	return &EducationHandler{educationService: educationService}
}

// SubmitURL ingests a web source and returns the preview
func (h *EducationHandler) SubmitURL(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.GetUserEmail(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input struct {
		AgentID string `json:"agent_id"`
		URL     string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	sub, err := h.educationService.SubmitURL(r.Context(), email, input.AgentID, input.URL)
	if err != nil {
		h.writeSubmitError(w, err)
		return
	}

	response.OK(w, sub)
}

// SubmitFile ingests an uploaded document by name and returns the preview
func (h *EducationHandler) SubmitFile(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.GetUserEmail(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input struct {
		AgentID  string `json:"agent_id"`
		FileName string `json:"file_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	sub, err := h.educationService.SubmitFile(r.Context(), email, input.AgentID, input.FileName)
	if err != nil {
		h.writeSubmitError(w, err)
		return
	}

	response.OK(w, sub)
}

// Current returns the state of the user's current submission
func (h *EducationHandler) Current(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.GetUserEmail(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	response.OK(w, h.educationService.Current(r.Context(), email))
}

// Approve commits the current preview to the knowledge base
func (h *EducationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.GetUserEmail(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	entry, err := h.educationService.Approve(r.Context(), email)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoSubmission):
			response.NotFound(w, err.Error())
		case errors.Is(err, domain.ErrPreviewFailed):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w, err.Error())
		}
		return
	}

	response.Created(w, entry)
}

// Reject discards the current preview without persistence
func (h *EducationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.GetUserEmail(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	if err := h.educationService.Reject(r.Context(), email); err != nil {
		if errors.Is(err, domain.ErrNoSubmission) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, err.Error())
		return
	}

	response.NoContent(w)
}

func (h *EducationHandler) writeSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidURL):
		response.BadRequest(w, err.Error())
	case errors.Is(err, domain.ErrCredentialMissing):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w, err.Error())
	}
}
