package handler

import (
	"net/http"

	"github.com/velaphi/legal-assist/internal/api/response"
	"github.com/velaphi/legal-assist/internal/domain"
)

// ListAgents returns the fixed agent roster
func ListAgents(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]any{
		"agents":  domain.Agents(),
		"default": domain.DefaultAgent().ID,
	})
}
