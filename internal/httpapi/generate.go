package httpapi

import (
	"net/http"
	"strings"

	"github.com/promptforge/promptforge/internal/config"
)

type generateRequest struct {
	Query string `json:"query"`
	Mode  string `json:"mode"`
}

type generateResponse struct {
	Response string   `json:"response"`
	Context  []string `json:"context"`
	Sources  []string `json:"sources"`
	Mode     string   `json:"mode"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		respondError(w, r, errMalformedBody)
		return
	}

	claims := claimsFrom(r.Context())
	answer, err := s.engine.AnswerQuery(r.Context(), claims.TenantID, req.Query, config.PromptMode(req.Mode))
	if err != nil {
		respondError(w, r, err)
		return
	}

	// Slices are non-nil so empty retrievals serialise as [] not null.
	if answer.Context == nil {
		answer.Context = []string{}
	}
	if answer.Sources == nil {
		answer.Sources = []string{}
	}
	respondJSON(w, http.StatusOK, generateResponse{
		Response: answer.Response,
		Context:  answer.Context,
		Sources:  answer.Sources,
		Mode:     string(answer.Mode),
	})
}
