package httpapi

import (
	"net/http"
	"strings"
)

type ingestResponse struct {
	ID     int64  `json:"id"`
	Source string `json:"source"`
}

// handleIngestText accepts form-encoded or multipart "text" and "source"
// fields, embeds the text, and stores it in the caller's knowledge base.
func (s *Server) handleIngestText(w http.ResponseWriter, r *http.Request) {
	text := strings.TrimSpace(r.FormValue("text"))
	source := strings.TrimSpace(r.FormValue("source"))
	if text == "" || source == "" {
		respondError(w, r, errMalformedBody)
		return
	}

	claims := claimsFrom(r.Context())
	id, err := s.docs.AddDocument(r.Context(), claims.TenantID, text, map[string]any{
		"source": source,
		"type":   "text",
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.metrics.DocumentsIngested.Add(r.Context(), 1)
	respondJSON(w, http.StatusCreated, ingestResponse{ID: id, Source: source})
}

type documentsResponse struct {
	Count     int               `json:"count"`
	Documents []documentPreview `json:"documents"`
}

type documentPreview struct {
	ID       int64          `json:"id"`
	Metadata map[string]any `json:"metadata"`
	Preview  string         `json:"preview"`
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	listing, err := s.docs.ListDocuments(r.Context(), claims.TenantID, defaultListLimit)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := documentsResponse{
		Count:     listing.Count,
		Documents: make([]documentPreview, len(listing.Documents)),
	}
	for i, d := range listing.Documents {
		resp.Documents[i] = documentPreview{ID: d.ID, Metadata: d.Metadata, Preview: d.Preview}
	}
	respondJSON(w, http.StatusOK, resp)
}
