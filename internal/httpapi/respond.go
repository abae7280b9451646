package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/promptforge/promptforge/internal/auth"
	"github.com/promptforge/promptforge/pkg/provider/embeddings"
	"github.com/promptforge/promptforge/pkg/ragstore"
)

// errorBody is the JSON shape of every non-2xx response.
type errorBody struct {
	Error string `json:"error"`
}

// errMalformedBody covers undecodable or unexpected request bodies.
var errMalformedBody = errors.New("malformed request body")

// respondJSON encodes v with the given status. Encoding failures are logged;
// by then the status line is already written, so nothing else can be done.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encoding failed", "error", err)
	}
}

// respondError maps domain errors to HTTP status codes and writes a JSON
// error body. Internal details of unexpected errors stay in the log.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		status  int
		message string
	)
	switch {
	case errors.Is(err, auth.ErrInvalidInput), errors.Is(err, errMalformedBody):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrInvalidCredential), errors.Is(err, auth.ErrInvalidToken):
		status, message = http.StatusUnauthorized, err.Error()
	case errors.Is(err, ragstore.ErrEmailTaken):
		status, message = http.StatusConflict, ragstore.ErrEmailTaken.Error()
	case errors.Is(err, ragstore.ErrNotFound):
		status, message = http.StatusNotFound, "not found"
	case errors.Is(err, embeddings.ErrEmbedFailed):
		status, message = http.StatusBadGateway, "embedding service unavailable"
	default:
		status, message = http.StatusInternalServerError, "internal error"
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
	}
	respondJSON(w, status, errorBody{Error: message})
}

// decodeJSON reads the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errMalformedBody
	}
	return nil
}
