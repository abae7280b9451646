package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/promptforge/promptforge/pkg/ragstore"
)

type turnResponse struct {
	ID          int64     `json:"id"`
	UserMessage string    `json:"user_message"`
	AIMessage   string    `json:"ai_message"`
	Timestamp   time.Time `json:"timestamp"`
}

func toTurnResponse(t ragstore.ChatTurn) turnResponse {
	return turnResponse{
		ID:          t.ID,
		UserMessage: t.UserMessage,
		AIMessage:   t.AIMessage,
		Timestamp:   t.Timestamp,
	}
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	turns, err := s.chats.ListTurns(r.Context(), claims.TenantID, defaultListLimit)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := make([]turnResponse, len(turns))
	for i, t := range turns {
		resp[i] = toTurnResponse(t)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTurn(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, r, errMalformedBody)
		return
	}

	claims := claimsFrom(r.Context())
	turn, err := s.chats.GetTurn(r.Context(), id, claims.TenantID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toTurnResponse(*turn))
}
