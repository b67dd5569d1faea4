package handlers

import (
	"encoding/json"
	"net/http"

	"familysafe/internal/apperr"
	"familysafe/internal/service"
)

// PresenceHandler accepts heartbeats and serves derived statuses
type PresenceHandler struct {
	presenceService *service.PresenceService
}

// NewPresenceHandler creates a new presence handler
func NewPresenceHandler(presenceService *service.PresenceService) *PresenceHandler {
	return &PresenceHandler{presenceService: presenceService}
}

// Heartbeat records a liveness report for the caller
func (h *PresenceHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.New(apperr.KindValidation, "invalid request body"))
		return
	}

	user := UserFromContext(r)
	if err := h.presenceService.Heartbeat(user.ID, req.Status); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

// Statuses derives the display status for a set of users
func (h *PresenceHandler) Statuses(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserIDs []string `json:"user_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.New(apperr.KindValidation, "invalid request body"))
		return
	}

	statuses, err := h.presenceService.StatusMap(req.UserIDs)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, statuses)
}
