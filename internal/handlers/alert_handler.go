package handlers

import (
	"encoding/json"
	"net/http"

	"familysafe/internal/apperr"
	"familysafe/internal/service"
)

// AlertHandler raises and manages safety alerts
type AlertHandler struct {
	alertService *service.AlertService
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(alertService *service.AlertService) *AlertHandler {
	return &AlertHandler{alertService: alertService}
}

// Raise creates an alert for a member
func (h *AlertHandler) Raise(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MemberID int64  `json:"member_id"`
		Type     string `json:"type"`
		Message  string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.New(apperr.KindValidation, "invalid request body"))
		return
	}

	user := UserFromContext(r)
	alert, err := h.alertService.Raise(r.Context(), user.ID, req.MemberID, req.Type, req.Message)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, alert)
}

// List returns every alert the caller may see, newest first
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r)
	alerts, err := h.alertService.List(user.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, alerts)
}

// MarkRead flags an alert as read
func (h *AlertHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	alertID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	user := UserFromContext(r)
	if err := h.alertService.MarkRead(user.ID, alertID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

// Delete removes an alert
func (h *AlertHandler) Delete(w http.ResponseWriter, r *http.Request) {
	alertID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	user := UserFromContext(r)
	if err := h.alertService.Delete(user.ID, alertID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
