package handlers

import (
	"encoding/json"
	"net/http"

	"familysafe/internal/apperr"
	"familysafe/internal/service"
)

// LocationHandler ingests fixes from child devices and serves trails
type LocationHandler struct {
	locationService *service.LocationService
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(locationService *service.LocationService) *LocationHandler {
	return &LocationHandler{locationService: locationService}
}

// RecordPosition accepts a fix from the child's own device
func (h *LocationHandler) RecordPosition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Latitude   float64 `json:"latitude"`
		Longitude  float64 `json:"longitude"`
		Address    string  `json:"address"`
		Battery    int     `json:"battery"`
		Continuous bool    `json:"continuous"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.New(apperr.KindValidation, "invalid request body"))
		return
	}

	user := UserFromContext(r)
	member, err := h.locationService.RecordPosition(r.Context(), user.ID, req.Latitude, req.Longitude, req.Address, req.Battery, req.Continuous)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, member)
}

// ReportBattery accepts a battery level outside of a position fix
func (h *LocationHandler) ReportBattery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Battery int `json:"battery"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.New(apperr.KindValidation, "invalid request body"))
		return
	}

	user := UserFromContext(r)
	if err := h.locationService.ReportBattery(user.ID, req.Battery); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

// SetGPSEnabled flips the tracking flag for a member
func (h *LocationHandler) SetGPSEnabled(w http.ResponseWriter, r *http.Request) {
	memberID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.New(apperr.KindValidation, "invalid request body"))
		return
	}

	user := UserFromContext(r)
	member, err := h.locationService.SetGPSEnabled(user.ID, memberID, req.Enabled)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, member)
}

// GetHistory serves the recent trail for a member
func (h *LocationHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	memberID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	user := UserFromContext(r)
	entries, err := h.locationService.History(user.ID, memberID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}
