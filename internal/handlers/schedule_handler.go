package handlers

import (
	"encoding/json"
	"net/http"

	"familysafe/internal/apperr"
	"familysafe/internal/models"
	"familysafe/internal/service"
)

// ScheduleHandler serves schedule items and saved destinations
type ScheduleHandler struct {
	scheduleService *service.ScheduleService
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(scheduleService *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

// ListSchedules returns a member's schedule items
func (h *ScheduleHandler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	memberID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	user := UserFromContext(r)
	items, err := h.scheduleService.ListSchedules(user.ID, memberID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// CreateSchedule adds a schedule item for a member
func (h *ScheduleHandler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	memberID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var item models.Schedule
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		respondError(w, apperr.New(apperr.KindValidation, "invalid request body"))
		return
	}
	item.MemberID = memberID

	user := UserFromContext(r)
	created, err := h.scheduleService.AddSchedule(user.ID, &item)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// UpdateSchedule rewrites a schedule item
func (h *ScheduleHandler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := pathID(r, "scheduleId")
	if err != nil {
		respondError(w, err)
		return
	}
	var item models.Schedule
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		respondError(w, apperr.New(apperr.KindValidation, "invalid request body"))
		return
	}
	item.ID = scheduleID

	user := UserFromContext(r)
	if err := h.scheduleService.UpdateSchedule(user.ID, &item); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// CompleteSchedule toggles the done flag on a schedule item
func (h *ScheduleHandler) CompleteSchedule(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := pathID(r, "scheduleId")
	if err != nil {
		respondError(w, err)
		return
	}
	var req struct {
		Completed bool `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.New(apperr.KindValidation, "invalid request body"))
		return
	}

	user := UserFromContext(r)
	if err := h.scheduleService.SetScheduleCompleted(user.ID, scheduleID, req.Completed); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// DeleteSchedule removes a schedule item
func (h *ScheduleHandler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := pathID(r, "scheduleId")
	if err != nil {
		respondError(w, err)
		return
	}

	user := UserFromContext(r)
	if err := h.scheduleService.DeleteSchedule(user.ID, scheduleID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListDestinations returns a member's saved places
func (h *ScheduleHandler) ListDestinations(w http.ResponseWriter, r *http.Request) {
	memberID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	user := UserFromContext(r)
	items, err := h.scheduleService.ListDestinations(user.ID, memberID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// CreateDestination saves a place for a member and makes it the active target
func (h *ScheduleHandler) CreateDestination(w http.ResponseWriter, r *http.Request) {
	memberID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var d models.Destination
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		respondError(w, apperr.New(apperr.KindValidation, "invalid request body"))
		return
	}
	d.MemberID = memberID

	user := UserFromContext(r)
	created, err := h.scheduleService.AddDestination(user.ID, &d)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// ActivateDestination makes one saved place the active target
func (h *ScheduleHandler) ActivateDestination(w http.ResponseWriter, r *http.Request) {
	destinationID, err := pathID(r, "destinationId")
	if err != nil {
		respondError(w, err)
		return
	}

	user := UserFromContext(r)
	if err := h.scheduleService.ActivateDestination(user.ID, destinationID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "activated"})
}

// DeleteDestination removes a saved place
func (h *ScheduleHandler) DeleteDestination(w http.ResponseWriter, r *http.Request) {
	destinationID, err := pathID(r, "destinationId")
	if err != nil {
		respondError(w, err)
		return
	}

	user := UserFromContext(r)
	if err := h.scheduleService.DeleteDestination(user.ID, destinationID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
