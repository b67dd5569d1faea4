package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"familysafe/internal/apperr"
	"familysafe/internal/service"
)

// RosterHandler serves the family graph: linking children and reading the
// hydrated roster.
type RosterHandler struct {
	rosterService   *service.RosterService
	presenceService *service.PresenceService
}

// NewRosterHandler creates a new roster handler
func NewRosterHandler(rosterService *service.RosterService, presenceService *service.PresenceService) *RosterHandler {
	return &RosterHandler{
		rosterService:   rosterService,
		presenceService: presenceService,
	}
}

// GetRoster returns the hydrated view of every linked child plus each
// child's derived presence.
func (h *RosterHandler) GetRoster(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r)

	views, err := h.rosterService.GetRoster(user.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	userIDs := make([]string, len(views))
	for i, v := range views {
		userIDs[i] = v.UserID
	}
	presence, err := h.presenceService.StatusMap(userIDs)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"members":  views,
		"presence": presence,
	})
}

// GetMember returns one hydrated member view
func (h *RosterHandler) GetMember(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r)
	memberID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	view, err := h.rosterService.GetMemberView(user.ID, memberID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// LinkChild connects the parent to a child account by its pasted id
func (h *RosterHandler) LinkChild(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChildID string `json:"child_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.New(apperr.KindValidation, "invalid request body"))
		return
	}

	user := UserFromContext(r)
	if err := h.rosterService.LinkChild(user.ID, req.ChildID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"status": "linked"})
}

// UnlinkChild removes the connection to a child account
func (h *RosterHandler) UnlinkChild(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r)
	childID := r.PathValue("childId")

	if err := h.rosterService.UnlinkChild(user.ID, childID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "unlinked"})
}

// GetSelf returns the child's own member row, creating it on first call
func (h *RosterHandler) GetSelf(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r)

	member, err := h.rosterService.EnsureMember(user)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, member)
}

// pathID parses a numeric path segment
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		return 0, apperr.Validationf("invalid %s", name)
	}
	return id, nil
}
