package handlers

import (
	"encoding/json"
	"net/http"

	"familysafe/internal/apperr"
	"familysafe/internal/service"
)

// GroupHandler serves group chat lifecycle and messages
type GroupHandler struct {
	groupService *service.GroupService
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(groupService *service.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

// Create makes a new group with the caller as admin
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.New(apperr.KindValidation, "invalid request body"))
		return
	}

	user := UserFromContext(r)
	group, err := h.groupService.Create(user.ID, req.Name, req.AvatarURL)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, group)
}

// List returns the caller's groups
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r)
	groups, err := h.groupService.ListForUser(user.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, groups)
}

// Update renames a group
func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var req struct {
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.New(apperr.KindValidation, "invalid request body"))
		return
	}

	user := UserFromContext(r)
	if err := h.groupService.Update(user.ID, groupID, req.Name, req.AvatarURL); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// Delete removes a group
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	user := UserFromContext(r)
	if err := h.groupService.Delete(user.ID, groupID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// TransferOwnership hands the admin role to another member
func (h *GroupHandler) TransferOwnership(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var req struct {
		NewOwnerID string `json:"new_owner_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.New(apperr.KindValidation, "invalid request body"))
		return
	}

	user := UserFromContext(r)
	if err := h.groupService.TransferOwnership(user.ID, groupID, req.NewOwnerID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "transferred"})
}

// AddMember enrolls a user in the group
func (h *GroupHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.New(apperr.KindValidation, "invalid request body"))
		return
	}

	user := UserFromContext(r)
	if err := h.groupService.AddMember(user.ID, groupID, req.UserID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

// RemoveMember drops a user from the group
func (h *GroupHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	targetID := r.PathValue("userId")

	user := UserFromContext(r)
	if err := h.groupService.RemoveMember(user.ID, groupID, targetID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// Members lists the user ids enrolled in the group
func (h *GroupHandler) Members(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	user := UserFromContext(r)
	ids, err := h.groupService.MemberIDs(user.ID, groupID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ids)
}

// Messages returns the newest page of group messages with read receipts
func (h *GroupHandler) Messages(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	user := UserFromContext(r)
	messages, err := h.groupService.Messages(user.ID, groupID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, messages)
}

// SendMessage posts a message to the group
func (h *GroupHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.New(apperr.KindValidation, "invalid request body"))
		return
	}

	user := UserFromContext(r)
	message, err := h.groupService.SendMessage(user.ID, groupID, req.Text)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, message)
}

// EditMessage rewrites a group message body
func (h *GroupHandler) EditMessage(w http.ResponseWriter, r *http.Request) {
	messageID, err := pathID(r, "messageId")
	if err != nil {
		respondError(w, err)
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.New(apperr.KindValidation, "invalid request body"))
		return
	}

	user := UserFromContext(r)
	message, err := h.groupService.EditMessage(user.ID, messageID, req.Text)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, message)
}

// DeleteMessage removes a group message
func (h *GroupHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	messageID, err := pathID(r, "messageId")
	if err != nil {
		respondError(w, err)
		return
	}

	user := UserFromContext(r)
	if err := h.groupService.DeleteMessage(user.ID, messageID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// MarkMessageRead records the caller's read receipt on a group message
func (h *GroupHandler) MarkMessageRead(w http.ResponseWriter, r *http.Request) {
	messageID, err := pathID(r, "messageId")
	if err != nil {
		respondError(w, err)
		return
	}

	user := UserFromContext(r)
	if err := h.groupService.MarkMessageRead(user.ID, messageID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "read"})
}
