package handlers

import (
	"encoding/json"
	"net/http"

	"familysafe/internal/apperr"
	"familysafe/internal/service"
)

// MessageHandler serves direct conversations
type MessageHandler struct {
	messageService *service.MessageService
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// Send posts a direct message
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ToUserID string `json:"to_user_id"`
		Text     string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.New(apperr.KindValidation, "invalid request body"))
		return
	}

	user := UserFromContext(r)
	message, err := h.messageService.Send(user.ID, req.ToUserID, req.Text)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, message)
}

// Conversation returns the full history with a peer
func (h *MessageHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r)
	peerID := r.PathValue("peerId")

	messages, err := h.messageService.Conversation(user.ID, peerID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, messages)
}

// Edit rewrites a message body
func (h *MessageHandler) Edit(w http.ResponseWriter, r *http.Request) {
	messageID, err := pathID(r, "id")
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
	message, err := h.messageService.Edit(user.ID, messageID, req.Text)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, message)
}

// Delete removes a message
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	messageID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	user := UserFromContext(r)
	if err := h.messageService.Delete(user.ID, messageID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// MarkRead flags every unread message from the peer as read
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r)
	peerID := r.PathValue("peerId")

	if err := h.messageService.MarkConversationRead(user.ID, peerID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

// UnreadCount counts unread messages from the peer
func (h *MessageHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r)
	peerID := r.PathValue("peerId")

	count, err := h.messageService.UnreadCount(user.ID, peerID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"unread": count})
}
