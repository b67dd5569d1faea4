package service

import (
	"strings"
	"time"

	"familysafe/internal/apperr"
	"familysafe/internal/models"
	"familysafe/internal/realtime"
	"familysafe/internal/repository"
)

// MessageService handles direct conversations. Messaging is scoped to the
// family graph: the two accounts must be linked in either direction.
type MessageService struct {
	messages *repository.MessageRepository
	links    *repository.LinkRepository
	hub      *realtime.Hub
}

// NewMessageService creates a new message service
func NewMessageService(messages *repository.MessageRepository, links *repository.LinkRepository, hub *realtime.Hub) *MessageService {
	return &MessageService{messages: messages, links: links, hub: hub}
}

// Send persists a message and fans it out to both ends of the conversation
func (s *MessageService) Send(fromUserID, toUserID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.New(apperr.KindValidation, "message text is required")
	}
	if fromUserID == toUserID {
		return nil, apperr.New(apperr.KindValidation, "cannot message yourself")
	}
	if err := s.requireLinked(fromUserID, toUserID); err != nil {
		return nil, err
	}

	message, err := s.messages.CreateMessage(fromUserID, toUserID, text)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to send message", err)
	}

	s.publish(realtime.EventInsert, message)
	return message, nil
}

// Conversation returns the full message history between the caller and a peer
func (s *MessageService) Conversation(userID, peerID string) ([]models.Message, error) {
	if err := s.requireLinked(userID, peerID); err != nil {
		return nil, err
	}
	messages, err := s.messages.GetConversation(userID, peerID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to load conversation", err)
	}
	return messages, nil
}

// Edit rewrites a message body. Only the sender may edit.
func (s *MessageService) Edit(userID string, messageID int64, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.New(apperr.KindValidation, "message text is required")
	}
	message, err := s.requireSender(userID, messageID)
	if err != nil {
		return nil, err
	}
	if err := s.messages.UpdateMessageText(message.ID, text); err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to edit message", err)
	}

	updated, err := s.messages.GetMessageByID(message.ID)
	if err != nil || updated == nil {
		now := time.Now()
		updated = message
		updated.Text = text
		updated.Edited = true
		updated.EditedAt = &now
	}
	s.publish(realtime.EventUpdate, updated)
	return updated, nil
}

// Delete removes a message. Only the sender may delete.
func (s *MessageService) Delete(userID string, messageID int64) error {
	message, err := s.requireSender(userID, messageID)
	if err != nil {
		return err
	}
	if err := s.messages.DeleteMessage(message.ID); err != nil {
		return apperr.Wrap(apperr.KindTransient, "failed to delete message", err)
	}
	s.publish(realtime.EventDelete, message)
	return nil
}

// MarkConversationRead flags every unread message from the peer as read
func (s *MessageService) MarkConversationRead(userID, peerID string) error {
	if err := s.messages.MarkConversationRead(userID, peerID); err != nil {
		return apperr.Wrap(apperr.KindTransient, "failed to mark conversation read", err)
	}
	s.hub.Publish(realtime.Event{
		Table: "messages",
		Type:  realtime.EventUpdate,
		Row:   map[string]string{"reader_id": userID, "peer_id": peerID},
		Keys:  map[string]string{"from_user_id": peerID, "to_user_id": userID},
	})
	return nil
}

// UnreadCount counts unread messages from the peer addressed to the caller
func (s *MessageService) UnreadCount(userID, peerID string) (int, error) {
	count, err := s.messages.CountUnread(userID, peerID)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindTransient, "failed to count unread", err)
	}
	return count, nil
}

func (s *MessageService) requireLinked(a, b string) error {
	linked, err := s.links.LinkExists(a, b)
	if err != nil {
		return apperr.Wrap(apperr.KindTransient, "failed to check family link", err)
	}
	if linked {
		return nil
	}
	linked, err = s.links.LinkExists(b, a)
	if err != nil {
		return apperr.Wrap(apperr.KindTransient, "failed to check family link", err)
	}
	if !linked {
		return apperr.New(apperr.KindPermission, "accounts are not linked")
	}
	return nil
}

func (s *MessageService) requireSender(userID string, messageID int64) (*models.Message, error) {
	message, err := s.messages.GetMessageByID(messageID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to load message", err)
	}
	if message == nil {
		return nil, apperr.New(apperr.KindNotFound, "message not found")
	}
	if message.FromUserID != userID {
		return nil, apperr.New(apperr.KindPermission, "only the sender may change a message")
	}
	return message, nil
}

func (s *MessageService) publish(eventType string, m *models.Message) {
	s.hub.Publish(realtime.Event{
		Table: "messages",
		Type:  eventType,
		Row:   m,
		Keys:  map[string]string{"from_user_id": m.FromUserID, "to_user_id": m.ToUserID},
	})
}
