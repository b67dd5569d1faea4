package repository

import (
	"fmt"
	"time"

	"familysafe/internal/database"
	"familysafe/internal/models"
)

// MessageRepository handles direct messages between two accounts
type MessageRepository struct {
	db *database.DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *database.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

const messageColumns = `id, from_user_id, to_user_id, text, read, edited, edited_at, created_at`

// CreateMessage persists a direct message and returns it with its assigned id
func (r *MessageRepository) CreateMessage(fromUserID, toUserID, text string) (*models.Message, error) {
	now := time.Now()
	query := "INSERT INTO messages (from_user_id, to_user_id, text, read, created_at) VALUES (?, ?, ?, ?, ?)"
	id, err := r.db.ExecReturningID(query, fromUserID, toUserID, text, false, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return &models.Message{
		ID:         id,
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Text:       text,
		CreatedAt:  now,
	}, nil
}

// GetMessageByID retrieves a single message
func (r *MessageRepository) GetMessageByID(id int64) (*models.Message, error) {
	query := "SELECT " + messageColumns + " FROM messages WHERE id = ?"
	m := &models.Message{}
	err := r.db.QueryRow(query, id).Scan(
		&m.ID, &m.FromUserID, &m.ToUserID, &m.Text, &m.Read, &m.Edited, &m.EditedAt, &m.CreatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return m, nil
}

// GetConversation returns the messages between two accounts in send order
func (r *MessageRepository) GetConversation(userA, userB string) ([]models.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE (from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)
		ORDER BY created_at, id
	`
	rows, err := r.db.Query(query, userA, userB, userB, userA)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(
			&m.ID, &m.FromUserID, &m.ToUserID, &m.Text, &m.Read, &m.Edited, &m.EditedAt, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// UpdateMessageText rewrites a message body and stamps the edit
func (r *MessageRepository) UpdateMessageText(id int64, text string) error {
	query := "UPDATE messages SET text = ?, edited = ?, edited_at = ? WHERE id = ?"
	if _, err := r.db.Exec(query, text, true, time.Now(), id); err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}
	return nil
}

// MarkConversationRead flags everything sent to the reader from the peer
func (r *MessageRepository) MarkConversationRead(readerID, peerID string) error {
	query := "UPDATE messages SET read = ? WHERE to_user_id = ? AND from_user_id = ? AND read = ?"
	if _, err := r.db.Exec(query, true, readerID, peerID, false); err != nil {
		return fmt.Errorf("failed to mark conversation read: %w", err)
	}
	return nil
}

// CountUnread counts unread messages addressed to the reader from the peer
func (r *MessageRepository) CountUnread(readerID, peerID string) (int, error) {
	query := "SELECT COUNT(*) FROM messages WHERE to_user_id = ? AND from_user_id = ? AND read = ?"
	var count int
	if err := r.db.QueryRow(query, readerID, peerID, false).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread: %w", err)
	}
	return count, nil
}

// DeleteMessage removes a message
func (r *MessageRepository) DeleteMessage(id int64) error {
	query := "DELETE FROM messages WHERE id = ?"
	if _, err := r.db.Exec(query, id); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}
