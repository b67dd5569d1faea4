package repository

import (
	"fmt"
	"time"

	"familysafe/internal/database"
	"familysafe/internal/models"
)

// GroupRepository handles groups, their membership, messages and read joins
type GroupRepository struct {
	db *database.DB
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db *database.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// CreateGroup creates a group and enrolls the creator as its first member
func (r *GroupRepository) CreateGroup(name, avatarURL, createdBy string) (*models.Group, error) {
	now := time.Now()
	id, err := r.db.ExecReturningID(
		"INSERT INTO groups (name, avatar_url, created_by, created_at) VALUES (?, ?, ?, ?)",
		name, avatarURL, createdBy, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	if err := r.AddMember(id, createdBy); err != nil {
		return nil, err
	}
	return &models.Group{ID: id, Name: name, AvatarURL: avatarURL, CreatedBy: createdBy, CreatedAt: now}, nil
}

// GetGroupByID retrieves a group
func (r *GroupRepository) GetGroupByID(id int64) (*models.Group, error) {
	query := "SELECT id, name, avatar_url, created_by, created_at FROM groups WHERE id = ?"
	g := &models.Group{}
	err := r.db.QueryRow(query, id).Scan(&g.ID, &g.Name, &g.AvatarURL, &g.CreatedBy, &g.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return g, nil
}

// GetGroupsForUser returns the groups a user belongs to
func (r *GroupRepository) GetGroupsForUser(userID string) ([]models.Group, error) {
	query := `
		SELECT g.id, g.name, g.avatar_url, g.created_by, g.created_at
		FROM groups g
		JOIN group_members gm ON gm.group_id = g.id
		WHERE gm.user_id = ?
		ORDER BY g.created_at
	`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.AvatarURL, &g.CreatedBy, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// UpdateGroup renames a group and updates its avatar
func (r *GroupRepository) UpdateGroup(id int64, name, avatarURL string) error {
	query := "UPDATE groups SET name = ?, avatar_url = ? WHERE id = ?"
	if _, err := r.db.Exec(query, name, avatarURL, id); err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	return nil
}

// TransferOwnership hands the creator role to another member
func (r *GroupRepository) TransferOwnership(id int64, newOwnerID string) error {
	query := "UPDATE groups SET created_by = ? WHERE id = ?"
	if _, err := r.db.Exec(query, newOwnerID, id); err != nil {
		return fmt.Errorf("failed to transfer group ownership: %w", err)
	}
	return nil
}

// DeleteGroup removes a group; membership, messages and reads cascade
func (r *GroupRepository) DeleteGroup(id int64) error {
	if _, err := r.db.Exec("DELETE FROM groups WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return nil
}

// AddMember enrolls a user in a group
func (r *GroupRepository) AddMember(groupID int64, userID string) error {
	query := "INSERT INTO group_members (group_id, user_id) VALUES (?, ?)"
	if _, err := r.db.Exec(query, groupID, userID); err != nil {
		return fmt.Errorf("failed to add group member: %w", err)
	}
	return nil
}

// RemoveMember drops a user from a group
func (r *GroupRepository) RemoveMember(groupID int64, userID string) error {
	query := "DELETE FROM group_members WHERE group_id = ? AND user_id = ?"
	if _, err := r.db.Exec(query, groupID, userID); err != nil {
		return fmt.Errorf("failed to remove group member: %w", err)
	}
	return nil
}

// IsMember checks group membership
func (r *GroupRepository) IsMember(groupID int64, userID string) (bool, error) {
	query := "SELECT COUNT(*) FROM group_members WHERE group_id = ? AND user_id = ?"
	var count int
	if err := r.db.QueryRow(query, groupID, userID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check group membership: %w", err)
	}
	return count > 0, nil
}

// GetMemberIDs returns the user ids enrolled in a group
func (r *GroupRepository) GetMemberIDs(groupID int64) ([]string, error) {
	rows, err := r.db.Query("SELECT user_id FROM group_members WHERE group_id = ?", groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query group members: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreateGroupMessage persists a group message
func (r *GroupRepository) CreateGroupMessage(groupID int64, fromUserID, text string) (*models.GroupMessage, error) {
	now := time.Now()
	id, err := r.db.ExecReturningID(
		"INSERT INTO group_messages (group_id, from_user_id, text, created_at) VALUES (?, ?, ?, ?)",
		groupID, fromUserID, text, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create group message: %w", err)
	}
	return &models.GroupMessage{
		ID:         id,
		GroupID:    groupID,
		FromUserID: fromUserID,
		Text:       text,
		CreatedAt:  now,
	}, nil
}

// GetGroupMessageByID retrieves a group message without its read set
func (r *GroupRepository) GetGroupMessageByID(id int64) (*models.GroupMessage, error) {
	query := "SELECT id, group_id, from_user_id, text, edited, edited_at, created_at FROM group_messages WHERE id = ?"
	m := &models.GroupMessage{}
	err := r.db.QueryRow(query, id).Scan(&m.ID, &m.GroupID, &m.FromUserID, &m.Text, &m.Edited, &m.EditedAt, &m.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group message: %w", err)
	}
	return m, nil
}

// GetGroupMessages returns the newest messages for a group in send order,
// capped at limit, each carrying the ids of accounts that have read it.
func (r *GroupRepository) GetGroupMessages(groupID int64, limit int) ([]models.GroupMessage, error) {
	query := `
		SELECT id, group_id, from_user_id, text, edited, edited_at, created_at
		FROM (
			SELECT id, group_id, from_user_id, text, edited, edited_at, created_at
			FROM group_messages
			WHERE group_id = ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		) page
		ORDER BY created_at, id
	`
	rows, err := r.db.Query(query, groupID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query group messages: %w", err)
	}
	defer rows.Close()

	var messages []models.GroupMessage
	for rows.Next() {
		var m models.GroupMessage
		if err := rows.Scan(&m.ID, &m.GroupID, &m.FromUserID, &m.Text, &m.Edited, &m.EditedAt, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachReadSets(messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *GroupRepository) attachReadSets(messages []models.GroupMessage) error {
	if len(messages) == 0 {
		return nil
	}
	ids := make([]interface{}, len(messages))
	index := make(map[int64]int, len(messages))
	for i := range messages {
		ids[i] = messages[i].ID
		index[messages[i].ID] = i
	}
	query := "SELECT message_id, user_id FROM group_message_reads WHERE message_id IN (" +
		database.Placeholders(len(ids)) + ")"
	rows, err := r.db.Query(query, ids...)
	if err != nil {
		return fmt.Errorf("failed to query read receipts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var messageID int64
		var userID string
		if err := rows.Scan(&messageID, &userID); err != nil {
			return fmt.Errorf("failed to scan read receipt: %w", err)
		}
		if i, ok := index[messageID]; ok {
			messages[i].ReadBy = append(messages[i].ReadBy, userID)
		}
	}
	return rows.Err()
}

// UpdateGroupMessageText rewrites a group message body and stamps the edit
func (r *GroupRepository) UpdateGroupMessageText(id int64, text string) error {
	query := "UPDATE group_messages SET text = ?, edited = ?, edited_at = ? WHERE id = ?"
	if _, err := r.db.Exec(query, text, true, time.Now(), id); err != nil {
		return fmt.Errorf("failed to update group message: %w", err)
	}
	return nil
}

// DeleteGroupMessage removes a group message; its read join rows cascade
func (r *GroupRepository) DeleteGroupMessage(id int64) error {
	if _, err := r.db.Exec("DELETE FROM group_messages WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete group message: %w", err)
	}
	return nil
}

// MarkMessageRead upserts a read receipt. Re-reading is a no-op, so the
// receipt set never counts the same reader twice.
func (r *GroupRepository) MarkMessageRead(messageID int64, userID string) error {
	query := r.db.Dialect.UpsertQuery(
		"group_message_reads",
		[]string{"message_id", "user_id", "read_at"},
		[]string{"message_id", "user_id"},
		[]string{"read_at"},
	)
	if _, err := r.db.Exec(query, messageID, userID, time.Now()); err != nil {
		return fmt.Errorf("failed to mark group message read: %w", err)
	}
	return nil
}

// GetReadUserIDs returns the ids of accounts that have read a message
func (r *GroupRepository) GetReadUserIDs(messageID int64) ([]string, error) {
	rows, err := r.db.Query("SELECT user_id FROM group_message_reads WHERE message_id = ?", messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query read receipts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan read receipt: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
