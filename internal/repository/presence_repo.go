package repository

import (
	"fmt"
	"time"

	"familysafe/internal/database"
	"familysafe/internal/models"
)

// PresenceRepository handles the heartbeat rows behind online indicators
type PresenceRepository struct {
	db *database.DB
}

// NewPresenceRepository creates a new presence repository
func NewPresenceRepository(db *database.DB) *PresenceRepository {
	return &PresenceRepository{db: db}
}

// Upsert records a heartbeat, inserting or refreshing the row for the user
func (r *PresenceRepository) Upsert(userID, status string, lastSeen time.Time) error {
	query := r.db.Dialect.UpsertQuery(
		"user_presence",
		[]string{"user_id", "status", "last_seen"},
		[]string{"user_id"},
		[]string{"status", "last_seen"},
	)
	if _, err := r.db.Exec(query, userID, status, lastSeen); err != nil {
		return fmt.Errorf("failed to upsert presence: %w", err)
	}
	return nil
}

// Get retrieves the stored presence row for a user
func (r *PresenceRepository) Get(userID string) (*models.Presence, error) {
	query := "SELECT user_id, status, last_seen FROM user_presence WHERE user_id = ?"
	p := &models.Presence{}
	err := r.db.QueryRow(query, userID).Scan(&p.UserID, &p.Status, &p.LastSeen)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get presence: %w", err)
	}
	return p, nil
}

// GetMany retrieves stored presence rows for a set of users. Users with no
// row yet are simply absent from the result.
func (r *PresenceRepository) GetMany(userIDs []string) ([]models.Presence, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	query := "SELECT user_id, status, last_seen FROM user_presence WHERE user_id IN (" +
		database.Placeholders(len(userIDs)) + ")"
	args := make([]interface{}, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query presence: %w", err)
	}
	defer rows.Close()

	var presences []models.Presence
	for rows.Next() {
		var p models.Presence
		if err := rows.Scan(&p.UserID, &p.Status, &p.LastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan presence: %w", err)
		}
		presences = append(presences, p)
	}
	return presences, rows.Err()
}
