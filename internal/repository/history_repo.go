package repository

import (
	"fmt"
	"time"

	"familysafe/internal/database"
	"familysafe/internal/models"
)

// HistoryRepository handles the location history trail for members
type HistoryRepository struct {
	db *database.DB
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *database.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// AddEntry appends a position fix to a member's trail
func (r *HistoryRepository) AddEntry(memberID int64, lat, lng float64, address string, at time.Time) (*models.LocationEntry, error) {
	query := `
		INSERT INTO location_history (member_id, latitude, longitude, address, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, memberID, lat, lng, address, at)
	if err != nil {
		return nil, fmt.Errorf("failed to add history entry: %w", err)
	}
	return &models.LocationEntry{
		ID:        id,
		MemberID:  memberID,
		Latitude:  lat,
		Longitude: lng,
		Address:   address,
		CreatedAt: at,
	}, nil
}

// GetRecent returns the newest entries for a member, newest first, capped at limit
func (r *HistoryRepository) GetRecent(memberID int64, limit int) ([]models.LocationEntry, error) {
	query := `
		SELECT id, member_id, latitude, longitude, address, created_at
		FROM location_history
		WHERE member_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`
	rows, err := r.db.Query(query, memberID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []models.LocationEntry
	for rows.Next() {
		var e models.LocationEntry
		if err := rows.Scan(&e.ID, &e.MemberID, &e.Latitude, &e.Longitude, &e.Address, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteOlderThan prunes entries created before the cutoff
func (r *HistoryRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	query := "DELETE FROM location_history WHERE created_at < ?"
	result, err := r.db.Exec(query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}
