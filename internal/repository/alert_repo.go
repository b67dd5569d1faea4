package repository

import (
	"fmt"
	"time"

	"familysafe/internal/database"
	"familysafe/internal/models"
)

// AlertRepository handles alert rows raised by members
type AlertRepository struct {
	db *database.DB
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *database.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// CreateAlert records a new alert for a member
func (r *AlertRepository) CreateAlert(memberID int64, alertType, message string) (*models.Alert, error) {
	now := time.Now()
	query := "INSERT INTO alerts (member_id, type, message, read, created_at) VALUES (?, ?, ?, ?, ?)"
	id, err := r.db.ExecReturningID(query, memberID, alertType, message, false, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}
	return &models.Alert{
		ID:        id,
		MemberID:  memberID,
		Type:      alertType,
		Message:   message,
		CreatedAt: now,
	}, nil
}

// GetAlertByID retrieves a single alert
func (r *AlertRepository) GetAlertByID(id int64) (*models.Alert, error) {
	query := "SELECT id, member_id, type, message, read, created_at FROM alerts WHERE id = ?"
	a := &models.Alert{}
	err := r.db.QueryRow(query, id).Scan(&a.ID, &a.MemberID, &a.Type, &a.Message, &a.Read, &a.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return a, nil
}

// GetAlertsByMemberIDs returns alerts for a set of members, newest first.
// Callers pass the member ids they are authorized to see; an empty set
// yields no rows rather than all rows.
func (r *AlertRepository) GetAlertsByMemberIDs(memberIDs []int64) ([]models.Alert, error) {
	if len(memberIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT id, member_id, type, message, read, created_at
		FROM alerts
		WHERE member_id IN (` + database.Placeholders(len(memberIDs)) + `)
		ORDER BY created_at DESC
	`
	args := make([]interface{}, len(memberIDs))
	for i, id := range memberIDs {
		args[i] = id
	}
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		var a models.Alert
		if err := rows.Scan(&a.ID, &a.MemberID, &a.Type, &a.Message, &a.Read, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// MarkRead flags an alert as read
func (r *AlertRepository) MarkRead(id int64) error {
	query := "UPDATE alerts SET read = ? WHERE id = ?"
	if _, err := r.db.Exec(query, true, id); err != nil {
		return fmt.Errorf("failed to mark alert read: %w", err)
	}
	return nil
}

// DeleteAlert removes an alert
func (r *AlertRepository) DeleteAlert(id int64) error {
	query := "DELETE FROM alerts WHERE id = ?"
	if _, err := r.db.Exec(query, id); err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}
	return nil
}
