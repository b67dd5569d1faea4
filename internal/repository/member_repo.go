package repository

import (
	"database/sql"
	"fmt"
	"time"

	"familysafe/internal/database"
	"familysafe/internal/models"
)

// MemberRepository handles database operations for member rows
type MemberRepository struct {
	db *database.DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *database.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

const memberColumns = `id, user_id, name, status, latitude, longitude, address, battery, gps_enabled, last_update`

func scanMember(row interface{ Scan(...interface{}) error }) (*models.Member, error) {
	m := &models.Member{}
	err := row.Scan(
		&m.ID, &m.UserID, &m.Name, &m.Status, &m.Latitude, &m.Longitude,
		&m.Address, &m.Battery, &m.GPSEnabled, &m.LastUpdate,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan member: %w", err)
	}
	return m, nil
}

// CreateMember creates the trackable row for a child account
func (r *MemberRepository) CreateMember(m *models.Member) (*models.Member, error) {
	query := `
		INSERT INTO members (user_id, name, status, latitude, longitude, address, battery, gps_enabled, last_update)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		m.UserID, m.Name, m.Status, m.Latitude, m.Longitude, m.Address,
		m.Battery, m.GPSEnabled, m.LastUpdate,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create member: %w", err)
	}
	created := *m
	created.ID = id
	return &created, nil
}

// GetMemberByID retrieves a member by its row id
func (r *MemberRepository) GetMemberByID(id int64) (*models.Member, error) {
	query := "SELECT " + memberColumns + " FROM members WHERE id = ?"
	return scanMember(r.db.QueryRow(query, id))
}

// GetMemberByUserID retrieves the member row owned by a child account
func (r *MemberRepository) GetMemberByUserID(userID string) (*models.Member, error) {
	query := "SELECT " + memberColumns + " FROM members WHERE user_id = ?"
	return scanMember(r.db.QueryRow(query, userID))
}

// GetMembersByUserIDs retrieves member rows for a set of child accounts
func (r *MemberRepository) GetMembersByUserIDs(userIDs []string) ([]models.Member, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	query := "SELECT " + memberColumns + " FROM members WHERE user_id IN (" + database.Placeholders(len(userIDs)) + ")"
	args := make([]interface{}, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(
			&m.ID, &m.UserID, &m.Name, &m.Status, &m.Latitude, &m.Longitude,
			&m.Address, &m.Battery, &m.GPSEnabled, &m.LastUpdate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// UpdateLocation writes a position fix into the member row
func (r *MemberRepository) UpdateLocation(id int64, lat, lng float64, address string, battery int, at time.Time) error {
	query := `
		UPDATE members
		SET latitude = ?, longitude = ?, address = ?, battery = ?, last_update = ?
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, lat, lng, address, battery, at, id); err != nil {
		return fmt.Errorf("failed to update member location: %w", err)
	}
	return nil
}

// UpdateStatus sets a member's safety status
func (r *MemberRepository) UpdateStatus(id int64, status string) error {
	query := "UPDATE members SET status = ? WHERE id = ?"
	if _, err := r.db.Exec(query, status, id); err != nil {
		return fmt.Errorf("failed to update member status: %w", err)
	}
	return nil
}

// UpdateBattery writes the battery level reported by the child device
func (r *MemberRepository) UpdateBattery(id int64, battery int) error {
	query := "UPDATE members SET battery = ? WHERE id = ?"
	if _, err := r.db.Exec(query, battery, id); err != nil {
		return fmt.Errorf("failed to update member battery: %w", err)
	}
	return nil
}

// SetGPSEnabled flips the tracking flag. The flag in storage is the single
// source of truth for whether the child device should be watching.
func (r *MemberRepository) SetGPSEnabled(id int64, enabled bool) error {
	query := "UPDATE members SET gps_enabled = ? WHERE id = ?"
	if _, err := r.db.Exec(query, enabled, id); err != nil {
		return fmt.Errorf("failed to set gps flag: %w", err)
	}
	return nil
}
