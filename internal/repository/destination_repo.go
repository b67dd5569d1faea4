package repository

import (
	"fmt"

	"familysafe/internal/database"
	"familysafe/internal/models"
)

// DestinationRepository handles saved destinations attached to members
type DestinationRepository struct {
	db *database.DB
}

// NewDestinationRepository creates a new destination repository
func NewDestinationRepository(db *database.DB) *DestinationRepository {
	return &DestinationRepository{db: db}
}

// CreateDestination adds a saved place for a member
func (r *DestinationRepository) CreateDestination(d *models.Destination) (*models.Destination, error) {
	query := `
		INSERT INTO destinations (member_id, name, latitude, longitude, category, is_active)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, d.MemberID, d.Name, d.Latitude, d.Longitude, d.Category, d.IsActive)
	if err != nil {
		return nil, fmt.Errorf("failed to create destination: %w", err)
	}
	created := *d
	created.ID = id
	return &created, nil
}

// GetDestinationsByMember returns a member's saved places
func (r *DestinationRepository) GetDestinationsByMember(memberID int64) ([]models.Destination, error) {
	query := `
		SELECT id, member_id, name, latitude, longitude, category, is_active
		FROM destinations
		WHERE member_id = ?
		ORDER BY id
	`
	rows, err := r.db.Query(query, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to query destinations: %w", err)
	}
	defer rows.Close()

	var destinations []models.Destination
	for rows.Next() {
		var d models.Destination
		if err := rows.Scan(&d.ID, &d.MemberID, &d.Name, &d.Latitude, &d.Longitude, &d.Category, &d.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan destination: %w", err)
		}
		destinations = append(destinations, d)
	}
	return destinations, rows.Err()
}

// GetDestinationByID retrieves a single destination
func (r *DestinationRepository) GetDestinationByID(id int64) (*models.Destination, error) {
	query := `
		SELECT id, member_id, name, latitude, longitude, category, is_active
		FROM destinations WHERE id = ?
	`
	d := &models.Destination{}
	err := r.db.QueryRow(query, id).Scan(&d.ID, &d.MemberID, &d.Name, &d.Latitude, &d.Longitude, &d.Category, &d.IsActive)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get destination: %w", err)
	}
	return d, nil
}

// SetActive marks one destination active for a member and clears the rest
func (r *DestinationRepository) SetActive(memberID, destinationID int64) error {
	if _, err := r.db.Exec("UPDATE destinations SET is_active = ? WHERE member_id = ?", false, memberID); err != nil {
		return fmt.Errorf("failed to clear active destinations: %w", err)
	}
	if _, err := r.db.Exec("UPDATE destinations SET is_active = ? WHERE id = ? AND member_id = ?", true, destinationID, memberID); err != nil {
		return fmt.Errorf("failed to set active destination: %w", err)
	}
	return nil
}

// DeleteDestination removes a saved place
func (r *DestinationRepository) DeleteDestination(id int64) error {
	query := "DELETE FROM destinations WHERE id = ?"
	if _, err := r.db.Exec(query, id); err != nil {
		return fmt.Errorf("failed to delete destination: %w", err)
	}
	return nil
}
