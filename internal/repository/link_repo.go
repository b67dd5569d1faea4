package repository

import (
	"fmt"

	"familysafe/internal/database"
	"familysafe/internal/models"
)

// LinkRepository handles the parent-child edges of the family graph
type LinkRepository struct {
	db *database.DB
}

// NewLinkRepository creates a new link repository
func NewLinkRepository(db *database.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// CreateLink adds a parent->child edge
func (r *LinkRepository) CreateLink(parentID, childID string) (*models.ParentChildLink, error) {
	query := "INSERT INTO parent_children (parent_id, child_id) VALUES (?, ?)"
	id, err := r.db.ExecReturningID(query, parentID, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to create link: %w", err)
	}
	return &models.ParentChildLink{ID: id, ParentID: parentID, ChildID: childID}, nil
}

// LinkExists checks whether a parent is already linked to a child
func (r *LinkRepository) LinkExists(parentID, childID string) (bool, error) {
	query := "SELECT COUNT(*) FROM parent_children WHERE parent_id = ? AND child_id = ?"
	var count int
	if err := r.db.QueryRow(query, parentID, childID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check link: %w", err)
	}
	return count > 0, nil
}

// GetChildIDs returns the child account ids linked to a parent
func (r *LinkRepository) GetChildIDs(parentID string) ([]string, error) {
	query := "SELECT child_id FROM parent_children WHERE parent_id = ?"
	rows, err := r.db.Query(query, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query child links: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetParentIDs returns the parent account ids linked to a child
func (r *LinkRepository) GetParentIDs(childID string) ([]string, error) {
	query := "SELECT parent_id FROM parent_children WHERE child_id = ?"
	rows, err := r.db.Query(query, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to query parent links: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteLink removes a parent->child edge
func (r *LinkRepository) DeleteLink(parentID, childID string) error {
	query := "DELETE FROM parent_children WHERE parent_id = ? AND child_id = ?"
	if _, err := r.db.Exec(query, parentID, childID); err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}
	return nil
}
