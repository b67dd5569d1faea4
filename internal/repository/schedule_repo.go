package repository

import (
	"fmt"

	"familysafe/internal/database"
	"familysafe/internal/models"
)

// ScheduleRepository handles schedule rows attached to members
type ScheduleRepository struct {
	db *database.DB
}

// NewScheduleRepository creates a new schedule repository
func NewScheduleRepository(db *database.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// CreateSchedule adds a schedule item for a member
func (r *ScheduleRepository) CreateSchedule(s *models.Schedule) (*models.Schedule, error) {
	query := `
		INSERT INTO schedules (member_id, date, time, title, type, location, completed)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, s.MemberID, s.Date, s.Time, s.Title, s.Type, s.Location, s.Completed)
	if err != nil {
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}
	created := *s
	created.ID = id
	return &created, nil
}

// GetSchedulesForDate returns a member's schedule items for a single date,
// ordered by time
func (r *ScheduleRepository) GetSchedulesForDate(memberID int64, date string) ([]models.Schedule, error) {
	query := `
		SELECT id, member_id, date, time, title, type, location, completed
		FROM schedules
		WHERE member_id = ? AND date = ?
		ORDER BY time
	`
	rows, err := r.db.Query(query, memberID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}
	defer rows.Close()

	var schedules []models.Schedule
	for rows.Next() {
		var s models.Schedule
		if err := rows.Scan(&s.ID, &s.MemberID, &s.Date, &s.Time, &s.Title, &s.Type, &s.Location, &s.Completed); err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}

// GetScheduleByID retrieves a single schedule item
func (r *ScheduleRepository) GetScheduleByID(id int64) (*models.Schedule, error) {
	query := `
		SELECT id, member_id, date, time, title, type, location, completed
		FROM schedules WHERE id = ?
	`
	s := &models.Schedule{}
	err := r.db.QueryRow(query, id).Scan(&s.ID, &s.MemberID, &s.Date, &s.Time, &s.Title, &s.Type, &s.Location, &s.Completed)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return s, nil
}

// UpdateSchedule rewrites a schedule item's fields
func (r *ScheduleRepository) UpdateSchedule(s *models.Schedule) error {
	query := `
		UPDATE schedules
		SET date = ?, time = ?, title = ?, type = ?, location = ?, completed = ?
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, s.Date, s.Time, s.Title, s.Type, s.Location, s.Completed, s.ID); err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}
	return nil
}

// DeleteSchedule removes a schedule item
func (r *ScheduleRepository) DeleteSchedule(id int64) error {
	query := "DELETE FROM schedules WHERE id = ?"
	if _, err := r.db.Exec(query, id); err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	return nil
}
