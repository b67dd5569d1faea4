package repository

import (
	"database/sql"
	"fmt"
	"time"

	"familysafe/internal/database"
	"familysafe/internal/models"
)

// ProfileRepository handles database operations for profiles and sessions
type ProfileRepository struct {
	db *database.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *database.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `id, email, password_hash, oauth_provider, oauth_subject, name, role, phone, avatar_url, created_at, updated_at`

func scanProfile(row interface{ Scan(...interface{}) error }) (*models.Profile, error) {
	p := &models.Profile{}
	err := row.Scan(
		&p.ID, &p.Email, &p.PasswordHash, &p.OAuthProvider, &p.OAuthSubject,
		&p.Name, &p.Role, &p.Phone, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}
	return p, nil
}

// CreateProfile creates a new profile row. Role may be empty; the
// role-selection step fills it in later.
func (r *ProfileRepository) CreateProfile(id, email, passwordHash string) (*models.Profile, error) {
	query := "INSERT INTO profiles (id, email, password_hash) VALUES (?, ?, ?)"
	if _, err := r.db.Exec(query, id, email, passwordHash); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return &models.Profile{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}, nil
}

// GetProfileByID retrieves a profile by its id
func (r *ProfileRepository) GetProfileByID(id string) (*models.Profile, error) {
	query := "SELECT " + profileColumns + " FROM profiles WHERE id = ?"
	return scanProfile(r.db.QueryRow(query, id))
}

// GetProfileByEmail retrieves a profile by email
func (r *ProfileRepository) GetProfileByEmail(email string) (*models.Profile, error) {
	query := "SELECT " + profileColumns + " FROM profiles WHERE email = ?"
	return scanProfile(r.db.QueryRow(query, email))
}

// GetProfileByOAuth retrieves a profile by OAuth provider and subject
func (r *ProfileRepository) GetProfileByOAuth(provider, subject string) (*models.Profile, error) {
	query := "SELECT " + profileColumns + " FROM profiles WHERE oauth_provider = ? AND oauth_subject = ?"
	return scanProfile(r.db.QueryRow(query, provider, subject))
}

// GetProfilesByIDs retrieves profiles for a set of ids
func (r *ProfileRepository) GetProfilesByIDs(ids []string) ([]models.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := "SELECT " + profileColumns + " FROM profiles WHERE id IN (" + database.Placeholders(len(ids)) + ")"
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(
			&p.ID, &p.Email, &p.PasswordHash, &p.OAuthProvider, &p.OAuthSubject,
			&p.Name, &p.Role, &p.Phone, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// CompleteProfile sets the role and name chosen at the role-selection step
func (r *ProfileRepository) CompleteProfile(id, name, role, phone string) error {
	query := "UPDATE profiles SET name = ?, role = ?, phone = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := r.db.Exec(query, name, role, phone, id); err != nil {
		return fmt.Errorf("failed to complete profile: %w", err)
	}
	return nil
}

// UpdateProfile updates the mutable profile fields
func (r *ProfileRepository) UpdateProfile(id, name, phone string) error {
	query := "UPDATE profiles SET name = ?, phone = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := r.db.Exec(query, name, phone, id); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// UpdateAvatarURL sets a profile's avatar URL
func (r *ProfileRepository) UpdateAvatarURL(id, avatarURL string) error {
	query := "UPDATE profiles SET avatar_url = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := r.db.Exec(query, avatarURL, id); err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	return nil
}

// LinkOAuthProvider attaches an OAuth identity to an existing profile
func (r *ProfileRepository) LinkOAuthProvider(id, provider, subject string) error {
	query := "UPDATE profiles SET oauth_provider = ?, oauth_subject = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := r.db.Exec(query, provider, subject, id); err != nil {
		return fmt.Errorf("failed to link oauth provider: %w", err)
	}
	return nil
}

// CreateSession creates a new session row
func (r *ProfileRepository) CreateSession(sessionID, userID string, expiresAt time.Time) (*models.Session, error) {
	query := "INSERT INTO sessions (id, user_id, expires_at) VALUES (?, ?, ?)"
	if _, err := r.db.Exec(query, sessionID, userID, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &models.Session{ID: sessionID, UserID: userID, ExpiresAt: expiresAt}, nil
}

// GetSession retrieves a session by id
func (r *ProfileRepository) GetSession(sessionID string) (*models.Session, error) {
	query := "SELECT id, user_id, expires_at FROM sessions WHERE id = ?"
	s := &models.Session{}
	err := r.db.QueryRow(query, sessionID).Scan(&s.ID, &s.UserID, &s.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

// DeleteSession removes a session
func (r *ProfileRepository) DeleteSession(sessionID string) error {
	query := "DELETE FROM sessions WHERE id = ?"
	if _, err := r.db.Exec(query, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all expired sessions
func (r *ProfileRepository) DeleteExpiredSessions() error {
	query := "DELETE FROM sessions WHERE expires_at < ?"
	if _, err := r.db.Exec(query, time.Now()); err != nil {
		return fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return nil
}
