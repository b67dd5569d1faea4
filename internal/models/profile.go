package models

import "time"

// Role values for a profile. A profile created at signup may carry an empty
// role until the user completes the role-selection step.
const (
	RoleParent = "parent"
	RoleChild  = "child"
)

// Profile is the identity record for a parent or child account.
// The ID is the immutable auth identifier (a UUID string); name, phone and
// avatar are mutable.
type Profile struct {
	ID            string
	Email         string
	PasswordHash  string
	OAuthProvider string
	OAuthSubject  string
	Name          string
	Role          string // 'parent', 'child' or '' before role selection
	Phone         string
	AvatarURL     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NeedsRoleSelection reports whether the account still has to pick a role.
func (p *Profile) NeedsRoleSelection() bool {
	return p.Role == ""
}

// Session represents an authenticated login session
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
