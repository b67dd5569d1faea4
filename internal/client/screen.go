package client

import "familysafe/internal/models"

// Screen is the top-level view a session lands on. The set is closed; adding
// a screen means touching every switch over it.
type Screen int

const (
	// ScreenLanding is the logged-out entry point.
	ScreenLanding Screen = iota
	// ScreenRoleSelect is shown once, after first login, until a role is chosen.
	ScreenRoleSelect
	// ScreenParentHome is the roster view for parent accounts.
	ScreenParentHome
	// ScreenChildHome is the self view for child accounts.
	ScreenChildHome
)

func (s Screen) String() string {
	switch s {
	case ScreenLanding:
		return "landing"
	case ScreenRoleSelect:
		return "role-select"
	case ScreenParentHome:
		return "parent-home"
	case ScreenChildHome:
		return "child-home"
	default:
		return "unknown"
	}
}

// ScreenFor routes a session to its screen from the profile alone.
func ScreenFor(p *models.Profile) Screen {
	if p == nil {
		return ScreenLanding
	}
	if p.NeedsRoleSelection() {
		return ScreenRoleSelect
	}
	if p.Role == models.RoleParent {
		return ScreenParentHome
	}
	return ScreenChildHome
}
