package models

import "time"

// Member status values
const (
	StatusSafe    = "safe"
	StatusWarning = "warning"
	StatusDanger  = "danger"
)

// Member is a child's trackable state, distinct from the owning profile.
// One row per child account, created lazily on first child login.
type Member struct {
	ID         int64
	UserID     string
	Name       string
	Status     string // 'safe', 'warning' or 'danger'
	Latitude   float64
	Longitude  float64
	Address    string
	Battery    int
	GPSEnabled bool
	LastUpdate time.Time
}

// ParentChildLink is the many-to-many edge between parent and child accounts
type ParentChildLink struct {
	ID       int64
	ParentID string
	ChildID  string
}

// MemberView is the denormalized per-child view a parent's roster is built
// from: the member row hydrated with profile, schedule, destination and
// recent history.
type MemberView struct {
	Member
	AvatarURL   string
	Schedule    []Schedule
	Destination *Destination
	History     []LocationEntry
}

// LocationEntry is one append-only location history row
type LocationEntry struct {
	ID        int64
	MemberID  int64
	Latitude  float64
	Longitude float64
	Address   string
	CreatedAt time.Time
}
