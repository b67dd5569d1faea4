package models

// Schedule is one entry of a member's daily schedule
type Schedule struct {
	ID        int64
	MemberID  int64
	Date      string // YYYY-MM-DD
	Time      string // HH:MM
	Title     string
	Type      string
	Location  string
	Completed bool
}

// Destination is a member's active destination. At most one row per member
// is active at a time.
type Destination struct {
	ID        int64
	MemberID  int64
	Name      string
	Latitude  float64
	Longitude float64
	Category  string
	IsActive  bool
}
