package models

import "time"

// Alert type values
const (
	AlertSOS     = "sos"
	AlertLost    = "lost"
	AlertArrival = "arrival"
)

// Alert is an append-only emergency or geofence-style event raised for a
// member and streamed to the linked parents.
type Alert struct {
	ID        int64
	MemberID  int64
	Type      string // 'sos', 'lost' or 'arrival'
	Message   string
	Read      bool
	CreatedAt time.Time
}
