package models

import "time"

// Presence status values
const (
	PresenceOnline  = "online"
	PresenceOffline = "offline"
)

// PresenceStaleness is the window beyond which a presence row is treated as
// offline regardless of its stored status. A client that crashes without
// reporting offline is shown online for at most this long.
const PresenceStaleness = 30 * time.Second

// Presence is the last-seen-based liveness signal for a user. It is upserted
// by a single writer (the user's own client) and has no authority beyond
// most-recent-write-wins.
type Presence struct {
	UserID   string
	Status   string
	LastSeen time.Time
}

// EffectiveStatus derives the status a reader should display at the given
// instant. The staleness window is the authoritative signal; the stored
// status string is only a fast path for rows written moments ago.
func (p Presence) EffectiveStatus(now time.Time) string {
	if now.Sub(p.LastSeen) < PresenceStaleness {
		return p.Status
	}
	return PresenceOffline
}
