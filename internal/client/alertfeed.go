package client

import (
	"sync"

	"familysafe/internal/models"
)

// Directory answers which member rows a user is authorized to see.
type Directory interface {
	AuthorizedMemberIDs(userID string) ([]int64, error)
}

// AlertFeed is a user's live alert inbox. Streamed alerts pass an
// authorization check against a cached set of member ids derived from the
// family graph; the cache refills lazily and is dropped whenever the graph
// changes, so a freshly linked child's alerts appear without a reconnect.
type AlertFeed struct {
	directory Directory
	userID    string

	mu      sync.Mutex
	allowed map[int64]bool
	cached  bool
	alerts  []models.Alert
	seen    map[int64]bool
}

// NewAlertFeed creates an empty feed for the user.
func NewAlertFeed(directory Directory, userID string) *AlertFeed {
	return &AlertFeed{
		directory: directory,
		userID:    userID,
		seen:      make(map[int64]bool),
	}
}

// Load replaces the feed with a fetched page.
func (f *AlertFeed) Load(alerts []models.Alert) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = make([]models.Alert, 0, len(alerts))
	f.seen = make(map[int64]bool, len(alerts))
	for _, a := range alerts {
		if f.seen[a.ID] {
			continue
		}
		f.seen[a.ID] = true
		f.alerts = append(f.alerts, a)
	}
}

// Accept folds a streamed alert in if the caller may see it. Returns whether
// the alert was added.
func (f *AlertFeed) Accept(a models.Alert) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.cached {
		ids, err := f.directory.AuthorizedMemberIDs(f.userID)
		if err != nil {
			return false, err
		}
		f.allowed = make(map[int64]bool, len(ids))
		for _, id := range ids {
			f.allowed[id] = true
		}
		f.cached = true
	}

	if !f.allowed[a.MemberID] || f.seen[a.ID] {
		return false, nil
	}
	f.seen[a.ID] = true
	f.alerts = append([]models.Alert{a}, f.alerts...)
	return true, nil
}

// MarkRead flags an alert read locally.
func (f *AlertFeed) MarkRead(alertID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.alerts {
		if f.alerts[i].ID == alertID {
			f.alerts[i].Read = true
			return
		}
	}
}

// Remove drops an alert from the feed.
func (f *AlertFeed) Remove(alertID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.alerts {
		if f.alerts[i].ID == alertID {
			f.alerts = append(f.alerts[:i], f.alerts[i+1:]...)
			return
		}
	}
}

// InvalidateGraph drops the cached authorization set. The next Accept
// re-derives it from the directory.
func (f *AlertFeed) InvalidateGraph() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cached = false
	f.allowed = nil
}

// Snapshot returns the alerts in feed order, newest first.
func (f *AlertFeed) Snapshot() []models.Alert {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Alert, len(f.alerts))
	copy(out, f.alerts)
	return out
}

// UnreadCount returns how many alerts are unread.
func (f *AlertFeed) UnreadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, a := range f.alerts {
		if !a.Read {
			count++
		}
	}
	return count
}
