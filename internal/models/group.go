package models

import "time"

// Group is a chat group. The creator is the admin until the role is
// transferred.
type Group struct {
	ID        int64
	Name      string
	AvatarURL string
	CreatedBy string
	CreatedAt time.Time
}

// GroupMember is the membership join between a group and a user
type GroupMember struct {
	ID      int64
	GroupID int64
	UserID  string
}

// GroupMessage mirrors a direct message plus a set of reader ids accumulated
// from the read join.
type GroupMessage struct {
	ID         int64
	GroupID    int64
	FromUserID string
	Text       string
	Edited     bool
	EditedAt   *time.Time
	CreatedAt  time.Time
	ReadBy     []string
}

// ReadCount returns the number of distinct readers excluding the author.
func (m *GroupMessage) ReadCount() int {
	seen := make(map[string]bool, len(m.ReadBy))
	count := 0
	for _, id := range m.ReadBy {
		if id == m.FromUserID || seen[id] {
			continue
		}
		seen[id] = true
		count++
	}
	return count
}

// GroupMessageRead is one row of the append-only read join
type GroupMessageRead struct {
	MessageID int64
	UserID    string
	ReadAt    time.Time
}
