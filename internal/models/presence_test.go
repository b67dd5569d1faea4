package models

import (
	"testing"
	"time"
)

func TestEffectiveStatus(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		stored   string
		lastSeen time.Time
		want     string
	}{
		{
			name:     "fresh online row",
			stored:   PresenceOnline,
			lastSeen: now,
			want:     PresenceOnline,
		},
		{
			name:     "just inside the window",
			stored:   PresenceOnline,
			lastSeen: now.Add(-PresenceStaleness + 100*time.Millisecond),
			want:     PresenceOnline,
		},
		{
			name:     "exactly at the window boundary",
			stored:   PresenceOnline,
			lastSeen: now.Add(-PresenceStaleness),
			want:     PresenceOffline,
		},
		{
			name:     "well past the window",
			stored:   PresenceOnline,
			lastSeen: now.Add(-40 * time.Second),
			want:     PresenceOffline,
		},
		{
			name:     "fresh offline report stays offline",
			stored:   PresenceOffline,
			lastSeen: now,
			want:     PresenceOffline,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Presence{UserID: "u1", Status: tt.stored, LastSeen: tt.lastSeen}
			if got := p.EffectiveStatus(now); got != tt.want {
				t.Errorf("EffectiveStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEffectiveStatusIsReadSideOnly(t *testing.T) {
	// The same stored row derives differently as time passes, without any
	// write in between.
	p := Presence{UserID: "u1", Status: PresenceOnline, LastSeen: time.Now()}

	if got := p.EffectiveStatus(p.LastSeen.Add(5 * time.Second)); got != PresenceOnline {
		t.Errorf("at +5s got %q, want online", got)
	}
	if got := p.EffectiveStatus(p.LastSeen.Add(35 * time.Second)); got != PresenceOffline {
		t.Errorf("at +35s got %q, want offline", got)
	}
}
