package client

import (
	"errors"
	"sync"
	"testing"
	"time"

	"familysafe/internal/models"
)

type recordingSender struct {
	mu       sync.Mutex
	statuses []string
	fail     bool
}

func (s *recordingSender) Heartbeat(status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("upstream unavailable")
	}
	s.statuses = append(s.statuses, status)
	return nil
}

func (s *recordingSender) recorded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.statuses))
	copy(out, s.statuses)
	return out
}

func TestTrackerStartStopBeats(t *testing.T) {
	sender := &recordingSender{}
	tracker := &Tracker{sender: sender, interval: time.Hour}

	tracker.Start()
	tracker.Stop()

	got := sender.recorded()
	if len(got) != 2 {
		t.Fatalf("recorded %v, want online then offline", got)
	}
	if got[0] != models.PresenceOnline {
		t.Errorf("first beat = %q, want online", got[0])
	}
	if got[1] != models.PresenceOffline {
		t.Errorf("final beat = %q, want offline", got[1])
	}
}

func TestTrackerTicks(t *testing.T) {
	sender := &recordingSender{}
	tracker := &Tracker{sender: sender, interval: 10 * time.Millisecond}

	tracker.Start()
	time.Sleep(55 * time.Millisecond)
	tracker.Stop()

	got := sender.recorded()
	// Immediate beat plus at least a couple of ticks plus the offline beat.
	if len(got) < 4 {
		t.Fatalf("recorded only %d beats: %v", len(got), got)
	}
	for _, status := range got[:len(got)-1] {
		if status != models.PresenceOnline {
			t.Errorf("loop beat = %q, want online", status)
		}
	}
	if got[len(got)-1] != models.PresenceOffline {
		t.Errorf("final beat = %q, want offline", got[len(got)-1])
	}
}

func TestTrackerStartIsIdempotent(t *testing.T) {
	sender := &recordingSender{}
	tracker := &Tracker{sender: sender, interval: time.Hour}

	tracker.Start()
	tracker.Start()
	tracker.Stop()
	tracker.Stop()

	if got := sender.recorded(); len(got) != 2 {
		t.Errorf("recorded %v, double start/stop should not add beats", got)
	}
}

func TestTrackerStopBeforeStart(t *testing.T) {
	sender := &recordingSender{}
	tracker := &Tracker{sender: sender, interval: time.Hour}

	tracker.Stop()
	if got := sender.recorded(); len(got) != 0 {
		t.Errorf("recorded %v, want nothing", got)
	}
}

func TestTrackerSetHidden(t *testing.T) {
	sender := &recordingSender{}
	tracker := &Tracker{sender: sender, interval: time.Hour}

	// Hidden before start is ignored.
	tracker.SetHidden(true)
	if got := sender.recorded(); len(got) != 0 {
		t.Fatalf("recorded %v before start", got)
	}

	tracker.Start()
	tracker.SetHidden(true)
	tracker.SetHidden(false)
	tracker.Stop()

	want := []string{
		models.PresenceOnline,
		models.PresenceOffline,
		models.PresenceOnline,
		models.PresenceOffline,
	}
	got := sender.recorded()
	if len(got) != len(want) {
		t.Fatalf("recorded %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("beat %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTrackerSurvivesSendFailures(t *testing.T) {
	sender := &recordingSender{fail: true}
	tracker := &Tracker{sender: sender, interval: time.Hour}

	tracker.Start()
	sender.mu.Lock()
	sender.fail = false
	sender.mu.Unlock()
	tracker.Stop()

	got := sender.recorded()
	if len(got) != 1 || got[0] != models.PresenceOffline {
		t.Errorf("recorded %v, want just the offline beat after recovery", got)
	}
}
