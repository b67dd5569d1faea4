package client

import (
	"log"
	"sync"
	"time"

	"familysafe/internal/models"
)

// HeartbeatInterval is how often a live session reports itself online. It
// must stay well inside the server's staleness window or sessions flicker
// offline between beats.
const HeartbeatInterval = 5 * time.Second

// HeartbeatSender reports a presence status upstream.
type HeartbeatSender interface {
	Heartbeat(status string) error
}

// Tracker keeps a session's presence fresh: one beat immediately on start,
// then one per interval, and a final offline report on stop. Send failures
// are logged and skipped; the next beat repairs the row.
type Tracker struct {
	sender   HeartbeatSender
	interval time.Duration

	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	running bool
}

// NewTracker creates a tracker beating at the standard interval.
func NewTracker(sender HeartbeatSender) *Tracker {
	return &Tracker{sender: sender, interval: HeartbeatInterval}
}

// Start begins the heartbeat loop. Starting a running tracker is a no-op.
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	t.running = true
	t.stop = make(chan struct{})
	t.done = make(chan struct{})

	t.beat(models.PresenceOnline)
	go t.loop(t.stop, t.done)
}

func (t *Tracker) loop(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.beat(models.PresenceOnline)
		case <-stop:
			return
		}
	}
}

// Stop ends the loop and reports offline once. Stopping a stopped tracker
// is a no-op.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.running = false
	close(t.stop)
	<-t.done
	t.beat(models.PresenceOffline)
}

// SetHidden reports the visibility flip immediately without disturbing the
// loop. A hidden session goes offline at once instead of waiting out the
// staleness window; an unhidden one comes back before the next tick.
func (t *Tracker) SetHidden(hidden bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	if hidden {
		t.beat(models.PresenceOffline)
	} else {
		t.beat(models.PresenceOnline)
	}
}

func (t *Tracker) beat(status string) {
	if err := t.sender.Heartbeat(status); err != nil {
		log.Printf("presence heartbeat failed: %v", err)
	}
}
