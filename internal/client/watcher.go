package client

import (
	"context"
	"errors"
	"log"
	"sync"

	"familysafe/internal/apperr"
)

// Position is one fix from the device's location source.
type Position struct {
	Latitude  float64
	Longitude float64
	Address   string
	Battery   int
}

// Positioning errors a Source may return from one-shot reads.
var (
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrPositionUnavailable = errors.New("position unavailable")
	ErrTimeout             = errors.New("position request timed out")
)

// Source produces position fixes from the device.
type Source interface {
	// Current returns a single fix.
	Current(ctx context.Context) (Position, error)
	// Watch streams fixes until ctx is cancelled. The channel closes when
	// the watch ends.
	Watch(ctx context.Context) (<-chan Position, error)
}

// Recorder ships fixes upstream. Continuous fixes come from a live watch and
// may be dropped upstream when the tracking flag is off; one-shot fixes
// always land.
type Recorder interface {
	RecordPosition(ctx context.Context, p Position, continuous bool) error
}

// Watcher reconciles the device's watch state against the tracking flag.
// The flag is the single source of truth: SetEnabled(true) starts exactly
// one watch, SetEnabled(false) cancels it immediately, and redundant calls
// in either direction are no-ops. Continuous write failures are swallowed
// so one bad fix never kills the watch.
type Watcher struct {
	source   Source
	recorder Recorder

	mu       sync.Mutex
	cancel   context.CancelFunc
	watching bool
}

// NewWatcher creates a watcher in the stopped state.
func NewWatcher(source Source, recorder Recorder) *Watcher {
	return &Watcher{source: source, recorder: recorder}
}

// SetEnabled reconciles the watch against the flag value.
func (w *Watcher) SetEnabled(ctx context.Context, enabled bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if enabled == w.watching {
		return nil
	}
	if !enabled {
		w.cancel()
		w.cancel = nil
		w.watching = false
		return nil
	}

	watchCtx, cancel := context.WithCancel(ctx)
	fixes, err := w.source.Watch(watchCtx)
	if err != nil {
		cancel()
		return mapPositionError(err)
	}
	w.cancel = cancel
	w.watching = true
	go w.pump(watchCtx, fixes)
	return nil
}

// Watching reports whether a watch is live.
func (w *Watcher) Watching() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watching
}

func (w *Watcher) pump(ctx context.Context, fixes <-chan Position) {
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-fixes:
			if !ok {
				return
			}
			if err := w.recorder.RecordPosition(ctx, p, true); err != nil {
				log.Printf("failed to record position: %v", err)
			}
		}
	}
}

// Locate takes a single fix and records it, with positioning failures
// classified for display.
func (w *Watcher) Locate(ctx context.Context) (Position, error) {
	p, err := w.source.Current(ctx)
	if err != nil {
		return Position{}, mapPositionError(err)
	}
	if err := w.recorder.RecordPosition(ctx, p, false); err != nil {
		return p, apperr.Wrap(apperr.KindTransient, "failed to record position", err)
	}
	return p, nil
}

func mapPositionError(err error) error {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return apperr.Wrap(apperr.KindPermission, "location access is blocked", err)
	case errors.Is(err, ErrTimeout):
		return apperr.Wrap(apperr.KindTransient, "location request timed out", err)
	case errors.Is(err, ErrPositionUnavailable):
		return apperr.Wrap(apperr.KindTransient, "position is unavailable", err)
	default:
		return apperr.Wrap(apperr.KindTransient, "location error", err)
	}
}
