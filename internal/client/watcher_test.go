package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"familysafe/internal/apperr"
)

type fakeSource struct {
	mu         sync.Mutex
	watchCalls int
	watchErr   error
	fixes      chan Position
	current    Position
	currentErr error
}

func (s *fakeSource) Current(ctx context.Context) (Position, error) {
	return s.current, s.currentErr
}

func (s *fakeSource) Watch(ctx context.Context) (<-chan Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchCalls++
	if s.watchErr != nil {
		return nil, s.watchErr
	}
	return s.fixes, nil
}

func (s *fakeSource) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watchCalls
}

// fakeRecorder only counts fixes recorded under a live context, matching the
// upstream call which fails once the watch context is cancelled.
type fakeRecorder struct {
	mu         sync.Mutex
	fixes      []Position
	continuous []bool
	err        error
}

func (r *fakeRecorder) RecordPosition(ctx context.Context, p Position, continuous bool) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.fixes = append(r.fixes, p)
	r.continuous = append(r.continuous, continuous)
	return nil
}

func (r *fakeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fixes)
}

func (r *fakeRecorder) lastContinuous() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.continuous[len(r.continuous)-1]
}

func waitForCount(t *testing.T, r *fakeRecorder, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if r.count() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("recorder count = %d, want %d", r.count(), want)
}

func TestWatcherEnableStartsExactlyOneWatch(t *testing.T) {
	source := &fakeSource{fixes: make(chan Position, 4)}
	recorder := &fakeRecorder{}
	w := NewWatcher(source, recorder)

	if err := w.SetEnabled(context.Background(), true); err != nil {
		t.Fatalf("SetEnabled(true) error: %v", err)
	}
	if err := w.SetEnabled(context.Background(), true); err != nil {
		t.Fatalf("redundant SetEnabled(true) error: %v", err)
	}
	if got := source.calls(); got != 1 {
		t.Errorf("Watch called %d times, want 1", got)
	}
	if !w.Watching() {
		t.Error("Watching() = false after enable")
	}

	source.fixes <- Position{Latitude: 35.0, Longitude: 139.0, Battery: 80}
	waitForCount(t, recorder, 1)
	if !recorder.lastContinuous() {
		t.Error("watch fix recorded as one-shot, want continuous")
	}

	w.SetEnabled(context.Background(), false)
}

func TestWatcherDisableStopsRecording(t *testing.T) {
	source := &fakeSource{fixes: make(chan Position, 4)}
	recorder := &fakeRecorder{}
	w := NewWatcher(source, recorder)

	if err := w.SetEnabled(context.Background(), true); err != nil {
		t.Fatalf("SetEnabled(true) error: %v", err)
	}
	source.fixes <- Position{Latitude: 1, Longitude: 2}
	waitForCount(t, recorder, 1)

	if err := w.SetEnabled(context.Background(), false); err != nil {
		t.Fatalf("SetEnabled(false) error: %v", err)
	}
	if w.Watching() {
		t.Error("Watching() = true after disable")
	}

	// Fixes arriving after the flip must not land upstream.
	source.fixes <- Position{Latitude: 3, Longitude: 4}
	time.Sleep(50 * time.Millisecond)
	if got := recorder.count(); got != 1 {
		t.Errorf("recorder count = %d after disable, want 1", got)
	}

	// Redundant disable is a no-op.
	if err := w.SetEnabled(context.Background(), false); err != nil {
		t.Fatalf("redundant SetEnabled(false) error: %v", err)
	}
}

func TestWatcherEnableFailure(t *testing.T) {
	source := &fakeSource{watchErr: ErrPermissionDenied}
	w := NewWatcher(source, &fakeRecorder{})

	err := w.SetEnabled(context.Background(), true)
	if err == nil {
		t.Fatal("expected enable to fail")
	}
	if apperr.KindOf(err) != apperr.KindPermission {
		t.Errorf("KindOf() = %v, want permission", apperr.KindOf(err))
	}
	if w.Watching() {
		t.Error("Watching() = true after failed enable")
	}

	// A later enable may retry.
	source.mu.Lock()
	source.watchErr = nil
	source.fixes = make(chan Position, 1)
	source.mu.Unlock()
	if err := w.SetEnabled(context.Background(), true); err != nil {
		t.Fatalf("retry error: %v", err)
	}
	w.SetEnabled(context.Background(), false)
}

func TestWatcherPumpStopsOnClosedStream(t *testing.T) {
	source := &fakeSource{fixes: make(chan Position, 1)}
	recorder := &fakeRecorder{}
	w := NewWatcher(source, recorder)

	if err := w.SetEnabled(context.Background(), true); err != nil {
		t.Fatalf("SetEnabled(true) error: %v", err)
	}
	source.fixes <- Position{Latitude: 1}
	waitForCount(t, recorder, 1)
	close(source.fixes)

	// The pump exits quietly; disabling afterwards still works.
	time.Sleep(20 * time.Millisecond)
	if err := w.SetEnabled(context.Background(), false); err != nil {
		t.Fatalf("SetEnabled(false) error: %v", err)
	}
}

func TestLocateRecordsFix(t *testing.T) {
	source := &fakeSource{current: Position{Latitude: 35.6812, Longitude: 139.7671, Battery: 64}}
	recorder := &fakeRecorder{}
	w := NewWatcher(source, recorder)

	p, err := w.Locate(context.Background())
	if err != nil {
		t.Fatalf("Locate() error: %v", err)
	}
	if p.Latitude != 35.6812 || p.Battery != 64 {
		t.Errorf("Locate() = %+v", p)
	}
	if recorder.count() != 1 {
		t.Errorf("recorder count = %d, want 1", recorder.count())
	}
	if recorder.lastContinuous() {
		t.Error("one-shot fix recorded as continuous")
	}
}

func TestLocateErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{"permission denied", ErrPermissionDenied, apperr.KindPermission},
		{"timeout", ErrTimeout, apperr.KindTransient},
		{"unavailable", ErrPositionUnavailable, apperr.KindTransient},
		{"unknown", errors.New("hardware fault"), apperr.KindTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWatcher(&fakeSource{currentErr: tt.err}, &fakeRecorder{})
			_, err := w.Locate(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}
			if got := apperr.KindOf(err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
			if !errors.Is(err, tt.err) {
				t.Error("cause not preserved through classification")
			}
		})
	}
}

func TestLocateRecordFailure(t *testing.T) {
	source := &fakeSource{current: Position{Latitude: 1}}
	recorder := &fakeRecorder{err: errors.New("disk full")}
	w := NewWatcher(source, recorder)

	p, err := w.Locate(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if apperr.KindOf(err) != apperr.KindTransient {
		t.Errorf("KindOf() = %v, want transient", apperr.KindOf(err))
	}
	// The fix itself still comes back for local display.
	if p.Latitude != 1 {
		t.Errorf("fix = %+v", p)
	}
}
