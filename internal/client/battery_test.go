package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeBattery struct {
	mu    sync.Mutex
	level int
	err   error
}

func (b *fakeBattery) Level() (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.level, b.err
}

type levelSink struct {
	mu     sync.Mutex
	levels []int
}

func (s *levelSink) report(ctx context.Context, level int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels = append(s.levels, level)
	return nil
}

func (s *levelSink) wait(t *testing.T, want int) []int {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		n := len(s.levels)
		s.mu.Unlock()
		if n >= want {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.levels))
	copy(out, s.levels)
	return out
}

func TestBatteryReporterReportsImmediately(t *testing.T) {
	sink := &levelSink{}
	reporter := NewBatteryReporter(&fakeBattery{level: 73}, sink.report)

	reporter.Start(context.Background())
	defer reporter.Stop()

	got := sink.wait(t, 1)
	if len(got) == 0 || got[0] != 73 {
		t.Errorf("reported %v, want an immediate 73", got)
	}
}

func TestBatteryReporterStartStopIdempotent(t *testing.T) {
	sink := &levelSink{}
	reporter := NewBatteryReporter(&fakeBattery{level: 50}, sink.report)

	reporter.Start(context.Background())
	reporter.Start(context.Background())
	sink.wait(t, 1)
	reporter.Stop()
	reporter.Stop()

	got := sink.wait(t, 1)
	if len(got) != 1 {
		t.Errorf("reported %v, double start should not double the poll", got)
	}
}

func TestBatteryReporterSkipsReadFailures(t *testing.T) {
	sink := &levelSink{}
	reporter := NewBatteryReporter(&fakeBattery{err: errors.New("no sensor")}, sink.report)

	reporter.Start(context.Background())
	defer reporter.Stop()

	time.Sleep(30 * time.Millisecond)
	sink.mu.Lock()
	n := len(sink.levels)
	sink.mu.Unlock()
	if n != 0 {
		t.Errorf("reported %d levels with a failing source, want 0", n)
	}
}
