package client

import (
	"context"
	"log"
	"sync"
	"time"
)

// BatteryPollInterval is how often the device's battery level is reported.
const BatteryPollInterval = 60 * time.Second

// BatterySource reads the device's battery level as a percentage.
type BatterySource interface {
	Level() (int, error)
}

// BatteryReporter ships the device's battery level upstream once per poll
// interval. Read and send failures are logged and skipped.
type BatteryReporter struct {
	source BatterySource
	report func(ctx context.Context, level int) error

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewBatteryReporter creates a stopped reporter.
func NewBatteryReporter(source BatterySource, report func(ctx context.Context, level int) error) *BatteryReporter {
	return &BatteryReporter{source: source, report: report}
}

// Start begins the poll loop with an immediate first report. Starting a
// running reporter is a no-op.
func (b *BatteryReporter) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	go b.loop(loopCtx)
}

// Stop ends the poll loop. Stopping a stopped reporter is a no-op.
func (b *BatteryReporter) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel == nil {
		return
	}
	b.cancel()
	b.cancel = nil
}

func (b *BatteryReporter) loop(ctx context.Context) {
	b.poll(ctx)
	ticker := time.NewTicker(BatteryPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.poll(ctx)
		}
	}
}

func (b *BatteryReporter) poll(ctx context.Context) {
	level, err := b.source.Level()
	if err != nil {
		log.Printf("failed to read battery level: %v", err)
		return
	}
	if err := b.report(ctx, level); err != nil {
		log.Printf("failed to report battery level: %v", err)
	}
}
