// Package scheduler drives the periodic refresh of the ticket store.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/good-yellow-bee/incidash/internal/clock"
	"github.com/good-yellow-bee/incidash/internal/metrics"
)

// Config configures the refresh scheduler.
type Config struct {
	Interval  time.Duration // How often to refresh (default: 30s)
	BatchSize int           // Tickets mutated per tick (default: 3)
}

// DefaultConfig returns default scheduler configuration.
func DefaultConfig() Config {
	return Config{
		Interval:  30 * time.Second,
		BatchSize: 3,
	}
}

// Mutator is the part of the ticket store the scheduler drives.
type Mutator interface {
	Mutate(n int)
}

// TickFunc is invoked after each tick's mutation, with the tick's timestamp.
type TickFunc func(at time.Time)

// Scheduler mutates the store on a fixed interval and records when the
// dashboard data last changed.
type Scheduler struct {
	config Config
	store  Mutator
	clock  clock.Clock
	logger *zap.Logger
	onTick TickFunc

	mu       sync.Mutex
	running  bool
	stopped  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once

	lastMu      sync.RWMutex
	lastUpdated time.Time

	ticks atomic.Uint64
}

// New creates a scheduler for store. A zero config uses DefaultConfig and a
// nil clock uses the real clock. LastUpdated starts at creation time.
func New(store Mutator, clk clock.Clock, config Config, logger *zap.Logger) *Scheduler {
	def := DefaultConfig()
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		config:      config,
		store:       store,
		clock:       clk,
		logger:      logger,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
		lastUpdated: clk.Now(),
	}
}

// OnTick registers a hook run synchronously after every tick. It must be
// set before Start.
func (s *Scheduler) OnTick(fn TickFunc) {
	s.onTick = fn
}

// Start begins the refresh loop. Calling Start on a running or stopped
// scheduler does nothing. Cancelling ctx stops the loop for good.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running || s.stopped {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	ticker := s.clock.NewTicker(s.config.Interval)
	go s.run(ctx, ticker)
}

// Stop halts the loop and waits for it to exit. No tick is processed after
// Stop returns. It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		wasRunning := s.running
		s.stopped = true
		s.mu.Unlock()

		close(s.stopCh)
		if wasRunning {
			<-s.doneCh
		}
	})
}

// Run starts the loop and blocks until ctx is cancelled, then stops it.
func (s *Scheduler) Run(ctx context.Context) error {
	s.Start(ctx)
	<-ctx.Done()
	s.Stop()
	return nil
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Touch records a manual refresh. It updates LastUpdated only; the store is
// not mutated.
func (s *Scheduler) Touch() time.Time {
	now := s.clock.Now()
	s.setLastUpdated(now)
	metrics.SchedulerManualRefreshTotal.Inc()
	return now
}

// LastUpdated returns the time of the last tick or manual refresh.
func (s *Scheduler) LastUpdated() time.Time {
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()
	return s.lastUpdated
}

// Ticks returns the number of ticks processed.
func (s *Scheduler) Ticks() uint64 {
	return s.ticks.Load()
}

// Config returns the effective configuration.
func (s *Scheduler) Config() Config {
	return s.config
}

func (s *Scheduler) run(ctx context.Context, ticker *clock.Ticker) {
	defer close(s.doneCh)
	defer ticker.Stop()

	s.logger.Info("refresh scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Int("batch_size", s.config.BatchSize))

	for {
		select {
		case <-ctx.Done():
			s.exit("context cancelled")
			return
		case <-s.stopCh:
			s.exit("stopped")
			return
		case <-ticker.C:
			// A tick and a stop may be ready together; stop wins.
			select {
			case <-s.stopCh:
				s.exit("stopped")
				return
			case <-ctx.Done():
				s.exit("context cancelled")
				return
			default:
			}
			s.tick()
		}
	}
}

func (s *Scheduler) tick() {
	s.store.Mutate(s.config.BatchSize)

	now := s.clock.Now()
	s.setLastUpdated(now)
	n := s.ticks.Add(1)
	metrics.SchedulerTicksTotal.Inc()

	s.logger.Debug("refresh tick", zap.Uint64("tick", n), zap.Time("at", now))

	if s.onTick != nil {
		s.onTick(now)
	}
}

func (s *Scheduler) setLastUpdated(t time.Time) {
	s.lastMu.Lock()
	s.lastUpdated = t
	s.lastMu.Unlock()
	metrics.SchedulerLastUpdated.Set(float64(t.Unix()))
}

func (s *Scheduler) exit(reason string) {
	s.mu.Lock()
	s.running = false
	s.stopped = true
	s.mu.Unlock()
	s.logger.Info("refresh scheduler stopped", zap.String("reason", reason))
}
