package scheduler

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/good-yellow-bee/incidash/internal/clock"
	"github.com/good-yellow-bee/incidash/internal/models"
	"github.com/good-yellow-bee/incidash/internal/store"
)

var start = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type recordingMutator struct {
	mu    sync.Mutex
	calls []int
}

func (m *recordingMutator) Mutate(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, n)
}

func (m *recordingMutator) Calls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.calls...)
}

// started returns a running scheduler whose ticks are reported on the
// returned channel.
func started(t *testing.T, m Mutator, clk *clock.FakeClock) (*Scheduler, <-chan time.Time) {
	t.Helper()

	ticks := make(chan time.Time, 16)
	s := New(m, clk, Config{}, nil)
	s.OnTick(func(at time.Time) { ticks <- at })
	s.Start(context.Background())
	t.Cleanup(s.Stop)

	clk.WaitForTickers(1)
	return s, ticks
}

func waitTick(t *testing.T, ticks <-chan time.Time) time.Time {
	t.Helper()
	select {
	case at := <-ticks:
		return at
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tick")
		return time.Time{}
	}
}

func assertNoTick(t *testing.T, ticks <-chan time.Time) {
	t.Helper()
	select {
	case at := <-ticks:
		t.Fatalf("unexpected tick at %v", at)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNew_Defaults(t *testing.T) {
	s := New(&recordingMutator{}, clock.Fake(start), Config{}, nil)

	assert.Equal(t, DefaultConfig(), s.Config())
	assert.Equal(t, 30*time.Second, s.Config().Interval)
	assert.Equal(t, 3, s.Config().BatchSize)
	assert.Equal(t, start, s.LastUpdated())
	assert.False(t, s.Running())
}

func TestScheduler_TickMutatesThenUpdates(t *testing.T) {
	clk := clock.Fake(start)
	m := &recordingMutator{}
	s, ticks := started(t, m, clk)

	clk.Advance(29 * time.Second)
	assertNoTick(t, ticks)
	assert.Empty(t, m.Calls())

	clk.Advance(time.Second)
	at := waitTick(t, ticks)

	assert.Equal(t, start.Add(30*time.Second), at)
	assert.Equal(t, []int{3}, m.Calls(), "mutation happens before the hook")
	assert.Equal(t, at, s.LastUpdated())
	assert.Equal(t, uint64(1), s.Ticks())

	clk.Advance(30 * time.Second)
	waitTick(t, ticks)
	assert.Equal(t, []int{3, 3}, m.Calls())
	assert.Equal(t, start.Add(time.Minute), s.LastUpdated())
}

func TestScheduler_CustomConfig(t *testing.T) {
	clk := clock.Fake(start)
	m := &recordingMutator{}
	ticks := make(chan time.Time, 4)

	s := New(m, clk, Config{Interval: 5 * time.Second, BatchSize: 7}, nil)
	s.OnTick(func(at time.Time) { ticks <- at })
	s.Start(context.Background())
	defer s.Stop()
	clk.WaitForTickers(1)

	clk.Advance(5 * time.Second)
	waitTick(t, ticks)
	assert.Equal(t, []int{7}, m.Calls())
}

func TestScheduler_StartIsIdempotent(t *testing.T) {
	clk := clock.Fake(start)
	s, _ := started(t, &recordingMutator{}, clk)

	s.Start(context.Background())
	s.Start(context.Background())

	assert.Equal(t, 1, clk.ActiveTickers())
	assert.True(t, s.Running())
}

func TestScheduler_NoTickAfterStop(t *testing.T) {
	clk := clock.Fake(start)
	m := &recordingMutator{}
	s, ticks := started(t, m, clk)

	s.Stop()
	assert.False(t, s.Running())
	assert.Equal(t, 0, clk.ActiveTickers())

	clk.Advance(5 * time.Minute)
	assertNoTick(t, ticks)
	assert.Empty(t, m.Calls())
	assert.Equal(t, start, s.LastUpdated())

	// Second Stop and a restart attempt are no-ops.
	s.Stop()
	s.Start(context.Background())
	assert.False(t, s.Running())
	assert.Equal(t, 0, clk.ActiveTickers())
}

func TestScheduler_StopBeforeStart(t *testing.T) {
	s := New(&recordingMutator{}, clock.Fake(start), Config{}, nil)

	done := make(chan struct{})
	go func() {
		s.Stop()
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on a scheduler that never started")
	}
}

func TestScheduler_ContextCancelStopsLoop(t *testing.T) {
	clk := clock.Fake(start)
	m := &recordingMutator{}
	ctx, cancel := context.WithCancel(context.Background())

	s := New(m, clk, Config{}, nil)
	s.Start(ctx)
	clk.WaitForTickers(1)

	cancel()
	require.Eventually(t, func() bool {
		return !s.Running() && clk.ActiveTickers() == 0
	}, time.Second, 5*time.Millisecond)

	clk.Advance(time.Minute)
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, m.Calls())

	s.Stop()
}

func TestScheduler_RunBlocksUntilCancel(t *testing.T) {
	clk := clock.Fake(start)
	s := New(&recordingMutator{}, clk, Config{}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	clk.WaitForTickers(1)
	assert.True(t, s.Running())

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, s.Running())
}

func TestScheduler_TouchOnlyUpdatesTimestamp(t *testing.T) {
	clk := clock.Fake(start)
	m := &recordingMutator{}
	s := New(m, clk, Config{}, nil)

	clk.Set(start.Add(42 * time.Second))
	got := s.Touch()

	assert.Equal(t, start.Add(42*time.Second), got)
	assert.Equal(t, got, s.LastUpdated())
	assert.Empty(t, m.Calls())
	assert.Equal(t, uint64(0), s.Ticks())
}

func TestScheduler_DrivesRealStore(t *testing.T) {
	clk := clock.Fake(start)
	tickets := store.Generate(rand.New(rand.NewPCG(3, 4)), start, store.DefaultTicketCount)
	st := store.New(tickets, rand.New(rand.NewPCG(5, 6)))

	resolvedAtStart := make(map[string]bool)
	for _, tk := range st.List() {
		if tk.Status == models.StatusResolved {
			resolvedAtStart[tk.ID] = true
		}
	}

	_, ticks := started(t, st, clk)
	for range 5 {
		clk.Advance(30 * time.Second)
		waitTick(t, ticks)
	}

	for _, tk := range st.List() {
		if resolvedAtStart[tk.ID] {
			assert.Equal(t, models.StatusResolved, tk.Status, tk.ID)
		}
		if !resolvedAtStart[tk.ID] {
			assert.Nil(t, tk.ResolvedAt, "%s gained a resolvedAt", tk.ID)
		}
	}
}
