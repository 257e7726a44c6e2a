// Package store owns the in-memory ticket collection. It is the only
// mutable component of the dashboard: every other package works on the
// snapshots returned by List.
package store

import (
	"math/rand/v2"
	"sync"

	"github.com/good-yellow-bee/incidash/internal/models"
)

// Store holds the ticket collection. A single RWMutex serialises writers
// and guarantees that List never observes a half-applied Mutate.
type Store struct {
	mu      sync.RWMutex
	tickets []models.Ticket
	rng     *rand.Rand
}

// New creates a store seeded with a copy of tickets. Tickets with a zero
// SLA target get it derived from their priority. rng drives Mutate; nil
// uses a randomly seeded source.
func New(tickets []models.Ticket, rng *rand.Rand) *Store {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	owned := make([]models.Ticket, len(tickets))
	for i, t := range tickets {
		t = t.Clone()
		if t.SLATargetHours == 0 {
			t.SLATargetHours = models.SLATargetHours(t.Priority)
		}
		owned[i] = t
	}

	return &Store{
		tickets: owned,
		rng:     rng,
	}
}

// List returns a snapshot of the current tickets in insertion order.
// The returned slice is owned by the caller.
func (s *Store) List() []models.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Ticket, len(s.tickets))
	for i, t := range s.tickets {
		out[i] = t.Clone()
	}
	return out
}

// Len returns the number of tickets.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tickets)
}

// Mutate draws n tickets uniformly at random, with replacement, from those
// not Resolved when the call starts, and gives each draw a uniformly random
// status from the full status set. Resolved is absorbing within a call: a
// draw landing on a ticket an earlier draw resolved is skipped. ResolvedAt
// is never touched. A store with no unresolved tickets, or n <= 0, is left
// unchanged.
func (s *Store) Mutate(n int) {
	if n <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	candidates := make([]int, 0, len(s.tickets))
	for i, t := range s.tickets {
		if t.Status != models.StatusResolved {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return
	}

	for range n {
		idx := candidates[s.rng.IntN(len(candidates))]
		if s.tickets[idx].Status == models.StatusResolved {
			continue
		}
		s.tickets[idx].Status = models.Statuses[s.rng.IntN(len(models.Statuses))]
	}
}

// Assignees returns the distinct assignees in first-seen order.
func (s *Store) Assignees() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var names []string
	for _, t := range s.tickets {
		if t.Assignee == "" || seen[t.Assignee] {
			continue
		}
		seen[t.Assignee] = true
		names = append(names, t.Assignee)
	}
	return names
}
