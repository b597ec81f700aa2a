// Package view cycles the overlay through its named views on a fixed
// interval, independently of the poll loop.
package view

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
)

// Name identifies a view
type Name string

const (
	OrderStats     Name = "order_stats"
	ChaosStats     Name = "chaos_stats"
	GoldDiff       Name = "gold_diff"
	WinProbability Name = "win_probability"
	TeamSummary    Name = "team_summary"
)

// Default is the rotation used when none is configured
var Default = []Name{OrderStats, ChaosStats, GoldDiff, WinProbability, TeamSummary}

// ErrNoViews is returned for an empty rotation
var ErrNoViews = errors.New("at least one view is required")

// Scheduler owns the current view. It starts at index 0 and wraps forever.
type Scheduler struct {
	mu      sync.RWMutex
	views   []Name
	index   int
	onEnter []func(Name)
}

// New creates a scheduler over views in order
func New(views []Name) (*Scheduler, error) {
	if len(views) == 0 {
		return nil, ErrNoViews
	}
	seen := make(map[Name]bool, len(views))
	for _, v := range views {
		if seen[v] {
			return nil, fmt.Errorf("view %q listed twice", v)
		}
		seen[v] = true
	}
	return &Scheduler{views: append([]Name(nil), views...)}, nil
}

// OnEnter registers fn to run after every transition with the view just
// entered. Hooks run on the advancing goroutine and must not block.
func (s *Scheduler) OnEnter(fn func(Name)) {
	s.mu.Lock()
	s.onEnter = append(s.onEnter, fn)
	s.mu.Unlock()
}

// Current returns the active view
func (s *Scheduler) Current() Name {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.views[s.index]
}

// Index returns the position of the active view
func (s *Scheduler) Index() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// Views returns the rotation
func (s *Scheduler) Views() []Name {
	return append([]Name(nil), s.views...)
}

// Advance moves to the next view, wrapping to the first
func (s *Scheduler) Advance() Name {
	s.mu.Lock()
	s.index = (s.index + 1) % len(s.views)
	next := s.views[s.index]
	hooks := slices.Clone(s.onEnter)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn(next)
	}
	return next
}

// Run advances every interval until ctx is done
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Advance()
		}
	}
}
