package view

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_StartsAtFirstView(t *testing.T) {
	s, err := New(Default)
	require.NoError(t, err)
	assert.Equal(t, OrderStats, s.Current())
	assert.Equal(t, 0, s.Index())
}

// TestScheduler_FullCycleReturnsToStart tests that N advances over N views wrap to the initial view
func TestScheduler_FullCycleReturnsToStart(t *testing.T) {
	for n := 1; n <= len(Default); n++ {
		s, err := New(Default[:n])
		require.NoError(t, err)

		for i := 0; i < n; i++ {
			s.Advance()
		}
		assert.Equal(t, Default[0], s.Current(), "n=%d", n)
	}
}

func TestScheduler_AdvanceOrder(t *testing.T) {
	s, err := New(Default)
	require.NoError(t, err)

	var got []Name
	for range Default {
		got = append(got, s.Advance())
	}
	assert.Equal(t, []Name{ChaosStats, GoldDiff, WinProbability, TeamSummary, OrderStats}, got)
}

func TestScheduler_OnEnter(t *testing.T) {
	s, err := New(Default)
	require.NoError(t, err)

	var entered []Name
	s.OnEnter(func(n Name) { entered = append(entered, n) })

	s.Advance()
	s.Advance()
	s.Advance()
	assert.Equal(t, []Name{ChaosStats, GoldDiff, WinProbability}, entered)
}

// TestScheduler_OnEnterReentrant tests that hooks may read and register on the scheduler
func TestScheduler_OnEnterReentrant(t *testing.T) {
	s, err := New(Default)
	require.NoError(t, err)

	var seen []Name
	var late int
	s.OnEnter(func(n Name) {
		seen = append(seen, s.Current())
		if n == GoldDiff {
			s.OnEnter(func(Name) { late++ })
		}
	})

	s.Advance()
	s.Advance()
	assert.Zero(t, late, "a hook added during a transition waits for the next one")
	s.Advance()
	assert.Equal(t, []Name{ChaosStats, GoldDiff, WinProbability}, seen)
	assert.Equal(t, 1, late)
}

func TestNew_Rejects(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNoViews)

	_, err = New([]Name{GoldDiff, GoldDiff})
	assert.Error(t, err)
}

func TestScheduler_Run(t *testing.T) {
	s, err := New(Default)
	require.NoError(t, err)

	var count atomic.Int32
	s.OnEnter(func(Name) { count.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, 5*time.Millisecond) }()

	assert.Eventually(t, func() bool { return count.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
