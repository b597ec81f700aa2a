// Package engine runs the poll loop (fetch, estimate, aggregate, infer), the
// view loop and the inference refresh worker, and publishes the results
// through a single-writer state cell.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"riftwatch/internal/features"
	"riftwatch/internal/lcu"
	"riftwatch/internal/predict"
	"riftwatch/internal/team"
	"riftwatch/internal/view"
)

// Source provides the three live client resources
type Source interface {
	GetAllPlayers(ctx context.Context) ([]lcu.Player, error)
	GetEvents(ctx context.Context) ([]lcu.Event, error)
	GetGameStats(ctx context.Context) (lcu.GameStats, error)
}

// Predictor scores a feature vector
type Predictor interface {
	Predict(v features.Vector, temperature float64) (predict.Prediction, error)
}

// Config holds the engine's cadence and inference settings
type Config struct {
	PollInterval time.Duration
	ViewInterval time.Duration
	Temperature  float64
	AlwaysInfer  bool
}

// Snapshot is the latest computed state. Published snapshots are never
// modified; treat every field as read-only.
type Snapshot struct {
	MatchID     string              `json:"matchId"`
	Cycle       uint64              `json:"cycle"`
	View        view.Name           `json:"view"`
	GameTime    float64             `json:"gameTime"`
	GameMode    string              `json:"gameMode"`
	EventCount  int                 `json:"eventCount"`
	Order       *team.State         `json:"order"`
	Chaos       *team.State         `json:"chaos"`
	Comparison  *team.Comparison    `json:"comparison"`
	Prediction  *predict.Prediction `json:"prediction"`
	PredictedAt time.Time           `json:"predictedAt"`
	Stale       []lcu.Resource      `json:"stale,omitempty"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// Ready reports whether at least one cycle has been published
func (s Snapshot) Ready() bool {
	return !s.UpdatedAt.IsZero()
}

// maxRefreshAttempts bounds how often Refresh chases newer cycles
const maxRefreshAttempts = 3

// Listener receives every published snapshot. Listeners run on the
// publishing goroutine and must return quickly.
type Listener func(Snapshot)

// Engine ties the pipeline together
type Engine struct {
	cfg       Config
	source    Source
	predictor Predictor
	views     *view.Scheduler
	logger    *zap.SugaredLogger

	// state cell
	mu     sync.RWMutex
	latest Snapshot

	// last good payloads, guarded by cycleMu
	cycleMu      sync.Mutex
	players      []lcu.Player
	havePlayers  bool
	events       []lcu.Event
	stats        lcu.GameStats
	matchID      string
	lastGameTime float64

	listenersMu sync.RWMutex
	listeners   []Listener

	refresh chan struct{}
}

// New creates an engine. The view scheduler's transitions into the win
// probability view trigger an immediate inference refresh.
func New(cfg Config, source Source, predictor Predictor, views *view.Scheduler, logger *zap.Logger) *Engine {
	e := &Engine{
		cfg:       cfg,
		source:    source,
		predictor: predictor,
		views:     views,
		logger:    logger.Sugar(),
		refresh:   make(chan struct{}, 1),
	}
	views.OnEnter(e.onViewEnter)
	return e
}

// Subscribe registers l for every future snapshot
func (e *Engine) Subscribe(l Listener) {
	e.listenersMu.Lock()
	e.listeners = append(e.listeners, l)
	e.listenersMu.Unlock()
}

// Latest returns the most recent snapshot with the current view filled in
func (e *Engine) Latest() Snapshot {
	e.mu.RLock()
	s := e.latest
	e.mu.RUnlock()
	s.View = e.views.Current()
	return s
}

// Run starts the poll loop, the view loop and the refresh worker and
// blocks until ctx is cancelled. The three never wait on each other.
func (e *Engine) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return e.pollLoop(ctx)
	})
	g.Go(func() error {
		return e.views.Run(ctx, e.cfg.ViewInterval)
	})
	g.Go(func() error {
		return e.refreshLoop(ctx)
	})

	return g.Wait()
}

func (e *Engine) pollLoop(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	e.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.RunOnce(ctx)
		}
	}
}

// RunOnce performs one fetch, estimate, aggregate and infer cycle and
// publishes the result. It returns false when nothing could be published
// because no player list has ever been received.
//
// Fetches are detached from ctx cancellation so a shutdown lets the
// in-flight requests finish or time out.
func (e *Engine) RunOnce(ctx context.Context) (Snapshot, bool) {
	e.cycleMu.Lock()
	defer e.cycleMu.Unlock()

	start := time.Now()
	defer func() {
		cycleDuration.Observe(time.Since(start).Seconds())
	}()
	cyclesTotal.Inc()

	stale := e.fetch(context.WithoutCancel(ctx))
	if !e.havePlayers {
		return Snapshot{}, false
	}

	e.trackMatch(stale)

	order := team.Aggregate(e.players, lcu.SideOrder, e.stats.GameTime, e.events)
	chaos := team.Aggregate(e.players, lcu.SideChaos, e.stats.GameTime, e.events)

	var cmp *team.Comparison
	if order != nil && chaos != nil {
		c := team.Compare(*order, *chaos)
		cmp = &c
		goldDifference.Set(float64(order.Gold - chaos.Gold))
	}

	prev := e.Latest()
	current := e.views.Current()
	snap := Snapshot{
		MatchID:    e.matchID,
		Cycle:      prev.Cycle + 1,
		View:       current,
		GameTime:   e.stats.GameTime,
		GameMode:   e.stats.GameMode,
		EventCount: len(e.events),
		Order:      order,
		Chaos:      chaos,
		Comparison: cmp,
		Stale:      stale,
		UpdatedAt:  time.Now(),
	}

	if prev.MatchID == e.matchID {
		snap.Prediction = prev.Prediction
		snap.PredictedAt = prev.PredictedAt
	}

	if e.cfg.AlwaysInfer || current == view.WinProbability {
		if pred, ok := e.infer(order, chaos); ok {
			snap.Prediction = &pred
			snap.PredictedAt = snap.UpdatedAt
		}
	}

	e.mu.Lock()
	e.latest = snap
	e.mu.Unlock()

	e.logger.Debugw("Cycle complete",
		"match", snap.MatchID,
		"gameTime", snap.GameTime,
		"stale", len(stale),
		"duration", time.Since(start))

	e.notify(snap)
	return snap, true
}

// fetch pulls the three resources concurrently. A failed resource keeps
// its last good payload and is reported as stale; siblings are unaffected.
func (e *Engine) fetch(ctx context.Context) []lcu.Resource {
	var (
		players                      []lcu.Player
		events                       []lcu.Event
		stats                        lcu.GameStats
		playersErr, eventsErr, stErr error
	)

	var g errgroup.Group
	g.Go(func() error {
		players, playersErr = e.source.GetAllPlayers(ctx)
		return nil
	})
	g.Go(func() error {
		events, eventsErr = e.source.GetEvents(ctx)
		return nil
	})
	g.Go(func() error {
		stats, stErr = e.source.GetGameStats(ctx)
		return nil
	})
	_ = g.Wait()

	var stale []lcu.Resource
	if e.failed(lcu.ResourcePlayerList, playersErr) {
		stale = append(stale, lcu.ResourcePlayerList)
	} else {
		e.players = players
		e.havePlayers = true
	}
	if e.failed(lcu.ResourceEventData, eventsErr) {
		stale = append(stale, lcu.ResourceEventData)
	} else {
		e.events = events
	}
	if e.failed(lcu.ResourceGameStats, stErr) {
		stale = append(stale, lcu.ResourceGameStats)
	} else {
		e.stats = stats
	}
	return stale
}

func (e *Engine) failed(res lcu.Resource, err error) bool {
	if err == nil {
		return false
	}
	fetchFailures.WithLabelValues(string(res)).Inc()
	e.logger.Warnw("Fetch failed, using last good data", "resource", res, "error", err)
	return true
}

// trackMatch starts a new match on the first player list and whenever the
// game clock runs backwards. Only fresh, non-zero clock readings count.
func (e *Engine) trackMatch(stale []lcu.Resource) {
	statsFresh := true
	for _, r := range stale {
		if r == lcu.ResourceGameStats {
			statsFresh = false
		}
	}

	// a payload without gameTime decodes to 0 and says nothing about the clock
	statsFresh = statsFresh && e.stats.GameTime > 0

	rewound := statsFresh && e.stats.GameTime < e.lastGameTime
	if e.matchID == "" || rewound {
		e.matchID = uuid.NewString()
		matchesStarted.Inc()
		e.logger.Infow("New match detected", "match", e.matchID, "gameTime", e.stats.GameTime)

		if rewound {
			for _, r := range stale {
				if r == lcu.ResourceEventData {
					e.events = nil
				}
			}
		}
	}

	if statsFresh {
		e.lastGameTime = e.stats.GameTime
	}
}

func (e *Engine) infer(order, chaos *team.State) (predict.Prediction, bool) {
	vec, err := features.Build(order, chaos)
	if err != nil {
		e.logger.Debugw("Skipping inference", "error", err)
		return predict.Prediction{}, false
	}

	pred, err := e.predictor.Predict(vec, e.cfg.Temperature)
	if err != nil {
		if errors.Is(err, predict.ErrInvalidTemperature) {
			e.logger.Errorw("Inference rejected", "temperature", e.cfg.Temperature, "error", err)
		} else {
			e.logger.Warnw("Inference failed", "error", err)
		}
		return predict.Prediction{}, false
	}

	mode := "model"
	if pred.Degraded {
		mode = "degraded"
	}
	inferenceRuns.WithLabelValues(mode).Inc()
	return pred, true
}

func (e *Engine) onViewEnter(name view.Name) {
	viewTransitions.Inc()
	e.logger.Debugw("View changed", "view", name)

	if name == view.WinProbability {
		select {
		case e.refresh <- struct{}{}:
		default:
		}
		return
	}

	if snap := e.Latest(); snap.Ready() {
		e.notify(snap)
	}
}

func (e *Engine) refreshLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.refresh:
			e.Refresh()
		}
	}
}

// Refresh re-runs inference on the latest team states without waiting for
// the next poll. When a cycle lands while inferring, the new cycle is used
// instead unless it already carries a prediction made after the refresh
// started.
func (e *Engine) Refresh() {
	start := time.Now()

	for attempt := 0; attempt < maxRefreshAttempts; attempt++ {
		snap := e.Latest()
		if !snap.Ready() {
			return
		}
		if attempt > 0 && snap.Prediction != nil && !snap.PredictedAt.Before(start) {
			return
		}

		pred, ok := e.infer(snap.Order, snap.Chaos)
		if !ok {
			e.notify(snap)
			return
		}

		now := time.Now()
		e.mu.Lock()
		if e.latest.Cycle != snap.Cycle {
			e.mu.Unlock()
			continue
		}
		e.latest.Prediction = &pred
		e.latest.PredictedAt = now
		e.latest.UpdatedAt = now
		e.mu.Unlock()

		e.notify(e.Latest())
		return
	}
}

func (e *Engine) notify(s Snapshot) {
	e.listenersMu.RLock()
	listeners := e.listeners
	e.listenersMu.RUnlock()

	for _, l := range listeners {
		l(s)
	}
}
