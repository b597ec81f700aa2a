package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"riftwatch/internal/config"
	"riftwatch/internal/data"
	"riftwatch/internal/engine"
	"riftwatch/internal/lcu"
	"riftwatch/internal/predict"
	"riftwatch/internal/publish"
	"riftwatch/internal/server"
	"riftwatch/internal/view"
)

// App struct
type App struct {
	cfg         *config.Config
	logger      *zap.Logger
	liveClient  *lcu.LiveClient
	predictor   *predict.Adapter
	views       *view.Scheduler
	engine      *engine.Engine
	server      *server.Server
	timeline    *data.TimelineDB
	broadcaster *publish.RedisBroadcaster
	closers     []func() error

	emitMu          sync.Mutex
	lastCycle       uint64
	lastPredictedAt time.Time
}

// NewApp wires every component from cfg. Optional pieces (snapshots,
// timeline, redis) that fail to start are logged and left out.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	log := logger.Sugar()
	a := &App{cfg: cfg, logger: logger}

	opts := []lcu.Option{
		lcu.WithBaseURL(cfg.LiveClientURL),
		lcu.WithTimeout(cfg.FetchTimeout),
	}
	if cfg.SnapshotDir != "" {
		snapshots, err := lcu.NewSnapshotWriter(cfg.SnapshotDir, logger)
		if err != nil {
			log.Warnw("Snapshots disabled", "dir", cfg.SnapshotDir, "error", err)
		} else {
			opts = append(opts, lcu.WithSnapshots(snapshots))
		}
	}
	a.liveClient = lcu.NewLiveClient(opts...)

	a.predictor = predict.LoadAdapter(cfg.ScalerPath, cfg.ModelPath, logger)

	views, err := viewScheduler(cfg.Views)
	if err != nil {
		return nil, err
	}
	a.views = views

	a.engine = engine.New(engineConfig(cfg), a.liveClient, a.predictor, a.views, logger)

	a.openTimeline()
	a.connectRedis(ctx)

	// a nil *TimelineDB must not reach the server as a non-nil interface
	var timeline server.TimelineReader
	if a.timeline != nil {
		timeline = a.timeline
	}
	a.server = server.New(server.Config{
		Addr:           cfg.ListenAddr,
		AllowedOrigins: cfg.AllowedOrigins,
	}, a.engine, timeline, logger)

	a.engine.Subscribe(a.onSnapshot)
	return a, nil
}

func viewScheduler(names []string) (*view.Scheduler, error) {
	views := make([]view.Name, len(names))
	for i, n := range names {
		views[i] = view.Name(n)
	}
	s, err := view.New(views)
	if err != nil {
		return nil, fmt.Errorf("failed to create view scheduler: %w", err)
	}
	return s, nil
}

func engineConfig(cfg *config.Config) engine.Config {
	return engine.Config{
		PollInterval: cfg.PollInterval,
		ViewInterval: cfg.ViewInterval,
		Temperature:  cfg.Temperature,
		AlwaysInfer:  cfg.AlwaysInfer,
	}
}

func (a *App) openTimeline() {
	log := a.logger.Sugar()

	path, err := a.cfg.TimelineFile()
	if err != nil {
		log.Warnw("Timeline disabled", "error", err)
		return
	}
	if path == "" {
		return
	}

	tdb, err := data.NewTimelineDB(path)
	if err != nil {
		log.Warnw("Timeline disabled", "path", path, "error", err)
		return
	}
	a.timeline = tdb
	a.closers = append(a.closers, tdb.Close)
	log.Infow("Timeline enabled", "path", path)
}

func (a *App) connectRedis(ctx context.Context) {
	if a.cfg.RedisAddr == "" {
		return
	}
	log := a.logger.Sugar()

	rdb, err := publish.Connect(ctx, a.cfg.RedisAddr)
	if err != nil {
		log.Warnw("Redis publishing disabled", "error", err)
		return
	}
	a.broadcaster = publish.NewRedisBroadcaster(rdb, a.cfg.RedisChannel)
	a.closers = append(a.closers, rdb.Close)
	log.Infow("Publishing snapshots to redis", "addr", a.cfg.RedisAddr, "channel", a.cfg.RedisChannel)
}

// Run starts the engine and the HTTP server and blocks until ctx is
// cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.Sugar().Infow("Starting",
		"liveClient", a.cfg.LiveClientURL,
		"pollInterval", a.cfg.PollInterval,
		"viewInterval", a.cfg.ViewInterval,
		"views", a.cfg.Views,
		"modelDegraded", a.predictor.Degraded())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.engine.Run(ctx)
	})
	g.Go(func() error {
		return a.server.Run(ctx)
	})
	return g.Wait()
}

// shutdown releases everything NewApp opened
func (a *App) shutdown() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Sugar().Warnw("Close failed", "error", err)
		}
	}
}
