package main

import (
	"context"

	"riftwatch/internal/data"
	"riftwatch/internal/engine"
	"riftwatch/internal/server"
)

// onSnapshot fans each published snapshot out to the overlay hub, the
// match timeline and redis
func (a *App) onSnapshot(snap engine.Snapshot) {
	a.server.Publish(snap)
	a.recordTimeline(snap)
	a.emitRedis(snap)
}

// recordTimeline stores one sample per cycle or refreshed prediction. View
// changes republish the same cycle and are skipped.
func (a *App) recordTimeline(snap engine.Snapshot) {
	if a.timeline == nil {
		return
	}

	a.emitMu.Lock()
	defer a.emitMu.Unlock()
	if snap.Cycle == a.lastCycle && snap.PredictedAt.Equal(a.lastPredictedAt) {
		return
	}
	a.lastCycle = snap.Cycle
	a.lastPredictedAt = snap.PredictedAt

	if err := a.timeline.Record(context.Background(), timelineSample(snap)); err != nil {
		a.logger.Sugar().Warnw("Failed to record timeline sample", "match", snap.MatchID, "error", err)
	}
}

func (a *App) emitRedis(snap engine.Snapshot) {
	if a.broadcaster == nil {
		return
	}
	if err := a.broadcaster.Publish(context.Background(), server.NewGameData(snap)); err != nil {
		a.logger.Sugar().Warnw("Failed to publish snapshot", "channel", a.broadcaster.Channel(), "error", err)
	}
}

func timelineSample(snap engine.Snapshot) data.Sample {
	s := data.Sample{
		MatchID:    snap.MatchID,
		GameTime:   snap.GameTime,
		Degraded:   true,
		RecordedAt: snap.UpdatedAt,
	}
	if snap.Order != nil {
		s.OrderGold = snap.Order.Gold
	}
	if snap.Chaos != nil {
		s.ChaosGold = snap.Chaos.Gold
	}
	if snap.Prediction != nil {
		win := snap.Prediction.SideA
		s.OrderWin = &win
		s.Degraded = snap.Prediction.Degraded
	}
	return s
}
