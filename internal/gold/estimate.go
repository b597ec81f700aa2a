// Package gold estimates a player's total gold from live scores and the
// cumulative event log. The live client does not expose enemy gold, so the
// figure is a heuristic that drifts over a long match.
package gold

import (
	"math"

	"riftwatch/internal/lcu"
)

const (
	StartingGold = 500

	// Passive income starts at 1:50 and pays out every 10 seconds
	PassiveStart       = 110.0
	PassiveTickSeconds = 10.0
	PassivePerTick     = 20.4

	GoldPerMinion = 14
	GoldPerWard   = 30
)

// PassiveGold returns passive income accrued by gameTime seconds
func PassiveGold(gameTime float64) float64 {
	if gameTime < PassiveStart {
		return 0
	}
	ticks := math.Floor((gameTime - PassiveStart) / PassiveTickSeconds)
	return ticks * PassivePerTick
}

// EstimateGold sums starting, passive, farm, ward and event gold for one
// player. wardScore is treated as a ward-kill count.
func EstimateGold(playerName string, minionsKilled int, wardScore float64, gameTime float64, events []lcu.Event) float64 {
	farm := float64(max(minionsKilled, 0) * GoldPerMinion)
	wards := math.Max(wardScore, 0) * GoldPerWard

	return StartingGold +
		PassiveGold(gameTime) +
		farm +
		wards +
		float64(EventGold(playerName, events))
}

// EstimatePlayer is EstimateGold for a live client player entry
func EstimatePlayer(p lcu.Player, gameTime float64, events []lcu.Event) float64 {
	return EstimateGold(p.Name(), p.Scores.CS(), p.Scores.WardScore, gameTime, events)
}
