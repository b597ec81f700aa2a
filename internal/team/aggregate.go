// Package team rolls player snapshots up into per-side totals and compares
// the two sides.
package team

import (
	"riftwatch/internal/gold"
	"riftwatch/internal/lcu"
)

// PlayerState is one player's scores plus their gold estimate for the cycle
type PlayerState struct {
	Name     string   `json:"name"`
	Champion string   `json:"champion"`
	Side     lcu.Side `json:"side"`
	Kills    int      `json:"kills"`
	Deaths   int      `json:"deaths"`
	Assists  int      `json:"assists"`
	CS       int      `json:"cs"`
	Gold     int      `json:"gold"`
}

// State holds the aggregated stats of one side. It is derived every cycle
// and never stored on its own.
type State struct {
	Side    lcu.Side      `json:"side"`
	Kills   int           `json:"kills"`
	Deaths  int           `json:"deaths"`
	Assists int           `json:"assists"`
	CS      int           `json:"cs"`
	Gold    int           `json:"gold"`
	KDA     float64       `json:"kda"`
	Players []PlayerState `json:"players"`
}

// KDA returns (kills+assists)/deaths with deaths floored at 1
func KDA(kills, deaths, assists int) float64 {
	return float64(kills+assists) / float64(max(deaths, 1))
}

// Aggregate sums the players of one side. The returned State is nil when no
// player belongs to side.
func Aggregate(players []lcu.Player, side lcu.Side, gameTime float64, events []lcu.Event) *State {
	st := &State{Side: side}
	var teamGold float64

	for _, p := range players {
		if p.Team != side {
			continue
		}

		estimate := gold.EstimatePlayer(p, gameTime, events)
		teamGold += estimate

		st.Kills += p.Scores.Kills
		st.Deaths += p.Scores.Deaths
		st.Assists += p.Scores.Assists
		st.CS += p.Scores.CS()
		st.Players = append(st.Players, PlayerState{
			Name:     p.Name(),
			Champion: p.ChampionName,
			Side:     side,
			Kills:    p.Scores.Kills,
			Deaths:   p.Scores.Deaths,
			Assists:  p.Scores.Assists,
			CS:       p.Scores.CS(),
			Gold:     int(estimate),
		})
	}

	if len(st.Players) == 0 {
		return nil
	}

	st.Gold = int(teamGold)
	st.KDA = KDA(st.Kills, st.Deaths, st.Assists)
	return st
}

// NoLeader is reported when both sides hold exactly the same gold
const NoLeader lcu.Side = ""

// Comparison is the cross-side view of a cycle
type Comparison struct {
	GoldDifference int      `json:"goldDifference"`
	Leader         lcu.Side `json:"leader"`
}

// Compare returns the absolute gold difference and the side with strictly
// more gold. Exact ties yield NoLeader rather than favoring either side.
func Compare(a, b State) Comparison {
	diff := a.Gold - b.Gold
	cmp := Comparison{GoldDifference: diff}
	if diff < 0 {
		cmp.GoldDifference = -diff
	}

	switch {
	case a.Gold > b.Gold:
		cmp.Leader = a.Side
	case b.Gold > a.Gold:
		cmp.Leader = b.Side
	default:
		cmp.Leader = NoLeader
	}
	return cmp
}
