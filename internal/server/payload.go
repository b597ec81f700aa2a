package server

import (
	"math"
	"time"

	"riftwatch/internal/engine"
	"riftwatch/internal/team"
)

// TeamPayload is one side as the overlay renders it
type TeamPayload struct {
	Gold    int                `json:"gold"`
	Kills   int                `json:"kills"`
	Deaths  int                `json:"deaths"`
	Assists int                `json:"assists"`
	CS      int                `json:"cs"`
	KDA     float64            `json:"kda"`
	Players []team.PlayerState `json:"players"`
}

// WinProbability holds percentages (0-100)
type WinProbability struct {
	Order float64 `json:"order"`
	Chaos float64 `json:"chaos"`
}

// GameData is the /api/game-data body and the /ws message
type GameData struct {
	MatchID        string         `json:"matchId,omitempty"`
	View           string         `json:"view"`
	GameTime       float64        `json:"gameTime"`
	OrderTeam      TeamPayload    `json:"orderTeam"`
	ChaosTeam      TeamPayload    `json:"chaosTeam"`
	WinProbability WinProbability `json:"winProbability"`
	GoldDifference int            `json:"goldDifference"`
	LeadingTeam    string         `json:"leadingTeam"`
	Degraded       bool           `json:"degraded"`
	Stale          []string       `json:"stale,omitempty"`
	LastUpdated    *time.Time     `json:"lastUpdated"`
}

func teamPayload(st *team.State) TeamPayload {
	if st == nil {
		return TeamPayload{Players: []team.PlayerState{}}
	}
	return TeamPayload{
		Gold:    st.Gold,
		Kills:   st.Kills,
		Deaths:  st.Deaths,
		Assists: st.Assists,
		CS:      st.CS,
		KDA:     st.KDA,
		Players: st.Players,
	}
}

func percent(p float64) float64 {
	return math.Round(p*10000) / 100
}

// NewGameData renders a snapshot. Before the first cycle the overlay gets
// empty teams and an even, degraded split.
func NewGameData(s engine.Snapshot) GameData {
	gd := GameData{
		MatchID:        s.MatchID,
		View:           string(s.View),
		GameTime:       s.GameTime,
		OrderTeam:      teamPayload(s.Order),
		ChaosTeam:      teamPayload(s.Chaos),
		WinProbability: WinProbability{Order: 50, Chaos: 50},
		Degraded:       true,
	}

	if s.Comparison != nil {
		gd.GoldDifference = s.Comparison.GoldDifference
		gd.LeadingTeam = string(s.Comparison.Leader)
	}

	if s.Prediction != nil {
		gd.WinProbability = WinProbability{
			Order: percent(s.Prediction.SideA),
			Chaos: percent(s.Prediction.SideB),
		}
		gd.Degraded = s.Prediction.Degraded
	}

	for _, r := range s.Stale {
		gd.Stale = append(gd.Stale, string(r))
	}

	if s.Ready() {
		updated := s.UpdatedAt
		gd.LastUpdated = &updated
	}
	return gd
}
