package lcu

import "strings"

// Side is one of the two teams in a match
type Side string

const (
	SideOrder Side = "ORDER"
	SideChaos Side = "CHAOS"
)

// Sides lists both sides in feature order (ORDER is team 100)
var Sides = []Side{SideOrder, SideChaos}

// Opponent returns the other side
func (s Side) Opponent() Side {
	if s == SideOrder {
		return SideChaos
	}
	return SideOrder
}

// Player represents a player from the live client API. Unknown fields are
// ignored and missing ones decode to zero values.
type Player struct {
	ChampionName    string  `json:"championName"`
	IsBot           bool    `json:"isBot"`
	IsDead          bool    `json:"isDead"`
	Level           int     `json:"level"`
	Position        string  `json:"position"`
	RawChampionName string  `json:"rawChampionName"`
	RespawnTimer    float64 `json:"respawnTimer"`
	Scores          Scores  `json:"scores"`
	SummonerName    string  `json:"summonerName"`
	RiotID          string  `json:"riotId"`
	Team            Side    `json:"team"`
}

// Name returns the player identifier, preferring the Riot ID
func (p Player) Name() string {
	if p.RiotID != "" {
		return p.RiotID
	}
	return p.SummonerName
}

// Scores represents player scores
type Scores struct {
	Assists       int     `json:"assists"`
	CreepScore    int     `json:"creepScore"`
	MinionsKilled int     `json:"minionsKilled"`
	Deaths        int     `json:"deaths"`
	Kills         int     `json:"kills"`
	WardScore     float64 `json:"wardScore"`
}

// CS returns the creep score, falling back to minionsKilled for older payloads
func (s Scores) CS() int {
	if s.CreepScore > 0 {
		return s.CreepScore
	}
	return s.MinionsKilled
}

// EventKind is the EventName of a live client event
type EventKind string

const (
	EventChampionKill EventKind = "ChampionKill"
	EventFirstBlood   EventKind = "FirstBlood"
	EventDragonKill   EventKind = "DragonKill"
	EventBaronKill    EventKind = "BaronKill"
	EventTurretKilled EventKind = "TurretKilled"
	EventInhibKilled  EventKind = "InhibKilled"
	EventAce          EventKind = "Ace"
)

// Event is one entry of the cumulative event log
type Event struct {
	EventID    int       `json:"EventID"`
	EventName  EventKind `json:"EventName"`
	EventTime  float64   `json:"EventTime"`
	KillerName string    `json:"KillerName"`
	VictimName string    `json:"VictimName"`
	Assisters  []string  `json:"Assisters"`
	Acer       string    `json:"Acer"`
	AcingTeam  Side      `json:"AcingTeam"`
	Recipient  string    `json:"Recipient"`
}

// Killer returns the credited player. First blood events name the
// player in Recipient rather than KillerName.
func (e Event) Killer() string {
	if e.KillerName == "" && e.EventName == EventFirstBlood {
		return e.Recipient
	}
	return e.KillerName
}

// EventLog is the eventdata payload
type EventLog struct {
	Events []Event `json:"Events"`
}

// GameStats is the gamestats payload
type GameStats struct {
	GameMode   string  `json:"gameMode"`
	GameTime   float64 `json:"gameTime"`
	MapName    string  `json:"mapName"`
	MapNumber  int     `json:"mapNumber"`
	MapTerrain string  `json:"mapTerrain"`
}

// BaseName strips any tag suffix ("Hero#EUW" -> "Hero")
func BaseName(name string) string {
	if i := strings.IndexByte(name, '#'); i >= 0 {
		return name[:i]
	}
	return name
}
