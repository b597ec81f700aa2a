package gold

import (
	"slices"

	"riftwatch/internal/lcu"
)

const AceGold = 150

// killerGold is paid to the credited killer, keyed by event kind
var killerGold = map[lcu.EventKind]int{
	lcu.EventDragonKill:   300,
	lcu.EventBaronKill:    500,
	lcu.EventTurretKilled: 250,
	lcu.EventInhibKilled:  400,
	lcu.EventChampionKill: 300,
	lcu.EventFirstBlood:   400,
}

// assistGold is paid to assisters. Turret, inhibitor and champion kills pay
// no assist bonus.
var assistGold = map[lcu.EventKind]int{
	lcu.EventDragonKill: 100,
	lcu.EventBaronKill:  200,
}

// EventGold replays the whole event log and returns the gold credited to
// playerName. The log is cumulative, so the total is derived fresh on every
// call and the function holds no state.
//
// Per event the first matching role wins: acer on an Ace, then killer, then
// assister.
func EventGold(playerName string, events []lcu.Event) int {
	base := lcu.BaseName(playerName)
	if base == "" {
		return 0
	}

	total := 0
	for _, ev := range events {
		if ev.EventName == lcu.EventAce && lcu.BaseName(ev.Acer) == base {
			total += AceGold
			continue
		}

		if lcu.BaseName(ev.Killer()) == base {
			total += killerGold[ev.EventName]
			continue
		}

		if isAssister(base, ev.Assisters) {
			total += assistGold[ev.EventName]
		}
	}
	return total
}

func isAssister(base string, assisters []string) bool {
	return slices.ContainsFunc(assisters, func(name string) bool {
		return lcu.BaseName(name) == base
	})
}
