package fpl

import (
	"fmt"

	"github.com/dmitrijs2005/fplassistant/internal/common"
)

// Event is one gameweek of the bootstrap document.
type Event struct {
	ID          int  `json:"id"`
	IsCurrent   bool `json:"is_current"`
	IsNext      bool `json:"is_next"`
	Finished    bool `json:"finished"`
	DataChecked bool `json:"data_checked"`
}

// ResolveGameweek picks the gameweek the rest of the API treats as current:
// the event flagged current, else the one flagged next, else the finished
// event with the highest ID (season over), else the unfinished, unchecked
// event with the lowest ID (pre-season).
func ResolveGameweek(events []Event) (int, error) {
	for _, e := range events {
		if e.IsCurrent {
			return e.ID, nil
		}
	}
	for _, e := range events {
		if e.IsNext {
			return e.ID, nil
		}
	}

	latest := 0
	for _, e := range events {
		if e.Finished && e.ID > latest {
			latest = e.ID
		}
	}
	if latest > 0 {
		return latest, nil
	}

	earliest := 0
	for _, e := range events {
		if !e.Finished && !e.DataChecked && (earliest == 0 || e.ID < earliest) {
			earliest = e.ID
		}
	}
	if earliest > 0 {
		return earliest, nil
	}

	return 0, fmt.Errorf("%w: no current, next, finished or upcoming gameweek", common.ErrUpstreamUnavailable)
}

// PreviousGameweek returns the gameweek before current, wrapping gameweek 1
// around to last, the final gameweek of the previous season.
func PreviousGameweek(current, last int) int {
	if current <= 1 {
		return last
	}
	return current - 1
}
