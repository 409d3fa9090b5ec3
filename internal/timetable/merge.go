package timetable

import (
	"time"

	"github.com/leocassarani/timetable/internal/model"
)

// merger folds back-to-back one-hour occurrences with the same summary
// into a single block, so a two-hour lecture rendered as two adjacent grid
// cells comes out as one event. The registry maps a start timestamp to the
// occurrences registered at it.
type merger struct {
	byStart map[int64][]*model.Occurrence
}

func newMerger() merger {
	return merger{byStart: make(map[int64][]*model.Occurrence)}
}

// absorb reports whether occ was merged into an occurrence starting
// exactly one hour earlier. On a merge the earlier occurrence's end is
// extended and it is re-registered at occ's start, so a later cell can
// chain onto it and an N-hour block collapses into one event. Otherwise
// occ itself is registered and the caller keeps it.
func (m merger) absorb(occ *model.Occurrence) bool {
	previous := occ.Start.Add(-time.Hour)

	for _, prev := range m.byStart[previous.Unix()] {
		if prev.Summary == occ.Summary {
			prev.End = occ.End
			m.register(occ.Start, prev)
			return true
		}
	}

	m.register(occ.Start, occ)
	return false
}

func (m merger) register(start time.Time, occ *model.Occurrence) {
	m.byStart[start.Unix()] = append(m.byStart[start.Unix()], occ)
}
