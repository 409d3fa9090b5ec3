package timetable

import (
	"fmt"
	"regexp"
	"time"

	"github.com/leocassarani/timetable/internal/model"
)

// All-day sessions ignore their grid slot and span the working day.
const (
	dayStartHour = 9
	dayEndHour   = 18
)

var allDayPattern = regexp.MustCompile(`(?i)\ball day\b`)

// Expander is the Delegate that turns parse results into concrete
// occurrences: every in-window week of a cell becomes one event, adjacent
// identical timeslots are merged into multi-hour blocks, and uids are
// assigned from a counter scoped to this Expander.
//
// One Expander represents one run. Feed it multiple documents (in
// chronological order) through the same Parser and it accumulates; it is
// not safe for concurrent use, so give each request its own.
type Expander struct {
	window     WeekWindow
	anchor     WeekAnchor
	haveWindow bool
	haveAnchor bool

	uid    int
	merger merger
	events []*model.Occurrence
}

func NewExpander() *Expander {
	return &Expander{merger: newMerger()}
}

func (e *Expander) HandleWeekWindow(w WeekWindow) {
	e.window = w
	e.haveWindow = true
}

func (e *Expander) HandleWeekAnchor(a WeekAnchor) {
	e.anchor = a
	e.haveAnchor = true
}

// HandleEvent expands one parsed cell into per-week occurrences. Without a
// week window or anchor for the current document there is nothing to pin
// the weeks to, so the cell produces no events.
func (e *Expander) HandleEvent(cell ParsedCell) {
	if !e.haveWindow || !e.haveAnchor {
		return
	}

	for week := cell.FirstWeek; week <= cell.LastWeek; week++ {
		if !e.window.Contains(week) {
			continue
		}

		occ := e.newOccurrence(cell, week)
		if !e.merger.absorb(occ) {
			e.events = append(e.events, occ)
		}
	}
}

// ParsingEnded closes out the current document. The window and anchor are
// per-document state: the next document must supply its own before any of
// its cells can produce events. The uid counter and merge registry live on
// for the whole run.
func (e *Expander) ParsingEnded() {
	e.haveWindow = false
	e.haveAnchor = false
}

// Events returns the occurrences accumulated so far, in creation order.
func (e *Expander) Events() []*model.Occurrence {
	return e.events
}

func (e *Expander) newOccurrence(cell ParsedCell, week int) *model.Occurrence {
	offset := (week-e.anchor.Week)*7 + cell.Day
	day := e.anchor.Start.AddDate(0, 0, offset)

	startHour, endHour := cell.Time, cell.Time+1
	if allDayPattern.MatchString(cell.Name) {
		startHour, endHour = dayStartHour, dayEndHour
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), startHour, 0, 0, 0, day.Location())
	end := time.Date(day.Year(), day.Month(), day.Day(), endHour, 0, 0, 0, day.Location())

	e.uid++
	return &model.Occurrence{
		UID:         fmt.Sprintf("DOC-%d", e.uid),
		Start:       start,
		End:         end,
		Summary:     FormatSummary(cell.Name, cell.Type),
		Description: FormatAttendees(cell.Attendees),
		Location:    FormatLocation(cell.Locations),
	}
}
