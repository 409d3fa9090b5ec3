// Package calendar assembles the final per-course feed: it validates the
// request, drives the fetch/parse pipeline across every published
// document, filters out ignored modules and renders the result as an
// iCalendar document.
package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/leocassarani/timetable/internal/config"
	"github.com/leocassarani/timetable/internal/fetch"
	appLog "github.com/leocassarani/timetable/internal/log"
	"github.com/leocassarani/timetable/internal/model"
	"github.com/leocassarani/timetable/internal/timetable"
)

// ValidationError reports invalid user input: an unknown course code or an
// out-of-window year of entry. It is the only failure surfaced to end
// users verbatim; everything else degrades to fewer events.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Fetcher retrieves one published document, or "" when it can't be had.
type Fetcher interface {
	Fetch(ctx context.Context, courseID int, season string, weeks fetch.WeekRange) string
}

// Cache holds recently parsed occurrence sets by course id. A nil Cache
// on the Assembler disables caching entirely.
type Cache interface {
	Get(courseID int) ([]model.Occurrence, bool)
	Put(courseID int, events []model.Occurrence)
}

// Assembler builds calendars for (course, year of entry) pairs. It is
// safe for concurrent use: every run owns its own parser state, uid
// counter and merge registry.
type Assembler struct {
	cfg     *config.Config
	fetcher Fetcher
	cache   Cache
	now     func() time.Time
}

func NewAssembler(cfg *config.Config, fetcher Fetcher, cache Cache) *Assembler {
	return &Assembler{
		cfg:     cfg,
		fetcher: fetcher,
		cache:   cache,
		now:     time.Now,
	}
}

// SetNow overrides the clock used for academic-year arithmetic, for tests.
func (a *Assembler) SetNow(now func() time.Time) {
	a.now = now
}

// Calendar assembles the feed for a course and two-digit year of entry,
// dropping events whose summary starts with the name of an ignored module
// code, and returns it serialized as an iCalendar document.
func (a *Assembler) Calendar(ctx context.Context, course string, yoe int, ignoredCodes []string) (string, error) {
	events, err := a.Events(ctx, course, yoe)
	if err != nil {
		return "", err
	}

	events = a.filterIgnored(events, ignoredCodes)
	return renderCalendar(a.displayName(course, yoe), events), nil
}

// Events returns the unfiltered occurrences for a course and year of
// entry, consulting the cache first. When every document is missing or
// malformed the result is an empty, valid set — never an error.
func (a *Assembler) Events(ctx context.Context, course string, yoe int) ([]model.Occurrence, error) {
	if err := a.validate(course, yoe); err != nil {
		return nil, err
	}

	id, ok := a.courseID(course, yoe)
	if !ok {
		// No timetable id is published for this course year; the course
		// exists, so serve an empty calendar rather than an error.
		appLog.Info("no timetable id for course year", "course", course, "yoe", yoe)
		return nil, nil
	}

	if a.cache != nil {
		if events, hit := a.cache.Get(id); hit {
			appLog.Debug("serving cached occurrences", "course_id", id, "count", len(events))
			return events, nil
		}
	}

	events := a.fetchAndParse(ctx, id)
	if a.cache != nil {
		a.cache.Put(id, events)
	}
	return events, nil
}

// Warm re-assembles the occurrence set for every configured course and
// valid year of entry, refreshing the cache in the background.
func (a *Assembler) Warm(ctx context.Context) {
	first, last := validYears(a.now())
	for course := range a.cfg.Courses {
		for yoe := first; yoe <= last; yoe++ {
			if _, err := a.Events(ctx, course, yoe); err != nil {
				appLog.Error("cache warm failed", err, "course", course, "yoe", yoe)
			}
		}
	}
}

// Modules returns the module codes taught in the course year that a year
// of entry currently maps onto, or nil when none are configured.
func (a *Assembler) Modules(course string, yoe int) []string {
	years, ok := a.cfg.CourseModules[course]
	if !ok {
		return nil
	}
	return years[courseYear(a.now(), yoe)]
}

// fetchAndParse walks every (season, week range) document in fixed order,
// feeding them all through one run so merges chain correctly across
// adjacent documents.
func (a *Assembler) fetchAndParse(ctx context.Context, courseID int) []model.Occurrence {
	run := timetable.NewExpander()
	parser := timetable.NewParser(run)

	for _, season := range a.cfg.Seasons {
		for _, weeks := range a.cfg.WeekRanges {
			markup := a.fetcher.Fetch(ctx, courseID, season, fetch.WeekRange{
				First: weeks.First,
				Last:  weeks.Last,
			})
			parser.Parse(markup)
		}
	}

	expanded := run.Events()
	events := make([]model.Occurrence, len(expanded))
	for i, occ := range expanded {
		events[i] = *occ
	}

	appLog.Info("timetable assembled", "course_id", courseID, "event_count", len(events))
	return events
}

// validate checks the course code first, then the year of entry against
// the rolling four-year window.
func (a *Assembler) validate(course string, yoe int) error {
	if _, ok := a.cfg.Courses[course]; !ok {
		return &ValidationError{Reason: fmt.Sprintf("invalid course name %q", course)}
	}

	first, last := validYears(a.now())
	if yoe < first || yoe > last {
		return &ValidationError{Reason: fmt.Sprintf("invalid year of entry %02d", yoe)}
	}
	return nil
}

func (a *Assembler) courseID(course string, yoe int) (int, bool) {
	ids, ok := a.cfg.CourseIDs[course]
	if !ok {
		return 0, false
	}
	id, ok := ids[courseYear(a.now(), yoe)]
	return id, ok
}

// filterIgnored drops occurrences whose summary begins, case-insensitively,
// with the name of any ignored module. Unknown codes are skipped.
func (a *Assembler) filterIgnored(events []model.Occurrence, ignoredCodes []string) []model.Occurrence {
	var names []string
	for _, code := range ignoredCodes {
		if name := a.cfg.Modules[code]; name != "" {
			names = append(names, strings.ToLower(name))
		}
	}
	if len(names) == 0 {
		return events
	}

	kept := events[:0:0]
	for _, occ := range events {
		summary := strings.ToLower(occ.Summary)
		ignored := false
		for _, name := range names {
			if strings.HasPrefix(summary, name) {
				ignored = true
				break
			}
		}
		if !ignored {
			kept = append(kept, occ)
		}
	}
	return kept
}

// displayName is the calendar's X-WR-CALNAME: the course name, with a
// "Year N" suffix for multi-year courses.
func (a *Assembler) displayName(course string, yoe int) string {
	name := a.cfg.Courses[course]
	if len(a.cfg.CourseIDs[course]) > 1 {
		name = fmt.Sprintf("%s Year %d", name, courseYear(a.now(), yoe))
	}
	return name
}
