package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/leocassarani/timetable/internal/config"
	"github.com/leocassarani/timetable/internal/fetch"
	"github.com/leocassarani/timetable/internal/model"
)

// fakeFetcher serves canned documents keyed by "season/first-last" and
// records every request it sees.
type fakeFetcher struct {
	docs  map[string]string
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, courseID int, season string, weeks fetch.WeekRange) string {
	key := fmt.Sprintf("%s/%d-%d", season, weeks.First, weeks.Last)
	f.calls = append(f.calls, fmt.Sprintf("%d:%s", courseID, key))
	return f.docs[key]
}

type fakeCache struct {
	entries map[int][]model.Occurrence
	puts    int
}

func (c *fakeCache) Get(courseID int) ([]model.Occurrence, bool) {
	events, ok := c.entries[courseID]
	return events, ok
}

func (c *fakeCache) Put(courseID int, events []model.Occurrence) {
	if c.entries == nil {
		c.entries = make(map[int][]model.Occurrence)
	}
	c.entries[courseID] = events
	c.puts++
}

const autumnDoc = `<html><body>
<h3><font>Department of Computing</font></h3>
<h3><font>Class Timetable (Weeks 2 - 11)</font></h3>
<font>Week 1 start date is Monday 4 October, 2010</font>
<table><tbody>
<tr><td><font>0900</font></td><td><font>Compilers<br />LEC (2-4) / njd (400) / 308<br /></font></td><td><font><br /></font></td></tr>
<tr><td><font>1000</font></td><td><font><br /></font></td><td><font>Programming<br />LEC (2-2) / ajf (376) / 308<br /></font></td></tr>
</tbody></table></body></html>`

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Seasons = []string{"autumn"}
	cfg.WeekRanges = []config.WeekRange{{First: 2, Last: 11}}
	return cfg
}

func testNow() time.Time {
	return time.Date(2010, time.November, 1, 0, 0, 0, 0, time.UTC)
}

func newTestAssembler(fetcher Fetcher, cache Cache) *Assembler {
	a := NewAssembler(testConfig(), fetcher, cache)
	a.SetNow(testNow)
	return a
}

func TestCalendarRejectsUnknownCourse(t *testing.T) {
	a := newTestAssembler(&fakeFetcher{}, nil)

	_, err := a.Calendar(context.Background(), "pottery", 10, nil)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v, want ValidationError", err)
	}
	if !strings.Contains(verr.Reason, `"pottery"`) {
		t.Errorf("reason = %q, want the course name quoted", verr.Reason)
	}
}

func TestCalendarRejectsOutOfWindowYear(t *testing.T) {
	a := newTestAssembler(&fakeFetcher{}, nil)

	for _, yoe := range []int{6, 11, 99} {
		_, err := a.Calendar(context.Background(), "comp", yoe, nil)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("yoe %d: got %v, want ValidationError", yoe, err)
		}
	}
}

func TestCourseCheckedBeforeYear(t *testing.T) {
	a := newTestAssembler(&fakeFetcher{}, nil)

	_, err := a.Calendar(context.Background(), "pottery", 99, nil)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v, want ValidationError", err)
	}
	if !strings.Contains(verr.Reason, "course") {
		t.Errorf("reason = %q, want the course violation first", verr.Reason)
	}
}

func TestEmptyCalendarWhenEveryFetchFails(t *testing.T) {
	a := newTestAssembler(&fakeFetcher{}, nil)

	feed, err := a.Calendar(context.Background(), "comp", 10, nil)
	if err != nil {
		t.Fatalf("Calendar failed: %v", err)
	}
	if !strings.Contains(feed, "BEGIN:VCALENDAR") {
		t.Error("feed is not an iCalendar document")
	}
	if strings.Contains(feed, "BEGIN:VEVENT") {
		t.Error("feed contains events, want none")
	}
}

func TestCalendarContainsParsedEvents(t *testing.T) {
	fetcher := &fakeFetcher{docs: map[string]string{"autumn/2-11": autumnDoc}}
	a := newTestAssembler(fetcher, nil)

	feed, err := a.Calendar(context.Background(), "comp", 10, nil)
	if err != nil {
		t.Fatalf("Calendar failed: %v", err)
	}

	// Compilers runs weeks 2-4, Programming only week 2.
	if got := strings.Count(feed, "BEGIN:VEVENT"); got != 4 {
		t.Errorf("feed has %d events, want 4", got)
	}
	if !strings.Contains(feed, "SUMMARY:Compilers (Lecture)") {
		t.Error("missing Compilers summary")
	}
	if !strings.Contains(feed, "LOCATION:Room 308") {
		t.Error("missing formatted location")
	}
	if !strings.Contains(feed, "TZID=Europe/London") {
		t.Error("event times are not bound to the fixed timezone")
	}
	if !strings.Contains(feed, "BEGIN:VTIMEZONE") {
		t.Error("missing VTIMEZONE block")
	}
	if !strings.Contains(feed, "X-WR-CALNAME:Computing Year 1") {
		t.Error("missing calendar display name")
	}
}

func TestCalendarFiltersIgnoredModules(t *testing.T) {
	fetcher := &fakeFetcher{docs: map[string]string{"autumn/2-11": autumnDoc}}
	a := newTestAssembler(fetcher, nil)

	// "221" is Compilers in the default module table.
	feed, err := a.Calendar(context.Background(), "comp", 10, []string{"221"})
	if err != nil {
		t.Fatalf("Calendar failed: %v", err)
	}

	if strings.Contains(feed, "Compilers") {
		t.Error("ignored module still present in feed")
	}
	if !strings.Contains(feed, "SUMMARY:Programming (Lecture)") {
		t.Error("unrelated event was dropped")
	}
}

func TestEventsUsesCache(t *testing.T) {
	cached := []model.Occurrence{{
		UID:     "DOC-1",
		Start:   time.Date(2010, time.October, 13, 10, 0, 0, 0, time.UTC),
		End:     time.Date(2010, time.October, 13, 11, 0, 0, 0, time.UTC),
		Summary: "Cached (Lecture)",
	}}
	fetcher := &fakeFetcher{docs: map[string]string{"autumn/2-11": autumnDoc}}
	cache := &fakeCache{entries: map[int][]model.Occurrence{1: cached}}
	a := newTestAssembler(fetcher, cache)

	events, err := a.Events(context.Background(), "comp", 10)
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(events) != 1 || events[0].Summary != "Cached (Lecture)" {
		t.Errorf("events = %+v, want the cached set", events)
	}
	if len(fetcher.calls) != 0 {
		t.Errorf("fetcher was called %d times on a cache hit", len(fetcher.calls))
	}
}

func TestEventsPopulatesCacheOnMiss(t *testing.T) {
	fetcher := &fakeFetcher{docs: map[string]string{"autumn/2-11": autumnDoc}}
	cache := &fakeCache{}
	a := newTestAssembler(fetcher, cache)

	if _, err := a.Events(context.Background(), "comp", 10); err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if cache.puts != 1 {
		t.Errorf("cache received %d puts, want 1", cache.puts)
	}
	if len(fetcher.calls) == 0 {
		t.Error("fetcher was never called on a cache miss")
	}
}

func TestAssemblyIsDeterministic(t *testing.T) {
	docs := map[string]string{"autumn/2-11": autumnDoc}

	var feeds []string
	for i := 0; i < 2; i++ {
		a := newTestAssembler(&fakeFetcher{docs: docs}, nil)
		feed, err := a.Calendar(context.Background(), "comp", 10, nil)
		if err != nil {
			t.Fatalf("Calendar failed: %v", err)
		}
		feeds = append(feeds, feed)
	}

	// DTSTAMP varies with the clock; event payloads must not.
	for _, marker := range []string{"SUMMARY:Compilers (Lecture)", "SUMMARY:Programming (Lecture)", "UID:DOC-4"} {
		if !strings.Contains(feeds[0], marker) || !strings.Contains(feeds[1], marker) {
			t.Errorf("marker %q missing from a run", marker)
		}
	}
}
