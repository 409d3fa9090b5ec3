package timetable

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	appLog "github.com/leocassarani/timetable/internal/log"
)

// The department publishes each timetable as one quirky HTML page: the
// week range lives in the second <h3> heading, the week start date in the
// first stand-alone <font> tag under <body>, and the grid itself is a
// table whose cells each wrap their text in a <font> tag. Everything in
// this file is tied to that one layout; nothing downstream touches the
// markup.

// WeekWindow is the inclusive range of week numbers a document covers.
type WeekWindow struct {
	First int
	Last  int
}

// Contains reports whether week falls inside the window.
func (w WeekWindow) Contains(week int) bool {
	return week >= w.First && week <= w.Last
}

// WeekAnchor ties a week number to the calendar date of its Monday,
// letting relative week numbers become absolute dates.
type WeekAnchor struct {
	Week  int
	Start time.Time
}

const weekStartLayout = "Monday 2 January, 2006"

var (
	weekRangePattern = regexp.MustCompile(`\(Weeks? (\d{1,2})[\s-]*(\d{1,2})?\)`)
	weekNoPattern    = regexp.MustCompile(`Week (\d+) start date`)
	startDatePattern = regexp.MustCompile(`\w+ \d{1,2} \w+, \d{4}$`)
)

var (
	tzOnce sync.Once
	tz     *time.Location
)

// Timezone returns the fixed zone every timetable time is expressed in.
func Timezone() *time.Location {
	tzOnce.Do(func() {
		loc, err := time.LoadLocation("Europe/London")
		if err != nil {
			appLog.Error("timezone load failed, falling back to UTC", err)
			loc = time.UTC
		}
		tz = loc
	})
	return tz
}

// extractWeekWindow reads the "(Week N)" / "(Weeks N - M)" range from the
// second heading. Absence means the document yields no events.
func extractWeekWindow(doc *goquery.Document) (WeekWindow, bool) {
	text := doc.Find("body > h3").Eq(1).Find("font").Text()
	m := weekRangePattern.FindStringSubmatch(text)
	if m == nil {
		return WeekWindow{}, false
	}

	first, _ := strconv.Atoi(m[1])
	last := first
	if m[2] != "" {
		last, _ = strconv.Atoi(m[2])
	}
	return WeekWindow{First: first, Last: last}, true
}

// extractWeekAnchor reads the week number and its Monday from the first
// stand-alone <font> tag, e.g. "Week 1 start date is Monday 4 October, 2010".
func extractWeekAnchor(doc *goquery.Document) (WeekAnchor, bool) {
	text := strings.TrimSpace(doc.Find("body > font").First().Text())
	if text == "" {
		return WeekAnchor{}, false
	}

	numMatch := weekNoPattern.FindStringSubmatch(text)
	dateMatch := startDatePattern.FindString(text)
	if numMatch == nil || dateMatch == "" {
		return WeekAnchor{}, false
	}

	week, _ := strconv.Atoi(numMatch[1])
	start, err := time.ParseInLocation(weekStartLayout, dateMatch, Timezone())
	if err != nil {
		appLog.Debug("week start date unparseable", "text", dateMatch)
		return WeekAnchor{}, false
	}
	return WeekAnchor{Week: week, Start: start}, true
}

// extractCells returns the inner HTML of every grid cell in document
// order. Line breaks are kept because event cells use them to separate
// the title line from the metadata line.
func extractCells(doc *goquery.Document) []string {
	var cells []string
	doc.Find("table tbody tr td font").Each(func(_ int, sel *goquery.Selection) {
		inner, err := sel.Html()
		if err != nil {
			return
		}
		cells = append(cells, strings.TrimSpace(inner))
	})
	return cells
}
