package timetable

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	appLog "github.com/leocassarani/timetable/internal/log"
)

// ParsedCell is one event recovered from a grid cell: the slot it sits in,
// the raw title and type token, the week range it repeats over, and the
// attendee and room tokens still unformatted.
type ParsedCell struct {
	Day  int // 0 = Monday
	Time int // hour of day

	Name string
	Type string

	FirstWeek int
	LastWeek  int

	Attendees []string
	Locations []string
}

// Delegate receives parse results as the parser walks a document. All
// methods are required; implement the ones you don't care about as no-ops.
// ParsingEnded is always called exactly once per Parse, even for empty or
// malformed input.
type Delegate interface {
	HandleWeekWindow(w WeekWindow)
	HandleWeekAnchor(a WeekAnchor)
	HandleEvent(cell ParsedCell)
	ParsingEnded()
}

// Parser turns one timetable document into a stream of delegate calls.
// It is stateless between Parse calls and never fails: anything it cannot
// make sense of simply produces fewer events.
type Parser struct {
	delegate Delegate
}

func NewParser(d Delegate) *Parser {
	return &Parser{delegate: d}
}

const lineBreak = "<br/>"

var (
	headerPattern   = regexp.MustCompile(`^(\d{2})00$`)
	infoPattern     = regexp.MustCompile(`(\w+) \((\d{1,2})-(\d{1,2})\)`)
	attendeePattern = regexp.MustCompile(`([\w'-]+) \([-0-9]{3,5}\)`)
)

// Parse walks the document and reports what it finds to the delegate.
func (p *Parser) Parse(markup string) {
	defer p.delegate.ParsingEnded()

	if markup == "" {
		return
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		appLog.Error("timetable document unreadable", err)
		return
	}

	if window, ok := extractWeekWindow(doc); ok {
		p.delegate.HandleWeekWindow(window)
	}
	if anchor, ok := extractWeekAnchor(doc); ok {
		p.delegate.HandleWeekAnchor(anchor)
	}

	p.interpretCells(extractCells(doc))
}

// interpretCells runs the (day, time) cursor over the cell stream. A cell
// like "0900" is a row header: it resets the day and sets the hour. Blank
// cells advance the day. Anything else is an event cell.
func (p *Parser) interpretCells(cells []string) {
	day, hour := 0, 0

	for _, cell := range cells {
		cell = normalizeBreaks(cell)

		if m := headerPattern.FindStringSubmatch(cell); m != nil {
			day = 0
			hour, _ = strconv.Atoi(m[1])
			continue
		}

		if cell != "" && cell != lineBreak {
			p.interpretEventCell(cell, day, hour)
		}

		day++
	}
}

// interpretEventCell splits a cell's payload into lines and parses them
// two at a time: a title line followed by a metadata line. Cells may stack
// several events this way.
func (p *Parser) interpretEventCell(cell string, day, hour int) {
	var lines []string
	for _, line := range strings.Split(cell, lineBreak) {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	for i := 0; i+1 < len(lines); i += 2 {
		parsed, ok := parsePair(lines[i], lines[i+1], day, hour)
		if !ok {
			appLog.Debug("unrecognized event cell dropped", "title", lines[i], "meta", lines[i+1])
			continue
		}
		p.delegate.HandleEvent(parsed)
	}
}

// parsePair parses one (title, metadata) pair. The metadata line holds up
// to three " / "-separated fields: "LEC (2-6)" style type-and-weeks info,
// attendees, and rooms. A pair whose info field doesn't match the expected
// pattern yields no event.
func parsePair(title, meta string, day, hour int) (ParsedCell, bool) {
	var attendees, locations string

	fields := strings.SplitN(meta, " / ", 3)
	info := fields[0]
	if len(fields) > 1 {
		attendees = fields[1]
	}
	if len(fields) > 2 {
		locations = fields[2]
	}

	m := infoPattern.FindStringSubmatch(info)
	if m == nil {
		return ParsedCell{}, false
	}
	first, _ := strconv.Atoi(m[2])
	last, _ := strconv.Atoi(m[3])

	return ParsedCell{
		Day:       day,
		Time:      hour,
		Name:      strings.ReplaceAll(title, "&amp;", "&"),
		Type:      m[1],
		FirstWeek: first,
		LastWeek:  last,
		Attendees: parseAttendees(attendees),
		Locations: parseLocations(locations),
	}, true
}

// parseAttendees picks out codes like "ajf (376)", keeping the code and
// discarding the extension. Anything else in the field is ignored.
func parseAttendees(field string) []string {
	var codes []string
	for _, m := range attendeePattern.FindAllStringSubmatch(field, -1) {
		codes = append(codes, m[1])
	}
	return codes
}

func parseLocations(field string) []string {
	if field == "" {
		return nil
	}
	return strings.Split(field, ", ")
}

// normalizeBreaks maps source-style "<br />" onto the serialized "<br/>"
// form so splitting and blank detection see a single marker.
func normalizeBreaks(cell string) string {
	return strings.ReplaceAll(cell, "<br />", lineBreak)
}
