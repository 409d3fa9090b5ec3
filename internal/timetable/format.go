package timetable

import (
	"regexp"
	"strings"
)

// eventTypeLabels maps the grid's type tokens to their display labels.
// "Wks" carries no label; unknown tokens get no suffix either.
var eventTypeLabels = map[string]string{
	"LEC": "Lecture",
	"LAB": "Lab",
	"TUT": "Tutorial",
	"Wks": "",
}

// eventTypePatterns holds the substring that suppresses the suffix when it
// already occurs in a title. Usually the label itself, but "Tutor" for TUT
// so that e.g. a "Tutor Group" session isn't suffixed "(Tutorial)".
var eventTypePatterns = map[string]string{
	"LEC": "Lecture",
	"LAB": "Lab",
	"TUT": "Tutor",
	"Wks": "",
}

var numericPattern = regexp.MustCompile(`^\d+$`)

// FormatSummary renders the display title, appending the event type label
// unless the title already implies it ("Laboratory I" stays as it is).
func FormatSummary(name, eventType string) string {
	label, ok := eventTypeLabels[eventType]
	if !ok || label == "" {
		return name
	}
	if containsFold(name, eventTypePatterns[eventType]) {
		return name
	}
	return name + " (" + label + ")"
}

// FormatAttendees joins attendee codes into the event description.
func FormatAttendees(attendees []string) string {
	return strings.Join(attendees, ", ")
}

// FormatLocation renders the room list. A list of bare room numbers gets a
// single "Room"/"Rooms" prefix; in a mixed list only the numeric entries
// are prefixed individually and named venues pass through untouched.
func FormatLocation(locations []string) string {
	if len(locations) == 0 {
		return ""
	}

	allNumeric := true
	for _, loc := range locations {
		if !numericPattern.MatchString(loc) {
			allNumeric = false
			break
		}
	}

	if allNumeric {
		prefix := "Room "
		if len(locations) > 1 {
			prefix = "Rooms "
		}
		return prefix + strings.Join(locations, ", ")
	}

	parts := make([]string, len(locations))
	for i, loc := range locations {
		if numericPattern.MatchString(loc) {
			parts[i] = "Room " + loc
		} else {
			parts[i] = loc
		}
	}
	return strings.Join(parts, ", ")
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
