package calendar

import (
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/leocassarani/timetable/internal/model"
	"github.com/leocassarani/timetable/internal/timetable"
)

const (
	productID = "DoC Timetable"
	tzID      = "Europe/London"

	localTimestampLayout = "20060102T150405"
)

// renderCalendar serializes the occurrences as an iCalendar document with
// the fixed Europe/London timezone definition the department's times are
// published in.
func renderCalendar(name string, events []model.Occurrence) string {
	cal := ics.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ics.MethodPublish)
	cal.SetXWRCalName(name)
	cal.SetXWRTimezone(tzID)
	cal.Components = append(cal.Components, londonTimezone())

	stamp := time.Now().In(timetable.Timezone())
	for _, occ := range events {
		ev := cal.AddEvent(occ.UID)
		ev.SetDtStampTime(stamp)
		ev.SetSummary(occ.Summary)
		if occ.Description != "" {
			ev.SetDescription(occ.Description)
		}
		if occ.Location != "" {
			ev.SetLocation(occ.Location)
		}
		setZonedTime(ev, ics.ComponentPropertyDtStart, occ.Start)
		setZonedTime(ev, ics.ComponentPropertyDtEnd, occ.End)
	}

	return cal.Serialize()
}

// setZonedTime writes a date-time property as a local timestamp bound to
// the fixed timezone, rather than the library's default UTC form.
func setZonedTime(ev *ics.VEvent, prop ics.ComponentProperty, t time.Time) {
	ev.SetProperty(prop, t.In(timetable.Timezone()).Format(localTimestampLayout),
		&ics.KeyValues{Key: "TZID", Value: []string{tzID}})
}

// londonTimezone builds the VTIMEZONE block: BST from the last Sunday of
// March, GMT from the last Sunday of October.
func londonTimezone() *ics.VTimezone {
	tz := &ics.VTimezone{}
	tz.AddProperty(ics.ComponentProperty(ics.PropertyTzid), tzID)

	daylight := &ics.Daylight{}
	daylight.AddProperty(ics.ComponentProperty(ics.PropertyTzoffsetfrom), "+0000")
	daylight.AddProperty(ics.ComponentProperty(ics.PropertyTzoffsetto), "+0100")
	daylight.AddProperty(ics.ComponentProperty(ics.PropertyTzname), "BST")
	daylight.AddProperty(ics.ComponentPropertyDtStart, "19700329T010000")
	daylight.AddProperty(ics.ComponentProperty(ics.PropertyRrule), "FREQ=YEARLY;BYMONTH=3;BYDAY=-1SU")

	standard := &ics.Standard{}
	standard.AddProperty(ics.ComponentProperty(ics.PropertyTzoffsetfrom), "+0100")
	standard.AddProperty(ics.ComponentProperty(ics.PropertyTzoffsetto), "+0000")
	standard.AddProperty(ics.ComponentProperty(ics.PropertyTzname), "GMT")
	standard.AddProperty(ics.ComponentPropertyDtStart, "19701025T020000")
	standard.AddProperty(ics.ComponentProperty(ics.PropertyRrule), "FREQ=YEARLY;BYMONTH=10;BYDAY=-1SU")

	tz.Components = append(tz.Components, daylight, standard)
	return tz
}
