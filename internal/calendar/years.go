package calendar

import "time"

// Draft timetables for the next academic year are published in the first
// weeks of August, so that's when the current academic year rolls over.

// academicYear returns the academic year in progress at now: the one that
// started last calendar year if it's not August yet.
func academicYear(now time.Time) int {
	year := now.Year()
	if now.Month() < time.August {
		year--
	}
	return year
}

// courseYear converts a two-digit year of entry into the 1-based year
// within the course, e.g. in autumn 2010 a student who entered in 2008 is
// in year 3.
func courseYear(now time.Time, yoe int) int {
	return academicYear(now) - (yoe + 2000) + 1
}

// validYears returns the inclusive range of two-digit years of entry that
// can have a timetable this academic year: the current year down to three
// years prior.
func validYears(now time.Time) (first, last int) {
	last = academicYear(now) - 2000
	return last - 3, last
}
