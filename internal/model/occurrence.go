package model

import "time"

// Occurrence is a single concrete scheduled event: one timeslot (or a
// merged block of adjacent timeslots) in one specific week. Summary,
// description and location are already formatted for display.
//
// The JSON field set is the round-trippable form used by the cache.
type Occurrence struct {
	UID         string    `json:"uid"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
}

// Duration returns the length of the occurrence.
func (o *Occurrence) Duration() time.Duration {
	return o.End.Sub(o.Start)
}
