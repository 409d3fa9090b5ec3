// Package cache keeps recently assembled occurrence sets so repeated
// requests for a popular course don't hammer the department's server.
// Entries expire after 30 minutes; an expired or missing entry just means
// a fresh fetch and parse.
package cache

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/dgraph-io/ristretto"

	appLog "github.com/leocassarani/timetable/internal/log"
	"github.com/leocassarani/timetable/internal/model"
)

const freshFor = 30 * time.Minute

// Store is a TTL cache of parsed occurrences keyed by timetable course id.
// Values are stored in their serialized form, the same round-trippable
// field set the occurrences are defined with.
type Store struct {
	cache *ristretto.Cache
}

func New() (*Store, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     1 << 26, // 64MB of serialized occurrences
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Store{cache: c}, nil
}

// Get returns the cached occurrences for a course id, or false if there is
// no fresh entry.
func (s *Store) Get(courseID int) ([]model.Occurrence, bool) {
	value, found := s.cache.Get(strconv.Itoa(courseID))
	if !found {
		return nil, false
	}

	data, ok := value.([]byte)
	if !ok {
		return nil, false
	}

	var events []model.Occurrence
	if err := json.Unmarshal(data, &events); err != nil {
		appLog.Error("cache entry unreadable, discarding", err, "course_id", courseID)
		return nil, false
	}
	return events, true
}

// Put stores the occurrences for a course id with the freshness window.
// Failures are non-fatal: the worst case is a re-fetch next time.
func (s *Store) Put(courseID int, events []model.Occurrence) {
	data, err := json.Marshal(events)
	if err != nil {
		appLog.Error("cache serialization failed", err, "course_id", courseID)
		return
	}

	s.cache.SetWithTTL(strconv.Itoa(courseID), data, int64(len(data)), freshFor)
	// Writes are buffered; wait so the next request sees this entry.
	// Assembler runs are far too infrequent for this to matter.
	s.cache.Wait()
}
