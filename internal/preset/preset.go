// Package preset stores named ignored-module selections, so a student can
// bookmark a short link instead of a query string full of module codes.
package preset

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Preset is one saved selection: the course and year of entry it applies
// to, plus the module codes to filter out of the calendar.
type Preset struct {
	Name        string   `json:"name"`
	Course      string   `json:"course"`
	YearOfEntry int      `json:"year_of_entry"`
	Ignored     []string `json:"ignored"`
}

var namePattern = regexp.MustCompile(`^[0-9a-f]{10}$`)

// Name derives the preset's identifier from its contents: the first ten
// hex characters of a SHA-1 over course, year of entry and the sorted
// ignored codes. The same selection always hashes to the same name.
func Name(course string, yoe int, ignored []string) string {
	codes := append([]string(nil), ignored...)
	sort.Strings(codes)

	salted := course + strconv.Itoa(yoe) + strings.Join(codes, "")
	sum := sha1.Sum([]byte(salted))
	return hex.EncodeToString(sum[:])[:10]
}

// Store persists presets as JSON files in a data directory.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Find returns the preset with the given name, or nil if there is none.
// Malformed names are treated as absent, never as paths.
func (s *Store) Find(name string) (*Preset, error) {
	if !namePattern.MatchString(name) {
		return nil, nil
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name+".json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var p Preset
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Save writes the preset under its derived name, assigning p.Name. Saving
// an already stored selection is a no-op rewrite of the same path.
func (s *Store) Save(p *Preset) error {
	p.Name = Name(p.Course, p.YearOfEntry, p.Ignored)

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	// Atomic write: temp file in the same directory, then rename.
	tmp, err := os.CreateTemp(s.dir, ".preset-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, filepath.Join(s.dir, p.Name+".json"))
}
