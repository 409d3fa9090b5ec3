// Package web is the HTTP front end: it maps URL paths onto calendar
// assembler invocations and serves the resulting feeds as text/calendar.
package web

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/leocassarani/timetable/internal/calendar"
	"github.com/leocassarani/timetable/internal/config"
	appLog "github.com/leocassarani/timetable/internal/log"
	"github.com/leocassarani/timetable/internal/preset"
)

var yoePattern = regexp.MustCompile(`^\d{2}$`)

// Server routes calendar requests. Construct with NewServer and mount
// Handler() on an http.Server.
type Server struct {
	cfg       *config.Config
	assembler *calendar.Assembler
	presets   *preset.Store
	mux       *http.ServeMux
}

func NewServer(cfg *config.Config, assembler *calendar.Assembler, presets *preset.Store) *Server {
	s := &Server{
		cfg:       cfg,
		assembler: assembler,
		presets:   presets,
		mux:       http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /p/{name}", s.handlePreset)
	s.mux.HandleFunc("GET /{course}/{yoe}", s.handleCalendar)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "DoC Timetable")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Subscribe to /<course>/<year of entry>, e.g. /comp/10.")
	fmt.Fprintln(w, "Add ?modules=220,240 to keep only the modules you take.")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

// handleCalendar serves /{course}/{yoe}, e.g. /comp/10. A "modules" query
// parameter lists the module codes the student takes; the complement of
// the course year's module list is filtered out and saved as a preset.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	course := r.PathValue("course")
	yoeText := r.PathValue("yoe")

	if !yoePattern.MatchString(yoeText) {
		http.NotFound(w, r)
		return
	}
	yoe, _ := strconv.Atoi(yoeText)

	ignored := s.ignoredModules(course, yoe, r.URL.Query().Get("modules"))
	if len(ignored) > 0 {
		s.savePreset(w, course, yoe, ignored)
	}

	s.serveCalendar(w, r, course, yoe, ignored)
}

// handlePreset serves /p/{name} for a stored module selection.
func (s *Server) handlePreset(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	p, err := s.presets.Find(name)
	if err != nil {
		appLog.Error("preset lookup failed", err, "name", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if p == nil {
		http.Error(w, fmt.Sprintf("unknown preset %q", name), http.StatusNotFound)
		return
	}

	s.serveCalendar(w, r, p.Course, p.YearOfEntry, p.Ignored)
}

func (s *Server) serveCalendar(w http.ResponseWriter, r *http.Request, course string, yoe int, ignored []string) {
	feed, err := s.assembler.Calendar(r.Context(), course, yoe, ignored)
	if err != nil {
		var verr *calendar.ValidationError
		if errors.As(err, &verr) {
			http.Error(w, verr.Reason, http.StatusNotFound)
			return
		}
		appLog.Error("calendar assembly failed", err, "course", course, "yoe", yoe)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	fmt.Fprint(w, feed)
}

// ignoredModules computes which module codes to filter: the configured
// module list for the course year minus the ones the student selected.
// Without a modules parameter nothing is filtered.
func (s *Server) ignoredModules(course string, yoe int, taken string) []string {
	if taken == "" {
		return nil
	}

	all := s.assembler.Modules(course, yoe)
	if len(all) == 0 {
		return nil
	}

	keep := make(map[string]bool)
	for _, code := range strings.Split(taken, ",") {
		keep[strings.TrimSpace(code)] = true
	}

	var ignored []string
	for _, code := range all {
		if !keep[code] {
			ignored = append(ignored, code)
		}
	}
	return ignored
}

func (s *Server) savePreset(w http.ResponseWriter, course string, yoe int, ignored []string) {
	p := &preset.Preset{Course: course, YearOfEntry: yoe, Ignored: ignored}
	if err := s.presets.Save(p); err != nil {
		// Presets are a convenience; the calendar is still served.
		appLog.Error("preset save failed", err, "course", course, "yoe", yoe)
		return
	}
	w.Header().Set("X-Timetable-Preset", p.Name)
}
