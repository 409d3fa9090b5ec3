package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// WeekRange names one published document per season: the department
// splits each term into files covering an inclusive week-number range.
type WeekRange struct {
	First int `yaml:"first"`
	Last  int `yaml:"last"`
}

// Config is the top-level application configuration: server settings plus
// the static course and module tables the timetable system is keyed by.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	// DataDir is where presets are persisted.
	DataDir string `yaml:"data_dir"`

	// LogLevel is "debug", "info" or "error".
	LogLevel string `yaml:"log_level"`

	// RefreshCron is the cron schedule for re-warming the course caches,
	// e.g. "*/30 * * * *". Empty disables the background refresh.
	RefreshCron string `yaml:"refresh"`

	// BaseURL overrides the departmental timetable server. Leave empty
	// for the real one.
	BaseURL string `yaml:"base_url"`

	// Courses maps short course codes to display names, e.g. "comp" to
	// "Computing".
	Courses map[string]string `yaml:"courses"`

	// CourseIDs maps course code and course year to the numeric id the
	// published timetable files are named by.
	CourseIDs map[string]map[int]int `yaml:"course_ids"`

	// Modules maps module codes to module names, used when filtering
	// events by summary prefix.
	Modules map[string]string `yaml:"modules"`

	// CourseModules lists the module codes taught per course and year.
	CourseModules map[string]map[int][]string `yaml:"course_modules"`

	// Seasons are the terms fetched, in order.
	Seasons []string `yaml:"seasons"`

	// WeekRanges are the per-season documents fetched, in order.
	WeekRanges []WeekRange `yaml:"week_ranges"`
}

// Default returns the built-in configuration: the departmental course
// tables and sensible server settings.
func Default() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		DataDir:     "./data",
		LogLevel:    "info",
		RefreshCron: "*/30 * * * *",
		Courses: map[string]string{
			"comp": "Computing",
			"jmc":  "JMC",
			"ee":   "Electronic Engineering",
			"ise":  "Information System Engineering",
			"mci":  "MSc Computing for Industry",
			"mres": "MRes in Advanced Computing",
			"msa":  "MSc Advanced Computing",
			"msv":  "MSc Computing Science",
		},
		CourseIDs: map[string]map[int]int{
			"comp": {1: 1, 2: 2, 3: 3, 4: 4},
			"jmc":  {1: 9, 2: 10, 3: 11, 4: 12},
			"ee":   {1: 5, 2: 6, 3: 7, 4: 8},
			"ise":  {1: 5, 2: 6, 3: 7, 4: 8},
			"mci":  {1: 17},
			"mres": {1: 28},
			"msa":  {1: 14},
			"msv":  {1: 13},
		},
		Modules: map[string]string{
			"220": "Software Engineering Design",
			"221": "Compilers",
			"240": "Models of Computation",
			"245": "Statistics",
			"261": "Laboratory 2",
		},
		CourseModules: map[string]map[int][]string{
			"comp": {
				2: {"220", "221", "240", "245", "261"},
			},
		},
		Seasons: []string{"autumn", "spring", "summer"},
		WeekRanges: []WeekRange{
			{First: 1, Last: 1},
			{First: 2, Last: 11},
		},
	}
}

// Normalize fills zero values in a partially specified config with the
// defaults, so hand-edited files only need the keys they change.
func (c *Config) Normalize() {
	def := Default()

	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.Courses == nil {
		c.Courses = def.Courses
	}
	if c.CourseIDs == nil {
		c.CourseIDs = def.CourseIDs
	}
	if c.Modules == nil {
		c.Modules = def.Modules
	}
	if c.CourseModules == nil {
		c.CourseModules = def.CourseModules
	}
	if len(c.Seasons) == 0 {
		c.Seasons = def.Seasons
	}
	if len(c.WeekRanges) == 0 {
		c.WeekRanges = def.WeekRanges
	}
}

// Load reads the config from path. A missing file is a first run: the
// default config is written there and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := Default()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename, 0600).
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".timetable-config-*.tmp")
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

	return os.Rename(tmpName, path)
}
