// Package config loads process configuration from the environment, with an
// optional YAML tuning file for the search budget.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"
)

// SearchConfig tunes the local-search refinement pass.
type SearchConfig struct {
	MaxIterations int           `yaml:"max_iterations"`
	TimeLimit     time.Duration `yaml:"time_limit"`
	Parallelism   int           `yaml:"parallelism"`
}

// Config captures environment driven configuration for the planner.
type Config struct {
	SQLiteDSN  string
	LogLevel   string
	WindowDays int
	Search     SearchConfig
}

// Load parses configuration from the process environment. The loader applies
// defaults for optional fields and reports every invalid value at once.
// When PLANNER_TUNING_FILE is set, the named YAML file overrides the search
// defaults field by field; keys absent from the file keep their defaults.
func Load() (Config, error) {
	cfg := Config{
		SQLiteDSN:  "file:planner.db?_pragma=foreign_keys(1)",
		LogLevel:   "info",
		WindowDays: 14,
		Search: SearchConfig{
			MaxIterations: 200,
			TimeLimit:     2 * time.Second,
			Parallelism:   4,
		},
	}

	invalid := make([]string, 0, 2)

	if dsn := strings.TrimSpace(os.Getenv("PLANNER_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}
	if level := strings.TrimSpace(os.Getenv("PLANNER_LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}
	if daysValue := strings.TrimSpace(os.Getenv("PLANNER_WINDOW_DAYS")); daysValue != "" {
		days, err := strconv.Atoi(daysValue)
		if err != nil || days <= 0 {
			invalid = append(invalid, "PLANNER_WINDOW_DAYS")
		} else {
			cfg.WindowDays = days
		}
	}

	if path := strings.TrimSpace(os.Getenv("PLANNER_TUNING_FILE")); path != "" {
		search, err := loadTuning(path, cfg.Search)
		if err != nil {
			return Config{}, err
		}
		cfg.Search = search
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("config: invalid environment values: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

// tuningFile is the YAML shape of the optional tuning file. Fields are
// pointers so that an absent key keeps its default while an explicit zero
// still disables the knob. Durations accept Go duration syntax ("500ms",
// "2s").
type tuningFile struct {
	Search struct {
		MaxIterations *int    `yaml:"max_iterations"`
		TimeLimit     *string `yaml:"time_limit"`
		Parallelism   *int    `yaml:"parallelism"`
	} `yaml:"search"`
}

// loadTuning layers the file's set fields over base, leaving unset fields at
// their defaults.
func loadTuning(path string, base SearchConfig) (SearchConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SearchConfig{}, fmt.Errorf("config: read tuning file: %w", err)
	}
	var parsed tuningFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return SearchConfig{}, fmt.Errorf("config: parse tuning file %s: %w", path, err)
	}

	out := base
	if parsed.Search.MaxIterations != nil {
		if *parsed.Search.MaxIterations < 0 {
			return SearchConfig{}, fmt.Errorf("config: search.max_iterations must not be negative in %s", path)
		}
		out.MaxIterations = *parsed.Search.MaxIterations
	}
	if parsed.Search.TimeLimit != nil {
		limit, err := time.ParseDuration(*parsed.Search.TimeLimit)
		if err != nil || limit < 0 {
			return SearchConfig{}, fmt.Errorf("config: invalid search.time_limit %q in %s", *parsed.Search.TimeLimit, path)
		}
		out.TimeLimit = limit
	}
	if parsed.Search.Parallelism != nil {
		if *parsed.Search.Parallelism < 0 {
			return SearchConfig{}, fmt.Errorf("config: search.parallelism must not be negative in %s", path)
		}
		out.Parallelism = *parsed.Search.Parallelism
	}
	return out, nil
}
