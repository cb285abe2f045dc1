package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	configDirName  = "sidediff"
	configFileName = "config.json"
)

// ErrInvalidConfiguration is matched by *InvalidConfigurationError.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Engine holds the diff engine tunables.
type Engine struct {
	ContextLines             int
	MinCollapseThreshold     int
	CollapseEnabledByDefault bool
	MaxDisplayedLineCount    int
	ToggleDebounce           time.Duration
	DiffBudget               time.Duration
}

type AppConfig struct {
	Diff Engine
}

// DefaultEngine returns the built-in engine settings.
func DefaultEngine() Engine {
	return Engine{
		ContextLines:             3,
		MinCollapseThreshold:     4,
		CollapseEnabledByDefault: true,
		MaxDisplayedLineCount:    9999,
		ToggleDebounce:           50 * time.Millisecond,
		DiffBudget:               2 * time.Second,
	}
}

func Default() AppConfig {
	return AppConfig{Diff: DefaultEngine()}
}

// Violation describes one rejected setting.
type Violation struct {
	Key   string
	Value int
	Rule  string
}

func (v Violation) String() string {
	return fmt.Sprintf("diff.%s=%d (must be %s)", v.Key, v.Value, v.Rule)
}

// InvalidConfigurationError lists every rejected setting. The config returned alongside it uses defaults for those
// settings.
type InvalidConfigurationError struct {
	Path       string
	Violations []Violation
}

func (e *InvalidConfigurationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("invalid configuration %s: %s", e.Path, strings.Join(parts, ", "))
}

func (e *InvalidConfigurationError) Unwrap() error {
	return ErrInvalidConfiguration
}

type fileConfig struct {
	Diff diffSection `json:"diff" toml:"diff"`
}

type diffSection struct {
	ContextLines             *int  `json:"context_lines" toml:"context_lines"`
	MinCollapseThreshold     *int  `json:"min_collapse_threshold" toml:"min_collapse_threshold"`
	CollapseEnabledByDefault *bool `json:"collapse_enabled_by_default" toml:"collapse_enabled_by_default"`
	MaxDisplayedLineCount    *int  `json:"max_displayed_line_count" toml:"max_displayed_line_count"`
	ToggleDebounceMS         *int  `json:"toggle_debounce_ms" toml:"toggle_debounce_ms"`
	DiffBudgetMS             *int  `json:"diff_budget_ms" toml:"diff_budget_ms"`
}

func Load() (AppConfig, string, error) {
	path, err := DefaultPath()
	if err != nil {
		return Default(), "", err
	}
	cfg, err := LoadFromPath(path)
	return cfg, path, err
}

// LoadFromPath reads a JSON file, or a TOML file when path ends in .toml. A missing or empty file yields defaults.
// Out-of-range values fall back to their defaults and are reported with an *InvalidConfigurationError.
func LoadFromPath(path string) (AppConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return cfg, nil
	}

	var raw fileConfig
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &raw)
	} else {
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	var violations []Violation
	intField := func(key string, v *int, minimum int, dst *int) {
		if v == nil {
			return
		}
		if *v < minimum {
			violations = append(violations, Violation{Key: key, Value: *v, Rule: fmt.Sprintf(">= %d", minimum)})
			return
		}
		*dst = *v
	}

	d := raw.Diff
	intField("context_lines", d.ContextLines, 1, &cfg.Diff.ContextLines)
	intField("min_collapse_threshold", d.MinCollapseThreshold, 0, &cfg.Diff.MinCollapseThreshold)
	intField("max_displayed_line_count", d.MaxDisplayedLineCount, 1, &cfg.Diff.MaxDisplayedLineCount)

	debounce := int(cfg.Diff.ToggleDebounce / time.Millisecond)
	intField("toggle_debounce_ms", d.ToggleDebounceMS, 0, &debounce)
	cfg.Diff.ToggleDebounce = time.Duration(debounce) * time.Millisecond

	budget := int(cfg.Diff.DiffBudget / time.Millisecond)
	intField("diff_budget_ms", d.DiffBudgetMS, 1, &budget)
	cfg.Diff.DiffBudget = time.Duration(budget) * time.Millisecond

	if d.CollapseEnabledByDefault != nil {
		cfg.Diff.CollapseEnabledByDefault = *d.CollapseEnabledByDefault
	}

	if len(violations) > 0 {
		return cfg, &InvalidConfigurationError{Path: path, Violations: violations}
	}
	return cfg, nil
}

func DefaultPath() (string, error) {
	home, err := configHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configDirName, configFileName), nil
}

func configHome() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return xdg, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config"), nil
}
