package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFromPathMissingFile(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadFromPathEmptyFile(t *testing.T) {
	cfg, err := LoadFromPath(writeConfig(t, "config.json", "  \n"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadFromPathParsesJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{"diff":{"context_lines":5,"min_collapse_threshold":0,"collapse_enabled_by_default":false,"toggle_debounce_ms":0,"diff_budget_ms":500}}`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, Engine{
		ContextLines:             5,
		MinCollapseThreshold:     0,
		CollapseEnabledByDefault: false,
		MaxDisplayedLineCount:    9999,
		ToggleDebounce:           0,
		DiffBudget:               500 * time.Millisecond,
	}, cfg.Diff)
}

func TestLoadFromPathParsesTOML(t *testing.T) {
	path := writeConfig(t, "config.toml", "[diff]\ncontext_lines = 2\nmax_displayed_line_count = 999\n")

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Diff.ContextLines)
	require.Equal(t, 999, cfg.Diff.MaxDisplayedLineCount)
	require.True(t, cfg.Diff.CollapseEnabledByDefault, "unset keys must keep defaults")
}

func TestLoadFromPathFallsBackPerField(t *testing.T) {
	path := writeConfig(t, "config.json", `{"diff":{"context_lines":0,"min_collapse_threshold":-1,"max_displayed_line_count":50}}`)

	cfg, err := LoadFromPath(path)
	require.ErrorIs(t, err, ErrInvalidConfiguration)

	var invalid *InvalidConfigurationError
	require.ErrorAs(t, err, &invalid)
	require.Len(t, invalid.Violations, 2)
	require.Equal(t, "context_lines", invalid.Violations[0].Key)
	require.Equal(t, "min_collapse_threshold", invalid.Violations[1].Key)

	require.Equal(t, 3, cfg.Diff.ContextLines, "invalid fields revert to defaults")
	require.Equal(t, 4, cfg.Diff.MinCollapseThreshold)
	require.Equal(t, 50, cfg.Diff.MaxDisplayedLineCount, "valid fields are kept")
}

func TestLoadFromPathRejectsMalformedFile(t *testing.T) {
	cfg, err := LoadFromPath(writeConfig(t, "config.json", `{"diff":`))
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidConfiguration, "parse errors are not validation errors")
	require.Equal(t, Default(), cfg)
}

func TestDefaultPathUsesXDGConfigHome(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	got, err := DefaultPath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(xdg, "sidediff", "config.json"), got)
}
