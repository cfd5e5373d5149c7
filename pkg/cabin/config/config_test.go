package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cognicore/cabin/pkg/cabin/filter"
	"github.com/cognicore/cabin/pkg/cabin/internalerr"
)

func fixtureConfig() string {
	return filepath.Join("..", "..", "..", "testdata", "automotive", "cabin.yaml")
}

func TestLoadFixtureConfig(t *testing.T) {
	cfg, err := Load(fixtureConfig())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := filepath.Join("..", "..", "..", "testdata", "automotive", "available_settings.yaml")
	if cfg.Catalog.Settings != want {
		t.Errorf("Catalog.Settings = %q, want %q", cfg.Catalog.Settings, want)
	}
	if cfg.Matching.Thresholds != filter.DefaultThresholds() {
		t.Errorf("Thresholds = %+v", cfg.Matching.Thresholds)
	}
	if cfg.Store.Driver != "memory" {
		t.Errorf("Store.Driver = %q", cfg.Store.Driver)
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("catalog:\n  settings: /etc/cabin/settings.yaml\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Matching.Thresholds != filter.DefaultThresholds() {
		t.Errorf("Thresholds = %+v, want defaults", cfg.Matching.Thresholds)
	}
	if cfg.Matching.ASRCorrection == nil || !*cfg.Matching.ASRCorrection {
		t.Error("ASR correction should default to on")
	}
	if cfg.Store.Driver != "memory" || cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("defaults = %+v %+v", cfg.Store, cfg.Log)
	}
}

func TestParseOverrides(t *testing.T) {
	data := `
catalog:
  settings: s.yaml
matching:
  setting_name: 0.75
  asr_correction: false
  phonetic_correction: true
  cache_size: 16
store:
  driver: sqlite
  path: /var/lib/cabin.db
`
	cfg, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Matching.SettingName != 0.75 {
		t.Errorf("SettingName = %v, want 0.75", cfg.Matching.SettingName)
	}
	if cfg.Matching.SettingValueAntonym != 0.1 {
		t.Errorf("unset threshold should default, got %v", cfg.Matching.SettingValueAntonym)
	}

	opts := cfg.FilterOptions(&Components{}, nil)
	if !opts.SkipASRCorrection {
		t.Error("asr_correction: false should skip the correction")
	}
	if !opts.PhoneticCorrection || opts.MatchCacheSize != 16 {
		t.Errorf("PhoneticCorrection = %v, MatchCacheSize = %d", opts.PhoneticCorrection, opts.MatchCacheSize)
	}
}

func TestParseExpandsEnv(t *testing.T) {
	t.Setenv("CABIN_DATA", "/opt/cabin")
	cfg, err := Parse([]byte("catalog:\n  settings: ${CABIN_DATA}/settings.yaml\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Catalog.Settings != "/opt/cabin/settings.yaml" {
		t.Errorf("Catalog.Settings = %q", cfg.Catalog.Settings)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing catalog", "log:\n  level: debug\n"},
		{"unknown driver", "catalog:\n  settings: s.yaml\nstore:\n  driver: redis\n"},
		{"sqlite without path", "catalog:\n  settings: s.yaml\nstore:\n  driver: sqlite\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if !errors.Is(err, internalerr.ErrInvalidConfig) {
				t.Errorf("Parse error = %v, want ErrInvalidConfig", err)
			}
		})
	}

	if _, err := Parse([]byte("catalog: [unclosed")); err == nil {
		t.Error("Parse should fail on malformed YAML")
	}
}

func TestLoadResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cabin.yaml")
	data := "catalog:\n  settings: settings.yaml\n  alternative_names: /abs/alt.yaml\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Catalog.Settings != filepath.Join(dir, "settings.yaml") {
		t.Errorf("Catalog.Settings = %q", cfg.Catalog.Settings)
	}
	if cfg.Catalog.AlternativeNames != "/abs/alt.yaml" {
		t.Errorf("absolute path changed: %q", cfg.Catalog.AlternativeNames)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info("hidden")
	logger.Warn("shown", "setting", "DEFOG")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info should be filtered at warn level")
	}
	if !strings.Contains(out, `"setting":"DEFOG"`) {
		t.Errorf("expected JSON output, got %q", out)
	}
}

func TestNewLoggerRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cabin.log")
	cfg := LogConfig{Level: "info", Format: "text", File: path, MaxSizeMB: 1}

	var fallback bytes.Buffer
	logger := NewLogger(cfg, &fallback)
	logger.Info("processed utterance", "intent", "CHANGE")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "intent=CHANGE") {
		t.Errorf("log file = %q", data)
	}
	if fallback.Len() != 0 {
		t.Errorf("fallback writer got %q", fallback.String())
	}
}

func TestLogWriterWithoutFile(t *testing.T) {
	var buf bytes.Buffer
	if w := LogWriter(LogConfig{}, &buf); w != io.Writer(&buf) {
		t.Errorf("LogWriter without file = %T, want the fallback", w)
	}
}
