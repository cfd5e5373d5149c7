package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/cabin/pkg/cabin/filter"
	"github.com/cognicore/cabin/pkg/cabin/internalerr"
)

// Config is the cabin configuration file. Relative paths are resolved
// against the directory of the file. With a sqlite store the catalog
// section may be left empty; the catalog is then read from the store.
type Config struct {
	Catalog       CatalogConfig       `yaml:"catalog"`
	Normalization NormalizationConfig `yaml:"normalization"`
	Matching      MatchingConfig      `yaml:"matching"`
	Store         StoreConfig         `yaml:"store"`
	Log           LogConfig           `yaml:"log"`
}

type CatalogConfig struct {
	Settings         string `yaml:"settings"`
	AlternativeNames string `yaml:"alternative_names"`
}

type NormalizationConfig struct {
	AmountPercentage string `yaml:"amount_percentage"`
	AmountType       string `yaml:"amount_type"`
	AmountUnit       string `yaml:"amount_unit"`
	Index            string `yaml:"index"`
}

type MatchingConfig struct {
	filter.Thresholds `yaml:",inline"`

	// ASRCorrection reads "224" as "to 24". Defaults to true.
	ASRCorrection *bool `yaml:"asr_correction"`

	PhoneticCorrection bool `yaml:"phonetic_correction"`

	// CacheSize defaults to 256; negative disables the match cache.
	CacheSize int `yaml:"cache_size"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"` // memory | sqlite
	Path   string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`

	// File, when set, receives the log instead of stderr and is rotated.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Load reads a config file, expanding environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

// Parse decodes config data, expanding environment variables.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	defaults := filter.DefaultThresholds()
	t := &c.Matching.Thresholds
	if t.SettingName == 0 {
		t.SettingName = defaults.SettingName
	}
	if t.SettingNameAntonymPercentOfMax == 0 {
		t.SettingNameAntonymPercentOfMax = defaults.SettingNameAntonymPercentOfMax
	}
	if t.SettingValue == 0 {
		t.SettingValue = defaults.SettingValue
	}
	if t.SettingValueAntonym == 0 {
		t.SettingValueAntonym = defaults.SettingValueAntonym
	}
	if t.SettingValueAntonymPercentOfMax == 0 {
		t.SettingValueAntonymPercentOfMax = defaults.SettingValueAntonymPercentOfMax
	}
	if c.Matching.ASRCorrection == nil {
		on := true
		c.Matching.ASRCorrection = &on
	}
	if c.Matching.CacheSize == 0 {
		c.Matching.CacheSize = 256
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "memory"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.File != "" && c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 32
	}
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory":
		if c.Catalog.Settings == "" {
			return fmt.Errorf("catalog.settings is required without a sqlite store: %w", internalerr.ErrInvalidConfig)
		}
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for sqlite: %w", internalerr.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("unknown store driver %q: %w", c.Store.Driver, internalerr.ErrInvalidConfig)
	}
	return nil
}

func (c *Config) resolvePaths(dir string) {
	for _, p := range []*string{
		&c.Catalog.Settings,
		&c.Catalog.AlternativeNames,
		&c.Normalization.AmountPercentage,
		&c.Normalization.AmountType,
		&c.Normalization.AmountUnit,
		&c.Normalization.Index,
		&c.Store.Path,
		&c.Log.File,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

// Loader returns a loader for the files the config names.
func (c *Config) Loader() *Loader {
	return &Loader{
		SettingsPath:         c.Catalog.Settings,
		AlternativeNamesPath: c.Catalog.AlternativeNames,
		AmountPercentagePath: c.Normalization.AmountPercentage,
		AmountTypePath:       c.Normalization.AmountType,
		AmountUnitPath:       c.Normalization.AmountUnit,
		IndexPath:            c.Normalization.Index,
	}
}

// FilterOptions returns filter options for the loaded components.
func (c *Config) FilterOptions(comp *Components, logger *slog.Logger) filter.Options {
	return filter.Options{
		Catalog:            comp.Catalog,
		Amounts:            comp.Amounts,
		Types:              comp.Types,
		Units:              comp.Units,
		Indexes:            comp.Indexes,
		Thresholds:         c.Matching.Thresholds,
		SkipASRCorrection:  c.Matching.ASRCorrection != nil && !*c.Matching.ASRCorrection,
		PhoneticCorrection: c.Matching.PhoneticCorrection,
		MatchCacheSize:     c.Matching.CacheSize,
		Logger:             logger,
	}
}

// LogWriter returns the rotating log file cfg names, or fallback when it
// names none.
func LogWriter(cfg LogConfig, fallback io.Writer) io.Writer {
	if cfg.File == "" {
		return fallback
	}
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB, // MB
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
}

// NewLogger builds the logger described by cfg, writing to the log file it
// names or else to w.
func NewLogger(cfg LogConfig, w io.Writer) *slog.Logger {
	w = LogWriter(cfg, w)

	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
