// Package config loads docflow settings from yaml, toml or json files with
// environment overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/wudi/docflow/fileutil"
	"github.com/wudi/docflow/pipeline"
	"github.com/wudi/docflow/raster"
	"github.com/wudi/docflow/sheet"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DOCFLOW_"

// Config holds every docflow setting.
type Config struct {
	OutputDir      string           `json:"output_dir" yaml:"output_dir" toml:"output_dir" validate:"required"`
	TempDir        string           `json:"temp_dir" yaml:"temp_dir" toml:"temp_dir"`
	KeepTempFiles  bool             `json:"keep_temp_files" yaml:"keep_temp_files" toml:"keep_temp_files"`
	TessdataPrefix string           `json:"tessdata_prefix" yaml:"tessdata_prefix" toml:"tessdata_prefix"`
	DPI            int              `json:"dpi" yaml:"dpi" toml:"dpi" validate:"min=72,max=1200"`
	JPEGQuality    int              `json:"jpeg_quality" yaml:"jpeg_quality" toml:"jpeg_quality" validate:"min=1,max=100"`
	Defaults       pipeline.Options `json:"defaults" yaml:"defaults" toml:"defaults"`
	Log            LogConfig        `json:"log" yaml:"log" toml:"log"`
}

// LogConfig selects the logger level and encoding.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" toml:"level" validate:"oneof=debug info warn error"`
	Format string `json:"format" yaml:"format" toml:"format" validate:"oneof=console json"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		OutputDir:   "output",
		DPI:         raster.DefaultDPI,
		JPEGQuality: raster.DefaultQuality,
		Defaults:    pipeline.DefaultOptions(),
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load starts from Default, merges each file in order (later files win),
// applies DOCFLOW_* environment overrides and validates the result. Empty
// paths are skipped.
func Load(paths ...string) (*Config, error) {
	cfg := Default()
	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := unmarshal(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnvOverrides(cfg, os.Getenv); err != nil {
		return nil, err
	}
	cfg.Defaults = cfg.Defaults.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field, including the default processing options.
func (c *Config) Validate() error {
	if err := pipeline.Validator().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Save writes c to path in the format implied by its extension.
func (c *Config) Save(path string) error {
	data, err := marshal(path, c)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return fileutil.WriteFileAtomic(path, data, 0o644)
}

// ProcessorOptions maps the settings onto pipeline options.
func (c *Config) ProcessorOptions() []pipeline.Option {
	return []pipeline.Option{
		pipeline.WithTempDir(c.TempDir),
		pipeline.WithKeepTempFiles(c.KeepTempFiles),
		pipeline.WithDPI(float64(c.DPI)),
		pipeline.WithJPEGQuality(c.JPEGQuality),
	}
}

func unmarshal(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	case ".toml":
		return toml.Unmarshal(data, cfg)
	case ".json":
		return json.Unmarshal(data, cfg)
	}
	return fmt.Errorf("unknown config format %q", filepath.Ext(path))
}

func marshal(path string, cfg *Config) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Marshal(cfg)
	case ".toml":
		return toml.Marshal(cfg)
	case ".json":
		return json.MarshalIndent(cfg, "", "  ")
	}
	return nil, fmt.Errorf("unknown config format %q", filepath.Ext(path))
}

func applyEnvOverrides(cfg *Config, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}
	str("OUTPUT_DIR", &cfg.OutputDir)
	str("TEMP_DIR", &cfg.TempDir)
	str("TESSDATA_PREFIX", &cfg.TessdataPrefix)
	str("LANGUAGE", &cfg.Defaults.Language)
	str("RENAME_PATTERN", &cfg.Defaults.RenamePattern)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	if v := getenv(EnvPrefix + "OUTPUT_FORMAT"); v != "" {
		cfg.Defaults.OutputFormat = sheet.Format(strings.ToLower(v))
	}

	for key, dst := range map[string]*int{
		"DPI":          &cfg.DPI,
		"JPEG_QUALITY": &cfg.JPEGQuality,
	} {
		if v := getenv(EnvPrefix + key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*dst = n
		}
	}
	for key, dst := range map[string]*bool{
		"KEEP_TEMP_FILES": &cfg.KeepTempFiles,
		"USE_OCR":         &cfg.Defaults.UseOCR,
		"EXTRACT_TABLES":  &cfg.Defaults.ExtractTables,
		"RENAME_FILES":    &cfg.Defaults.RenameFiles,
	} {
		if v := getenv(EnvPrefix + key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*dst = b
		}
	}
	return nil
}
