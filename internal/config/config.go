// Package config provides configuration loading and validation for the CLI
// and the message server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/cv-autofill/internal/schemas"
	"github.com/jonathan/cv-autofill/internal/types"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvDebug        = "AUTOFILL_DEBUG"
	EnvNameLockMode = "AUTOFILL_NAME_LOCK_MODE"
	EnvDryRun       = "AUTOFILL_DRY_RUN"
)

// Config represents the configuration that can be loaded from a JSON or YAML file.
// All fields are optional; missing values fall back to types.DefaultSettings.
type Config struct {
	Debug        bool              `json:"debug,omitempty" yaml:"debug"`
	NameLock     NameLockConfig    `json:"name_lock" yaml:"name_lock"`
	FillPolicy   FillPolicyConfig  `json:"fill_policy" yaml:"fill_policy"`
	EnabledTypes []types.FieldType `json:"enabled_types,omitempty" yaml:"enabled_types"`
	Sensitivity  SensitivityConfig `json:"sensitivity" yaml:"sensitivity"`
	Browser      BrowserConfig     `json:"browser" yaml:"browser"`
	Server       ServerConfig      `json:"server" yaml:"server"`
}

// NameLockConfig holds the name lock section. A nil Enabled keeps the default.
type NameLockConfig struct {
	Enabled *bool              `json:"enabled,omitempty" yaml:"enabled"`
	Mode    types.NameLockMode `json:"mode,omitempty" yaml:"mode" validate:"omitempty,oneof=NEVER IF_EMPTY PROTECT"`
}

// FillPolicyConfig holds the fill policy section. A nil SkipIfNotEmpty keeps the default.
type FillPolicyConfig struct {
	SkipIfNotEmpty *bool `json:"skip_if_not_empty,omitempty" yaml:"skip_if_not_empty"`
	DryRun         bool  `json:"dry_run,omitempty" yaml:"dry_run"`
}

// SensitivityConfig adds patterns to the sensitivity filter.
type SensitivityConfig struct {
	ExtraPatterns []string `json:"extra_patterns,omitempty" yaml:"extra_patterns"`
}

// BrowserConfig configures the headless browser session.
type BrowserConfig struct {
	Headless       *bool `json:"headless,omitempty" yaml:"headless"`
	TimeoutSeconds int   `json:"timeout_seconds,omitempty" yaml:"timeout_seconds" validate:"gte=0"`
	SettleMs       int   `json:"settle_ms,omitempty" yaml:"settle_ms" validate:"gte=0"`
}

// ServerConfig configures the message server.
type ServerConfig struct {
	Port       int    `json:"port,omitempty" yaml:"port" validate:"gte=0,lte=65535"`
	CORSOrigin string `json:"cors_origin,omitempty" yaml:"cors_origin"`
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension,
// then applies environment overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, &Error{Message: "config path is empty"}
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Message: "failed to read config file", Cause: err}
	}

	cfg, err := Parse(data, isYAML(path))
	if err != nil {
		return nil, &Error{Path: path, Message: "failed to parse config", Cause: err}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, &Error{Path: path, Message: "invalid environment override", Cause: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &Error{Path: path, Message: "invalid config", Cause: err}
	}
	return cfg, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Parse decodes data as YAML or JSON and checks it against the config schema.
func Parse(data []byte, asYAML bool) (*Config, error) {
	doc := data
	if asYAML {
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
		if raw == nil {
			raw = map[string]any{}
		}
		var err error
		if doc, err = json.Marshal(raw); err != nil {
			return nil, fmt.Errorf("failed to convert config YAML: %w", err)
		}
	}

	if err := schemas.ValidateConfig(doc); err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(doc, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return &cfg, nil
}

// ApplyEnv overrides file values with the AUTOFILL_* environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvDebug); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDebug, err)
		}
		c.Debug = b
	}
	if v, ok := lookup(EnvDryRun); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDryRun, err)
		}
		c.FillPolicy.DryRun = b
	}
	if v, ok := lookup(EnvNameLockMode); ok && v != "" {
		c.NameLock.Mode = types.NameLockMode(strings.ToUpper(strings.TrimSpace(v)))
	}
	return nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	for _, t := range c.EnabledTypes {
		if !t.Valid() {
			return fmt.Errorf("config error: unknown field type %q in 'enabled_types'", t)
		}
	}
	for _, p := range c.Sensitivity.ExtraPatterns {
		if _, err := regexp.Compile("(?i)" + p); err != nil {
			return fmt.Errorf("config error: invalid sensitivity pattern %q: %w", p, err)
		}
	}
	return nil
}

// Settings returns the fill settings described by the config, starting from
// types.DefaultSettings.
func (c *Config) Settings() types.Settings {
	s := types.DefaultSettings()
	s.Debug = c.Debug
	if c.NameLock.Enabled != nil {
		s.NameLock.Enabled = *c.NameLock.Enabled
	}
	if c.NameLock.Mode != "" {
		s.NameLock.Mode = c.NameLock.Mode
	}
	if c.FillPolicy.SkipIfNotEmpty != nil {
		s.FillPolicy.SkipIfNotEmpty = *c.FillPolicy.SkipIfNotEmpty
	}
	s.FillPolicy.DryRun = c.FillPolicy.DryRun
	return s
}

// Timeout returns the browser timeout, or fallback when unset.
func (b BrowserConfig) Timeout(fallback time.Duration) time.Duration {
	if b.TimeoutSeconds == 0 {
		return fallback
	}
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// Settle returns how long the browser waits after navigation, or fallback when unset.
func (b BrowserConfig) Settle(fallback time.Duration) time.Duration {
	if b.SettleMs == 0 {
		return fallback
	}
	return time.Duration(b.SettleMs) * time.Millisecond
}
