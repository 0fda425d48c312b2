// Package types provides type definitions for structured data used throughout the autofill engine.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "github.com/go-playground/validator/v10"

// NameLockMode selects how name-shaped fields are protected.
type NameLockMode string

// Name lock modes.
const (
	// NameLockNever refuses to fill name fields at all.
	NameLockNever NameLockMode = "NEVER"
	// NameLockIfEmpty fills name fields only when they are empty.
	NameLockIfEmpty NameLockMode = "IF_EMPTY"
	// NameLockProtect fills name fields and restores them when the page overwrites them.
	NameLockProtect NameLockMode = "PROTECT"
)

// NameLockConfig configures the name lock guard.
type NameLockConfig struct {
	Enabled bool         `json:"enabled" yaml:"enabled"`
	Mode    NameLockMode `json:"mode" yaml:"mode" validate:"omitempty,oneof=NEVER IF_EMPTY PROTECT"`
}

// FillPolicy configures the fill policy gate.
type FillPolicy struct {
	SkipIfNotEmpty bool `json:"skipIfNotEmpty" yaml:"skip_if_not_empty"`
	DryRun         bool `json:"dryRun" yaml:"dry_run"`
}

// Settings is the explicit configuration passed into every fill invocation.
type Settings struct {
	Debug      bool           `json:"debug" yaml:"debug"`
	NameLock   NameLockConfig `json:"nameLock" yaml:"name_lock"`
	FillPolicy FillPolicy     `json:"fillPolicy" yaml:"fill_policy"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		NameLock: NameLockConfig{
			Enabled: true,
			Mode:    NameLockIfEmpty,
		},
		FillPolicy: FillPolicy{
			SkipIfNotEmpty: true,
		},
	}
}

// Validate validates the Settings using the validator.
func (s *Settings) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}

// Protecting reports whether successful name writes should be locked.
func (s Settings) Protecting() bool {
	return s.NameLock.Enabled && s.NameLock.Mode == NameLockProtect
}
