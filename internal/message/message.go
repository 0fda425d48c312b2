// Package message implements the request/response contract a page exposes
// to its controller: FILL_FORM, PING and TOGGLE_DEBUG.
package message

import (
	"github.com/jonathan/cv-autofill/internal/fill"
	"github.com/jonathan/cv-autofill/internal/types"
)

// Action names a request.
type Action string

// Supported actions.
const (
	ActionFillForm    Action = "FILL_FORM"
	ActionPing        Action = "PING"
	ActionToggleDebug Action = "TOGGLE_DEBUG"
)

// Request is one inbound message.
type Request struct {
	Action   Action         `json:"action" validate:"required,oneof=FILL_FORM PING TOGGLE_DEBUG"`
	Profile  map[string]any `json:"profile,omitempty"`
	Settings *SettingsPatch `json:"settings,omitempty"`
	Options  *fill.Options  `json:"options,omitempty"`
	Debug    *bool          `json:"debug,omitempty"`
}

// SettingsPatch carries the settings a FILL_FORM request wants applied.
// Absent sections leave the current settings untouched.
type SettingsPatch struct {
	Debug      *bool            `json:"debug,omitempty"`
	NameLock   *NameLockPatch   `json:"nameLock,omitempty"`
	FillPolicy *FillPolicyPatch `json:"fillPolicy,omitempty"`
}

// NameLockPatch updates the name lock. An empty mode keeps the current mode.
type NameLockPatch struct {
	Enabled bool               `json:"enabled"`
	Mode    types.NameLockMode `json:"mode,omitempty" validate:"omitempty,oneof=NEVER IF_EMPTY PROTECT"`
}

// FillPolicyPatch updates the fill policy. skipIfNotEmpty stays on unless
// explicitly false; dryRun is off unless explicitly true.
type FillPolicyPatch struct {
	SkipIfNotEmpty *bool `json:"skipIfNotEmpty,omitempty"`
	DryRun         *bool `json:"dryRun,omitempty"`
}

// Response is the reply to one request.
type Response struct {
	OK     bool              `json:"ok"`
	Error  string            `json:"error,omitempty"`
	Report *types.FillReport `json:"report,omitempty"`
	Href   string            `json:"href,omitempty"`
	Frame  string            `json:"frame,omitempty"`
	Debug  *bool             `json:"debug,omitempty"`
}

// Apply merges the patch into s.
func (p *SettingsPatch) Apply(s types.Settings) types.Settings {
	if p == nil {
		return s
	}
	if p.Debug != nil {
		s.Debug = *p.Debug
	}
	if p.NameLock != nil {
		s.NameLock.Enabled = p.NameLock.Enabled
		if p.NameLock.Mode != "" {
			s.NameLock.Mode = p.NameLock.Mode
		}
	}
	if p.FillPolicy != nil {
		s.FillPolicy.SkipIfNotEmpty = p.FillPolicy.SkipIfNotEmpty == nil || *p.FillPolicy.SkipIfNotEmpty
		s.FillPolicy.DryRun = p.FillPolicy.DryRun != nil && *p.FillPolicy.DryRun
	}
	return s
}
