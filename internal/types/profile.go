// Package types provides type definitions for structured data used throughout the autofill engine.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "strings"

// Profile maps field types to the values the engine should write.
// An empty string means "no data" for that type.
type Profile map[FieldType]string

// Value returns the trimmed value for t, or "" when absent.
func (p Profile) Value(t FieldType) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p[t])
}

// Desired returns the value the engine should write for t.
// coverLetter falls back to the summary when the profile has no cover letter.
func (p Profile) Desired(t FieldType) string {
	v := p.Value(t)
	if v == "" && t == FieldCoverLetter {
		return p.Value(FieldSummary)
	}
	return v
}
