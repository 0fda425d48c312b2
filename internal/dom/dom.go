// Package dom defines the page-facing collaborators of the autofill engine:
// the candidate source, the live value reader, the native value writer and
// the mutation observer. Candidates cross package boundaries as an opaque
// handle plus a fixed record of derived facts, never as a live node.
package dom

import (
	"context"
	"strings"

	"github.com/jonathan/cv-autofill/internal/types"
)

// Handle is an opaque reference to one element of a page.
type Handle string

// Candidate is a fillable element together with the facts derived from it at scan time.
type Candidate struct {
	Handle       Handle `json:"handle"`
	Tag          string `json:"tag"`        // input, select or textarea
	InputType    string `json:"input_type"` // lower-cased type attribute; "text" when absent
	Name         string `json:"name,omitempty"`
	ID           string `json:"id,omitempty"`
	Label        string `json:"label,omitempty"`
	Placeholder  string `json:"placeholder,omitempty"`
	AriaLabel    string `json:"aria_label,omitempty"`
	Autocomplete string `json:"autocomplete,omitempty"`
	NearbyText   string `json:"nearby_text,omitempty"`
	Value        string `json:"value,omitempty"`
	FormDepth    int    `json:"form_depth"`
}

// Identity returns the lower-cased "name id" string used by the sensitivity
// filter and the full-name veto.
func (c Candidate) Identity() string {
	return strings.ToLower(c.Name + " " + c.ID)
}

// Signals returns every text signal of the candidate, lower-cased, keyed by origin.
func (c Candidate) Signals() map[string]string {
	return map[string]string{
		"name":         strings.ToLower(c.Name),
		"id":           strings.ToLower(c.ID),
		"label":        strings.ToLower(c.Label),
		"placeholder":  strings.ToLower(c.Placeholder),
		"aria-label":   strings.ToLower(c.AriaLabel),
		"autocomplete": strings.ToLower(c.Autocomplete),
		"nearby":       strings.ToLower(c.NearbyText),
	}
}

// WriteResult is what the native value writer reports for one write.
type WriteResult struct {
	OK    bool   `json:"ok"`
	From  string `json:"from"`
	To    string `json:"to"`
	Error string `json:"error,omitempty"`
}

// Source enumerates fillable candidates within a scope.
// An empty scope means the whole document.
type Source interface {
	Scan(ctx context.Context, scope string) ([]Candidate, error)
}

// Reader reads live element state.
type Reader interface {
	// Value returns the element's current value.
	Value(ctx context.Context, h Handle) (string, error)
	// Attached reports whether the element is still part of the document.
	Attached(ctx context.Context, h Handle) bool
}

// Writer assigns a value so that the host page's listeners observe the change.
type Writer interface {
	Write(ctx context.Context, h Handle, value string) WriteResult
}

// Observer delivers document mutation notifications.
type Observer interface {
	// Observe calls fn after mutations of the document subtree until the
	// returned cancel function is called. fn is never called concurrently
	// with itself.
	Observe(fn func()) (cancel func(), err error)
}

// Page is the full set of collaborators one document provides.
type Page interface {
	Source
	Reader
	Writer
	Observer
	Frame(ctx context.Context) types.FrameInfo
}
