// Package types provides type definitions for structured data used throughout the autofill engine.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Action is the outcome of one assignment.
type Action string

// Fill actions.
const (
	ActionFilled  Action = "filled"
	ActionSkipped Action = "skipped"
	ActionDryRun  Action = "dry-run"
	ActionError   Action = "error"
)

// FrameInfo identifies the document the engine runs in.
type FrameInfo struct {
	Href  string `json:"href"`
	Frame string `json:"frame"` // "top" or "iframe"
}

// FillItem records what happened to one assignment.
type FillItem struct {
	Type    FieldType `json:"type,omitempty"`
	Score   float64   `json:"score"`
	Action  Action    `json:"action"`
	Reason  string    `json:"reason,omitempty"`
	Current string    `json:"current,omitempty"`
	From    *string   `json:"from,omitempty"`
	To      *string   `json:"to,omitempty"`
}

// FillStats holds the running counters of one invocation.
type FillStats struct {
	Filled  int `json:"filled"`
	Skipped int `json:"skipped"`
	Matched int `json:"matched"`
	Errors  int `json:"errors"`
}

// FillDebug carries diagnostic detail when debug is enabled.
type FillDebug struct {
	EnabledTypes []FieldType `json:"enabled_types"`
	DryRun       bool        `json:"dry_run"`
	Lines        []string    `json:"lines,omitempty"`
}

// FillReport is the structured result of one fill invocation.
type FillReport struct {
	ID        string     `json:"id"`
	Frame     FrameInfo  `json:"frame"`
	Stats     FillStats  `json:"stats"`
	Items     []FillItem `json:"items"`
	ElapsedMs int64      `json:"elapsed_ms"`
	Debug     *FillDebug `json:"debug,omitempty"`
}

// Filled returns the items whose action is ActionFilled.
func (r *FillReport) Filled() []FillItem {
	return r.byAction(ActionFilled)
}

// ByType returns the items recorded for field type t, in report order.
func (r *FillReport) ByType(t FieldType) []FillItem {
	var out []FillItem
	for _, it := range r.Items {
		if it.Type == t {
			out = append(out, it)
		}
	}
	return out
}

func (r *FillReport) byAction(a Action) []FillItem {
	var out []FillItem
	for _, it := range r.Items {
		if it.Action == a {
			out = append(out, it)
		}
	}
	return out
}
