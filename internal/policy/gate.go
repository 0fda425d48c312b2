// Package policy decides, for one assignment, whether the engine writes,
// skips, or only reports the write it would have made.
package policy

import (
	"strings"

	"github.com/jonathan/cv-autofill/internal/types"
)

// Verdict is an allow/refuse answer from a guard that runs before the write.
type Verdict struct {
	Allowed bool
	Reason  string
}

// Allow is the verdict of a guard with no objection.
var Allow = Verdict{Allowed: true}

// Kind is what the gate tells the engine to do.
type Kind int

// Gate outcomes.
const (
	Write Kind = iota
	Skip
	DryRun
)

// Skip and dry-run reasons.
const (
	ReasonNotEmpty = "not-empty"
	ReasonDryRun   = "dry-run enabled"
)

// Decision is the gate's answer for one assignment.
type Decision struct {
	Kind   Kind
	Reason string
}

// Decide applies the fill policy to the element's live value.
// Precedence: a non-empty field under skipIfNotEmpty, then a guard refusal,
// then dry-run, then write.
func Decide(current string, p types.FillPolicy, guard Verdict) Decision {
	if p.SkipIfNotEmpty && strings.TrimSpace(current) != "" {
		return Decision{Kind: Skip, Reason: ReasonNotEmpty}
	}
	if !guard.Allowed {
		return Decision{Kind: Skip, Reason: guard.Reason}
	}
	if p.DryRun {
		return Decision{Kind: DryRun, Reason: ReasonDryRun}
	}
	return Decision{Kind: Write}
}
