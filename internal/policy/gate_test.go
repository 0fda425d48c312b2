package policy

import (
	"testing"

	"github.com/jonathan/cv-autofill/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	refuse := Verdict{Allowed: false, Reason: "name-lock: NEVER (skip)"}

	tests := []struct {
		name    string
		current string
		policy  types.FillPolicy
		guard   Verdict
		want    Decision
	}{
		{"empty field writes", "", types.FillPolicy{SkipIfNotEmpty: true}, Allow, Decision{Kind: Write}},
		{"whitespace counts as empty", "   \t", types.FillPolicy{SkipIfNotEmpty: true}, Allow, Decision{Kind: Write}},
		{"non-empty skipped", "Grace", types.FillPolicy{SkipIfNotEmpty: true}, Allow, Decision{Kind: Skip, Reason: ReasonNotEmpty}},
		{"non-empty overwritten when policy off", "Grace", types.FillPolicy{}, Allow, Decision{Kind: Write}},
		{"dry run", "", types.FillPolicy{DryRun: true}, Allow, Decision{Kind: DryRun, Reason: ReasonDryRun}},
		{"not-empty wins over dry run", "x", types.FillPolicy{SkipIfNotEmpty: true, DryRun: true}, Allow, Decision{Kind: Skip, Reason: ReasonNotEmpty}},
		{"guard refusal", "", types.FillPolicy{}, refuse, Decision{Kind: Skip, Reason: refuse.Reason}},
		{"guard refusal wins over dry run", "", types.FillPolicy{DryRun: true}, refuse, Decision{Kind: Skip, Reason: refuse.Reason}},
		{"not-empty wins over guard", "x", types.FillPolicy{SkipIfNotEmpty: true}, refuse, Decision{Kind: Skip, Reason: ReasonNotEmpty}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.current, tt.policy, tt.guard))
		})
	}
}
