package assign

import (
	"errors"
	"testing"

	"github.com/jonathan/cv-autofill/internal/dom"
	"github.com/jonathan/cv-autofill/internal/scoring"
	"github.com/jonathan/cv-autofill/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tableScorer returns fixed scores per handle and type; anything missing scores 0.
type tableScorer map[dom.Handle]map[types.FieldType]float64

func (s tableScorer) Score(c dom.Candidate, t types.FieldType) (scoring.Result, error) {
	return scoring.Result{Score: s[c.Handle][t], Reasons: []string{"table:" + string(t)}}, nil
}

func cand(h string, depth int) dom.Candidate {
	return dom.Candidate{Handle: dom.Handle(h), Tag: "input", InputType: "text", Name: h, FormDepth: depth}
}

var adaProfile = types.Profile{
	types.FieldFirstName: "Ada",
	types.FieldLastName:  "Lovelace",
	types.FieldEmail:     "ada@x.com",
}

func TestResolve_PicksBestTypePerCandidate(t *testing.T) {
	scorer := tableScorer{
		"f1": {types.FieldFirstName: 80, types.FieldLastName: 20},
	}
	r := NewResolver(scorer, nil)

	got := r.Resolve([]dom.Candidate{cand("f1", 0)}, types.AllFieldTypes(), adaProfile)

	require.Len(t, got, 1)
	assert.Equal(t, types.FieldFirstName, got[0].FieldType)
	assert.Equal(t, 80.0, got[0].Score)
	assert.Equal(t, "Ada", got[0].Desired)
	assert.Equal(t, []string{"table:firstName"}, got[0].Reasons)
}

func TestResolve_TieGoesToFirstEnumeratedType(t *testing.T) {
	scorer := tableScorer{
		"f1": {types.FieldLastName: 50, types.FieldFirstName: 50},
	}
	r := NewResolver(scorer, nil)

	got := r.Resolve([]dom.Candidate{cand("f1", 0)}, types.AllFieldTypes(), adaProfile)

	require.Len(t, got, 1)
	assert.Equal(t, types.FieldFirstName, got[0].FieldType)
}

func TestResolve_BelowThresholdIsDropped(t *testing.T) {
	scorer := tableScorer{
		"low":  {types.FieldEmail: 34.9},
		"edge": {types.FieldEmail: 35},
	}
	r := NewResolver(scorer, nil)

	got := r.Resolve([]dom.Candidate{cand("low", 0), cand("edge", 0)}, types.AllFieldTypes(), adaProfile)

	require.Len(t, got, 1)
	assert.Equal(t, dom.Handle("edge"), got[0].Candidate.Handle)
}

func TestResolve_OrderByScoreThenDepth(t *testing.T) {
	scorer := tableScorer{
		"deep":    {types.FieldEmail: 60},
		"shallow": {types.FieldEmail: 60},
		"best":    {types.FieldFirstName: 90},
		"worst":   {types.FieldLastName: 40},
	}
	r := NewResolver(scorer, nil)

	got := r.Resolve([]dom.Candidate{
		cand("worst", 0), cand("deep", 5), cand("shallow", 1), cand("best", 3),
	}, types.AllFieldTypes(), adaProfile)

	handles := make([]dom.Handle, 0, len(got))
	for _, a := range got {
		handles = append(handles, a.Candidate.Handle)
	}
	assert.Equal(t, []dom.Handle{"best", "shallow", "deep", "worst"}, handles)
}

func TestResolve_RepeatedTypesAllowed(t *testing.T) {
	scorer := tableScorer{
		"a1": {types.FieldAddressLine: 70},
		"a2": {types.FieldAddressLine: 65},
	}
	profile := types.Profile{types.FieldAddressLine: "12 Analytical St"}
	r := NewResolver(scorer, nil)

	got := r.Resolve([]dom.Candidate{cand("a1", 0), cand("a2", 0)}, types.AllFieldTypes(), profile)

	require.Len(t, got, 2)
	assert.Equal(t, types.FieldAddressLine, got[0].FieldType)
	assert.Equal(t, types.FieldAddressLine, got[1].FieldType)
}

func TestResolve_SkipsTypesWithoutProfileValue(t *testing.T) {
	scorer := tableScorer{
		"p": {types.FieldPhone: 90},
	}
	r := NewResolver(scorer, nil)

	got := r.Resolve([]dom.Candidate{cand("p", 0)}, types.AllFieldTypes(), adaProfile)

	assert.Empty(t, got)
}

func TestResolve_CoverLetterFallsBackToSummary(t *testing.T) {
	scorer := tableScorer{
		"cl": {types.FieldCoverLetter: 60},
	}
	profile := types.Profile{types.FieldSummary: "  Mathematician.  "}
	r := NewResolver(scorer, nil)

	got := r.Resolve([]dom.Candidate{cand("cl", 0)}, types.AllFieldTypes(), profile)

	require.Len(t, got, 1)
	assert.Equal(t, types.FieldCoverLetter, got[0].FieldType)
	assert.Equal(t, "Mathematician.", got[0].Desired)
}

func TestResolve_FullNameVetoOnDedicatedFields(t *testing.T) {
	profile := types.Profile{types.FieldFullName: "Ada Lovelace"}
	tests := []struct {
		name     string
		c        dom.Candidate
		assigned bool
	}{
		{"first name field", dom.Candidate{Handle: "x", Name: "first_name"}, false},
		{"given name id", dom.Candidate{Handle: "x", ID: "givenName"}, false},
		{"fname", dom.Candidate{Handle: "x", Name: "fname"}, false},
		{"last name field", dom.Candidate{Handle: "x", Name: "last-name"}, false},
		{"surname", dom.Candidate{Handle: "x", ID: "surname"}, false},
		{"soyad", dom.Candidate{Handle: "x", Name: "soyad"}, false},
		{"generic name", dom.Candidate{Handle: "x", Name: "name"}, true},
		{"full name", dom.Candidate{Handle: "x", Name: "full_name", ID: "applicant"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tableScorer{"x": {types.FieldFullName: 90}}, nil)
			got := r.Resolve([]dom.Candidate{tt.c}, types.AllFieldTypes(), profile)
			if tt.assigned {
				require.Len(t, got, 1)
				assert.Equal(t, types.FieldFullName, got[0].FieldType)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestResolve_NoCandidateAssignedTwice(t *testing.T) {
	scorer := tableScorer{
		"dup": {types.FieldEmail: 80},
	}
	r := NewResolver(scorer, nil)

	got := r.Resolve([]dom.Candidate{cand("dup", 0), cand("dup", 0)}, types.AllFieldTypes(), adaProfile)

	assert.Len(t, got, 1)
}

func TestResolve_EnabledTypesRestrictScoring(t *testing.T) {
	scorer := tableScorer{
		"f1": {types.FieldFirstName: 80, types.FieldEmail: 40},
	}
	r := NewResolver(scorer, nil)

	got := r.Resolve([]dom.Candidate{cand("f1", 0)}, []types.FieldType{types.FieldEmail}, adaProfile)

	require.Len(t, got, 1)
	assert.Equal(t, types.FieldEmail, got[0].FieldType)
}

func TestResolve_ScorerFailuresExcludeCandidate(t *testing.T) {
	scorer := scoring.ScorerFunc(func(c dom.Candidate, ft types.FieldType) (scoring.Result, error) {
		switch c.Handle {
		case "stale":
			return scoring.Result{}, errors.New("node detached")
		case "boom":
			panic("scorer bug")
		}
		if ft == types.FieldEmail {
			return scoring.Result{Score: 70}, nil
		}
		return scoring.Result{}, nil
	})
	r := NewResolver(scorer, nil)

	got := r.Resolve([]dom.Candidate{cand("stale", 0), cand("boom", 0), cand("ok", 0)}, types.AllFieldTypes(), adaProfile)

	require.Len(t, got, 1)
	assert.Equal(t, dom.Handle("ok"), got[0].Candidate.Handle)
}

func TestMatches_KeepsUnfilledTypes(t *testing.T) {
	scorer := tableScorer{"p": {types.FieldPhone: 90}}
	r := NewResolver(scorer, nil)

	got := r.Matches([]dom.Candidate{cand("p", 2)}, types.AllFieldTypes())

	require.Len(t, got, 1)
	assert.Equal(t, types.FieldPhone, got[0].FieldType)
	assert.Equal(t, 2, got[0].FormDepth)
}
