package scoring

import (
	"testing"

	"github.com/jonathan/cv-autofill/internal/dom"
	"github.com/jonathan/cv-autofill/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func score(t *testing.T, c dom.Candidate, ft types.FieldType) Result {
	t.Helper()
	res, err := NewHeuristic().Score(c, ft)
	require.NoError(t, err)
	return res
}

func TestHeuristic_FirstNameBeatsFullName(t *testing.T) {
	c := dom.Candidate{Tag: "input", InputType: "text", Name: "first_name", Label: "First Name"}

	first := score(t, c, types.FieldFirstName)
	full := score(t, c, types.FieldFullName)
	last := score(t, c, types.FieldLastName)

	assert.Equal(t, 95.0, first.Score)
	assert.Equal(t, []string{"name:first_name", "label:first name"}, first.Reasons)
	assert.Greater(t, first.Score, full.Score)
	assert.Zero(t, last.Score)
}

func TestHeuristic_AutocompleteToken(t *testing.T) {
	c := dom.Candidate{Tag: "input", InputType: "text", Autocomplete: "section-apply given-name"}

	res := score(t, c, types.FieldFirstName)

	assert.Equal(t, 100.0, res.Score)
	assert.Contains(t, res.Reasons, "autocomplete:given-name")
}

func TestHeuristic_InputType(t *testing.T) {
	c := dom.Candidate{Tag: "input", InputType: "email", Name: "email"}

	email := score(t, c, types.FieldEmail)
	first := score(t, c, types.FieldFirstName)

	assert.Equal(t, 80.0, email.Score)
	assert.Contains(t, email.Reasons, "type:email")
	assert.Less(t, first.Score, 0.0)
	assert.Contains(t, first.Reasons, "type-mismatch:email")
}

func TestHeuristic_NameAndIDCountOnce(t *testing.T) {
	c := dom.Candidate{Tag: "input", InputType: "text", Name: "phone", ID: "phone"}

	res := score(t, c, types.FieldPhone)

	assert.Equal(t, 50.0, res.Score)
	assert.Len(t, res.Reasons, 1)
}

func TestHeuristic_Textarea(t *testing.T) {
	c := dom.Candidate{Tag: "textarea", Name: "q3", Label: "Cover Letter"}

	cover := score(t, c, types.FieldCoverLetter)
	summary := score(t, c, types.FieldSummary)

	assert.Equal(t, 60.0, cover.Score)
	assert.Equal(t, 15.0, summary.Score)
}

func TestHeuristic_NegativeKeywords(t *testing.T) {
	c := dom.Candidate{Tag: "input", InputType: "text", Name: "q1", Label: "Company Name"}

	res := score(t, c, types.FieldFullName)

	assert.Equal(t, 5.0, res.Score)
	assert.Contains(t, res.Reasons, "negative:company")
}

func TestHeuristic_LinkedInOverWebsite(t *testing.T) {
	c := dom.Candidate{Tag: "input", InputType: "url", Name: "q7", Label: "LinkedIn URL"}

	linkedin := score(t, c, types.FieldLinkedIn)
	website := score(t, c, types.FieldWebsite)

	assert.Greater(t, linkedin.Score, website.Score)
	assert.GreaterOrEqual(t, linkedin.Score, 35.0)
}

func TestHeuristic_UnknownType(t *testing.T) {
	_, err := NewHeuristic().Score(dom.Candidate{Tag: "input"}, types.FieldType("shoeSize"))
	assert.Error(t, err)
}

func TestHeuristic_EveryFieldTypeHasRule(t *testing.T) {
	for _, ft := range types.AllFieldTypes() {
		_, ok := rules[ft]
		assert.True(t, ok, "missing rule for %s", ft)
	}
}
