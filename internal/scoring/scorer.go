// Package scoring turns the text signals of a candidate into a confidence
// score for one field type.
package scoring

import (
	"github.com/jonathan/cv-autofill/internal/dom"
	"github.com/jonathan/cv-autofill/internal/types"
)

// Result is the confidence of one candidate for one field type.
// Scores have no fixed range; higher is better.
type Result struct {
	Score   float64
	Reasons []string
}

// Scorer scores one candidate against one field type.
type Scorer interface {
	Score(c dom.Candidate, t types.FieldType) (Result, error)
}

// ScorerFunc adapts a plain function to the Scorer interface.
type ScorerFunc func(c dom.Candidate, t types.FieldType) (Result, error)

// Score calls f(c, t).
func (f ScorerFunc) Score(c dom.Candidate, t types.FieldType) (Result, error) {
	return f(c, t)
}
