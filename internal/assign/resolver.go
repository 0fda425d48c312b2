// Package assign scores every candidate against the enabled field types and
// produces a conflict-free mapping from candidates to field types.
package assign

import (
	"fmt"
	"math"
	"regexp"
	"sort"

	"github.com/jonathan/cv-autofill/internal/dom"
	"github.com/jonathan/cv-autofill/internal/scoring"
	"github.com/jonathan/cv-autofill/internal/types"
	"go.uber.org/zap"
)

// MinScore is the minimum confidence a best match needs to be considered.
const MinScore = 35

// Dedicated first/last name fields must never receive a full name.
var (
	firstNameIdentity = regexp.MustCompile(`(?i)(first|given)[-_ ]?name|fname|ad\b|isim\b`)
	lastNameIdentity  = regexp.MustCompile(`(?i)(last|family|sur)[-_ ]?name|lname|soyad`)
)

// MatchResult is the best field type found for one candidate.
type MatchResult struct {
	Candidate dom.Candidate   `json:"candidate"`
	FieldType types.FieldType `json:"type"`
	Score     float64         `json:"score"`
	Reasons   []string        `json:"reasons"`
	FormDepth int             `json:"form_depth"`
}

// Assignment is a match the engine will attempt to fill.
type Assignment struct {
	MatchResult
	Desired string `json:"desired"`
}

// Resolver runs the scorer and resolves conflicts between matches.
type Resolver struct {
	scorer scoring.Scorer
	logger *zap.Logger
}

// NewResolver creates a resolver backed by scorer.
func NewResolver(scorer scoring.Scorer, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{scorer: scorer, logger: logger}
}

// Resolve returns the assignments for candidates, most confident first.
// Candidates must already have passed the sensitivity filter.
func (r *Resolver) Resolve(candidates []dom.Candidate, enabled []types.FieldType, profile types.Profile) []Assignment {
	matches := r.Matches(candidates, enabled)

	assigned := make([]Assignment, 0, len(matches))
	usedTypes := make(map[types.FieldType]int)
	seen := make(map[dom.Handle]bool)

	for _, m := range matches {
		if seen[m.Candidate.Handle] {
			continue
		}

		desired := profile.Desired(m.FieldType)
		if desired == "" {
			r.logger.Debug("No profile value for match",
				zap.String("type", string(m.FieldType)),
				zap.String("handle", string(m.Candidate.Handle)))
			continue
		}

		if m.FieldType == types.FieldFullName && looksLikeSplitName(m.Candidate.Identity()) {
			r.logger.Debug("Refusing full name on dedicated name field",
				zap.String("handle", string(m.Candidate.Handle)),
				zap.String("identity", m.Candidate.Identity()))
			continue
		}

		seen[m.Candidate.Handle] = true
		usedTypes[m.FieldType]++
		assigned = append(assigned, Assignment{MatchResult: m, Desired: desired})
	}

	r.logger.Debug("Resolved assignments",
		zap.Int("candidates", len(candidates)),
		zap.Int("matches", len(matches)),
		zap.Int("assigned", len(assigned)),
		zap.Int("types", len(usedTypes)))

	return assigned
}

// Matches scores every candidate, keeps its best type when it clears
// MinScore, and orders the result by score descending then form depth ascending.
func (r *Resolver) Matches(candidates []dom.Candidate, enabled []types.FieldType) []MatchResult {
	matches := make([]MatchResult, 0, len(candidates))
	for _, c := range candidates {
		best, ok := r.best(c, enabled)
		if !ok || best.Score < MinScore {
			continue
		}
		matches = append(matches, best)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].FormDepth < matches[j].FormDepth
	})
	return matches
}

// best picks the highest scoring type for c. The first enumerated type wins ties.
func (r *Resolver) best(c dom.Candidate, enabled []types.FieldType) (MatchResult, bool) {
	best := MatchResult{Candidate: c, Score: math.Inf(-1), FormDepth: c.FormDepth}
	found := false
	for _, t := range enabled {
		res := r.score(c, t)
		if res.Score > best.Score {
			best.FieldType = t
			best.Score = res.Score
			best.Reasons = res.Reasons
			found = true
		}
	}
	return best, found
}

// score never fails: a scorer error or panic yields the minimal score.
func (r *Resolver) score(c dom.Candidate, t types.FieldType) (res scoring.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("Scorer panicked",
				zap.String("handle", string(c.Handle)),
				zap.String("type", string(t)),
				zap.String("panic", fmt.Sprint(rec)))
			res = scoring.Result{Score: math.Inf(-1)}
		}
	}()

	res, err := r.scorer.Score(c, t)
	if err != nil {
		r.logger.Debug("Scorer failed",
			zap.String("handle", string(c.Handle)),
			zap.String("type", string(t)),
			zap.Error(err))
		return scoring.Result{Score: math.Inf(-1)}
	}
	return res
}

func looksLikeSplitName(identity string) bool {
	return firstNameIdentity.MatchString(identity) || lastNameIdentity.MatchString(identity)
}
