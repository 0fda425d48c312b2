// Package sensitivity rejects candidates that must never be auto-filled,
// regardless of how well they score: password inputs and elements whose
// name or id look like payment or credential fields.
package sensitivity

import (
	"regexp"

	"github.com/jonathan/cv-autofill/internal/dom"
	"go.uber.org/zap"
)

// DefaultPatterns are matched case-insensitively against a candidate's identity string.
var DefaultPatterns = []string{
	`cc|credit|card|cvv|cvc|iban|swift|pass(word)?`,
}

// Filter holds the compiled credential pattern set.
type Filter struct {
	patterns []*regexp.Regexp
	logger   *zap.Logger
}

// New compiles the default patterns plus any extra ones.
// Extra patterns that fail to compile are skipped with a warning.
func New(logger *zap.Logger, extra ...string) *Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Filter{logger: logger}
	for _, p := range append(append([]string{}, DefaultPatterns...), extra...) {
		if p == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			logger.Warn("Skipping invalid sensitivity pattern", zap.String("pattern", p), zap.Error(err))
			continue
		}
		f.patterns = append(f.patterns, re)
	}
	return f
}

// IsForbidden reports whether c must never be filled.
// It never panics; an inspection failure is treated as "not forbidden".
func (f *Filter) IsForbidden(c dom.Candidate) (forbidden bool) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Warn("Sensitivity check failed", zap.String("handle", string(c.Handle)), zap.Any("panic", r))
			forbidden = false
		}
	}()

	if c.Tag == "input" && c.InputType == "password" {
		return true
	}
	identity := c.Identity()
	for _, re := range f.patterns {
		if re.MatchString(identity) {
			return true
		}
	}
	return false
}

// Apply returns the candidates that may be filled and how many were rejected.
func (f *Filter) Apply(candidates []dom.Candidate) ([]dom.Candidate, int) {
	allowed := make([]dom.Candidate, 0, len(candidates))
	rejected := 0
	for _, c := range candidates {
		if f.IsForbidden(c) {
			f.logger.Debug("Rejected sensitive candidate", zap.String("handle", string(c.Handle)), zap.String("identity", c.Identity()))
			rejected++
			continue
		}
		allowed = append(allowed, c)
	}
	return allowed, rejected
}
