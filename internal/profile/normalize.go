// Package profile loads applicant profiles and normalizes them into the
// values the engine writes.
package profile

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jonathan/cv-autofill/internal/types"
)

var (
	emailPattern = regexp.MustCompile(`[^\s@]+@[^\s@]+\.[^\s@]+`)
	nonDigit     = regexp.MustCompile(`\D`)
	urlPattern   = regexp.MustCompile(`(?i)^(https?://)?(www\.)?[a-z0-9.-]+\.[a-z]{2,}`)
	schemePrefix = regexp.MustCompile(`(?i)^https?://`)
	yearPattern  = regexp.MustCompile(`\b\d{4}\b`)
	salaryStrip  = regexp.MustCompile(`[^\d.,]`)
)

// Normalize converts raw profile fields into a Profile. Keys are field type
// identifiers. Values that fail their format check are dropped; every
// dropped key or value produces a warning.
func Normalize(raw map[string]string) (types.Profile, []string) {
	p := make(types.Profile, len(raw))
	var warnings []string

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		t, err := types.ParseFieldType(k)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("unknown field %q ignored", k))
			continue
		}
		v := clean(raw[k])
		if v == "" {
			continue
		}
		nv, ok := normalizeValue(t, v)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("%s: invalid value %q dropped", t, v))
			continue
		}
		p[t] = nv
	}

	if p[types.FieldFullName] == "" {
		full := strings.TrimSpace(p[types.FieldFirstName] + " " + p[types.FieldLastName])
		if full != "" {
			p[types.FieldFullName] = full
		}
	}

	return p, warnings
}

func normalizeValue(t types.FieldType, v string) (string, bool) {
	switch t {
	case types.FieldEmail:
		m := emailPattern.FindString(v)
		return m, m != ""
	case types.FieldPhone:
		n := len(nonDigit.ReplaceAllString(v, ""))
		return v, n >= 10 && n <= 15
	case types.FieldLinkedIn, types.FieldGitHub, types.FieldWebsite:
		return normalizeURL(v)
	case types.FieldGraduationYear:
		m := yearPattern.FindString(v)
		return m, m != ""
	case types.FieldSalaryExpectation:
		s := salaryStrip.ReplaceAllString(v, "")
		return s, strings.ContainsAny(s, "0123456789")
	default:
		return v, true
	}
}

func normalizeURL(v string) (string, bool) {
	if !urlPattern.MatchString(v) {
		return "", false
	}
	if !schemePrefix.MatchString(v) {
		v = "https://" + v
	}
	return v, true
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
