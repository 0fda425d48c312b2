package scoring

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathan/cv-autofill/internal/dom"
	"github.com/jonathan/cv-autofill/internal/types"
)

// Signal weights. An autocomplete token is an explicit declaration by the
// page author and outweighs any textual hint.
const (
	weightAutocomplete = 100
	weightName         = 50
	weightLabel        = 45
	weightAria         = 40
	weightPlaceholder  = 30
	weightNearby       = 15
	weightInputType    = 30
	weightTag          = 15
	penaltyWrongType   = -40
)

// rule describes how one field type shows up in markup.
type rule struct {
	autocomplete []string
	keywords     *regexp.Regexp
	inputTypes   []string
	textarea     bool
	// negative keywords push the score down, e.g. "company name" for fullName
	negative *regexp.Regexp
}

var rules = map[types.FieldType]rule{
	types.FieldFirstName: {
		autocomplete: []string{"given-name"},
		keywords:     regexp.MustCompile(`(first|given|fore)[-_ ]?name|\bfname\b|\bvorname\b|prénom|\bad\b|\bisim\b`),
		negative:     regexp.MustCompile(`full[-_ ]?name|ad[-_ ]?soyad`),
	},
	types.FieldLastName: {
		autocomplete: []string{"family-name"},
		keywords:     regexp.MustCompile(`(last|family|sur)[-_ ]?name|\blname\b|\bnachname\b|soyad`),
		negative:     regexp.MustCompile(`full[-_ ]?name|ad[-_ ]?soyad`),
	},
	types.FieldFullName: {
		autocomplete: []string{"name"},
		keywords:     regexp.MustCompile(`full[-_ ]?name|your[-_ ]?name|\bname\b|ad[-_ ]?soyad|\bisim\b`),
		negative:     regexp.MustCompile(`company|employer|school|university|user[-_ ]?name|file|reference`),
	},
	types.FieldEmail: {
		autocomplete: []string{"email"},
		keywords:     regexp.MustCompile(`e-?mail|\be-?posta\b`),
		inputTypes:   []string{"email"},
	},
	types.FieldPhone: {
		autocomplete: []string{"tel", "tel-national"},
		keywords:     regexp.MustCompile(`phone|mobile|\btel\b|telephone|\bcell\b|telefon`),
		inputTypes:   []string{"tel"},
	},
	types.FieldAddressLine: {
		autocomplete: []string{"street-address", "address-line1", "address-line2"},
		keywords:     regexp.MustCompile(`address|street|\badres\b`),
		negative:     regexp.MustCompile(`e-?mail|ip[-_ ]?address`),
	},
	types.FieldCity: {
		autocomplete: []string{"address-level2"},
		keywords:     regexp.MustCompile(`\bcity\b|town|şehir|\bsehir\b|\bil\b`),
	},
	types.FieldState: {
		autocomplete: []string{"address-level1"},
		keywords:     regexp.MustCompile(`\bstate\b|province|region|county`),
	},
	types.FieldPostalCode: {
		autocomplete: []string{"postal-code"},
		keywords:     regexp.MustCompile(`zip|postal|post[-_ ]?code|posta[-_ ]?kodu`),
	},
	types.FieldCountry: {
		autocomplete: []string{"country", "country-name"},
		keywords:     regexp.MustCompile(`country|nation|ülke|\bulke\b`),
	},
	types.FieldLinkedIn: {
		keywords:   regexp.MustCompile(`linked[-_ ]?in`),
		inputTypes: []string{"url"},
	},
	types.FieldGitHub: {
		keywords:   regexp.MustCompile(`git[-_ ]?hub`),
		inputTypes: []string{"url"},
	},
	types.FieldWebsite: {
		autocomplete: []string{"url"},
		keywords:     regexp.MustCompile(`website|portfolio|homepage|personal[-_ ]?(site|url)|\bweb\b|\burl\b`),
		inputTypes:   []string{"url"},
		negative:     regexp.MustCompile(`linked[-_ ]?in|git[-_ ]?hub`),
	},
	types.FieldDateOfBirth: {
		autocomplete: []string{"bday"},
		keywords:     regexp.MustCompile(`birth|\bdob\b|doğum|dogum`),
		inputTypes:   []string{"date"},
	},
	types.FieldSummary: {
		keywords: regexp.MustCompile(`summary|about[-_ ]?(you|yourself|me)|\bbio\b|profile|özet|hakkında`),
		textarea: true,
	},
	types.FieldCoverLetter: {
		keywords: regexp.MustCompile(`cover[-_ ]?letter|motivation|why[-_ ]?(do )?you|ön[-_ ]?yazı`),
		textarea: true,
	},
	types.FieldGraduationYear: {
		keywords:   regexp.MustCompile(`graduat|grad[-_ ]?year|mezuniyet`),
		inputTypes: []string{"number", "month"},
	},
	types.FieldExperienceYears: {
		keywords:   regexp.MustCompile(`years?[-_ ]?of[-_ ]?experience|experience[-_ ]?years|\byoe\b|deneyim`),
		inputTypes: []string{"number"},
	},
	types.FieldSalaryExpectation: {
		keywords:   regexp.MustCompile(`salary|compensation|expected[-_ ]?pay|maaş|ücret`),
		inputTypes: []string{"number"},
	},
}

// signalWeights lists the text signals in the order their reasons are reported.
var signalWeights = []struct {
	key    string
	weight float64
}{
	{"name", weightName},
	{"id", weightName},
	{"label", weightLabel},
	{"aria-label", weightAria},
	{"placeholder", weightPlaceholder},
	{"nearby", weightNearby},
}

// Heuristic is a keyword scorer over attribute, label and placeholder text.
type Heuristic struct{}

// NewHeuristic returns the default keyword scorer.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Score implements Scorer.
func (h *Heuristic) Score(c dom.Candidate, t types.FieldType) (Result, error) {
	r, ok := rules[t]
	if !ok {
		return Result{}, fmt.Errorf("no scoring rule for field type %q", t)
	}

	var res Result
	signals := c.Signals()

	for _, token := range r.autocomplete {
		if autocompleteHas(signals["autocomplete"], token) {
			res.Score += weightAutocomplete
			res.Reasons = append(res.Reasons, "autocomplete:"+token)
			break
		}
	}

	// name and id carry the same weight but only count once
	nameMatched := false
	for _, sw := range signalWeights {
		text := signals[sw.key]
		if text == "" || r.keywords == nil {
			continue
		}
		m := r.keywords.FindString(text)
		if m == "" {
			continue
		}
		if sw.key == "id" || sw.key == "name" {
			if nameMatched {
				continue
			}
			nameMatched = true
		}
		res.Score += sw.weight
		res.Reasons = append(res.Reasons, fmt.Sprintf("%s:%s", sw.key, strings.TrimSpace(m)))
	}

	if r.negative != nil {
		for _, key := range []string{"name", "id", "label", "placeholder"} {
			if m := r.negative.FindString(signals[key]); m != "" {
				res.Score += penaltyWrongType
				res.Reasons = append(res.Reasons, "negative:"+m)
				break
			}
		}
	}

	if c.Tag == "input" {
		for _, it := range r.inputTypes {
			if c.InputType == it {
				res.Score += weightInputType
				res.Reasons = append(res.Reasons, "type:"+it)
				break
			}
		}
		// a typed input that belongs to a different field is a strong counter-signal
		if specific := typedFieldFor(c.InputType); specific != "" && specific != t {
			res.Score += penaltyWrongType
			res.Reasons = append(res.Reasons, "type-mismatch:"+c.InputType)
		}
	}

	if r.textarea && c.Tag == "textarea" {
		res.Score += weightTag
		res.Reasons = append(res.Reasons, "tag:textarea")
	}

	return res, nil
}

// typedFieldFor maps input types that only make sense for one field type.
func typedFieldFor(inputType string) types.FieldType {
	switch inputType {
	case "email":
		return types.FieldEmail
	case "tel":
		return types.FieldPhone
	case "date":
		return types.FieldDateOfBirth
	default:
		return ""
	}
}

func autocompleteHas(attr, token string) bool {
	for _, f := range strings.Fields(attr) {
		if f == token {
			return true
		}
	}
	return false
}
