package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/jonathan/cv-autofill/internal/types"
	"gopkg.in/yaml.v3"
)

// Error represents an error loading a profile.
type Error struct {
	Path    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("profile error for %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("profile error for %s: %s", e.Path, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// LoadFile reads a JSON or YAML profile, chosen by file extension, and
// normalizes it.
func LoadFile(path string) (types.Profile, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, &Error{Path: path, Message: "failed to read profile", Cause: err}
	}

	var doc map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, nil, &Error{Path: path, Message: "failed to parse profile", Cause: err}
	}

	p, warnings := FromMap(doc)
	return p, warnings, nil
}

// FromMap normalizes a decoded JSON or YAML object. Numbers and booleans are
// accepted as text.
func FromMap(doc map[string]any) (types.Profile, []string) {
	raw, warnings := flatten(doc)
	p, more := Normalize(raw)
	return p, append(warnings, more...)
}

// flatten keeps scalar values as strings; nested values cannot be written
// into a single field and are reported.
func flatten(doc map[string]any) (map[string]string, []string) {
	raw := make(map[string]string, len(doc))
	var warnings []string

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		switch v := doc[k].(type) {
		case nil:
		case string:
			raw[k] = v
		case bool:
			raw[k] = strconv.FormatBool(v)
		case int:
			raw[k] = strconv.Itoa(v)
		case int64:
			raw[k] = strconv.FormatInt(v, 10)
		case float64:
			raw[k] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			warnings = append(warnings, fmt.Sprintf("field %q is not a scalar and was ignored", k))
		}
	}
	return raw, warnings
}
