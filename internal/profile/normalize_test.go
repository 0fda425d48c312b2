package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/cv-autofill/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	p, warnings := Normalize(map[string]string{
		"firstName":         "  Ada ",
		"lastName":          "King\n Lovelace",
		"email":             "mail: ada@example.com ",
		"phone":             "+44 (20) 7946 0958",
		"linkedin":          "linkedin.com/in/ada",
		"github":            "https://github.com/ada",
		"website":           "not a url",
		"graduationYear":    "06/1835",
		"salaryExpectation": "£ 90,000 / year",
		"favouriteColour":   "green",
		"summary":           "",
	})

	assert.Equal(t, types.Profile{
		types.FieldFirstName:         "Ada",
		types.FieldLastName:          "King Lovelace",
		types.FieldFullName:          "Ada King Lovelace",
		types.FieldEmail:             "ada@example.com",
		types.FieldPhone:             "+44 (20) 7946 0958",
		types.FieldLinkedIn:          "https://linkedin.com/in/ada",
		types.FieldGitHub:            "https://github.com/ada",
		types.FieldGraduationYear:    "1835",
		types.FieldSalaryExpectation: "90,000",
	}, p)
	assert.Equal(t, []string{
		`unknown field "favouriteColour" ignored`,
		`website: invalid value "not a url" dropped`,
	}, warnings)
}

func TestNormalize_FormatChecks(t *testing.T) {
	tests := []struct {
		name string
		key  string
		in   string
		want string
		ok   bool
	}{
		{"email without domain", "email", "ada@", "", false},
		{"short phone", "phone", "12345", "", false},
		{"long phone", "phone", "1234567890123456", "", false},
		{"phone at limit", "phone", "123 456 7890", "123 456 7890", true},
		{"url keeps scheme", "website", "http://ada.dev", "http://ada.dev", true},
		{"salary without digits", "salaryExpectation", "negotiable", "", false},
		{"year without year", "graduationYear", "soon", "", false},
		{"free text untouched", "city", "  İstanbul  ", "İstanbul", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, warnings := Normalize(map[string]string{tt.key: tt.in})
			ft := types.FieldType(tt.key)
			assert.Equal(t, tt.want, p[ft])
			assert.Equal(t, tt.ok, len(warnings) == 0)
		})
	}
}

func TestNormalize_KeepsExplicitFullName(t *testing.T) {
	p, _ := Normalize(map[string]string{"firstName": "Ada", "fullName": "Augusta Ada King"})
	assert.Equal(t, "Augusta Ada King", p[types.FieldFullName])

	p, _ = Normalize(map[string]string{"email": "ada@example.com"})
	_, ok := p[types.FieldFullName]
	assert.False(t, ok)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "ada.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"firstName":"Ada","graduationYear":1835,"skills":["math"]}`), 0o600))

	p, warnings, err := LoadFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "Ada", p[types.FieldFirstName])
	assert.Equal(t, "1835", p[types.FieldGraduationYear])
	assert.Equal(t, []string{`field "skills" is not a scalar and was ignored`}, warnings)

	yamlPath := filepath.Join(dir, "ada.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("firstName: Ada\nlastName: Lovelace\nexperienceYears: 12\n"), 0o600))

	p, warnings, err = LoadFile(yamlPath)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "Ada Lovelace", p[types.FieldFullName])
	assert.Equal(t, "12", p[types.FieldExperienceYears])
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := LoadFile(filepath.Join(dir, "missing.json"))
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "failed to read profile", pe.Message)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{`), 0o600))
	_, _, err = LoadFile(bad)
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "failed to parse profile", pe.Message)
}
