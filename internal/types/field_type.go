// Package types provides type definitions for structured data used throughout the autofill engine.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "fmt"

// FieldType identifies one semantic category of profile data.
type FieldType string

// Field types in enumeration order. The order is significant: when two types
// score the same for a candidate, the one listed first wins.
const (
	FieldFirstName         FieldType = "firstName"
	FieldLastName          FieldType = "lastName"
	FieldFullName          FieldType = "fullName"
	FieldEmail             FieldType = "email"
	FieldPhone             FieldType = "phone"
	FieldAddressLine       FieldType = "addressLine"
	FieldCity              FieldType = "city"
	FieldState             FieldType = "state"
	FieldPostalCode        FieldType = "postalCode"
	FieldCountry           FieldType = "country"
	FieldLinkedIn          FieldType = "linkedin"
	FieldGitHub            FieldType = "github"
	FieldWebsite           FieldType = "website"
	FieldDateOfBirth       FieldType = "dateOfBirth"
	FieldSummary           FieldType = "summary"
	FieldCoverLetter       FieldType = "coverLetter"
	FieldGraduationYear    FieldType = "graduationYear"
	FieldExperienceYears   FieldType = "experienceYears"
	FieldSalaryExpectation FieldType = "salaryExpectation"
)

var allFieldTypes = []FieldType{
	FieldFirstName,
	FieldLastName,
	FieldFullName,
	FieldEmail,
	FieldPhone,
	FieldAddressLine,
	FieldCity,
	FieldState,
	FieldPostalCode,
	FieldCountry,
	FieldLinkedIn,
	FieldGitHub,
	FieldWebsite,
	FieldDateOfBirth,
	FieldSummary,
	FieldCoverLetter,
	FieldGraduationYear,
	FieldExperienceYears,
	FieldSalaryExpectation,
}

// AllFieldTypes returns every field type in enumeration order.
// The returned slice is a copy and may be modified by the caller.
func AllFieldTypes() []FieldType {
	out := make([]FieldType, len(allFieldTypes))
	copy(out, allFieldTypes)
	return out
}

// ParseFieldType converts an identifier such as "email" into a FieldType.
func ParseFieldType(s string) (FieldType, error) {
	for _, t := range allFieldTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown field type %q", s)
}

// Valid reports whether t is one of the enumerated field types.
func (t FieldType) Valid() bool {
	_, err := ParseFieldType(string(t))
	return err == nil
}

// IsName reports whether t is one of the name-shaped types covered by the name lock.
func (t FieldType) IsName() bool {
	return t == FieldFirstName || t == FieldLastName || t == FieldFullName
}
