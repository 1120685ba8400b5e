package models

import "strings"

// Gender is the canonical form of a declared gender identity
type Gender string

const (
	GenderMale    Gender = "MALE"
	GenderFemale  Gender = "FEMALE"
	GenderUnknown Gender = "UNKNOWN"
)

// NormalizeGender maps free text onto the canonical set, case-insensitively.
func NormalizeGender(raw string) Gender {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "male", "man", "m":
		return GenderMale
	case "female", "woman", "f", "w":
		return GenderFemale
	default:
		return GenderUnknown
	}
}
