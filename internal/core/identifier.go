package core

import (
	"fmt"
	"strings"
)

// Defaults applied when a post field is left blank.
const (
	DefaultSequence = 1
	DefaultContract = "2"
	DefaultYear     = 2023
	DefaultShift    = "Matutino"
	DefaultStatus   = StatusVacant
)

// Post statuses.
const (
	StatusVacant = "VAGO"
	StatusFilled = "PREENCHIDO"
)

// PostIdentifier builds the canonical post identifier:
//
//	NAME-number-sequence-contract-year
//
// The name is trimmed, internal whitespace runs become a single hyphen and the
// result is uppercased. The empty string is returned when any part is missing
// or invalid, so callers can use it as a validity check.
func PostIdentifier(k PostKey) string {
	name := strings.ToUpper(hyphenate(k.Name))
	contract := strings.TrimSpace(k.Contract)

	if name == "" || contract == "" {
		return ""
	}
	if k.Number < 1 || k.Sequence < 1 || !validYear(k.Year) {
		return ""
	}

	return fmt.Sprintf("%s-%d-%d-%s-%d", name, k.Number, k.Sequence, contract, k.Year)
}

// PostKeyFromStrings builds a key from raw form values. Numeric fields given
// as non-numeric text are treated as absent (zero), and a blank sequence
// falls back to DefaultSequence.
func PostKeyFromStrings(name, number, sequence, contract, year string) PostKey {
	key := PostKey{Name: name, Contract: contract}
	key.Number, _ = ParseCount(number)
	key.Year, _ = ParseCount(year)

	if strings.TrimSpace(sequence) == "" {
		key.Sequence = DefaultSequence
	} else {
		key.Sequence, _ = ParseCount(sequence)
	}
	return key
}

// PersonnelPostRef builds the lowercase post reference stored on personnel
// records. Sequence, contract and year are fixed at 1, 2 and 2023.
// Returns "" when the name is blank or the number is not positive.
func PersonnelPostRef(name string, number int) string {
	slug := strings.ToLower(hyphenate(name))
	if slug == "" || number < 1 {
		return ""
	}
	return fmt.Sprintf("%s-%d-%d-%s-%d", slug, number, DefaultSequence, DefaultContract, DefaultYear)
}

// hyphenate trims s and joins its whitespace-separated words with "-".
func hyphenate(s string) string {
	return strings.Join(strings.Fields(s), "-")
}

func validYear(y int) bool {
	return y >= 1000 && y <= 9999
}
