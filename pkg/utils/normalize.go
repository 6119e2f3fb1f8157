package utils

import (
	"strings"
)

// Normalized gender values as stored on patient records
const (
	GenderMale   = "Masculino"
	GenderFemale = "Feminino"
	GenderOther  = "Outro"
)

// genderAliases maps vendor gender spellings (lowercased) to stored values.
// Vendor exports are inconsistent between single letters, Portuguese and
// English spellings.
var genderAliases = map[string]string{
	"m":         GenderMale,
	"masculino": GenderMale,
	"male":      GenderMale,
	"f":         GenderFemale,
	"feminino":  GenderFemale,
	"female":    GenderFemale,
}

// NormalizeGender maps a raw gender value to one of the stored gender
// values. Unknown or empty input normalizes to GenderOther.
func NormalizeGender(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if normalized, ok := genderAliases[key]; ok {
		return normalized
	}
	return GenderOther
}

// DigitsOnly strips every non-digit rune. National IDs (CPF) and medical
// license numbers (CRM) are matched on their digits regardless of vendor
// punctuation ("123.456.789-00", "CRM 4567").
func DigitsOnly(value string) string {
	var builder strings.Builder
	builder.Grow(len(value))
	for _, r := range value {
		if r >= '0' && r <= '9' {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

// TruncateWithMarker caps value at max runes, replacing the tail with "..."
// when it exceeds the cap. Values at or under the cap are returned unchanged.
func TruncateWithMarker(value string, max int) string {
	const marker = "..."
	runes := []rune(value)
	if max <= 0 || len(runes) <= max {
		return value
	}
	if max <= len(marker) {
		return string(runes[:max])
	}
	return string(runes[:max-len(marker)]) + marker
}
