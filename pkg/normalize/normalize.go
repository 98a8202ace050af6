// Package normalize holds the small value-level cleaning rules shared by the
// transform step: heading normalization, missing-value canonicalization and
// lenient numeric parsing.
package normalize

import (
	"math"
	"strconv"
	"strings"
)

// missingSentinels are the literals the source uses in place of a value
var missingSentinels = map[string]struct{}{
	"N/A":  {},
	"NA":   {},
	"":     {},
	" ":    {},
	"null": {},
	"None": {},
}

// ColumnName trims and lower-cases a heading and joins its words with underscores
func ColumnName(heading string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(heading)), " ", "_")
}

// IsMissing reports whether v is one of the recognized missing-value sentinels.
// Matching is exact: "n/a" or " N/A " are real values.
func IsMissing(v string) bool {
	_, ok := missingSentinels[v]
	return ok
}

// Canonical maps sentinels to nil and returns a pointer to v otherwise
func Canonical(v string) *string {
	if IsMissing(v) {
		return nil
	}
	return &v
}

// ParseNumber parses v as a decimal number, tolerating surrounding whitespace,
// a sign and an exponent. NaN, infinities and hex literals are rejected.
func ParseNumber(v string) (float64, bool) {
	s := strings.TrimSpace(v)
	if s == "" || strings.ContainsAny(s, "xX_") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Value dereferences p, returning fallback for nil
func Value(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}
