package formula

import (
	"strconv"
	"strings"
)

// Normalize converts a free-text required-data name into the canonical token
// used as a formula variable: trimmed, lowercased, whitespace runs collapsed
// to single underscores. Numeric-only tokens are literals, not variable
// names, and pass through unchanged.
//
// This is the single normalization point for the whole system. Formulas are
// stored against normalized names and binding maps are built with the same
// function; a second implementation anywhere else would silently break
// variable lookup.
func Normalize(name string) string {
	trimmed := strings.TrimSpace(name)
	if _, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return trimmed
	}
	fields := strings.Fields(strings.ToLower(trimmed))
	return strings.Join(fields, "_")
}
