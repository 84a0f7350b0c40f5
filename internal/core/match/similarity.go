package match

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Similarity is normalized edit distance: 1 - lev(a,b)/max(len). Inputs are
// lowercased and whitespace-collapsed first. Two empty strings are not
// similar; there is no signal in absence.
func Similarity(a, b string) float64 {
	a, b = Fold(a), Fold(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	dist := levenshtein.ComputeDistance(a, b)
	if dist >= maxLen {
		return 0
	}
	return 1 - float64(dist)/float64(maxLen)
}

// Fold lowercases, trims, and collapses internal whitespace.
func Fold(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}

// Str returns the first non-blank string value among the given keys. Array
// values collapse to their first non-blank entry.
func Str(props map[string]interface{}, keys ...string) string {
	if props == nil {
		return ""
	}
	for _, key := range keys {
		switch v := props[key].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return v
			}
		case []interface{}:
			for _, item := range v {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					return s
				}
			}
		case []string:
			for _, s := range v {
				if strings.TrimSpace(s) != "" {
					return s
				}
			}
		case nil:
		default:
			if v != nil {
				return fmt.Sprintf("%v", v)
			}
		}
	}
	return ""
}

// Digits strips everything but 0-9.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePhone reduces a phone number to digits, dropping a leading
// country code 1 from 11-digit North American numbers.
func NormalizePhone(s string) string {
	d := Digits(s)
	if len(d) == 11 && d[0] == '1' {
		return d[1:]
	}
	return d
}

// Alnum strips everything but letters and digits and uppercases the rest;
// used for serials, license plates and VINs.
func Alnum(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// genericTerms are names that carry no identifying signal on their own.
var genericTerms = map[string]struct{}{
	"vehicle": {}, "car": {}, "truck": {}, "van": {}, "item": {},
	"thing": {}, "object": {}, "asset": {}, "entity": {}, "unknown": {},
	"person": {}, "place": {}, "location": {}, "address": {}, "property": {},
}

// IsGenericTerm reports whether a name is a known generic term.
func IsGenericTerm(name string) bool {
	_, ok := genericTerms[Fold(name)]
	return ok
}

// HasGenericName reports whether the property bag's name is generic.
func HasGenericName(props map[string]interface{}) bool {
	return IsGenericTerm(Str(props, "name"))
}
