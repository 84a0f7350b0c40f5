// Package normalize converts arbitrary nested property values into the
// scalar and homogeneous-array shapes the graph store can persist.
package normalize

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"
)

// Properties normalizes a top-level property bag. Each entry is normalized
// at depth 0, so nested maps become JSON-encoded strings while scalar and
// array values stay native.
func Properties(props map[string]interface{}) map[string]interface{} {
	if props == nil {
		return map[string]interface{}{}
	}
	out := make(map[string]interface{}, len(props))
	for k, v := range props {
		out[k] = Value(v, 0)
	}
	return out
}

// Value normalizes a single value for storage. The function is total: any
// failure for one value yields nil rather than aborting the caller's
// property set.
func Value(v interface{}, depth int) (result interface{}) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("normalize: recovered normalizing value of type %T: %v", v, r)
			result = nil
		}
	}()

	switch val := v.(type) {
	case nil:
		return nil
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, json.Number:
		return val
	case string:
		return safeString(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case *time.Time:
		if val == nil {
			return nil
		}
		return val.UTC().Format(time.RFC3339)
	case []interface{}:
		out := make([]interface{}, 0, len(val))
		for _, item := range val {
			out = append(out, Value(item, depth+1))
		}
		return out
	case []string:
		out := make([]interface{}, 0, len(val))
		for _, item := range val {
			out = append(out, safeString(item))
		}
		return out
	case map[string]interface{}:
		// The store rejects nested objects as property values, so a map at
		// any depth is serialized, not flattened.
		return encodeJSON(val)
	case fmt.Stringer:
		return safeString(val.String())
	default:
		log.Printf("normalize: unknown value type %T, storing string form", v)
		return safeString(fmt.Sprintf("%v", v))
	}
}

// encodeJSON serializes a nested map to a JSON string, normalizing its
// values first so dates and invalid UTF-8 inside the map are also handled.
func encodeJSON(m map[string]interface{}) interface{} {
	clean := make(map[string]interface{}, len(m))
	for k, v := range m {
		// Deeper maps stay maps inside the JSON document; only the
		// outermost map collapses to a string.
		clean[k] = cleanNested(v)
	}
	data, err := json.Marshal(clean)
	if err != nil {
		log.Printf("normalize: failed to encode nested map: %v", err)
		return nil
	}
	return string(data)
}

// cleanNested normalizes values inside a JSON-bound map without collapsing
// nested maps to strings; the whole document is stringified once.
func cleanNested(v interface{}) interface{} {
	switch val := v.(type) {
	case string:
		return safeString(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case []interface{}:
		out := make([]interface{}, 0, len(val))
		for _, item := range val {
			out = append(out, cleanNested(item))
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = cleanNested(item)
		}
		return out
	default:
		return val
	}
}

// safeString re-encodes a string as valid UTF-8, replacing invalid
// sequences with U+FFFD, and strips NUL bytes the bolt protocol rejects.
func safeString(s string) string {
	if utf8.ValidString(s) && !strings.ContainsRune(s, 0) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == 0 {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToValidUTF8(b.String(), string(utf8.RuneError))
}
