// Package query turns request parameters into document predicates and
// patches.
package query

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/adfharrison1/go-filedb/pkg/domain"
)

// Filter is a set of field equality conditions, all of which must hold.
type Filter map[string]interface{}

// FilterFromValues builds a Filter from query parameters, skipping reserved
// keys. The first value of each key is used; numeric values become float64.
func FilterFromValues(values url.Values, reserved ...string) Filter {
	filter := make(Filter)
	for key, vals := range values {
		if len(vals) == 0 || isReserved(key, reserved) {
			continue
		}
		value := vals[0]
		if num, err := strconv.ParseFloat(value, 64); err == nil {
			filter[key] = num
		} else {
			filter[key] = value
		}
	}
	return filter
}

func isReserved(key string, reserved []string) bool {
	for _, r := range reserved {
		if key == r {
			return true
		}
	}
	return false
}

// Predicate returns a predicate that applies the filter. The identifier can be
// matched through domain.IDField.
func (f Filter) Predicate() domain.Predicate {
	want, byID := f[domain.IDField]
	fields := make(map[string]interface{}, len(f))
	for field, expected := range f {
		if field != domain.IDField {
			fields[field] = expected
		}
	}
	return func(id domain.Identifier, doc domain.Document) bool {
		if byID && !ValuesMatch(id.String(), want) {
			return false
		}
		return MatchesFilter(doc, fields)
	}
}

// MatchesFilter checks if a document matches the given filter criteria
func MatchesFilter(doc domain.Document, filter map[string]interface{}) bool {
	for field, expectedValue := range filter {
		actualValue, exists := doc[field]
		if !exists {
			return false // Field doesn't exist in document
		}

		if !ValuesMatch(actualValue, expectedValue) {
			return false // Values don't match
		}
	}
	return true // All filter criteria match
}

// ValuesMatch compares two values for equality, handling different types
func ValuesMatch(actual, expected interface{}) bool {
	// Handle nil values
	if actual == nil && expected == nil {
		return true
	}
	if actual == nil || expected == nil {
		return false
	}

	// Handle string comparison (case-insensitive for better UX)
	if actualStr, ok1 := actual.(string); ok1 {
		if expectedStr, ok2 := expected.(string); ok2 {
			return strings.EqualFold(actualStr, expectedStr)
		}
	}

	// Handle numeric comparison
	if actualNum, ok1 := ToFloat64(actual); ok1 {
		if expectedNum, ok2 := ToFloat64(expected); ok2 {
			return actualNum == expectedNum
		}
	}

	// Bools from query strings arrive as text
	if actualBool, ok := actual.(bool); ok {
		if expectedStr, ok := expected.(string); ok {
			parsed, err := strconv.ParseBool(expectedStr)
			return err == nil && parsed == actualBool
		}
	}

	switch actual.(type) {
	case map[string]interface{}, []interface{}, domain.Document:
		// Not comparable with ==
		return false
	}

	// Default to direct comparison
	return actual == expected
}

// ToFloat64 converts various numeric types to float64 for comparison
func ToFloat64(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}
