// Package normalize coerces raw spreadsheet cells and form values into the
// canonical typed values stored on an employee record.
//
// Nothing in this package returns an error for a bad value: a value that
// cannot be coerced becomes absent (nil) so one bad cell never aborts a batch.
package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	trueStrings  = map[string]bool{"yes": true, "true": true, "1": true, "y": true, "t": true}
	falseStrings = map[string]bool{"no": true, "false": true, "0": true, "n": true, "f": true}
)

// StringToBoolean maps a boolean-ish value onto a tri-state boolean.
// Booleans pass through unchanged. Anything unrecognised, including nil,
// yields nil (unknown) rather than a guessed true or false.
func StringToBoolean(v any) *bool {
	switch t := v.(type) {
	case nil:
		return nil
	case bool:
		return &t
	case *bool:
		return t
	}

	s := strings.ToLower(strings.TrimSpace(stringify(v)))
	switch {
	case trueStrings[s]:
		b := true
		return &b
	case falseStrings[s]:
		b := false
		return &b
	}
	return nil
}

// List splits a comma separated value into trimmed, non-empty segments.
// Order is kept and repeats are not removed. Slices are treated as already split.
func List(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []string:
		return compact(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if item == nil {
				continue
			}
			parts = append(parts, stringify(item))
		}
		return compact(parts)
	}
	return compact(strings.Split(stringify(v), ","))
}

func compact(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Number parses a numeric value. A value that does not parse is absent, not zero.
func Number(v any) *float64 {
	var f float64
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case *float64:
		if t == nil {
			return nil
		}
		f = *t
	default:
		s := strings.ReplaceAll(strings.TrimSpace(stringify(v)), ",", "")
		if s == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = parsed
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// NullableID turns an empty identifier into an explicit absence.
func NullableID(v any) *string {
	return Text(v)
}

// Text trims a text value; blank text is absent.
func Text(v any) *string {
	switch t := v.(type) {
	case nil:
		return nil
	case *string:
		if t == nil {
			return nil
		}
		v = *t
	}
	s := strings.TrimSpace(stringify(v))
	if s == "" {
		return nil
	}
	return &s
}

// DateLayout is the canonical calendar date format for date fields.
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"02-Jan-2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"January 2, 2006",
}

// excelEpoch is day zero of spreadsheet serial dates (the 1900 system, with its leap-year bug).
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// Date converts a date-like value to YYYY-MM-DD. Spreadsheet serial day
// numbers are accepted. Ambiguous day/month orders such as 03/04/2022 are not.
func Date(v any) *string {
	var t time.Time
	switch x := v.(type) {
	case nil:
		return nil
	case time.Time:
		t = x
	case float64, int, int64:
		n := Number(x)
		if n == nil || *n < 1 || *n > 2958465 {
			return nil
		}
		t = excelEpoch.Add(time.Duration(math.Floor(*n)) * 24 * time.Hour)
	default:
		parsed, ok := ParseDate(stringify(v))
		if !ok {
			return nil
		}
		t = parsed
	}
	s := t.Format(DateLayout)
	return &s
}

// ParseDate parses a date or timestamp string in any accepted layout.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsIdentifierKey reports whether a key names an identifier-shaped field.
func IsIdentifierKey(key string) bool {
	return key == "id" || key == "related_id" || strings.HasSuffix(key, "_id")
}

// Value applies the generic rules used for free-form objects: empty
// identifiers become nil, nested objects are normalized recursively and
// everything else (arrays included) is left untouched.
func Value(key string, v any) any {
	switch t := v.(type) {
	case string:
		if t == "" && IsIdentifierKey(key) {
			return nil
		}
	case map[string]any:
		return Map(t)
	}
	return v
}

// Map normalizes every entry of a plain object with Value.
func Map(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Value(k, v)
	}
	return out
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}
