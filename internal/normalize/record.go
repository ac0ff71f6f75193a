package normalize

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/BradenHooton/roster/internal/catalog"
	"github.com/BradenHooton/roster/internal/models"
	"github.com/go-playground/validator/v10"
)

var formats = validator.New()

// Coerce converts v to the canonical value of kind. The boolean result is
// false when v carried something that could not be coerced; the returned
// value is then nil.
func Coerce(kind models.FieldKind, v any) (any, bool) {
	var out any
	switch kind {
	case models.KindBool:
		if b := StringToBoolean(v); b != nil {
			out = *b
		}
	case models.KindNumber:
		if n := Number(v); n != nil {
			out = *n
		}
	case models.KindDate:
		if d := Date(v); d != nil {
			out = *d
		}
	case models.KindList:
		if l := List(v); l != nil {
			out = l
		}
	case models.KindID:
		if id := NullableID(v); id != nil {
			out = *id
		}
	case models.KindObject:
		if m := object(v); m != nil {
			out = m
		}
	default:
		if s := Text(v); s != nil {
			out = *s
		}
	}
	return out, out != nil || isBlank(v)
}

// Field coerces v for a catalog field, applying the field's format on top of its kind.
// A value that violates the format is treated like any other uncoercible value.
func Field(f catalog.Field, v any) (any, bool) {
	value, ok := Coerce(f.Kind, v)
	if value == nil || f.Format == "" {
		return value, ok
	}
	if f.Format == catalog.FormatEmail {
		addr := strings.ToLower(value.(string))
		if formats.Var(addr, "email") != nil {
			return nil, false
		}
		return addr, true
	}
	return value, ok
}

func object(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return Map(t)
	case string:
		if strings.TrimSpace(t) == "" {
			return nil
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(t), &m); err != nil {
			return nil
		}
		return Map(m)
	}
	return nil
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []string:
		return len(compact(t)) == 0
	case []any:
		return len(List(t)) == 0
	}
	return false
}

// Record builds an employee from a raw record. Keys are resolved through the
// catalog by field name or label. The returned slice names the fields whose
// values could not be coerced and were left absent.
func Record(raw models.RawRecord, cat *catalog.Catalog) (*models.Employee, []string) {
	emp := &models.Employee{}
	invalid := Overlay(emp, raw, cat)
	return emp, invalid
}

// Overlay applies the fields present in raw onto emp, leaving other fields as they are.
// Keys that do not resolve to a catalogued field are ignored.
func Overlay(emp *models.Employee, raw models.RawRecord, cat *catalog.Catalog) []string {
	var invalid []string
	for key, v := range raw.Values {
		name, ok := cat.Resolve(key)
		if !ok {
			continue
		}
		switch name {
		case "email":
			emp.Email = Email(v)
			continue
		case "full_name":
			if s := Text(v); s != nil {
				emp.FullName = *s
			} else {
				emp.FullName = ""
			}
			continue
		}

		field, _ := cat.Field(name)
		value, ok := Field(field, v)
		if !ok {
			invalid = append(invalid, name)
		}
		// Coerce only ever returns values of the field's Go type.
		_ = emp.Set(name, value)
	}
	if emp.FullName == "" {
		emp.FullName = emp.DisplayName()
	}
	sort.Strings(invalid)
	return invalid
}

// Email trims and lower-cases an email address.
func Email(v any) string {
	s := Text(v)
	if s == nil {
		return ""
	}
	return strings.ToLower(*s)
}

// renormalize re-applies normalization to an already-typed record and returns a copy.
// Running it on its own output changes nothing.
func renormalize(emp *models.Employee, cat *catalog.Catalog) *models.Employee {
	out := *emp
	out.Email = Email(emp.Email)
	out.FullName = strings.TrimSpace(emp.FullName)
	for _, f := range cat.Fields() {
		if f.Required {
			continue
		}
		value, _ := Field(f, emp.Get(f.Name))
		_ = out.Set(f.Name, value)
	}
	if out.FullName == "" {
		out.FullName = out.DisplayName()
	}
	return &out
}
