// Package filter evaluates filter rules against an in-memory employee collection.
//
// Evaluation is forgiving: a rule with no value matches everything, and a rule
// naming a field with no definition is skipped. Both keep half-edited rules
// from hiding records.
package filter

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BradenHooton/roster/internal/catalog"
	"github.com/BradenHooton/roster/internal/models"
	"github.com/BradenHooton/roster/internal/normalize"
)

// Apply returns the records matching every rule. With no rules the input is
// returned unchanged. The relative order of records is kept.
func Apply(records []*models.Employee, rules []models.FilterRule, defs []models.FieldDefinition) []*models.Employee {
	if len(rules) == 0 {
		return records
	}

	types := make(map[string]models.FilterType, len(defs))
	for _, d := range defs {
		types[d.Field] = d.Type
	}

	out := make([]*models.Employee, 0, len(records))
	for _, rec := range records {
		if matchesAll(rec, rules, types) {
			out = append(out, rec)
		}
	}
	return out
}

func matchesAll(rec *models.Employee, rules []models.FilterRule, types map[string]models.FilterType) bool {
	for _, rule := range rules {
		typ, ok := types[rule.Field]
		if !ok {
			continue
		}
		if !Match(rec, rule, typ) {
			return false
		}
	}
	return true
}

// Match evaluates a single rule against a record for a field of type typ.
func Match(rec *models.Employee, rule models.FilterRule, typ models.FilterType) bool {
	value := rec.Get(rule.Field)
	switch typ {
	case models.FilterBoolean:
		return matchBoolean(value, rule)
	case models.FilterDateRange:
		return matchDateRange(value, rule)
	default:
		return matchText(value, rule)
	}
}

func matchBoolean(value any, rule models.FilterRule) bool {
	want := normalize.StringToBoolean(rule.Value)
	if want == nil {
		return true
	}
	got, ok := value.(bool)
	return ok && got == *want
}

func matchDateRange(value any, rule models.FilterRule) bool {
	if value == nil {
		return false
	}
	day, ok := toDay(value)
	if !ok {
		return false
	}

	start, hasStart := normalize.ParseDate(rule.Value)
	end, hasEnd := normalize.ParseDate(rule.ValueEnd)

	switch {
	case hasStart && hasEnd:
		return !day.Before(truncate(start)) && !day.After(truncate(end))
	case hasStart:
		return day.Equal(truncate(start))
	default:
		return true
	}
}

func matchText(value any, rule models.FilterRule) bool {
	if rule.Value == "" {
		return true
	}
	if value == nil {
		return false
	}
	return strings.Contains(strings.ToLower(Stringify(value)), strings.ToLower(rule.Value))
}

func toDay(value any) (time.Time, bool) {
	switch v := value.(type) {
	case string:
		t, ok := normalize.ParseDate(v)
		if !ok {
			return time.Time{}, false
		}
		return truncate(t), true
	case time.Time:
		return truncate(v), true
	}
	return time.Time{}, false
}

// truncate keeps the calendar day of t in its own location.
func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Stringify renders a field value the way text rules and facets see it.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []string:
		return strings.Join(v, ", ")
	case time.Time:
		return v.Format(time.RFC3339)
	}
	return ""
}

// FacetValues returns the distinct non-empty values of field across records,
// sorted. List fields contribute each tag separately.
func FacetValues(records []*models.Employee, field string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}

	for _, rec := range records {
		switch v := rec.Get(field).(type) {
		case nil:
		case []string:
			for _, item := range v {
				add(item)
			}
		default:
			add(Stringify(v))
		}
	}
	sort.Strings(out)
	return out
}

// Definitions builds the filterable field definitions for records. Select
// options are computed from records on every call.
func Definitions(cat *catalog.Catalog, records []*models.Employee) []models.FieldDefinition {
	fields := cat.Filterable()
	defs := make([]models.FieldDefinition, 0, len(fields))
	for _, f := range fields {
		def := models.FieldDefinition{
			Field: f.Name,
			Label: f.Label,
			Type:  f.Filter,
		}
		if f.Filter == models.FilterSelect {
			def.Options = FacetValues(records, f.Name)
		}
		defs = append(defs, def)
	}
	return defs
}
