package models

// FilterType is the value type a filterable field is edited and matched with.
type FilterType string

const (
	FilterSelect    FilterType = "select"
	FilterText      FilterType = "text"
	FilterNumber    FilterType = "number"
	FilterBoolean   FilterType = "boolean"
	FilterDateRange FilterType = "date-range"
)

// FilterRule is a single condition over one field. Rules combine with AND.
// Value and ValueEnd are empty when unset.
type FilterRule struct {
	ID       string `json:"id" validate:"required"`
	Field    string `json:"field" validate:"required"`
	Value    string `json:"value"`
	ValueEnd string `json:"value_end,omitempty"`
}

// FieldDefinition describes a filterable field. Options is only set for
// select fields and holds the distinct values present in the current records.
type FieldDefinition struct {
	Field   string     `json:"field"`
	Label   string     `json:"label"`
	Type    FilterType `json:"type"`
	Options []string   `json:"options,omitempty"`
}
