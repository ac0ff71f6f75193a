// Package catalog describes every known employee field: its label, category,
// canonical kind, filter type and an example value. The default catalog is
// embedded; deployments may point FIELD_CATALOG_PATH at their own copy.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/BradenHooton/roster/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed fields.yaml
var defaultCatalog []byte

// Field is one catalog entry.
type Field struct {
	Name     string            `yaml:"name"`
	Label    string            `yaml:"label"`
	Category string            `yaml:"category"`
	Kind     models.FieldKind  `yaml:"kind"`
	Filter   models.FilterType `yaml:"filter"`
	Required bool              `yaml:"required"`
	Example  string            `yaml:"example"`
	Format   string            `yaml:"format"` // further restricts a text value
}

// FormatEmail marks a text field that must hold an email address.
const FormatEmail = "email"

// Catalog is an ordered, validated set of fields.
type Catalog struct {
	fields  []Field
	byName  map[string]int
	byLabel map[string]int
}

type document struct {
	Fields []Field `yaml:"fields"`
}

// requiredFields are the employee columns every catalog must declare as required.
var requiredFields = []string{"email", "full_name"}

var validKinds = map[models.FieldKind]bool{
	models.KindText: true, models.KindBool: true, models.KindNumber: true, models.KindDate: true,
	models.KindList: true, models.KindID: true, models.KindObject: true,
}

var validFilters = map[models.FilterType]bool{
	"": true, models.FilterSelect: true, models.FilterText: true, models.FilterNumber: true,
	models.FilterBoolean: true, models.FilterDateRange: true,
}

// Default returns the embedded catalog. It panics if the embedded document is invalid,
// which the package tests guard against.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded field catalog: %v", err))
	}
	return c
}

// Load reads a catalog from path, or returns the embedded catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(defaultCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read field catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog. Every optional Employee field must be
// catalogued with a kind matching its Go type, and every catalogued field must exist.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse field catalog: %w", err)
	}

	c := &Catalog{
		fields:  doc.Fields,
		byName:  make(map[string]int, len(doc.Fields)),
		byLabel: make(map[string]int, len(doc.Fields)),
	}

	for i, f := range doc.Fields {
		if f.Name == "" || f.Label == "" {
			return nil, fmt.Errorf("field catalog entry %d: name and label are required", i)
		}
		if _, dup := c.byName[f.Name]; dup {
			return nil, fmt.Errorf("field catalog: duplicate field %q", f.Name)
		}
		if !validKinds[f.Kind] {
			return nil, fmt.Errorf("field catalog: field %q has unknown kind %q", f.Name, f.Kind)
		}
		if !validFilters[f.Filter] {
			return nil, fmt.Errorf("field catalog: field %q has unknown filter type %q", f.Name, f.Filter)
		}
		if f.Format != "" && (f.Format != FormatEmail || f.Kind != models.KindText) {
			return nil, fmt.Errorf("field catalog: field %q has unsupported format %q", f.Name, f.Format)
		}
		if f.Required {
			if !isRequiredField(f.Name) {
				return nil, fmt.Errorf("field catalog: field %q cannot be marked required", f.Name)
			}
		} else if err := models.CheckFieldKind(f.Name, f.Kind); err != nil {
			return nil, fmt.Errorf("field catalog: %w", err)
		}
		c.byName[f.Name] = i
		c.byLabel[normalizeHeader(f.Label)] = i
	}

	for _, name := range requiredFields {
		i, ok := c.byName[name]
		if !ok || !c.fields[i].Required {
			return nil, fmt.Errorf("field catalog: required field %q is missing", name)
		}
	}
	for _, name := range models.OptionalEmployeeFields() {
		if _, ok := c.byName[name]; !ok {
			return nil, fmt.Errorf("field catalog: employee field %q is not catalogued", name)
		}
	}

	return c, nil
}

func isRequiredField(name string) bool {
	for _, r := range requiredFields {
		if r == name {
			return true
		}
	}
	return false
}

// Fields returns the catalog entries in declaration order.
func (c *Catalog) Fields() []Field {
	out := make([]Field, len(c.fields))
	copy(out, c.fields)
	return out
}

// Field looks a field up by name.
func (c *Catalog) Field(name string) (Field, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Field{}, false
	}
	return c.fields[i], true
}

// Resolve maps a spreadsheet header or form key to a field name. Headers match
// either the field name or its label, ignoring case and surrounding whitespace.
func (c *Catalog) Resolve(header string) (string, bool) {
	key := normalizeHeader(header)
	if i, ok := c.byName[key]; ok {
		return c.fields[i].Name, true
	}
	if i, ok := c.byLabel[key]; ok {
		return c.fields[i].Name, true
	}
	return "", false
}

// Filterable returns the fields that carry a filter type.
func (c *Catalog) Filterable() []Field {
	var out []Field
	for _, f := range c.fields {
		if f.Filter != "" {
			out = append(out, f)
		}
	}
	return out
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}
