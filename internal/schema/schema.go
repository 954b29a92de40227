// Package schema defines the required-field schema a research run is
// assessed against.
package schema

import (
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/research-engine/internal/model"
)

// Field is one required field in the research schema.
type Field struct {
	Name     string         `yaml:"name"`
	Category model.Category `yaml:"category"`
}

// Schema is the full set of required fields, partitioned into categories.
type Schema struct {
	Fields []Field `yaml:"fields"`
}

// Default returns the built-in required-field schema.
func Default() Schema {
	return Schema{Fields: []Field{
		{Name: "legal_name", Category: model.CategoryCorporate},
		{Name: "headquarters", Category: model.CategoryCorporate},
		{Name: "founded_year", Category: model.CategoryCorporate},
		{Name: "employee_count", Category: model.CategoryCorporate},
		{Name: "ownership_type", Category: model.CategoryCorporate},

		{Name: "annual_revenue", Category: model.CategoryFinancials},
		{Name: "revenue_growth", Category: model.CategoryFinancials},
		{Name: "funding_history", Category: model.CategoryFinancials},
		{Name: "profitability", Category: model.CategoryFinancials},

		{Name: "ceo", Category: model.CategoryLeadership},
		{Name: "executive_team", Category: model.CategoryLeadership},
		{Name: "board_members", Category: model.CategoryLeadership},

		{Name: "primary_products", Category: model.CategoryProducts},
		{Name: "target_customers", Category: model.CategoryProducts},
		{Name: "pricing_model", Category: model.CategoryProducts},

		{Name: "industry", Category: model.CategoryMarket},
		{Name: "competitors", Category: model.CategoryMarket},
		{Name: "market_position", Category: model.CategoryMarket},

		{Name: "litigation", Category: model.CategoryLegal},
		{Name: "regulatory_actions", Category: model.CategoryLegal},
	}}
}

// LoadFile reads a schema override from a YAML file.
func LoadFile(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, eris.Wrap(err, "schema: read file")
	}
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Schema{}, eris.Wrap(err, "schema: parse yaml")
	}
	if err := s.Validate(); err != nil {
		return Schema{}, err
	}
	return s, nil
}

// Validate checks that the schema is non-empty, field names are unique, and
// every category is recognized.
func (s Schema) Validate() error {
	if len(s.Fields) == 0 {
		return eris.New("schema: no fields defined")
	}
	valid := make(map[model.Category]bool)
	for _, c := range model.Categories() {
		valid[c] = true
	}
	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return eris.New("schema: field with empty name")
		}
		if seen[f.Name] {
			return eris.Errorf("schema: duplicate field %q", f.Name)
		}
		seen[f.Name] = true
		if !valid[f.Category] {
			return eris.Errorf("schema: field %q has unknown category %q", f.Name, f.Category)
		}
	}
	return nil
}

// ByCategory groups field names by category, preserving schema order within
// each category.
func (s Schema) ByCategory() map[model.Category][]string {
	out := make(map[model.Category][]string)
	for _, f := range s.Fields {
		out[f.Category] = append(out[f.Category], f.Name)
	}
	return out
}

// CategoryOf returns the category for a field name, or false if the field is
// not in the schema.
func (s Schema) CategoryOf(field string) (model.Category, bool) {
	for _, f := range s.Fields {
		if f.Name == field {
			return f.Category, true
		}
	}
	return "", false
}

// FieldNames returns all field names in stable sorted order.
func (s Schema) FieldNames() []string {
	out := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		out = append(out, f.Name)
	}
	sort.Strings(out)
	return out
}
