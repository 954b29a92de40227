// Package coverage maps extracted facts onto the required-field schema and
// grades how well each field is supported.
package coverage

import (
	"sort"

	"github.com/sells-group/research-engine/internal/model"
	"github.com/sells-group/research-engine/internal/schema"
	"github.com/sells-group/research-engine/internal/scorer"
)

// Checker assesses field completeness.
type Checker struct {
	schema schema.Schema
}

// NewChecker creates a checker over the given schema.
func NewChecker(s schema.Schema) *Checker {
	return &Checker{schema: s}
}

// Assess grades every schema field against the extracted facts and the
// consolidated source records backing them. Grading:
//
//	HIGH    ≥2 distinct supporting sources, at least one press-tier or better
//	MEDIUM  ≥1 supporting source
//	ABSENT  no fact, or a fact with no resolvable source
//
// Output order follows the schema's field order, one entry per field, so the
// result is deterministic regardless of fact order.
func (c *Checker) Assess(facts []model.ExtractedFact, records []model.SourceRecord) []model.FieldCoverage {
	authorityByURL := make(map[string]model.AuthorityTier, len(records))
	for _, r := range records {
		authorityByURL[r.URL] = r.Authority
	}

	// Distinct supporting source URLs per field, restricted to known records.
	supportByField := make(map[string]map[string]bool)
	for _, f := range facts {
		if f.Value == "" {
			continue
		}
		if _, ok := c.schema.CategoryOf(f.Field); !ok {
			continue
		}
		for _, raw := range f.SourceURLs {
			canonical, err := scorer.CanonicalURL(raw)
			if err != nil {
				continue
			}
			if _, known := authorityByURL[canonical]; !known {
				continue
			}
			if supportByField[f.Field] == nil {
				supportByField[f.Field] = make(map[string]bool)
			}
			supportByField[f.Field][canonical] = true
		}
	}

	out := make([]model.FieldCoverage, 0, len(c.schema.Fields))
	for _, field := range c.schema.Fields {
		fc := model.FieldCoverage{
			Field:    field.Name,
			Category: field.Category,
		}

		support := supportByField[field.Name]
		if len(support) > 0 {
			urls := make([]string, 0, len(support))
			authoritative := false
			for u := range support {
				urls = append(urls, u)
				if authorityByURL[u] >= model.AuthorityPress {
					authoritative = true
				}
			}
			sort.Strings(urls)
			fc.Sources = urls

			if len(support) >= 2 && authoritative {
				fc.Confidence = model.ConfidenceHigh
			} else {
				fc.Confidence = model.ConfidenceMedium
			}
		}

		out = append(out, fc)
	}
	return out
}
