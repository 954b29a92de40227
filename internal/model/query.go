// Package model defines the core data types shared across the research engine.
package model

// Category tags a query or schema field with the kind of information it targets.
type Category string

const (
	CategoryCorporate  Category = "corporate"
	CategoryFinancials Category = "financials"
	CategoryLeadership Category = "leadership"
	CategoryProducts   Category = "products"
	CategoryMarket     Category = "market"
	CategoryLegal      Category = "legal"
)

// Categories lists all information categories in a fixed, deterministic order.
func Categories() []Category {
	return []Category{
		CategoryCorporate,
		CategoryFinancials,
		CategoryLeadership,
		CategoryProducts,
		CategoryMarket,
		CategoryLegal,
	}
}

// SearchQuery is one query issued during a research run. Immutable once issued.
type SearchQuery struct {
	Text      string   `json:"text"`
	Category  Category `json:"category"`
	Iteration int      `json:"iteration"`
}
