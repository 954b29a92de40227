package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/research-engine/internal/model"
	"github.com/sells-group/research-engine/internal/resilience"
	"github.com/sells-group/research-engine/pkg/anthropic"
)

// maxGapQueries bounds how many gap-filling queries one iteration issues.
// Gap queries are deliberately fewer and narrower than the initial set so
// cost growth per iteration stays bounded.
const maxGapQueries = 5

// categoryTemplates are the deterministic per-category query templates the
// template generator uses directly and the LLM generator falls back to.
// %s is the company name.
var categoryTemplates = map[model.Category][]string{
	model.CategoryCorporate: {
		"%s company overview headquarters founded",
		"%s number of employees ownership",
	},
	model.CategoryFinancials: {
		"%s annual revenue financials",
		"%s funding history investors",
	},
	model.CategoryLeadership: {
		"%s CEO executive team",
		"%s board of directors",
	},
	model.CategoryProducts: {
		"%s products services pricing",
		"%s target customers",
	},
	model.CategoryMarket: {
		"%s industry competitors market position",
	},
	model.CategoryLegal: {
		"%s litigation lawsuit regulatory action",
	},
}

// fieldQueryHints turns a schema field name into a search phrase for gap
// queries. Fields without a hint fall back to the field name with
// underscores replaced by spaces.
var fieldQueryHints = map[string]string{
	"legal_name":         "legal entity name",
	"headquarters":       "headquarters location",
	"founded_year":       "year founded",
	"employee_count":     "number of employees",
	"ownership_type":     "ownership private public",
	"annual_revenue":     "annual revenue",
	"revenue_growth":     "revenue growth rate",
	"funding_history":    "funding rounds investors",
	"profitability":      "profitability earnings",
	"ceo":                "chief executive officer",
	"executive_team":     "executive leadership team",
	"board_members":      "board of directors members",
	"primary_products":   "main products services",
	"target_customers":   "target market customers",
	"pricing_model":      "pricing model plans",
	"industry":           "industry sector",
	"competitors":        "main competitors",
	"market_position":    "market share position",
	"litigation":         "lawsuits litigation",
	"regulatory_actions": "regulatory fines enforcement",
}

// TemplateGenerator produces queries from fixed per-category templates.
// It is fully deterministic and never fails.
type TemplateGenerator struct{}

// NewTemplateGenerator creates a template-based query generator.
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

func (g *TemplateGenerator) Initial(_ context.Context, company model.Company) ([]model.SearchQuery, error) {
	var out []model.SearchQuery
	for _, c := range model.Categories() {
		for _, tmpl := range categoryTemplates[c] {
			out = append(out, model.SearchQuery{
				Text:     fmt.Sprintf(tmpl, company.Name),
				Category: c,
			})
		}
	}
	if company.Domain != "" {
		out = append(out, model.SearchQuery{
			Text:     fmt.Sprintf("%s site:%s", company.Name, company.Domain),
			Category: model.CategoryCorporate,
		})
	}
	return out, nil
}

func (g *TemplateGenerator) ForGaps(_ context.Context, company model.Company, gaps []model.Gap, iteration int) ([]model.SearchQuery, error) {
	out := make([]model.SearchQuery, 0, maxGapQueries)
	for _, gap := range gaps {
		if len(out) >= maxGapQueries {
			break
		}
		hint, ok := fieldQueryHints[gap.Field]
		if !ok {
			hint = strings.ReplaceAll(gap.Field, "_", " ")
		}
		out = append(out, model.SearchQuery{
			Text:      fmt.Sprintf("%s %s", company.Name, hint),
			Category:  gap.Category,
			Iteration: iteration,
		})
	}
	return out, nil
}

const generatorSystem = "You are a research assistant crafting web search queries about companies. Return only a JSON array of strings, no prose."

const gapQueryPrompt = `Company: %s%s

These research fields are still missing or weakly supported, most important first:
%s

Write up to %d short, specific web search queries that would surface this missing information. Return a JSON array of query strings.`

// LLMGenerator asks an LLM for gap-targeted queries, falling back to the
// deterministic templates whenever the call or its output fails.
type LLMGenerator struct {
	client   anthropic.Client
	model    string
	fallback *TemplateGenerator
	retry    resilience.RetryConfig
}

// NewLLMGenerator creates an Anthropic-backed query generator.
func NewLLMGenerator(client anthropic.Client, modelID string) *LLMGenerator {
	return &LLMGenerator{
		client:   client,
		model:    modelID,
		fallback: NewTemplateGenerator(),
		retry:    retryConfig("query_generation"),
	}
}

// Initial always uses the templates: the first iteration needs broad category
// coverage, not creativity.
func (g *LLMGenerator) Initial(ctx context.Context, company model.Company) ([]model.SearchQuery, error) {
	return g.fallback.Initial(ctx, company)
}

func (g *LLMGenerator) ForGaps(ctx context.Context, company model.Company, gaps []model.Gap, iteration int) ([]model.SearchQuery, error) {
	if len(gaps) == 0 {
		return nil, nil
	}

	queries, err := g.generate(ctx, company, gaps)
	if err != nil {
		zap.L().Warn("extract: llm query generation failed, using templates",
			zap.String("company", company.Name),
			zap.Error(err),
		)
		return g.fallback.ForGaps(ctx, company, gaps, iteration)
	}

	// Category attribution: each generated query inherits the category of
	// the gap it targets, in gap order.
	out := make([]model.SearchQuery, 0, len(queries))
	for i, q := range queries {
		if len(out) >= maxGapQueries {
			break
		}
		cat := gaps[min(i, len(gaps)-1)].Category
		out = append(out, model.SearchQuery{
			Text:      q,
			Category:  cat,
			Iteration: iteration,
		})
	}
	return out, nil
}

func (g *LLMGenerator) generate(ctx context.Context, company model.Company, gaps []model.Gap) ([]string, error) {
	var fieldLines strings.Builder
	for _, gap := range gaps {
		fmt.Fprintf(&fieldLines, "- %s (%s)\n", gap.Field, gap.Category)
	}

	location := ""
	if company.Location != "" {
		location = "\nLocation: " + company.Location
	}

	req := anthropic.MessageRequest{
		Model:     g.model,
		MaxTokens: 1024,
		System:    generatorSystem,
		Messages: []anthropic.Message{{
			Role:    "user",
			Content: fmt.Sprintf(gapQueryPrompt, company.Name, location, fieldLines.String(), maxGapQueries),
		}},
	}
	resp, err := resilience.DoVal(ctx, g.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return g.client.CreateMessage(ctx, req)
	})
	if err != nil {
		return nil, eris.Wrap(err, "extract: generate queries")
	}
	resp.Usage.LogCost(g.model, "query_generation")

	var queries []string
	if err := json.Unmarshal([]byte(extractJSON(resp.Text())), &queries); err != nil {
		return nil, eris.Wrap(err, "extract: parse generated queries")
	}

	out := queries[:0]
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q != "" {
			out = append(out, q)
		}
	}
	if len(out) == 0 {
		return nil, eris.New("extract: llm returned no queries")
	}
	return out, nil
}

// extractJSON strips surrounding prose or markdown fences from an LLM reply,
// returning the first top-level JSON array or object.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
		s = strings.TrimPrefix(s, "json")
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
	}
	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return s
	}
	closing := byte(']')
	if s[start] == '{' {
		closing = '}'
	}
	if end := strings.LastIndexByte(s, closing); end > start {
		return s[start : end+1]
	}
	return s[start:]
}
