package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/research-engine/internal/model"
	"github.com/sells-group/research-engine/internal/resilience"
	"github.com/sells-group/research-engine/internal/schema"
	"github.com/sells-group/research-engine/pkg/anthropic"
)

// maxExtractionSources caps how many top-ranked sources feed one extraction
// call, keeping the prompt bounded.
const maxExtractionSources = 20

const extractorSystem = "You are a research analyst extracting structured company facts from search result snippets. Return only valid JSON, no prose. Only report facts the snippets actually support, and cite the supporting source URLs."

const extractPrompt = `Company: %s%s

Required fields:
%s

Search result snippets:
%s

For each required field the snippets support, return an object:
{"field": "<field name>", "value": "<concise value>", "source_urls": ["<url>", ...]}

Return a JSON array of these objects. Omit fields the snippets do not support.`

// LLMExtractor extracts facts from source records with an Anthropic model.
type LLMExtractor struct {
	client anthropic.Client
	model  string
	schema schema.Schema
	retry  resilience.RetryConfig
}

// NewLLMExtractor creates an Anthropic-backed extractor for the given schema.
func NewLLMExtractor(client anthropic.Client, modelID string, s schema.Schema) *LLMExtractor {
	return &LLMExtractor{
		client: client,
		model:  modelID,
		schema: s,
		retry:  retryConfig("fact_extraction"),
	}
}

func (e *LLMExtractor) Extract(ctx context.Context, company model.Company, sources []model.SourceRecord) ([]model.ExtractedFact, float64, error) {
	if len(sources) == 0 {
		return nil, 0, nil
	}
	if len(sources) > maxExtractionSources {
		sources = sources[:maxExtractionSources]
	}

	var snippets strings.Builder
	for _, s := range sources {
		fmt.Fprintf(&snippets, "URL: %s\nTitle: %s\n%s\n\n", s.URL, s.Title, s.Snippet)
	}

	var fieldList strings.Builder
	for _, f := range e.schema.Fields {
		fmt.Fprintf(&fieldList, "- %s (%s)\n", f.Name, f.Category)
	}

	location := ""
	if company.Location != "" {
		location = "\nLocation: " + company.Location
	}

	req := anthropic.MessageRequest{
		Model:     e.model,
		MaxTokens: 4096,
		System:    extractorSystem,
		Messages: []anthropic.Message{{
			Role:    "user",
			Content: fmt.Sprintf(extractPrompt, company.Name, location, fieldList.String(), snippets.String()),
		}},
	}
	resp, err := resilience.DoVal(ctx, e.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return e.client.CreateMessage(ctx, req)
	})
	if err != nil {
		return nil, 0, eris.Wrap(err, "extract: create message")
	}
	cost := resp.Usage.EstimateCost(e.model)
	resp.Usage.LogCost(e.model, "fact_extraction")

	var facts []model.ExtractedFact
	if err := json.Unmarshal([]byte(extractJSON(resp.Text())), &facts); err != nil {
		return nil, cost, eris.Wrap(err, "extract: parse facts")
	}

	// Keep only facts that name a schema field and carry a value.
	kept := facts[:0]
	for _, f := range facts {
		if f.Value == "" {
			continue
		}
		if _, ok := e.schema.CategoryOf(f.Field); !ok {
			continue
		}
		kept = append(kept, f)
	}
	return kept, cost, nil
}
