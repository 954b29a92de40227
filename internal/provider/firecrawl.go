package provider

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/research-engine/internal/model"
	"github.com/sells-group/research-engine/pkg/firecrawl"
)

// FirecrawlProvider adapts Firecrawl search to the SearchProvider interface.
type FirecrawlProvider struct {
	client  firecrawl.Client
	cost    float64
	timeout time.Duration
	limit   int
	nowFunc func() time.Time
}

// NewFirecrawl creates a Firecrawl search provider.
func NewFirecrawl(client firecrawl.Client, costPerQuery float64) *FirecrawlProvider {
	return &FirecrawlProvider{
		client:  client,
		cost:    costPerQuery,
		timeout: 30 * time.Second,
		limit:   10,
		nowFunc: time.Now,
	}
}

func (p *FirecrawlProvider) Name() string           { return "firecrawl" }
func (p *FirecrawlProvider) Tier() model.CostTier   { return model.TierStandard }
func (p *FirecrawlProvider) CostPerQuery() float64  { return p.cost }
func (p *FirecrawlProvider) Timeout() time.Duration { return p.timeout }

func (p *FirecrawlProvider) Search(ctx context.Context, query model.SearchQuery) ([]model.SearchResult, error) {
	resp, err := p.client.Search(ctx, firecrawl.SearchRequest{
		Query: query.Text,
		Limit: p.limit,
	})
	if err != nil {
		var se *firecrawl.StatusError
		if errors.As(err, &se) {
			return nil, classifyStatus(se.Code, se)
		}
		return nil, eris.Wrap(err, "provider: firecrawl search")
	}

	now := p.nowFunc()
	results := make([]model.SearchResult, 0, len(resp.Data.Web))
	for i, item := range resp.Data.Web {
		results = append(results, model.SearchResult{
			URL:       item.URL,
			Title:     item.Title,
			Snippet:   item.Description,
			Score:     rankScore(i),
			Provider:  p.Name(),
			Query:     query.Text,
			FetchedAt: now,
		})
	}
	return results, nil
}
