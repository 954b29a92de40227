package provider

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/research-engine/internal/model"
	"github.com/sells-group/research-engine/pkg/jina"
)

// JinaProvider adapts Jina AI Search to the SearchProvider interface.
type JinaProvider struct {
	client  jina.Client
	cost    float64
	timeout time.Duration
	nowFunc func() time.Time
}

// NewJina creates a Jina search provider.
func NewJina(client jina.Client, costPerQuery float64) *JinaProvider {
	return &JinaProvider{
		client:  client,
		cost:    costPerQuery,
		timeout: 20 * time.Second,
		nowFunc: time.Now,
	}
}

func (p *JinaProvider) Name() string           { return "jina" }
func (p *JinaProvider) Tier() model.CostTier   { return model.TierCheap }
func (p *JinaProvider) CostPerQuery() float64  { return p.cost }
func (p *JinaProvider) Timeout() time.Duration { return p.timeout }

func (p *JinaProvider) Search(ctx context.Context, query model.SearchQuery) ([]model.SearchResult, error) {
	resp, err := p.client.Search(ctx, query.Text)
	if err != nil {
		var se *jina.StatusError
		if errors.As(err, &se) {
			return nil, classifyStatus(se.Code, se)
		}
		return nil, eris.Wrap(err, "provider: jina search")
	}

	now := p.nowFunc()
	results := make([]model.SearchResult, 0, len(resp.Data))
	for i, item := range resp.Data {
		snippet := item.Description
		if snippet == "" {
			snippet = item.Content
		}
		r := model.SearchResult{
			URL:       item.URL,
			Title:     item.Title,
			Snippet:   snippet,
			Score:     rankScore(i),
			Provider:  p.Name(),
			Query:     query.Text,
			FetchedAt: now,
		}
		if item.Date != "" {
			if t, err := time.Parse("2006-01-02", item.Date); err == nil {
				r.PublishedAt = &t
			}
		}
		results = append(results, r)
	}
	return results, nil
}
