package provider

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/research-engine/internal/model"
	"github.com/sells-group/research-engine/pkg/google"
)

// GoogleProvider adapts Google Programmable Search to the SearchProvider
// interface. It is the engine's free tier.
type GoogleProvider struct {
	client  google.Client
	cost    float64
	timeout time.Duration
	num     int
	nowFunc func() time.Time
}

// NewGoogle creates a Google search provider.
func NewGoogle(client google.Client, costPerQuery float64) *GoogleProvider {
	return &GoogleProvider{
		client:  client,
		cost:    costPerQuery,
		timeout: 10 * time.Second,
		num:     10,
		nowFunc: time.Now,
	}
}

func (p *GoogleProvider) Name() string           { return "google" }
func (p *GoogleProvider) Tier() model.CostTier   { return model.TierFree }
func (p *GoogleProvider) CostPerQuery() float64  { return p.cost }
func (p *GoogleProvider) Timeout() time.Duration { return p.timeout }

func (p *GoogleProvider) Search(ctx context.Context, query model.SearchQuery) ([]model.SearchResult, error) {
	resp, err := p.client.Search(ctx, query.Text, p.num)
	if err != nil {
		var se *google.StatusError
		if errors.As(err, &se) {
			return nil, classifyStatus(se.Code, se)
		}
		return nil, eris.Wrap(err, "provider: google search")
	}

	now := p.nowFunc()
	results := make([]model.SearchResult, 0, len(resp.Items))
	for i, item := range resp.Items {
		r := model.SearchResult{
			URL:       item.Link,
			Title:     item.Title,
			Snippet:   item.Snippet,
			Score:     rankScore(i),
			Provider:  p.Name(),
			Query:     query.Text,
			FetchedAt: now,
		}
		if t, ok := item.PublishedTime(); ok {
			r.PublishedAt = &t
		}
		results = append(results, r)
	}
	return results, nil
}
