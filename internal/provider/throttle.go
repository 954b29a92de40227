package provider

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/research-engine/internal/model"
)

// Throttled wraps a provider with a client-side rate limiter so the engine
// stays under the upstream's documented request ceiling instead of
// discovering it through 429s.
type Throttled struct {
	inner   SearchProvider
	limiter *rate.Limiter
}

// Throttle wraps p with a limiter allowing rps requests per second.
// A non-positive rps returns p unwrapped.
func Throttle(p SearchProvider, rps float64) SearchProvider {
	if rps <= 0 {
		return p
	}
	return &Throttled{
		inner:   p,
		limiter: rate.NewLimiter(rate.Limit(rps), max(int(rps), 1)),
	}
}

func (t *Throttled) Name() string           { return t.inner.Name() }
func (t *Throttled) Tier() model.CostTier   { return t.inner.Tier() }
func (t *Throttled) CostPerQuery() float64  { return t.inner.CostPerQuery() }
func (t *Throttled) Timeout() time.Duration { return t.inner.Timeout() }

func (t *Throttled) Search(ctx context.Context, query model.SearchQuery) ([]model.SearchResult, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "provider: rate limit wait")
	}
	return t.inner.Search(ctx, query)
}
