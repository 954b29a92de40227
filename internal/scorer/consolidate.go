// Package scorer consolidates raw search results into scored, deduplicated
// source records.
package scorer

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/research-engine/internal/model"
)

// Scoring weights. Composite = rawWeight × best provider score + a fixed
// bonus by authority tier + a recency bonus when a publication date exists.
const (
	rawWeight = 0.6

	recencyFreshBonus  = 0.10 // published within the last year
	recencyRecentBonus = 0.05 // published within the last three years

	freshWindow  = 365 * 24 * time.Hour
	recentWindow = 3 * 365 * 24 * time.Hour
)

var authorityBonus = map[model.AuthorityTier]float64{
	model.AuthorityOfficial:   0.30,
	model.AuthorityPress:      0.20,
	model.AuthorityGeneral:    0.10,
	model.AuthorityUnverified: 0,
}

// Consolidator merges and scores search results.
type Consolidator struct {
	nowFunc func() time.Time
}

// NewConsolidator creates a Consolidator.
func NewConsolidator() *Consolidator {
	return &Consolidator{nowFunc: time.Now}
}

// WithNow overrides the clock, for tests.
func (c *Consolidator) WithNow(now func() time.Time) *Consolidator {
	c.nowFunc = now
	return c
}

// Consolidate deduplicates results by canonical URL, merges provider
// attributions, scores each record, and returns records ordered by score
// descending with deterministic tie-breaking (authority tier, then first-seen
// input order). Results with unparseable URLs are dropped and logged.
func (c *Consolidator) Consolidate(results []model.SearchResult) []model.SourceRecord {
	type entry struct {
		rec       model.SourceRecord
		firstSeen int
		queries   map[string]bool
		providers map[string]bool
	}

	byURL := make(map[string]*entry)
	order := make([]string, 0, len(results))

	for i, r := range results {
		canonical, err := CanonicalURL(r.URL)
		if err != nil {
			zap.L().Debug("scorer: dropping result with bad url",
				zap.String("url", r.URL),
				zap.Error(err),
			)
			continue
		}

		e, ok := byURL[canonical]
		if !ok {
			domain := Domain(canonical)
			e = &entry{
				rec: model.SourceRecord{
					URL:       canonical,
					Domain:    domain,
					Title:     r.Title,
					Snippet:   r.Snippet,
					Authority: ClassifyAuthority(domain),
				},
				firstSeen: i,
				queries:   make(map[string]bool),
				providers: make(map[string]bool),
			}
			byURL[canonical] = e
			order = append(order, canonical)
		}

		if r.Score > e.rec.BestRaw {
			e.rec.BestRaw = r.Score
			// The highest-scored sighting also supplies the display text.
			if r.Title != "" {
				e.rec.Title = r.Title
			}
			if r.Snippet != "" {
				e.rec.Snippet = r.Snippet
			}
		}
		if r.PublishedAt != nil {
			if e.rec.PublishedAt == nil || r.PublishedAt.After(*e.rec.PublishedAt) {
				e.rec.PublishedAt = r.PublishedAt
			}
		}
		e.queries[r.Query] = true
		e.providers[r.Provider] = true
	}

	now := c.nowFunc()
	records := make([]model.SourceRecord, 0, len(byURL))
	firstSeen := make(map[string]int, len(byURL))
	for _, canonical := range order {
		e := byURL[canonical]
		e.rec.Queries = sortedKeys(e.queries)
		e.rec.Providers = sortedKeys(e.providers)
		e.rec.Score = c.score(e.rec, now)
		firstSeen[e.rec.URL] = e.firstSeen
		records = append(records, e.rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Authority != b.Authority {
			return a.Authority > b.Authority
		}
		return firstSeen[a.URL] < firstSeen[b.URL]
	})

	return records
}

func (c *Consolidator) score(rec model.SourceRecord, now time.Time) float64 {
	s := rawWeight*rec.BestRaw + authorityBonus[rec.Authority]
	if rec.PublishedAt != nil {
		age := now.Sub(*rec.PublishedAt)
		switch {
		case age <= freshWindow:
			s += recencyFreshBonus
		case age <= recentWindow:
			s += recencyRecentBonus
		}
	}
	return s
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
