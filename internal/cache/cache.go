// Package cache provides the normalized, TTL-bounded search result cache.
// Caching is best-effort: store failures degrade silently to a miss or a
// dropped write, logged but never propagated.
package cache

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/research-engine/internal/model"
	"github.com/sells-group/research-engine/internal/store"
)

// DefaultTTL is the cache lifetime applied when config does not override it.
const DefaultTTL = 30 * 24 * time.Hour

// NormalizeQuery produces the deterministic cache key for a query string:
// NFC unicode normalization, lowercasing, whitespace collapsing, and stable
// ordering of search operator tokens (site:, filetype:, ...) so semantically
// identical queries hit the same entry.
func NormalizeQuery(q string) string {
	q = norm.NFC.String(q)
	q = strings.ToLower(q)

	fields := strings.Fields(q)
	var words, operators []string
	for _, f := range fields {
		if isOperator(f) {
			operators = append(operators, f)
		} else {
			words = append(words, f)
		}
	}

	// Operators are order-insensitive; sort them to a stable tail.
	sort.Strings(operators)

	return strings.Join(append(words, operators...), " ")
}

// isOperator reports whether a token is a key:value search operator rather
// than a quoted phrase fragment or plain word.
func isOperator(tok string) bool {
	i := strings.Index(tok, ":")
	return i > 0 && i < len(tok)-1 && !strings.ContainsAny(tok[:i], "\"'")
}

// Cache wraps the store's search cache with normalization and best-effort
// semantics.
type Cache struct {
	store store.Store
	ttl   time.Duration
}

// New creates a cache over the given store with the given TTL.
func New(st store.Store, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: st, ttl: ttl}
}

// Get returns the cached results for the query, or (nil, false) on a miss,
// an expired entry, or a store failure.
func (c *Cache) Get(ctx context.Context, query string) ([]model.SearchResult, bool) {
	key := NormalizeQuery(query)
	cs, err := c.store.GetCachedSearch(ctx, key)
	if err != nil {
		zap.L().Warn("cache: read failed, treating as miss",
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, false
	}
	if cs == nil || len(cs.Results) == 0 {
		return nil, false
	}
	return cs.Results, true
}

// Put stores results under the normalized query key. Failures are logged
// and dropped — a cache-store failure must never fail the surrounding query.
func (c *Cache) Put(ctx context.Context, query string, results []model.SearchResult) {
	if len(results) == 0 {
		return
	}
	key := NormalizeQuery(query)
	if err := c.store.PutCachedSearch(ctx, key, results, c.ttl); err != nil {
		zap.L().Warn("cache: write failed, skipping",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
