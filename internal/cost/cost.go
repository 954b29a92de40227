// Package cost tracks per-query search spend against a run budget.
package cost

import (
	"sync"

	"github.com/sells-group/research-engine/internal/model"
)

// TierRates holds the flat per-query price for each provider cost tier.
type TierRates struct {
	Free     float64 `yaml:"free" mapstructure:"free"`
	Cheap    float64 `yaml:"cheap" mapstructure:"cheap"`
	Standard float64 `yaml:"standard" mapstructure:"standard"`
	Premium  float64 `yaml:"premium" mapstructure:"premium"`
}

// DefaultRates returns the default per-query pricing by tier.
func DefaultRates() TierRates {
	return TierRates{
		Free:     0,
		Cheap:    0.005,
		Standard: 0.01,
		Premium:  0.03,
	}
}

// ForTier returns the per-query rate for the given tier.
func (r TierRates) ForTier(t model.CostTier) float64 {
	switch t {
	case model.TierFree:
		return r.Free
	case model.TierCheap:
		return r.Cheap
	case model.TierStandard:
		return r.Standard
	case model.TierPremium:
		return r.Premium
	default:
		return 0
	}
}

// Ledger accumulates spend for a single research run. It is safe for
// concurrent use by query workers.
type Ledger struct {
	mu       sync.Mutex
	rates    TierRates
	spentUSD float64
	byTier   map[model.CostTier]float64
	queries  int
}

// NewLedger creates a ledger with the given rates.
func NewLedger(rates TierRates) *Ledger {
	return &Ledger{
		rates:  rates,
		byTier: make(map[model.CostTier]float64),
	}
}

// Rates returns the rates the ledger charges with.
func (l *Ledger) Rates() TierRates {
	return l.rates
}

// Charge records one query against the given tier and returns its cost.
func (l *Ledger) Charge(t model.CostTier) float64 {
	c := l.rates.ForTier(t)
	l.mu.Lock()
	l.spentUSD += c
	l.byTier[t] += c
	l.queries++
	l.mu.Unlock()
	return c
}

// Add records an externally computed amount (e.g. LLM extraction spend).
func (l *Ledger) Add(usd float64) {
	if usd <= 0 {
		return
	}
	l.mu.Lock()
	l.spentUSD += usd
	l.mu.Unlock()
}

// Spent returns the total accumulated spend in USD.
func (l *Ledger) Spent() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.spentUSD
}

// Queries returns the number of charged queries.
func (l *Ledger) Queries() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.queries
}

// ByTier returns a copy of per-tier spend.
func (l *Ledger) ByTier() map[model.CostTier]float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[model.CostTier]float64, len(l.byTier))
	for k, v := range l.byTier {
		out[k] = v
	}
	return out
}

// ProjectIteration estimates the cost of running queryCount queries at the
// given tiers' worst observed rate. The projection is conservative: it prices
// every query at the most expensive tier in use so a budget check before an
// iteration never under-estimates.
func (l *Ledger) ProjectIteration(queryCount int, tiers []model.CostTier) float64 {
	var maxRate float64
	for _, t := range tiers {
		if r := l.rates.ForTier(t); r > maxRate {
			maxRate = r
		}
	}
	return float64(queryCount) * maxRate
}
