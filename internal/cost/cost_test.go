package cost

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/research-engine/internal/model"
)

func TestTierRates_ForTier(t *testing.T) {
	t.Parallel()
	r := DefaultRates()

	assert.Zero(t, r.ForTier(model.TierFree))
	assert.InDelta(t, 0.005, r.ForTier(model.TierCheap), 1e-9)
	assert.InDelta(t, 0.01, r.ForTier(model.TierStandard), 1e-9)
	assert.InDelta(t, 0.03, r.ForTier(model.TierPremium), 1e-9)
	assert.Zero(t, r.ForTier(model.CostTier(99)))
}

func TestLedger_Charge(t *testing.T) {
	t.Parallel()
	l := NewLedger(DefaultRates())

	assert.Zero(t, l.Charge(model.TierFree))
	assert.InDelta(t, 0.005, l.Charge(model.TierCheap), 1e-9)
	assert.InDelta(t, 0.03, l.Charge(model.TierPremium), 1e-9)

	assert.InDelta(t, 0.035, l.Spent(), 1e-9)
	assert.Equal(t, 3, l.Queries())

	byTier := l.ByTier()
	assert.InDelta(t, 0.005, byTier[model.TierCheap], 1e-9)
	assert.InDelta(t, 0.03, byTier[model.TierPremium], 1e-9)
}

func TestLedger_Add(t *testing.T) {
	t.Parallel()
	l := NewLedger(DefaultRates())

	l.Add(0.12)
	l.Add(0)
	l.Add(-1)

	assert.InDelta(t, 0.12, l.Spent(), 1e-9)
	assert.Zero(t, l.Queries(), "Add does not count as a query")
}

func TestLedger_ConcurrentCharges(t *testing.T) {
	t.Parallel()
	l := NewLedger(DefaultRates())

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Charge(model.TierCheap)
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, l.Queries())
	assert.InDelta(t, 0.5, l.Spent(), 1e-9)
}

func TestLedger_ProjectIteration(t *testing.T) {
	t.Parallel()
	l := NewLedger(DefaultRates())

	tests := []struct {
		name    string
		queries int
		tiers   []model.CostTier
		want    float64
	}{
		{
			name:    "prices every query at the dearest tier in use",
			queries: 5,
			tiers:   []model.CostTier{model.TierFree, model.TierCheap, model.TierPremium},
			want:    5 * 0.03,
		},
		{
			name:    "free-only cascade projects zero",
			queries: 10,
			tiers:   []model.CostTier{model.TierFree},
			want:    0,
		},
		{
			name:    "no tiers projects zero",
			queries: 5,
			tiers:   nil,
			want:    0,
		},
		{
			name:    "zero queries",
			queries: 0,
			tiers:   []model.CostTier{model.TierPremium},
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, l.ProjectIteration(tt.queries, tt.tiers), 1e-9)
		})
	}
}
