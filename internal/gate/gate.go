// Package gate scores dataset quality per iteration and decides whether the
// research loop continues.
package gate

import (
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/research-engine/internal/model"
)

// DefaultQualityThreshold is the composite score at which research stops.
const DefaultQualityThreshold = 85.0

// DefaultCategoryWeights assigns fixed importance to each information
// category. Weights sum to 100.
func DefaultCategoryWeights() map[model.Category]int {
	return map[model.Category]int{
		model.CategoryCorporate:  25,
		model.CategoryFinancials: 25,
		model.CategoryLeadership: 15,
		model.CategoryProducts:   15,
		model.CategoryMarket:     12,
		model.CategoryLegal:      8,
	}
}

// Gate evaluates field coverage and drives the stop/continue decision.
type Gate struct {
	weights   map[model.Category]int
	threshold float64
}

// New creates a gate with the given category weights and quality threshold.
// Weights must cover every category and sum to 100.
func New(weights map[model.Category]int, threshold float64) (*Gate, error) {
	sum := 0
	for _, c := range model.Categories() {
		w, ok := weights[c]
		if !ok {
			return nil, eris.Errorf("gate: missing weight for category %q", c)
		}
		if w < 0 {
			return nil, eris.Errorf("gate: negative weight for category %q", c)
		}
		sum += w
	}
	if sum != 100 {
		return nil, eris.Errorf("gate: category weights sum to %d, want 100", sum)
	}
	if threshold <= 0 || threshold > 100 {
		return nil, eris.Errorf("gate: quality threshold %.1f out of range (0, 100]", threshold)
	}
	return &Gate{weights: weights, threshold: threshold}, nil
}

// Evaluate computes the composite quality score and the outstanding gaps from
// the iteration's field coverage. Completeness is derived purely from
// coverage grades; no model-reported confidence enters the score. Categories
// with no schema fields are excluded and the remaining weights renormalized,
// so a partial schema cannot inflate the composite with free credit.
func (g *Gate) Evaluate(coverage []model.FieldCoverage, iteration int) model.QualityReport {
	total := make(map[model.Category]int)
	covered := make(map[model.Category]int)
	var gaps []model.Gap

	for _, fc := range coverage {
		total[fc.Category]++
		if fc.Covered() {
			covered[fc.Category]++
		} else {
			gaps = append(gaps, model.Gap{
				Field:      fc.Field,
				Category:   fc.Category,
				Confidence: fc.Confidence,
				Weight:     g.weights[fc.Category],
			})
		}
	}

	weightSum := 0
	for _, c := range model.Categories() {
		if total[c] > 0 {
			weightSum += g.weights[c]
		}
	}

	scores := make(map[model.Category]float64, len(total))
	composite := 0.0
	for _, c := range model.Categories() {
		if total[c] == 0 {
			continue
		}
		pct := 100.0 * float64(covered[c]) / float64(total[c])
		scores[c] = pct
		composite += pct * float64(g.weights[c])
	}
	if weightSum > 0 {
		composite /= float64(weightSum)
	}

	// Highest-impact gaps first; field name breaks ties deterministically.
	sort.SliceStable(gaps, func(i, j int) bool {
		if gaps[i].Weight != gaps[j].Weight {
			return gaps[i].Weight > gaps[j].Weight
		}
		return gaps[i].Field < gaps[j].Field
	})

	return model.QualityReport{
		Iteration:      iteration,
		Composite:      composite,
		CategoryScores: scores,
		Gaps:           gaps,
	}
}

// Decide applies the stop-condition state machine, in strict precedence
// order: quality met, iteration cap, cost cap, then continue.
func (g *Gate) Decide(report model.QualityReport, state model.IterationState, projectedNextUSD, budgetUSD float64) model.Decision {
	switch {
	case report.Composite >= g.threshold:
		return model.DecisionStopQualityMet
	case state.Current >= state.Max:
		return model.DecisionStopIterationCap
	case state.SpentUSD+projectedNextUSD > budgetUSD:
		return model.DecisionStopCostCap
	default:
		return model.DecisionContinue
	}
}

// LogDecision emits the structured per-iteration gate record.
func LogDecision(report model.QualityReport, decision model.Decision, spentUSD float64) {
	zap.L().Info("gate: decision",
		zap.Int("iteration", report.Iteration),
		zap.Float64("composite", report.Composite),
		zap.Int("gaps", len(report.Gaps)),
		zap.String("decision", string(decision)),
		zap.Float64("spent_usd", spentUSD),
	)
}
