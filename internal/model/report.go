package model

// Decision is the quality gate outcome for one iteration. CONTINUE is the
// only non-terminal state.
type Decision string

const (
	DecisionContinue         Decision = "CONTINUE"
	DecisionStopQualityMet   Decision = "STOP_QUALITY_MET"
	DecisionStopIterationCap Decision = "STOP_ITERATION_CAP"
	DecisionStopCostCap      Decision = "STOP_COST_CAP"
)

// Terminal reports whether the decision ends the research loop.
func (d Decision) Terminal() bool {
	return d != DecisionContinue
}

// Gap is a required field below acceptable confidence. Gaps drive the next
// iteration's query generation.
type Gap struct {
	Field      string     `json:"field"`
	Category   Category   `json:"category"`
	Confidence Confidence `json:"confidence"`
	Weight     int        `json:"weight"`
}

// QualityReport is an immutable snapshot of dataset quality for one iteration.
type QualityReport struct {
	Iteration      int                  `json:"iteration"`
	Composite      float64              `json:"composite"`
	CategoryScores map[Category]float64 `json:"category_scores"`
	Gaps           []Gap                `json:"gaps"`
}

// IterationState is the only mutable aggregate root, owned exclusively by the
// iteration controller.
type IterationState struct {
	Current  int             `json:"current"`
	Max      int             `json:"max"`
	SpentUSD float64         `json:"spent_usd"`
	Reports  []QualityReport `json:"reports"`
	Done     bool            `json:"done"`
}

// FinalResult is the complete outcome of a research run. A run always
// produces one, even when sources are sparse.
type FinalResult struct {
	Company      Company         `json:"company"`
	Sources      []SourceRecord  `json:"sources"`
	Facts        []ExtractedFact `json:"facts"`
	Report       QualityReport   `json:"report"`
	Iterations   int             `json:"iterations"`
	Decision     Decision        `json:"decision"`
	TotalCostUSD float64         `json:"total_cost_usd"`
	// CostByTier breaks search spend down per provider cost tier; LLM
	// extraction spend appears only in TotalCostUSD.
	CostByTier    map[CostTier]float64 `json:"cost_by_tier,omitempty"`
	SearchQueries int                  `json:"search_queries"`
}
