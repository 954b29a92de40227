// Package monitoring summarizes run history into point-in-time metrics.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/research-engine/internal/model"
	"github.com/sells-group/research-engine/internal/store"
)

// MetricsSnapshot holds a point-in-time view of research run health.
type MetricsSnapshot struct {
	RunsTotal    int     `json:"runs_total"`
	RunsComplete int     `json:"runs_complete"`
	RunsFailed   int     `json:"runs_failed"`
	RunsQueued   int     `json:"runs_queued"`
	FailRate     float64 `json:"fail_rate"`

	TotalCostUSD  float64 `json:"total_cost_usd"`
	AvgCostUSD    float64 `json:"avg_cost_usd"`
	AvgComposite  float64 `json:"avg_composite"`
	AvgIterations float64 `json:"avg_iterations"`

	// Decision mix across completed runs.
	Decisions map[model.Decision]int `json:"decisions"`

	CollectedAt time.Time `json:"collected_at"`
}

// Collector gathers metrics from the store.
type Collector struct {
	store store.Store
}

// NewCollector creates a metrics collector.
func NewCollector(st store.Store) *Collector {
	return &Collector{store: st}
}

// Collect summarizes the most recent runs (up to limit).
func (c *Collector) Collect(ctx context.Context, limit int) (*MetricsSnapshot, error) {
	if limit <= 0 {
		limit = 1000
	}

	runs, err := c.store.ListRuns(ctx, store.RunFilter{Limit: limit})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	snap := &MetricsSnapshot{
		RunsTotal:   len(runs),
		Decisions:   make(map[model.Decision]int),
		CollectedAt: time.Now().UTC(),
	}

	var totalComposite float64
	var totalIterations int
	var resultRuns int

	for _, r := range runs {
		switch r.Status {
		case model.RunStatusComplete:
			snap.RunsComplete++
		case model.RunStatusFailed:
			snap.RunsFailed++
		case model.RunStatusQueued:
			snap.RunsQueued++
		}
		if r.Result != nil {
			resultRuns++
			snap.TotalCostUSD += r.Result.TotalCostUSD
			totalComposite += r.Result.Report.Composite
			totalIterations += r.Result.Iterations
			snap.Decisions[r.Result.Decision]++
		}
	}

	if finished := snap.RunsComplete + snap.RunsFailed; finished > 0 {
		snap.FailRate = float64(snap.RunsFailed) / float64(finished)
	}
	if resultRuns > 0 {
		snap.AvgCostUSD = snap.TotalCostUSD / float64(resultRuns)
		snap.AvgComposite = totalComposite / float64(resultRuns)
		snap.AvgIterations = float64(totalIterations) / float64(resultRuns)
	}

	return snap, nil
}
