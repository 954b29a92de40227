package model

import "time"

// RunStatus tracks a research run through its lifecycle.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusSearching RunStatus = "searching"
	RunStatusComplete  RunStatus = "complete"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one persisted research run.
type Run struct {
	ID        string       `json:"id"`
	Company   Company      `json:"company"`
	Status    RunStatus    `json:"status"`
	Result    *FinalResult `json:"result,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
