// Package store persists research runs and the search result cache behind a
// single interface with SQLite and Postgres backends.
package store

import (
	"context"
	"time"

	"github.com/sells-group/research-engine/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status      model.RunStatus `json:"status,omitempty"`
	CompanyName string          `json:"company_name,omitempty"`
	Limit       int             `json:"limit,omitempty"`
	Offset      int             `json:"offset,omitempty"`
}

// CachedSearch is one cached query result set.
type CachedSearch struct {
	Key       string               `json:"key"`
	Results   []model.SearchResult `json:"results"`
	FetchedAt time.Time            `json:"fetched_at"`
	ExpiresAt time.Time            `json:"expires_at"`
}

// Store defines the persistence interface for the research engine.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, company model.Company) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunResult(ctx context.Context, runID string, result *model.FinalResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Search cache. GetCachedSearch returns (nil, nil) on a miss or when the
	// entry has expired; PutCachedSearch overwrites any existing entry for
	// the key.
	GetCachedSearch(ctx context.Context, key string) (*CachedSearch, error)
	PutCachedSearch(ctx context.Context, key string, results []model.SearchResult, ttl time.Duration) error
	PurgeExpiredSearches(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
