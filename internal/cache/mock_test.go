package cache

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/research-engine/internal/model"
	"github.com/sells-group/research-engine/internal/store"
)

// mockStore implements store.Store for cache tests.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateRun(ctx context.Context, company model.Company) (*model.Run, error) {
	args := m.Called(ctx, company)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	return m.Called(ctx, runID, status).Error(0)
}

func (m *mockStore) UpdateRunResult(ctx context.Context, runID string, result *model.FinalResult) error {
	return m.Called(ctx, runID, result).Error(0)
}

func (m *mockStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Run), args.Error(1)
}

func (m *mockStore) GetCachedSearch(ctx context.Context, key string) (*store.CachedSearch, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.CachedSearch), args.Error(1)
}

func (m *mockStore) PutCachedSearch(ctx context.Context, key string, results []model.SearchResult, ttl time.Duration) error {
	return m.Called(ctx, key, results, ttl).Error(0)
}

func (m *mockStore) PurgeExpiredSearches(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}
