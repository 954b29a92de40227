package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/research-engine/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_CreateRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), string(model.RunStatusQueued), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := s.CreateRun(context.Background(), model.Company{Name: "Acme Corp"})
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusQueued, run.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, company, status, result, created_at, updated_at FROM runs WHERE id = \$1`).
		WithArgs("nonexistent-run").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nonexistent-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get run")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{"id", "company", "status", "result", "created_at", "updated_at"}).
		AddRow("run-1", []byte(`{"name":"Acme Corp"}`), "complete",
			[]byte(`{"decision":"STOP_QUALITY_MET","iterations":2}`), now, now)

	mock.ExpectQuery(`SELECT id, company, status, result, created_at, updated_at FROM runs WHERE id = \$1`).
		WithArgs("run-1").
		WillReturnRows(rows)

	run, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", run.Company.Name)
	require.NotNil(t, run.Result)
	assert.Equal(t, model.DecisionStopQualityMet, run.Result.Decision)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateRunStatus_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET status`).
		WithArgs("failed", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateRunStatus(context.Background(), "missing", model.RunStatusFailed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateRunResult(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET result`).
		WithArgs(pgxmock.AnyArg(), string(model.RunStatusComplete), pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateRunResult(context.Background(), "run-1", &model.FinalResult{
		Decision:   model.DecisionStopQualityMet,
		Iterations: 3,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns_StatusFilter(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{"id", "company", "status", "result", "created_at", "updated_at"}).
		AddRow("run-1", []byte(`{"name":"Acme Corp"}`), "failed", []byte(nil), now, now)

	mock.ExpectQuery(`SELECT id, company, status, result, created_at, updated_at FROM runs WHERE 1=1 AND status = \$1`).
		WithArgs("failed", 100).
		WillReturnRows(rows)

	runs, err := s.ListRuns(context.Background(), RunFilter{Status: model.RunStatusFailed})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "Acme Corp", runs[0].Company.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCachedSearch_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT query_key, results, fetched_at, expires_at FROM search_cache`).
		WithArgs("unknown query").
		WillReturnError(pgx.ErrNoRows)

	result, err := s.GetCachedSearch(context.Background(), "unknown query")
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCachedSearch(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{"query_key", "results", "fetched_at", "expires_at"}).
		AddRow("acme corp", []byte(`[{"url":"https://example.com","title":"Acme"}]`), now, now.Add(time.Hour))

	mock.ExpectQuery(`SELECT query_key, results, fetched_at, expires_at FROM search_cache`).
		WithArgs("acme corp").
		WillReturnRows(rows)

	cs, err := s.GetCachedSearch(context.Background(), "acme corp")
	require.NoError(t, err)
	require.NotNil(t, cs)
	require.Len(t, cs.Results, 1)
	assert.Equal(t, "https://example.com", cs.Results[0].URL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PutCachedSearch_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`ON CONFLICT`).
		WithArgs("acme corp", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.PutCachedSearch(context.Background(), "acme corp",
		[]model.SearchResult{{URL: "https://example.com"}}, 24*time.Hour)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PurgeExpiredSearches(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM search_cache`).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := s.PurgeExpiredSearches(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
