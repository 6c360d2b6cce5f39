package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderlab-dev/checkout-runner/pkg/report"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "history.db"), log)
	require.NoError(t, err)
	return store
}

func sampleRun() *Run {
	started := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	finished := started.Add(5 * time.Minute)
	return NewRun([]report.TestResult{
		{TestID: "checkout_001", Success: true, Price: "3,500円", Attempts: 1, Worker: 1, DurationMs: 4000},
		{TestID: "checkout_002", Success: false, Error: "click failed", Attempts: 3, Worker: 2, DurationMs: 9000},
	}, started, finished)
}

func TestNewRunTallies(t *testing.T) {
	run := sampleRun()
	assert.Equal(t, 2, run.Total)
	assert.Equal(t, 1, run.Passed)
	assert.Equal(t, 1, run.Failed)
	require.Len(t, run.Results, 2)
	assert.Equal(t, "3,500円", run.Results[0].Price)
}

func TestRecordAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	run := sampleRun()
	require.NoError(t, store.Record(ctx, run))
	require.NotEqual(t, uuid.Nil, run.ID, "id must be assigned on create")

	got, err := store.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Total)
	require.Len(t, got.Results, 2)
}

func TestGetByIDNotFound(t *testing.T) {
	store := openTestStore(t)
	_, err := store.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestRecentOrdering(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	older := sampleRun()
	newer := sampleRun()
	newer.FinishedAt = newer.FinishedAt.Add(time.Hour)

	require.NoError(t, store.Record(ctx, older))
	require.NoError(t, store.Record(ctx, newer))

	runs, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer.ID, runs[0].ID, "most recent run first")
}

func TestResultsForTest(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, sampleRun()))
	require.NoError(t, store.Record(ctx, sampleRun()))

	results, err := store.ResultsForTest(ctx, "checkout_002", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, "checkout_002", r.TestID)
		assert.False(t, r.Success)
	}
}
