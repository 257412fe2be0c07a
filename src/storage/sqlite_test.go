package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"can-dashboard/src/helpers"
	"can-dashboard/src/logger"
	"can-dashboard/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func testSQLiteDB(t *testing.T) *AsyncSQLiteDB {
	t.Helper()
	cfg := &models.MConfig{
		Storage: models.MStorageConfig{
			Enabled:        true,
			DBType:         "sqlite",
			DBPath:         filepath.Join(t.TempDir(), "test.db"),
			RetentionHours: 1,
		},
	}

	db, err := NewAsyncSQLiteDB(cfg, logger.NewLogger("ERROR", "test"))
	require.NoError(t, err)
	require.NoError(t, db.Initialize())
	t.Cleanup(func() { db.Close() })
	return db
}

func countRows(t *testing.T, db *AsyncSQLiteDB) int {
	t.Helper()
	var n int
	require.NoError(t, db.DB.QueryRow("SELECT COUNT(*) FROM signal_samples").Scan(&n))
	return n
}

// -----------------------------------------------------------------------------

func TestSQLite_InsertBatch(t *testing.T) {
	db := testSQLiteDB(t)

	samples := []models.MSignalSample{
		{Signal: "engine_rpm", Timestamp: 1000, Value: 3000},
		{Signal: "engine_rpm", Timestamp: 2000, Value: 3100},
		{Signal: "coolant_temp", Timestamp: 1000, Value: 85},
	}
	require.NoError(t, db.insertBatch(samples))

	assert.Equal(t, 3, countRows(t, db))

	// Same (signal, timestamp) upserts rather than erroring
	require.NoError(t, db.insertBatch([]models.MSignalSample{
		{Signal: "engine_rpm", Timestamp: 1000, Value: 3333},
	}))
	assert.Equal(t, 3, countRows(t, db))

	var v float64
	require.NoError(t, db.DB.QueryRow(
		"SELECT value FROM signal_samples WHERE signal = 'engine_rpm' AND timestamp = 1000").Scan(&v))
	assert.Equal(t, 3333.0, v)
}

// -----------------------------------------------------------------------------

// The enqueue path must never block the caller, even with no writer draining
// the queue.
func TestSQLite_EnqueueNeverBlocks(t *testing.T) {
	cfg := &models.MConfig{
		Storage: models.MStorageConfig{DBPath: filepath.Join(t.TempDir(), "x.db")},
	}
	db, err := NewAsyncSQLiteDB(cfg, logger.NewLogger("ERROR", "test"))
	require.NoError(t, err)

	batch := []models.MSignalSample{{Signal: "s", Timestamp: 1, Value: 1}}

	done := make(chan struct{})
	go func() {
		// Overfill the queue; excess batches are dropped, not queued
		for i := 0; i < writeQueueSize*2; i++ {
			assert.NoError(t, db.SaveSignalSamplesBulk(batch))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("SaveSignalSamplesBulk blocked on a full queue")
	}

	assert.Len(t, db.writeQueue, writeQueueSize)
}

// -----------------------------------------------------------------------------

func TestSQLite_WriterDrainsQueue(t *testing.T) {
	db := testSQLiteDB(t)

	require.NoError(t, db.SaveSignalSamplesBulk([]models.MSignalSample{
		{Signal: "vehicle_speed", Timestamp: 5000, Value: 72},
	}))

	// The background writer picks the batch up shortly
	deadline := time.Now().Add(2 * time.Second)
	for countRows(t, db) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("writer never persisted the batch")
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, 1, countRows(t, db))
}

// -----------------------------------------------------------------------------

func TestSQLite_CleanupOldData(t *testing.T) {
	db := testSQLiteDB(t)

	old := time.Now().UTC().Add(-48 * time.Hour).UnixMilli()
	fresh := time.Now().UTC().UnixMilli()

	require.NoError(t, db.insertBatch([]models.MSignalSample{
		{Signal: "engine_rpm", Timestamp: old, Value: 1},
		{Signal: "engine_rpm", Timestamp: fresh, Value: 2},
	}))

	require.NoError(t, db.CleanupOldData())
	assert.Equal(t, 1, countRows(t, db))

	var ts int64
	require.NoError(t, db.DB.QueryRow("SELECT timestamp FROM signal_samples").Scan(&ts))
	assert.Equal(t, fresh, ts)
}

// -----------------------------------------------------------------------------

func TestSQLite_EmptyBatchIsNoop(t *testing.T) {
	db := testSQLiteDB(t)
	require.NoError(t, db.SaveSignalSamplesBulk(nil))
	assert.Len(t, db.writeQueue, 0)
}

// -----------------------------------------------------------------------------

func TestSQLite_InitializeFailureIsCategorized(t *testing.T) {
	cfg := &models.MConfig{
		Storage: models.MStorageConfig{
			Enabled: true,
			DBType:  "sqlite",
			DBPath:  filepath.Join(t.TempDir(), "missing", "nested", "test.db"),
		},
	}

	db, err := NewAsyncSQLiteDB(cfg, logger.NewLogger("ERROR", "test"))
	require.NoError(t, err)
	db.initRetries = 1

	err = db.Initialize()
	require.Error(t, err)

	var dbErr *helpers.DatabaseError
	assert.True(t, errors.As(err, &dbErr))
}

// -----------------------------------------------------------------------------

func TestSQLite_PersistWritesThroughHandler(t *testing.T) {
	db := testSQLiteDB(t)
	db.errors.ErrorCount = 3

	db.persist([]models.MSignalSample{{Signal: "engine_rpm", Timestamp: 1000, Value: 1}})

	assert.Equal(t, 1, countRows(t, db))
	// A successful write recovers the handler's error budget
	assert.Equal(t, 2, db.errors.ErrorCount)
}
