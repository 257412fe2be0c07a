package storage

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"can-dashboard/src/helpers"
	"can-dashboard/src/logger"
	"can-dashboard/src/models"

	_ "modernc.org/sqlite"
)

// SQLite batch constants
const (
	sqliteMaxVars   = 32000
	paramsPerRow    = 3
	sqliteBatchSize = sqliteMaxVars / paramsPerRow

	// Writer queue depth. The dispatch loop never blocks on storage:
	// batches are dropped when the queue is full.
	writeQueueSize = 256

	// Retry budgets for the error handler. The writer retries a failed
	// batch once before dropping it; init gets one extra attempt.
	dbInitRetries = 2
	dbSaveRetries = 2
)

// -----------------------------------------------------------------------------

type AsyncSQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger

	errors      *helpers.ErrorHandler
	initRetries int

	writeQueue chan []models.MSignalSample
	done       chan struct{}
	closeOnce  sync.Once
}

// -----------------------------------------------------------------------------

func NewAsyncSQLiteDB(cfg *models.MConfig, log *logger.Logger) (*AsyncSQLiteDB, error) {
	return &AsyncSQLiteDB{
		Config:      cfg,
		Logger:      log,
		errors:      helpers.NewErrorHandler(),
		initRetries: dbInitRetries,
		writeQueue:  make(chan []models.MSignalSample, writeQueueSize),
		done:        make(chan struct{}),
	}, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Initialize() error {
	dsn := d.Config.Storage.DBPath

	// Open and ping through the error handler so failures come back
	// categorized and init survives a transient lock
	res, err := d.errors.ExecuteWithRetry("database initialize", func() (interface{}, error) {
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, err
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	}, d.initRetries)
	if err != nil {
		return err
	}

	d.DB = res.(*sql.DB)

	// PRAGMA optimizations
	if _, err := d.DB.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := d.DB.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	if err := d.recreateTables(); err != nil {
		return err
	}

	// Background writer drains the queue so callers never block on disk
	go d.writerLoop()

	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) recreateTables() error {
	// Drop signal_samples
	if _, err := d.DB.Exec("DROP TABLE IF EXISTS signal_samples"); err != nil {
		return fmt.Errorf("failed to drop signal_samples: %w", err)
	}

	// Create signal_samples
	// SQLite types: INTEGER for int64, REAL for float64, TEXT for string
	query := `
		CREATE TABLE signal_samples (
			signal TEXT,
			timestamp INTEGER,
			value REAL,
			PRIMARY KEY (signal, timestamp)
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create signal_samples: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

// SaveSignalSamplesBulk enqueues a batch for the background writer. It never
// blocks: when the queue is full the batch is dropped and a warning logged.
func (d *AsyncSQLiteDB) SaveSignalSamplesBulk(samples []models.MSignalSample) error {
	if len(samples) == 0 {
		return nil
	}

	batch := make([]models.MSignalSample, len(samples))
	copy(batch, samples)

	select {
	case d.writeQueue <- batch:
		return nil
	default:
		d.Logger.Warning("Storage write queue full, dropping %d samples", len(batch))
		return nil
	}
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) writerLoop() {
	for {
		select {
		case batch := <-d.writeQueue:
			d.persist(batch)
		case <-d.done:
			// Flush whatever is still queued before exit
			for {
				select {
				case batch := <-d.writeQueue:
					d.persist(batch)
				default:
					return
				}
			}
		}
	}
}

// -----------------------------------------------------------------------------

// persist writes one batch through the error handler, which retries once
// before the batch is dropped.
func (d *AsyncSQLiteDB) persist(batch []models.MSignalSample) {
	_, err := d.errors.ExecuteWithRetry("database save", func() (interface{}, error) {
		return nil, d.insertBatch(batch)
	}, dbSaveRetries)
	if err != nil {
		d.Logger.Error("Dropping %d samples: %v", len(batch), err)
	}
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) insertBatch(samples []models.MSignalSample) error {
	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO signal_samples (signal, timestamp, value)
		VALUES (?, ?, ?)
		ON CONFLICT (signal, timestamp) DO UPDATE SET value = excluded.value
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range samples {
		_, err := stmt.Exec(s.Signal, s.Timestamp, s.Value)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) CleanupOldData() error {
	retentionHours := d.Config.Storage.RetentionHours
	cutoff := time.Now().UTC().Add(-time.Duration(retentionHours) * time.Hour).UnixMilli()

	d.Logger.Info("Cleaning up samples older than %d hours (timestamp < %d)...", retentionHours, cutoff)

	if _, err := d.DB.Exec("DELETE FROM signal_samples WHERE timestamp < ?", cutoff); err != nil {
		d.Logger.Error("Cleanup signal_samples error: %v", err)
		return err
	}

	d.Logger.Info("Cleanup completed")
	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Close() error {
	d.closeOnce.Do(func() {
		close(d.done)
	})
	// Give the writer a moment to flush pending batches
	time.Sleep(100 * time.Millisecond)

	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
