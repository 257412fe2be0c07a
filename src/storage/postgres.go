package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"can-dashboard/src/helpers"
	"can-dashboard/src/logger"
	"can-dashboard/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type AsyncPostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger

	errors      *helpers.ErrorHandler
	initRetries int

	writeQueue chan []models.MSignalSample
	done       chan struct{}
	closeOnce  sync.Once
}

// -----------------------------------------------------------------------------

func NewAsyncPostgresDB(cfg *models.MConfig, log *logger.Logger) (*AsyncPostgresDB, error) {
	// Use the executable name as schema so multiple dashboards can share a server
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable name: %w", err)
	}
	name := filepath.Base(exe)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	return &AsyncPostgresDB{
		Config:      cfg,
		Schema:      name,
		Logger:      log,
		errors:      helpers.NewErrorHandler(),
		initRetries: dbInitRetries,
		writeQueue:  make(chan []models.MSignalSample, writeQueueSize),
		done:        make(chan struct{}),
	}, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncPostgresDB) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString

	// Open and ping through the error handler so failures come back
	// categorized and init survives a transient outage
	res, err := d.errors.ExecuteWithRetry("database initialize", func() (interface{}, error) {
		db, err := sql.Open("postgres", dsn)
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

	// Create Schema
	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	if err := d.recreateTables(); err != nil {
		return err
	}

	go d.writerLoop()

	d.Logger.Info("AsyncPostgresDB initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncPostgresDB) recreateTables() error {
	query := fmt.Sprintf(`DROP TABLE IF EXISTS "%s"."signal_samples";`, d.Schema)
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to drop signal_samples: %w", err)
	}

	query = fmt.Sprintf(`
		CREATE TABLE "%s"."signal_samples" (
			signal TEXT,
			timestamp BIGINT,
			value DOUBLE PRECISION,
			PRIMARY KEY (signal, timestamp)
		);
	`, d.Schema)
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create signal_samples: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

// SaveSignalSamplesBulk enqueues a batch for the background writer. It never
// blocks: when the queue is full the batch is dropped and a warning logged.
func (d *AsyncPostgresDB) SaveSignalSamplesBulk(samples []models.MSignalSample) error {
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

func (d *AsyncPostgresDB) writerLoop() {
	for {
		select {
		case batch := <-d.writeQueue:
			d.persist(batch)
		case <-d.done:
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
func (d *AsyncPostgresDB) persist(batch []models.MSignalSample) {
	_, err := d.errors.ExecuteWithRetry("database save", func() (interface{}, error) {
		return nil, d.insertBatch(batch)
	}, dbSaveRetries)
	if err != nil {
		d.Logger.Error("Dropping %d samples: %v", len(batch), err)
	}
}

// -----------------------------------------------------------------------------

func (d *AsyncPostgresDB) insertBatch(samples []models.MSignalSample) error {
	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO "%s"."signal_samples" (signal, timestamp, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (signal, timestamp) DO UPDATE SET value = EXCLUDED.value
	`, d.Schema)
	stmt, err := tx.Prepare(query)
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

func (d *AsyncPostgresDB) CleanupOldData() error {
	retentionHours := d.Config.Storage.RetentionHours
	cutoff := time.Now().UTC().Add(-time.Duration(retentionHours) * time.Hour).UnixMilli()

	d.Logger.Info("Cleaning up samples older than %d hours (timestamp < %d)...", retentionHours, cutoff)

	query := fmt.Sprintf(`DELETE FROM "%s"."signal_samples" WHERE timestamp < $1`, d.Schema)
	if _, err := d.DB.Exec(query, cutoff); err != nil {
		d.Logger.Error("Cleanup signal_samples error: %v", err)
		return err
	}

	d.Logger.Info("Cleanup completed")
	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncPostgresDB) Close() error {
	d.closeOnce.Do(func() {
		close(d.done)
	})
	time.Sleep(100 * time.Millisecond)

	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
