package interfaces

import "can-dashboard/src/models"

// -----------------------------------------------------------------------------
// IDatabase defines the contract for the flushed-sample archive.
// -----------------------------------------------------------------------------

type IDatabase interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveSignalSamplesBulk queues a batch of flushed samples for insertion.
	// Must never block the caller; implementations write asynchronously and
	// may drop batches when their queue is full.
	SaveSignalSamplesBulk(samples []models.MSignalSample) error

	// -----------------------------------------------------------------------------

	// CleanupOldData removes samples older than the retention policy.
	CleanupOldData() error

	// -----------------------------------------------------------------------------

	// Close flushes pending writes and closes the connection
	Close() error
}
