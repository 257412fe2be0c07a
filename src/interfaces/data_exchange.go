package interfaces

import "can-dashboard/src/models"

// -----------------------------------------------------------------------------
// IDataExchanger defines the interface for sharing widget state with the
// rendering layer (dashboard server / push).
// -----------------------------------------------------------------------------

type IDataExchanger interface {
	// -----------------------------------------------------------------------------
	// Broadcast pushes a state delta to external listeners.
	Broadcast(payload *models.MLatestData)

	// -----------------------------------------------------------------------------
	// UpdateAllDatas merges a delta into the internal state without broadcasting
	UpdateAllDatas(payload *models.MLatestData)

	// -----------------------------------------------------------------------------
	// Start the server
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}
