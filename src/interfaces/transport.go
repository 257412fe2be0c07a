package interfaces

import (
	"context"

	"can-dashboard/src/models"
)

// -----------------------------------------------------------------------------
// ITransport is the inbound pub/sub feed of broker messages.
// -----------------------------------------------------------------------------

type ITransport interface {

	// -----------------------------------------------------------------------------

	// Start begins consuming from the broker. The consumer stops when ctx is
	// cancelled.
	Start(ctx context.Context) error

	// -----------------------------------------------------------------------------

	// TryReceive returns the next available message without blocking.
	// ok is false when no message is waiting this instant. A non-nil error
	// means one malformed message was received and dropped; the caller may
	// keep polling.
	TryReceive() (msg *models.MDecodedMessage, ok bool, err error)

	// -----------------------------------------------------------------------------

	// Close tears down the broker connection
	Close() error
}

// -----------------------------------------------------------------------------
// ICommander is the command channel back to the CAN backend (request/reply).
// -----------------------------------------------------------------------------

type ICommander interface {

	// -----------------------------------------------------------------------------

	// Send publishes a command and waits for the backend's reply.
	Send(ctx context.Context, command string, args map[string]interface{}) (*models.MCommandResponse, error)

	// -----------------------------------------------------------------------------

	// Close releases the command channel
	Close() error
}
