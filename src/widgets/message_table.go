package widgets

import (
	"sync"

	"can-dashboard/src/models"
)

// -----------------------------------------------------------------------------
// MessageTable keeps the most recent raw and decoded broker messages for the
// message inspector view. Bounded like the plot history: the oldest row is
// dropped once the table is full.
//
// Unlike the pending buffer, the table is also read by the HTTP layer, so
// access is locked.
// -----------------------------------------------------------------------------

type MessageTable struct {
	mu   sync.Mutex
	rows []models.MDecodedMessage
	cap  int
}

// -----------------------------------------------------------------------------

// NewMessageTable creates a table bounded at maxRows
func NewMessageTable(maxRows int) *MessageTable {
	if maxRows <= 0 {
		maxRows = 1
	}
	return &MessageTable{
		rows: make([]models.MDecodedMessage, 0, maxRows),
		cap:  maxRows,
	}
}

// -----------------------------------------------------------------------------

// Add appends a message, evicting the oldest row when full
func (t *MessageTable) Add(msg models.MDecodedMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.rows) == t.cap {
		copy(t.rows, t.rows[1:])
		t.rows = t.rows[:t.cap-1]
	}
	t.rows = append(t.rows, msg)
}

// -----------------------------------------------------------------------------

// Rows returns a copy of the retained messages, oldest first
func (t *MessageTable) Rows() []models.MDecodedMessage {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]models.MDecodedMessage, len(t.rows))
	copy(out, t.rows)
	return out
}

// -----------------------------------------------------------------------------

// Len returns the current number of rows
func (t *MessageTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rows)
}

// -----------------------------------------------------------------------------

// Cap returns the table bound
func (t *MessageTable) Cap() int {
	return t.cap
}
