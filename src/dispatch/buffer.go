package dispatch

import (
	"can-dashboard/src/models"
)

// -----------------------------------------------------------------------------
// PendingBuffer decouples arrival rate from render rate. It keeps at most one
// pending sample per signal per destination class; a newer sample simply
// overwrites the older one. No queued history lives at this layer.
//
// All access happens on the dispatch loop goroutine, so no locking.
// -----------------------------------------------------------------------------

// Class tags a pending entry with its destination.
type Class int

const (
	ClassGauge Class = iota
	ClassPlot

	numClasses
)

func (c Class) String() string {
	switch c {
	case ClassGauge:
		return "gauge"
	case ClassPlot:
		return "plot"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------

type PendingBuffer struct {
	entries [numClasses]map[string]models.MSignalSample
}

// -----------------------------------------------------------------------------

func NewPendingBuffer() *PendingBuffer {
	var b PendingBuffer
	for i := range b.entries {
		b.entries[i] = make(map[string]models.MSignalSample)
	}
	return &b
}

// -----------------------------------------------------------------------------

// Put stores the sample as the pending value for its signal, overwriting any
// prior pending value.
func (b *PendingBuffer) Put(class Class, sample models.MSignalSample) {
	b.entries[class][sample.Signal] = sample
}

// -----------------------------------------------------------------------------

// Get returns the pending sample for a signal, if any.
func (b *PendingBuffer) Get(class Class, signal string) (models.MSignalSample, bool) {
	s, ok := b.entries[class][signal]
	return s, ok
}

// -----------------------------------------------------------------------------

// Remove drops the pending entry for a signal.
func (b *PendingBuffer) Remove(class Class, signal string) {
	delete(b.entries[class], signal)
}

// -----------------------------------------------------------------------------

// Entries exposes the pending map for one class. The dispatcher iterates it
// directly during a flush pass; deleting while ranging is fine.
func (b *PendingBuffer) Entries(class Class) map[string]models.MSignalSample {
	return b.entries[class]
}

// -----------------------------------------------------------------------------

// Len returns the number of pending entries for a class.
func (b *PendingBuffer) Len(class Class) int {
	return len(b.entries[class])
}
