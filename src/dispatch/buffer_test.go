package dispatch

import (
	"testing"

	"can-dashboard/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func TestPendingBuffer_OverwriteKeepsLatest(t *testing.T) {
	b := NewPendingBuffer()

	b.Put(ClassGauge, models.MSignalSample{Signal: "speed", Value: 10, Timestamp: 1})
	b.Put(ClassGauge, models.MSignalSample{Signal: "speed", Value: 20, Timestamp: 2})
	b.Put(ClassGauge, models.MSignalSample{Signal: "speed", Value: 30, Timestamp: 3})

	assert.Equal(t, 1, b.Len(ClassGauge))

	s, ok := b.Get(ClassGauge, "speed")
	require.True(t, ok)
	assert.Equal(t, 30.0, s.Value)
	assert.Equal(t, int64(3), s.Timestamp)
}

// -----------------------------------------------------------------------------

func TestPendingBuffer_ClassesAreIndependent(t *testing.T) {
	b := NewPendingBuffer()

	b.Put(ClassGauge, models.MSignalSample{Signal: "rpm", Value: 3000})
	b.Put(ClassPlot, models.MSignalSample{Signal: "rpm", Value: 3100})

	g, ok := b.Get(ClassGauge, "rpm")
	require.True(t, ok)
	p, ok := b.Get(ClassPlot, "rpm")
	require.True(t, ok)

	assert.Equal(t, 3000.0, g.Value)
	assert.Equal(t, 3100.0, p.Value)

	// Removing from one class leaves the other untouched
	b.Remove(ClassGauge, "rpm")
	assert.Equal(t, 0, b.Len(ClassGauge))
	assert.Equal(t, 1, b.Len(ClassPlot))
}

// -----------------------------------------------------------------------------

func TestPendingBuffer_OneEntryPerSignal(t *testing.T) {
	b := NewPendingBuffer()

	for i := 0; i < 100; i++ {
		b.Put(ClassPlot, models.MSignalSample{Signal: "temp", Value: float64(i)})
		b.Put(ClassPlot, models.MSignalSample{Signal: "speed", Value: float64(i)})
	}

	assert.Equal(t, 2, b.Len(ClassPlot))
}

// -----------------------------------------------------------------------------

func TestPendingBuffer_GetMissing(t *testing.T) {
	b := NewPendingBuffer()

	_, ok := b.Get(ClassGauge, "nothing")
	assert.False(t, ok)

	// Removing a missing entry is a no-op
	b.Remove(ClassGauge, "nothing")
	assert.Equal(t, 0, b.Len(ClassGauge))
}

// -----------------------------------------------------------------------------

func TestClassString(t *testing.T) {
	assert.Equal(t, "gauge", ClassGauge.String())
	assert.Equal(t, "plot", ClassPlot.String())
}
