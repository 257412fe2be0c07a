package widgets

import (
	"testing"

	"can-dashboard/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func rpmSpec() models.MGaugeSpec {
	return models.MGaugeSpec{
		Title:       "Engine RPM",
		Min:         0,
		Max:         8000,
		Unit:        "rpm",
		SignalNames: []string{"engine_rpm"},
	}
}

// -----------------------------------------------------------------------------

func TestGauge_StartsAtMin(t *testing.T) {
	g := NewGaugeWidget(rpmSpec())
	assert.Equal(t, 0.0, g.Value())
	assert.Equal(t, 8000.0, g.Range())
	assert.Equal(t, int64(0), g.Repaints())
}

// -----------------------------------------------------------------------------

func TestGauge_ClampsToRange(t *testing.T) {
	g := NewGaugeWidget(rpmSpec())

	g.Apply("engine_rpm", 12000, 1, true)
	assert.Equal(t, 8000.0, g.Value())

	g.Apply("engine_rpm", -500, 2, true)
	assert.Equal(t, 0.0, g.Value())
}

// -----------------------------------------------------------------------------

// An immediate apply repaints synchronously; normal applies only mark the
// gauge dirty and coalesce into at most one repaint per paint cycle.
func TestGauge_ImmediateVsCoalesced(t *testing.T) {
	g := NewGaugeWidget(rpmSpec())

	g.Apply("engine_rpm", 3000, 1, true)
	assert.Equal(t, int64(1), g.Repaints())

	g.Apply("engine_rpm", 3100, 2, false)
	g.Apply("engine_rpm", 3200, 3, false)
	g.Apply("engine_rpm", 3300, 4, false)
	assert.Equal(t, int64(1), g.Repaints(), "normal applies must not repaint")
	assert.Equal(t, int64(3), g.Scheduled())

	// One paint cycle flushes all coalesced applies in a single redraw
	assert.True(t, g.Repaint())
	assert.Equal(t, int64(2), g.Repaints())
	assert.Equal(t, 3300.0, g.Value())

	// Clean gauge: nothing to paint
	assert.False(t, g.Repaint())
	assert.Equal(t, int64(2), g.Repaints())
}

// -----------------------------------------------------------------------------

func TestGauge_RedrawHook(t *testing.T) {
	g := NewGaugeWidget(rpmSpec())

	var seen []models.MGaugeState
	g.OnRedraw = func(state models.MGaugeState) { seen = append(seen, state) }

	g.Apply("engine_rpm", 4500, 10, true)
	require.Len(t, seen, 1)
	assert.Equal(t, "Engine RPM", seen[0].Title)
	assert.Equal(t, "engine_rpm", seen[0].Signal)
	assert.Equal(t, 4500.0, seen[0].Value)
	assert.Equal(t, int64(10), seen[0].UpdatedAt)
}

// -----------------------------------------------------------------------------

func TestGauge_State(t *testing.T) {
	g := NewGaugeWidget(rpmSpec())
	g.Apply("engine_rpm", 2000, 99, false)

	st := g.State()
	assert.Equal(t, "Engine RPM", st.Title)
	assert.Equal(t, 2000.0, st.Value)
	assert.Equal(t, "rpm", st.Unit)
	assert.Equal(t, 0.0, st.Min)
	assert.Equal(t, 8000.0, st.Max)
	assert.Equal(t, int64(99), st.UpdatedAt)
}
