package widgets

import (
	"can-dashboard/src/models"
)

// -----------------------------------------------------------------------------
// GaugeWidget holds the externally visible state of one round gauge. Actual
// painting belongs to the rendering layer; the widget only distinguishes an
// immediate flush (synchronous redraw) from a normal flush (marked dirty and
// coalesced into the next paint cycle).
// -----------------------------------------------------------------------------

type GaugeWidget struct {
	Spec models.MGaugeSpec

	value     float64
	signal    string
	updatedAt int64
	dirty     bool

	// Paint accounting, observable by the rendering layer and tests
	repaints  int64
	scheduled int64

	// Optional redraw hook invoked on every actual repaint
	OnRedraw func(state models.MGaugeState)
}

// -----------------------------------------------------------------------------

// NewGaugeWidget creates a gauge for the given spec.
func NewGaugeWidget(spec models.MGaugeSpec) *GaugeWidget {
	return &GaugeWidget{
		Spec:  spec,
		value: spec.Min,
	}
}

// -----------------------------------------------------------------------------

// Apply updates the gauge value. The value is clamped to the configured
// range. immediate forces a synchronous redraw; a normal apply only marks
// the gauge dirty so several applies coalesce into one repaint.
func (g *GaugeWidget) Apply(signal string, value float64, timestamp int64, immediate bool) {
	if value < g.Spec.Min {
		value = g.Spec.Min
	}
	if value > g.Spec.Max {
		value = g.Spec.Max
	}

	g.value = value
	g.signal = signal
	g.updatedAt = timestamp

	if immediate {
		g.redraw()
		return
	}

	g.dirty = true
	g.scheduled++
}

// -----------------------------------------------------------------------------

// Repaint redraws the gauge if it is dirty. Called once per paint cycle.
func (g *GaugeWidget) Repaint() bool {
	if !g.dirty {
		return false
	}
	g.redraw()
	return true
}

// -----------------------------------------------------------------------------

func (g *GaugeWidget) redraw() {
	g.dirty = false
	g.repaints++
	if g.OnRedraw != nil {
		g.OnRedraw(g.State())
	}
}

// -----------------------------------------------------------------------------

// Value returns the currently displayed (clamped) value
func (g *GaugeWidget) Value() float64 {
	return g.value
}

// -----------------------------------------------------------------------------

// Range returns the configured span of the gauge
func (g *GaugeWidget) Range() float64 {
	return g.Spec.Max - g.Spec.Min
}

// -----------------------------------------------------------------------------

// Repaints returns the number of actual redraws
func (g *GaugeWidget) Repaints() int64 {
	return g.repaints
}

// -----------------------------------------------------------------------------

// Scheduled returns the number of coalesced (normal) applies
func (g *GaugeWidget) Scheduled() int64 {
	return g.scheduled
}

// -----------------------------------------------------------------------------

// State snapshots the gauge for the dashboard payload
func (g *GaugeWidget) State() models.MGaugeState {
	return models.MGaugeState{
		Title:     g.Spec.Title,
		Signal:    g.signal,
		Value:     g.value,
		Unit:      g.Spec.Unit,
		Min:       g.Spec.Min,
		Max:       g.Spec.Max,
		UpdatedAt: g.updatedAt,
	}
}
