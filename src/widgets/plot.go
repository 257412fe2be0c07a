package widgets

import (
	"can-dashboard/src/models"
	"can-dashboard/src/utils"
)

// -----------------------------------------------------------------------------
// PlotWidget retains a bounded history of one signal for a scrolling plot.
// History is a fixed-capacity ring: appending past the cap evicts exactly
// the oldest point.
// -----------------------------------------------------------------------------

type PlotWidget struct {
	Signal  string
	history *utils.RingBuffer
	redraws int64
}

// -----------------------------------------------------------------------------

// NewPlotWidget creates a plot with the given history cap
func NewPlotWidget(signal string, maxPoints int) *PlotWidget {
	return &PlotWidget{
		Signal:  signal,
		history: utils.NewRingBuffer(maxPoints),
	}
}

// -----------------------------------------------------------------------------

// Append records a flushed sample and schedules a redraw
func (p *PlotWidget) Append(timestamp int64, value float64) {
	p.history.Append(models.MPlotPoint{Timestamp: timestamp, Value: value})
	p.redraws++
}

// -----------------------------------------------------------------------------

// History returns the retained points, oldest first
func (p *PlotWidget) History() []models.MPlotPoint {
	return p.history.GetAll()
}

// -----------------------------------------------------------------------------

// Latest returns the n most recent points, oldest first
func (p *PlotWidget) Latest(n int) []models.MPlotPoint {
	return p.history.GetLatest(n)
}

// -----------------------------------------------------------------------------

// Len returns the current history length
func (p *PlotWidget) Len() int {
	return p.history.Size()
}

// -----------------------------------------------------------------------------

// Cap returns the history capacity
func (p *PlotWidget) Cap() int {
	return p.history.Capacity()
}

// -----------------------------------------------------------------------------

// Redraws returns the number of appended (and thus redrawn) points
func (p *PlotWidget) Redraws() int64 {
	return p.redraws
}

// -----------------------------------------------------------------------------

// Clear drops all retained history
func (p *PlotWidget) Clear() {
	p.history.Clear()
}
