package models

// RingBuffer indices and constants
const (
	RB_IDX_TIMESTAMP = 0
	RB_IDX_VALUE     = 1
	RB_NUM_FEATURES  = 2
)

// MPlotPoint is one retained history point for a plotted signal.
type MPlotPoint struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}
