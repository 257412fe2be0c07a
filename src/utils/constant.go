package utils

// -----------------------------------------------------------------------------

// Default tuning constants for the update pipeline. These are the values the
// responsiveness tuning settled on: gauges repaint at ~120 FPS while plots
// redraw at ~20 FPS, and the poller runs faster than both so the buffer is
// never starved by the receive side.
const (
	DefaultPollIntervalMs      = 5
	DefaultMaxMessagesPerCycle = 20
	DefaultMaxDrainPerPoll     = 100

	DefaultGaugeIntervalMs     = 8
	DefaultPlotIntervalMs      = 50
	DefaultMinUpdateIntervalMs = 50

	// Relative change thresholds: >=1% repaints immediately, <0.05% is
	// imperceptible and skipped.
	DefaultImmediateThreshold = 0.01
	DefaultSkipThreshold      = 0.0005

	DefaultMaxPlotPoints   = 200
	DefaultMaxPlots        = 9
	DefaultTableBufferSize = 50

	DefaultRetentionHours = 24
)

// CAN backend defaults for the auto-connect handshake.
const (
	DefaultCANInterface = "socketcan"
	DefaultCANBitrate   = 500000
)

// Backlog strategies for the poller.
const (
	BacklogBounded        = "bounded"
	BacklogCollapseLatest = "collapse_latest"
)
