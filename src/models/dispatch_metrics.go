package models

// MDispatchMetrics represents the performance counters of the update pipeline.
type MDispatchMetrics struct {
	MessagesReceived int64 `json:"messages_received"`
	SamplesBuffered  int64 `json:"samples_buffered"`
	FlushedImmediate int64 `json:"flushed_immediate"`
	FlushedNormal    int64 `json:"flushed_normal"`
	Skipped          int64 `json:"skipped"`
	Deferred         int64 `json:"deferred"`
	DroppedMalformed int64 `json:"dropped_malformed"`
	GaugeCycles      int64 `json:"gauge_cycles"`
	PlotCycles       int64 `json:"plot_cycles"`
}

// MSignalStats holds running statistics for one observed signal.
type MSignalStats struct {
	Signal        string  `json:"signal"`
	Count         int64   `json:"count"`
	Min           float64 `json:"min"`
	Max           float64 `json:"max"`
	Mean          float64 `json:"mean"`
	LastValue     float64 `json:"last_value"`
	LastTimestamp int64   `json:"last_timestamp"`
}
