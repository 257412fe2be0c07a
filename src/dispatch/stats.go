package dispatch

import (
	"sort"
	"sync"

	"can-dashboard/src/models"
)

// -----------------------------------------------------------------------------
// SignalStats keeps running per-signal statistics for the metrics surface.
// The observed min/max spread also serves as the reference range for signals
// that have no configured gauge range (plots).
//
// Snapshot is served by the HTTP layer while the dispatch loop observes, so
// access is locked.
// -----------------------------------------------------------------------------

type runningStat struct {
	count  int64
	min    float64
	max    float64
	sum    float64
	last   float64
	lastTS int64
}

type SignalStats struct {
	mu    sync.Mutex
	stats map[string]*runningStat
}

// -----------------------------------------------------------------------------

func NewSignalStats() *SignalStats {
	return &SignalStats{stats: make(map[string]*runningStat)}
}

// -----------------------------------------------------------------------------

// Observe folds one sample into the running statistics.
func (s *SignalStats) Observe(sample models.MSignalSample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.stats[sample.Signal]
	if !ok {
		st = &runningStat{min: sample.Value, max: sample.Value}
		s.stats[sample.Signal] = st
	}

	st.count++
	st.sum += sample.Value
	st.last = sample.Value
	st.lastTS = sample.Timestamp
	if sample.Value < st.min {
		st.min = sample.Value
	}
	if sample.Value > st.max {
		st.max = sample.Value
	}
}

// -----------------------------------------------------------------------------

// Range returns the observed spread for a signal, 0 when unknown.
func (s *SignalStats) Range(signal string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.stats[signal]
	if !ok {
		return 0
	}
	return st.max - st.min
}

// -----------------------------------------------------------------------------

// Snapshot returns the per-signal statistics sorted by signal name.
func (s *SignalStats) Snapshot() []models.MSignalStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.MSignalStats, 0, len(s.stats))
	for signal, st := range s.stats {
		mean := 0.0
		if st.count > 0 {
			mean = st.sum / float64(st.count)
		}
		out = append(out, models.MSignalStats{
			Signal:        signal,
			Count:         st.count,
			Min:           st.min,
			Max:           st.max,
			Mean:          mean,
			LastValue:     st.last,
			LastTimestamp: st.lastTS,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Signal < out[j].Signal })
	return out
}
