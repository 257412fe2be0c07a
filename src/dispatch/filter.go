package dispatch

import (
	"math"
	"time"

	"can-dashboard/src/models"
)

// -----------------------------------------------------------------------------
// Threshold filter. Pure decision function over an explicit per-signal
// RateState record; the dispatcher owns one RateState per (signal,
// destination class) pair.
// -----------------------------------------------------------------------------

// Decision is the outcome of evaluating a pending sample.
type Decision int

const (
	// FlushImmediate: large change, bypasses the inter-update gate and
	// takes the synchronous render path.
	FlushImmediate Decision = iota

	// FlushNormal: meaningful change and the inter-update interval elapsed.
	FlushNormal

	// Skip: change below the perception threshold. The pending value is
	// absorbed; the last flushed value stays unchanged.
	Skip

	// Defer: meaningful change but the interval gate is not met yet. The
	// pending value stays buffered for the next cycle.
	Defer
)

func (d Decision) String() string {
	switch d {
	case FlushImmediate:
		return "immediate"
	case FlushNormal:
		return "normal"
	case Skip:
		return "skip"
	case Defer:
		return "defer"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------

// Thresholds are the per-class tuning knobs.
type Thresholds struct {
	Immediate   float64
	Skip        float64
	MinInterval time.Duration
}

// -----------------------------------------------------------------------------

// RateState tracks the last flushed value and time for one signal on one
// destination class.
type RateState struct {
	LastValue float64
	LastFlush time.Time
	Seen      bool
}

// MarkFlushed records a flush.
func (s *RateState) MarkFlushed(value float64, now time.Time) {
	s.LastValue = value
	s.LastFlush = now
	s.Seen = true
}

// -----------------------------------------------------------------------------

// Evaluate decides what to do with a pending sample.
//
// The first sample for a signal always flushes (nothing to diff against),
// and a zero or negative signal range degrades to "always flush" rather
// than dividing by it.
func Evaluate(sample models.MSignalSample, state RateState, signalRange float64, th Thresholds, now time.Time) Decision {
	if !state.Seen {
		return FlushImmediate
	}
	if signalRange <= 0 {
		return FlushImmediate
	}

	delta := math.Abs(sample.Value-state.LastValue) / signalRange

	if delta >= th.Immediate {
		return FlushImmediate
	}
	if delta < th.Skip {
		return Skip
	}
	if now.Sub(state.LastFlush) >= th.MinInterval {
		return FlushNormal
	}
	return Defer
}
