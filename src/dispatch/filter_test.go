package dispatch

import (
	"testing"
	"time"

	"can-dashboard/src/models"

	"github.com/stretchr/testify/assert"
)

// -----------------------------------------------------------------------------

func sampleAt(value float64) models.MSignalSample {
	return models.MSignalSample{Signal: "engine_rpm", Value: value, Timestamp: 1000}
}

// -----------------------------------------------------------------------------

func TestEvaluate_FirstSampleAlwaysFlushes(t *testing.T) {
	th := Thresholds{Immediate: 0.01, Skip: 0.0005, MinInterval: 50 * time.Millisecond}
	now := time.Now()

	dec := Evaluate(sampleAt(42), RateState{}, 100, th, now)
	assert.Equal(t, FlushImmediate, dec)
}

// -----------------------------------------------------------------------------

func TestEvaluate_ZeroRangeAlwaysFlushes(t *testing.T) {
	th := Thresholds{Immediate: 0.01, Skip: 0.0005, MinInterval: 50 * time.Millisecond}
	now := time.Now()
	state := RateState{LastValue: 42, LastFlush: now.Add(-time.Hour), Seen: true}

	assert.Equal(t, FlushImmediate, Evaluate(sampleAt(42.0001), state, 0, th, now))
	assert.Equal(t, FlushImmediate, Evaluate(sampleAt(42.0001), state, -5, th, now))
}

// -----------------------------------------------------------------------------

// Scenario: range 100, skip 0.0005, immediate 0.02. A 0.03 change is
// absorbed, a 0.5 change waits for the interval gate, a 3.0 change jumps
// the queue.
func TestEvaluate_ThresholdBands(t *testing.T) {
	th := Thresholds{Immediate: 0.02, Skip: 0.0005, MinInterval: 50 * time.Millisecond}
	now := time.Unix(100, 0)

	tests := []struct {
		name      string
		value     float64
		lastFlush time.Time
		want      Decision
	}{
		{"below skip threshold", 50.03, now.Add(-time.Hour), Skip},
		{"mid band, interval elapsed", 50.5, now.Add(-60 * time.Millisecond), FlushNormal},
		{"mid band, interval not elapsed", 50.5, now.Add(-10 * time.Millisecond), Defer},
		{"at immediate threshold", 52.0, now.Add(-time.Millisecond), FlushImmediate},
		{"above immediate threshold", 53.0, now.Add(-time.Millisecond), FlushImmediate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := RateState{LastValue: 50, LastFlush: tt.lastFlush, Seen: true}
			dec := Evaluate(sampleAt(tt.value), state, 100, th, now)
			assert.Equal(t, tt.want, dec)
		})
	}
}

// -----------------------------------------------------------------------------

func TestEvaluate_DeltaIsRelativeToRange(t *testing.T) {
	th := Thresholds{Immediate: 0.01, Skip: 0.0005, MinInterval: 50 * time.Millisecond}
	now := time.Unix(100, 0)
	state := RateState{LastValue: 4000, LastFlush: now.Add(-time.Hour), Seen: true}

	// Same absolute change, different ranges
	assert.Equal(t, FlushImmediate, Evaluate(sampleAt(4100), state, 8000, th, now)) // 1.25%
	assert.Equal(t, FlushNormal, Evaluate(sampleAt(4040), state, 8000, th, now))    // 0.5%
	assert.Equal(t, Skip, Evaluate(sampleAt(4002), state, 8000, th, now))           // 0.025%
}

// -----------------------------------------------------------------------------

func TestEvaluate_SkipLeavesNoTrace(t *testing.T) {
	th := Thresholds{Immediate: 0.01, Skip: 0.0005, MinInterval: 50 * time.Millisecond}
	now := time.Unix(100, 0)
	state := RateState{LastValue: 50, LastFlush: now.Add(-time.Hour), Seen: true}

	// A skipped sample must not move the reference value: repeated tiny
	// steps each compare against the same last flushed value.
	for v := 50.01; v < 50.04; v += 0.01 {
		assert.Equal(t, Skip, Evaluate(sampleAt(v), state, 100, th, now))
	}

	// Accumulated drift past the skip band flushes once the gate opens.
	assert.Equal(t, FlushNormal, Evaluate(sampleAt(50.1), state, 100, th, now))
}

// -----------------------------------------------------------------------------

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "immediate", FlushImmediate.String())
	assert.Equal(t, "normal", FlushNormal.String())
	assert.Equal(t, "skip", Skip.String())
	assert.Equal(t, "defer", Defer.String())
	assert.Equal(t, "unknown", Decision(99).String())
}

// -----------------------------------------------------------------------------

func TestRateStateMarkFlushed(t *testing.T) {
	var st RateState
	assert.False(t, st.Seen)

	now := time.Unix(200, 0)
	st.MarkFlushed(71.5, now)

	assert.True(t, st.Seen)
	assert.Equal(t, 71.5, st.LastValue)
	assert.Equal(t, now, st.LastFlush)
}
