package transport

import (
	"math"
	"testing"
	"time"

	"can-dashboard/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func decodedMsg(data map[string]float64) *models.MDecodedMessage {
	return &models.MDecodedMessage{
		Type: models.MessageTypeDecoded,
		Name: "TestFrame",
		Data: data,
	}
}

// -----------------------------------------------------------------------------

func TestGate_OpenByDefault(t *testing.T) {
	g := NewSignalGate(models.MSignalFilterConfig{})
	now := time.Unix(1000, 0)

	samples := g.Extract(decodedMsg(map[string]float64{"Engine_RPM": 3000, "speed": 72}), now)
	require.Len(t, samples, 2)

	// Names are normalized to lowercase
	names := map[string]bool{}
	for _, s := range samples {
		names[s.Signal] = true
	}
	assert.True(t, names["engine_rpm"])
	assert.True(t, names["speed"])
}

// -----------------------------------------------------------------------------

func TestGate_AllowAndDenyLists(t *testing.T) {
	g := NewSignalGate(models.MSignalFilterConfig{
		Allow: []string{"engine_rpm", "coolant_temp"},
		Deny:  []string{"coolant_temp"},
	})
	now := time.Unix(1000, 0)

	assert.True(t, g.Admit("ENGINE_RPM", now))
	assert.False(t, g.Admit("coolant_temp", now), "deny wins over allow")
	assert.False(t, g.Admit("oil_pressure", now), "not on the allow list")
}

// -----------------------------------------------------------------------------

func TestGate_RateLimit(t *testing.T) {
	g := NewSignalGate(models.MSignalFilterConfig{
		RateLimitsMs: map[string]int{"gps_lat": 100},
	})

	base := time.Unix(1000, 0)
	assert.True(t, g.Admit("gps_lat", base))
	assert.False(t, g.Admit("gps_lat", base.Add(50*time.Millisecond)))
	assert.True(t, g.Admit("gps_lat", base.Add(150*time.Millisecond)))

	// Unlimited signals pass every time
	assert.True(t, g.Admit("engine_rpm", base))
	assert.True(t, g.Admit("engine_rpm", base))
}

// -----------------------------------------------------------------------------

func TestGate_DropsNonFiniteValues(t *testing.T) {
	g := NewSignalGate(models.MSignalFilterConfig{})
	now := time.Unix(1000, 0)

	samples := g.Extract(decodedMsg(map[string]float64{
		"good": 1.5,
		"nan":  math.NaN(),
		"inf":  math.Inf(1),
	}), now)

	require.Len(t, samples, 1)
	assert.Equal(t, "good", samples[0].Signal)
}

// -----------------------------------------------------------------------------

func TestGate_PerMessageCap(t *testing.T) {
	g := NewSignalGate(models.MSignalFilterConfig{MaxSignalsPerMessage: 2})
	now := time.Unix(1000, 0)

	samples := g.Extract(decodedMsg(map[string]float64{
		"a": 1, "b": 2, "c": 3, "d": 4,
	}), now)

	assert.Len(t, samples, 2)
}

// -----------------------------------------------------------------------------

func TestGate_Timestamps(t *testing.T) {
	g := NewSignalGate(models.MSignalFilterConfig{})
	now := time.Unix(1000, 0)

	// A message timestamp is carried through in milliseconds
	msg := decodedMsg(map[string]float64{"x": 1})
	msg.Timestamp = 1700000000.5
	samples := g.Extract(msg, now)
	require.Len(t, samples, 1)
	assert.Equal(t, int64(1700000000500), samples[0].Timestamp)

	// Without one, receive time is used
	samples = g.Extract(decodedMsg(map[string]float64{"x": 1}), now)
	require.Len(t, samples, 1)
	assert.Equal(t, now.UnixMilli(), samples[0].Timestamp)
}

// -----------------------------------------------------------------------------

func TestGate_RawMessageYieldsNothing(t *testing.T) {
	g := NewSignalGate(models.MSignalFilterConfig{})
	now := time.Unix(1000, 0)

	samples := g.Extract(&models.MDecodedMessage{Type: models.MessageTypeRaw, RawHex: "FF"}, now)
	assert.Empty(t, samples)
}
