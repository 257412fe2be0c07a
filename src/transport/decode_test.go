package transport

import (
	"testing"

	"can-dashboard/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func TestDecodeMessage_Decoded(t *testing.T) {
	body := []byte(`{
		"type": "decoded",
		"id_hex": "0x1A0",
		"name": "EngineData",
		"timestamp": 1700000000.25,
		"data": {"engine_rpm": 3250.5, "coolant_temp": 88.0}
	}`)

	msg, err := DecodeMessage(body)
	require.NoError(t, err)

	assert.Equal(t, models.MessageTypeDecoded, msg.Type)
	assert.Equal(t, "0x1A0", msg.IDHex)
	assert.Equal(t, "EngineData", msg.Name)
	assert.Equal(t, 1700000000.25, msg.Timestamp)
	assert.Equal(t, 3250.5, msg.Data["engine_rpm"])
}

// -----------------------------------------------------------------------------

func TestDecodeMessage_Raw(t *testing.T) {
	body := []byte(`{"type": "raw", "id_hex": "0x7DF", "raw_hex": "02010C"}`)

	msg, err := DecodeMessage(body)
	require.NoError(t, err)

	assert.Equal(t, models.MessageTypeRaw, msg.Type)
	assert.Equal(t, "02010C", msg.RawHex)
	assert.Nil(t, msg.Data)
}

// -----------------------------------------------------------------------------

func TestDecodeMessage_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"type": "decoded"`},
		{"unknown type", `{"type": "mystery"}`},
		{"empty type", `{}`},
		{"decoded without data", `{"type": "decoded", "name": "EngineData"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := DecodeMessage([]byte(tt.body))
			assert.Error(t, err)
			assert.Nil(t, msg)
		})
	}
}
