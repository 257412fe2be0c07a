package transport

import (
	"encoding/json"
	"fmt"

	"can-dashboard/src/models"
)

// -----------------------------------------------------------------------------

// DecodeMessage parses one broker payload. Messages that do not parse or
// carry an unknown type are rejected; the caller drops them without touching
// the update buffer.
func DecodeMessage(body []byte) (*models.MDecodedMessage, error) {
	var msg models.MDecodedMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("undecodable broker message: %w", err)
	}

	switch msg.Type {
	case models.MessageTypeDecoded:
		if msg.Data == nil {
			return nil, fmt.Errorf("decoded message without data block")
		}
	case models.MessageTypeRaw:
		// Raw frames carry no signal map; they only feed the message table.
	default:
		return nil, fmt.Errorf("unknown message type %q", msg.Type)
	}

	return &msg, nil
}
