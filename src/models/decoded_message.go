package models

// -----------------------------------------------------------------------------
// Broker wire format (matches the backend publisher exactly)
// -----------------------------------------------------------------------------

// Message types published by the CAN backend.
const (
	MessageTypeDecoded = "decoded"
	MessageTypeRaw     = "raw"
)

// MDecodedMessage is one message from the backend PUB stream. "decoded"
// messages carry a signal name -> physical value map; "raw" messages carry
// the undecoded frame payload as hex.
type MDecodedMessage struct {
	Type      string             `json:"type"`
	IDHex     string             `json:"id_hex"`
	Name      string             `json:"name"`
	Timestamp float64            `json:"timestamp"`
	Data      map[string]float64 `json:"data,omitempty"`
	RawHex    string             `json:"raw_hex,omitempty"`
}

// -----------------------------------------------------------------------------

// MCommandResponse is the backend's reply on the command (REQ/REP) channel.
type MCommandResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
