package models

// MSignalSample represents one decoded CAN signal value as received from the
// broker. Timestamps are unix milliseconds.
type MSignalSample struct {
	Signal    string  `json:"signal"`
	Value     float64 `json:"value"`
	Timestamp int64   `json:"timestamp"`
}
