package models

// -----------------------------------------------------------------------------
// Dashboard State Structure (pushed to WebSocket clients)
// -----------------------------------------------------------------------------

type MLatestData struct {
	Type            string                  `json:"type"` // "INITIAL" or "UPDATE"
	Gauges          map[string]MGaugeState  `json:"gauges"`
	Plots           map[string][]MPlotPoint `json:"plots"`
	Messages        []MDecodedMessage       `json:"messages,omitempty"`
	Timestamp       int64                   `json:"timestamp"`
	DispatchMetrics MDispatchMetrics        `json:"dispatch_metrics"`
}

// MGaugeState is the externally visible state of one gauge widget.
type MGaugeState struct {
	Title     string  `json:"title"`
	Signal    string  `json:"signal"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	UpdatedAt int64   `json:"updated_at"`
}

// -----------------------------------------------------------------------------
// SubscribeCommand for client messages
// -----------------------------------------------------------------------------

type MSubscribeCommand struct {
	Command    string   `json:"command"`
	ClientType string   `json:"clientType"`
	Signals    []string `json:"signals"`
}
