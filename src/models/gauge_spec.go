package models

// MGaugeSpec describes one configured gauge and the signal names that feed it.
// A single gauge may listen on several aliases (different DBC files name the
// same physical signal differently).
type MGaugeSpec struct {
	Title       string   `yaml:"title" json:"title"`
	Min         float64  `yaml:"min" json:"min"`
	Max         float64  `yaml:"max" json:"max"`
	Unit        string   `yaml:"unit" json:"unit"`
	NumTicks    int      `yaml:"num_ticks" json:"num_ticks"`
	SignalNames []string `yaml:"signal_names" json:"signal_names"`
}
