package models

// MConfig Structure
type MConfig struct {
	Name     string              `yaml:"name"`
	Host     string              `yaml:"host"`
	Port     int                 `yaml:"port"`
	LogLevel string              `yaml:"log_level"`
	Broker   MBrokerConfig       `yaml:"broker"`
	CAN      MCANConfig          `yaml:"can"`
	Poller   MPollerConfig       `yaml:"poller"`
	Dispatch MDispatchConfig     `yaml:"dispatch"`
	Signals  MSignalFilterConfig `yaml:"signals"`
	Storage  MStorageConfig      `yaml:"storage"`
	Gauges   []MGaugeSpec        `yaml:"gauges"`
}

type MBrokerConfig struct {
	URL            string `yaml:"url"`
	Queue          string `yaml:"queue"`
	CommandQueue   string `yaml:"command_queue"`
	ConnectRetries int    `yaml:"connect_retries"`
	PrefetchCount  int    `yaml:"prefetch_count"`
}

// MCANConfig describes the bus the backend should attach to on startup.
// When AutoConnect is set the dashboard sends connect_can and load_dbc
// over the command channel before the dispatch loop starts.
type MCANConfig struct {
	AutoConnect bool   `yaml:"auto_connect"`
	Interface   string `yaml:"interface"`
	Channel     string `yaml:"channel"`
	Bitrate     int    `yaml:"bitrate"`
	DBCPath     string `yaml:"dbc_path"`
}

type MPollerConfig struct {
	PollIntervalMs      int    `yaml:"poll_interval_ms"`
	MaxMessagesPerCycle int    `yaml:"max_messages_per_cycle"`
	BacklogStrategy     string `yaml:"backlog_strategy"` // "bounded" or "collapse_latest"
	MaxDrainPerPoll     int    `yaml:"max_drain_per_poll"`
}

type MDispatchConfig struct {
	GaugeIntervalMs     int     `yaml:"gauge_interval_ms"`
	PlotIntervalMs      int     `yaml:"plot_interval_ms"`
	ImmediateThreshold  float64 `yaml:"immediate_threshold"`
	SkipThreshold       float64 `yaml:"skip_threshold"`
	MinUpdateIntervalMs int     `yaml:"min_update_interval_ms"`
	MaxPlotPoints       int     `yaml:"max_plot_points"`
	MaxPlots            int     `yaml:"max_plots"`
	TableBufferSize     int     `yaml:"table_buffer_size"`
}

type MSignalFilterConfig struct {
	Allow                []string       `yaml:"allow"`
	Deny                 []string       `yaml:"deny"`
	RateLimitsMs         map[string]int `yaml:"rate_limits_ms"`
	MaxSignalsPerMessage int            `yaml:"max_signals_per_message"`
}

type MStorageConfig struct {
	Enabled            bool   `yaml:"enabled"`
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	RetentionHours     int    `yaml:"retention_hours"`
}
