package config

import (
	"fmt"
	"os"

	"can-dashboard/src/helpers"
	"can-dashboard/src/models"
	"can-dashboard/src/utils"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, &helpers.ConfigurationError{DashboardError: helpers.DashboardError{
			Message: fmt.Sprintf("failed to read config file '%s'", configPath), Cause: err}}
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, &helpers.ConfigurationError{DashboardError: helpers.DashboardError{
			Message: "failed to parse config from YAML", Cause: err}}
	}

	config := &Config{MConfig: &modelConfig}

	// 3. Fill unset tuning values with defaults, then validate
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, &helpers.ValidationError{DashboardError: helpers.DashboardError{
			Message: "config validation failed", Cause: err}}
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// ApplyDefaults fills zero-valued tuning fields with the default constants.
// Thresholds default only when both are unset so a config can legitimately
// set skip_threshold to 0 alongside an explicit immediate_threshold.
func (c *Config) ApplyDefaults() {
	if c.Poller.PollIntervalMs <= 0 {
		c.Poller.PollIntervalMs = utils.DefaultPollIntervalMs
	}
	if c.Poller.MaxMessagesPerCycle <= 0 {
		c.Poller.MaxMessagesPerCycle = utils.DefaultMaxMessagesPerCycle
	}
	if c.Poller.BacklogStrategy == "" {
		c.Poller.BacklogStrategy = utils.BacklogBounded
	}
	if c.Poller.MaxDrainPerPoll <= 0 {
		c.Poller.MaxDrainPerPoll = utils.DefaultMaxDrainPerPoll
	}

	if c.Dispatch.GaugeIntervalMs <= 0 {
		c.Dispatch.GaugeIntervalMs = utils.DefaultGaugeIntervalMs
	}
	if c.Dispatch.PlotIntervalMs <= 0 {
		c.Dispatch.PlotIntervalMs = utils.DefaultPlotIntervalMs
	}
	if c.Dispatch.MinUpdateIntervalMs <= 0 {
		c.Dispatch.MinUpdateIntervalMs = utils.DefaultMinUpdateIntervalMs
	}
	if c.Dispatch.ImmediateThreshold == 0 && c.Dispatch.SkipThreshold == 0 {
		c.Dispatch.ImmediateThreshold = utils.DefaultImmediateThreshold
		c.Dispatch.SkipThreshold = utils.DefaultSkipThreshold
	}
	if c.Dispatch.MaxPlotPoints <= 0 {
		c.Dispatch.MaxPlotPoints = utils.DefaultMaxPlotPoints
	}
	if c.Dispatch.MaxPlots <= 0 {
		c.Dispatch.MaxPlots = utils.DefaultMaxPlots
	}
	if c.Dispatch.TableBufferSize <= 0 {
		c.Dispatch.TableBufferSize = utils.DefaultTableBufferSize
	}

	if c.Storage.RetentionHours <= 0 {
		c.Storage.RetentionHours = utils.DefaultRetentionHours
	}
	if c.Broker.ConnectRetries <= 0 {
		c.Broker.ConnectRetries = 3
	}

	if c.CAN.Interface == "" {
		c.CAN.Interface = utils.DefaultCANInterface
	}
	if c.CAN.Bitrate <= 0 {
		c.CAN.Bitrate = utils.DefaultCANBitrate
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	// Validate App configuration (Flattened)
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Validate Server configuration (Flattened)
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	// Validate Broker configuration
	if c.Broker.URL == "" {
		return fmt.Errorf("broker url cannot be empty")
	}
	if c.Broker.Queue == "" {
		return fmt.Errorf("broker queue cannot be empty")
	}

	// Validate Poller configuration
	if c.Poller.BacklogStrategy != utils.BacklogBounded && c.Poller.BacklogStrategy != utils.BacklogCollapseLatest {
		return fmt.Errorf("unknown backlog strategy: %s", c.Poller.BacklogStrategy)
	}

	// Validate Dispatch configuration
	if c.Dispatch.ImmediateThreshold < 0 || c.Dispatch.ImmediateThreshold > 1 {
		return fmt.Errorf("immediate threshold must be within [0, 1], got %g", c.Dispatch.ImmediateThreshold)
	}
	if c.Dispatch.SkipThreshold < 0 || c.Dispatch.SkipThreshold > 1 {
		return fmt.Errorf("skip threshold must be within [0, 1], got %g", c.Dispatch.SkipThreshold)
	}
	if c.Dispatch.SkipThreshold > c.Dispatch.ImmediateThreshold {
		return fmt.Errorf("skip threshold (%g) cannot exceed immediate threshold (%g)",
			c.Dispatch.SkipThreshold, c.Dispatch.ImmediateThreshold)
	}
	if c.Dispatch.GaugeIntervalMs > c.Dispatch.PlotIntervalMs {
		return fmt.Errorf("gauge cycle (%dms) must not be slower than plot cycle (%dms)",
			c.Dispatch.GaugeIntervalMs, c.Dispatch.PlotIntervalMs)
	}

	// Validate CAN configuration
	if c.CAN.AutoConnect && c.CAN.Channel == "" {
		return fmt.Errorf("can channel cannot be empty when auto_connect is set")
	}

	// Validate Storage configuration
	if c.Storage.Enabled {
		if c.Storage.DBType == "" {
			return fmt.Errorf("database type cannot be empty")
		}
		if c.Storage.DBType == "sqlite" && c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
		if c.Storage.DBType == "postgres" && c.Storage.DBConnectionString == "" {
			return fmt.Errorf("connection string cannot be empty for postgres")
		}
	}

	// Validate Gauge specs
	for i, g := range c.Gauges {
		if g.Title == "" {
			return fmt.Errorf("gauge %d must have a title", i)
		}
		if g.Max <= g.Min {
			return fmt.Errorf("gauge '%s' has invalid range [%g, %g]", g.Title, g.Min, g.Max)
		}
		if len(g.SignalNames) == 0 {
			return fmt.Errorf("gauge '%s' must have at least one signal name", g.Title)
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
