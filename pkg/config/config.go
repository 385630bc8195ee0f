package config

import "time"

// Log format constants
const (
	// LogFormatJSON outputs structured JSON logs
	LogFormatJSON = "json"
	// LogFormatText outputs human-readable console logs
	LogFormatText = "text"
)

// Config is the root configuration structure for notifyctl
type Config struct {
	Service       ServiceConfig       `mapstructure:"service"`
	Notify        NotifyConfig        `mapstructure:"notify"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// ServiceConfig identifies the process in logs and notifications
type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// NotifyConfig locates the services document and bounds delivery.
type NotifyConfig struct {
	// File is the services document. Empty means the services list lives in
	// the config file itself.
	File string `mapstructure:"file"`
	// Timeout bounds each backend request.
	Timeout time.Duration `mapstructure:"timeout"`
}

// ObservabilityConfig holds logging settings
type ObservabilityConfig struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	// LogFile enables rotating file output in addition to stdout.
	LogFile string `mapstructure:"log_file"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        "notify",
			Environment: "production",
		},
		Notify: NotifyConfig{
			Timeout: 10 * time.Second,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: LogFormatJSON,
		},
	}
}
