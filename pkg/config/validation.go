package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks if the configuration is valid and reports every problem.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Service.Name) == "" {
		errs = append(errs, errors.New("service.name is required"))
	}

	if c.Notify.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("notify.timeout must be positive, got %s", c.Notify.Timeout))
	}

	switch strings.ToLower(c.Observability.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("observability.log_level must be one of debug, info, warn, error, got %q", c.Observability.LogLevel))
	}

	switch strings.ToLower(c.Observability.LogFormat) {
	case LogFormatJSON, LogFormatText, "console":
	default:
		errs = append(errs, fmt.Errorf("observability.log_format must be json or text, got %q", c.Observability.LogFormat))
	}

	return errors.Join(errs...)
}

// DocumentPath returns the file holding the services document.
func (c *Config) DocumentPath(configFile string) string {
	if path := strings.TrimSpace(c.Notify.File); path != "" {
		return path
	}
	return configFile
}
