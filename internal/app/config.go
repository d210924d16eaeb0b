package app

import (
	"errors"
	"fmt"
)

// Config holds all the necessary configuration for an App instance to run.
// Settings given here override the ones loaded from ConfigPaths.
type Config struct {
	ConfigPaths []string // hcl files or directories, optional

	LogFormat       string
	LogLevel        string
	HealthcheckPort int

	QueueSize      int
	DefaultChannel string
	Channels       []string
}

func NewConfig(cfg Config) (*Config, error) {
	switch cfg.LogFormat {
	case "", "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.LogFormat)
	}
	if cfg.QueueSize < 0 {
		return nil, errors.New("QueueSize cannot be negative")
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("HealthcheckPort %d is out of range", cfg.HealthcheckPort)
	}
	return &cfg, nil
}
