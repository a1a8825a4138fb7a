package app

import (
	"errors"
	"fmt"
	"time"
)

// Modes an App can run in.
const (
	ModeRun      = "run"
	ModeValidate = "validate"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	GraphPath string   // hcl file or directory
	Args      []string // root arguments as HCL literals
	Mode      string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	WorkerCount     int
	MaxContexts     int
	MaxDepth        int
	KernelRetries   uint64
	MonitorURL      string
	Watch           bool
	Timeout         time.Duration
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.GraphPath == "" {
		return nil, errors.New("GraphPath is a required configuration field and cannot be empty")
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeRun
	}
	if cfg.Mode != ModeRun && cfg.Mode != ModeValidate {
		return nil, fmt.Errorf("unknown mode %q", cfg.Mode)
	}
	if cfg.WorkerCount < 1 {
		return nil, fmt.Errorf("WorkerCount must be at least 1, got %d", cfg.WorkerCount)
	}
	if cfg.MaxContexts < 1 {
		return nil, fmt.Errorf("MaxContexts must be at least 1, got %d", cfg.MaxContexts)
	}
	if cfg.MaxDepth < 1 {
		return nil, fmt.Errorf("MaxDepth must be at least 1, got %d", cfg.MaxDepth)
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("Timeout cannot be negative")
	}
	if cfg.Watch && cfg.Mode != ModeRun {
		return nil, errors.New("Watch is only supported in run mode")
	}
	return &cfg, nil
}
