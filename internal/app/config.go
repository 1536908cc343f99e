package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Optimizer backends.
const (
	OptimizerLocal = "local"
	OptimizerREST  = "rest"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	SpacePath      string `yaml:"space"` // hcl file or directory
	ExperimentName string `yaml:"experiment"`
	Budget         int    `yaml:"budget"` // overrides the declared budget when positive

	Optimizer string `yaml:"optimizer"`
	APIURL    string `yaml:"api_url"`
	APIToken  string `yaml:"api_token"`
	Seed      uint64 `yaml:"seed"`

	LogFormat       string `yaml:"log_format"`
	LogLevel        string `yaml:"log_level"`
	HealthcheckPort int    `yaml:"healthcheck_port"`
}

// NewConfig fills in defaults and validates cfg.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.SpacePath == "" {
		return nil, errors.New("SpacePath is a required configuration field and cannot be empty")
	}
	if cfg.Optimizer == "" {
		cfg.Optimizer = OptimizerLocal
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	cfg.Optimizer = strings.ToLower(cfg.Optimizer)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	switch cfg.Optimizer {
	case OptimizerLocal:
	case OptimizerREST:
		if cfg.APIURL == "" {
			return nil, errors.New("the rest optimizer needs an API URL")
		}
	default:
		return nil, fmt.Errorf("invalid optimizer %q: must be '%s' or '%s'", cfg.Optimizer, OptimizerLocal, OptimizerREST)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}
	if cfg.Budget < 0 {
		return nil, fmt.Errorf("budget cannot be negative, got %d", cfg.Budget)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid healthcheck port %d", cfg.HealthcheckPort)
	}

	return &cfg, nil
}

// LoadConfigFile reads a YAML config file. Unknown keys are errors; an
// empty file yields the zero Config.
func LoadConfigFile(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}
