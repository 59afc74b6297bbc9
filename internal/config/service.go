package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ServiceConfig is the optional per-service config.yaml. Everything has a
// working default so the file can be absent.
type ServiceConfig struct {
	Google struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"google"`
	Queues struct {
		StackRequests string `yaml:"stack_requests"`
	} `yaml:"queues"`
}

// LoadServiceConfig reads config.yaml from path (or the working directory
// when path is empty). A missing or malformed file yields the defaults.
func LoadServiceConfig(path string) ServiceConfig {
	if path == "" {
		path = "config.yaml"
	}

	var cfg ServiceConfig
	if data, err := os.ReadFile(path); err == nil {
		_ = yaml.Unmarshal(data, &cfg)
	}
	if cfg.Queues.StackRequests == "" {
		cfg.Queues.StackRequests = "StackRequests"
	}
	return cfg
}

// GoogleTimeout returns the configured Google API timeout, defaulting to 30s.
func (c ServiceConfig) GoogleTimeout() time.Duration {
	if c.Google.Timeout != "" {
		if d, err := time.ParseDuration(c.Google.Timeout); err == nil {
			return d
		}
	}
	return 30 * time.Second
}
