package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/runningwild/kfinder/pkg/engine"
)

// Config represents the top-level configuration for a k search.
type Config struct {
	Data    string   `yaml:"data"`   // CSV file of numeric columns
	Header  bool     `yaml:"header"` // Skip the first CSV record
	MaxK    int      `yaml:"max_k"`
	Workers int      `yaml:"workers"` // Concurrent fits; 1 is sequential
	Report  string   `yaml:"report,omitempty"`
	Fitter  Fitter   `yaml:"fitter"`
	Nodes   []string `yaml:"nodes,omitempty"` // Agent host:port list for the remote engine
}

// Fitter selects the engine and the parameters forwarded to every fit.
type Fitter struct {
	Engine  string        `yaml:"engine"` // "lloyd" or "remote"
	Timeout time.Duration `yaml:"timeout,omitempty"`

	engine.Params `yaml:",inline"`
}

const (
	DefaultMaxK    = 30
	DefaultTimeout = 5 * time.Minute
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML and fills defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every unset field.
func (c *Config) SetDefaults() {
	if c.MaxK == 0 {
		c.MaxK = DefaultMaxK
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.Fitter.Engine == "" {
		c.Fitter.Engine = "lloyd"
	}
	if c.Fitter.Timeout == 0 {
		c.Fitter.Timeout = DefaultTimeout
	}
	c.Fitter.Params = c.Fitter.Params.WithDefaults()
}

// Validate checks settings that do not depend on the finder itself.
func (c *Config) Validate() error {
	switch c.Fitter.Engine {
	case "lloyd":
	case "remote":
		if len(c.Nodes) == 0 {
			return fmt.Errorf("remote engine requires at least one node")
		}
	default:
		return fmt.Errorf("unknown engine: %s", c.Fitter.Engine)
	}
	return nil
}

// Marshal encodes the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
