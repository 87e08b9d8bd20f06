// Package config holds build metadata and the runtime configuration of the imu cli.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"
)

// injected at link time by the dev build tool
var (
	Version = "latest"
	Commit  = "none"
	Date    = "unknown"
)

const (
	AdapterMCP2221 = "mcp2221"
	AdapterGeneric = "generic"
	AdapterGobot   = "gobot"
	AdapterMock    = "mock"
)

const (
	FormatText = "text"
	FormatYAML = "yaml"
)

type Config struct {
	Adapter string `yaml:"adapter"`
	// Device is the periph bus name used by the generic adapter (e.g. /dev/i2c-1).
	Device string `yaml:"device"`
	// Bus is the gobot bus number; negative selects the adaptor default.
	Bus int `yaml:"bus"`
	// Speed is a periph frequency string, empty keeps the bus default.
	Speed    string        `yaml:"speed"`
	Count    int           `yaml:"count"`
	Interval time.Duration `yaml:"interval"`
	Format   string        `yaml:"format"`
}

func Default() Config {
	return Config{
		Adapter:  AdapterMCP2221,
		Device:   "/dev/i2c-1",
		Bus:      -1,
		Count:    1,
		Interval: 100 * time.Millisecond,
		Format:   FormatText,
	}
}

// Load reads a YAML file on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("could not read config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	err = dec.Decode(&cfg)
	if err != nil {
		return cfg, fmt.Errorf("could not parse config file %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Adapter {
	case AdapterMCP2221, AdapterGeneric, AdapterGobot, AdapterMock:
	default:
		return fmt.Errorf("unknown adapter %q", c.Adapter)
	}
	switch c.Format {
	case FormatText, FormatYAML:
	default:
		return fmt.Errorf("unknown output format %q", c.Format)
	}
	if c.Count < 0 {
		return fmt.Errorf("sample count must not be negative")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("sample interval must be positive")
	}
	if _, err := c.BusSpeed(); err != nil {
		return err
	}
	return nil
}

// BusSpeed parses Speed; zero means not set.
func (c Config) BusSpeed() (physic.Frequency, error) {
	var f physic.Frequency
	if c.Speed == "" {
		return 0, nil
	}
	if err := f.Set(c.Speed); err != nil {
		return 0, fmt.Errorf("invalid bus speed %q: %w", c.Speed, err)
	}
	return f, nil
}
