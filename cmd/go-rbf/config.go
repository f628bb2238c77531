// config.go - Run configuration: defaults, YAML file and flags
package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wilhasse/go-rbf/format"
)

// Config holds every setting of a run. Values come from Defaults, then an
// optional YAML file, then command line flags.
type Config struct {
	Layout     string `yaml:"layout"`
	Data       string `yaml:"data"`
	Mapper     string `yaml:"mapper"`
	UTF8       bool   `yaml:"utf8"`
	Stringent  bool   `yaml:"stringent"`
	Format     string `yaml:"format"`
	MaxRecords int    `yaml:"max_records"`
	Validate   bool   `yaml:"validate"`
	Skip       string `yaml:"skip"`
	Sink       string `yaml:"sink"`
	DSN        string `yaml:"dsn"`
	Watch      string `yaml:"watch"`
	Schedule   string `yaml:"schedule"`
	Verbose    bool   `yaml:"verbose"`
}

// Output formats
const (
	FormatText    = "text"
	FormatJSON    = "json"
	FormatSummary = "summary"
	FormatCount   = "count"
)

// Defaults returns the built-in settings: two-character record identifiers
// at the start of each line, text output.
func Defaults() Config {
	return Config{
		Mapper: "type:1 map:0..2",
		Format: FormatText,
	}
}

// LoadConfig reads a YAML config file over the defaults
func LoadConfig(path string) (Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: config %s: %v", format.ErrConfig, path, err)
	}
	return cfg, nil
}

// Merge returns c overridden by the non-zero settings of o
func (c Config) Merge(o Config) Config {
	if o.Layout != "" {
		c.Layout = o.Layout
	}
	if o.Data != "" {
		c.Data = o.Data
	}
	if o.Mapper != "" {
		c.Mapper = o.Mapper
	}
	if o.Format != "" {
		c.Format = o.Format
	}
	if o.MaxRecords != 0 {
		c.MaxRecords = o.MaxRecords
	}
	if o.Skip != "" {
		c.Skip = o.Skip
	}
	if o.Sink != "" {
		c.Sink = o.Sink
	}
	if o.DSN != "" {
		c.DSN = o.DSN
	}
	if o.Watch != "" {
		c.Watch = o.Watch
	}
	if o.Schedule != "" {
		c.Schedule = o.Schedule
	}
	c.UTF8 = c.UTF8 || o.UTF8
	c.Stringent = c.Stringent || o.Stringent
	c.Validate = c.Validate || o.Validate
	c.Verbose = c.Verbose || o.Verbose
	return c
}

// Mode returns the addressing mode selected by the config
func (c Config) Mode() format.Mode {
	if c.UTF8 {
		return format.ModeUTF8
	}
	return format.ModeASCII
}

// Check reports settings that cannot work together
func (c Config) Check() error {
	switch c.Format {
	case FormatText, FormatJSON, FormatSummary, FormatCount:
	default:
		return fmt.Errorf("%w: unknown format %q", format.ErrConfig, c.Format)
	}
	if c.Layout == "" {
		return fmt.Errorf("%w: a layout file is required", format.ErrConfig)
	}
	if c.Validate {
		return nil
	}
	if c.Data == "" && c.Watch == "" {
		return fmt.Errorf("%w: a data file is required", format.ErrConfig)
	}
	if c.Watch != "" && c.Schedule != "" {
		return fmt.Errorf("%w: -watch and -schedule are exclusive", format.ErrConfig)
	}
	if c.MaxRecords < 0 {
		return fmt.Errorf("%w: negative -max-records", format.ErrConfig)
	}
	return nil
}
