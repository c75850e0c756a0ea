// Package config loads the HCL configuration file shared by every flip7
// subcommand.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// ErrInvalid is wrapped by every validation failure
var ErrInvalid = errors.New("invalid config")

// Config represents the complete configuration
type Config struct {
	LogLevel string          `hcl:"log_level,optional"`
	Engine   *EngineSettings `hcl:"engine,block"`
	Watch    *WatchSettings  `hcl:"watch,block"`
	Server   *ServerSettings `hcl:"server,block"`
	Store    *StoreSettings  `hcl:"store,block"`
}

// EngineSettings controls the decision engine
type EngineSettings struct {
	FlipThree *bool `hcl:"flip_three,optional"`
	Depth     int   `hcl:"depth,optional"`
}

// WatchSettings controls the observation folder watcher
type WatchSettings struct {
	Dir        string   `hcl:"dir,optional"`
	Interval   string   `hcl:"interval,optional"`
	Settle     string   `hcl:"settle,optional"`
	Extensions []string `hcl:"extensions,optional"`
	MinScore   float64  `hcl:"min_score,optional"`
	Output     string   `hcl:"output,optional"`
}

// ServerSettings controls the HTTP API
type ServerSettings struct {
	Address string   `hcl:"address,optional"`
	Port    int      `hcl:"port,optional"`
	Origins []string `hcl:"allowed_origins,optional"`
}

// StoreSettings controls shoe persistence
type StoreSettings struct {
	Path string `hcl:"path,optional"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load loads configuration from an HCL file. A missing file yields the defaults.
func Load(filename string) (*Config, error) {
	if filename == "" {
		return Default(), nil
	}
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	if c.Engine == nil {
		c.Engine = &EngineSettings{}
	}
	if c.Engine.FlipThree == nil {
		enabled := true
		c.Engine.FlipThree = &enabled
	}
	if c.Engine.Depth == 0 {
		c.Engine.Depth = 1
	}

	if c.Watch == nil {
		c.Watch = &WatchSettings{}
	}
	if c.Watch.Dir == "" {
		c.Watch.Dir = "observations"
	}
	if c.Watch.Interval == "" {
		c.Watch.Interval = "500ms"
	}
	if c.Watch.Settle == "" {
		c.Watch.Settle = "200ms"
	}
	if len(c.Watch.Extensions) == 0 {
		c.Watch.Extensions = []string{".txt", ".json"}
	}
	if c.Watch.MinScore == 0 {
		c.Watch.MinScore = 0.5
	}

	if c.Server == nil {
		c.Server = &ServerSettings{}
	}
	if c.Server.Address == "" {
		c.Server.Address = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8077
	}
	if len(c.Server.Origins) == 0 {
		c.Server.Origins = []string{"*"}
	}

	if c.Store == nil {
		c.Store = &StoreSettings{}
	}
	if c.Store.Path == "" {
		c.Store.Path = "flip7.db"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Engine.Depth < 0 || c.Engine.Depth > 3 {
		return fmt.Errorf("%w: engine depth must be between 0 and 3, got %d", ErrInvalid, c.Engine.Depth)
	}
	if _, err := c.WatchInterval(); err != nil {
		return err
	}
	if _, err := c.WatchSettle(); err != nil {
		return err
	}
	if c.Watch.MinScore < 0 || c.Watch.MinScore > 1 {
		return fmt.Errorf("%w: watch min_score must be between 0 and 1, got %g", ErrInvalid, c.Watch.MinScore)
	}
	for _, ext := range c.Watch.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("%w: watch extension %q must start with a dot", ErrInvalid, ext)
		}
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: invalid port: %d", ErrInvalid, c.Server.Port)
	}
	return nil
}

// WatchInterval returns the parsed poll interval
func (c *Config) WatchInterval() (time.Duration, error) {
	return positiveDuration("watch interval", c.Watch.Interval)
}

// WatchSettle returns how long a new file must sit before it is read
func (c *Config) WatchSettle() (time.Duration, error) {
	d, err := time.ParseDuration(c.Watch.Settle)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: watch settle %q is not a valid duration", ErrInvalid, c.Watch.Settle)
	}
	return d, nil
}

// FlipThreeEnabled reports whether the Flip-Three estimate is computed
func (c *Config) FlipThreeEnabled() bool {
	return c.Engine.FlipThree == nil || *c.Engine.FlipThree
}

// ServerAddress returns the full listen address
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// ParseLevel maps a config level name onto a log level
func ParseLevel(level string) (log.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel, nil
	case "info", "":
		return log.InfoLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	}
	return log.InfoLevel, fmt.Errorf("%w: unknown log level %q", ErrInvalid, level)
}

func positiveDuration(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: %s %q is not a positive duration", ErrInvalid, name, value)
	}
	return d, nil
}
