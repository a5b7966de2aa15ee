// Package config loads and validates the application's yaml configuration.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v2"
)

// Config represents the entire application configuration.
type Config struct {
	DatabasePath string    `yaml:"database_path"`
	LogLevelStr  string    `yaml:"log_level"` // debug, info, warn or error; default info
	Web          WebConfig `yaml:"web"`
	LogLevel     log.Level // parsed from LogLevelStr
}

// WebConfig holds settings specific to the web server.
type WebConfig struct {
	ListenAddress string `yaml:"listen_address"`

	// TemplatesPath and StaticPath optionally override the embedded template
	// and static file trees with directories on disk, used together with
	// DevelopmentMode for template editing with live reload.
	TemplatesPath   string `yaml:"templates_path"`
	StaticPath      string `yaml:"static_path"`
	DevelopmentMode bool   `yaml:"development_mode"`
}

// Load loads and validates the configuration from the given file path.
func Load(filePath string) (*Config, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", filePath)
	}

	configFile, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	err = yaml.Unmarshal(configFile, &cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to parse YAML config file: %w", err)
	}

	if err := validateAndPrepare(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validateAndPrepare checks for required fields and sets up derived values.
func validateAndPrepare(c *Config) error {
	if c.DatabasePath == "" {
		return errors.New("database_path is missing")
	}
	if c.Web.ListenAddress == "" {
		return errors.New("web.listen_address is missing")
	}
	if c.LogLevelStr == "" {
		c.LogLevelStr = "info"
	}
	level, err := log.ParseLevel(c.LogLevelStr)
	if err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevelStr, err)
	}
	c.LogLevel = level

	// The template and static overrides must both be set or both empty.
	if (c.Web.TemplatesPath == "") != (c.Web.StaticPath == "") {
		return errors.New("web.templates_path and web.static_path must be set together")
	}
	if c.Web.DevelopmentMode && c.Web.TemplatesPath == "" {
		return errors.New("web.development_mode needs web.templates_path and web.static_path")
	}
	return nil
}
