// Package config loads the weave.yaml configuration file.
package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/toyz/weave/internal/errors"
)

// DefaultPath is the configuration file read when no path is given
const DefaultPath = "weave.yaml"

// Supported inspection server frameworks
const (
	FrameworkEcho  = "echo"
	FrameworkGin   = "gin"
	FrameworkFiber = "fiber"
)

// Config holds the weave configuration
type Config struct {
	LogLevel     string             `yaml:"log_level"`
	Concurrency  int                `yaml:"concurrency"`
	Interceptors InterceptorsConfig `yaml:"interceptors"`
	Inspect      InspectConfig      `yaml:"inspect"`
}

// InterceptorsConfig enables interceptors for the scanned classes
type InterceptorsConfig struct {
	// Enabled lists interceptors in invocation order, after globally enabled ones
	Enabled []string `yaml:"enabled"`
	// Priorities enables interceptors globally, overriding declared priorities
	Priorities map[string]int `yaml:"priorities"`
}

// InspectConfig configures the model inspection server
type InspectConfig struct {
	Address   string `yaml:"address"`
	Framework string `yaml:"framework"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		LogLevel:    "info",
		Concurrency: 4,
		Inspect: InspectConfig{
			Address:   ":8089",
			Framework: FrameworkEcho,
		},
	}
}

// Load reads configuration from path and applies environment overrides.
// An empty path reads DefaultPath when it exists and falls back to the
// defaults otherwise.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := cfg.decode(data); err != nil {
			return nil, errors.WrapConfigurationError("file", "parse "+path, err)
		}
	case !explicit && stderrors.Is(err, fs.ErrNotExist):
	default:
		return nil, errors.WrapConfigurationError("file", "read "+path, err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes configuration from YAML without touching the environment
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return nil, errors.WrapConfigurationError("file", "parse", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !stderrors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if val, ok := lookup("WEAVE_LOG_LEVEL"); ok && val != "" {
		c.LogLevel = val
	}
	if val, ok := lookup("WEAVE_CONCURRENCY"); ok && val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return errors.ConfigurationError("environment", fmt.Sprintf("WEAVE_CONCURRENCY must be an integer, got %q", val))
		}
		c.Concurrency = n
	}
	if val, ok := lookup("WEAVE_INSPECT_ADDRESS"); ok && val != "" {
		c.Inspect.Address = val
	}
	return nil
}

// Validate checks the configuration and fills empty values with defaults
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Concurrency < 0 {
		return errors.ConfigurationError("concurrency", fmt.Sprintf("must not be negative, got %d", c.Concurrency))
	}
	if c.Concurrency == 0 {
		c.Concurrency = Default().Concurrency
	}

	if strings.TrimSpace(c.Inspect.Address) == "" {
		c.Inspect.Address = Default().Inspect.Address
	}
	switch c.Inspect.Framework {
	case "":
		c.Inspect.Framework = FrameworkEcho
	case FrameworkEcho, FrameworkGin, FrameworkFiber:
	default:
		return errors.ConfigurationError("inspect", fmt.Sprintf("unknown framework %q", c.Inspect.Framework)).
			WithSuggestion("Use one of: echo, gin, fiber")
	}

	seen := make(map[string]bool, len(c.Interceptors.Enabled))
	for _, name := range c.Interceptors.Enabled {
		name = strings.TrimSpace(name)
		if name == "" {
			return errors.ConfigurationError("interceptors", "enabled list contains an empty name")
		}
		if seen[name] {
			return errors.ConfigurationError("interceptors", fmt.Sprintf("%s is enabled twice", name))
		}
		seen[name] = true
	}
	return nil
}

// Level returns the slog level of LogLevel
func (c *Config) Level() slog.Level {
	level, _ := ParseLevel(c.LogLevel)
	return level
}

// ParseLevel converts debug, info, warn or error to a slog level
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, errors.ConfigurationError("log_level", fmt.Sprintf("unknown level %q", s)).
			WithSuggestion("Use one of: debug, info, warn, error")
	}
}
