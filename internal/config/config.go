package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/wizzomafizzo/rdaconv/internal/batch"
	"github.com/wizzomafizzo/rdaconv/internal/rda"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Conversion ConversionConfig `yaml:"conversion"`
	Rules      RulesConfig      `yaml:"rules"`
	Logging    LoggingConfig    `yaml:"logging"`
	Journal    JournalConfig    `yaml:"journal"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

type ConversionConfig struct {
	Format     string `yaml:"format"`
	Workers    int    `yaml:"workers"`
	SortFields bool   `yaml:"sort_fields"`
	Progress   bool   `yaml:"progress"`
}

type RulesConfig struct {
	Skip []string `yaml:"skip,omitempty"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	Path       string `yaml:"path,omitempty"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
}

type JournalConfig struct {
	Path    string `yaml:"path,omitempty"`
	Enabled bool   `yaml:"enabled"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

var formats = []string{batch.FormatMARC, batch.FormatMARCXML}

func Load(filesystem afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(filesystem, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return LoadFromYAML(data)
}

// LoadOrDefault loads the config at path, returning the defaults when the
// file does not exist.
func LoadOrDefault(filesystem afero.Fs, path string) (*Config, error) {
	config, err := Load(filesystem, path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return config, err
}

// LoadFromYAML parses YAML over the defaults, so omitted keys keep their
// default values.
func LoadFromYAML(data []byte) (*Config, error) {
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) Save(filesystem afero.Fs, path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := afero.WriteFile(filesystem, path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate performs comprehensive config validation
func (c *Config) Validate() error {
	if !slices.Contains(formats, c.Conversion.Format) {
		return fmt.Errorf("invalid format '%s': must be one of: %s, %s",
			c.Conversion.Format, batch.FormatMARC, batch.FormatMARCXML)
	}

	if c.Conversion.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Conversion.Workers)
	}

	for _, name := range c.Rules.Skip {
		if !rda.IsRuleName(name) {
			return fmt.Errorf("unknown rule '%s' in rules.skip: must be one of: %v", name, rda.RuleNames())
		}
	}

	if c.Logging.Level != "" {
		if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
			return fmt.Errorf("invalid logging level '%s': %w", c.Logging.Level, err)
		}
	}

	if c.Logging.MaxSize < 0 || c.Logging.MaxBackups < 0 || c.Logging.MaxAge < 0 {
		return errors.New("logging rotation limits cannot be negative")
	}

	return nil
}

// BatchOptions maps the conversion and rules sections onto converter options.
func (c *Config) BatchOptions() batch.Options {
	opts := batch.DefaultOptions()
	opts.Format = c.Conversion.Format
	opts.Workers = c.Conversion.Workers
	opts.SortFields = c.Conversion.SortFields
	opts.Skip = slices.Clone(c.Rules.Skip)
	return opts
}
