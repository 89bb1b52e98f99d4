package config

import (
	"fmt"

	"github.com/wizzomafizzo/rdaconv/internal/batch"
	"gopkg.in/yaml.v3"
)

// DefaultConfig returns the default rdaconv configuration
func DefaultConfig() *Config {
	return &Config{
		Conversion: ConversionConfig{
			Format:     batch.FormatMARC,
			Workers:    1,
			SortFields: true,
			Progress:   true,
		},
		Logging: LoggingConfig{
			Level:      "error",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     30,
		},
		Journal: JournalConfig{
			Enabled: true,
		},
	}
}

// DefaultConfigYAML returns the default configuration as YAML bytes
func DefaultConfigYAML() ([]byte, error) {
	config := DefaultConfig()
	data, err := yaml.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal default config to YAML: %w", err)
	}
	return data, nil
}
