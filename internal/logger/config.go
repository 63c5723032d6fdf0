package logger

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds logging configuration
type Config struct {
	Level          string `yaml:"level" env:"BALANCE_LOG_LEVEL"`
	ConsoleEnabled bool   `yaml:"console_enabled" env:"BALANCE_LOG_CONSOLE_ENABLED"`
	ConsoleFormat  string `yaml:"console_format" env:"BALANCE_LOG_CONSOLE_FORMAT"`
	FileEnabled    bool   `yaml:"file_enabled" env:"BALANCE_LOG_FILE_ENABLED"`
	FilePath       string `yaml:"file_path" env:"BALANCE_LOG_FILE_PATH"`
	FileFormat     string `yaml:"file_format" env:"BALANCE_LOG_FILE_FORMAT"`
	FileMaxSizeMB  int    `yaml:"file_max_size_mb" env:"BALANCE_LOG_FILE_MAX_SIZE_MB"`
	FileMaxBackups int    `yaml:"file_max_backups" env:"BALANCE_LOG_FILE_MAX_BACKUPS"`
	FileMaxAgeDays int    `yaml:"file_max_age_days" env:"BALANCE_LOG_FILE_MAX_AGE_DAYS"`
	FileCompress   bool   `yaml:"file_compress" env:"BALANCE_LOG_FILE_COMPRESS"`
}

// LoggingConfig wraps the Config for YAML parsing
type LoggingConfig struct {
	Logging Config `yaml:"logging"`
}

// DefaultConfig logs INFO text to the console only.
func DefaultConfig() Config {
	return Config{
		Level:          "INFO",
		ConsoleEnabled: true,
		ConsoleFormat:  "text",
		FileEnabled:    false,
		FilePath:       "logs/balance.log",
		FileFormat:     "json",
		FileMaxSizeMB:  10,
		FileMaxBackups: 5,
		FileMaxAgeDays: 30,
	}
}

// LoadConfig reads the logging block of a YAML file over the defaults, then
// applies BALANCE_LOG_* environment overrides. A missing or unreadable file
// leaves the defaults in place.
func LoadConfig(configPath string) (Config, error) {
	wrapper := LoggingConfig{Logging: DefaultConfig()}

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := yaml.Unmarshal(data, &wrapper); err != nil {
				// keep going with defaults; the service config loader reports parse errors
				wrapper.Logging = DefaultConfig()
			}
		}
	}

	config := wrapper.Logging
	if err := env.Parse(&config); err != nil {
		return DefaultConfig(), fmt.Errorf("parse logging env: %w", err)
	}
	return config, nil
}
