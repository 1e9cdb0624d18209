package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the main configuration structure
type Config struct {
	InputDirectory  string        `mapstructure:"input_directory"`
	OutputDirectory string        `mapstructure:"output_directory"`
	Quality         int           `mapstructure:"quality"`
	Optimize        bool          `mapstructure:"optimize"`
	Overwrite       bool          `mapstructure:"overwrite"`
	Workers         int           `mapstructure:"workers"`
	RawExtension    string        `mapstructure:"raw_extension"`
	DecoderCommand  string        `mapstructure:"decoder_command"`
	ShowProgress    bool          `mapstructure:"show_progress"`
	Logging         LoggingConfig `mapstructure:"logging"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		InputDirectory:  "cr3_images",
		OutputDirectory: "png_images",
		Quality:         95,
		Optimize:        true,
		Overwrite:       false,
		Workers:         runtime.NumCPU(),
		RawExtension:    ".cr3",
		DecoderCommand:  "dcraw_emu",
		ShowProgress:    true,
		Logging: LoggingConfig{
			Level:      "info",
			FilePath:   "converter.log",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     30,
			Compress:   true,
		},
	}
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	viper.SetConfigType("yaml")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		// Look for config file in current directory and home directory
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.cr3png")
		viper.AddConfigPath("/etc/cr3png")
	}

	// Enable environment variable support
	viper.SetEnvPrefix("CR3PNG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Try to read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	// Unmarshal config
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate and normalize config
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration and normalizes derived fields.
// Quality and log level are rejected here, before any conversion starts.
func (c *Config) Validate() error {
	if c.InputDirectory == "" {
		return fmt.Errorf("input_directory is required")
	}

	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("quality must be between 1 and 100, got %d", c.Quality)
	}

	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Workers < 1 {
		c.Workers = 1
	}

	c.RawExtension = normalizeExtension(c.RawExtension)
	if c.RawExtension == "." {
		return fmt.Errorf("raw_extension must not be empty")
	}

	if c.DecoderCommand == "" {
		c.DecoderCommand = "dcraw_emu"
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	return nil
}

// InputDirectoryExists returns true if the configured input directory
// exists and is a directory.
func (c *Config) InputDirectoryExists() bool {
	info, err := os.Stat(c.InputDirectory)
	return err == nil && info.IsDir()
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
