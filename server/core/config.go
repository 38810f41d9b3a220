package core

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ServerSettings holds the relay server's own identity and listen port.
type ServerSettings struct {
	// Name is the display name shown in the master directory.
	Name string `mapstructure:"name"`
	// Port is the WebSocket listen port.
	Port uint `mapstructure:"port"`
	// Address is the externally reachable "host:port" advertised to
	// the master. Empty disables master registration.
	Address string `mapstructure:"address"`
	// Version is the protocol version reported to the master.
	Version string `mapstructure:"version"`
}

// MasterSettings holds the master directory endpoint.
type MasterSettings struct {
	// URL is the master base URL, e.g. "http://master:8080". Empty
	// disables registration.
	URL string `mapstructure:"url"`
}

// LoggingSettings holds structured logging options.
type LoggingSettings struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is "json" or "console".
	Format string `mapstructure:"format"`
}

// Config is the top-level relay server configuration.
type Config struct {
	Server  ServerSettings  `mapstructure:"server"`
	Master  MasterSettings  `mapstructure:"master"`
	Logging LoggingSettings `mapstructure:"logging"`
}

// Validate checks configuration invariants.
func (c Config) Validate() error {
	var errs []string

	if c.Server.Name == "" {
		errs = append(errs, "server.name must not be empty")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		errs = append(errs, fmt.Sprintf("logging.level must be one of [debug, info, warn, error], got %q", c.Logging.Level))
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[c.Logging.Format] {
		errs = append(errs, fmt.Sprintf("logging.format must be one of [json, console], got %q", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "Starfray Server")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.address", "")
	v.SetDefault("server.version", "")
	v.SetDefault("master.url", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// LoadConfig reads configuration from the given file path (optional),
// applies STARFRAY_-prefixed environment overrides, and validates the
// result. An empty path uses defaults and environment only.
func LoadConfig(path string) (Config, error) {
	v := viper.New()

	v.SetEnvPrefix("STARFRAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
