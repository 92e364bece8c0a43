package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	MTP       MTPConfig       `mapstructure:"mtp"`
	Files     FilesConfig     `mapstructure:"files"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	SessionAPIKey  string   `mapstructure:"session_api_key"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// MTPConfig configures the external MTP command-line tool
type MTPConfig struct {
	Bin     string        `mapstructure:"bin"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// FilesConfig holds defaults for file operations
type FilesConfig struct {
	Device       string `mapstructure:"device"`
	IgnoreHidden bool   `mapstructure:"ignore_hidden"`
}

// TelemetryConfig contains telemetry configuration
type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// LogConfig contains logging configuration
type LogConfig struct {
	Level      string `mapstructure:"level"`
	JSON       bool   `mapstructure:"json"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Load loads the configuration from viper
func Load() (*Config, error) {
	cfg := &Config{}

	SetDefaults(viper.GetViper())

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	if err := postProcess(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SetDefaults registers default values and environment bindings on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.allowed_origins", []string{})

	v.SetDefault("mtp.bin", "mtp-cli")
	v.SetDefault("mtp.timeout", time.Duration(0))

	v.SetDefault("files.device", "local")
	v.SetDefault("files.ignore_hidden", true)

	v.SetDefault("telemetry.enabled", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	_ = v.BindEnv("server.session_api_key", "SESSION_API_KEY")
	_ = v.BindEnv("mtp.bin", "MTP_BIN")
	_ = v.BindEnv("telemetry.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func postProcess(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}
	if cfg.MTP.Bin == "" {
		return fmt.Errorf("mtp.bin must not be empty")
	}
	if cfg.MTP.Timeout < 0 {
		return fmt.Errorf("mtp.timeout must not be negative")
	}
	return nil
}
