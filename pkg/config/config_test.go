package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Empty(t, cfg.Server.AllowedOrigins)
	assert.Equal(t, "mtp-cli", cfg.MTP.Bin)
	assert.Zero(t, cfg.MTP.Timeout)
	assert.Equal(t, "local", cfg.Files.Device)
	assert.True(t, cfg.Files.IgnoreHidden)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 10, cfg.Log.MaxSizeMB)
}

func TestLoad_Overrides(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	t.Setenv("MTP_BIN", "/opt/kalam/mtp-cli")
	viper.Set("mtp.timeout", "30s")
	viper.Set("files.ignore_hidden", false)
	viper.Set("server.allowed_origins", []string{"http://localhost:3000"})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/opt/kalam/mtp-cli", cfg.MTP.Bin)
	assert.Equal(t, 30*time.Second, cfg.MTP.Timeout)
	assert.False(t, cfg.Files.IgnoreHidden)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set("server.port", 70000)
	_, err := Load()
	assert.Error(t, err)

	viper.Set("server.port", 8000)
	viper.Set("mtp.timeout", "-1s")
	_, err = Load()
	assert.Error(t, err)
}
