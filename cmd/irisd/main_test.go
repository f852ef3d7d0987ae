package main

import (
	"os"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryunzz/iris/internal/config"
)

func TestFlagBindings(t *testing.T) {
	// Simulate the flag setup from main
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("log-level", "info", "Log level")
	fs.String("log-format", "text", "Log format")
	fs.String("config", "", "Config path")
	fs.Int("rescan-interval", 0, "Rescan interval")

	v := viper.New()
	v.SetEnvPrefix("IRIS")
	v.AutomaticEnv()
	v.BindPFlag("logging.level", fs.Lookup("log-level"))
	v.BindPFlag("logging.format", fs.Lookup("log-format"))
	v.BindPFlag("registry.rescan_interval_seconds", fs.Lookup("rescan-interval"))
	v.BindPFlag("config", fs.Lookup("config"))

	assert.Equal(t, "info", v.GetString("logging.level"))
	assert.Equal(t, "text", v.GetString("logging.format"))
	assert.Equal(t, 0, v.GetInt("registry.rescan_interval_seconds"))
	assert.Equal(t, "", v.GetString("config"))

	require.NoError(t, fs.Parse([]string{"--log-level=debug", "--rescan-interval=60"}))
	assert.Equal(t, "debug", v.GetString("logging.level"))
	assert.Equal(t, 60, v.GetInt("registry.rescan_interval_seconds"))
}

func TestConfigDefaults(t *testing.T) {
	tempDir := t.TempDir()

	oldEnv := os.Getenv("XDG_CONFIG_HOME")
	os.Setenv("XDG_CONFIG_HOME", tempDir)
	defer os.Setenv("XDG_CONFIG_HOME", oldEnv)

	// Loads defaults since no file exists in the temp config home
	cfg, err := config.Load(config.DaemonConfigFilename, "")
	require.NoError(t, err)

	assert.Equal(t, config.LogLevelInfo, cfg.Logging.Level)
	assert.Equal(t, config.LogFormatText, cfg.Logging.Format)
	assert.Equal(t, config.DefaultListenAddress, cfg.Server.ListenAddress)
	assert.Equal(t, int(config.DefaultRescanInterval.Seconds()), cfg.Registry.RescanIntervalSeconds)
	assert.Equal(t, config.DefaultInterruptCapacity, cfg.Interrupts.Capacity)
}
