package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Logging    LoggingConfig
	Server     ServerConfig
	Audio      AudioConfig
	Parser     ParserConfig
	Registry   RegistryConfig
	Interrupts InterruptsConfig
	IoT        IoTConfig
	Todo       TodoConfig
	Weather    WeatherConfig
	Translate  TranslateConfig

	// ManualDevices holds static fallback device entries keyed by device type.
	ManualDevices map[string]ManualDevice `mapstructure:"manual_devices"`

	// Internal viper instance
	v *viper.Viper
}

// LoggingConfig represents the logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	ListenAddress string `mapstructure:"listen_address"`
}

// AudioConfig represents the audio source configuration
type AudioConfig struct {
	ListenTimeoutMs int `mapstructure:"listen_timeout_ms"` // Bound on a single transcript listen
}

// ParserConfig represents the command parser configuration
type ParserConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"` // Idle timeout for menu states
}

// RegistryConfig represents the device registry configuration
type RegistryConfig struct {
	StaleWindowSeconds    int `mapstructure:"stale_window_seconds"`    // Unseen-for window before a device reads offline
	RescanIntervalSeconds int `mapstructure:"rescan_interval_seconds"` // Background mDNS rescan cadence
	WaitTimeoutSeconds    int `mapstructure:"wait_timeout_seconds"`    // Startup wait for mandatory devices
}

// InterruptsConfig represents the interrupt queue configuration
type InterruptsConfig struct {
	Capacity       int `mapstructure:"capacity"`
	OverlaySeconds int `mapstructure:"overlay_seconds"`
}

// IoTConfig represents the peripheral HTTP client configuration
type IoTConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// TodoConfig represents the todo store configuration
type TodoConfig struct {
	File string
}

// WeatherConfig represents the weather provider configuration
type WeatherConfig struct {
	APIKey    string  `mapstructure:"api_key"`
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
	City      string
}

// TranslateConfig represents the translation provider configuration
type TranslateConfig struct {
	APIKey     string `mapstructure:"api_key"`
	SourceLang string `mapstructure:"source_lang"`
	TargetLang string `mapstructure:"target_lang"`
}

// ManualDevice is a static fallback device entry. Entries are only used when
// discovery has not already produced a live record for the same type, and
// only after the address passes IPv4 validation.
type ManualDevice struct {
	Name string
	IP   string
	Port int
}

// Load loads configuration from a file and environment variables
func Load(configName, configFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("yaml")

	// Set default values
	v.SetDefault("logging.level", LogLevelInfo)
	v.SetDefault("logging.format", LogFormatText)
	v.SetDefault("server.listen_address", DefaultListenAddress)
	v.SetDefault("audio.listen_timeout_ms", int(DefaultListenTimeout.Milliseconds()))
	v.SetDefault("parser.timeout_seconds", int(DefaultCommandTimeout.Seconds()))
	v.SetDefault("registry.stale_window_seconds", int(DefaultStaleWindow.Seconds()))
	v.SetDefault("registry.rescan_interval_seconds", int(DefaultRescanInterval.Seconds()))
	v.SetDefault("registry.wait_timeout_seconds", int(DefaultWaitTimeout.Seconds()))
	v.SetDefault("interrupts.capacity", DefaultInterruptCapacity)
	v.SetDefault("interrupts.overlay_seconds", DefaultOverlaySeconds)
	v.SetDefault("iot.timeout_seconds", int(DefaultIoTTimeout.Seconds()))
	v.SetDefault("todo.file", "todos.json")
	v.SetDefault("weather.api_key", "")
	v.SetDefault("weather.latitude", 30.6280)
	v.SetDefault("weather.longitude", -96.3344)
	v.SetDefault("weather.city", "College Station, TX")
	v.SetDefault("translate.api_key", "")
	v.SetDefault("translate.source_lang", "en")
	v.SetDefault("translate.target_lang", "fr")

	// Add config paths
	if configFile != "" {
		v.SetConfigFile(configFile)
		slog.Info("Using config file from command line", "path", configFile)
	} else {
		configPath := GetConfigPath(configName)
		v.SetConfigFile(configPath)

		// Create config directory if it doesn't exist
		configDir := GetConfigBaseDir()
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return nil, fmt.Errorf("error creating config directory: %w", err)
		}

		// Only log if config file exists
		if _, err := os.Stat(configPath); err == nil {
			slog.Info("Using default config file", "path", configPath)
		}
	}

	// Read config file - Viper will use defaults if file not found
	v.ReadInConfig()

	// Bind environment variables
	v.SetEnvPrefix("IRIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{v: v}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.Registry.RescanIntervalSeconds = ValidateRescanInterval(cfg.Registry.RescanIntervalSeconds)

	return cfg, nil
}

// Get retrieves a value from the configuration
func (c *Config) Get(key string) interface{} {
	if c.v == nil {
		return nil
	}
	return c.v.Get(key)
}
