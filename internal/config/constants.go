package config

import "time"

// Common constants shared between the daemon and the control client
const (
	// ConfigDirName is the name of the config directory within XDG_CONFIG_HOME
	ConfigDirName = "iris"

	// DaemonConfigFilename is the base filename for daemon config
	DaemonConfigFilename = "irisd.yaml"

	// ClientConfigFilename is the base filename for client config
	ClientConfigFilename = "irisctl.yaml"

	// DefaultListenAddress is the default HTTP listen address for the
	// interrupt receiver and status API
	DefaultListenAddress = ":5000"
)

// Default timeouts and intervals
const (
	// DefaultRescanInterval is the default interval for mDNS rescans
	DefaultRescanInterval = 30 * time.Second

	// MinRescanInterval is the minimum allowed rescan interval
	MinRescanInterval = 5 * time.Second

	// DefaultStaleWindow is how long a device may go unseen before it is
	// reported offline
	DefaultStaleWindow = 2 * time.Minute

	// DefaultWaitTimeout is how long startup waits for a mandatory device
	DefaultWaitTimeout = 30 * time.Second

	// DefaultListenTimeout bounds a single transcript listen in the main loop
	DefaultListenTimeout = 500 * time.Millisecond

	// DefaultCommandTimeout is the idle timeout for menu states
	DefaultCommandTimeout = 10 * time.Second

	// DefaultIoTTimeout bounds a single HTTP request to a peripheral
	DefaultIoTTimeout = 3 * time.Second
)

// Interrupt queue constraints
const (
	// DefaultInterruptCapacity is the bounded interrupt queue size
	DefaultInterruptCapacity = 100

	// DefaultOverlaySeconds is how long a motion overlay stays on screen
	DefaultOverlaySeconds = 5
)

// Display geometry - must match the Pi display server
const (
	// DisplayLines is the number of text rows on the glasses display
	DisplayLines = 4

	// DisplayWidth is the number of characters per row
	DisplayWidth = 21
)

// Logging constants
const (
	// LogLevelDebug represents debug log level
	LogLevelDebug = "debug"

	// LogLevelInfo represents info log level
	LogLevelInfo = "info"

	// LogLevelWarn represents warning log level
	LogLevelWarn = "warn"

	// LogLevelError represents error log level
	LogLevelError = "error"

	// LogFormatText represents text log format
	LogFormatText = "text"

	// LogFormatJSON represents JSON log format
	LogFormatJSON = "json"
)
