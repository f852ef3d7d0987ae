package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ryunzz/iris/internal/config"
	"github.com/ryunzz/iris/internal/server"
	"github.com/ryunzz/iris/internal/utils"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	// Set up Viper for configuration
	v := viper.New()
	v.SetEnvPrefix("IRIS")
	v.AutomaticEnv()

	// Set up command line flags
	pflag.String("log-level", "info", "Log level (debug, info, warn, error)")
	pflag.String("log-format", "text", "Log format (text, json)")
	pflag.String("config", "", "Path to config file")
	pflag.String("listen", "", "HTTP listen address (host:port)")
	pflag.Int("rescan-interval", 0, "Device rescan interval in seconds")
	pflag.Parse()

	// Bind flags to Viper - this ensures flags take precedence
	v.BindPFlag("logging.level", pflag.Lookup("log-level"))
	v.BindPFlag("logging.format", pflag.Lookup("log-format"))
	v.BindPFlag("server.listen_address", pflag.Lookup("listen"))
	v.BindPFlag("registry.rescan_interval_seconds", pflag.Lookup("rescan-interval"))

	// Load configuration
	cfg, err := config.Load("irisd.yaml", v.GetString("config"))
	if err != nil {
		utils.SetupErrorLogger().Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Flags override file values when set
	if lvl := v.GetString("logging.level"); pflag.Lookup("log-level").Changed {
		cfg.Logging.Level = lvl
	}
	if format := v.GetString("logging.format"); pflag.Lookup("log-format").Changed {
		cfg.Logging.Format = format
	}
	if addr := v.GetString("server.listen_address"); addr != "" {
		cfg.Server.ListenAddress = addr
	}
	if ri := v.GetInt("registry.rescan_interval_seconds"); ri > 0 {
		cfg.Registry.RescanIntervalSeconds = config.ValidateRescanInterval(ri)
	}

	// The logfilter-backed logger keeps level and filters adjustable at
	// runtime through the logging API.
	logger := utils.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	logger.Info("Starting irisd",
		"version", version,
		"commit", commit,
		"buildDate", buildDate,
	)

	srv := server.New(logger, cfg, version)
	if err := srv.Start(); err != nil {
		logger.Error("Failed to start server", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-sigChan:
		logger.Info("Shutting down...", "signal", sig.String())
	case err := <-srv.Done():
		// A non-nil error means the main loop never came up, usually
		// because the display device was not reachable.
		if err != nil {
			logger.Error("Main loop exited", "error", err)
			exitCode = 1
		} else {
			logger.Info("Main loop finished, shutting down...")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping server", "error", err)
		exitCode = 1
	}
	os.Exit(exitCode)
}
