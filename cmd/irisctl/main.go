package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/viper"

	"github.com/ryunzz/iris/cmd/irisctl/commands"
	"github.com/ryunzz/iris/internal/config"
	"github.com/ryunzz/iris/internal/utils"
	"github.com/ryunzz/iris/pkg/client"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	// Load configuration first
	cfg, err := config.Load(config.ClientConfigFilename, "")
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			logger := utils.SetupErrorLogger()
			logger.Error("failed to load configuration", "error", err)
			os.Exit(1)
		}
		cfg = &config.Config{}
		cfg.Logging.Level = config.LogLevelInfo
		cfg.Logging.Format = config.LogFormatText
	}

	logger := utils.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	rootCmd := commands.NewRootCommand(logger, version, commit, buildDate)

	// The daemon address comes from config unless the flag overrides it
	server := "http://localhost:5000"
	if cfg.Server.ListenAddress != "" && cfg.Server.ListenAddress != config.DefaultListenAddress {
		server = "http://" + cfg.Server.ListenAddress
	}
	if serverFlag, _ := rootCmd.PersistentFlags().GetString("server"); serverFlag != "" {
		server = serverFlag
	}

	apiClient := client.New(logger, server)

	ctx := rootCmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, commands.ClientContextKey, apiClient)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
