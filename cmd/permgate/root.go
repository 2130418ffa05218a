package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/permgate-dev/permgate/internal/config"
)

var (
	cfgFile     string
	catalogDir  string
	manifestDir string
	statePath   string
	usageDB     string
	actingUser  string
	logLevel    string
	logFormat   string
)

// rootCmd is the application entry point.
var rootCmd = &cobra.Command{
	Use:   "permgate",
	Short: "Runtime capability grant management",
	Long: `Permgate manages runtime capability grants for installed applications.
It assembles capability groups from a declarative catalog, applies grant
and revoke decisions per user, drives the low-level operation gates that
enforce them, and keeps an access history for audit.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		setupLogging()
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.permgate/system.yaml)")
	rootCmd.PersistentFlags().StringVar(&catalogDir, "catalog", "", "capability catalog directory")
	rootCmd.PersistentFlags().StringVar(&manifestDir, "manifests", "", "application manifest directory")
	rootCmd.PersistentFlags().StringVar(&statePath, "state", "", "grant state file")
	rootCmd.PersistentFlags().StringVar(&usageDB, "usage-db", "", "access history database (empty: in-memory)")
	rootCmd.PersistentFlags().StringVar(&actingUser, "user", "", "acting user (default from config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text, json")
}

// initConfig fills unset flags from PERMGATE_* environment variables.
func initConfig() {
	viper.SetEnvPrefix("PERMGATE")
	viper.AutomaticEnv()

	fromEnv := func(target *string, key string) {
		if *target == "" {
			*target = viper.GetString(key)
		}
	}
	fromEnv(&cfgFile, "config")
	fromEnv(&catalogDir, "catalog")
	fromEnv(&manifestDir, "manifests")
	fromEnv(&statePath, "state")
	fromEnv(&usageDB, "usage_db")
	fromEnv(&actingUser, "user")
	fromEnv(&logLevel, "log_level")
	fromEnv(&logFormat, "log_format")
}

// setupLogging builds the default logger. Command-line level and format
// win; the config file's log section fills whatever they leave unset.
func setupLogging() {
	level, format := logLevel, logFormat
	if level == "" || format == "" {
		if cfg, err := config.Load(cfgFile); err == nil {
			if level == "" {
				level = cfg.Log.Level
			}
			if format == "" {
				format = cfg.Log.Format
			}
		}
	}

	slogLevel := slog.LevelInfo
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: slogLevel}

	// Using TextHandler for CLI friendliness unless json was asked for
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
