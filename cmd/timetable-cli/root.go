package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/pkg/config"
	"github.com/noah-isme/sma-timetable/pkg/logger"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:           "timetable-cli",
	Short:         "Offline course timetable allocation",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func newLogger() *zap.Logger {
	l, err := logger.New(config.EnvDevelopment, config.LogConfig{Level: logLevel, Format: "console"})
	if err != nil {
		return zap.NewNop()
	}
	return l
}
