package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jittakal/kafgeyser/internal/plugin"
)

// commandContext carries the persistent flags and test hooks shared by
// every subcommand.
type commandContext struct {
	configFile  string
	logLevel    string
	metricsPort string

	pluginOptions []plugin.Option
	newLogger     func(level string) (*zap.Logger, error)
}

func newRootCommand(opts ...plugin.Option) *cobra.Command {
	ctx := &commandContext{
		pluginOptions: opts,
		newLogger:     initLogger,
	}

	rootCmd := &cobra.Command{
		Use:           "kafgeyser",
		Short:         "Forward validator notifications to Kafka",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configFile, "config", "c", getEnv("CONFIG_FILE", "config/kafgeyser.json"), "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&ctx.logLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&ctx.metricsPort, "metrics-port", getEnv("METRICS_PORT", "9090"), "Prometheus metrics port (empty disables the server)")

	rootCmd.AddCommand(newSimulateCommand(ctx))
	rootCmd.AddCommand(newTailCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
