package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jittakal/kafgeyser/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewLoader().Load(ctx.configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.ValidateSimulator(); err != nil {
				return fmt.Errorf("invalid simulator section: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", ctx.configFile)
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the configuration the plugin would load",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(ctx.configFile, zap.NewNop())
			out := cmd.OutOrStdout()
			if err != nil {
				fmt.Fprintf(out, "Config file unusable, defaults apply: %v\n", err)
			}
			printConfig(out, cfg)
			return nil
		},
	}
}

func printConfig(out io.Writer, cfg *config.Config) {
	password := ""
	if cfg.SASLPassword != "" {
		password = "********"
	}

	rows := [][2]string{
		{"kafka_brokers", cfg.KafkaBrokers},
		{"topic", cfg.Topic},
		{"driver", cfg.Driver},
		{"client_id", cfg.ClientID},
		{"source", cfg.Source},
		{"delivery_timeout", cfg.DeliveryTimeout().String()},
		{"flush_interval", cfg.FlushInterval().String()},
		{"security_protocol", cfg.SecurityProtocol},
		{"sasl_mechanism", cfg.SASLMechanism},
		{"sasl_username", cfg.SASLUsername},
		{"sasl_password", password},
		{"tls.enabled", fmt.Sprint(cfg.TLS.Enabled)},
		{"aws_msk.enabled", fmt.Sprint(cfg.AWSMSK.Enabled)},
		{"producer.required_acks", fmt.Sprint(cfg.Producer.RequiredAcks)},
		{"producer.compression_type", cfg.Producer.CompressionType},
		{"producer.queue_size", fmt.Sprint(cfg.Producer.QueueSize)},
		{"producer.idempotent_writes", fmt.Sprint(cfg.Producer.IdempotentWrites)},
		{"notifications.transactions", fmt.Sprint(cfg.Notifications.Transactions)},
		{"notifications.entries", fmt.Sprint(cfg.Notifications.Entries)},
	}
	for _, row := range rows {
		fmt.Fprintf(out, "%-28s %s\n", row[0], row[1])
	}
}
