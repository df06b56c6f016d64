// Package config loads the plugin configuration file.
//
// The file is JSON. A missing or unusable file is never fatal: LoadOrDefault
// falls back to Default() and logs a warning.
package config

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jittakal/kafgeyser/internal/errors"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "KAFGEYSER"

// Loader handles configuration loading and validation
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// Load reads path, applies defaults and env overrides, and validates the
// result. Any failure is returned as a *errors.ConfigError.
func (l *Loader) Load(path string) (*Config, error) {
	l.setDefaults()

	if path == "" {
		return nil, &errors.ConfigError{Path: path, Err: fmt.Errorf("no config file given")}
	}

	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		return nil, &errors.ConfigError{Path: path, Err: fmt.Errorf("failed to read config file: %w", err)}
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, &errors.ConfigError{Path: path, Err: fmt.Errorf("failed to unmarshal config: %w", err)}
	}

	if err := config.Validate(); err != nil {
		return nil, &errors.ConfigError{
			Path:    path,
			Brokers: config.KafkaBrokers,
			Err:     fmt.Errorf("invalid configuration: %w", err),
		}
	}

	return &config, nil
}

// setDefaults mirrors Default() into viper so partial files and env
// overrides are merged on top of it.
func (l *Loader) setDefaults() {
	d := Default()

	l.v.SetDefault("kafka_brokers", d.KafkaBrokers)
	l.v.SetDefault("topic", d.Topic)
	l.v.SetDefault("driver", d.Driver)
	l.v.SetDefault("client_id", d.ClientID)
	l.v.SetDefault("source", d.Source)
	l.v.SetDefault("delivery_timeout_ms", d.DeliveryTimeoutMs)
	l.v.SetDefault("flush_interval_ms", d.FlushIntervalMs)
	l.v.SetDefault("security_protocol", d.SecurityProtocol)
	l.v.SetDefault("sasl_mechanism", "")
	l.v.SetDefault("sasl_username", "")
	l.v.SetDefault("sasl_password", "")

	l.v.SetDefault("tls.enabled", false)
	l.v.SetDefault("tls.ca_cert_file", "")
	l.v.SetDefault("tls.client_cert_file", "")
	l.v.SetDefault("tls.client_key_file", "")
	l.v.SetDefault("tls.insecure_skip_verify", false)

	l.v.SetDefault("aws_msk.enabled", false)
	l.v.SetDefault("aws_msk.region", "")

	l.v.SetDefault("producer.required_acks", d.Producer.RequiredAcks)
	l.v.SetDefault("producer.compression_type", d.Producer.CompressionType)
	l.v.SetDefault("producer.max_message_bytes", d.Producer.MaxMessageBytes)
	l.v.SetDefault("producer.queue_size", d.Producer.QueueSize)
	l.v.SetDefault("producer.linger_ms", d.Producer.LingerMs)
	l.v.SetDefault("producer.retry_max", d.Producer.RetryMax)
	l.v.SetDefault("producer.retry_backoff_ms", d.Producer.RetryBackoffMs)
	l.v.SetDefault("producer.idempotent_writes", d.Producer.IdempotentWrites)

	l.v.SetDefault("notifications.transactions", d.Notifications.Transactions)
	l.v.SetDefault("notifications.entries", d.Notifications.Entries)

	l.v.SetDefault("simulator.slot_interval_ms", d.Simulator.SlotIntervalMs)
	l.v.SetDefault("simulator.start_slot", d.Simulator.StartSlot)
	l.v.SetDefault("simulator.transactions_per_slot", d.Simulator.TransactionsPerSlot)
	l.v.SetDefault("simulator.entries_per_slot", d.Simulator.EntriesPerSlot)
	l.v.SetDefault("simulator.vote_percent", d.Simulator.VotePercent)
	l.v.SetDefault("simulator.empty_entry_percent", d.Simulator.EmptyEntryPercent)
	l.v.SetDefault("simulator.malformed_percent", d.Simulator.MalformedPercent)
}

// LoadOrDefault loads path and falls back to Default() on any error. The
// returned error, if non-nil, is the *errors.ConfigError that was recovered
// from; the returned config is always usable.
//
// The fallback replaces the whole file: an invalid value in any key also
// discards a valid kafka_brokers. The warning names the discarded list.
func LoadOrDefault(path string, logger *zap.Logger) (*Config, error) {
	cfg, err := NewLoader().Load(path)
	if err != nil {
		fields := []zap.Field{
			zap.String("configFile", path),
			zap.String("brokers", DefaultBrokers),
			zap.Error(err),
		}
		var cfgErr *errors.ConfigError
		if stderrors.As(err, &cfgErr) && cfgErr.Brokers != "" {
			fields = append(fields, zap.String("discardedBrokers", cfgErr.Brokers))
		}
		logger.Warn("Using default configuration", fields...)
		return Default(), err
	}

	logger.Info("Configuration loaded",
		zap.String("configFile", path),
		zap.String("brokers", cfg.KafkaBrokers),
		zap.String("topic", cfg.Topic),
		zap.String("driver", cfg.Driver),
	)
	return cfg, nil
}
