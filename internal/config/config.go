package config

import (
	"fmt"
	"strings"
	"time"
)

// Default values applied when the config file is missing or unusable.
const (
	DefaultBrokers           = "localhost:9092"
	DefaultTopic             = "geyser.events"
	DefaultDriver            = DriverSarama
	DefaultClientID          = "kafgeyser"
	DefaultDeliveryTimeoutMs = 5000
)

// Supported producer drivers.
const (
	DriverSarama  = "sarama"
	DriverKafkaGo = "kafka-go"
)

// Config represents the plugin configuration
type Config struct {
	KafkaBrokers      string              `mapstructure:"kafka_brokers"`
	Topic             string              `mapstructure:"topic"`
	Driver            string              `mapstructure:"driver"`
	ClientID          string              `mapstructure:"client_id"`
	Source            string              `mapstructure:"source"`
	DeliveryTimeoutMs int                 `mapstructure:"delivery_timeout_ms"`
	FlushIntervalMs   int                 `mapstructure:"flush_interval_ms"`
	SecurityProtocol  string              `mapstructure:"security_protocol"` // PLAINTEXT, SSL, SASL_PLAINTEXT, SASL_SSL
	SASLMechanism     string              `mapstructure:"sasl_mechanism"`    // PLAIN, SCRAM-SHA-256, SCRAM-SHA-512, AWS_MSK_IAM
	SASLUsername      string              `mapstructure:"sasl_username"`
	SASLPassword      string              `mapstructure:"sasl_password"`
	TLS               TLSConfig           `mapstructure:"tls"`
	AWSMSK            AWSMSKConfig        `mapstructure:"aws_msk"`
	Producer          ProducerConfig      `mapstructure:"producer"`
	Notifications     NotificationsConfig `mapstructure:"notifications"`
	Simulator         SimulatorConfig     `mapstructure:"simulator"`
}

// TLSConfig represents TLS configuration
type TLSConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	CACertFile         string `mapstructure:"ca_cert_file"`
	ClientCertFile     string `mapstructure:"client_cert_file"`
	ClientKeyFile      string `mapstructure:"client_key_file"`
	InsecureSkipVerify bool   `mapstructure:"insecure_skip_verify"`
}

// AWSMSKConfig represents AWS MSK specific configuration
type AWSMSKConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Region  string `mapstructure:"region"`
}

// ProducerConfig represents Kafka producer tuning
type ProducerConfig struct {
	RequiredAcks     int    `mapstructure:"required_acks"`    // 0=NoResponse, 1=WaitForLocal, -1=WaitForAll
	CompressionType  string `mapstructure:"compression_type"` // none, gzip, snappy, lz4, zstd
	MaxMessageBytes  int    `mapstructure:"max_message_bytes"`
	QueueSize        int    `mapstructure:"queue_size"`
	LingerMs         int    `mapstructure:"linger_ms"`
	RetryMax         int    `mapstructure:"retry_max"`
	RetryBackoffMs   int    `mapstructure:"retry_backoff_ms"`
	IdempotentWrites bool   `mapstructure:"idempotent_writes"`
}

// NotificationsConfig selects which host callbacks the plugin subscribes to
type NotificationsConfig struct {
	Transactions bool `mapstructure:"transactions"`
	Entries      bool `mapstructure:"entries"`
}

// SimulatorConfig drives the synthetic notification generator used by the
// simulate command. The plugin itself ignores it.
type SimulatorConfig struct {
	SlotIntervalMs      int    `mapstructure:"slot_interval_ms"`
	StartSlot           uint64 `mapstructure:"start_slot"`
	TransactionsPerSlot int    `mapstructure:"transactions_per_slot"`
	EntriesPerSlot      int    `mapstructure:"entries_per_slot"`
	VotePercent         int    `mapstructure:"vote_percent"`
	EmptyEntryPercent   int    `mapstructure:"empty_entry_percent"`
	MalformedPercent    int    `mapstructure:"malformed_percent"`
}

// Default returns the configuration used when no usable file is available.
func Default() *Config {
	return &Config{
		KafkaBrokers:      DefaultBrokers,
		Topic:             DefaultTopic,
		Driver:            DefaultDriver,
		ClientID:          DefaultClientID,
		Source:            DefaultClientID,
		DeliveryTimeoutMs: DefaultDeliveryTimeoutMs,
		FlushIntervalMs:   0,
		SecurityProtocol:  "PLAINTEXT",
		Producer: ProducerConfig{
			RequiredAcks:    1,
			CompressionType: "none",
			MaxMessageBytes: 1000000,
			QueueSize:       10000,
			LingerMs:        5,
			RetryMax:        3,
			RetryBackoffMs:  100,
		},
		Notifications: NotificationsConfig{
			Transactions: true,
			Entries:      true,
		},
		Simulator: SimulatorConfig{
			SlotIntervalMs:      400,
			StartSlot:           1,
			TransactionsPerSlot: 20,
			EntriesPerSlot:      8,
			VotePercent:         70,
			EmptyEntryPercent:   40,
			MalformedPercent:    1,
		},
	}
}

// SlotInterval is how often the simulator produces a slot.
func (c *Config) SlotInterval() time.Duration {
	return time.Duration(c.Simulator.SlotIntervalMs) * time.Millisecond
}

// Brokers splits the comma-separated broker list, dropping blanks.
func (c *Config) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// DeliveryTimeout is the per-message delivery bound.
func (c *Config) DeliveryTimeout() time.Duration {
	return time.Duration(c.DeliveryTimeoutMs) * time.Millisecond
}

// FlushInterval is the background poll period; zero polls after every enqueue.
func (c *Config) FlushInterval() time.Duration {
	return time.Duration(c.FlushIntervalMs) * time.Millisecond
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.Brokers()) == 0 {
		return fmt.Errorf("kafka_brokers must list at least one broker")
	}

	if c.Topic == "" {
		return fmt.Errorf("topic must be configured")
	}

	switch c.Driver {
	case DriverSarama, DriverKafkaGo:
	default:
		return fmt.Errorf("unsupported driver: %s", c.Driver)
	}

	if c.DeliveryTimeoutMs <= 0 {
		return fmt.Errorf("delivery_timeout_ms must be greater than 0")
	}

	if c.FlushIntervalMs < 0 {
		return fmt.Errorf("flush_interval_ms cannot be negative")
	}

	switch c.SecurityProtocol {
	case "PLAINTEXT", "SSL", "SASL_PLAINTEXT", "SASL_SSL":
	default:
		return fmt.Errorf("unsupported security protocol: %s", c.SecurityProtocol)
	}

	if c.Producer.QueueSize <= 0 {
		return fmt.Errorf("producer.queue_size must be greater than 0")
	}

	switch c.Producer.RequiredAcks {
	case -1, 0, 1:
	default:
		return fmt.Errorf("invalid producer.required_acks: %d", c.Producer.RequiredAcks)
	}

	return nil
}

// ValidateSimulator checks the simulator section. Only the simulate command
// needs it, so Validate does not call it.
func (c *Config) ValidateSimulator() error {
	s := c.Simulator
	if s.SlotIntervalMs <= 0 {
		return fmt.Errorf("simulator.slot_interval_ms must be greater than 0")
	}
	if s.TransactionsPerSlot < 0 || s.EntriesPerSlot < 0 {
		return fmt.Errorf("simulator per-slot counts cannot be negative")
	}
	for name, pct := range map[string]int{
		"vote_percent":        s.VotePercent,
		"empty_entry_percent": s.EmptyEntryPercent,
		"malformed_percent":   s.MalformedPercent,
	} {
		if pct < 0 || pct > 100 {
			return fmt.Errorf("simulator.%s must be between 0 and 100, got %d", name, pct)
		}
	}
	return nil
}
