package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	geysererrors "github.com/jittakal/kafgeyser/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kafgeyser.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test config file: %v", err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	if loader == nil {
		t.Fatal("expected non-nil loader")
	}
	if loader.v == nil {
		t.Fatal("expected non-nil viper instance")
	}
}

func TestLoader_LoadBrokersVerbatim(t *testing.T) {
	path := writeConfig(t, `{"kafka_brokers":"b1:9092,b2:9092"}`)

	cfg, err := NewLoader().Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.KafkaBrokers != "b1:9092,b2:9092" {
		t.Errorf("KafkaBrokers = %s, want b1:9092,b2:9092", cfg.KafkaBrokers)
	}
	if got := cfg.Brokers(); len(got) != 2 || got[0] != "b1:9092" || got[1] != "b2:9092" {
		t.Errorf("Brokers() = %v, want [b1:9092 b2:9092]", got)
	}

	// Keys absent from the file keep their defaults.
	if cfg.Topic != DefaultTopic {
		t.Errorf("Topic = %s, want %s", cfg.Topic, DefaultTopic)
	}
	if cfg.DeliveryTimeoutMs != DefaultDeliveryTimeoutMs {
		t.Errorf("DeliveryTimeoutMs = %d, want %d", cfg.DeliveryTimeoutMs, DefaultDeliveryTimeoutMs)
	}
	if !cfg.Notifications.Transactions || !cfg.Notifications.Entries {
		t.Error("notifications should be enabled by default")
	}
}

func TestLoader_LoadFullConfig(t *testing.T) {
	path := writeConfig(t, `{
		"kafka_brokers": "k1:9093",
		"topic": "raywatch",
		"driver": "kafka-go",
		"delivery_timeout_ms": 2500,
		"flush_interval_ms": 50,
		"security_protocol": "SASL_SSL",
		"sasl_mechanism": "SCRAM-SHA-512",
		"sasl_username": "svc",
		"sasl_password": "secret",
		"tls": {"enabled": true, "insecure_skip_verify": true},
		"producer": {"compression_type": "zstd", "queue_size": 64, "required_acks": -1},
		"notifications": {"transactions": false}
	}`)

	cfg, err := NewLoader().Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Topic != "raywatch" || cfg.Driver != DriverKafkaGo {
		t.Errorf("Topic/Driver = %s/%s", cfg.Topic, cfg.Driver)
	}
	if cfg.DeliveryTimeout().Milliseconds() != 2500 {
		t.Errorf("DeliveryTimeout() = %v, want 2.5s", cfg.DeliveryTimeout())
	}
	if cfg.FlushInterval().Milliseconds() != 50 {
		t.Errorf("FlushInterval() = %v, want 50ms", cfg.FlushInterval())
	}
	if cfg.SASLMechanism != "SCRAM-SHA-512" || cfg.SASLUsername != "svc" {
		t.Errorf("SASL = %s/%s", cfg.SASLMechanism, cfg.SASLUsername)
	}
	if !cfg.TLS.Enabled || !cfg.TLS.InsecureSkipVerify {
		t.Errorf("TLS = %+v", cfg.TLS)
	}
	if cfg.Producer.CompressionType != "zstd" || cfg.Producer.QueueSize != 64 || cfg.Producer.RequiredAcks != -1 {
		t.Errorf("Producer = %+v", cfg.Producer)
	}
	if cfg.Producer.RetryMax != 3 {
		t.Errorf("Producer.RetryMax = %d, want default 3", cfg.Producer.RetryMax)
	}
	if cfg.Notifications.Transactions || !cfg.Notifications.Entries {
		t.Errorf("Notifications = %+v", cfg.Notifications)
	}
}

func TestLoader_LoadErrors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.json") },
		},
		{
			name: "empty path",
			path: func(t *testing.T) string { return "" },
		},
		{
			name: "malformed json",
			path: func(t *testing.T) string { return writeConfig(t, `{"kafka_brokers":`) },
		},
		{
			name: "empty broker list",
			path: func(t *testing.T) string { return writeConfig(t, `{"kafka_brokers":" , "}`) },
		},
		{
			name: "unknown driver",
			path: func(t *testing.T) string { return writeConfig(t, `{"driver":"franz"}`) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewLoader().Load(tt.path(t))
			if err == nil {
				t.Fatalf("Load() = %+v, want error", cfg)
			}
			var cfgErr *geysererrors.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("error = %T, want *errors.ConfigError", err)
			}
		})
	}
}

func TestLoadOrDefault_Fallback(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.json"), logger)
	if err == nil {
		t.Error("expected recovered ConfigError to be reported")
	}
	if cfg == nil {
		t.Fatal("expected default config")
	}
	if cfg.KafkaBrokers != "localhost:9092" {
		t.Errorf("KafkaBrokers = %s, want localhost:9092", cfg.KafkaBrokers)
	}
	if logs.FilterMessage("Using default configuration").Len() != 1 {
		t.Errorf("expected one fallback warning, got %d logs", logs.Len())
	}
}

func TestLoadOrDefault_InvalidKeyNamesDiscardedBrokers(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	path := writeConfig(t, `{"kafka_brokers":"b1:9092","driver":"franz"}`)

	cfg, err := LoadOrDefault(path, zap.New(core))
	if err == nil {
		t.Fatal("expected recovered ConfigError for an unknown driver")
	}
	if cfg.KafkaBrokers != DefaultBrokers {
		t.Errorf("KafkaBrokers = %s, want %s", cfg.KafkaBrokers, DefaultBrokers)
	}

	warnings := logs.FilterMessage("Using default configuration").All()
	if len(warnings) != 1 {
		t.Fatalf("expected one fallback warning, got %d", len(warnings))
	}
	if got := warnings[0].ContextMap()["discardedBrokers"]; got != "b1:9092" {
		t.Errorf("discardedBrokers = %v, want b1:9092", got)
	}
}

func TestLoadOrDefault_MissingFileHasNoDiscardedBrokers(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	if _, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.json"), zap.New(core)); err == nil {
		t.Fatal("expected recovered ConfigError")
	}
	if _, ok := logs.All()[0].ContextMap()["discardedBrokers"]; ok {
		t.Error("missing file must not report discarded brokers")
	}
}

func TestLoadOrDefault_Success(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	path := writeConfig(t, `{"kafka_brokers":"b1:9092,b2:9092"}`)

	cfg, err := LoadOrDefault(path, zap.New(core))
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.KafkaBrokers != "b1:9092,b2:9092" {
		t.Errorf("KafkaBrokers = %s", cfg.KafkaBrokers)
	}
	if logs.Len() != 0 {
		t.Errorf("expected no warnings, got %d", logs.Len())
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}, wantErr: false},
		{name: "no topic", mutate: func(c *Config) { c.Topic = "" }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.DeliveryTimeoutMs = 0 }, wantErr: true},
		{name: "negative flush", mutate: func(c *Config) { c.FlushIntervalMs = -1 }, wantErr: true},
		{name: "bad protocol", mutate: func(c *Config) { c.SecurityProtocol = "KERBEROS" }, wantErr: true},
		{name: "zero queue", mutate: func(c *Config) { c.Producer.QueueSize = 0 }, wantErr: true},
		{name: "bad acks", mutate: func(c *Config) { c.Producer.RequiredAcks = 2 }, wantErr: true},
		{name: "kafka-go driver", mutate: func(c *Config) { c.Driver = DriverKafkaGo }, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Brokers(t *testing.T) {
	cfg := &Config{KafkaBrokers: " b1:9092 ,, b2:9092,"}
	got := cfg.Brokers()
	if len(got) != 2 || got[0] != "b1:9092" || got[1] != "b2:9092" {
		t.Errorf("Brokers() = %v", got)
	}
}

func TestConfig_ValidateSimulator(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *SimulatorConfig)
		wantErr bool
	}{
		{name: "defaults", mutate: func(s *SimulatorConfig) {}},
		{name: "zero interval", mutate: func(s *SimulatorConfig) { s.SlotIntervalMs = 0 }, wantErr: true},
		{name: "negative entries", mutate: func(s *SimulatorConfig) { s.EntriesPerSlot = -1 }, wantErr: true},
		{name: "vote percent over 100", mutate: func(s *SimulatorConfig) { s.VotePercent = 101 }, wantErr: true},
		{name: "negative malformed percent", mutate: func(s *SimulatorConfig) { s.MalformedPercent = -5 }, wantErr: true},
		{name: "all empty entries", mutate: func(s *SimulatorConfig) { s.EmptyEntryPercent = 100 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg.Simulator)
			if err := cfg.ValidateSimulator(); (err != nil) != tt.wantErr {
				t.Errorf("ValidateSimulator() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoader_SimulatorSection(t *testing.T) {
	path := writeConfig(t, `{"simulator":{"slot_interval_ms":50,"vote_percent":0}}`)

	cfg, err := NewLoader().Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SlotInterval() != 50*time.Millisecond {
		t.Errorf("SlotInterval() = %v, want 50ms", cfg.SlotInterval())
	}
	if cfg.Simulator.VotePercent != 0 {
		t.Errorf("VotePercent = %d, want 0", cfg.Simulator.VotePercent)
	}
	if cfg.Simulator.EntriesPerSlot != Default().Simulator.EntriesPerSlot {
		t.Errorf("EntriesPerSlot = %d, want default", cfg.Simulator.EntriesPerSlot)
	}
}
