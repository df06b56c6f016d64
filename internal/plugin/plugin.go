// Package plugin is the host-facing surface: load and unload hooks plus the
// two notification callbacks.
package plugin

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/jittakal/kafgeyser/internal/config"
	"github.com/jittakal/kafgeyser/internal/kafka"
	"github.com/jittakal/kafgeyser/internal/metrics"
	"github.com/jittakal/kafgeyser/internal/pipeline"
	"github.com/jittakal/kafgeyser/internal/replica"
)

// Name is the plugin name reported to the host.
const Name = "kafgeyser"

// Plugin forwards host notifications to Kafka.
type Plugin struct {
	logger  *zap.Logger
	metrics *metrics.Collector
	opts    []kafka.PublisherOption

	mu        sync.RWMutex
	cfg       *config.Config
	publisher *kafka.Publisher
	pipeline  *pipeline.Pipeline
}

// Option customises a Plugin.
type Option func(*Plugin)

// WithPublisherOptions passes opts to every Publisher the plugin creates.
func WithPublisherOptions(opts ...kafka.PublisherOption) Option {
	return func(p *Plugin) {
		p.opts = append(p.opts, opts...)
	}
}

// New creates an unloaded plugin. Metrics are registered with registerer.
func New(logger *zap.Logger, registerer prometheus.Registerer, opts ...Option) *Plugin {
	p := &Plugin{
		logger:  logger,
		metrics: metrics.NewCollector(registerer),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return Name
}

// OnLoad reads the configuration at configPath and connects the publisher.
//
// Configuration problems fall back to defaults and are not returned. A
// producer that cannot be created is fatal: the error is returned and the
// plugin stays inactive. On reload the previous publisher is shut down first.
func (p *Plugin) OnLoad(configPath string, isReload bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.publisher != nil {
		p.teardown()
	}

	cfg, _ := config.LoadOrDefault(configPath, p.logger)

	publisher := kafka.NewPublisher(p.logger, p.metrics, p.opts...)
	if err := publisher.Initialize(cfg); err != nil {
		p.logger.Error("Failed to create Kafka producer",
			zap.String("brokers", cfg.KafkaBrokers),
			zap.Error(err),
		)
		return fmt.Errorf("failed to load plugin %s: %w", Name, err)
	}

	p.cfg = cfg
	p.publisher = publisher
	p.pipeline = pipeline.New(cfg.Topic, publisher, p.logger, p.metrics)

	p.logger.Info("Plugin loaded",
		zap.String("plugin", Name),
		zap.Bool("reload", isReload),
		zap.String("brokers", cfg.KafkaBrokers),
		zap.String("topic", cfg.Topic),
	)
	return nil
}

// OnUnload shuts the publisher down. Undelivered records are lost.
func (p *Plugin) OnUnload() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.publisher == nil {
		return
	}
	p.teardown()
	p.logger.Info("Plugin unloaded", zap.String("plugin", Name))
}

// teardown requires p.mu held for writing.
func (p *Plugin) teardown() {
	if err := p.publisher.Shutdown(); err != nil {
		p.logger.Warn("Publisher shutdown reported an error", zap.Error(err))
	}
	p.publisher = nil
	p.pipeline = nil
	p.cfg = nil
}

// NotifyTransaction forwards a transaction notification. It always returns
// nil; failures are logged and counted.
func (p *Plugin) NotifyTransaction(info replica.TransactionInfoVersions, slot uint64) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.pipeline != nil {
		p.pipeline.HandleTransaction(info, slot)
	}
	return nil
}

// NotifyEntry forwards an entry notification. It always returns nil.
func (p *Plugin) NotifyEntry(info replica.EntryInfoVersions) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.pipeline != nil {
		p.pipeline.HandleEntry(info)
	}
	return nil
}

// TransactionNotificationsEnabled reports whether the host should deliver
// transaction notifications.
func (p *Plugin) TransactionNotificationsEnabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg != nil && p.cfg.Notifications.Transactions
}

// EntryNotificationsEnabled reports whether the host should deliver entry
// notifications.
func (p *Plugin) EntryNotificationsEnabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg != nil && p.cfg.Notifications.Entries
}

// Publisher exposes the active publisher, or nil when the plugin is not loaded.
func (p *Plugin) Publisher() *kafka.Publisher {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.publisher
}

// Config returns the active configuration, or nil when the plugin is not loaded.
func (p *Plugin) Config() *config.Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg
}
