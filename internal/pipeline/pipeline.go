// Package pipeline turns host notifications into published records:
// normalize, filter, derive the key, publish.
//
// Nothing here returns an error to the host. A notification is either
// handed to the Sink or dropped with a log line and a metric.
package pipeline

import (
	"go.uber.org/zap"

	"github.com/jittakal/kafgeyser/internal/events"
	"github.com/jittakal/kafgeyser/internal/metrics"
	"github.com/jittakal/kafgeyser/internal/replica"
)

// Sink receives canonical events ready for delivery.
type Sink interface {
	Publish(topic string, key events.PartitionKey, event events.Event)
}

// Pipeline forwards notifications to a Sink.
type Pipeline struct {
	topic   string
	sink    Sink
	logger  *zap.Logger
	metrics *metrics.Collector
}

// New creates a pipeline publishing to topic through sink.
func New(topic string, sink Sink, logger *zap.Logger, collector *metrics.Collector) *Pipeline {
	return &Pipeline{
		topic:   topic,
		sink:    sink,
		logger:  logger,
		metrics: collector,
	}
}

// HandleTransaction forwards one transaction notification for slot.
func (p *Pipeline) HandleTransaction(info replica.TransactionInfoVersions, slot uint64) {
	event, err := replica.NormalizeTransaction(info, slot)
	if err != nil {
		p.logger.Warn("Dropping transaction notification",
			zap.Error(err),
			zap.Uint64("slot", slot),
		)
		p.metrics.IncDropped(events.KindTransaction, metrics.ReasonUnsupportedVersion)
		return
	}

	p.sink.Publish(p.topic, events.PartitionKeyFor(event), event)
}

// HandleEntry forwards one entry notification unless it executed nothing.
func (p *Pipeline) HandleEntry(info replica.EntryInfoVersions) {
	event, err := replica.NormalizeEntry(info)
	if err != nil {
		p.logger.Warn("Dropping entry notification", zap.Error(err))
		p.metrics.IncDropped(events.KindEntry, metrics.ReasonUnsupportedVersion)
		return
	}

	if !ShouldPublishEntry(event) {
		p.logger.Debug("Filtered entry without executed transactions",
			zap.Uint64("slot", event.Slot),
			zap.Uint64("index", event.Index),
		)
		p.metrics.IncDropped(events.KindEntry, metrics.ReasonFiltered)
		return
	}

	p.sink.Publish(p.topic, events.PartitionKeyFor(event), event)
}
