package kafka

import (
	"encoding/binary"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jittakal/kafgeyser/internal/config"
	"github.com/jittakal/kafgeyser/internal/errors"
	"github.com/jittakal/kafgeyser/internal/events"
	"github.com/jittakal/kafgeyser/internal/metrics"
)

// State is the lifecycle state of a Publisher.
type State int

const (
	StateUninitialized State = iota
	StateConnected
	StateShutDown
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConnected:
		return "connected"
	case StateShutDown:
		return "shut_down"
	default:
		return "unknown"
	}
}

// marshalFunc is swapped in tests to force serialization failures.
type marshalFunc func(v any) ([]byte, error)

// Publisher owns the producer and forwards canonical events to Kafka.
//
// Delivery is best-effort and at-most-once: Publish never waits for an
// acknowledgment and never returns an error to its caller.
type Publisher struct {
	newProducer ProducerFactory
	marshal     marshalFunc
	logger      *zap.Logger
	metrics     *metrics.Collector

	mu            sync.RWMutex
	state         State
	producer      Producer
	address       string
	source        string
	flushInterval time.Duration
	stopPoll      chan struct{}
	pollDone      chan struct{}
}

// PublisherOption customises a Publisher.
type PublisherOption func(*Publisher)

// WithProducerFactory replaces NewProducer as the producer constructor.
func WithProducerFactory(f ProducerFactory) PublisherOption {
	return func(p *Publisher) {
		p.newProducer = f
	}
}

// NewPublisher returns an uninitialized Publisher.
func NewPublisher(logger *zap.Logger, collector *metrics.Collector, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		newProducer: NewProducer,
		marshal:     json.Marshal,
		logger:      logger,
		metrics:     collector,
		state:       StateUninitialized,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Initialize creates the producer. A failure is a *errors.ConnectionError
// and leaves the Publisher uninitialized.
func (p *Publisher) Initialize(cfg *config.Config) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateUninitialized {
		return fmt.Errorf("publisher cannot be initialized from state %s", p.state)
	}

	producer, err := p.newProducer(cfg, p.logger)
	if err != nil {
		var connErr *errors.ConnectionError
		if !stderrors.As(err, &connErr) {
			err = &errors.ConnectionError{Brokers: cfg.KafkaBrokers, Driver: cfg.Driver, Err: err}
		}
		return err
	}

	p.producer = producer
	p.address = cfg.KafkaBrokers
	p.source = cfg.Source
	if p.source == "" {
		p.source = events.DefaultSource
	}
	p.flushInterval = cfg.FlushInterval()
	p.state = StateConnected
	p.metrics.SetConnected(true)

	if p.flushInterval > 0 {
		p.stopPoll = make(chan struct{})
		p.pollDone = make(chan struct{})
		go p.pollLoop(p.flushInterval, p.stopPoll, p.pollDone)
	}

	p.logger.Info("Publisher connected",
		zap.String("brokers", p.address),
		zap.Duration("flushInterval", p.flushInterval),
	)
	return nil
}

// State returns the current lifecycle state.
func (p *Publisher) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Address returns the broker list the publisher was initialized with.
func (p *Publisher) Address() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.address
}

// Publish serializes event and enqueues it to topic under key. Failures are
// logged and counted; the event is dropped.
func (p *Publisher) Publish(topic string, key events.PartitionKey, event events.Event) {
	start := time.Now()
	kind := event.Kind()
	defer func() {
		p.metrics.ObservePublishDuration(kind, time.Since(start).Seconds())
	}()

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.state != StateConnected {
		p.logger.Debug("Dropping event, publisher not connected",
			zap.Error(&errors.DeliveryError{Topic: topic, Slot: event.SlotNumber(), Err: errors.ErrNotConnected}),
			zap.String("state", p.state.String()),
		)
		p.metrics.IncDropped(kind, metrics.ReasonNotConnected)
		return
	}

	msg, err := p.buildMessage(topic, key, event)
	if err != nil {
		p.logger.Error("Failed to serialize event",
			zap.Error(&errors.SerializationError{EventType: event.Type(), Slot: event.SlotNumber(), Err: err}),
			zap.Uint64("slot", event.SlotNumber()),
		)
		p.metrics.IncDropped(kind, metrics.ReasonSerialization)
		return
	}

	if err := p.producer.Enqueue(msg); err != nil {
		reason := metrics.ReasonEnqueue
		if stderrors.Is(err, errors.ErrQueueFull) {
			reason = metrics.ReasonQueueFull
		}
		p.logger.Error("Failed to send to Kafka",
			zap.Error(&errors.DeliveryError{Topic: topic, Slot: event.SlotNumber(), Err: err}),
			zap.String("kind", kind),
		)
		p.metrics.IncDropped(kind, reason)
	} else {
		p.metrics.IncPublished(kind)
		p.logger.Debug("Event enqueued",
			zap.String("topic", topic),
			zap.String("kind", kind),
			zap.Uint64("slot", event.SlotNumber()),
		)
	}

	if p.flushInterval == 0 {
		p.handleReports(p.producer.Poll())
	}
}

func (p *Publisher) buildMessage(topic string, key events.PartitionKey, event events.Event) (*Message, error) {
	payload, err := p.marshal(event)
	if err != nil {
		return nil, err
	}

	ce := cloudevents.NewEvent()
	ce.SetID(uuid.New().String())
	ce.SetType(event.Type())
	ce.SetSource(p.source)
	ce.SetSubject(strconv.FormatUint(event.SlotNumber(), 10))
	ce.SetTime(time.Now().UTC())
	ce.SetDataContentType(events.ContentTypeJSON)
	if err := ce.Validate(); err != nil {
		return nil, fmt.Errorf("invalid CloudEvent envelope: %w", err)
	}

	return &Message{
		Topic: topic,
		Key:   key.Bytes(),
		Value: payload,
		Headers: []Header{
			{Key: "ce_specversion", Value: []byte(ce.SpecVersion())},
			{Key: "ce_type", Value: []byte(ce.Type())},
			{Key: "ce_source", Value: []byte(ce.Source())},
			{Key: "ce_id", Value: []byte(ce.ID())},
			{Key: "ce_subject", Value: []byte(ce.Subject())},
			{Key: "ce_time", Value: []byte(ce.Time().Format(time.RFC3339Nano))},
			{Key: "content-type", Value: []byte(ce.DataContentType())},
		},
	}, nil
}

// pollLoop services delivery reports on a fixed period.
func (p *Publisher) pollLoop(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.mu.RLock()
			if p.state == StateConnected {
				p.handleReports(p.producer.Poll())
			}
			p.mu.RUnlock()
		}
	}
}

func (p *Publisher) handleReports(reports []DeliveryReport) {
	for _, r := range reports {
		var slot uint64
		if len(r.Key) == events.PartitionKeySize {
			slot = binary.BigEndian.Uint64(r.Key)
		}
		p.logger.Error("Kafka delivery failed",
			zap.Error(&errors.DeliveryError{Topic: r.Topic, Slot: slot, Err: r.Err}),
		)
		p.metrics.AddDeliveryFailed(r.Topic, 1)
	}
}

// Shutdown releases the producer. Records still in flight may be lost.
// Calling it more than once is harmless.
func (p *Publisher) Shutdown() error {
	p.mu.Lock()
	if p.state == StateShutDown {
		p.mu.Unlock()
		return nil
	}
	producer, address := p.producer, p.address
	stop, done := p.stopPoll, p.pollDone
	p.state = StateShutDown
	p.producer = nil
	p.stopPoll, p.pollDone = nil, nil
	p.mu.Unlock()

	p.metrics.SetConnected(false)
	if producer == nil {
		return nil
	}

	if stop != nil {
		close(stop)
		<-done
	}
	p.handleReports(producer.Poll())

	if err := producer.Close(); err != nil {
		p.logger.Warn("Kafka producer closed with undelivered records", zap.Error(err))
		return fmt.Errorf("failed to close producer: %w", err)
	}
	p.logger.Info("Publisher shut down", zap.String("brokers", address))
	return nil
}
