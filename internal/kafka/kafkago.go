package kafka

import (
	"context"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/jittakal/kafgeyser/internal/config"
	"github.com/jittakal/kafgeyser/internal/errors"
)

// messageWriter is the part of *kafkago.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// kafkaGoProducer adapts an async kafka-go Writer to Producer.
//
// Enqueue only touches a bounded channel; a single sender goroutine hands
// records to the writer so metadata lookups never run on the caller.
type kafkaGoProducer struct {
	writer  messageWriter
	queue   chan kafkago.Message
	reports chan DeliveryReport
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

var _ Producer = (*kafkaGoProducer)(nil)

func newKafkaGoProducer(brokers []string, cfg *config.Config, logger *zap.Logger) (*kafkaGoProducer, error) {
	transport, err := newKafkaGoTransport(cfg, logger)
	if err != nil {
		return nil, err
	}

	p := newKafkaGoProducerWithWriter(nil, cfg.Producer.QueueSize, cfg.DeliveryTimeout(), logger)
	p.writer = &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequiredAcks(cfg.Producer.RequiredAcks),
		Async:        true,
		BatchTimeout: time.Duration(cfg.Producer.LingerMs) * time.Millisecond,
		BatchBytes:   int64(cfg.Producer.MaxMessageBytes),
		MaxAttempts:  cfg.Producer.RetryMax + 1,
		WriteTimeout: cfg.DeliveryTimeout(),
		ReadTimeout:  cfg.DeliveryTimeout(),
		Compression:  parseKafkaGoCompression(cfg.Producer.CompressionType),
		Transport:    transport,
		Completion:   p.complete,
	}
	go p.run()
	return p, nil
}

// newKafkaGoProducerWithWriter builds the producer around writer without
// starting the sender; callers start it with go p.run().
func newKafkaGoProducerWithWriter(writer messageWriter, queueSize int, timeout time.Duration, logger *zap.Logger) *kafkaGoProducer {
	return &kafkaGoProducer{
		writer:  writer,
		queue:   make(chan kafkago.Message, queueSize),
		reports: make(chan DeliveryReport, queueSize),
		timeout: timeout,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

func newKafkaGoTransport(cfg *config.Config, logger *zap.Logger) (*kafkago.Transport, error) {
	transport := &kafkago.Transport{
		ClientID:    cfg.ClientID,
		DialTimeout: cfg.DeliveryTimeout(),
	}

	if usesTLS(cfg.SecurityProtocol) {
		tlsConfig, err := buildTLSConfig(cfg.TLS, logger)
		if err != nil {
			return nil, err
		}
		transport.TLS = tlsConfig
	}

	mechanism, err := kafkaGoSASL(cfg)
	if err != nil {
		return nil, err
	}
	transport.SASL = mechanism
	return transport, nil
}

func (p *kafkaGoProducer) run() {
	defer close(p.done)
	for msg := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		err := p.writer.WriteMessages(ctx, msg)
		cancel()
		if err != nil {
			p.report(DeliveryReport{Topic: msg.Topic, Key: msg.Key, Err: err})
		}
	}
}

func (p *kafkaGoProducer) Enqueue(msg *Message) error {
	km := kafkago.Message{
		Topic: msg.Topic,
		Key:   msg.Key,
		Value: msg.Value,
	}
	for _, h := range msg.Headers {
		km.Headers = append(km.Headers, kafkago.Header{Key: h.Key, Value: h.Value})
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return errors.ErrPublisherClosed
	}

	select {
	case p.queue <- km:
		return nil
	default:
		return errors.ErrQueueFull
	}
}

// complete is the writer's Completion callback.
func (p *kafkaGoProducer) complete(messages []kafkago.Message, err error) {
	if err == nil {
		return
	}
	for _, m := range messages {
		p.report(DeliveryReport{Topic: m.Topic, Key: m.Key, Err: err})
	}
}

// report queues a failure for Poll, discarding it when nobody is polling.
func (p *kafkaGoProducer) report(r DeliveryReport) {
	select {
	case p.reports <- r:
	default:
		p.logger.Debug("Delivery report discarded, report buffer full", zap.Error(r.Err))
	}
}

func (p *kafkaGoProducer) Poll() []DeliveryReport {
	var reports []DeliveryReport
	for len(reports) < maxPollBatch {
		select {
		case r := <-p.reports:
			reports = append(reports, r)
		default:
			return reports
		}
	}
	return reports
}

func (p *kafkaGoProducer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.done
	return p.writer.Close()
}

// parseKafkaGoCompression parses compression type string
func parseKafkaGoCompression(compressionType string) kafkago.Compression {
	switch compressionType {
	case "gzip":
		return kafkago.Gzip
	case "snappy":
		return kafkago.Snappy
	case "lz4":
		return kafkago.Lz4
	case "zstd":
		return kafkago.Zstd
	default:
		return 0
	}
}
