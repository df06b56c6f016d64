package kafka

import (
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/jittakal/kafgeyser/internal/config"
	"github.com/jittakal/kafgeyser/internal/errors"
)

// maxPollBatch bounds the work done by a single Poll.
const maxPollBatch = 1024

// saramaProducer adapts sarama.AsyncProducer to Producer.
//
// sarama's Input channel is unbuffered, so Enqueue writes to a bounded local
// queue and a single forwarder goroutine feeds Input.
type saramaProducer struct {
	producer sarama.AsyncProducer
	queue    chan *sarama.ProducerMessage

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

var _ Producer = (*saramaProducer)(nil)

func newSaramaProducer(brokers []string, cfg *config.Config, logger *zap.Logger) (*saramaProducer, error) {
	saramaConfig, err := newSaramaConfig(cfg, logger)
	if err != nil {
		return nil, err
	}

	producer, err := sarama.NewAsyncProducer(brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return wrapSaramaProducer(producer, cfg.Producer.QueueSize), nil
}

// wrapSaramaProducer starts the forwarder for producer.
func wrapSaramaProducer(producer sarama.AsyncProducer, queueSize int) *saramaProducer {
	p := &saramaProducer{
		producer: producer,
		queue:    make(chan *sarama.ProducerMessage, queueSize),
		done:     make(chan struct{}),
	}
	go p.forward()
	return p
}

func (p *saramaProducer) forward() {
	defer close(p.done)
	for msg := range p.queue {
		p.producer.Input() <- msg
	}
}

// newSaramaConfig translates cfg into a sarama producer configuration.
func newSaramaConfig(cfg *config.Config, logger *zap.Logger) (*sarama.Config, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.ClientID = cfg.ClientID

	// Successes are never awaited; errors are drained by Poll.
	saramaConfig.Producer.Return.Successes = false
	saramaConfig.Producer.Return.Errors = true

	saramaConfig.Producer.RequiredAcks = sarama.RequiredAcks(cfg.Producer.RequiredAcks)
	saramaConfig.Producer.Compression = parseCompressionType(cfg.Producer.CompressionType)
	saramaConfig.Producer.MaxMessageBytes = cfg.Producer.MaxMessageBytes
	saramaConfig.Producer.Retry.Max = cfg.Producer.RetryMax
	saramaConfig.Producer.Retry.Backoff = time.Duration(cfg.Producer.RetryBackoffMs) * time.Millisecond
	saramaConfig.Producer.Flush.Frequency = time.Duration(cfg.Producer.LingerMs) * time.Millisecond
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner
	saramaConfig.ChannelBufferSize = cfg.Producer.QueueSize

	// Connect lazily: an unavailable cluster surfaces as delivery failures.
	saramaConfig.Metadata.Full = false

	// Bound every delivery attempt by the configured timeout.
	saramaConfig.Producer.Timeout = cfg.DeliveryTimeout()
	saramaConfig.Net.DialTimeout = cfg.DeliveryTimeout()
	saramaConfig.Net.WriteTimeout = cfg.DeliveryTimeout()
	saramaConfig.Net.ReadTimeout = cfg.DeliveryTimeout()

	// Idempotent producer requires Net.MaxOpenRequests to be 1
	if cfg.Producer.IdempotentWrites {
		saramaConfig.Version = sarama.V2_8_0_0
		saramaConfig.Producer.Idempotent = true
		saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
		saramaConfig.Net.MaxOpenRequests = 1
	}

	if err := configureSaramaSecurity(saramaConfig, cfg, logger); err != nil {
		return nil, fmt.Errorf("failed to configure security: %w", err)
	}
	return saramaConfig, nil
}

func (p *saramaProducer) Enqueue(msg *Message) error {
	pm := &sarama.ProducerMessage{
		Topic: msg.Topic,
		Key:   sarama.ByteEncoder(msg.Key),
		Value: sarama.ByteEncoder(msg.Value),
	}
	for _, h := range msg.Headers {
		pm.Headers = append(pm.Headers, sarama.RecordHeader{Key: []byte(h.Key), Value: h.Value})
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return errors.ErrPublisherClosed
	}

	select {
	case p.queue <- pm:
		return nil
	default:
		return errors.ErrQueueFull
	}
}

func (p *saramaProducer) Poll() []DeliveryReport {
	var reports []DeliveryReport
	for len(reports) < maxPollBatch {
		select {
		case perr, ok := <-p.producer.Errors():
			if !ok {
				return reports
			}
			reports = append(reports, saramaReport(perr))
		default:
			return reports
		}
	}
	return reports
}

// Close hands the queued records to sarama, then closes the producer.
func (p *saramaProducer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.done
	return p.producer.Close()
}

func saramaReport(perr *sarama.ProducerError) DeliveryReport {
	report := DeliveryReport{Err: perr.Err}
	if perr.Msg != nil {
		report.Topic = perr.Msg.Topic
		if perr.Msg.Key != nil {
			if key, err := perr.Msg.Key.Encode(); err == nil {
				report.Key = key
			}
		}
	}
	return report
}

// parseCompressionType parses compression type string
func parseCompressionType(compressionType string) sarama.CompressionCodec {
	switch compressionType {
	case "gzip":
		return sarama.CompressionGZIP
	case "snappy":
		return sarama.CompressionSnappy
	case "lz4":
		return sarama.CompressionLZ4
	case "zstd":
		return sarama.CompressionZSTD
	default:
		return sarama.CompressionNone
	}
}
