// Package kafka implements the broker side of the pipeline: the Publisher
// state machine and the producer drivers it enqueues records to.
package kafka

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jittakal/kafgeyser/internal/config"
	"github.com/jittakal/kafgeyser/internal/errors"
)

// Header is a Kafka record header.
type Header struct {
	Key   string
	Value []byte
}

// Message is one keyed record handed to a producer.
type Message struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers []Header
}

// DeliveryReport describes a record the producer failed to deliver.
type DeliveryReport struct {
	Topic string
	Key   []byte
	Err   error
}

// Producer is the broker client capability the Publisher depends on.
//
// Enqueue and Poll never wait on the network. Both are safe for concurrent
// use; Close must not race with Enqueue.
type Producer interface {
	// Enqueue hands msg to the client's send queue. It returns
	// errors.ErrQueueFull instead of blocking when the queue is full.
	Enqueue(msg *Message) error
	// Poll returns failures the client reported since the last poll.
	Poll() []DeliveryReport
	// Close releases the client. Records not yet transmitted may be lost.
	Close() error
}

// ProducerFactory builds a Producer for cfg.
type ProducerFactory func(cfg *config.Config, logger *zap.Logger) (Producer, error)

// NewProducer creates the producer selected by cfg.Driver. Failures are
// returned as *errors.ConnectionError.
func NewProducer(cfg *config.Config, logger *zap.Logger) (Producer, error) {
	brokers := cfg.Brokers()
	if len(brokers) == 0 {
		return nil, &errors.ConnectionError{Brokers: cfg.KafkaBrokers, Driver: cfg.Driver, Err: errors.ErrNoBrokers}
	}

	var (
		producer Producer
		err      error
	)
	switch cfg.Driver {
	case config.DriverSarama, "":
		producer, err = newSaramaProducer(brokers, cfg, logger)
	case config.DriverKafkaGo:
		producer, err = newKafkaGoProducer(brokers, cfg, logger)
	default:
		err = fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}
	if err != nil {
		return nil, &errors.ConnectionError{Brokers: cfg.KafkaBrokers, Driver: cfg.Driver, Err: err}
	}

	logger.Info("Kafka producer created successfully",
		zap.Strings("brokers", brokers),
		zap.String("driver", cfg.Driver),
		zap.String("securityProtocol", cfg.SecurityProtocol),
	)
	return producer, nil
}
