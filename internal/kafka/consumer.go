package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/jittakal/kafgeyser/internal/config"
	"github.com/jittakal/kafgeyser/internal/errors"
	"github.com/jittakal/kafgeyser/internal/events"
)

// Record is one published event read back from the topic.
type Record struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       events.PartitionKey
	ID        string
	Event     events.Event
}

// RecordHandler receives every record a Tailer decodes.
type RecordHandler func(Record)

// TailerOptions selects where a Tailer starts reading.
type TailerOptions struct {
	Group         string
	FromBeginning bool
}

// Tailer reads the plugin's topic through a consumer group and decodes the
// records it finds.
type Tailer struct {
	client  sarama.ConsumerGroup
	topic   string
	logger  *zap.Logger
	handler *tailHandler
}

// NewTailer creates a consumer group member for cfg.Topic.
func NewTailer(cfg *config.Config, opts TailerOptions, handle RecordHandler, logger *zap.Logger) (*Tailer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.ClientID = cfg.ClientID
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	if opts.FromBeginning {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	}
	saramaConfig.Consumer.Group.Session.Timeout = 10 * time.Second
	saramaConfig.Consumer.Group.Heartbeat.Interval = 3 * time.Second
	saramaConfig.Net.DialTimeout = cfg.DeliveryTimeout()

	if err := configureSaramaSecurity(saramaConfig, cfg, logger); err != nil {
		return nil, fmt.Errorf("failed to configure security: %w", err)
	}

	client, err := sarama.NewConsumerGroup(cfg.Brokers(), opts.Group, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	logger.Info("Kafka consumer created successfully",
		zap.Strings("brokers", cfg.Brokers()),
		zap.String("consumerGroup", opts.Group),
		zap.String("topic", cfg.Topic),
	)

	return &Tailer{
		client:  client,
		topic:   cfg.Topic,
		logger:  logger,
		handler: &tailHandler{logger: logger, handle: handle},
	}, nil
}

// Run consumes until ctx is cancelled, then closes the group.
func (t *Tailer) Run(ctx context.Context) error {
	go func() {
		for err := range t.client.Errors() {
			t.logger.Error("Error from consumer", zap.Error(err))
		}
	}()

	for {
		// Consume returns on every rebalance and must be called again.
		if err := t.client.Consume(ctx, []string{t.topic}, t.handler); err != nil {
			t.logger.Error("Error from consumer", zap.Error(err))
		}
		if ctx.Err() != nil {
			break
		}
	}

	if err := t.client.Close(); err != nil {
		return fmt.Errorf("failed to close consumer: %w", err)
	}
	t.logger.Info("Kafka consumer stopped successfully")
	return nil
}

// tailHandler implements sarama.ConsumerGroupHandler
type tailHandler struct {
	logger *zap.Logger
	handle RecordHandler
}

func (h *tailHandler) Setup(sarama.ConsumerGroupSession) error {
	h.logger.Debug("Consumer group session started")
	return nil
}

func (h *tailHandler) Cleanup(sarama.ConsumerGroupSession) error {
	h.logger.Debug("Consumer group session ended")
	return nil
}

func (h *tailHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			h.processMessage(message)
			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *tailHandler) processMessage(msg *sarama.ConsumerMessage) {
	record, err := DecodeRecord(msg)
	if err != nil {
		h.logger.Warn("Skipping undecodable record",
			zap.Error(err),
			zap.String("topic", msg.Topic),
			zap.Int32("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
		)
		return
	}
	h.handle(record)
}

// DecodeRecord turns a consumed message back into a canonical event. The
// CloudEvents headers must be complete, the event type comes from ce_type
// and the key must agree with the payload slot.
func DecodeRecord(msg *sarama.ConsumerMessage) (Record, error) {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		if h != nil {
			headers[string(h.Key)] = string(h.Value)
		}
	}

	key, err := events.ParsePartitionKey(msg.Key)
	if err != nil {
		return Record{}, err
	}

	if err := validateEnvelope(headers); err != nil {
		return Record{}, err
	}

	event, err := events.Decode(headers["ce_type"], msg.Value)
	if err != nil {
		return Record{}, err
	}
	if event.SlotNumber() != key.Slot() {
		return Record{}, fmt.Errorf("key slot %d does not match payload slot %d", key.Slot(), event.SlotNumber())
	}

	return Record{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Key:       key,
		ID:        headers["ce_id"],
		Event:     event,
	}, nil
}

// validateEnvelope checks the required CloudEvents attributes.
func validateEnvelope(headers map[string]string) error {
	id := headers["ce_id"]
	for _, field := range []string{"id", "source", "specversion", "type"} {
		if headers["ce_"+field] == "" {
			return &errors.ValidationError{EventID: id, Field: field, Reason: "required field is missing"}
		}
	}
	if v := headers["ce_specversion"]; v != "1.0" {
		return &errors.ValidationError{
			EventID: id,
			Field:   "specversion",
			Reason:  fmt.Sprintf("unsupported version: %s (supported: 1.0)", v),
		}
	}
	return nil
}
