package kafka

import (
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"
	"github.com/courtside-live/internal/config"
	"github.com/courtside-live/internal/live"
)

// Publisher writes push frames onto the live frames topic, keyed by game ID
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

// NewPublisher connects a synchronous producer to the configured brokers
func NewPublisher(cfg *config.KafkaConfig, logger *slog.Logger) (*Publisher, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.RequiredAcks = sarama.WaitForLocal
	saramaCfg.Producer.Compression = sarama.CompressionSnappy
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.Return.Errors = true

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("creating producer: %w", err)
	}
	return NewPublisherWithProducer(producer, cfg.Topic, logger), nil
}

// NewPublisherWithProducer wraps an existing producer
func NewPublisherWithProducer(producer sarama.SyncProducer, topic string, logger *slog.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// PublishFrame sends an encoded frame for a game
func (p *Publisher) PublishFrame(gameID string, frame []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(gameID),
		Value: sarama.ByteEncoder(frame),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("publishing frame: %w", err)
	}

	p.logger.Debug("published live frame",
		"game_id", gameID,
		"partition", partition,
		"offset", offset,
	)
	return nil
}

// PublishUpdate encodes data as an update of the given type and sends it
func (p *Publisher) PublishUpdate(gameID string, eventType live.EventType, data interface{}) error {
	frame, err := live.Encode(eventType, data)
	if err != nil {
		return err
	}
	return p.PublishFrame(gameID, frame)
}

// Close flushes and closes the producer
func (p *Publisher) Close() error {
	return p.producer.Close()
}
