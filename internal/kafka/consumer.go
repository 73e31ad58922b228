package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/IBM/sarama"
	"github.com/courtside-live/internal/config"
	"github.com/courtside-live/internal/domain"
	"github.com/courtside-live/internal/live"
	"github.com/google/uuid"
)

// GroupFactory creates a consumer group; replaced in tests
type GroupFactory func(brokers []string, groupID string, cfg *sarama.Config) (sarama.ConsumerGroup, error)

// Transport delivers a game's push frames from a Kafka topic. Frames are
// keyed by game ID; every open joins a fresh consumer group so each view
// sees the whole stream from the newest offset.
type Transport struct {
	config   *config.KafkaConfig
	logger   *slog.Logger
	newGroup GroupFactory
}

// NewTransport creates a Kafka transport
func NewTransport(cfg *config.KafkaConfig, logger *slog.Logger) *Transport {
	return &Transport{
		config:   cfg,
		logger:   logger,
		newGroup: sarama.NewConsumerGroup,
	}
}

// WithGroupFactory overrides how consumer groups are created
func (t *Transport) WithGroupFactory(f GroupFactory) *Transport {
	t.newGroup = f
	return t
}

func saramaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V3_0_0_0
	cfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	cfg.Consumer.Return.Errors = true
	return cfg
}

// Open joins a new consumer group and waits until it has partitions assigned
func (t *Transport) Open(ctx context.Context, gameID string) (live.Stream, error) {
	groupID := fmt.Sprintf("%s-%s", t.config.GroupPrefix, uuid.New().String())

	group, err := t.createGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	s := &stream{
		gameID:  gameID,
		groupID: groupID,
		group:   group,
		logger:  t.logger,
		frames:  make(chan []byte, 64),
		errCh:   make(chan error, 1),
		ready:   make(chan struct{}),
		ctx:     streamCtx,
		cancel:  cancel,
	}

	t.logger.Info("joining live frames topic",
		"brokers", t.config.Brokers,
		"topic", t.config.Topic,
		"group_id", groupID,
		"game_id", gameID,
	)
	s.start(t.config.Topic)

	select {
	case <-s.ready:
		return s, nil
	case err := <-s.errCh:
		s.Close()
		return nil, fmt.Errorf("joining consumer group: %w", err)
	case <-ctx.Done():
		s.Close()
		return nil, ctx.Err()
	}
}

type groupResult struct {
	group sarama.ConsumerGroup
	err   error
}

// createGroup builds the consumer group without letting the broker dial
// outlive ctx. A group that arrives after ctx is done is closed.
func (t *Transport) createGroup(ctx context.Context, groupID string) (sarama.ConsumerGroup, error) {
	result := make(chan groupResult, 1)
	go func() {
		group, err := t.newGroup(t.config.Brokers, groupID, saramaConfig())
		result <- groupResult{group: group, err: err}
	}()

	select {
	case r := <-result:
		if r.err != nil {
			return nil, fmt.Errorf("creating consumer group: %w", r.err)
		}
		return r.group, nil
	case <-ctx.Done():
		go func() {
			if r := <-result; r.err == nil {
				if err := r.group.Close(); err != nil {
					t.logger.Warn("failed to close abandoned consumer group", "group_id", groupID, "error", err)
				}
			}
		}()
		return nil, ctx.Err()
	}
}

// stream is one consumer group filtered to a single game
type stream struct {
	gameID  string
	groupID string
	group   sarama.ConsumerGroup
	logger  *slog.Logger

	frames    chan []byte
	errCh     chan error
	ready     chan struct{}
	readyOnce sync.Once

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

func (s *stream) start(topic string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		handler := &frameHandler{stream: s}
		for {
			if err := s.group.Consume(s.ctx, []string{topic}, handler); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return
				}
				s.fail(err)
				return
			}
			if s.ctx.Err() != nil {
				return
			}
		}
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-s.ctx.Done():
				return
			case err, ok := <-s.group.Errors():
				if !ok {
					return
				}
				s.logger.Error("consumer group error", "group_id", s.groupID, "error", err)
			}
		}
	}()
}

func (s *stream) fail(err error) {
	select {
	case s.errCh <- err:
	default:
	}
}

// Next returns the next frame published for this stream's game
func (s *stream) Next(ctx context.Context) ([]byte, error) {
	select {
	case frame := <-s.frames:
		return frame, nil
	case err := <-s.errCh:
		return nil, fmt.Errorf("consuming live frames: %w", err)
	case <-s.ctx.Done():
		return nil, domain.ErrChannelClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close leaves the consumer group
func (s *stream) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.wg.Wait()
		s.closeErr = s.group.Close()
	})
	return s.closeErr
}

// frameHandler implements sarama.ConsumerGroupHandler
type frameHandler struct {
	stream *stream
}

// Setup is called at the beginning of a new session
func (h *frameHandler) Setup(sarama.ConsumerGroupSession) error {
	h.stream.readyOnce.Do(func() { close(h.stream.ready) })
	return nil
}

// Cleanup is called at the end of a session
func (h *frameHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim forwards the frames keyed by the stream's game
func (h *frameHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	s := h.stream
	for {
		select {
		case <-session.Context().Done():
			return nil

		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			session.MarkMessage(message, "")

			if string(message.Key) != s.gameID {
				continue
			}
			if len(message.Value) == 0 {
				s.logger.Warn("empty live frame",
					"game_id", s.gameID,
					"offset", message.Offset,
					"partition", message.Partition,
				)
				continue
			}

			select {
			case s.frames <- message.Value:
			case <-session.Context().Done():
				return nil
			}
		}
	}
}
