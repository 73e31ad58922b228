package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/courtside-live/internal/config"
	"github.com/courtside-live/internal/domain"
	"github.com/courtside-live/internal/live"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSession struct {
	sarama.ConsumerGroupSession
	ctx context.Context
}

func (s *fakeSession) Context() context.Context                          { return s.ctx }
func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, meta string) {}

type fakeClaim struct {
	sarama.ConsumerGroupClaim
	messages chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

// fakeGroup runs a single session over one claim until its context ends
type fakeGroup struct {
	sarama.ConsumerGroup
	claim    *fakeClaim
	errors   chan error
	joinErr  error
	mu       sync.Mutex
	groupIDs []string
	closed   bool
}

func newFakeGroup() *fakeGroup {
	return &fakeGroup{
		claim:  &fakeClaim{messages: make(chan *sarama.ConsumerMessage, 16)},
		errors: make(chan error),
	}
}

func (g *fakeGroup) factory(brokers []string, groupID string, cfg *sarama.Config) (sarama.ConsumerGroup, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.groupIDs = append(g.groupIDs, groupID)
	return g, nil
}

func (g *fakeGroup) Consume(ctx context.Context, topics []string, handler sarama.ConsumerGroupHandler) error {
	if g.joinErr != nil {
		return g.joinErr
	}
	session := &fakeSession{ctx: ctx}
	if err := handler.Setup(session); err != nil {
		return err
	}
	err := handler.ConsumeClaim(session, g.claim)
	handler.Cleanup(session)
	return err
}

func (g *fakeGroup) Errors() <-chan error { return g.errors }

func (g *fakeGroup) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return nil
}

func (g *fakeGroup) isClosed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

func message(key string, value []byte) *sarama.ConsumerMessage {
	return &sarama.ConsumerMessage{Key: []byte(key), Value: value, Topic: "game-live-frames"}
}

func newTestTransport(g *fakeGroup) *Transport {
	cfg := &config.KafkaConfig{
		Brokers:     []string{"localhost:9092"},
		Topic:       "game-live-frames",
		GroupPrefix: "courtside-view",
	}
	return NewTransport(cfg, testLogger()).WithGroupFactory(g.factory)
}

func TestTransport_FiltersByGameKey(t *testing.T) {
	g := newFakeGroup()
	tr := newTestTransport(g)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	stream, err := tr.Open(ctx, "1")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer stream.Close()

	other, _ := live.Encode(live.TypePlayByPlayUpdate, []domain.PlayByPlayAction{{ActionNumber: 9}})
	mine, _ := live.Encode(live.TypePlayByPlayUpdate, []domain.PlayByPlayAction{{ActionNumber: 1}})

	g.claim.messages <- message("2", other)
	g.claim.messages <- message("1", nil)
	g.claim.messages <- message("1", mine)

	raw, err := stream.Next(ctx)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if string(raw) != string(mine) {
		t.Errorf("Next() = %s, want %s", raw, mine)
	}
}

func TestTransport_FreshGroupPerOpen(t *testing.T) {
	g := newFakeGroup()
	tr := newTestTransport(g)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		stream, err := tr.Open(ctx, "1")
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		stream.Close()
	}

	if len(g.groupIDs) != 2 || g.groupIDs[0] == g.groupIDs[1] {
		t.Errorf("group ids = %v, want two distinct ids", g.groupIDs)
	}
}

func TestTransport_CloseLeavesGroup(t *testing.T) {
	g := newFakeGroup()
	tr := newTestTransport(g)
	ctx := context.Background()

	stream, err := tr.Open(ctx, "1")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !g.isClosed() {
		t.Error("consumer group not closed")
	}
	if _, err := stream.Next(ctx); !errors.Is(err, domain.ErrChannelClosed) {
		t.Errorf("Next() after Close error = %v, want ErrChannelClosed", err)
	}
}

func TestTransport_JoinFailure(t *testing.T) {
	g := newFakeGroup()
	g.joinErr = errors.New("broker unavailable")
	tr := newTestTransport(g)

	if _, err := tr.Open(context.Background(), "1"); err == nil {
		t.Fatal("Open() with failing group returned nil error")
	}
	if !g.isClosed() {
		t.Error("consumer group not closed after failed join")
	}
}

func TestTransport_OpenAbandonsSlowGroupCreation(t *testing.T) {
	g := newFakeGroup()
	release := make(chan struct{})
	tr := newTestTransport(g).WithGroupFactory(func(brokers []string, groupID string, cfg *sarama.Config) (sarama.ConsumerGroup, error) {
		<-release
		return g.factory(brokers, groupID, cfg)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, err := tr.Open(ctx, "1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Open() error = %v, want context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Open() took %v after cancellation", elapsed)
	}

	close(release)
	deadline := time.Now().Add(2 * time.Second)
	for !g.isClosed() {
		if time.Now().After(deadline) {
			t.Fatal("late consumer group was never closed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestTransport_ChannelTeardownWithUnreachableBrokers(t *testing.T) {
	g := newFakeGroup()
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	defer close(release)
	tr := newTestTransport(g).WithGroupFactory(func(brokers []string, groupID string, cfg *sarama.Config) (sarama.ConsumerGroup, error) {
		entered <- struct{}{}
		<-release
		return nil, sarama.ErrOutOfBrokers
	})

	ch := live.NewChannel(tr, 8, testLogger())
	ch.Sync("1", true)
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer group was never requested")
	}

	synced := make(chan struct{})
	go func() {
		ch.Sync("1", false)
		close(synced)
	}()
	select {
	case <-synced:
	case <-time.After(time.Second):
		t.Fatal("Sync(false) blocked on the broker dial")
	}
	if ch.Connected() {
		t.Error("channel reports connected after Sync(false)")
	}
	ch.Close()
}

func TestTransport_WithChannel(t *testing.T) {
	g := newFakeGroup()
	ch := live.NewChannel(newTestTransport(g), 8, testLogger())
	defer ch.Close()

	ch.Sync("1", true)

	frame, _ := live.Encode(live.TypePlayByPlayUpdate, []domain.PlayByPlayAction{{ActionNumber: 1}, {ActionNumber: 2}})
	g.claim.messages <- message("1", []byte(`{"type":"box_score","data":{}}`))
	g.claim.messages <- message("1", frame)

	select {
	case ev := <-ch.Events():
		var got []domain.PlayByPlayAction
		if !ch.Dispatch(ev, live.HandlerFuncs{
			OnPlayByPlayUpdate: func(a []domain.PlayByPlayAction) { got = a },
		}) {
			t.Fatal("event not dispatched")
		}
		if len(got) != 2 {
			t.Errorf("got %d actions, want 2", len(got))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for play-by-play update")
	}

	if stats := ch.Stats(); stats.DroppedFrames != 1 {
		t.Errorf("DroppedFrames = %d, want 1", stats.DroppedFrames)
	}
}
