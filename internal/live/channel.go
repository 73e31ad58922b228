package live

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/courtside-live/internal/domain"
	"github.com/google/uuid"
)

// Transport opens a push stream scoped to one game
type Transport interface {
	Open(ctx context.Context, gameID string) (Stream, error)
}

// Stream yields raw frames until it is closed or fails
type Stream interface {
	Next(ctx context.Context) ([]byte, error)
	Close() error
}

// Stats contains counters for a channel's lifetime
type Stats struct {
	Opens          int64 `json:"opens"`
	Closes         int64 `json:"closes"`
	Frames         int64 `json:"frames"`
	DroppedFrames  int64 `json:"dropped_frames"`
	StaleEvents    int64 `json:"stale_events"`
	TransportFails int64 `json:"transport_failures"`
}

// Channel keeps at most one push subscription open, for the game being
// viewed and only while it is live. Opening and closing is driven only by
// Sync and Close; the channel never re-opens itself after an error.
type Channel struct {
	transport Transport
	logger    *slog.Logger
	events    chan Event

	mu     sync.Mutex
	gameID string
	live   bool
	synced bool
	sub    *subscription
	closed bool

	opens, closes, frames, dropped, stale, fails atomic.Int64
}

// subscription is one open attempt; it is never reused after close
type subscription struct {
	id     string
	gameID string
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	stream    Stream
	closeOnce sync.Once
	connected atomic.Bool
}

// NewChannel creates a closed channel. buffer sizes the event queue.
func NewChannel(transport Transport, buffer int, logger *slog.Logger) *Channel {
	if buffer <= 0 {
		buffer = 64
	}
	return &Channel{
		transport: transport,
		logger:    logger,
		events:    make(chan Event, buffer),
	}
}

// Events returns the decoded update stream. Events from a subscription that
// has since been replaced are filtered by Dispatch.
func (c *Channel) Events() <-chan Event {
	return c.events
}

// Sync applies the current inputs. When the game id or liveness changes the
// existing subscription is closed, and a new one is opened if the game is
// live and the id is non-empty. Calling Sync with unchanged inputs is a no-op.
func (c *Channel) Sync(gameID string, live bool) {
	c.mu.Lock()
	if c.closed || (c.synced && c.gameID == gameID && c.live == live) {
		c.mu.Unlock()
		return
	}
	c.synced = true
	c.gameID = gameID
	c.live = live

	old := c.detach()
	if live && gameID != "" {
		c.sub = c.openSubscription(gameID)
	}
	c.mu.Unlock()

	c.await(old)
}

// Reconnect replaces a subscription whose transport has failed. It only acts
// when the inputs still call for an open subscription.
func (c *Channel) Reconnect() bool {
	c.mu.Lock()
	if c.closed || !c.live || c.gameID == "" {
		c.mu.Unlock()
		return false
	}
	if c.sub != nil {
		select {
		case <-c.sub.done:
		default:
			c.mu.Unlock()
			return false
		}
	}
	old := c.detach()
	c.sub = c.openSubscription(c.gameID)
	c.mu.Unlock()

	c.await(old)
	return true
}

// Close tears down the subscription. The channel cannot be reused.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	old := c.detach()
	c.mu.Unlock()

	c.await(old)
}

// Connected reports whether a subscription is currently open and reading
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sub != nil && c.sub.connected.Load()
}

// SubscriptionID returns the id of the current subscription, or ""
func (c *Channel) SubscriptionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sub == nil {
		return ""
	}
	return c.sub.id
}

// Dispatch invokes the matching handler callback when ev belongs to the
// current subscription. It reports whether a callback ran.
func (c *Channel) Dispatch(ev Event, h Handler) bool {
	if ev.SubscriptionID == "" || ev.SubscriptionID != c.SubscriptionID() {
		c.stale.Add(1)
		return false
	}

	switch ev.Type {
	case TypeGameUpdate:
		if ev.Details == nil {
			return false
		}
		h.GameUpdate(*ev.Details)
	case TypePlayByPlayUpdate:
		h.PlayByPlayUpdate(ev.Actions)
	default:
		return false
	}
	return true
}

// Run dispatches events to h until ctx is done
func (c *Channel) Run(ctx context.Context, h Handler) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-c.events:
			c.Dispatch(ev, h)
		}
	}
}

// Stats returns the channel counters
func (c *Channel) Stats() Stats {
	return Stats{
		Opens:          c.opens.Load(),
		Closes:         c.closes.Load(),
		Frames:         c.frames.Load(),
		DroppedFrames:  c.dropped.Load(),
		StaleEvents:    c.stale.Load(),
		TransportFails: c.fails.Load(),
	}
}

// openSubscription starts a new subscription; c.mu must be held
func (c *Channel) openSubscription(gameID string) *subscription {
	ctx, cancel := context.WithCancel(context.Background())
	sub := &subscription{
		id:     uuid.New().String(),
		gameID: gameID,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	c.opens.Add(1)
	c.logger.Info("opening live channel", "game_id", gameID, "subscription_id", sub.id)

	go c.run(sub)
	return sub
}

// detach stops the current subscription and clears it; c.mu must be held.
// The returned subscription is passed to await once c.mu is released so a
// slow transport never blocks readers of the channel.
func (c *Channel) detach() *subscription {
	sub := c.sub
	if sub == nil {
		return nil
	}
	c.sub = nil

	sub.cancel()
	sub.mu.Lock()
	stream := sub.stream
	sub.mu.Unlock()
	if stream != nil {
		sub.closeStream(stream)
	}
	return sub
}

// await waits for a detached subscription's reader to exit
func (c *Channel) await(sub *subscription) {
	if sub == nil {
		return
	}
	<-sub.done

	c.closes.Add(1)
	c.logger.Info("closed live channel", "game_id", sub.gameID, "subscription_id", sub.id)
}

// closeStream closes the stream exactly once
func (s *subscription) closeStream(stream Stream) {
	s.closeOnce.Do(func() {
		stream.Close()
	})
}

// run dials the transport and pumps frames into the event queue
func (c *Channel) run(sub *subscription) {
	defer close(sub.done)
	defer sub.connected.Store(false)

	stream, err := c.transport.Open(sub.ctx, sub.gameID)
	if err != nil {
		if sub.ctx.Err() == nil {
			c.fails.Add(1)
			c.logger.Error("live channel connect failed",
				"game_id", sub.gameID,
				"subscription_id", sub.id,
				"error", err,
			)
		}
		return
	}

	sub.mu.Lock()
	sub.stream = stream
	sub.mu.Unlock()
	defer sub.closeStream(stream)

	if sub.ctx.Err() != nil {
		return
	}

	sub.connected.Store(true)
	c.logger.Info("live channel connected", "game_id", sub.gameID, "subscription_id", sub.id)

	for {
		raw, err := stream.Next(sub.ctx)
		if err != nil {
			if sub.ctx.Err() == nil && !errors.Is(err, domain.ErrChannelClosed) {
				c.fails.Add(1)
				c.logger.Warn("live channel read failed",
					"game_id", sub.gameID,
					"subscription_id", sub.id,
					"error", err,
				)
			}
			c.logger.Info("live channel disconnected", "game_id", sub.gameID, "subscription_id", sub.id)
			return
		}

		c.frames.Add(1)
		ev, err := Decode(raw)
		if err != nil {
			c.dropped.Add(1)
			c.logger.Warn("dropping live frame",
				"game_id", sub.gameID,
				"subscription_id", sub.id,
				"error", err,
			)
			continue
		}
		ev.SubscriptionID = sub.id
		if ev.GameID == "" {
			ev.GameID = sub.gameID
		}

		select {
		case c.events <- ev:
		case <-sub.ctx.Done():
			return
		}
	}
}
