package websocket

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/courtside-live/internal/config"
	"github.com/courtside-live/internal/domain"
	"github.com/courtside-live/internal/live"
	"github.com/courtside-live/internal/testutil"
)

func newTestTransport(b *testutil.Backend) *Transport {
	apiCfg := &config.APIConfig{
		BaseURL:   b.URL(),
		WSBaseURL: b.WSURL(),
		UserAgent: "courtside-test",
	}
	liveCfg := &config.LiveConfig{
		HandshakeTimeout: 2 * time.Second,
		PongWait:         5 * time.Second,
		ReadLimit:        1 << 20,
	}
	return NewTransport(apiCfg, liveCfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestTransport_GameURL(t *testing.T) {
	tr := NewTransport(
		&config.APIConfig{WSBaseURL: "ws://localhost:8000"},
		&config.LiveConfig{PongWait: time.Second},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	tests := []struct {
		gameID string
		want   string
	}{
		{"0022300500", "ws://localhost:8000/ws/games/0022300500"},
		{"a/b", "ws://localhost:8000/ws/games/a%2Fb"},
	}
	for _, tt := range tests {
		if got := tr.GameURL(tt.gameID); got != tt.want {
			t.Errorf("GameURL(%q) = %q, want %q", tt.gameID, got, tt.want)
		}
	}
}

func TestTransport_ReceivesFrames(t *testing.T) {
	b := testutil.NewBackend(t)
	tr := newTestTransport(b)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := tr.Open(ctx, "1")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer stream.Close()
	b.WaitConnected(t, "1")

	b.Push(t, "1", live.TypePlayByPlayUpdate, testutil.MockActions(2))

	raw, err := stream.Next(ctx)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	ev, err := live.Decode(raw)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if ev.Type != live.TypePlayByPlayUpdate || len(ev.Actions) != 2 {
		t.Errorf("got %s with %d actions, want playbyplay_update with 2", ev.Type, len(ev.Actions))
	}
}

func TestTransport_CloseEndsSubscription(t *testing.T) {
	b := testutil.NewBackend(t)
	tr := newTestTransport(b)
	ctx := context.Background()

	stream, err := tr.Open(ctx, "1")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	b.WaitConnected(t, "1")

	if err := stream.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	// Second close is a no-op
	if err := stream.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if _, err := stream.Next(ctx); !errors.Is(err, domain.ErrChannelClosed) {
		t.Errorf("Next() after Close error = %v, want ErrChannelClosed", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for b.Subscribers("1") != 0 {
		if time.Now().After(deadline) {
			t.Fatal("backend still has a subscriber after Close")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestTransport_AbruptDropIsReadError(t *testing.T) {
	b := testutil.NewBackend(t)
	tr := newTestTransport(b)
	ctx := context.Background()

	stream, err := tr.Open(ctx, "1")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer stream.Close()
	b.WaitConnected(t, "1")

	b.Drop("1")

	if _, err := stream.Next(ctx); err == nil {
		t.Fatal("Next() after drop returned nil error")
	}
}

func TestTransport_DialFailure(t *testing.T) {
	b := testutil.NewBackend(t)
	tr := newTestTransport(b)
	b.Fail("/ws/games/1", 503)

	if _, err := tr.Open(context.Background(), "1"); err == nil {
		t.Fatal("Open() against failing endpoint returned nil error")
	}
}

func TestTransport_WithChannel(t *testing.T) {
	b := testutil.NewBackend(t)
	ch := live.NewChannel(newTestTransport(b), 8, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer ch.Close()

	ch.Sync("1", true)
	b.WaitConnected(t, "1")

	b.PushRaw(t, "1", []byte(`{not json`))
	b.Push(t, "1", live.TypeGameUpdate, testutil.MockGameDetails("1", domain.StatusLive))

	select {
	case ev := <-ch.Events():
		var got string
		ch.Dispatch(ev, live.HandlerFuncs{
			OnGameUpdate: func(d domain.GameDetails) { got = d.GameID },
		})
		if got != "1" {
			t.Errorf("dispatched game id = %q, want 1", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for game update")
	}

	ch.Sync("1", false)
	deadline := time.Now().Add(2 * time.Second)
	for b.Subscribers("1") != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription still open after game stopped being live")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
