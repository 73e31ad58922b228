package websocket

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/courtside-live/internal/config"
	"github.com/courtside-live/internal/domain"
	"github.com/courtside-live/internal/live"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a control message to the peer
	writeWait = 10 * time.Second

	// Buffer sizes for the underlying connection
	readBufferSize  = 4096
	writeBufferSize = 1024
)

// Transport dials per-game push channels over WebSocket
type Transport struct {
	baseURL   string
	dialer    *websocket.Dialer
	pongWait  time.Duration
	readLimit int64
	userAgent string
	logger    *slog.Logger
}

// NewTransport creates a WebSocket transport from configuration
func NewTransport(apiCfg *config.APIConfig, liveCfg *config.LiveConfig, logger *slog.Logger) *Transport {
	return &Transport{
		baseURL: apiCfg.WSBaseURL,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: liveCfg.HandshakeTimeout,
			ReadBufferSize:   readBufferSize,
			WriteBufferSize:  writeBufferSize,
		},
		pongWait:  liveCfg.PongWait,
		readLimit: liveCfg.ReadLimit,
		userAgent: apiCfg.UserAgent,
		logger:    logger,
	}
}

// GameURL returns the push endpoint for a game
func (t *Transport) GameURL(gameID string) string {
	return fmt.Sprintf("%s/ws/games/%s", t.baseURL, url.PathEscape(gameID))
}

// Open dials the game's endpoint
func (t *Transport) Open(ctx context.Context, gameID string) (live.Stream, error) {
	header := http.Header{}
	header.Set("User-Agent", t.userAgent)

	conn, resp, err := t.dialer.DialContext(ctx, t.GameURL(gameID), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dialing live channel: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dialing live channel: %w", err)
	}

	s := &stream{
		conn:     conn,
		gameID:   gameID,
		pongWait: t.pongWait,
		logger:   t.logger,
		done:     make(chan struct{}),
	}
	s.conn.SetReadLimit(t.readLimit)
	s.conn.SetReadDeadline(time.Now().Add(t.pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(s.pongWait))
		return nil
	})

	go s.pingPump()
	return s, nil
}

// stream is one open WebSocket connection
type stream struct {
	conn     *websocket.Conn
	gameID   string
	pongWait time.Duration
	logger   *slog.Logger

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

// Next reads the next text frame. Any inbound frame extends the read deadline.
func (s *stream) Next(ctx context.Context) ([]byte, error) {
	for {
		messageType, message, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				return nil, domain.ErrChannelClosed
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, fmt.Errorf("%w: %v", domain.ErrChannelClosed, err)
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Error("websocket error", "game_id", s.gameID, "error", err)
			}
			return nil, fmt.Errorf("reading live frame: %w", err)
		}
		s.conn.SetReadDeadline(time.Now().Add(s.pongWait))

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if messageType != websocket.TextMessage {
			s.logger.Debug("ignoring non-text frame", "game_id", s.gameID, "type", messageType)
			continue
		}
		return message, nil
	}
}

// Close sends a close frame and releases the connection
func (s *stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		s.writeMu.Lock()
		s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "view closed"))
		s.writeMu.Unlock()
		err = s.conn.Close()
	})
	return err
}

// pingPump keeps the connection alive while the stream is open
func (s *stream) pingPump() {
	ticker := time.NewTicker((s.pongWait * 9) / 10)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.writeMu.Lock()
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := s.conn.WriteMessage(websocket.PingMessage, nil)
			s.writeMu.Unlock()
			if err != nil {
				s.logger.Debug("ping failed", "game_id", s.gameID, "error", err)
				return
			}
		}
	}
}
