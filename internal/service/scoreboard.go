package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/courtside-live/internal/board"
	"github.com/courtside-live/internal/domain"
	"github.com/courtside-live/internal/live"
	"github.com/courtside-live/internal/view"
)

// ChannelFactory creates a fresh push channel for a new game view
type ChannelFactory func() view.Channel

// LiveChannelFactory returns a factory building *live.Channel over transport
func LiveChannelFactory(transport live.Transport, buffer int, logger *slog.Logger) ChannelFactory {
	return func() view.Channel {
		return live.NewChannel(transport, buffer, logger)
	}
}

// Stats reports the open view and its channel counters
type Stats struct {
	Date        string     `json:"date"`
	Games       int        `json:"games"`
	OpenGameID  string     `json:"open_game_id,omitempty"`
	Connected   bool       `json:"connected"`
	LiveChannel live.Stats `json:"live_channel"`
}

// Scoreboard ties the games board to at most one open game view
type Scoreboard struct {
	ctx        context.Context
	board      *board.Board
	fetcher    view.Fetcher
	newChannel ChannelFactory
	logger     *slog.Logger

	mu      sync.Mutex
	session *view.Session
	closed  bool
}

// NewScoreboard creates a scoreboard. Sessions live until dismissed, the
// scoreboard is closed, or ctx ends.
func NewScoreboard(ctx context.Context, b *board.Board, fetcher view.Fetcher, newChannel ChannelFactory, logger *slog.Logger) *Scoreboard {
	return &Scoreboard{
		ctx:        ctx,
		board:      b,
		fetcher:    fetcher,
		newChannel: newChannel,
		logger:     logger,
	}
}

// Board returns the games board
func (s *Scoreboard) Board() *board.Board {
	return s.board
}

// Open shows a game, replacing any other open view. Opening the game that
// is already open returns the existing session.
func (s *Scoreboard) Open(gameID string) (*view.Session, error) {
	if gameID == "" {
		return nil, fmt.Errorf("%w: empty game id", domain.ErrInvalidRequest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, domain.ErrNoSession
	}
	if s.session != nil {
		if s.session.GameID() == gameID {
			return s.session, nil
		}
		s.session.Close()
		s.session = nil
	}

	session := view.NewSession(gameID, s.fetcher, s.newChannel(), s.logger)
	session.Start(s.ctx)
	s.session = session

	s.logger.Info("game view opened", "game_id", gameID)
	return session, nil
}

// Current returns the open session, if any
func (s *Scoreboard) Current() (*view.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session, s.session != nil
}

// Dismiss closes the open view
func (s *Scoreboard) Dismiss() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		s.session.Close()
		s.session = nil
	}
}

// RefreshSession refreshes the open view, if any
func (s *Scoreboard) RefreshSession(ctx context.Context) error {
	session, ok := s.Current()
	if !ok {
		return nil
	}
	return session.Refresh(ctx)
}

// Refresh reloads the board and the open view
func (s *Scoreboard) Refresh(ctx context.Context) error {
	return errors.Join(s.board.Refresh(ctx), s.RefreshSession(ctx))
}

// Stats returns a summary of the scoreboard
func (s *Scoreboard) Stats() Stats {
	st := s.board.Snapshot()
	stats := Stats{
		Date:  st.Date,
		Games: len(st.Games),
	}
	if session, ok := s.Current(); ok {
		stats.OpenGameID = session.GameID()
		stats.Connected = session.Snapshot().Connected
		stats.LiveChannel = session.Stats()
	}
	return stats
}

// Close dismisses the open view; no view can be opened afterwards
func (s *Scoreboard) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.session != nil {
		s.session.Close()
		s.session = nil
	}
}
