package board

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/courtside-live/internal/domain"
)

// DateLayout is the format of board dates
const DateLayout = "2006-01-02"

// Fetcher loads the games for a date
type Fetcher interface {
	FetchGames(ctx context.Context, date string) ([]domain.GameSummary, error)
}

// State is a snapshot of the board
type State struct {
	Date    string               `json:"date"`
	Games   []domain.GameSummary `json:"games"`
	Loading bool                 `json:"loading"`
}

// Empty reports whether the board has finished loading and has no games
func (s State) Empty() bool {
	return !s.Loading && len(s.Games) == 0
}

// Board holds the games list for the selected date
type Board struct {
	fetcher Fetcher
	logger  *slog.Logger

	mu         sync.RWMutex
	date       string
	generation uint64
	games      []domain.GameSummary
	loading    bool
}

// New creates a board on date, or today (UTC) when date is empty
func New(fetcher Fetcher, date string, logger *slog.Logger) (*Board, error) {
	if date == "" {
		date = time.Now().UTC().Format(DateLayout)
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidDate, date)
	}
	return &Board{
		fetcher: fetcher,
		logger:  logger,
		date:    date,
		loading: true,
	}, nil
}

// Date returns the selected date
func (b *Board) Date() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.date
}

// Select switches to date, clears the list and loads it
func (b *Board) Select(ctx context.Context, date string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("%w: %q", domain.ErrInvalidDate, date)
	}

	b.mu.Lock()
	if date != b.date {
		b.date = date
		b.generation++
		b.games = nil
	}
	b.loading = true
	b.mu.Unlock()

	return b.Refresh(ctx)
}

// Shift moves the selected date by days (negative for earlier dates)
func (b *Board) Shift(ctx context.Context, days int) error {
	current, err := time.Parse(DateLayout, b.Date())
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidDate, err)
	}
	return b.Select(ctx, current.AddDate(0, 0, days).Format(DateLayout))
}

// Refresh reloads the list for the selected date. A result that arrives
// after the date has changed is discarded; a failure keeps the current list.
func (b *Board) Refresh(ctx context.Context) error {
	b.mu.RLock()
	date, generation := b.date, b.generation
	b.mu.RUnlock()

	games, err := b.fetcher.FetchGames(ctx, date)

	b.mu.Lock()
	defer b.mu.Unlock()

	if generation != b.generation {
		b.logger.Debug("discarding games for a previous date", "date", date)
		return nil
	}
	b.loading = false

	if err != nil {
		b.logger.Warn("games fetch failed", "date", date, "error", err)
		return err
	}

	b.games = games
	b.logger.Debug("games loaded", "date", date, "count", len(games))
	return nil
}

// Snapshot returns a copy of the board state
func (b *Board) Snapshot() State {
	b.mu.RLock()
	defer b.mu.RUnlock()

	games := make([]domain.GameSummary, len(b.games))
	copy(games, b.games)
	return State{
		Date:    b.date,
		Games:   games,
		Loading: b.loading,
	}
}

// Game returns the list row for a game on the selected date
func (b *Board) Game(gameID string) (domain.GameSummary, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, g := range b.games {
		if g.GameID == gameID {
			return g, true
		}
	}
	return domain.GameSummary{}, false
}
