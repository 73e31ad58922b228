package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/courtside-live/internal/domain"
)

// Source is the backend REST API. *api.Client implements it.
type Source interface {
	FetchGames(ctx context.Context, date string) ([]domain.GameSummary, error)
	FetchDetails(ctx context.Context, gameID string) (*domain.GameDetails, error)
	FetchPlayByPlay(ctx context.Context, gameID string) ([]domain.PlayByPlayAction, error)
}

// Cache holds recent responses. *redis.Cache implements it.
type Cache interface {
	SetGames(ctx context.Context, date string, games []domain.GameSummary) error
	GetGames(ctx context.Context, date string) ([]domain.GameSummary, error)
	SetDetails(ctx context.Context, details *domain.GameDetails) error
	GetDetails(ctx context.Context, gameID string) (*domain.GameDetails, error)
	SetPlayByPlay(ctx context.Context, gameID string, status domain.GameStatus, actions []domain.PlayByPlayAction) error
	GetPlayByPlay(ctx context.Context, gameID string) ([]domain.PlayByPlayAction, error)
	InvalidateGame(ctx context.Context, gameID string) error
}

// GameService fetches scoreboard data from the backend, writing successful
// responses through to the cache and serving cached copies when the
// backend cannot be reached
type GameService struct {
	source Source
	cache  Cache
	logger *slog.Logger

	mu       sync.Mutex
	statuses map[string]domain.GameStatus
}

// NewGameService creates a new game service. cache may be nil.
func NewGameService(source Source, cache Cache, logger *slog.Logger) *GameService {
	return &GameService{
		source:   source,
		cache:    cache,
		logger:   logger,
		statuses: make(map[string]domain.GameStatus),
	}
}

// FetchGames returns the games for a date
func (s *GameService) FetchGames(ctx context.Context, date string) ([]domain.GameSummary, error) {
	games, err := s.source.FetchGames(ctx, date)
	if err == nil {
		s.rememberStatuses(games)
		if s.cache != nil {
			if cerr := s.cache.SetGames(ctx, date, games); cerr != nil {
				s.logger.Warn("failed to cache games", "date", date, "error", cerr)
			}
		}
		return games, nil
	}

	if !s.canFallback(ctx, err) {
		return nil, err
	}
	cached, cerr := s.cache.GetGames(ctx, date)
	if cerr != nil {
		return nil, err
	}
	s.logger.Warn("serving cached games", "date", date, "error", err)
	return cached, nil
}

// FetchDetails returns a game's details snapshot
func (s *GameService) FetchDetails(ctx context.Context, gameID string) (*domain.GameDetails, error) {
	details, err := s.source.FetchDetails(ctx, gameID)
	if err == nil {
		s.setStatus(gameID, details.Status)
		if s.cache != nil {
			if cerr := s.cache.SetDetails(ctx, details); cerr != nil {
				s.logger.Warn("failed to cache details", "game_id", gameID, "error", cerr)
			}
		}
		return details, nil
	}

	if domain.IsNotFoundError(err) {
		s.forget(ctx, gameID)
	}
	if !s.canFallback(ctx, err) {
		return nil, err
	}
	cached, cerr := s.cache.GetDetails(ctx, gameID)
	if cerr != nil {
		return nil, err
	}
	s.logger.Warn("serving cached details", "game_id", gameID, "error", err)
	return cached, nil
}

// FetchPlayByPlay returns a game's play-by-play actions
func (s *GameService) FetchPlayByPlay(ctx context.Context, gameID string) ([]domain.PlayByPlayAction, error) {
	actions, err := s.source.FetchPlayByPlay(ctx, gameID)
	if err == nil {
		if s.cache != nil {
			if cerr := s.cache.SetPlayByPlay(ctx, gameID, s.status(gameID), actions); cerr != nil {
				s.logger.Warn("failed to cache play-by-play", "game_id", gameID, "error", cerr)
			}
		}
		return actions, nil
	}

	if !s.canFallback(ctx, err) {
		return nil, err
	}
	cached, cerr := s.cache.GetPlayByPlay(ctx, gameID)
	if cerr != nil {
		return nil, err
	}
	s.logger.Warn("serving cached play-by-play", "game_id", gameID, "error", err)
	return cached, nil
}

// canFallback reports whether a failed fetch may be answered from cache.
// Answers the backend gave on purpose are never overridden.
func (s *GameService) canFallback(ctx context.Context, err error) bool {
	if s.cache == nil || ctx.Err() != nil {
		return false
	}
	switch {
	case domain.IsNotFoundError(err),
		errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrInvalidRequest):
		return false
	}
	return true
}

// forget drops a game the backend no longer knows about
func (s *GameService) forget(ctx context.Context, gameID string) {
	s.mu.Lock()
	delete(s.statuses, gameID)
	s.mu.Unlock()

	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateGame(ctx, gameID); err != nil {
		s.logger.Warn("failed to invalidate cached game", "game_id", gameID, "error", err)
	}
}

func (s *GameService) rememberStatuses(games []domain.GameSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range games {
		s.statuses[g.GameID] = g.Status
	}
}

func (s *GameService) setStatus(gameID string, status domain.GameStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[gameID] = status
}

// status returns the last seen status of a game, defaulting to live so
// unknown games get the short TTL
func (s *GameService) status(gameID string) domain.GameStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status, ok := s.statuses[gameID]; ok {
		return status
	}
	return domain.StatusLive
}
