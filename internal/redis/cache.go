package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/courtside-live/internal/config"
	"github.com/courtside-live/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Cache keeps recent REST responses in Redis so the view still has data
// when the backend is briefly unreachable. Entries expire; nothing here is
// durable.
type Cache struct {
	client   *redis.Client
	listTTL  time.Duration
	liveTTL  time.Duration
	finalTTL time.Duration
	logger   *slog.Logger
}

// NewCache connects to Redis and verifies the connection
func NewCache(cfg *config.RedisConfig, logger *slog.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return NewCacheWithClient(client, cfg, logger), nil
}

// NewCacheWithClient wraps an existing client
func NewCacheWithClient(client *redis.Client, cfg *config.RedisConfig, logger *slog.Logger) *Cache {
	return &Cache{
		client:   client,
		listTTL:  cfg.ListTTL,
		liveTTL:  cfg.LiveTTL,
		finalTTL: cfg.FinalTTL,
		logger:   logger,
	}
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// gamesKey returns the key for a date's games list
func gamesKey(date string) string {
	return fmt.Sprintf("games:%s:list", date)
}

// detailsKey returns the key for a game's details snapshot
func detailsKey(gameID string) string {
	return fmt.Sprintf("game:%s:details", gameID)
}

// playByPlayKey returns the key for a game's play-by-play list
func playByPlayKey(gameID string) string {
	return fmt.Sprintf("game:%s:playbyplay", gameID)
}

// TTLFor returns how long data for a game in the given status stays cached
func (c *Cache) TTLFor(status domain.GameStatus) time.Duration {
	if status == domain.StatusFinal {
		return c.finalTTL
	}
	return c.liveTTL
}

// SetGames stores the games list for a date
func (c *Cache) SetGames(ctx context.Context, date string, games []domain.GameSummary) error {
	return c.set(ctx, gamesKey(date), games, c.listTTL)
}

// GetGames returns the cached games list for a date
func (c *Cache) GetGames(ctx context.Context, date string) ([]domain.GameSummary, error) {
	var games []domain.GameSummary
	if err := c.get(ctx, gamesKey(date), &games); err != nil {
		return nil, err
	}
	return games, nil
}

// SetDetails stores a details snapshot with a TTL based on its status
func (c *Cache) SetDetails(ctx context.Context, details *domain.GameDetails) error {
	return c.set(ctx, detailsKey(details.GameID), details, c.TTLFor(details.Status))
}

// GetDetails returns the cached details snapshot for a game
func (c *Cache) GetDetails(ctx context.Context, gameID string) (*domain.GameDetails, error) {
	var details domain.GameDetails
	if err := c.get(ctx, detailsKey(gameID), &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// SetPlayByPlay stores a game's actions with a TTL based on the game status
func (c *Cache) SetPlayByPlay(ctx context.Context, gameID string, status domain.GameStatus, actions []domain.PlayByPlayAction) error {
	return c.set(ctx, playByPlayKey(gameID), actions, c.TTLFor(status))
}

// GetPlayByPlay returns the cached actions for a game
func (c *Cache) GetPlayByPlay(ctx context.Context, gameID string) ([]domain.PlayByPlayAction, error) {
	var actions []domain.PlayByPlayAction
	if err := c.get(ctx, playByPlayKey(gameID), &actions); err != nil {
		return nil, err
	}
	return actions, nil
}

// InvalidateGame removes everything cached for a game
func (c *Cache) InvalidateGame(ctx context.Context, gameID string) error {
	pipe := c.client.Pipeline()
	pipe.Del(ctx, detailsKey(gameID))
	pipe.Del(ctx, playByPlayKey(gameID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("invalidating game: %w", err)
	}
	return nil
}

func (c *Cache) set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("caching %s: %w", key, err)
	}
	return nil
}

func (c *Cache) get(ctx context.Context, key string, out interface{}) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Warn("discarding unreadable cache entry", "key", key, "error", err)
		return domain.ErrCacheMiss
	}
	return nil
}
