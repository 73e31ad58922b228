package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/courtside-live/internal/config"
	"github.com/courtside-live/internal/domain"
)

// DateLayout is the date format the backend expects in list paths
const DateLayout = "2006-01-02"

// maxErrorBody caps how much of a failed response body is kept in the error
const maxErrorBody = 512

// Client fetches scoreboard data from the backend REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
}

// NewClient creates a new REST client from the API configuration
func NewClient(cfg *config.APIConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		userAgent: cfg.UserAgent,
		logger:    logger,
	}
}

// FetchGames returns the games scheduled on date (YYYY-MM-DD)
func (c *Client) FetchGames(ctx context.Context, date string) ([]domain.GameSummary, error) {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidDate, date)
	}

	var resp domain.GamesResponse
	if err := c.get(ctx, "/games/"+date, &resp); err != nil {
		return nil, fmt.Errorf("fetching games: %w", err)
	}

	if resp.Games == nil {
		return []domain.GameSummary{}, nil
	}
	return resp.Games, nil
}

// FetchDetails returns the full details snapshot of a game
func (c *Client) FetchDetails(ctx context.Context, gameID string) (*domain.GameDetails, error) {
	if gameID == "" {
		return nil, domain.ErrInvalidRequest
	}

	var resp domain.DetailsResponse
	if err := c.get(ctx, "/games/"+url.PathEscape(gameID)+"/details", &resp); err != nil {
		return nil, fmt.Errorf("fetching details: %w", err)
	}

	if resp.Details == nil {
		return nil, fmt.Errorf("fetching details: %w: missing details object", domain.ErrMalformedPayload)
	}
	return resp.Details, nil
}

// FetchPlayByPlay returns the play-by-play actions of a game
func (c *Client) FetchPlayByPlay(ctx context.Context, gameID string) ([]domain.PlayByPlayAction, error) {
	if gameID == "" {
		return nil, domain.ErrInvalidRequest
	}

	var resp domain.PlayByPlayResponse
	if err := c.get(ctx, "/games/"+url.PathEscape(gameID)+"/playbyplay", &resp); err != nil {
		return nil, fmt.Errorf("fetching play-by-play: %w", err)
	}

	if resp.PlayByPlay == nil {
		return []domain.PlayByPlayAction{}, nil
	}
	return resp.PlayByPlay, nil
}

// get makes an HTTP GET request and decodes the JSON body into out
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("api request",
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrGameNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: status=%d, body=%s", domain.ErrUnexpectedStatus, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}

	return nil
}
