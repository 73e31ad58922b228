package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/courtside-live/internal/config"
	"github.com/courtside-live/internal/domain"
	"github.com/courtside-live/internal/testutil"
)

func newTestClient(baseURL string) *Client {
	cfg := &config.APIConfig{
		BaseURL:   baseURL,
		Timeout:   2 * time.Second,
		UserAgent: "courtside-test",
	}
	return NewClient(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_FetchGames(t *testing.T) {
	b := testutil.NewBackend(t)
	b.SetGames("2024-01-15", []domain.GameSummary{
		testutil.MockGameSummary("1", domain.StatusLive),
		testutil.MockGameSummary("2", domain.StatusFinal),
	})
	c := newTestClient(b.URL())

	games, err := c.FetchGames(context.Background(), "2024-01-15")
	if err != nil {
		t.Fatalf("FetchGames() error = %v", err)
	}
	if len(games) != 2 || games[0].GameID != "1" || games[0].HomeTeamAbbr != "LAL" {
		t.Errorf("FetchGames() = %+v", games)
	}

	empty, err := c.FetchGames(context.Background(), "2024-01-16")
	if err != nil {
		t.Fatalf("FetchGames() empty date error = %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("FetchGames() for empty date = %#v, want empty non-nil slice", empty)
	}
}

func TestClient_FetchGamesInvalidDate(t *testing.T) {
	b := testutil.NewBackend(t)
	c := newTestClient(b.URL())

	if _, err := c.FetchGames(context.Background(), "2024/01/15"); !errors.Is(err, domain.ErrInvalidDate) {
		t.Errorf("FetchGames() error = %v, want ErrInvalidDate", err)
	}
	if hits := b.Hits("/games/2024/01/15"); hits != 0 {
		t.Errorf("invalid date reached the backend %d times", hits)
	}
}

func TestClient_FetchDetails(t *testing.T) {
	b := testutil.NewBackend(t)
	b.SetDetails(testutil.MockGameDetails("1", domain.StatusLive))
	c := newTestClient(b.URL())

	details, err := c.FetchDetails(context.Background(), "1")
	if err != nil {
		t.Fatalf("FetchDetails() error = %v", err)
	}
	if details.GameID != "1" || details.Status != domain.StatusLive {
		t.Errorf("FetchDetails() = %+v", details)
	}
	if len(details.LineScore) != 2 || details.LastFiveMeetings == nil {
		t.Errorf("FetchDetails() dropped nested data: %+v", details)
	}
}

func TestClient_FetchPlayByPlay(t *testing.T) {
	b := testutil.NewBackend(t)
	b.SetPlayByPlay("1", testutil.MockActions(3))
	c := newTestClient(b.URL())

	actions, err := c.FetchPlayByPlay(context.Background(), "1")
	if err != nil {
		t.Fatalf("FetchPlayByPlay() error = %v", err)
	}
	if len(actions) != 3 || actions[2].ActionNumber != 3 {
		t.Errorf("FetchPlayByPlay() = %+v", actions)
	}
}

func TestClient_Errors(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Fail("/games/9/playbyplay", http.StatusBadGateway)
	c := newTestClient(b.URL())
	ctx := context.Background()

	if _, err := c.FetchDetails(ctx, "missing"); !domain.IsNotFoundError(err) {
		t.Errorf("FetchDetails() for unknown game error = %v, want not found", err)
	}
	if _, err := c.FetchPlayByPlay(ctx, "9"); !errors.Is(err, domain.ErrUnexpectedStatus) {
		t.Errorf("FetchPlayByPlay() error = %v, want ErrUnexpectedStatus", err)
	}
	if _, err := c.FetchDetails(ctx, ""); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("FetchDetails(\"\") error = %v, want ErrInvalidRequest", err)
	}
}

func TestClient_MalformedPayloads(t *testing.T) {
	tests := []struct {
		name string
		body string
		call func(c *Client) error
	}{
		{
			name: "details not json",
			body: `<html>`,
			call: func(c *Client) error { _, err := c.FetchDetails(context.Background(), "1"); return err },
		},
		{
			name: "details missing",
			body: `{"detail":{}}`,
			call: func(c *Client) error { _, err := c.FetchDetails(context.Background(), "1"); return err },
		},
		{
			name: "play-by-play wrong shape",
			body: `{"play_by_play":{"actionNumber":1}}`,
			call: func(c *Client) error { _, err := c.FetchPlayByPlay(context.Background(), "1"); return err },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			err := tt.call(newTestClient(srv.URL))
			if !domain.IsDecodeError(err) {
				t.Errorf("error = %v, want malformed payload", err)
			}
		})
	}
}

func TestClient_SendsHeaders(t *testing.T) {
	var gotAgent, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		io.WriteString(w, `{"games":[]}`)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).FetchGames(context.Background(), "2024-01-15"); err != nil {
		t.Fatalf("FetchGames() error = %v", err)
	}
	if gotAgent != "courtside-test" || gotAccept != "application/json" {
		t.Errorf("headers = %q, %q", gotAgent, gotAccept)
	}
}
