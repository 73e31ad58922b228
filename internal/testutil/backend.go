package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/courtside-live/internal/domain"
	"github.com/courtside-live/internal/live"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Backend is an in-process scoreboard backend serving the REST routes and
// the per-game push endpoint
type Backend struct {
	server *httptest.Server

	mu       sync.RWMutex
	games    map[string][]domain.GameSummary
	details  map[string]domain.GameDetails
	actions  map[string][]domain.PlayByPlayAction
	failures map[string]int
	hits     map[string]int

	// Push subscribers by game ID
	connMu    sync.Mutex
	conns     map[string]map[*websocket.Conn]bool
	connected chan string
}

// NewBackend starts a backend that is shut down when the test ends
func NewBackend(t *testing.T) *Backend {
	t.Helper()

	b := &Backend{
		games:     make(map[string][]domain.GameSummary),
		details:   make(map[string]domain.GameDetails),
		actions:   make(map[string][]domain.PlayByPlayAction),
		failures:  make(map[string]int),
		hits:      make(map[string]int),
		conns:     make(map[string]map[*websocket.Conn]bool),
		connected: make(chan string, 16),
	}

	r := chi.NewRouter()
	r.Use(b.countHits)
	r.Get("/games/{date}", b.handleGames)
	r.Get("/games/{gameId}/details", b.handleDetails)
	r.Get("/games/{gameId}/playbyplay", b.handlePlayByPlay)
	r.Get("/ws/games/{gameId}", b.handleWebSocket)

	b.server = httptest.NewServer(r)
	t.Cleanup(b.Close)
	return b
}

// URL returns the REST base address
func (b *Backend) URL() string {
	return b.server.URL
}

// WSURL returns the push base address
func (b *Backend) WSURL() string {
	return "ws" + strings.TrimPrefix(b.server.URL, "http")
}

// Close drops every push connection and stops the server
func (b *Backend) Close() {
	b.connMu.Lock()
	for _, conns := range b.conns {
		for conn := range conns {
			conn.Close()
		}
	}
	b.conns = make(map[string]map[*websocket.Conn]bool)
	b.connMu.Unlock()
	b.server.Close()
}

// SetGames sets the list served for a date
func (b *Backend) SetGames(date string, games []domain.GameSummary) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.games[date] = games
}

// SetDetails sets the details snapshot served for a game
func (b *Backend) SetDetails(details domain.GameDetails) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.details[details.GameID] = details
}

// SetPlayByPlay sets the play-by-play served for a game
func (b *Backend) SetPlayByPlay(gameID string, actions []domain.PlayByPlayAction) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.actions[gameID] = actions
}

// Fail makes requests to path answer with status until cleared with 0
func (b *Backend) Fail(path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if status == 0 {
		delete(b.failures, path)
		return
	}
	b.failures[path] = status
}

// Hits returns how many requests reached path
func (b *Backend) Hits(path string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.hits[path]
}

// WaitConnected blocks until a push connection for gameID is registered
func (b *Backend) WaitConnected(t *testing.T, gameID string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case id := <-b.connected:
			if id == gameID {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for push connection to game %s", gameID)
		}
	}
}

// Subscribers returns the number of open push connections for a game
func (b *Backend) Subscribers(gameID string) int {
	b.connMu.Lock()
	defer b.connMu.Unlock()
	return len(b.conns[gameID])
}

// Push sends an encoded update frame to every subscriber of a game
func (b *Backend) Push(t *testing.T, gameID string, eventType live.EventType, data interface{}) {
	t.Helper()
	frame, err := live.Encode(eventType, data)
	if err != nil {
		t.Fatalf("encoding frame: %v", err)
	}
	b.PushRaw(t, gameID, frame)
}

// PushRaw sends raw bytes as a text frame to every subscriber of a game
func (b *Backend) PushRaw(t *testing.T, gameID string, frame []byte) {
	t.Helper()
	b.connMu.Lock()
	defer b.connMu.Unlock()
	for conn := range b.conns[gameID] {
		conn.SetWriteDeadline(time.Now().Add(time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			t.Errorf("pushing frame to game %s: %v", gameID, err)
		}
	}
}

// Drop closes every push connection for a game without a close frame
func (b *Backend) Drop(gameID string) {
	b.connMu.Lock()
	defer b.connMu.Unlock()
	for conn := range b.conns[gameID] {
		conn.Close()
	}
	delete(b.conns, gameID)
}

func (b *Backend) countHits(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.hits[r.URL.Path]++
		status := b.failures[r.URL.Path]
		b.mu.Unlock()

		if status != 0 {
			http.Error(w, http.StatusText(status), status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) handleGames(w http.ResponseWriter, r *http.Request) {
	b.mu.RLock()
	games, ok := b.games[chi.URLParam(r, "date")]
	b.mu.RUnlock()
	if !ok {
		games = []domain.GameSummary{}
	}
	writeJSON(w, domain.GamesResponse{Games: games})
}

func (b *Backend) handleDetails(w http.ResponseWriter, r *http.Request) {
	b.mu.RLock()
	details, ok := b.details[chi.URLParam(r, "gameId")]
	b.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, domain.DetailsResponse{Details: &details})
}

func (b *Backend) handlePlayByPlay(w http.ResponseWriter, r *http.Request) {
	b.mu.RLock()
	actions, ok := b.actions[chi.URLParam(r, "gameId")]
	b.mu.RUnlock()
	if !ok {
		actions = []domain.PlayByPlayAction{}
	}
	writeJSON(w, domain.PlayByPlayResponse{PlayByPlay: actions})
}

// handleWebSocket registers the connection under its game and reads until
// the peer goes away
func (b *Backend) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameId")
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	b.connMu.Lock()
	if _, ok := b.conns[gameID]; !ok {
		b.conns[gameID] = make(map[*websocket.Conn]bool)
	}
	b.conns[gameID][conn] = true
	b.connMu.Unlock()

	select {
	case b.connected <- gameID:
	default:
	}

	defer func() {
		b.connMu.Lock()
		if conns, ok := b.conns[gameID]; ok {
			delete(conns, conn)
			if len(conns) == 0 {
				delete(b.conns, gameID)
			}
		}
		b.connMu.Unlock()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
