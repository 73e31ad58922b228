package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/courtside-live/internal/board"
	"github.com/courtside-live/internal/config"
	"github.com/courtside-live/internal/domain"
	"github.com/courtside-live/internal/service"
	"github.com/courtside-live/internal/view"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Handler serves the reconciled scoreboard state to a local presentation layer
type Handler struct {
	scoreboard *service.Scoreboard
	config     *config.ServerConfig
	logger     *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(scoreboard *service.Scoreboard, cfg *config.ServerConfig, logger *slog.Logger) *Handler {
	return &Handler{
		scoreboard: scoreboard,
		config:     cfg,
		logger:     logger,
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// GameRow is a list row with its display strings
type GameRow struct {
	domain.GameSummary
	StatusLabel   string `json:"statusLabel"`
	LiveClock     string `json:"liveClock,omitempty"`
	HomeScoreText string `json:"homeScoreText"`
	AwayScoreText string `json:"awayScoreText"`
}

// BoardView is the games list response
type BoardView struct {
	Date    string    `json:"date"`
	Loading bool      `json:"loading"`
	Games   []GameRow `json:"games"`
}

// ActionRow is a play-by-play action with its display strings
type ActionRow struct {
	domain.PlayByPlayAction
	ClockText string `json:"clockText"`
	Scoring   bool   `json:"scoring"`
}

// GameView is the details response. Display holds the actions in the order
// they should be shown.
type GameView struct {
	view.State
	StatusLabel string      `json:"statusLabel,omitempty"`
	ClockText   string      `json:"clockText,omitempty"`
	Display     []ActionRow `json:"display"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.config.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/games", func(r chi.Router) {
			r.Get("/", h.GetGames)
			r.Post("/shift", h.ShiftDate)
			r.Get("/{gameID}", h.GetGame)
		})

		r.Delete("/session", h.DismissGame)
		r.Get("/stats", h.GetStats)
	})

	return r
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// ReadyCheck reports whether the board has loaded at least once
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	if h.scoreboard.Board().Snapshot().Loading {
		h.writeJSON(w, http.StatusServiceUnavailable, APIResponse{
			Success: false,
			Data:    map[string]string{"status": "loading"},
		})
		return
	}
	h.writeSuccess(w, map[string]string{"status": "ready"})
}

// GetGames returns the games list, switching dates when ?date= is given
func (h *Handler) GetGames(w http.ResponseWriter, r *http.Request) {
	b := h.scoreboard.Board()

	if date := r.URL.Query().Get("date"); date != "" && date != b.Date() {
		if err := b.Select(r.Context(), date); err != nil {
			if errors.Is(err, domain.ErrInvalidDate) {
				h.writeError(w, http.StatusBadRequest, err)
				return
			}
			h.logger.Warn("games fetch failed", "date", date, "error", err)
		}
	}

	h.writeSuccess(w, newBoardView(b.Snapshot()))
}

// ShiftDate moves the board by ?days= (default 1, negative for earlier)
func (h *Handler) ShiftDate(w http.ResponseWriter, r *http.Request) {
	days := 1
	if d := r.URL.Query().Get("days"); d != "" {
		parsed, err := strconv.Atoi(d)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
			return
		}
		days = parsed
	}

	b := h.scoreboard.Board()
	if err := b.Shift(r.Context(), days); err != nil {
		if errors.Is(err, domain.ErrInvalidDate) {
			h.writeError(w, http.StatusBadRequest, err)
			return
		}
		h.logger.Warn("games fetch failed", "date", b.Date(), "error", err)
	}

	h.writeSuccess(w, newBoardView(b.Snapshot()))
}

// GetGame opens the game's view, or reuses it if already open, and
// returns its current state
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")

	session, err := h.scoreboard.Open(gameID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRequest):
			h.writeError(w, http.StatusBadRequest, err)
		case errors.Is(err, domain.ErrNoSession):
			h.writeError(w, http.StatusServiceUnavailable, err)
		default:
			h.logger.Error("failed to open game", "game_id", gameID, "error", err)
			h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		}
		return
	}

	h.writeSuccess(w, newGameView(session.Snapshot()))
}

// DismissGame closes the open game view
func (h *Handler) DismissGame(w http.ResponseWriter, r *http.Request) {
	h.scoreboard.Dismiss()
	h.writeSuccess(w, map[string]string{"status": "dismissed"})
}

// GetStats returns scoreboard and live channel counters
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, h.scoreboard.Stats())
}

func newBoardView(st board.State) BoardView {
	rows := make([]GameRow, 0, len(st.Games))
	for _, g := range st.Games {
		rows = append(rows, GameRow{
			GameSummary:   g,
			StatusLabel:   domain.StatusLabel(g.Status),
			LiveClock:     domain.LiveClock(g),
			HomeScoreText: domain.ScoreText(g.HomeScore),
			AwayScoreText: domain.ScoreText(g.AwayScore),
		})
	}
	return BoardView{
		Date:    st.Date,
		Loading: st.Loading,
		Games:   rows,
	}
}

func newGameView(st view.State) GameView {
	gv := GameView{State: st}
	if st.Details != nil {
		gv.StatusLabel = domain.StatusLabel(st.Details.Status)
		gv.ClockText = domain.FormatClock(st.Details.GameClock)
	}

	actions := st.DisplayActions()
	gv.Display = make([]ActionRow, 0, len(actions))
	for _, a := range actions {
		gv.Display = append(gv.Display, ActionRow{
			PlayByPlayAction: a,
			ClockText:        domain.FormatClock(a.Clock),
			Scoring:          domain.IsScoringAction(a),
		})
	}
	return gv
}
