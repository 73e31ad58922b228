package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/courtside-live/internal/api"
	"github.com/courtside-live/internal/board"
	"github.com/courtside-live/internal/config"
	"github.com/courtside-live/internal/handler"
	"github.com/courtside-live/internal/kafka"
	"github.com/courtside-live/internal/live"
	"github.com/courtside-live/internal/redis"
	"github.com/courtside-live/internal/render"
	"github.com/courtside-live/internal/service"
	"github.com/courtside-live/internal/view"
	"github.com/courtside-live/internal/websocket"
	"github.com/courtside-live/internal/worker"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	date := flag.String("date", "", "Date to show (YYYY-MM-DD, default today)")
	gameID := flag.String("game", "", "Game to follow")
	serve := flag.Bool("serve", false, "Serve the view state over HTTP")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Warn("failed to load config file, using defaults", "error", err)
		cfg = config.DefaultConfig()
	}

	// Setup structured logging. Stdout carries the rendered views.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := api.NewClient(&cfg.API, logger)

	// Optional response cache
	var cache service.Cache
	if cfg.Redis.Enabled {
		logger.Info("connecting to Redis", "addr", cfg.Redis.Addr)
		redisCache, err := redis.NewCache(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("failed to connect to Redis, continuing without cache", "error", err)
		} else {
			defer redisCache.Close()
			cache = redisCache
			logger.Info("connected to Redis")
		}
	}

	games := service.NewGameService(client, cache, logger)

	brd, err := board.New(games, *date, logger)
	if err != nil {
		logger.Error("invalid date", "error", err)
		os.Exit(1)
	}

	transport, err := newTransport(cfg, logger)
	if err != nil {
		logger.Error("failed to create live transport", "error", err)
		os.Exit(1)
	}

	scoreboard := service.NewScoreboard(ctx, brd, games,
		service.LiveChannelFactory(transport, cfg.Live.EventBuffer, logger), logger)
	defer scoreboard.Close()

	if err := brd.Refresh(ctx); err != nil {
		logger.Warn("initial games fetch failed", "date", brd.Date(), "error", err)
	}
	render.Board(os.Stdout, brd.Snapshot())

	if *gameID == "" && !*serve {
		return
	}

	if *gameID != "" {
		session, err := scoreboard.Open(*gameID)
		if err != nil {
			logger.Error("failed to open game", "game_id", *gameID, "error", err)
			os.Exit(1)
		}
		go follow(ctx, session)
	}

	// Initialize refresh worker
	refreshWorker := worker.NewRefreshWorker(&cfg.Refresh, logger,
		worker.Target{Name: "board", Refresher: brd},
		worker.Target{Name: "session", Refresher: worker.RefresherFunc(scoreboard.RefreshSession)},
	)
	if cfg.Refresh.Enabled {
		if err := refreshWorker.Start(ctx); err != nil {
			logger.Error("failed to start refresh worker", "error", err)
			os.Exit(1)
		}
	}

	var server *http.Server
	if *serve {
		httpHandler := handler.NewHandler(scoreboard, &cfg.Server, logger)
		server = &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      httpHandler.Router(),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		}

		go func() {
			logger.Info("starting HTTP server", "port", cfg.Server.Port)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "error", err)
				os.Exit(1)
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Stop refresh worker
	if err := refreshWorker.Stop(); err != nil {
		logger.Error("failed to stop refresh worker", "error", err)
	}

	// Shutdown HTTP server
	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown server", "error", err)
		}
	}

	scoreboard.Close()
	logger.Info("stopped")
}

// newTransport builds the configured push transport
func newTransport(cfg *config.Config, logger *slog.Logger) (live.Transport, error) {
	switch cfg.Live.Transport {
	case config.TransportKafka:
		logger.Info("using Kafka live transport", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
		return kafka.NewTransport(&cfg.Kafka, logger), nil
	case config.TransportWebSocket:
		logger.Info("using WebSocket live transport", "base_url", cfg.API.WSBaseURL)
		return websocket.NewTransport(&cfg.API, &cfg.Live, logger), nil
	default:
		return nil, fmt.Errorf("unknown live transport %q", cfg.Live.Transport)
	}
}

// follow re-renders the game view whenever its state changes
func follow(ctx context.Context, session *view.Session) {
	var rendered uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-session.Updates():
			st := session.Snapshot()
			if st.Version == rendered {
				continue
			}
			rendered = st.Version
			fmt.Fprint(os.Stdout, "\n")
			render.Game(os.Stdout, st)
		}
	}
}
