package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/courtside-live/internal/api"
	"github.com/courtside-live/internal/config"
	"github.com/courtside-live/internal/domain"
	"github.com/courtside-live/internal/kafka"
	"github.com/courtside-live/internal/live"
)

func main() {
	// Command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	gameID := flag.String("game", "", "Game whose play-by-play is replayed")
	brokers := flag.String("brokers", "", "Kafka brokers (comma-separated, overrides config)")
	topic := flag.String("topic", "", "Kafka topic (overrides config)")
	interval := flag.Duration("rate", time.Second, "Delay between frames")
	start := flag.Int("start", 1, "Number of actions in the first frame")
	final := flag.Bool("final", false, "Publish the details as final after the last frame")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	if *gameID == "" {
		fmt.Fprintln(os.Stderr, "-game is required")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("failed to load config file, using defaults", "error", err)
		cfg = config.DefaultConfig()
	}
	if *brokers != "" {
		cfg.Kafka.Brokers = strings.Split(*brokers, ",")
	}
	if *topic != "" {
		cfg.Kafka.Topic = *topic
	}

	fmt.Println("Live frame replay")
	fmt.Printf("  Brokers:  %s\n", strings.Join(cfg.Kafka.Brokers, ","))
	fmt.Printf("  Topic:    %s\n", cfg.Kafka.Topic)
	fmt.Printf("  Game:     %s\n", *gameID)
	fmt.Printf("  Interval: %s\n", *interval)
	fmt.Println()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := api.NewClient(&cfg.API, logger)
	details, err := client.FetchDetails(ctx, *gameID)
	if err != nil {
		logger.Error("failed to fetch game details", "game_id", *gameID, "error", err)
		os.Exit(1)
	}
	actions, err := client.FetchPlayByPlay(ctx, *gameID)
	if err != nil {
		logger.Error("failed to fetch play-by-play", "game_id", *gameID, "error", err)
		os.Exit(1)
	}

	publisher, err := kafka.NewPublisher(&cfg.Kafka, logger)
	if err != nil {
		logger.Error("failed to create publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	current := *details
	current.Status = domain.StatusLive
	if err := publisher.PublishUpdate(*gameID, live.TypeGameUpdate, current); err != nil {
		logger.Error("failed to publish details", "error", err)
		os.Exit(1)
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	sent, failed := 0, 0
	n := *start
	if n < 1 {
		n = 1
	}
	for n <= len(actions) {
		if err := publisher.PublishUpdate(*gameID, live.TypePlayByPlayUpdate, actions[:n]); err != nil {
			failed++
			logger.Error("failed to publish play-by-play", "actions", n, "error", err)
		} else {
			sent++
			a := actions[n-1]
			fmt.Printf("[%s] %d/%d Q%d %s %s\n",
				time.Now().Format("15:04:05"), n, len(actions),
				a.Period, domain.FormatClock(a.Clock), a.Description)
		}
		n++

		select {
		case <-sigChan:
			fmt.Println("\nShutting down...")
			fmt.Printf("Completed. Sent: %d, Errors: %d\n", sent, failed)
			return
		case <-ticker.C:
		}
	}

	if *final {
		done := *details
		done.Status = domain.StatusFinal
		if err := publisher.PublishUpdate(*gameID, live.TypeGameUpdate, done); err != nil {
			failed++
			logger.Error("failed to publish final details", "error", err)
		} else {
			sent++
		}
	}

	fmt.Printf("Completed. Sent: %d, Errors: %d\n", sent, failed)
}

