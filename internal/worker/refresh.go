package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/courtside-live/internal/config"
)

// Refresher reloads some piece of view state
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefresherFunc adapts a function to a Refresher
type RefresherFunc func(ctx context.Context) error

// Refresh implements Refresher
func (f RefresherFunc) Refresh(ctx context.Context) error {
	return f(ctx)
}

// Target is a named Refresher
type Target struct {
	Name      string
	Refresher Refresher
}

// RefreshWorker periodically reloads view state. Since failed fetches are
// not retried, the next tick is the retry.
type RefreshWorker struct {
	targets []Target
	config  *config.RefreshConfig
	logger  *slog.Logger
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// NewRefreshWorker creates a new refresh worker
func NewRefreshWorker(cfg *config.RefreshConfig, logger *slog.Logger, targets ...Target) *RefreshWorker {
	return &RefreshWorker{
		targets: targets,
		config:  cfg,
		logger:  logger,
	}
}

// Start begins the background refresh loop
func (w *RefreshWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	// Fresh channels per run so the worker can be restarted after Stop
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	stopCh, doneCh := w.stopCh, w.doneCh
	w.mu.Unlock()

	w.logger.Info("refresh worker started", "interval", w.config.Interval)

	go w.run(ctx, stopCh, doneCh)
	return nil
}

// Stop stops the background refresh loop
func (w *RefreshWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	stopCh, doneCh := w.stopCh, w.doneCh
	w.mu.Unlock()

	close(stopCh)
	<-doneCh

	w.logger.Info("refresh worker stopped")
	return nil
}

// run is the main worker loop
func (w *RefreshWorker) run(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			w.refreshAll(ctx)
		}
	}
}

// refreshAll refreshes every target, continuing past failures
func (w *RefreshWorker) refreshAll(ctx context.Context) {
	startTime := time.Now()
	errorCount := 0

	for _, target := range w.targets {
		if err := target.Refresher.Refresh(ctx); err != nil {
			w.logger.Warn("refresh failed", "target", target.Name, "error", err)
			errorCount++
		}
	}

	w.logger.Debug("refresh cycle completed",
		"duration", time.Since(startTime),
		"targets", len(w.targets),
		"errors", errorCount,
	)
}

// IsRunning returns whether the worker is currently running
func (w *RefreshWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// RunOnce runs a single refresh cycle
func (w *RefreshWorker) RunOnce(ctx context.Context) {
	w.refreshAll(ctx)
}
