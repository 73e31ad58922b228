package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/courtside-live/internal/config"
)

type countingRefresher struct {
	calls atomic.Int64
	err   error
}

func (r *countingRefresher) Refresh(ctx context.Context) error {
	r.calls.Add(1)
	return r.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRefreshWorker_RunOnceContinuesPastFailures(t *testing.T) {
	failing := &countingRefresher{err: errors.New("backend down")}
	ok := &countingRefresher{}

	w := NewRefreshWorker(&config.RefreshConfig{Interval: time.Hour}, testLogger(),
		Target{Name: "board", Refresher: failing},
		Target{Name: "session", Refresher: ok},
	)
	w.RunOnce(context.Background())

	if failing.calls.Load() != 1 || ok.calls.Load() != 1 {
		t.Errorf("calls = %d, %d, want 1, 1", failing.calls.Load(), ok.calls.Load())
	}
}

func TestRefreshWorker_TicksUntilStopped(t *testing.T) {
	r := &countingRefresher{}
	w := NewRefreshWorker(&config.RefreshConfig{Interval: 10 * time.Millisecond}, testLogger(),
		Target{Name: "board", Refresher: r},
	)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !w.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}
	// Second start is a no-op
	w.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for r.calls.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("only %d refreshes before deadline", r.calls.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if w.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}

	calls := r.calls.Load()
	time.Sleep(30 * time.Millisecond)
	if r.calls.Load() != calls {
		t.Error("refreshes continued after Stop")
	}
}

func TestRefreshWorker_StopWithoutStart(t *testing.T) {
	w := NewRefreshWorker(&config.RefreshConfig{Interval: time.Second}, testLogger())
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestRefreshWorker_Restart(t *testing.T) {
	r := &countingRefresher{}
	w := NewRefreshWorker(&config.RefreshConfig{Interval: 10 * time.Millisecond}, testLogger(),
		Target{Name: "board", Refresher: r},
	)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := w.Start(ctx); err != nil {
			t.Fatalf("Start() #%d error = %v", i+1, err)
		}
		want := r.calls.Load() + 2
		deadline := time.Now().Add(2 * time.Second)
		for r.calls.Load() < want {
			if time.Now().After(deadline) {
				t.Fatalf("run #%d did not tick", i+1)
			}
			time.Sleep(5 * time.Millisecond)
		}
		if err := w.Stop(); err != nil {
			t.Fatalf("Stop() #%d error = %v", i+1, err)
		}
	}

	if w.IsRunning() {
		t.Error("IsRunning() = true after final Stop")
	}
	if err := w.Stop(); err != nil {
		t.Errorf("extra Stop() error = %v", err)
	}
}
