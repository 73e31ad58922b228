package view

import (
	"context"
	"log/slog"
	"sync"

	"github.com/courtside-live/internal/domain"
	"github.com/courtside-live/internal/live"
)

// Fetcher loads the baseline state of a game
type Fetcher interface {
	FetchDetails(ctx context.Context, gameID string) (*domain.GameDetails, error)
	FetchPlayByPlay(ctx context.Context, gameID string) ([]domain.PlayByPlayAction, error)
}

// Channel is the push subscription a session drives. *live.Channel
// implements it.
type Channel interface {
	Events() <-chan live.Event
	Sync(gameID string, live bool)
	Dispatch(ev live.Event, h live.Handler) bool
	Reconnect() bool
	Connected() bool
	Close()
	Stats() live.Stats
}

// Session owns the reconciled state of one open game view. All mutation
// happens on a single run loop; readers take snapshots.
type Session struct {
	gameID  string
	fetcher Fetcher
	channel Channel
	logger  *slog.Logger

	inbox   chan interface{}
	updates chan struct{}

	mu    sync.RWMutex
	state State

	// Owned by the run loop
	detailsPushes uint64
	actionsPushes uint64

	// ctx and cancel are published under lifeMu by Start
	lifeMu    sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	closed    bool
	wg        sync.WaitGroup
	startOnce sync.Once
	closeOnce sync.Once
}

// Inbox messages
type (
	loadRequest struct {
		force bool
	}

	detailsResult struct {
		details  *domain.GameDetails
		err      error
		pushSeen uint64
	}

	actionsResult struct {
		actions  []domain.PlayByPlayAction
		err      error
		pushSeen uint64
	}
)

// NewSession creates a session for gameID. The session takes ownership of
// channel and closes it on Close.
func NewSession(gameID string, fetcher Fetcher, channel Channel, logger *slog.Logger) *Session {
	return &Session{
		gameID:  gameID,
		fetcher: fetcher,
		channel: channel,
		logger:  logger.With("game_id", gameID),
		inbox:   make(chan interface{}, 16),
		updates: make(chan struct{}, 1),
		state: State{
			GameID:  gameID,
			Loading: true,
		},
	}
}

// GameID returns the game this session views
func (s *Session) GameID() string {
	return s.gameID
}

// Start begins the run loop and issues the baseline fetches
func (s *Session) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.lifeMu.Lock()
		if s.closed {
			s.lifeMu.Unlock()
			return
		}
		s.ctx, s.cancel = context.WithCancel(ctx)
		s.wg.Add(1)
		s.lifeMu.Unlock()

		go func() {
			defer s.wg.Done()
			s.run()
		}()

		s.post(loadRequest{force: true})
	})
}

// Refresh re-fetches the baseline unless the push feed is delivering
// updates. A live game with a failed subscription is reconnected.
func (s *Session) Refresh(ctx context.Context) error {
	runCtx := s.runContext()
	if runCtx == nil {
		return domain.ErrNoSession
	}
	select {
	case s.inbox <- loadRequest{}:
		return nil
	case <-runCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns a copy of the current state
func (s *Session) Snapshot() State {
	s.mu.RLock()
	state := s.state.clone()
	s.mu.RUnlock()

	state.Connected = s.channel.Connected()
	return state
}

// Updates signals after every state change. Signals coalesce; read
// Snapshot after receiving one.
func (s *Session) Updates() <-chan struct{} {
	return s.updates
}

// Stats returns the push channel counters
func (s *Session) Stats() live.Stats {
	return s.channel.Stats()
}

// Close stops the run loop, abandons in-flight fetches and closes the
// push subscription
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.lifeMu.Lock()
		s.closed = true
		cancel := s.cancel
		s.lifeMu.Unlock()

		if cancel != nil {
			cancel()
		}
		s.wg.Wait()
		s.channel.Close()
		s.logger.Info("game view closed")
	})
}

// runContext returns the run loop's context, or nil before Start
func (s *Session) runContext() context.Context {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	return s.ctx
}

func (s *Session) post(msg interface{}) {
	select {
	case s.inbox <- msg:
	case <-s.ctx.Done():
	}
}

// run is the single dispatch loop for fetch results and push events
func (s *Session) run() {
	handler := loopHandler{s}
	for {
		select {
		case <-s.ctx.Done():
			return

		case msg := <-s.inbox:
			switch m := msg.(type) {
			case loadRequest:
				s.load(m.force)
			case detailsResult:
				s.applyDetailsResult(m)
			case actionsResult:
				s.applyActionsResult(m)
			}

		case ev := <-s.channel.Events():
			s.channel.Dispatch(ev, handler)
		}
	}
}

// load issues both baseline fetches concurrently
func (s *Session) load(force bool) {
	if !force {
		s.mu.RLock()
		isLive := s.state.Live()
		s.mu.RUnlock()

		if isLive && s.channel.Connected() {
			return
		}
		if isLive && s.channel.Reconnect() {
			s.logger.Info("reconnecting live channel")
		}
	}

	detailsSeen := s.detailsPushes
	actionsSeen := s.actionsPushes

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		details, err := s.fetcher.FetchDetails(s.ctx, s.gameID)
		s.post(detailsResult{details: details, err: err, pushSeen: detailsSeen})
	}()
	go func() {
		defer s.wg.Done()
		actions, err := s.fetcher.FetchPlayByPlay(s.ctx, s.gameID)
		s.post(actionsResult{actions: actions, err: err, pushSeen: actionsSeen})
	}()
}

func (s *Session) applyDetailsResult(r detailsResult) {
	if r.err != nil {
		if s.ctx.Err() == nil {
			s.logger.Warn("details fetch failed", "error", r.err)
		}
		s.update(func(st *State) { st.Loading = false })
		return
	}
	if r.pushSeen != s.detailsPushes {
		s.logger.Debug("discarding details fetched before a newer push")
		s.update(func(st *State) { st.Loading = false })
		return
	}

	s.update(func(st *State) {
		st.Details = r.details
		st.Loading = false
	})
	s.syncChannel()
}

func (s *Session) applyActionsResult(r actionsResult) {
	if r.err != nil {
		if s.ctx.Err() == nil {
			s.logger.Warn("play-by-play fetch failed", "error", r.err)
		}
		return
	}
	if r.pushSeen != s.actionsPushes {
		s.logger.Debug("discarding play-by-play fetched before a newer push")
		return
	}

	s.update(func(st *State) { st.Actions = r.actions })
}

// syncChannel feeds the current game id and liveness to the channel
func (s *Session) syncChannel() {
	s.mu.RLock()
	isLive := s.state.Live()
	s.mu.RUnlock()

	s.channel.Sync(s.gameID, isLive)
}

// update applies fn under the write lock and signals readers
func (s *Session) update(fn func(st *State)) {
	s.mu.Lock()
	fn(&s.state)
	s.state.Version++
	s.mu.Unlock()

	select {
	case s.updates <- struct{}{}:
	default:
	}
}

// loopHandler applies push updates; it only runs on the session loop
type loopHandler struct {
	s *Session
}

// GameUpdate replaces the details snapshot wholesale
func (h loopHandler) GameUpdate(details domain.GameDetails) {
	s := h.s
	if details.GameID != "" && details.GameID != s.gameID {
		s.logger.Warn("ignoring game update for another game", "update_game_id", details.GameID)
		return
	}

	s.detailsPushes++
	s.update(func(st *State) {
		st.Details = &details
		st.Loading = false
	})
	s.syncChannel()
}

// PlayByPlayUpdate replaces the action list wholesale
func (h loopHandler) PlayByPlayUpdate(actions []domain.PlayByPlayAction) {
	s := h.s
	s.actionsPushes++
	s.update(func(st *State) { st.Actions = actions })
}
