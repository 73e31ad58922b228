package view

import (
	"github.com/courtside-live/internal/domain"
)

// State is the reconciled model of one game view. Actions is kept in the
// order it was received; use DisplayActions for rendering.
type State struct {
	GameID    string                    `json:"gameId"`
	Details   *domain.GameDetails       `json:"details"`
	Actions   []domain.PlayByPlayAction `json:"actions"`
	Loading   bool                      `json:"loading"`
	Connected bool                      `json:"connected"`
	Version   uint64                    `json:"version"`
}

// Status returns the game status, or "" before details have loaded
func (s State) Status() domain.GameStatus {
	if s.Details == nil {
		return ""
	}
	return s.Details.Status
}

// Live reports whether the loaded game is live
func (s State) Live() bool {
	return s.Status().IsLive()
}

// DisplayActions returns the actions in display order
func (s State) DisplayActions() []domain.PlayByPlayAction {
	return domain.DisplayActions(s.Status(), s.Actions)
}

// clone copies the state so callers cannot alias the session's model
func (s State) clone() State {
	out := s
	if s.Details != nil {
		details := *s.Details
		out.Details = &details
	}
	if s.Actions != nil {
		out.Actions = make([]domain.PlayByPlayAction, len(s.Actions))
		copy(out.Actions, s.Actions)
	}
	return out
}
