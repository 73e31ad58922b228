package live

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/courtside-live/internal/domain"
)

// EventType is the discriminant carried by every push frame
type EventType string

const (
	TypeGameUpdate       EventType = "game_update"
	TypePlayByPlayUpdate EventType = "playbyplay_update"
)

// Frame is the wire shape of a push message
type Frame struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Event is a decoded frame. Details is set for game updates and Actions for
// play-by-play updates; both are complete replacements, not deltas.
type Event struct {
	Type           EventType
	GameID         string
	SubscriptionID string
	Details        *domain.GameDetails
	Actions        []domain.PlayByPlayAction
}

// Handler receives the two update streams
type Handler interface {
	GameUpdate(details domain.GameDetails)
	PlayByPlayUpdate(actions []domain.PlayByPlayAction)
}

// HandlerFuncs adapts two functions to a Handler. Nil funcs are skipped.
type HandlerFuncs struct {
	OnGameUpdate       func(details domain.GameDetails)
	OnPlayByPlayUpdate func(actions []domain.PlayByPlayAction)
}

// GameUpdate implements Handler
func (h HandlerFuncs) GameUpdate(details domain.GameDetails) {
	if h.OnGameUpdate != nil {
		h.OnGameUpdate(details)
	}
}

// PlayByPlayUpdate implements Handler
func (h HandlerFuncs) PlayByPlayUpdate(actions []domain.PlayByPlayAction) {
	if h.OnPlayByPlayUpdate != nil {
		h.OnPlayByPlayUpdate(actions)
	}
}

// Decode parses a raw frame into an Event
func Decode(raw []byte) (Event, error) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return Event{}, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}

	data := bytes.TrimSpace(frame.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		if frame.Type != TypeGameUpdate && frame.Type != TypePlayByPlayUpdate {
			return Event{}, fmt.Errorf("%w: %q", domain.ErrUnknownUpdateType, frame.Type)
		}
		return Event{}, fmt.Errorf("%w: %s frame without data", domain.ErrMalformedPayload, frame.Type)
	}

	switch frame.Type {
	case TypeGameUpdate:
		if data[0] != '{' {
			return Event{}, fmt.Errorf("%w: game_update data is not an object", domain.ErrMalformedPayload)
		}
		var details domain.GameDetails
		if err := json.Unmarshal(data, &details); err != nil {
			return Event{}, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
		}
		return Event{Type: TypeGameUpdate, GameID: details.GameID, Details: &details}, nil

	case TypePlayByPlayUpdate:
		if data[0] != '[' {
			return Event{}, fmt.Errorf("%w: playbyplay_update data is not a list", domain.ErrMalformedPayload)
		}
		actions := []domain.PlayByPlayAction{}
		if err := json.Unmarshal(data, &actions); err != nil {
			return Event{}, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
		}
		return Event{Type: TypePlayByPlayUpdate, Actions: actions}, nil

	default:
		return Event{}, fmt.Errorf("%w: %q", domain.ErrUnknownUpdateType, frame.Type)
	}
}

// Encode builds the wire frame for an update; used by replay tooling and tests
func Encode(eventType EventType, data interface{}) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshaling frame data: %w", err)
	}
	return json.Marshal(Frame{Type: eventType, Data: payload})
}
