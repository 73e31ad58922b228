package live

import (
	"errors"
	"testing"

	"github.com/courtside-live/internal/domain"
)

func TestDecode_GameUpdate(t *testing.T) {
	raw := []byte(`{"type":"game_update","data":{"gameId":"0022400123","status":"live","statusText":"Q3 4:12","period":3,
		"homeTeam":{"teamTricode":"BOS","score":77},"awayTeam":{"teamTricode":"LAL","score":71},
		"lineScore":[{"teamAbbr":"BOS","q1":25,"q2":30,"q3":22,"q4":0,"total":77}]}}`)

	ev, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev.Type != TypeGameUpdate || ev.Details == nil {
		t.Fatalf("expected game update with details, got %+v", ev)
	}
	if ev.GameID != "0022400123" || ev.Details.HomeTeam.Score != 77 || len(ev.Details.LineScore) != 1 {
		t.Errorf("unexpected details %+v", ev.Details)
	}
	if ev.Actions != nil {
		t.Error("game update must not carry actions")
	}
}

func TestDecode_PlayByPlayUpdate(t *testing.T) {
	raw := []byte(`{"type":"playbyplay_update","data":[
		{"actionNumber":4,"actionType":"3pt","clock":"PT05M12.00S","period":1,"teamTricode":"GSW","scoreHome":"10","scoreAway":"8"},
		{"actionNumber":7,"actionType":"rebound","clock":"PT04M58.00S","period":1}]}`)

	ev, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev.Type != TypePlayByPlayUpdate || len(ev.Actions) != 2 {
		t.Fatalf("expected two actions, got %+v", ev)
	}
	if ev.Actions[0].ActionNumber != 4 || ev.Actions[1].ActionNumber != 7 {
		t.Errorf("unexpected action order %+v", ev.Actions)
	}
}

func TestDecode_EmptyPlayByPlayIsValid(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"playbyplay_update","data":[]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev.Actions == nil || len(ev.Actions) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", ev.Actions)
	}
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"invalid json", `{"type":`, domain.ErrMalformedPayload},
		{"not an object", `[1,2,3]`, domain.ErrMalformedPayload},
		{"unknown type", `{"type":"boxscore_update","data":{}}`, domain.ErrUnknownUpdateType},
		{"missing type", `{"data":{}}`, domain.ErrUnknownUpdateType},
		{"null game data", `{"type":"game_update","data":null}`, domain.ErrMalformedPayload},
		{"missing play data", `{"type":"playbyplay_update"}`, domain.ErrMalformedPayload},
		{"game data is a list", `{"type":"game_update","data":[]}`, domain.ErrMalformedPayload},
		{"play data is an object", `{"type":"playbyplay_update","data":{"actionNumber":1}}`, domain.ErrMalformedPayload},
		{"wrong field type", `{"type":"playbyplay_update","data":[{"actionNumber":"one"}]}`, domain.ErrMalformedPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Decode(%s) error = %v, want %v", tt.raw, err, tt.wantErr)
			}
			if !domain.IsDecodeError(err) {
				t.Errorf("expected a decode error, got %v", err)
			}
		})
	}
}

func TestEncode_RoundTripsThroughDecode(t *testing.T) {
	raw, err := Encode(TypePlayByPlayUpdate, []domain.PlayByPlayAction{{ActionNumber: 1}, {ActionNumber: 2}})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	ev, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(ev.Actions) != 2 || ev.Actions[1].ActionNumber != 2 {
		t.Errorf("unexpected actions %+v", ev.Actions)
	}
}

func TestHandlerFuncs_NilFuncsAreSkipped(t *testing.T) {
	var h Handler = HandlerFuncs{}
	h.GameUpdate(domain.GameDetails{})
	h.PlayByPlayUpdate(nil)
}
