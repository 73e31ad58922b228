package domain

import "strings"

// PlayByPlayAction is a single event in a game's play-by-play feed.
// ActionNumber is unique within a game and ascending order is chronological.
type PlayByPlayAction struct {
	ActionNumber int    `json:"actionNumber"`
	ActionType   string `json:"actionType"`
	SubType      string `json:"subType"`
	Clock        string `json:"clock"`
	Period       int    `json:"period"`
	TeamTricode  string `json:"teamTricode"`
	PlayerNameI  string `json:"playerNameI"`
	Description  string `json:"description"`
	ScoreHome    string `json:"scoreHome"`
	ScoreAway    string `json:"scoreAway"`
}

var scoringTypes = []string{"2pt", "3pt", "freethrow", "free throw", "field goal", "three pointer"}

// IsScoringAction guesses whether an action put points on the board.
// The upstream fields are free text, so this is a substring heuristic.
func IsScoringAction(action PlayByPlayAction) bool {
	actionType := strings.ToLower(action.ActionType)
	subType := strings.ToLower(action.SubType)
	for _, t := range scoringTypes {
		if strings.Contains(actionType, t) || strings.Contains(subType, t) {
			return true
		}
	}

	description := strings.ToLower(action.Description)
	return strings.Contains(description, "point") || strings.Contains(description, "free throw")
}

// DisplayActions returns the actions in the order they should be shown.
// Live games show the most recent action first. The input is never modified.
func DisplayActions(status GameStatus, actions []PlayByPlayAction) []PlayByPlayAction {
	out := make([]PlayByPlayAction, len(actions))
	if !status.IsLive() {
		copy(out, actions)
		return out
	}
	for i, a := range actions {
		out[len(actions)-1-i] = a
	}
	return out
}
