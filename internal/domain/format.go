package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Seconds are floored by dropping the fraction, so any digit count works
var clockPattern = regexp.MustCompile(`PT(\d+)M(\d+)(?:\.\d+)?S`)

// FormatClock turns a PT<m>M<s>S duration into m:ss.
// Empty input renders as "-", anything unparseable is returned unchanged.
func FormatClock(clock string) string {
	if clock == "" {
		return "-"
	}

	match := clockPattern.FindStringSubmatch(clock)
	if match == nil {
		return clock
	}

	seconds := strings.TrimLeft(match[2], "0")
	if len(seconds) < 2 {
		seconds = strings.Repeat("0", 2-len(seconds)) + seconds
	}
	return match[1] + ":" + seconds
}

// StatusLabel returns the badge text for a game status
func StatusLabel(status GameStatus) string {
	switch status {
	case StatusLive:
		return "LIVE"
	case StatusUpcoming:
		return "SCHEDULED"
	case StatusFinal:
		return "FINAL"
	default:
		return strings.ToUpper(string(status))
	}
}

// LiveClock renders the "Q4 5:23" marker shown on a live list row.
// It is empty unless the game is live and has a quarter.
func LiveClock(game GameSummary) string {
	if !game.Status.IsLive() || game.Quarter == 0 {
		return ""
	}
	return fmt.Sprintf("Q%d %s", game.Quarter, FormatClock(game.TimeRemaining))
}

// ScoreText renders a list score, using "-" for a zero score
func ScoreText(score int) string {
	if score == 0 {
		return "-"
	}
	return strconv.Itoa(score)
}

// RecordText renders a team's win-loss record
func RecordText(team TeamDetails) string {
	return fmt.Sprintf("%dW - %dL", team.Wins, team.Losses)
}
