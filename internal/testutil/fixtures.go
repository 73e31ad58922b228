package testutil

import (
	"fmt"

	"github.com/courtside-live/internal/domain"
)

// MockGameSummary creates a list row for a game
func MockGameSummary(gameID string, status domain.GameStatus) domain.GameSummary {
	return domain.GameSummary{
		GameID:       gameID,
		GameDate:     "2024-01-15",
		HomeTeamID:   1610612747,
		HomeTeamName: "Lakers",
		HomeTeamAbbr: "LAL",
		AwayTeamID:   1610612744,
		AwayTeamName: "Warriors",
		AwayTeamAbbr: "GSW",
		Status:       status,
		HomeScore:    98,
		AwayScore:    95,
		Arena:        "Crypto.com Arena",
		Broadcaster:  "ESPN",
	}
}

// MockGameDetails creates a details snapshot for a game
func MockGameDetails(gameID string, status domain.GameStatus) domain.GameDetails {
	return domain.GameDetails{
		GameID:     gameID,
		Status:     status,
		StatusText: "Q4 5:23",
		Period:     4,
		GameClock:  "PT05M23.00S",
		Arena: domain.Arena{
			Name:  "Crypto.com Arena",
			City:  "Los Angeles",
			State: "CA",
		},
		HomeTeam: domain.TeamDetails{
			TeamCity:    "Los Angeles",
			TeamName:    "Lakers",
			TeamTricode: "LAL",
			Score:       98,
			Wins:        25,
			Losses:      17,
			Periods: []domain.PeriodScore{
				{Period: 1, Score: 28}, {Period: 2, Score: 24},
				{Period: 3, Score: 26}, {Period: 4, Score: 20},
			},
			Players: []domain.Player{
				{PersonID: 2544, Name: "LeBron James", NameI: "L. James", JerseyNum: "23"},
			},
		},
		AwayTeam: domain.TeamDetails{
			TeamCity:    "Golden State",
			TeamName:    "Warriors",
			TeamTricode: "GSW",
			Score:       95,
			Wins:        21,
			Losses:      21,
			Periods: []domain.PeriodScore{
				{Period: 1, Score: 22}, {Period: 2, Score: 27},
				{Period: 3, Score: 25}, {Period: 4, Score: 21},
			},
			Players: []domain.Player{
				{PersonID: 201939, Name: "Stephen Curry", NameI: "S. Curry", JerseyNum: "30"},
			},
		},
		LineScore: []domain.LineScore{
			{TeamAbbr: "GSW", Q1: 22, Q2: 27, Q3: 25, Q4: 21, Total: 95},
			{TeamAbbr: "LAL", Q1: 28, Q2: 24, Q3: 26, Q4: 20, Total: 98},
		},
		LastFiveMeetings: &domain.MeetingHistory{
			Meetings: []domain.Meeting{
				{
					GameTimeUTC:    "2023-12-25T20:00:00Z",
					GameStatusText: "Final",
					AwayTeam:       domain.MeetingSide{TeamTricode: "GSW", Score: 110},
					HomeTeam:       domain.MeetingSide{TeamTricode: "LAL", Score: 115},
				},
			},
		},
	}
}

// MockAction creates a play-by-play action with the given number
func MockAction(number int) domain.PlayByPlayAction {
	return domain.PlayByPlayAction{
		ActionNumber: number,
		ActionType:   "2pt",
		SubType:      "Layup",
		Clock:        fmt.Sprintf("PT%02dM%02d.00S", 11-number%12, number%60),
		Period:       1,
		TeamTricode:  "LAL",
		PlayerNameI:  "L. James",
		Description:  fmt.Sprintf("L. James driving layup (%d PTS)", number*2),
		ScoreHome:    fmt.Sprintf("%d", number*2),
		ScoreAway:    "0",
	}
}

// MockActions creates actions numbered 1..n in ascending order
func MockActions(n int) []domain.PlayByPlayAction {
	actions := make([]domain.PlayByPlayAction, 0, n)
	for i := 1; i <= n; i++ {
		actions = append(actions, MockAction(i))
	}
	return actions
}
