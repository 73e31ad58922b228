package domain

// GameStatus represents where a game is in its lifecycle
type GameStatus string

const (
	StatusUpcoming GameStatus = "upcoming"
	StatusLive     GameStatus = "live"
	StatusFinal    GameStatus = "final"
)

// IsLive reports whether the status is the live status
func (s GameStatus) IsLive() bool {
	return s == StatusLive
}

// GameSummary is one row of the games list for a date
type GameSummary struct {
	GameID        string     `json:"gameId"`
	GameDate      string     `json:"gameDate"`
	HomeTeamID    int64      `json:"homeTeamId"`
	HomeTeamName  string     `json:"homeTeamName"`
	HomeTeamAbbr  string     `json:"homeTeamAbbr"`
	AwayTeamID    int64      `json:"awayTeamId"`
	AwayTeamName  string     `json:"awayTeamName"`
	AwayTeamAbbr  string     `json:"awayTeamAbbr"`
	Status        GameStatus `json:"status"`
	HomeScore     int        `json:"homeScore"`
	AwayScore     int        `json:"awayScore"`
	Quarter       int        `json:"quarter,omitempty"`
	TimeRemaining string     `json:"timeRemaining,omitempty"`
	Arena         string     `json:"arena,omitempty"`
	Broadcaster   string     `json:"broadcaster,omitempty"`
}

// Arena is the venue of a game
type Arena struct {
	Name  string `json:"name"`
	City  string `json:"city"`
	State string `json:"state"`
}

// PeriodScore is the points a team scored in one period
type PeriodScore struct {
	Period int `json:"period"`
	Score  int `json:"score"`
}

// Player is a roster entry on a team
type Player struct {
	PersonID  int64  `json:"personId"`
	Name      string `json:"name"`
	NameI     string `json:"nameI"`
	JerseyNum string `json:"jerseyNum"`
}

// TeamDetails holds one side of a game's box score
type TeamDetails struct {
	TeamCity    string        `json:"teamCity"`
	TeamName    string        `json:"teamName"`
	TeamTricode string        `json:"teamTricode"`
	Score       int           `json:"score"`
	Wins        int           `json:"wins"`
	Losses      int           `json:"losses"`
	Periods     []PeriodScore `json:"periods"`
	Players     []Player      `json:"players"`
}

// LineScore is one team's quarter-by-quarter breakdown
type LineScore struct {
	TeamAbbr string `json:"teamAbbr"`
	Q1       int    `json:"q1"`
	Q2       int    `json:"q2"`
	Q3       int    `json:"q3"`
	Q4       int    `json:"q4"`
	Total    int    `json:"total"`
}

// MeetingSide is one team's result in a past meeting
type MeetingSide struct {
	TeamTricode string `json:"teamTricode"`
	Score       int    `json:"score"`
}

// Meeting is a previous game between the same two teams
type Meeting struct {
	GameDate       string      `json:"gameDate,omitempty"`
	GameTimeUTC    string      `json:"gameTimeUTC"`
	GameStatusText string      `json:"gameStatusText"`
	AwayTeam       MeetingSide `json:"awayTeam"`
	HomeTeam       MeetingSide `json:"homeTeam"`
}

// MeetingHistory wraps the last meetings between the teams
type MeetingHistory struct {
	Meetings []Meeting `json:"meetings"`
}

// GameDetails is the full snapshot of a single game.
// Push updates replace it wholesale; it is never patched field by field.
type GameDetails struct {
	GameID           string          `json:"gameId"`
	Status           GameStatus      `json:"status"`
	StatusText       string          `json:"statusText"`
	Period           int             `json:"period"`
	GameClock        string          `json:"gameClock"`
	Arena            Arena           `json:"arena"`
	HomeTeam         TeamDetails     `json:"homeTeam"`
	AwayTeam         TeamDetails     `json:"awayTeam"`
	LineScore        []LineScore     `json:"lineScore"`
	LastFiveMeetings *MeetingHistory `json:"lastFiveMeetings,omitempty"`
}

// GamesResponse is the body of GET /games/{date}
type GamesResponse struct {
	Games []GameSummary `json:"games"`
}

// DetailsResponse is the body of GET /games/{gameId}/details
type DetailsResponse struct {
	Details *GameDetails `json:"details"`
}

// PlayByPlayResponse is the body of GET /games/{gameId}/playbyplay
type PlayByPlayResponse struct {
	PlayByPlay []PlayByPlayAction `json:"play_by_play"`
}
