package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/courtside-live/internal/board"
	"github.com/courtside-live/internal/domain"
	"github.com/courtside-live/internal/view"
)

const (
	emptyGames   = "no games found"
	emptyActions = "no actions yet"
	loadingText  = "loading..."
	scoringMark  = "*"
)

// Board writes the games list for the selected date
func Board(w io.Writer, st board.State) error {
	fmt.Fprintf(w, "Games for %s\n\n", st.Date)

	switch {
	case st.Loading && len(st.Games) == 0:
		fmt.Fprintln(w, loadingText)
		return nil
	case len(st.Games) == 0:
		fmt.Fprintln(w, emptyGames)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GAME\tAWAY\t\tHOME\t\tSTATUS\tCLOCK\tARENA")
	for _, g := range st.Games {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			g.GameID,
			g.AwayTeamAbbr, domain.ScoreText(g.AwayScore),
			g.HomeTeamAbbr, domain.ScoreText(g.HomeScore),
			domain.StatusLabel(g.Status),
			domain.LiveClock(g),
			g.Arena,
		)
	}
	return tw.Flush()
}

// Game writes the details view of one game
func Game(w io.Writer, st view.State) error {
	if st.Details == nil {
		if st.Loading {
			fmt.Fprintln(w, loadingText)
		} else {
			fmt.Fprintf(w, "game %s unavailable\n", st.GameID)
		}
		return nil
	}
	d := st.Details

	header(w, d, st.Connected)
	if err := lineScore(w, d.LineScore); err != nil {
		return err
	}
	meetings(w, d.LastFiveMeetings)
	return playByPlay(w, st)
}

func header(w io.Writer, d *domain.GameDetails, connected bool) {
	status := domain.StatusLabel(d.Status)
	if d.Status.IsLive() && connected {
		status += " (streaming)"
	}

	fmt.Fprintf(w, "%s %s %d  vs  %d %s %s\n",
		d.AwayTeam.TeamCity, d.AwayTeam.TeamName, d.AwayTeam.Score,
		d.HomeTeam.Score, d.HomeTeam.TeamCity, d.HomeTeam.TeamName,
	)
	fmt.Fprintf(w, "%s (%s)  %s (%s)\n",
		d.AwayTeam.TeamTricode, domain.RecordText(d.AwayTeam),
		d.HomeTeam.TeamTricode, domain.RecordText(d.HomeTeam),
	)
	fmt.Fprintf(w, "%s  %s", status, d.StatusText)
	if d.Status.IsLive() {
		fmt.Fprintf(w, "  Q%d %s", d.Period, domain.FormatClock(d.GameClock))
	}
	fmt.Fprintln(w)

	if d.Arena.Name != "" {
		fmt.Fprintf(w, "%s, %s, %s\n", d.Arena.Name, d.Arena.City, d.Arena.State)
	}
	fmt.Fprintln(w)
}

func lineScore(w io.Writer, rows []domain.LineScore) error {
	if len(rows) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "TEAM\tQ1\tQ2\tQ3\tQ4\tT\t")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t\n", r.TeamAbbr, r.Q1, r.Q2, r.Q3, r.Q4, r.Total)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return nil
}

func meetings(w io.Writer, history *domain.MeetingHistory) {
	if history == nil || len(history.Meetings) == 0 {
		return
	}
	fmt.Fprintln(w, "Last meetings")
	for _, m := range history.Meetings {
		date := m.GameDate
		if date == "" && len(m.GameTimeUTC) >= len(board.DateLayout) {
			date = m.GameTimeUTC[:len(board.DateLayout)]
		}
		fmt.Fprintf(w, "  %s  %s %d @ %s %d  %s\n",
			date,
			m.AwayTeam.TeamTricode, m.AwayTeam.Score,
			m.HomeTeam.TeamTricode, m.HomeTeam.Score,
			m.GameStatusText,
		)
	}
	fmt.Fprintln(w)
}

func playByPlay(w io.Writer, st view.State) error {
	fmt.Fprintln(w, "Play-by-play")
	actions := st.DisplayActions()
	if len(actions) == 0 {
		fmt.Fprintln(w, emptyActions)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	for _, a := range actions {
		mark := " "
		if domain.IsScoringAction(a) {
			mark = scoringMark
		}
		score := ""
		if a.ScoreAway != "" || a.ScoreHome != "" {
			score = fmt.Sprintf("%s-%s", a.ScoreAway, a.ScoreHome)
		}
		fmt.Fprintf(tw, "%s\tQ%d\t%s\t%s\t%s\t%s\n",
			mark,
			a.Period,
			domain.FormatClock(a.Clock),
			a.TeamTricode,
			strings.TrimSpace(a.Description),
			score,
		)
	}
	return tw.Flush()
}
