package model

// Stats is a player's qualification aggregate.
type Stats struct {
	MP         int
	Wins       int
	Ties       int
	Losses     int
	WinRounds  int
	LossRounds int
	// Points is the round differential, WinRounds-LossRounds.
	Points int
	// Score is 2*Wins + Ties.
	Score int
}

// NewStats derives Points and Score from the raw counters.
func NewStats(wins, ties, losses, winRounds, lossRounds int) Stats {
	return Stats{
		MP:         wins + ties + losses,
		Wins:       wins,
		Ties:       ties,
		Losses:     losses,
		WinRounds:  winRounds,
		LossRounds: lossRounds,
		Points:     winRounds - lossRounds,
		Score:      2*wins + ties,
	}
}

// Qualification is the persisted per-player aggregate for one mode.
type Qualification struct {
	TournamentID string
	Mode         Mode
	PlayerID     string
	Group        string
	Stats
}
