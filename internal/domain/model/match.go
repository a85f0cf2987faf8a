package model

// Match is a persisted match row. Version increments on every successful
// write and is the only concurrency token.
type Match struct {
	ID           string
	TournamentID string
	Mode         Mode
	Stage        Stage
	// Group is the qualification group; empty for finals.
	Group       string
	MatchNumber int
	Round       Round
	Bracket     Bracket
	// Player ids; empty means the slot is still a placeholder.
	Player1ID string
	Player2ID string
	Score1    int
	Score2    int
	Completed bool
	Version   int64
}

// Slot returns the player id seated in slot 1 or 2.
func (m Match) Slot(slot int) string {
	if slot == 1 {
		return m.Player1ID
	}
	return m.Player2ID
}

// Ready reports whether both slots are filled.
func (m Match) Ready() bool {
	return m.Player1ID != "" && m.Player2ID != ""
}

// HasPlayer reports whether playerID is seated in either slot.
func (m Match) HasPlayer(playerID string) bool {
	return playerID != "" && (m.Player1ID == playerID || m.Player2ID == playerID)
}

// ScoreFor returns (own score, opponent score) from playerID's perspective.
func (m Match) ScoreFor(playerID string) (int, int) {
	if m.Player2ID == playerID {
		return m.Score2, m.Score1
	}
	return m.Score1, m.Score2
}

// MatchPatch lists the fields a conditional update may change. Nil fields
// are left untouched.
type MatchPatch struct {
	Player1ID *string
	Player2ID *string
	Score1    *int
	Score2    *int
	Completed *bool
}

// Apply returns m with the patch applied. Version is not touched.
func (p MatchPatch) Apply(m Match) Match {
	if p.Player1ID != nil {
		m.Player1ID = *p.Player1ID
	}
	if p.Player2ID != nil {
		m.Player2ID = *p.Player2ID
	}
	if p.Score1 != nil {
		m.Score1 = *p.Score1
	}
	if p.Score2 != nil {
		m.Score2 = *p.Score2
	}
	if p.Completed != nil {
		m.Completed = *p.Completed
	}
	return m
}

// ResultPatch records a final score.
func ResultPatch(score1, score2 int) MatchPatch {
	done := true
	return MatchPatch{Score1: &score1, Score2: &score2, Completed: &done}
}

// SlotPatch seats playerID in slot 1 or 2.
func SlotPatch(slot int, playerID string) MatchPatch {
	if slot == 1 {
		return MatchPatch{Player1ID: &playerID}
	}
	return MatchPatch{Player2ID: &playerID}
}

// MatchFilter narrows ListMatches. Zero values match everything.
type MatchFilter struct {
	PlayerID    string
	MatchNumber int
	Completed   *bool
}

// Matches reports whether m passes the filter.
func (f MatchFilter) Matches(m Match) bool {
	if f.PlayerID != "" && !m.HasPlayer(f.PlayerID) {
		return false
	}
	if f.MatchNumber != 0 && m.MatchNumber != f.MatchNumber {
		return false
	}
	if f.Completed != nil && m.Completed != *f.Completed {
		return false
	}
	return true
}

// Opponent returns the other seated player, or "" when playerID is not in the match.
func (m Match) Opponent(playerID string) string {
	switch playerID {
	case "":
		return ""
	case m.Player1ID:
		return m.Player2ID
	case m.Player2ID:
		return m.Player1ID
	}
	return ""
}
