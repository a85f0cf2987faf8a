package bracket

import (
	"sort"

	"github.com/okian/kartcup/internal/domain/model"
	"github.com/okian/kartcup/internal/domain/points"
)

// Standing is a player's final placement. Players knocked out in the same
// round share a range, e.g. 5th-6th.
type Standing struct {
	PlayerID string
	Place    points.Range
}

// eliminationPlace is where a loser of each losers-bracket round finishes.
var eliminationPlace = map[model.Round]points.Range{
	model.LosersFinal: {Start: 3, End: 3},
	model.LosersSF:    {Start: 4, End: 4},
	model.LosersR2:    {Start: 5, End: 6},
	model.LosersR1:    {Start: 7, End: 8},
}

// Placements derives final standings from completed finals matches. Players
// still alive are omitted, so a bracket in progress only places those already
// eliminated. A completed reset counts only while the grand final stands as a
// player-2 win.
func Placements(lookup Lookup, matches []model.Match) []Standing {
	byNumber := make(map[int]model.Match, len(matches))
	for _, m := range matches {
		byNumber[m.MatchNumber] = m
	}

	resetLive := false
	if gf, ok := lookup.ByRound(model.GrandFinalRound); ok {
		if m, ok := byNumber[gf.MatchNumber]; ok && m.Completed && m.Score2 > m.Score1 {
			resetLive = true
		}
	}

	var out []Standing
	for _, n := range lookup.Numbers() {
		spec := lookup[n]
		m, ok := byNumber[n]
		if !ok || !m.Completed || !m.Ready() {
			continue
		}
		winner, loser := decided(m)
		switch spec.Round {
		case model.GrandFinalRound:
			if winner == m.Player1ID {
				out = append(out,
					Standing{PlayerID: winner, Place: points.Range{Start: 1, End: 1}},
					Standing{PlayerID: loser, Place: points.Range{Start: 2, End: 2}})
			}
		case model.GrandFinalReset:
			// Only a player-2 grand-final win sends the final to a reset.
			if !resetLive {
				continue
			}
			out = append(out,
				Standing{PlayerID: winner, Place: points.Range{Start: 1, End: 1}},
				Standing{PlayerID: loser, Place: points.Range{Start: 2, End: 2}})
		default:
			if r, ok := eliminationPlace[spec.Round]; ok {
				out = append(out, Standing{PlayerID: loser, Place: r})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Place.Start != out[j].Place.Start {
			return out[i].Place.Start < out[j].Place.Start
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out
}

// decided returns winner and loser of a completed finals match. Stored
// results have already passed the ruleset, so the higher score won.
func decided(m model.Match) (string, string) {
	if m.Score1 > m.Score2 {
		return m.Player1ID, m.Player2ID
	}
	return m.Player2ID, m.Player1ID
}
