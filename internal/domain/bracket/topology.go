// Package bracket generates the fixed double-elimination topology, seeds it,
// and advances players through it as results arrive.
//
// Matches reference each other by match number (WinnerGoesTo, LoserGoesTo)
// rather than by pointer, so the topology maps directly onto stored rows.
package bracket

import (
	"fmt"
	"sort"

	"github.com/okian/kartcup/internal/domain/model"
)

// SupportedSize is the only bracket size the generator builds.
const SupportedSize = 8

// MatchSpec is one node of the topology. Zero seeds and targets mean absent.
type MatchSpec struct {
	MatchNumber  int
	Round        model.Round
	Bracket      model.Bracket
	Player1Seed  int
	Player2Seed  int
	WinnerGoesTo int
	LoserGoesTo  int
	// Position is the slot (1 or 2) the winner takes in WinnerGoesTo.
	Position int
}

// Seeded reports whether the spec is a first-round match.
func (s MatchSpec) Seeded() bool {
	return s.Player1Seed > 0 && s.Player2Seed > 0
}

// Generate returns the topology for an n-player bracket.
func Generate(n int) ([]MatchSpec, error) {
	if n != SupportedSize {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedSize,
			model.Invalid("bracketSize", "only %d-player brackets are supported, got %d", SupportedSize, n))
	}
	specs := eightPlayer()
	if err := Validate(specs); err != nil {
		return nil, err
	}
	return specs, nil
}

func eightPlayer() []MatchSpec {
	const (
		wb = model.WinnersBracket
		lb = model.LosersBracket
		gf = model.GrandFinal
	)
	return []MatchSpec{
		{MatchNumber: 1, Round: model.WinnersQF, Bracket: wb, Player1Seed: 1, Player2Seed: 8, WinnerGoesTo: 5, LoserGoesTo: 8, Position: 1},
		{MatchNumber: 2, Round: model.WinnersQF, Bracket: wb, Player1Seed: 4, Player2Seed: 5, WinnerGoesTo: 5, LoserGoesTo: 8, Position: 2},
		{MatchNumber: 3, Round: model.WinnersQF, Bracket: wb, Player1Seed: 2, Player2Seed: 7, WinnerGoesTo: 6, LoserGoesTo: 9, Position: 1},
		{MatchNumber: 4, Round: model.WinnersQF, Bracket: wb, Player1Seed: 3, Player2Seed: 6, WinnerGoesTo: 6, LoserGoesTo: 9, Position: 2},
		{MatchNumber: 5, Round: model.WinnersSF, Bracket: wb, WinnerGoesTo: 7, LoserGoesTo: 11, Position: 1},
		{MatchNumber: 6, Round: model.WinnersSF, Bracket: wb, WinnerGoesTo: 7, LoserGoesTo: 10, Position: 2},
		{MatchNumber: 7, Round: model.WinnersFinal, Bracket: wb, WinnerGoesTo: 14, LoserGoesTo: 13, Position: 1},
		{MatchNumber: 8, Round: model.LosersR1, Bracket: lb, WinnerGoesTo: 10, Position: 2},
		{MatchNumber: 9, Round: model.LosersR1, Bracket: lb, WinnerGoesTo: 11, Position: 2},
		{MatchNumber: 10, Round: model.LosersR2, Bracket: lb, WinnerGoesTo: 12, Position: 1},
		{MatchNumber: 11, Round: model.LosersR2, Bracket: lb, WinnerGoesTo: 12, Position: 2},
		{MatchNumber: 12, Round: model.LosersSF, Bracket: lb, WinnerGoesTo: 13, Position: 1},
		{MatchNumber: 13, Round: model.LosersFinal, Bracket: lb, WinnerGoesTo: 14, Position: 2},
		{MatchNumber: 14, Round: model.GrandFinalRound, Bracket: gf},
		{MatchNumber: 15, Round: model.GrandFinalReset, Bracket: gf},
	}
}

// LoserSlot returns the slot a winners-bracket loser takes in LoserGoesTo,
// or 0 when the loser is eliminated. Quarter-final pairs feed one losers
// match from opposite slots; the semi-final loser waits in slot 1 and the
// winners-final loser meets the losers-bracket champion from slot 2.
func LoserSlot(s MatchSpec) int {
	if s.LoserGoesTo == 0 {
		return 0
	}
	switch s.Round {
	case model.WinnersQF:
		return ((s.MatchNumber - 1) % 2) + 1
	case model.WinnersSF:
		return 1
	case model.WinnersFinal:
		return 2
	}
	return 0
}

// Lookup indexes a topology by match number.
type Lookup map[int]MatchSpec

// Index builds a Lookup.
func Index(specs []MatchSpec) Lookup {
	l := make(Lookup, len(specs))
	for _, s := range specs {
		l[s.MatchNumber] = s
	}
	return l
}

// ByRound returns the first spec of round, if present.
func (l Lookup) ByRound(round model.Round) (MatchSpec, bool) {
	for _, n := range l.Numbers() {
		if l[n].Round == round {
			return l[n], true
		}
	}
	return MatchSpec{}, false
}

// Numbers returns the match numbers in ascending order.
func (l Lookup) Numbers() []int {
	out := make([]int, 0, len(l))
	for n := range l {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}
