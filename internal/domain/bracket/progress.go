package bracket

import (
	"github.com/okian/kartcup/internal/domain/model"
	"github.com/okian/kartcup/internal/domain/rules"
)

// Reason says why a player is placed into a slot.
type Reason string

// Placement reasons. A ReasonClear placement has no PlayerID: it empties a
// reset slot seated by an earlier grand-final result.
const (
	ReasonWinner Reason = "winner"
	ReasonLoser  Reason = "loser"
	ReasonReset  Reason = "reset"
	ReasonClear  Reason = "clear"
)

// Placement writes PlayerID into Slot of the match numbered MatchNumber.
type Placement struct {
	MatchNumber int
	Slot        int
	PlayerID    string
	Reason      Reason
}

// ResetPlacement pairs the grand-final players for the reset match.
type ResetPlacement struct {
	MatchNumber int
	Player1     string
	Player2     string
}

// Plan is everything a completed finals match implies for the rest of the
// bracket. It is derived only from the match row and the topology, so
// computing it twice yields the same plan.
type Plan struct {
	MatchNumber int
	Round       model.Round
	Winner      string
	Loser       string
	// Eliminated is set when the loser has no further match.
	Eliminated string
	// Placements lists every slot write, the reset pairing included.
	Placements []Placement
	Reset      *ResetPlacement
	Complete   bool
	Champion   string
}

// Progress computes the advancement plan for a completed finals match.
func Progress(lookup Lookup, m model.Match, rs rules.Ruleset) (Plan, error) {
	spec, ok := lookup[m.MatchNumber]
	if !ok {
		return Plan{}, model.Invalid("matchNumber", "match %d is not part of the bracket", m.MatchNumber)
	}
	if !m.Completed {
		return Plan{}, model.Invalid("completed", "match %d has no result yet", m.MatchNumber)
	}
	if !m.Ready() {
		return Plan{}, model.Invalid("players", "match %d is missing a player", m.MatchNumber)
	}
	d, err := rs.Decide(model.StageFinals, m.Score1, m.Score2)
	if err != nil {
		return Plan{}, err
	}
	ws := d.WinnerSlot()
	if ws == 0 {
		return Plan{}, model.Invalid("score", "match %d is undecided", m.MatchNumber)
	}

	p := Plan{
		MatchNumber: m.MatchNumber,
		Round:       spec.Round,
		Winner:      m.Slot(ws),
		Loser:       m.Slot(3 - ws),
	}

	switch spec.Round {
	case model.GrandFinalRound:
		if ws == 1 {
			p.Complete, p.Champion = true, p.Winner
			p.Eliminated = p.Loser
			if reset, ok := lookup.ByRound(model.GrandFinalReset); ok {
				p.Placements = []Placement{
					{MatchNumber: reset.MatchNumber, Slot: 1, Reason: ReasonClear},
					{MatchNumber: reset.MatchNumber, Slot: 2, Reason: ReasonClear},
				}
			}
			return p, nil
		}
		// The winners-bracket finalist has lost only once; play again.
		reset, ok := lookup.ByRound(model.GrandFinalReset)
		if !ok {
			return Plan{}, model.Invalid("matchNumber", "bracket has no grand final reset")
		}
		p.Reset = &ResetPlacement{MatchNumber: reset.MatchNumber, Player1: p.Winner, Player2: p.Loser}
		p.Placements = []Placement{
			{MatchNumber: reset.MatchNumber, Slot: 1, PlayerID: p.Winner, Reason: ReasonReset},
			{MatchNumber: reset.MatchNumber, Slot: 2, PlayerID: p.Loser, Reason: ReasonReset},
		}
		return p, nil

	case model.GrandFinalReset:
		p.Complete, p.Champion = true, p.Winner
		p.Eliminated = p.Loser
		return p, nil
	}

	if spec.WinnerGoesTo != 0 {
		p.Placements = append(p.Placements, Placement{
			MatchNumber: spec.WinnerGoesTo,
			Slot:        spec.Position,
			PlayerID:    p.Winner,
			Reason:      ReasonWinner,
		})
	}
	if slot := LoserSlot(spec); slot != 0 {
		p.Placements = append(p.Placements, Placement{
			MatchNumber: spec.LoserGoesTo,
			Slot:        slot,
			PlayerID:    p.Loser,
			Reason:      ReasonLoser,
		})
	} else {
		p.Eliminated = p.Loser
	}
	return p, nil
}
