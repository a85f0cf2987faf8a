// Package rules holds the per-mode match rules: how many rounds a
// qualification match lasts, the win count that decides a finals match and
// the unit scores are counted in.
package rules

import (
	"fmt"

	"github.com/okian/kartcup/internal/domain/model"
)

// Outcome of a decided match from slot 1's point of view.
type Outcome int

// Outcomes.
const (
	Player1Won Outcome = iota + 1
	Player2Won
	Tie
)

// Decision is a validated match result.
type Decision struct {
	Outcome Outcome
}

// WinnerSlot returns 1 or 2, or 0 for a tie.
func (d Decision) WinnerSlot() int {
	switch d.Outcome {
	case Player1Won:
		return 1
	case Player2Won:
		return 2
	}
	return 0
}

// Ruleset decides matches for one mode.
type Ruleset interface {
	Mode() model.Mode
	// Unit names what a score counts, e.g. "balloons".
	Unit() string
	// MatchBased is false for modes ranked by time rather than head-to-head.
	MatchBased() bool
	// Decide validates a score and reports the outcome. Undecided or
	// malformed scores are ValidationErrors.
	Decide(stage model.Stage, score1, score2 int) (Decision, error)
}

// Default rule values.
const (
	DefaultQualificationRounds = 4
	DefaultFinalsTarget        = 5
)

var units = map[model.Mode]string{
	model.BattleMode: "balloons",
	model.MatchRace:  "races",
	model.GrandPrix:  "cups",
	model.TimeAttack: "time",
}

// Option configures a match-based ruleset.
type Option func(*headToHead)

// WithQualificationRounds sets the rounds played in a qualification match.
func WithQualificationRounds(rounds int) Option {
	return func(r *headToHead) {
		if rounds > 0 {
			r.qualificationRounds = rounds
		}
	}
}

// WithFinalsTarget sets the win count that decides a finals match.
func WithFinalsTarget(target int) Option {
	return func(r *headToHead) {
		if target > 0 {
			r.finalsTarget = target
		}
	}
}

// For returns the ruleset for mode.
func For(mode model.Mode, opts ...Option) (Ruleset, error) {
	switch mode {
	case model.BattleMode, model.MatchRace, model.GrandPrix:
		r := &headToHead{
			mode:                mode,
			unit:                units[mode],
			qualificationRounds: DefaultQualificationRounds,
			finalsTarget:        DefaultFinalsTarget,
		}
		for _, opt := range opts {
			opt(r)
		}
		return r, nil
	case model.TimeAttack:
		return timeTrial{}, nil
	}
	return nil, model.Invalid("mode", "unknown mode %q", mode)
}

// FromConfig builds one ruleset per mode from the config maps keyed by mode id.
func FromConfig(qualificationRounds, finalsTargets map[string]int) (map[model.Mode]Ruleset, error) {
	out := make(map[model.Mode]Ruleset, len(model.Modes))
	for _, m := range model.Modes {
		r, err := For(m,
			WithQualificationRounds(qualificationRounds[string(m)]),
			WithFinalsTarget(finalsTargets[string(m)]),
		)
		if err != nil {
			return nil, err
		}
		out[m] = r
	}
	return out, nil
}

// headToHead covers BM, MR and GP: two players, integer scores.
type headToHead struct {
	mode                model.Mode
	unit                string
	qualificationRounds int
	finalsTarget        int
}

func (r *headToHead) Mode() model.Mode { return r.mode }
func (r *headToHead) Unit() string     { return r.unit }
func (r *headToHead) MatchBased() bool { return true }

// QualificationRounds exposes the configured round count.
func (r *headToHead) QualificationRounds() int { return r.qualificationRounds }

// FinalsTarget exposes the configured finals win count.
func (r *headToHead) FinalsTarget() int { return r.finalsTarget }

func (r *headToHead) Decide(stage model.Stage, score1, score2 int) (Decision, error) {
	if score1 < 0 || score2 < 0 {
		return Decision{}, model.Invalid("score", "%s must not be negative", r.unit)
	}

	switch stage {
	case model.StageQualification:
		if score1+score2 != r.qualificationRounds {
			return Decision{}, model.Invalid("score",
				"qualification match must total %d %s, got %d", r.qualificationRounds, r.unit, score1+score2)
		}
		return Decision{Outcome: compare(score1, score2)}, nil

	case model.StageFinals:
		t := r.finalsTarget
		switch {
		case score1 == t && score2 < t:
			return Decision{Outcome: Player1Won}, nil
		case score2 == t && score1 < t:
			return Decision{Outcome: Player2Won}, nil
		}
		return Decision{}, model.Invalid("score",
			"finals match is first to %d %s; %d-%d does not decide a winner", t, r.unit, score1, score2)
	}
	return Decision{}, model.Invalid("stage", "unknown stage %q", stage)
}

func compare(a, b int) Outcome {
	switch {
	case a > b:
		return Player1Won
	case b > a:
		return Player2Won
	}
	return Tie
}

// timeTrial is Time Attack: players are ranked by total time, never paired.
type timeTrial struct{}

func (timeTrial) Mode() model.Mode { return model.TimeAttack }
func (timeTrial) Unit() string     { return units[model.TimeAttack] }
func (timeTrial) MatchBased() bool { return false }

func (timeTrial) Decide(model.Stage, int, int) (Decision, error) {
	return Decision{}, model.Invalid("mode", "%s is ranked by time and has no head-to-head matches", model.TimeAttack)
}

// String is used in log fields.
func (o Outcome) String() string {
	switch o {
	case Player1Won:
		return "player1"
	case Player2Won:
		return "player2"
	case Tie:
		return "tie"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}
