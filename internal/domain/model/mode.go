// Package model contains the domain types shared across the engine and its stores.
package model

import "fmt"

// Mode identifies a competition mode.
type Mode string

// Supported modes.
const (
	BattleMode Mode = "bm"
	MatchRace  Mode = "mr"
	GrandPrix  Mode = "gp"
	TimeAttack Mode = "ta"
)

// Modes lists every supported mode in display order.
var Modes = []Mode{BattleMode, MatchRace, GrandPrix, TimeAttack}

// ParseMode validates a mode identifier.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case BattleMode, MatchRace, GrandPrix, TimeAttack:
		return m, nil
	}
	return "", &ValidationError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q", s)}
}

// Stage is a tournament stage within a mode.
type Stage string

// Stages.
const (
	StageQualification Stage = "qualification"
	StageFinals        Stage = "finals"
)

// ParseStage validates a stage name.
func ParseStage(s string) (Stage, error) {
	switch st := Stage(s); st {
	case StageQualification, StageFinals:
		return st, nil
	}
	return "", &ValidationError{Field: "stage", Reason: fmt.Sprintf("unknown stage %q", s)}
}

// Bracket names a side of a double-elimination bracket.
type Bracket string

// Brackets.
const (
	WinnersBracket Bracket = "winners"
	LosersBracket  Bracket = "losers"
	GrandFinal     Bracket = "grand_final"
)

// Round names a bracket round.
type Round string

// Rounds in bracket order.
const (
	WinnersQF       Round = "winners_qf"
	WinnersSF       Round = "winners_sf"
	WinnersFinal    Round = "winners_final"
	LosersR1        Round = "losers_r1"
	LosersR2        Round = "losers_r2"
	LosersSF        Round = "losers_sf"
	LosersFinal     Round = "losers_final"
	GrandFinalRound Round = "grand_final"
	GrandFinalReset Round = "grand_final_reset"
)
