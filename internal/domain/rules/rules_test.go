package rules

import (
	"errors"
	"testing"

	"github.com/okian/kartcup/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFor(t *testing.T) {
	Convey("Given the supported modes", t, func() {
		Convey("When a head-to-head ruleset is requested", func() {
			r, err := For(model.BattleMode)

			Convey("Then it is match based and counts balloons", func() {
				So(err, ShouldBeNil)
				So(r.Mode(), ShouldEqual, model.BattleMode)
				So(r.Unit(), ShouldEqual, "balloons")
				So(r.MatchBased(), ShouldBeTrue)
			})
		})

		Convey("When Time Attack is requested", func() {
			r, err := For(model.TimeAttack)
			So(err, ShouldBeNil)
			So(r.MatchBased(), ShouldBeFalse)

			Convey("Then deciding a match is rejected", func() {
				_, err := r.Decide(model.StageFinals, 1, 0)
				So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
			})
		})

		Convey("When the mode is unknown", func() {
			_, err := For(model.Mode("kart"))
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})
	})
}

func TestDecideQualification(t *testing.T) {
	Convey("Given a Match Race ruleset with four qualification rounds", t, func() {
		r, err := For(model.MatchRace, WithQualificationRounds(4))
		So(err, ShouldBeNil)

		Convey("A 3-1 score is a player 1 win", func() {
			d, err := r.Decide(model.StageQualification, 3, 1)
			So(err, ShouldBeNil)
			So(d.Outcome, ShouldEqual, Player1Won)
			So(d.WinnerSlot(), ShouldEqual, 1)
		})

		Convey("A 2-2 score is a tie", func() {
			d, err := r.Decide(model.StageQualification, 2, 2)
			So(err, ShouldBeNil)
			So(d.Outcome, ShouldEqual, Tie)
			So(d.WinnerSlot(), ShouldEqual, 0)
		})

		Convey("A score that does not total the round count is rejected", func() {
			_, err := r.Decide(model.StageQualification, 3, 2)
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "total 4")
		})

		Convey("A negative score is rejected", func() {
			_, err := r.Decide(model.StageQualification, -1, 5)
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})
	})
}

func TestDecideFinals(t *testing.T) {
	Convey("Given a Grand Prix ruleset played first to 3", t, func() {
		r, err := For(model.GrandPrix, WithFinalsTarget(3))
		So(err, ShouldBeNil)

		Convey("Player 2 reaching the target wins", func() {
			d, err := r.Decide(model.StageFinals, 1, 3)
			So(err, ShouldBeNil)
			So(d.Outcome, ShouldEqual, Player2Won)
		})

		Convey("A score where nobody reached the target is undecided", func() {
			_, err := r.Decide(model.StageFinals, 2, 2)
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "first to 3")
		})

		Convey("A score where both reached the target is rejected", func() {
			_, err := r.Decide(model.StageFinals, 3, 3)
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})

		Convey("A score past the target is rejected", func() {
			_, err := r.Decide(model.StageFinals, 4, 1)
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})
	})
}

func TestFromConfig(t *testing.T) {
	Convey("Given per-mode config maps", t, func() {
		set, err := FromConfig(map[string]int{"bm": 6}, map[string]int{"gp": 2})
		So(err, ShouldBeNil)
		So(set, ShouldHaveLength, len(model.Modes))

		Convey("Then configured values override the defaults", func() {
			_, err := set[model.BattleMode].Decide(model.StageQualification, 3, 3)
			So(err, ShouldBeNil)

			d, err := set[model.GrandPrix].Decide(model.StageFinals, 2, 0)
			So(err, ShouldBeNil)
			So(d.Outcome, ShouldEqual, Player1Won)
		})

		Convey("Then modes left out keep the defaults", func() {
			_, err := set[model.MatchRace].Decide(model.StageFinals, DefaultFinalsTarget, 0)
			So(err, ShouldBeNil)
		})
	})
}
