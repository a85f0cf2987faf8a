package model

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParseMode(t *testing.T) {
	Convey("Given mode identifiers", t, func() {
		Convey("When the mode is known", func() {
			m, err := ParseMode("gp")
			So(err, ShouldBeNil)
			So(m, ShouldEqual, GrandPrix)
		})

		Convey("When the mode is unknown", func() {
			_, err := ParseMode("smash")
			So(errors.Is(err, ErrValidation), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "mode")
		})

		Convey("When the stage is unknown", func() {
			_, err := ParseStage("playoffs")
			So(errors.Is(err, ErrValidation), ShouldBeTrue)
		})

		Convey("When the stage is known", func() {
			st, err := ParseStage("qualification")
			So(err, ShouldBeNil)
			So(st, ShouldEqual, StageQualification)

			st, err = ParseStage("finals")
			So(err, ShouldBeNil)
			So(st, ShouldEqual, StageFinals)
		})
	})
}

func TestQualificationAggregate(t *testing.T) {
	Convey("Given a qualification row for the qualification stage", t, func() {
		q := Qualification{TournamentID: "t", Mode: MatchRace, PlayerID: "ann", Group: "A"}

		Convey("Then the aggregate and the stage name coexist", func() {
			So(q.PlayerID, ShouldEqual, "ann")
			So(string(StageQualification), ShouldEqual, "qualification")
		})
	})
}

func TestMatchPatch(t *testing.T) {
	Convey("Given a placeholder match", t, func() {
		m := Match{ID: "m", Player1ID: "p1", Version: 3}

		Convey("When a slot patch seats a player in slot 2", func() {
			out := SlotPatch(2, "p9").Apply(m)

			Convey("Then only that slot changes", func() {
				So(out.Player1ID, ShouldEqual, "p1")
				So(out.Player2ID, ShouldEqual, "p9")
				So(out.Version, ShouldEqual, 3)
				So(out.Ready(), ShouldBeTrue)
			})
		})

		Convey("When a result patch is applied", func() {
			out := ResultPatch(5, 2).Apply(m)

			Convey("Then the scores are recorded and the match completed", func() {
				So(out.Score1, ShouldEqual, 5)
				So(out.Score2, ShouldEqual, 2)
				So(out.Completed, ShouldBeTrue)
			})
		})
	})
}

func TestMatchFilterAndScores(t *testing.T) {
	Convey("Given a completed match", t, func() {
		m := Match{MatchNumber: 4, Player1ID: "a", Player2ID: "b", Score1: 1, Score2: 3, Completed: true}
		done, open := true, false

		So(MatchFilter{}.Matches(m), ShouldBeTrue)
		So(MatchFilter{PlayerID: "b", Completed: &done}.Matches(m), ShouldBeTrue)
		So(MatchFilter{PlayerID: "c"}.Matches(m), ShouldBeFalse)
		So(MatchFilter{MatchNumber: 5}.Matches(m), ShouldBeFalse)
		So(MatchFilter{Completed: &open}.Matches(m), ShouldBeFalse)

		own, opp := m.ScoreFor("b")
		So(own, ShouldEqual, 3)
		So(opp, ShouldEqual, 1)
	})
}

func TestNewStats(t *testing.T) {
	Convey("Given raw counters", t, func() {
		s := NewStats(3, 1, 2, 14, 10)

		Convey("Then derived fields follow the scoring rules", func() {
			So(s.MP, ShouldEqual, 6)
			So(s.Points, ShouldEqual, 4)
			So(s.Score, ShouldEqual, 7)
		})
	})
}
