package ranking

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/okian/kartcup/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRank(t *testing.T) {
	Convey("Given an 8-player group", t, func() {
		records := []Record{
			{PlayerID: "ace", Wins: 7},
			{PlayerID: "bee", Wins: 4, Ties: 1, Losses: 2},
			{PlayerID: "cat", Wins: 4, Ties: 1, Losses: 2},
			{PlayerID: "dog", Wins: 3, Ties: 2, Losses: 2},
			{PlayerID: "eel", Wins: 2, Losses: 5},
			{PlayerID: "fox", Wins: 2, Losses: 5},
			{PlayerID: "gnu", Wins: 1, Ties: 1, Losses: 5},
			{PlayerID: "hen", Losses: 7},
		}

		res, err := Rank(records)
		So(err, ShouldBeNil)
		So(res, ShouldHaveLength, 8)

		Convey("Then a perfect record is normalized to 1000 and ranked first", func() {
			So(res[0].PlayerID, ShouldEqual, "ace")
			So(res[0].MatchPoints, ShouldEqual, 14)
			So(res[0].NormalizedPoints, ShouldEqual, 1000)
			So(res[0].Rank, ShouldEqual, 1)
		})

		Convey("Then equal normalized points share a rank and the next rank skips", func() {
			ranks := make([]int, len(res))
			for i, r := range res {
				ranks[i] = r.Rank
			}
			So(ranks, ShouldResemble, []int{1, 2, 2, 4, 5, 5, 7, 8})
		})

		Convey("Then ties are broken by player id for a stable order", func() {
			So(res[1].PlayerID, ShouldEqual, "bee")
			So(res[2].PlayerID, ShouldEqual, "cat")
		})

		Convey("Then a winless record scores zero", func() {
			So(res[7].NormalizedPoints, ShouldEqual, 0)
		})
	})

	Convey("Given edge-case inputs", t, func() {
		Convey("An empty group ranks to an empty list", func() {
			res, err := Rank(nil)
			So(err, ShouldBeNil)
			So(res, ShouldBeEmpty)
		})

		Convey("A single-player group normalizes to zero", func() {
			res, err := Rank([]Record{{PlayerID: "solo"}})
			So(err, ShouldBeNil)
			So(res[0].NormalizedPoints, ShouldEqual, 0)
			So(res[0].Rank, ShouldEqual, 1)
		})

		Convey("A negative count is rejected", func() {
			_, err := Rank([]Record{{PlayerID: "x", Wins: -1}})
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})

		Convey("A tally disagreeing with matchesPlayed is rejected", func() {
			_, err := Rank([]Record{{PlayerID: "x", Wins: 1, MatchesPlayed: 3}})
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "matchesPlayed")
		})

		Convey("A duplicated player is rejected", func() {
			_, err := Rank([]Record{{PlayerID: "x"}, {PlayerID: "x"}})
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})
	})
}

func TestRankPartial(t *testing.T) {
	Convey("Given a group part way through its round-robin", t, func() {
		records := []Record{
			{PlayerID: "early", Wins: 2, MatchesPlayed: 2},
			{PlayerID: "busy", Wins: 3, Losses: 2, MatchesPlayed: 5},
			{PlayerID: "idle"},
		}

		Convey("When ranked against matches actually played", func() {
			res, err := RankPartial(records)
			So(err, ShouldBeNil)

			Convey("Then an unbeaten player with fewer matches is not penalized", func() {
				So(res[0].PlayerID, ShouldEqual, "early")
				So(res[0].NormalizedPoints, ShouldEqual, 1000)
				So(res[1].PlayerID, ShouldEqual, "busy")
				So(res[1].NormalizedPoints, ShouldEqual, 600)
				So(res[2].NormalizedPoints, ShouldEqual, 0)
			})
		})

		Convey("When ranked as a full round-robin instead", func() {
			res, err := Rank(records)
			So(err, ShouldBeNil)

			Convey("Then the group-wide denominator applies", func() {
				So(res[0].PlayerID, ShouldEqual, "busy")
				So(res[0].NormalizedPoints, ShouldEqual, 1000)
				So(res[1].NormalizedPoints, ShouldEqual, 1000)
				So(res[1].Rank, ShouldEqual, 1)
			})
		})
	})
}

func TestRankAcross(t *testing.T) {
	Convey("Given two groups of different sizes", t, func() {
		groups := map[string][]Record{
			"B": {
				{PlayerID: "b1", Wins: 2},
				{PlayerID: "b2", Wins: 1, Losses: 1},
				{PlayerID: "b3", Losses: 2},
			},
			"A": {
				{PlayerID: "a1", Wins: 3, Losses: 1},
				{PlayerID: "a2", Wins: 3, Losses: 1},
				{PlayerID: "a3", Wins: 2, Losses: 2},
				{PlayerID: "a4", Wins: 1, Losses: 3},
				{PlayerID: "a5", Wins: 1, Losses: 3},
			},
		}

		res, err := RankAcross(groups, false)
		So(err, ShouldBeNil)
		So(res, ShouldHaveLength, 8)

		Convey("Then the smaller group's unbeaten player ranks first overall", func() {
			So(res[0].PlayerID, ShouldEqual, "b1")
			So(res[0].Group, ShouldEqual, "B")
			So(res[0].Rank, ShouldEqual, 1)
		})

		Convey("Then equal normalized points across groups share a rank", func() {
			// a3 (4 of 8) and b2 (2 of 4) both normalize to 500.
			byID := map[string]Result{}
			for _, r := range res {
				byID[r.PlayerID] = r
			}
			So(byID["a3"].NormalizedPoints, ShouldEqual, 500)
			So(byID["b2"].NormalizedPoints, ShouldEqual, 500)
			So(byID["a3"].Rank, ShouldEqual, byID["b2"].Rank)
			So(byID["a3"].Group, ShouldEqual, "A")
		})
	})
}

func TestRankProperties(t *testing.T) {
	Convey("Given random valid groups", t, func() {
		rng := rand.New(rand.NewSource(42))
		for trial := 0; trial < 50; trial++ {
			n := 2 + rng.Intn(9)
			records := make([]Record, n)
			for i := range records {
				w := rng.Intn(n)
				tie := rng.Intn(n - w)
				records[i] = Record{PlayerID: string(rune('a' + i)), Wins: w, Ties: tie, Losses: n - 1 - w - tie}
			}

			res, err := Rank(records)
			So(err, ShouldBeNil)

			total := 0
			for i, r := range res {
				total += r.MatchPoints
				So(r.NormalizedPoints, ShouldBeBetweenOrEqual, 0, MaxNormalized)
				if i == 0 {
					So(r.Rank, ShouldEqual, 1)
					continue
				}
				So(r.Rank, ShouldBeGreaterThanOrEqualTo, res[i-1].Rank)
				if r.NormalizedPoints == res[i-1].NormalizedPoints {
					So(r.Rank, ShouldEqual, res[i-1].Rank)
				} else {
					So(r.Rank, ShouldEqual, i+1)
				}
			}
			So(total, ShouldBeLessThanOrEqualTo, 2*(n-1)*n)
		}
	})
}

func TestRankTimes(t *testing.T) {
	Convey("Given Time Attack totals", t, func() {
		res, err := RankTimes([]TimeEntry{
			{PlayerID: "slow", Total: 5 * time.Minute},
			{PlayerID: "fast", Total: 4 * time.Minute},
			{PlayerID: "also", Total: 4 * time.Minute},
		})
		So(err, ShouldBeNil)

		Convey("Then the fastest rank first and equal totals share a rank", func() {
			So(res[0].PlayerID, ShouldEqual, "also")
			So(res[0].Rank, ShouldEqual, 1)
			So(res[1].Rank, ShouldEqual, 1)
			So(res[2].PlayerID, ShouldEqual, "slow")
			So(res[2].Rank, ShouldEqual, 3)
		})

		Convey("Then a missing total is rejected", func() {
			_, err := RankTimes([]TimeEntry{{PlayerID: "dnf"}})
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})
	})
}
