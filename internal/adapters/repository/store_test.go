package repository

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/kartcup/internal/domain/model"
	"github.com/okian/kartcup/pkg/logger"
)

func init() {
	_ = logger.InitWith(io.Discard, "text")
}

// storeContract exercises behavior every Store must share.
func storeContract(t *testing.T, newStore func() Store) {
	ctx := context.Background()

	Convey("Given an empty store", t, func() {
		st := newStore()
		tid := "t-" + uuid.NewString()

		Convey("When a match is created", func() {
			m, err := st.CreateMatch(ctx, model.Match{
				TournamentID: tid, Mode: model.BattleMode, Stage: model.StageFinals,
				MatchNumber: 1, Round: model.WinnersQF, Bracket: model.WinnersBracket,
				Player1ID: "p1", Player2ID: "p8",
			})
			So(err, ShouldBeNil)

			Convey("Then it has an id and version 1", func() {
				So(m.ID, ShouldNotBeEmpty)
				So(m.Version, ShouldEqual, 1)

				found, err := st.FindMatch(ctx, m.ID)
				So(err, ShouldBeNil)
				So(found, ShouldResemble, m)
			})

			Convey("Then a write against the current version lands and bumps it", func() {
				out, err := st.ConditionalUpdateMatch(ctx, m.ID, 1, model.ResultPatch(5, 3))
				So(err, ShouldBeNil)
				So(out.Version, ShouldEqual, 2)
				So(out.Score1, ShouldEqual, 5)
				So(out.Completed, ShouldBeTrue)
				So(out.Player1ID, ShouldEqual, "p1")

				Convey("And a write against the stale version conflicts", func() {
					_, err := st.ConditionalUpdateMatch(ctx, m.ID, 1, model.ResultPatch(0, 5))
					So(errors.Is(err, ErrVersionConflict), ShouldBeTrue)

					found, _ := st.FindMatch(ctx, m.ID)
					So(found.Score1, ShouldEqual, 5)
				})
			})

			Convey("Then the stage can be listed, filtered and deleted", func() {
				_, err := st.CreateMatch(ctx, model.Match{
					TournamentID: tid, Mode: model.BattleMode, Stage: model.StageFinals, MatchNumber: 2,
					Player1ID: "p4", Player2ID: "p5",
				})
				So(err, ShouldBeNil)
				_, err = st.CreateMatch(ctx, model.Match{
					TournamentID: tid, Mode: model.MatchRace, Stage: model.StageFinals, MatchNumber: 1,
				})
				So(err, ShouldBeNil)

				all, err := st.ListMatches(ctx, tid, model.BattleMode, model.StageFinals, model.MatchFilter{})
				So(err, ShouldBeNil)
				So(all, ShouldHaveLength, 2)
				So(all[0].MatchNumber, ShouldEqual, 1)

				mine, err := st.ListMatches(ctx, tid, model.BattleMode, model.StageFinals, model.MatchFilter{PlayerID: "p5"})
				So(err, ShouldBeNil)
				So(mine, ShouldHaveLength, 1)
				So(mine[0].MatchNumber, ShouldEqual, 2)

				n, err := st.DeleteMatches(ctx, tid, model.BattleMode, model.StageFinals)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 2)

				_, err = st.FindMatch(ctx, m.ID)
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)

				other, _ := st.ListMatches(ctx, tid, model.MatchRace, model.StageFinals, model.MatchFilter{})
				So(other, ShouldHaveLength, 1)
			})
		})

		Convey("When a match number is reused within a stage", func() {
			first := model.Match{TournamentID: tid, Mode: model.BattleMode, Stage: model.StageFinals, MatchNumber: 7}
			_, err := st.CreateMatch(ctx, first)
			So(err, ShouldBeNil)

			_, err = st.CreateMatch(ctx, first)
			So(errors.Is(err, ErrMatchExists), ShouldBeTrue)

			Convey("Then the number is still free in other stages and after a delete", func() {
				_, err := st.CreateMatch(ctx, model.Match{TournamentID: tid, Mode: model.BattleMode, Stage: model.StageQualification, MatchNumber: 7})
				So(err, ShouldBeNil)

				_, err = st.DeleteMatches(ctx, tid, model.BattleMode, model.StageFinals)
				So(err, ShouldBeNil)
				_, err = st.CreateMatch(ctx, first)
				So(err, ShouldBeNil)
			})
		})

		Convey("When an unknown match is updated", func() {
			_, err := st.ConditionalUpdateMatch(ctx, uuid.NewString(), 1, model.ResultPatch(1, 0))
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})

		Convey("When players register and stats are written", func() {
			So(st.RegisterPlayer(ctx, model.Qualification{TournamentID: tid, Mode: model.GrandPrix, PlayerID: "b", Group: "A"}), ShouldBeNil)
			So(st.RegisterPlayer(ctx, model.Qualification{TournamentID: tid, Mode: model.GrandPrix, PlayerID: "a", Group: "A"}), ShouldBeNil)
			So(st.RegisterPlayer(ctx, model.Qualification{TournamentID: tid, Mode: model.GrandPrix, PlayerID: "c", Group: "B"}), ShouldBeNil)
			So(st.UpsertQualificationStats(ctx, tid, model.GrandPrix, "a", model.NewStats(1, 0, 0, 3, 1)), ShouldBeNil)

			Convey("Then a group lists its players with their stats and group kept", func() {
				qs, err := st.ListQualifications(ctx, tid, model.GrandPrix, "A")
				So(err, ShouldBeNil)
				So(qs, ShouldHaveLength, 2)
				So(qs[0].PlayerID, ShouldEqual, "a")
				So(qs[0].Group, ShouldEqual, "A")
				So(qs[0].Score, ShouldEqual, 2)
				So(qs[1].MP, ShouldEqual, 0)
			})

			Convey("Then an empty group lists everyone", func() {
				qs, err := st.ListQualifications(ctx, tid, model.GrandPrix, "")
				So(err, ShouldBeNil)
				So(qs, ShouldHaveLength, 3)
			})
		})
	})
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, func() Store { return NewMemoryStore() })
}

func TestMemoryStoreConcurrentWriters(t *testing.T) {
	Convey("Given two writers holding the same version", t, func() {
		ctx := context.Background()
		st := NewMemoryStore()
		m, _ := st.CreateMatch(ctx, model.Match{TournamentID: "t", Mode: model.BattleMode, Stage: model.StageFinals})

		var (
			wg     sync.WaitGroup
			mu     sync.Mutex
			errs   []error
			winner int
		)
		for i := 1; i <= 2; i++ {
			wg.Add(1)
			go func(score int) {
				defer wg.Done()
				_, err := st.ConditionalUpdateMatch(ctx, m.ID, 1, model.ResultPatch(score, 0))
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					winner = score
				}
				errs = append(errs, err)
			}(i)
		}
		wg.Wait()

		Convey("Then exactly one write lands", func() {
			conflicts := 0
			for _, err := range errs {
				if errors.Is(err, ErrVersionConflict) {
					conflicts++
				}
			}
			So(conflicts, ShouldEqual, 1)

			found, _ := st.FindMatch(ctx, m.ID)
			So(found.Version, ShouldEqual, 2)
			So(found.Score1, ShouldEqual, winner)
		})
	})
}

func TestMemoryStoreIDGenerator(t *testing.T) {
	Convey("Given a fixed id generator", t, func() {
		st := NewMemoryStore(WithIDGenerator(func() string { return "fixed" }))
		m, err := st.CreateMatch(context.Background(), model.Match{})
		So(err, ShouldBeNil)
		So(m.ID, ShouldEqual, "fixed")
	})
}

func TestGormStore(t *testing.T) {
	dsn := os.Getenv("KART_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("KART_TEST_DATABASE_URL not set")
	}
	db, err := OpenPostgres(dsn)
	if err != nil {
		t.Fatal(err)
	}
	st, err := NewGormStore(context.Background(), db)
	if err != nil {
		t.Fatal(err)
	}
	storeContract(t, func() Store { return st })
}
