// Package ranking turns qualification win/tie/loss records into normalized,
// comparable standings.
//
// Match points are 2 per win and 1 per tie. Normalized points rescale match
// points to 0..1000 against the most a player could have earned, so groups of
// different sizes can be ranked together. Ranks use standard competition
// ranking (1, 2, 2, 4).
package ranking

import (
	"math"
	"sort"
	"time"

	"github.com/okian/kartcup/internal/domain/model"
)

// MaxNormalized is the normalized score of a perfect record.
const MaxNormalized = 1000

// Record is one player's qualification tally within a group.
// MatchesPlayed is optional; zero means "not supplied".
type Record struct {
	PlayerID      string
	Wins          int
	Ties          int
	Losses        int
	MatchesPlayed int
}

// MatchPoints is 2*wins + ties.
func (r Record) MatchPoints() int {
	return 2*r.Wins + r.Ties
}

func (r Record) played() int {
	if r.MatchesPlayed > 0 {
		return r.MatchesPlayed
	}
	return r.Wins + r.Ties + r.Losses
}

// Result is a ranked record.
type Result struct {
	PlayerID         string
	Group            string
	MatchPoints      int
	NormalizedPoints int
	Rank             int
}

// Validate rejects negative counters and tallies that disagree with a
// supplied MatchesPlayed.
func Validate(r Record) error {
	if r.PlayerID == "" {
		return model.Invalid("playerId", "must not be empty")
	}
	if r.Wins < 0 || r.Ties < 0 || r.Losses < 0 || r.MatchesPlayed < 0 {
		return model.Invalid("record", "player %s has a negative count", r.PlayerID)
	}
	if r.MatchesPlayed > 0 && r.Wins+r.Ties+r.Losses != r.MatchesPlayed {
		return model.Invalid("matchesPlayed",
			"player %s: wins+ties+losses=%d but matchesPlayed=%d",
			r.PlayerID, r.Wins+r.Ties+r.Losses, r.MatchesPlayed)
	}
	return nil
}

// Rank ranks a completed round-robin group: every player is normalized
// against len(records)-1 opponents.
func Rank(records []Record) ([]Result, error) {
	opponents := len(records) - 1
	return rank(records, func(Record) int { return opponents })
}

// RankPartial ranks a group whose round-robin is still in progress: each
// player is normalized against the matches they have actually played.
func RankPartial(records []Record) ([]Result, error) {
	return rank(records, Record.played)
}

// RankAcross normalizes each group on its own and re-ranks the union.
// partial selects RankPartial over Rank for every group.
func RankAcross(groups map[string][]Record, partial bool) ([]Result, error) {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var all []Result
	for _, g := range keys {
		var (
			res []Result
			err error
		)
		if partial {
			res, err = RankPartial(groups[g])
		} else {
			res, err = Rank(groups[g])
		}
		if err != nil {
			return nil, err
		}
		for i := range res {
			res[i].Group = g
		}
		all = append(all, res...)
	}
	assignRanks(all)
	return all, nil
}

func rank(records []Record, opponents func(Record) int) ([]Result, error) {
	out := make([]Result, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if err := Validate(r); err != nil {
			return nil, err
		}
		if _, dup := seen[r.PlayerID]; dup {
			return nil, model.Invalid("playerId", "player %s listed twice", r.PlayerID)
		}
		seen[r.PlayerID] = struct{}{}

		mp := r.MatchPoints()
		out = append(out, Result{
			PlayerID:         r.PlayerID,
			MatchPoints:      mp,
			NormalizedPoints: Normalize(mp, 2*opponents(r)),
		})
	}
	assignRanks(out)
	return out, nil
}

// Normalize rescales matchPoints to 0..1000 against maxPoints.
func Normalize(matchPoints, maxPoints int) int {
	if maxPoints <= 0 {
		return 0
	}
	n := int(math.Round(float64(MaxNormalized) * float64(matchPoints) / float64(maxPoints)))
	switch {
	case n < 0:
		return 0
	case n > MaxNormalized:
		return MaxNormalized
	}
	return n
}

// assignRanks sorts in place and fills Rank.
func assignRanks(rs []Result) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if a.NormalizedPoints != b.NormalizedPoints {
			return a.NormalizedPoints > b.NormalizedPoints
		}
		if a.MatchPoints != b.MatchPoints {
			return a.MatchPoints > b.MatchPoints
		}
		return a.PlayerID < b.PlayerID
	})
	for i := range rs {
		if i > 0 && rs[i].NormalizedPoints == rs[i-1].NormalizedPoints {
			rs[i].Rank = rs[i-1].Rank
			continue
		}
		rs[i].Rank = i + 1
	}
}

// TimeEntry is a Time Attack run total.
type TimeEntry struct {
	PlayerID string
	Total    time.Duration
}

// TimeResult is a ranked Time Attack entry.
type TimeResult struct {
	PlayerID string
	Total    time.Duration
	Rank     int
}

// RankTimes orders Time Attack totals fastest first. Equal totals share a rank.
func RankTimes(entries []TimeEntry) ([]TimeResult, error) {
	out := make([]TimeResult, 0, len(entries))
	for _, e := range entries {
		if e.PlayerID == "" {
			return nil, model.Invalid("playerId", "must not be empty")
		}
		if e.Total <= 0 {
			return nil, model.Invalid("total", "player %s has no positive total time", e.PlayerID)
		}
		out = append(out, TimeResult{PlayerID: e.PlayerID, Total: e.Total})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total < out[j].Total
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	for i := range out {
		if i > 0 && out[i].Total == out[i-1].Total {
			out[i].Rank = out[i-1].Rank
			continue
		}
		out[i].Rank = i + 1
	}
	return out, nil
}
