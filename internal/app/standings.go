package service

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/okian/kartcup/internal/domain/bracket"
	"github.com/okian/kartcup/internal/domain/model"
	"github.com/okian/kartcup/internal/domain/points"
	"github.com/okian/kartcup/internal/domain/racetime"
	"github.com/okian/kartcup/internal/domain/ranking"
)

// Standings ranks one qualification group. While the round-robin is still
// running, players are normalized against the matches they have played.
func (s *Service) Standings(ctx context.Context, tournamentID string, mode model.Mode, group string) ([]ranking.Result, error) {
	if _, err := s.matchRules(mode); err != nil {
		return nil, err
	}
	if group == "" {
		return nil, model.Invalid("group", "must not be empty")
	}
	quals, err := s.quals.ListQualifications(ctx, tournamentID, mode, group)
	if err != nil {
		return nil, err
	}
	records, partial := toRecords(quals)

	var res []ranking.Result
	if partial {
		res, err = ranking.RankPartial(records)
	} else {
		res, err = ranking.Rank(records)
	}
	if err != nil {
		return nil, err
	}
	for i := range res {
		res[i].Group = group
	}
	return res, nil
}

// OverallStandings ranks every group of a mode together.
func (s *Service) OverallStandings(ctx context.Context, tournamentID string, mode model.Mode) ([]ranking.Result, error) {
	if _, err := s.matchRules(mode); err != nil {
		return nil, err
	}
	quals, err := s.quals.ListQualifications(ctx, tournamentID, mode, "")
	if err != nil {
		return nil, err
	}
	byGroup := make(map[string][]model.Qualification)
	for _, q := range quals {
		byGroup[q.Group] = append(byGroup[q.Group], q)
	}

	groups := make(map[string][]ranking.Record, len(byGroup))
	partial := false
	for g, qs := range byGroup {
		records, p := toRecords(qs)
		groups[g] = records
		partial = partial || p
	}
	return ranking.RankAcross(groups, partial)
}

// toRecords converts aggregates to ranking input and reports whether any
// player has not yet played the whole group.
func toRecords(quals []model.Qualification) ([]ranking.Record, bool) {
	records := make([]ranking.Record, len(quals))
	partial := false
	for i, q := range quals {
		records[i] = ranking.Record{
			PlayerID:      q.PlayerID,
			Wins:          q.Wins,
			Ties:          q.Ties,
			Losses:        q.Losses,
			MatchesPlayed: q.MP,
		}
		if q.MP < len(quals)-1 {
			partial = true
		}
	}
	return records, partial
}

// FinalsStanding is a finals placement with its points.
type FinalsStanding struct {
	PlayerID string
	Place    points.Range
	Points   int
}

// FinalsStandings places every player already out of the bracket, plus the
// champion and runner-up once the bracket is complete.
func (s *Service) FinalsStandings(ctx context.Context, tournamentID string, mode model.Mode) ([]FinalsStanding, error) {
	if _, err := s.matchRules(mode); err != nil {
		return nil, err
	}
	_, lookup, err := s.topology()
	if err != nil {
		return nil, err
	}
	rows, err := s.matches.ListMatches(ctx, tournamentID, mode, model.StageFinals, model.MatchFilter{})
	if err != nil {
		return nil, err
	}
	placed := bracket.Placements(lookup, rows)
	out := make([]FinalsStanding, len(placed))
	for i, p := range placed {
		out[i] = FinalsStanding{
			PlayerID: p.PlayerID,
			Place:    p.Place,
			Points:   points.FinalsPoints(mode, p.Place.Start),
		}
	}
	return out, nil
}

// PlayerPoints is a player's finals points summed over modes.
type PlayerPoints struct {
	PlayerID string
	Total    int
	ByMode   map[model.Mode]int
}

// TournamentPoints sums finals points across every bracket mode. Modes are
// loaded concurrently.
func (s *Service) TournamentPoints(ctx context.Context, tournamentID string) ([]PlayerPoints, error) {
	var (
		mu     sync.Mutex
		totals = make(map[string]*PlayerPoints)
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, mode := range model.Modes {
		if r, ok := s.rules[mode]; !ok || !r.MatchBased() {
			continue
		}
		g.Go(func() error {
			standings, err := s.FinalsStandings(gctx, tournamentID, mode)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for _, st := range standings {
				pp, ok := totals[st.PlayerID]
				if !ok {
					pp = &PlayerPoints{PlayerID: st.PlayerID, ByMode: make(map[model.Mode]int)}
					totals[st.PlayerID] = pp
				}
				pp.ByMode[mode] += st.Points
				pp.Total += st.Points
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]PlayerPoints, 0, len(totals))
	for _, pp := range totals {
		out = append(out, *pp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out, nil
}

// TimeAttackEntry is one player's course times.
type TimeAttackEntry struct {
	PlayerID string
	Times    []string
}

// TimeAttackResult is a ranked Time Attack run. Incomplete runs are listed
// last with no rank and no points.
type TimeAttackResult struct {
	PlayerID   string
	Total      string
	Rank       int
	Points     int
	Incomplete bool
}

// RankTimeAttack totals each run and ranks the complete ones fastest first.
func (s *Service) RankTimeAttack(entries []TimeAttackEntry) ([]TimeAttackResult, error) {
	var (
		complete   []ranking.TimeEntry
		incomplete []TimeAttackResult
		seen       = make(map[string]struct{}, len(entries))
	)
	for _, e := range entries {
		if e.PlayerID == "" {
			return nil, model.Invalid("playerId", "must not be empty")
		}
		if _, dup := seen[e.PlayerID]; dup {
			return nil, model.Invalid("playerId", "player %s listed twice", e.PlayerID)
		}
		seen[e.PlayerID] = struct{}{}

		total, err := racetime.Total(e.Times)
		if err != nil || total <= 0 {
			incomplete = append(incomplete, TimeAttackResult{PlayerID: e.PlayerID, Incomplete: true})
			continue
		}
		complete = append(complete, ranking.TimeEntry{PlayerID: e.PlayerID, Total: total})
	}

	ranked, err := ranking.RankTimes(complete)
	if err != nil {
		return nil, err
	}
	out := make([]TimeAttackResult, 0, len(entries))
	for _, r := range ranked {
		out = append(out, TimeAttackResult{
			PlayerID: r.PlayerID,
			Total:    racetime.Format(r.Total),
			Rank:     r.Rank,
			Points:   points.FinalsPoints(model.TimeAttack, r.Rank),
		})
	}
	sort.Slice(incomplete, func(i, j int) bool { return incomplete[i].PlayerID < incomplete[j].PlayerID })
	return append(out, incomplete...), nil
}
