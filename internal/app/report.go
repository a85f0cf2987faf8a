package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/okian/kartcup/internal/domain/bracket"
	"github.com/okian/kartcup/internal/domain/model"
	"github.com/okian/kartcup/internal/domain/optimistic"
	"github.com/okian/kartcup/internal/domain/rules"
	"github.com/okian/kartcup/pkg/logger"
	"github.com/okian/kartcup/pkg/metrics"
)

// ReportInput is a score report. ExpectedVersion is the version the reporter
// last read; zero means "whatever is current".
type ReportInput struct {
	MatchID         string
	Score1          int
	Score2          int
	ExpectedVersion int64
}

// Advancement is the fate of one slot write implied by a result.
type Advancement struct {
	Placement bracket.Placement
	MatchID   string
	// Result is one of the metrics.Advancement* values.
	Result string
	Err    error
}

// Outcome is what a score report did.
type Outcome struct {
	// Match is the row as re-read after the score write.
	Match    model.Match
	Advanced []Advancement
	Skipped  []Advancement
	// Partial is set when the score was stored but an advancement could not be.
	Partial    bool
	Complete   bool
	Champion   string
	Eliminated string
	// Stats holds the recomputed aggregates of both players after a
	// qualification result.
	Stats map[string]model.Stats
}

// ReportResult validates and stores a score, then recalculates qualification
// stats or advances players through the bracket.
func (s *Service) ReportResult(ctx context.Context, in ReportInput) (Outcome, error) {
	cur, err := s.matches.FindMatch(ctx, in.MatchID)
	if err != nil {
		return Outcome{}, err
	}
	rs, err := s.matchRules(cur.Mode)
	if err != nil {
		return Outcome{}, err
	}
	if !cur.Ready() {
		return Outcome{}, model.Invalid("players", "match %d is still waiting for a player", cur.MatchNumber)
	}
	d, err := rs.Decide(cur.Stage, in.Score1, in.Score2)
	if err != nil {
		return Outcome{}, err
	}
	if cur.Stage == model.StageFinals && cur.Round == model.GrandFinalRound && d.WinnerSlot() == 1 {
		if err := s.checkResetOpen(ctx, cur); err != nil {
			return Outcome{}, err
		}
	}

	log := s.logger.With(
		logger.String("tournament", cur.TournamentID),
		logger.String("mode", string(cur.Mode)),
		logger.String("stage", string(cur.Stage)),
		logger.String("match", cur.ID))

	read := func(ctx context.Context) (int64, error) {
		m, err := s.matches.FindMatch(ctx, in.MatchID)
		return m.Version, err
	}
	write := func(ctx context.Context, version int64) (model.Match, error) {
		return s.matches.ConditionalUpdateMatch(ctx, in.MatchID, version, model.ResultPatch(in.Score1, in.Score2))
	}
	if _, err := optimistic.UpdateFromVersion(ctx, s.maxAttempts, in.ExpectedVersion, read, write); err != nil {
		var lockErr *optimistic.OptimisticLockError
		if errors.As(err, &lockErr) {
			metrics.RecordMatchWrite(string(cur.Stage), metrics.WriteConflict)
			log.Warn(ctx, "score report lost to concurrent writers",
				logger.Int("attempts", lockErr.Attempts),
				logger.Int64("lastVersion", lockErr.LastVersion))
		} else {
			metrics.RecordMatchWrite(string(cur.Stage), metrics.WriteError)
		}
		return Outcome{}, err
	}
	metrics.RecordMatchWrite(string(cur.Stage), metrics.WriteOK)

	// Decide follow-up work from the stored row, not from what was sent.
	written, err := s.matches.FindMatch(ctx, in.MatchID)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Match: written}
	log.Info(ctx, "score recorded",
		logger.Int("score1", written.Score1),
		logger.Int("score2", written.Score2),
		logger.Int64("version", written.Version))

	switch written.Stage {
	case model.StageQualification:
		st, err := s.recalculatePlayers(ctx, written)
		if err != nil {
			return out, err
		}
		out.Stats = st
	case model.StageFinals:
		_, lookup, err := s.topology()
		if err != nil {
			return out, err
		}
		if err := s.advance(ctx, lookup, rs, written, &out); err != nil {
			return out, err
		}
	}
	return out, nil
}

// recalculatePlayers rebuilds both players' aggregates concurrently.
func (s *Service) recalculatePlayers(ctx context.Context, m model.Match) (map[string]model.Stats, error) {
	players := [2]string{m.Player1ID, m.Player2ID}
	var results [2]model.Stats

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range players {
		g.Go(func() error {
			st, err := s.recalc.Recalculate(gctx, m.TournamentID, m.Mode, p)
			if err != nil {
				return err
			}
			results[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("recalculate stats: %w", err)
	}
	return map[string]model.Stats{players[0]: results[0], players[1]: results[1]}, nil
}

// advance applies the progression plan of a completed finals match.
func (s *Service) advance(ctx context.Context, lookup bracket.Lookup, rs rules.Ruleset, m model.Match, out *Outcome) error {
	plan, err := bracket.Progress(lookup, m, rs)
	if err != nil {
		return err
	}

	rows, err := s.matches.ListMatches(ctx, m.TournamentID, m.Mode, model.StageFinals, model.MatchFilter{})
	if err != nil {
		return fmt.Errorf("list bracket: %w", err)
	}
	byNumber := make(map[int]model.Match, len(rows))
	for _, r := range rows {
		byNumber[r.MatchNumber] = r
	}

	resetSeated, resetCleared := 0, 0
	for _, p := range plan.Placements {
		adv, err := s.place(ctx, m, byNumber, p)
		if err != nil {
			return err
		}
		switch adv.Result {
		case metrics.AdvancementSkipped:
			out.Skipped = append(out.Skipped, adv)
			out.Partial = true
		default:
			out.Advanced = append(out.Advanced, adv)
			if adv.Result == metrics.AdvancementApplied {
				switch p.Reason {
				case bracket.ReasonReset:
					resetSeated++
				case bracket.ReasonClear:
					resetCleared++
				}
			}
		}
	}
	if resetSeated > 0 {
		metrics.RecordGrandFinalReset()
		s.logger.Info(ctx, "grand final goes to a reset",
			logger.String("tournament", m.TournamentID),
			logger.String("mode", string(m.Mode)),
			logger.String("player1", plan.Reset.Player1),
			logger.String("player2", plan.Reset.Player2))
	}

	if resetCleared > 0 {
		s.logger.Info(ctx, "grand final reset withdrawn",
			logger.String("tournament", m.TournamentID),
			logger.String("mode", string(m.Mode)),
			logger.Int("match", m.MatchNumber))
	}

	out.Eliminated = plan.Eliminated
	if plan.Complete {
		out.Complete, out.Champion = true, plan.Champion
		metrics.RecordChampion(string(m.Mode))
		s.logger.Info(ctx, "champion decided",
			logger.String("tournament", m.TournamentID),
			logger.String("mode", string(m.Mode)),
			logger.String("champion", plan.Champion))
	}
	return nil
}

// checkResetOpen refuses a player-1 grand-final result once the reset has a
// result of its own, since the reset already decided the champion.
func (s *Service) checkResetOpen(ctx context.Context, gf model.Match) error {
	_, lookup, err := s.topology()
	if err != nil {
		return err
	}
	reset, ok := lookup.ByRound(model.GrandFinalReset)
	if !ok {
		return nil
	}
	rows, err := s.matches.ListMatches(ctx, gf.TournamentID, gf.Mode, model.StageFinals,
		model.MatchFilter{MatchNumber: reset.MatchNumber})
	if err != nil {
		return err
	}
	for _, r := range rows {
		if r.Completed {
			return fmt.Errorf("%w: %w", ErrTargetAlreadyPlayed,
				model.Invalid("score", "grand final reset %d already has a result; reset the bracket to change the grand final", reset.MatchNumber))
		}
	}
	return nil
}

// place seats one player through the version-checked write path. A missing
// target is reported as skipped; a slot already holding the player is a no-op.
func (s *Service) place(ctx context.Context, from model.Match, byNumber map[int]model.Match, p bracket.Placement) (Advancement, error) {
	adv := Advancement{Placement: p}
	target, ok := byNumber[p.MatchNumber]
	if !ok {
		return s.skip(ctx, from, adv), nil
	}
	adv.MatchID = target.ID

	var cur model.Match
	noop := false
	read := func(ctx context.Context) (int64, error) {
		m, err := s.matches.FindMatch(ctx, target.ID)
		if err != nil {
			return 0, err
		}
		cur = m
		return m.Version, nil
	}
	write := func(ctx context.Context, version int64) (model.Match, error) {
		if cur.Slot(p.Slot) == p.PlayerID {
			noop = true
			return cur, nil
		}
		if cur.Completed {
			return model.Match{}, fmt.Errorf("match %d slot %d: %w", p.MatchNumber, p.Slot, ErrTargetAlreadyPlayed)
		}
		return s.matches.ConditionalUpdateMatch(ctx, target.ID, version, model.SlotPatch(p.Slot, p.PlayerID))
	}

	_, err := optimistic.UpdateWithRetry(ctx, s.maxAttempts, read, write)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return s.skip(ctx, from, adv), nil
	case errors.Is(err, ErrTargetAlreadyPlayed):
		adv.Result, adv.Err = metrics.AdvancementSkipped, err
		metrics.RecordAdvancement(adv.Result)
		s.logger.Warn(ctx, "advancement target already played",
			logger.String("tournament", from.TournamentID),
			logger.Int("target", p.MatchNumber),
			logger.Int("slot", p.Slot),
			logger.String("player", p.PlayerID),
			logger.String("occupant", cur.Slot(p.Slot)))
		return adv, nil
	case err != nil:
		return adv, fmt.Errorf("advance %s to match %d: %w", p.PlayerID, p.MatchNumber, err)
	}

	adv.Result = metrics.AdvancementApplied
	if noop {
		adv.Result = metrics.AdvancementNoop
	}
	metrics.RecordAdvancement(adv.Result)
	s.logger.Debug(ctx, "player advanced",
		logger.String("player", p.PlayerID),
		logger.Int("from", from.MatchNumber),
		logger.Int("target", p.MatchNumber),
		logger.Int("slot", p.Slot),
		logger.String("result", adv.Result))
	return adv, nil
}

func (s *Service) skip(ctx context.Context, from model.Match, adv Advancement) Advancement {
	p := adv.Placement
	adv.Result = metrics.AdvancementSkipped
	adv.Err = fmt.Errorf("match %d: %w", p.MatchNumber, model.ErrAdvancementTargetMissing)
	metrics.RecordAdvancement(adv.Result)
	s.logger.Warn(ctx, "advancement target missing",
		logger.String("tournament", from.TournamentID),
		logger.String("mode", string(from.Mode)),
		logger.Int("from", from.MatchNumber),
		logger.Int("target", p.MatchNumber),
		logger.Int("slot", p.Slot),
		logger.String("player", p.PlayerID))
	return adv
}

// Reconcile re-derives advancement for every completed finals match, feeders
// first. It repairs brackets where a score was stored but advancement was not.
func (s *Service) Reconcile(ctx context.Context, tournamentID string, mode model.Mode) (Outcome, error) {
	rs, err := s.matchRules(mode)
	if err != nil {
		return Outcome{}, err
	}
	specs, lookup, err := s.topology()
	if err != nil {
		return Outcome{}, err
	}
	order, err := bracket.Order(specs)
	if err != nil {
		return Outcome{}, err
	}

	rows, err := s.matches.ListMatches(ctx, tournamentID, mode, model.StageFinals, model.MatchFilter{})
	if err != nil {
		return Outcome{}, err
	}
	ids := make(map[int]string, len(rows))
	for _, r := range rows {
		ids[r.MatchNumber] = r.ID
	}

	var out Outcome
	for _, n := range order {
		id, ok := ids[n]
		if !ok {
			continue
		}
		// Earlier iterations may have seated players here.
		m, err := s.matches.FindMatch(ctx, id)
		if err != nil {
			return out, err
		}
		if !m.Completed || !m.Ready() {
			continue
		}
		step := Outcome{}
		if err := s.advance(ctx, lookup, rs, m, &step); err != nil {
			return out, err
		}
		out.Advanced = append(out.Advanced, step.Advanced...)
		out.Skipped = append(out.Skipped, step.Skipped...)
		out.Partial = out.Partial || step.Partial
		if step.Complete {
			out.Complete, out.Champion = true, step.Champion
		}
	}
	s.logger.Info(ctx, "bracket reconciled",
		logger.String("tournament", tournamentID),
		logger.String("mode", string(mode)),
		logger.Int("advanced", len(out.Advanced)),
		logger.Int("skipped", len(out.Skipped)))
	return out, nil
}
