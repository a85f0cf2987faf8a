// Package simulate plays a finals bracket end to end against the service,
// reporting every result the way concurrent clients would.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/kartcup/internal/adapters/repository"
	service "github.com/okian/kartcup/internal/app"
	"github.com/okian/kartcup/internal/domain/model"
	"github.com/okian/kartcup/internal/domain/optimistic"
	"github.com/okian/kartcup/internal/domain/rules"
	"github.com/okian/kartcup/pkg/logger"
)

// ErrStalled is returned when no match is playable but no champion exists.
var ErrStalled = errors.New("bracket stalled before a champion was decided")

// Option configures Run.
type Option func(*runner)

// WithStore plays against store instead of a fresh in-memory store.
func WithStore(store repository.Store) Option {
	return func(r *runner) {
		if store != nil {
			r.store = store
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *runner) {
		if l != nil {
			r.logger = l
		}
	}
}

type runner struct {
	cfg    Config
	store  repository.Store
	logger logger.Logger
	rng    *rand.Rand

	svc    *service.Service
	report Report
}

// Run generates a bracket for cfg.Players and plays it to a champion.
func Run(ctx context.Context, cfg Config, opts ...Option) (Report, error) {
	if err := cfg.withDefaults(); err != nil {
		return Report{}, err
	}
	r := &runner{cfg: cfg}
	for _, opt := range opts {
		opt(r)
	}
	if r.store == nil {
		r.store = repository.NewMemoryStore()
	}
	if r.logger == nil {
		r.logger = logger.Named("simulate")
	}
	r.rng = rand.New(rand.NewPCG(cfg.Seed, cfg.Seed>>1|1))

	rs, err := rules.For(cfg.Mode, rules.WithFinalsTarget(cfg.FinalsTarget))
	if err != nil {
		return Report{}, err
	}
	r.svc, err = service.New(r.store, r.store,
		service.WithRules(map[model.Mode]rules.Ruleset{cfg.Mode: rs}),
		service.WithLogger(r.logger.Named("service")))
	if err != nil {
		return Report{}, err
	}

	start := time.Now()
	r.logger.Info(ctx, "starting simulated finals",
		logger.String("tournament", cfg.Tournament),
		logger.String("mode", string(cfg.Mode)),
		logger.Int("players", len(cfg.Players)),
		logger.Int("reporters", cfg.Reporters),
		logger.Int("finalsTarget", cfg.FinalsTarget))

	if _, err := r.svc.GenerateBracket(ctx, cfg.Tournament, cfg.Mode, cfg.Players); err != nil {
		return Report{}, fmt.Errorf("generate bracket: %w", err)
	}
	if err := r.play(ctx); err != nil {
		return r.report, err
	}

	standings, err := r.svc.FinalsStandings(ctx, cfg.Tournament, cfg.Mode)
	if err != nil {
		return r.report, err
	}
	r.report.Standings = standings
	r.report.Duration = time.Since(start)
	return r.report, nil
}

// play reports every ready match, lowest match number first, until nothing
// is left to play.
func (r *runner) play(ctx context.Context) error {
	for {
		rows, err := r.svc.Bracket(ctx, r.cfg.Tournament, r.cfg.Mode)
		if err != nil {
			return err
		}
		var pending []model.Match
		for _, m := range rows {
			if m.Ready() && !m.Completed {
				pending = append(pending, m)
			}
		}
		if len(pending) == 0 {
			break
		}
		for _, m := range pending {
			s1, s2 := r.score()
			out, err := r.reportAll(ctx, m, s1, s2)
			if err != nil {
				return fmt.Errorf("match %d: %w", m.MatchNumber, err)
			}
			r.report.MatchesPlayed++
			if m.Round == model.GrandFinalReset {
				r.report.ResetPlayed = true
			}
			if out.Complete {
				r.report.Champion = out.Champion
			}
			if r.cfg.Verbose {
				r.logger.Info(ctx, "match played",
					logger.Int("match", m.MatchNumber),
					logger.String("round", string(m.Round)),
					logger.String("player1", m.Player1ID),
					logger.String("player2", m.Player2ID),
					logger.Int("score1", s1),
					logger.Int("score2", s2))
			}
		}
	}
	if r.report.Champion == "" {
		return ErrStalled
	}
	return nil
}

// score draws a decided finals score: the winner reaches the target, the
// loser stops short of it.
func (r *runner) score() (int, int) {
	target := r.cfg.FinalsTarget
	loser := r.rng.IntN(target)
	if r.rng.IntN(2) == 0 {
		return target, loser
	}
	return loser, target
}

// reportAll sends the same result from every reporter at once, each against
// the version it read. Reports that exhaust their retries are counted, not
// fatal, as long as one lands.
func (r *runner) reportAll(ctx context.Context, m model.Match, s1, s2 int) (service.Outcome, error) {
	var (
		mu      sync.Mutex
		landed  bool
		outcome service.Outcome
	)
	in := service.ReportInput{MatchID: m.ID, Score1: s1, Score2: s2, ExpectedVersion: m.Version}

	g, gctx := errgroup.WithContext(ctx)
	for range r.cfg.Reporters {
		g.Go(func() error {
			out, err := r.svc.ReportResult(gctx, in)
			mu.Lock()
			defer mu.Unlock()
			r.report.Reports++
			var lockErr *optimistic.OptimisticLockError
			switch {
			case errors.As(err, &lockErr):
				r.report.Rejected++
				return nil
			case err != nil:
				return err
			}
			if !landed || out.Complete {
				outcome = out
			}
			landed = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return service.Outcome{}, err
	}
	if !landed {
		return service.Outcome{}, fmt.Errorf("no report landed: %w", model.ErrVersionConflict)
	}
	return outcome, nil
}
