// Package stats recomputes a player's qualification aggregate from match
// history. The aggregate is always rebuilt from every completed match, never
// incremented, so an edited score is picked up on the next run.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/kartcup/internal/domain/model"
	"github.com/okian/kartcup/pkg/logger"
	"github.com/okian/kartcup/pkg/metrics"
)

// MatchLister reads stored matches.
type MatchLister interface {
	ListMatches(ctx context.Context, tournamentID string, mode model.Mode, stage model.Stage, filter model.MatchFilter) ([]model.Match, error)
}

// QualificationWriter persists a recomputed aggregate.
type QualificationWriter interface {
	UpsertQualificationStats(ctx context.Context, tournamentID string, mode model.Mode, playerID string, stats model.Stats) error
}

// Compute classifies every completed match playerID took part in.
func Compute(playerID string, matches []model.Match) model.Stats {
	var wins, ties, losses, won, lost int
	for _, m := range matches {
		if !m.Completed || !m.HasPlayer(playerID) {
			continue
		}
		own, opp := m.ScoreFor(playerID)
		won += own
		lost += opp
		switch {
		case own > opp:
			wins++
		case own < opp:
			losses++
		default:
			ties++
		}
	}
	return model.NewStats(wins, ties, losses, won, lost)
}

// Recalculator rebuilds and stores qualification aggregates.
type Recalculator struct {
	matches MatchLister
	quals   QualificationWriter
	log     logger.Logger
}

// Option configures a Recalculator.
type Option func(*Recalculator)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Recalculator) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRecalculator wires a Recalculator to its stores.
func NewRecalculator(matches MatchLister, quals QualificationWriter, opts ...Option) *Recalculator {
	r := &Recalculator{
		matches: matches,
		quals:   quals,
		log:     logger.Named("stats"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recalculate lists all completed qualification matches of playerID in mode,
// recomputes the aggregate and writes it back.
func (r *Recalculator) Recalculate(ctx context.Context, tournamentID string, mode model.Mode, playerID string) (model.Stats, error) {
	if playerID == "" {
		return model.Stats{}, model.Invalid("playerId", "must not be empty")
	}
	start := time.Now()

	done := true
	matches, err := r.matches.ListMatches(ctx, tournamentID, mode, model.StageQualification,
		model.MatchFilter{PlayerID: playerID, Completed: &done})
	if err != nil {
		return model.Stats{}, fmt.Errorf("list matches for %s: %w", playerID, err)
	}

	s := Compute(playerID, matches)
	if err := r.quals.UpsertQualificationStats(ctx, tournamentID, mode, playerID, s); err != nil {
		return model.Stats{}, fmt.Errorf("store stats for %s: %w", playerID, err)
	}

	metrics.RecordStatRecalculation(float64(time.Since(start).Milliseconds()))
	r.log.Debug(ctx, "stats recalculated",
		logger.String("tournament", tournamentID),
		logger.String("mode", string(mode)),
		logger.String("player", playerID),
		logger.Int("mp", s.MP),
		logger.Int("score", s.Score))
	return s, nil
}
