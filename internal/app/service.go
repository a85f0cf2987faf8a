// Package service orchestrates the bracket and ranking engine over the match
// and qualification stores. It is the only place that writes match rows.
package service

import (
	"context"
	"fmt"

	"github.com/okian/kartcup/internal/adapters/repository"
	"github.com/okian/kartcup/internal/domain/bracket"
	"github.com/okian/kartcup/internal/domain/model"
	"github.com/okian/kartcup/internal/domain/optimistic"
	"github.com/okian/kartcup/internal/domain/rules"
	"github.com/okian/kartcup/internal/domain/stats"
	"github.com/okian/kartcup/pkg/logger"
)

// Service implements tournament operations for the HTTP API and the simulator.
type Service struct {
	matches repository.MatchStore
	quals   repository.QualificationStore
	recalc  *stats.Recalculator

	rules       map[model.Mode]rules.Ruleset
	maxAttempts int
	bracketSize int

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxAttempts sets the retry budget for version-checked writes.
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithRules replaces the rulesets of the modes present in set.
func WithRules(set map[model.Mode]rules.Ruleset) Option {
	return func(s *Service) {
		for m, r := range set {
			if r != nil {
				s.rules[m] = r
			}
		}
	}
}

// WithBracketSize sets the finals bracket size. Unsupported sizes are
// rejected when a bracket is generated.
func WithBracketSize(n int) Option {
	return func(s *Service) {
		s.bracketSize = n
	}
}

// New constructs a Service over the given stores.
func New(matches repository.MatchStore, quals repository.QualificationStore, opts ...Option) (*Service, error) {
	if matches == nil || quals == nil {
		return nil, fmt.Errorf("service: match and qualification stores are required")
	}
	defaults, err := rules.FromConfig(nil, nil)
	if err != nil {
		return nil, err
	}
	s := &Service{
		matches:     matches,
		quals:       quals,
		rules:       defaults,
		maxAttempts: optimistic.DefaultAttempts,
		bracketSize: bracket.SupportedSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.recalc = stats.NewRecalculator(matches, quals, stats.WithLogger(s.logger.Named("stats")))
	return s, nil
}

func (s *Service) ruleset(mode model.Mode) (rules.Ruleset, error) {
	if _, err := model.ParseMode(string(mode)); err != nil {
		return nil, err
	}
	r, ok := s.rules[mode]
	if !ok {
		return nil, model.Invalid("mode", "no rules configured for %s", mode)
	}
	return r, nil
}

func (s *Service) matchRules(mode model.Mode) (rules.Ruleset, error) {
	r, err := s.ruleset(mode)
	if err != nil {
		return nil, err
	}
	if !r.MatchBased() {
		return nil, model.Invalid("mode", "%s is ranked by time and has no matches", mode)
	}
	return r, nil
}

func (s *Service) topology() ([]bracket.MatchSpec, bracket.Lookup, error) {
	specs, err := bracket.Generate(s.bracketSize)
	if err != nil {
		return nil, nil, err
	}
	return specs, bracket.Index(specs), nil
}

// Recalculate rebuilds one player's qualification aggregate.
func (s *Service) Recalculate(ctx context.Context, tournamentID string, mode model.Mode, playerID string) (model.Stats, error) {
	if _, err := s.matchRules(mode); err != nil {
		return model.Stats{}, err
	}
	return s.recalc.Recalculate(ctx, tournamentID, mode, playerID)
}

// Bracket lists the finals matches of a mode in match-number order.
func (s *Service) Bracket(ctx context.Context, tournamentID string, mode model.Mode) ([]model.Match, error) {
	if _, err := s.matchRules(mode); err != nil {
		return nil, err
	}
	return s.matches.ListMatches(ctx, tournamentID, mode, model.StageFinals, model.MatchFilter{})
}

// Match returns a single match.
func (s *Service) Match(ctx context.Context, id string) (model.Match, error) {
	return s.matches.FindMatch(ctx, id)
}
