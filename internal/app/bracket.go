package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/kartcup/internal/domain/bracket"
	"github.com/okian/kartcup/internal/domain/model"
	"github.com/okian/kartcup/pkg/logger"
	"github.com/okian/kartcup/pkg/metrics"
)

// GenerateBracket creates the finals matches of a mode. seeds[0] is the top
// seed. A mode that already has finals matches must be reset first.
func (s *Service) GenerateBracket(ctx context.Context, tournamentID string, mode model.Mode, seeds []string) ([]model.Match, error) {
	if tournamentID == "" {
		return nil, model.Invalid("tournamentId", "must not be empty")
	}
	if _, err := s.matchRules(mode); err != nil {
		return nil, err
	}
	specs, _, err := s.topology()
	if err != nil {
		return nil, err
	}
	rows, err := bracket.Seed(specs, seeds)
	if err != nil {
		return nil, err
	}

	existing, err := s.matches.ListMatches(ctx, tournamentID, mode, model.StageFinals, model.MatchFilter{})
	if err != nil {
		return nil, fmt.Errorf("list bracket: %w", err)
	}
	if len(existing) > 0 {
		return nil, model.Invalid("bracket", "%s finals already exist; reset the stage first", mode)
	}

	out := make([]model.Match, 0, len(rows))
	for _, r := range rows {
		r.TournamentID = tournamentID
		r.Mode = mode
		created, err := s.matches.CreateMatch(ctx, r)
		if errors.Is(err, model.ErrMatchExists) {
			// Another generation of the same bracket got there first.
			return nil, model.Invalid("bracket", "%s finals already exist; reset the stage first", mode)
		}
		if err != nil {
			return nil, fmt.Errorf("create match %d: %w", r.MatchNumber, err)
		}
		out = append(out, created)
	}

	metrics.RecordBracketGenerated(string(mode))
	s.logger.Info(ctx, "bracket generated",
		logger.String("tournament", tournamentID),
		logger.String("mode", string(mode)),
		logger.Int("matches", len(out)),
		logger.String("topSeed", seeds[0]))
	return out, nil
}

// GenerateBracketFromStandings seeds the bracket with the best players of
// the cross-group qualification standings.
func (s *Service) GenerateBracketFromStandings(ctx context.Context, tournamentID string, mode model.Mode) ([]model.Match, error) {
	standings, err := s.OverallStandings(ctx, tournamentID, mode)
	if err != nil {
		return nil, err
	}
	if len(standings) < s.bracketSize {
		return nil, model.Invalid("standings", "need %d qualified players, have %d", s.bracketSize, len(standings))
	}
	seeds := make([]string, s.bracketSize)
	for i := range seeds {
		seeds[i] = standings[i].PlayerID
	}
	return s.GenerateBracket(ctx, tournamentID, mode, seeds)
}

// ResetStage deletes every match of a stage. Resetting qualification also
// zeroes the stored aggregates, which no longer have matches behind them.
func (s *Service) ResetStage(ctx context.Context, tournamentID string, mode model.Mode, stage model.Stage) (int, error) {
	if _, err := s.matchRules(mode); err != nil {
		return 0, err
	}
	if _, err := model.ParseStage(string(stage)); err != nil {
		return 0, err
	}
	n, err := s.matches.DeleteMatches(ctx, tournamentID, mode, stage)
	if err != nil {
		return 0, err
	}
	if stage == model.StageQualification {
		quals, err := s.quals.ListQualifications(ctx, tournamentID, mode, "")
		if err != nil {
			return n, err
		}
		for _, q := range quals {
			if err := s.quals.UpsertQualificationStats(ctx, tournamentID, mode, q.PlayerID, model.Stats{}); err != nil {
				return n, err
			}
		}
	}
	s.logger.Info(ctx, "stage reset",
		logger.String("tournament", tournamentID),
		logger.String("mode", string(mode)),
		logger.String("stage", string(stage)),
		logger.Int("deleted", n))
	return n, nil
}

// RegisterPlayer places a player in a qualification group.
func (s *Service) RegisterPlayer(ctx context.Context, tournamentID string, mode model.Mode, playerID, group string) error {
	if _, err := s.matchRules(mode); err != nil {
		return err
	}
	if group == "" {
		return model.Invalid("group", "must not be empty")
	}
	return s.quals.RegisterPlayer(ctx, model.Qualification{
		TournamentID: tournamentID,
		Mode:         mode,
		PlayerID:     playerID,
		Group:        group,
	})
}

// CreateRoundRobin registers players into group and creates one
// qualification match for every pair of them.
func (s *Service) CreateRoundRobin(ctx context.Context, tournamentID string, mode model.Mode, group string, players []string) ([]model.Match, error) {
	if len(players) < 2 {
		return nil, model.Invalid("players", "a group needs at least 2 players, got %d", len(players))
	}
	seen := make(map[string]struct{}, len(players))
	for _, p := range players {
		if p == "" {
			return nil, model.Invalid("players", "player id must not be empty")
		}
		if _, dup := seen[p]; dup {
			return nil, model.Invalid("players", "player %s listed twice", p)
		}
		seen[p] = struct{}{}
	}
	for _, p := range players {
		if err := s.RegisterPlayer(ctx, tournamentID, mode, p, group); err != nil {
			return nil, err
		}
	}

	existing, err := s.matches.ListMatches(ctx, tournamentID, mode, model.StageQualification, model.MatchFilter{})
	if err != nil {
		return nil, err
	}
	next := len(existing) + 1

	var out []model.Match
	for i := 0; i < len(players); i++ {
		for j := i + 1; j < len(players); j++ {
			m, err := s.matches.CreateMatch(ctx, model.Match{
				TournamentID: tournamentID,
				Mode:         mode,
				Stage:        model.StageQualification,
				Group:        group,
				MatchNumber:  next,
				Player1ID:    players[i],
				Player2ID:    players[j],
			})
			if err != nil {
				return nil, fmt.Errorf("create qualification match: %w", err)
			}
			out = append(out, m)
			next++
		}
	}
	s.logger.Info(ctx, "round robin created",
		logger.String("tournament", tournamentID),
		logger.String("mode", string(mode)),
		logger.String("group", group),
		logger.Int("matches", len(out)))
	return out, nil
}
