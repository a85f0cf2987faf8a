package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/okian/kartcup/internal/domain/model"
	"github.com/okian/kartcup/pkg/logger"
)

type stageKey struct {
	tournament string
	mode       model.Mode
	stage      model.Stage
}

type qualKey struct {
	tournament string
	mode       model.Mode
	player     string
}

// MemoryStore is an in-process Store. Rows are copied in and out, so callers
// never share state with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	matches map[string]model.Match
	byStage map[stageKey]map[string]struct{}
	quals   map[qualKey]model.Qualification

	opts options
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Named("memstore")
	}
	return &MemoryStore{
		matches: make(map[string]model.Match),
		byStage: make(map[stageKey]map[string]struct{}),
		quals:   make(map[qualKey]model.Qualification),
		opts:    o,
	}
}

func (s *MemoryStore) FindMatch(ctx context.Context, id string) (model.Match, error) {
	if err := ctx.Err(); err != nil {
		return model.Match{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.matches[id]
	if !ok {
		return model.Match{}, fmt.Errorf("match %s: %w", id, ErrNotFound)
	}
	return m, nil
}

func (s *MemoryStore) ListMatches(ctx context.Context, tournamentID string, mode model.Mode, stage model.Stage, filter model.MatchFilter) ([]model.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byStage[stageKey{tournamentID, mode, stage}]
	out := make([]model.Match, 0, len(ids))
	for id := range ids {
		if m := s.matches[id]; filter.Matches(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MatchNumber != out[j].MatchNumber {
			return out[i].MatchNumber < out[j].MatchNumber
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) CreateMatch(ctx context.Context, m model.Match) (model.Match, error) {
	if err := ctx.Err(); err != nil {
		return model.Match{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := stageKey{m.TournamentID, m.Mode, m.Stage}
	if m.MatchNumber != 0 {
		for id := range s.byStage[k] {
			if s.matches[id].MatchNumber == m.MatchNumber {
				return model.Match{}, fmt.Errorf("match %d: %w", m.MatchNumber, ErrMatchExists)
			}
		}
	}
	m.ID = s.opts.newID()
	m.Version = 1
	if s.byStage[k] == nil {
		s.byStage[k] = make(map[string]struct{})
	}
	s.byStage[k][m.ID] = struct{}{}
	s.matches[m.ID] = m
	return m, nil
}

func (s *MemoryStore) ConditionalUpdateMatch(ctx context.Context, id string, expectedVersion int64, patch model.MatchPatch) (model.Match, error) {
	if err := ctx.Err(); err != nil {
		return model.Match{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.matches[id]
	if !ok {
		return model.Match{}, fmt.Errorf("match %s: %w", id, ErrNotFound)
	}
	if cur.Version != expectedVersion {
		s.opts.log.Debug(ctx, "version conflict",
			logger.String("match", id),
			logger.Int64("expected", expectedVersion),
			logger.Int64("actual", cur.Version))
		return model.Match{}, fmt.Errorf("match %s at version %d, expected %d: %w", id, cur.Version, expectedVersion, ErrVersionConflict)
	}
	next := patch.Apply(cur)
	next.Version = cur.Version + 1
	s.matches[id] = next
	return next, nil
}

func (s *MemoryStore) DeleteMatches(ctx context.Context, tournamentID string, mode model.Mode, stage model.Stage) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := stageKey{tournamentID, mode, stage}
	ids := s.byStage[k]
	for id := range ids {
		delete(s.matches, id)
	}
	delete(s.byStage, k)
	return len(ids), nil
}

func (s *MemoryStore) ListQualifications(ctx context.Context, tournamentID string, mode model.Mode, group string) ([]model.Qualification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Qualification
	for k, q := range s.quals {
		if k.tournament != tournamentID || k.mode != mode {
			continue
		}
		if group != "" && q.Group != group {
			continue
		}
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out, nil
}

func (s *MemoryStore) UpsertQualificationStats(ctx context.Context, tournamentID string, mode model.Mode, playerID string, stats model.Stats) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := qualKey{tournamentID, mode, playerID}
	q, ok := s.quals[k]
	if !ok {
		q = model.Qualification{TournamentID: tournamentID, Mode: mode, PlayerID: playerID}
	}
	q.Stats = stats
	s.quals[k] = q
	return nil
}

func (s *MemoryStore) RegisterPlayer(ctx context.Context, q model.Qualification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if q.PlayerID == "" {
		return model.Invalid("playerId", "must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := qualKey{q.TournamentID, q.Mode, q.PlayerID}
	if cur, ok := s.quals[k]; ok {
		cur.Group = q.Group
		s.quals[k] = cur
		return nil
	}
	q.Stats = model.Stats{}
	s.quals[k] = q
	return nil
}
