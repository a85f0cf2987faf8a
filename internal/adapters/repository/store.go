// Package repository defines the match and qualification stores the engine
// reads and writes, with in-memory and postgres implementations.
package repository

import (
	"context"

	"github.com/okian/kartcup/internal/domain/model"
)

// MatchStore provides version-checked access to match rows.
type MatchStore interface {
	// FindMatch returns ErrNotFound when no row has id.
	FindMatch(ctx context.Context, id string) (model.Match, error)
	// ListMatches returns rows ordered by match number, then id.
	ListMatches(ctx context.Context, tournamentID string, mode model.Mode, stage model.Stage, filter model.MatchFilter) ([]model.Match, error)
	// CreateMatch assigns a new id and version 1. A non-zero match number is
	// unique within a stage; a second row with it returns ErrMatchExists.
	CreateMatch(ctx context.Context, m model.Match) (model.Match, error)
	// ConditionalUpdateMatch applies patch only when the stored version equals
	// expectedVersion and returns the row with its version incremented.
	// Returns ErrVersionConflict or ErrNotFound otherwise.
	ConditionalUpdateMatch(ctx context.Context, id string, expectedVersion int64, patch model.MatchPatch) (model.Match, error)
	// DeleteMatches removes every row of a stage and reports how many went.
	DeleteMatches(ctx context.Context, tournamentID string, mode model.Mode, stage model.Stage) (int, error)
}

// QualificationStore holds per-player qualification aggregates.
type QualificationStore interface {
	// ListQualifications returns rows ordered by group then player. An empty
	// group lists every group.
	ListQualifications(ctx context.Context, tournamentID string, mode model.Mode, group string) ([]model.Qualification, error)
	// UpsertQualificationStats replaces the aggregate, keeping the group.
	UpsertQualificationStats(ctx context.Context, tournamentID string, mode model.Mode, playerID string, stats model.Stats) error
	// RegisterPlayer creates a zeroed row placing the player in a group.
	RegisterPlayer(ctx context.Context, q model.Qualification) error
}

// Store is both stores behind one handle.
type Store interface {
	MatchStore
	QualificationStore
}
