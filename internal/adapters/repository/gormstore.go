package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/kartcup/internal/domain/model"
	"github.com/okian/kartcup/pkg/logger"
)

type matchRow struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	TournamentID string `gorm:"uniqueIndex:idx_match_number,priority:1;not null"`
	Mode         string `gorm:"uniqueIndex:idx_match_number,priority:2;type:varchar(8);not null"`
	Stage        string `gorm:"uniqueIndex:idx_match_number,priority:3;type:varchar(16);not null"`
	GroupName    string `gorm:"column:group_name;type:varchar(32)"`
	MatchNumber  int    `gorm:"uniqueIndex:idx_match_number,priority:4;not null;default:0"`
	Round        string `gorm:"type:varchar(32)"`
	Bracket      string `gorm:"type:varchar(16)"`
	Player1ID    string `gorm:"column:player1_id;index"`
	Player2ID    string `gorm:"column:player2_id;index"`
	Score1       int    `gorm:"not null;default:0"`
	Score2       int    `gorm:"not null;default:0"`
	Completed    bool   `gorm:"not null;default:false"`
	Version      int64  `gorm:"not null;default:1"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (matchRow) TableName() string { return "kart_matches" }

func (r matchRow) toModel() model.Match {
	return model.Match{
		ID:           r.ID,
		TournamentID: r.TournamentID,
		Mode:         model.Mode(r.Mode),
		Stage:        model.Stage(r.Stage),
		Group:        r.GroupName,
		MatchNumber:  r.MatchNumber,
		Round:        model.Round(r.Round),
		Bracket:      model.Bracket(r.Bracket),
		Player1ID:    r.Player1ID,
		Player2ID:    r.Player2ID,
		Score1:       r.Score1,
		Score2:       r.Score2,
		Completed:    r.Completed,
		Version:      r.Version,
	}
}

func fromMatch(m model.Match) matchRow {
	return matchRow{
		ID:           m.ID,
		TournamentID: m.TournamentID,
		Mode:         string(m.Mode),
		Stage:        string(m.Stage),
		GroupName:    m.Group,
		MatchNumber:  m.MatchNumber,
		Round:        string(m.Round),
		Bracket:      string(m.Bracket),
		Player1ID:    m.Player1ID,
		Player2ID:    m.Player2ID,
		Score1:       m.Score1,
		Score2:       m.Score2,
		Completed:    m.Completed,
		Version:      m.Version,
	}
}

type qualificationRow struct {
	TournamentID string `gorm:"primaryKey"`
	Mode         string `gorm:"primaryKey;type:varchar(8)"`
	PlayerID     string `gorm:"primaryKey"`
	GroupName    string `gorm:"column:group_name;type:varchar(32);index"`
	MP           int    `gorm:"column:mp;not null;default:0"`
	Wins         int    `gorm:"not null;default:0"`
	Ties         int    `gorm:"not null;default:0"`
	Losses       int    `gorm:"not null;default:0"`
	WinRounds    int    `gorm:"not null;default:0"`
	LossRounds   int    `gorm:"not null;default:0"`
	Points       int    `gorm:"not null;default:0"`
	Score        int    `gorm:"not null;default:0"`
	UpdatedAt    time.Time
}

func (qualificationRow) TableName() string { return "kart_qualifications" }

func (r qualificationRow) toModel() model.Qualification {
	return model.Qualification{
		TournamentID: r.TournamentID,
		Mode:         model.Mode(r.Mode),
		PlayerID:     r.PlayerID,
		Group:        r.GroupName,
		Stats: model.Stats{
			MP:         r.MP,
			Wins:       r.Wins,
			Ties:       r.Ties,
			Losses:     r.Losses,
			WinRounds:  r.WinRounds,
			LossRounds: r.LossRounds,
			Points:     r.Points,
			Score:      r.Score,
		},
	}
}

var statColumns = []string{"mp", "wins", "ties", "losses", "win_rounds", "loss_rounds", "points", "score", "updated_at"}

// GormStore is a Store on postgres through gorm.
type GormStore struct {
	db   *gorm.DB
	opts options
}

var _ Store = (*GormStore)(nil)

// OpenPostgres connects to dsn.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// NewGormStore migrates the schema and returns a store on db.
func NewGormStore(ctx context.Context, db *gorm.DB, opts ...Option) (*GormStore, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Named("gormstore")
	}
	if err := db.WithContext(ctx).AutoMigrate(&matchRow{}, &qualificationRow{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &GormStore{db: db, opts: o}, nil
}

func (s *GormStore) FindMatch(ctx context.Context, id string) (model.Match, error) {
	var row matchRow
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Match{}, fmt.Errorf("match %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Match{}, fmt.Errorf("find match %s: %w", id, err)
	}
	return row.toModel(), nil
}

func (s *GormStore) ListMatches(ctx context.Context, tournamentID string, mode model.Mode, stage model.Stage, filter model.MatchFilter) ([]model.Match, error) {
	q := s.db.WithContext(ctx).
		Where("tournament_id = ? AND mode = ? AND stage = ?", tournamentID, string(mode), string(stage))
	if filter.PlayerID != "" {
		q = q.Where("(player1_id = ? OR player2_id = ?)", filter.PlayerID, filter.PlayerID)
	}
	if filter.MatchNumber != 0 {
		q = q.Where("match_number = ?", filter.MatchNumber)
	}
	if filter.Completed != nil {
		q = q.Where("completed = ?", *filter.Completed)
	}

	var rows []matchRow
	if err := q.Order("match_number, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	out := make([]model.Match, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out, nil
}

func (s *GormStore) CreateMatch(ctx context.Context, m model.Match) (model.Match, error) {
	m.ID = s.opts.newID()
	m.Version = 1
	row := fromMatch(m)
	err := s.db.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return model.Match{}, fmt.Errorf("match %d: %w", m.MatchNumber, ErrMatchExists)
	}
	if err != nil {
		return model.Match{}, fmt.Errorf("create match: %w", err)
	}
	return row.toModel(), nil
}

func (s *GormStore) ConditionalUpdateMatch(ctx context.Context, id string, expectedVersion int64, patch model.MatchPatch) (model.Match, error) {
	updates := map[string]any{
		"version":    gorm.Expr("version + 1"),
		"updated_at": time.Now(),
	}
	if patch.Player1ID != nil {
		updates["player1_id"] = *patch.Player1ID
	}
	if patch.Player2ID != nil {
		updates["player2_id"] = *patch.Player2ID
	}
	if patch.Score1 != nil {
		updates["score1"] = *patch.Score1
	}
	if patch.Score2 != nil {
		updates["score2"] = *patch.Score2
	}
	if patch.Completed != nil {
		updates["completed"] = *patch.Completed
	}

	var row matchRow
	res := s.db.WithContext(ctx).Model(&row).
		Clauses(clause.Returning{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(updates)
	if res.Error != nil {
		return model.Match{}, fmt.Errorf("update match %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := s.db.WithContext(ctx).Model(&matchRow{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return model.Match{}, fmt.Errorf("check match %s: %w", id, err)
		}
		if n == 0 {
			return model.Match{}, fmt.Errorf("match %s: %w", id, ErrNotFound)
		}
		s.opts.log.Debug(ctx, "version conflict",
			logger.String("match", id),
			logger.Int64("expected", expectedVersion))
		return model.Match{}, fmt.Errorf("match %s expected version %d: %w", id, expectedVersion, ErrVersionConflict)
	}
	return row.toModel(), nil
}

func (s *GormStore) DeleteMatches(ctx context.Context, tournamentID string, mode model.Mode, stage model.Stage) (int, error) {
	res := s.db.WithContext(ctx).
		Where("tournament_id = ? AND mode = ? AND stage = ?", tournamentID, string(mode), string(stage)).
		Delete(&matchRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete matches: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

func (s *GormStore) ListQualifications(ctx context.Context, tournamentID string, mode model.Mode, group string) ([]model.Qualification, error) {
	q := s.db.WithContext(ctx).Where("tournament_id = ? AND mode = ?", tournamentID, string(mode))
	if group != "" {
		q = q.Where("group_name = ?", group)
	}
	var rows []qualificationRow
	if err := q.Order("group_name, player_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list qualifications: %w", err)
	}
	out := make([]model.Qualification, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out, nil
}

func (s *GormStore) UpsertQualificationStats(ctx context.Context, tournamentID string, mode model.Mode, playerID string, st model.Stats) error {
	row := qualificationRow{
		TournamentID: tournamentID,
		Mode:         string(mode),
		PlayerID:     playerID,
		MP:           st.MP,
		Wins:         st.Wins,
		Ties:         st.Ties,
		Losses:       st.Losses,
		WinRounds:    st.WinRounds,
		LossRounds:   st.LossRounds,
		Points:       st.Points,
		Score:        st.Score,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tournament_id"}, {Name: "mode"}, {Name: "player_id"}},
		DoUpdates: clause.AssignmentColumns(statColumns),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert stats for %s: %w", playerID, err)
	}
	return nil
}

func (s *GormStore) RegisterPlayer(ctx context.Context, q model.Qualification) error {
	if q.PlayerID == "" {
		return model.Invalid("playerId", "must not be empty")
	}
	row := qualificationRow{
		TournamentID: q.TournamentID,
		Mode:         string(q.Mode),
		PlayerID:     q.PlayerID,
		GroupName:    q.Group,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tournament_id"}, {Name: "mode"}, {Name: "player_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"group_name"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("register %s: %w", q.PlayerID, err)
	}
	return nil
}
