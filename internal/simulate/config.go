package simulate

import (
	"fmt"
	"time"

	service "github.com/okian/kartcup/internal/app"
	"github.com/okian/kartcup/internal/domain/model"
	"github.com/okian/kartcup/internal/domain/rules"
)

// Config holds configuration for a simulated tournament.
type Config struct {
	Tournament   string     // tournament id used for every row
	Mode         model.Mode // bracket mode to play
	Players      []string   // seeds, top seed first; defaults to p1..p8
	FinalsTarget int        // first-to target of each finals match
	Reporters    int        // concurrent clients reporting each result
	Seed         uint64     // RNG seed; the same seed plays the same tournament
	Verbose      bool       // log every reported match
}

// Report summarizes a simulated tournament.
type Report struct {
	Champion      string
	MatchesPlayed int
	ResetPlayed   bool
	Reports       int // score reports sent, duplicates included
	Rejected      int // reports that lost to concurrent writers for good
	Standings     []service.FinalsStanding
	Duration      time.Duration
}

// Defaults.
const (
	DefaultTournament = "sim"
	DefaultReporters  = 2
	defaultPlayers    = 8
)

func (c *Config) withDefaults() error {
	if c.Tournament == "" {
		c.Tournament = DefaultTournament
	}
	if c.Mode == "" {
		c.Mode = model.BattleMode
	}
	if _, err := model.ParseMode(string(c.Mode)); err != nil {
		return err
	}
	if len(c.Players) == 0 {
		c.Players = make([]string, defaultPlayers)
		for i := range c.Players {
			c.Players[i] = fmt.Sprintf("p%d", i+1)
		}
	}
	if c.FinalsTarget <= 0 {
		c.FinalsTarget = rules.DefaultFinalsTarget
	}
	if c.Reporters <= 0 {
		c.Reporters = DefaultReporters
	}
	return nil
}
