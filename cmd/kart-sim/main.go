package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/kartcup/internal/adapters/repository"
	"github.com/okian/kartcup/internal/domain/model"
	"github.com/okian/kartcup/internal/simulate"
	"github.com/okian/kartcup/pkg/logger"
)

const defaultRunTimeout = 2 * time.Minute

func main() {
	var (
		mode        = flag.String("mode", string(model.BattleMode), "Bracket mode: bm, mr or gp")
		players     = flag.String("players", "", "Comma-separated seeds, top seed first")
		target      = flag.Int("target", 0, "First-to target of each finals match")
		reporters   = flag.Int("reporters", simulate.DefaultReporters, "Concurrent clients reporting each result")
		seed        = flag.Uint64("seed", 1, "RNG seed")
		tournament  = flag.String("tournament", simulate.DefaultTournament, "Tournament id")
		databaseURL = flag.String("database-url", "", "Play against postgres instead of memory")
		logFormat   = flag.String("log-format", "text", "Log format: text or json")
		verbose     = flag.Bool("verbose", false, "Log every match")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulate.ShowHelp()
		return
	}

	if err := logger.InitWith(os.Stderr, *logFormat); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()
	if !*verbose {
		_ = logger.SetLevelString("warn")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	opts := []simulate.Option{simulate.WithLogger(log.Named("simulate"))}
	if *databaseURL != "" {
		db, err := repository.OpenPostgres(*databaseURL)
		if err != nil {
			log.Error(ctx, "failed to open database", logger.Error(err))
			os.Exit(1)
		}
		store, err := repository.NewGormStore(ctx, db)
		if err != nil {
			log.Error(ctx, "failed to prepare database", logger.Error(err))
			os.Exit(1)
		}
		opts = append(opts, simulate.WithStore(store))
	}

	rep, err := simulate.Run(ctx, simulate.Config{
		Tournament:   *tournament,
		Mode:         model.Mode(*mode),
		Players:      simulate.SplitPlayers(*players),
		FinalsTarget: *target,
		Reporters:    *reporters,
		Seed:         *seed,
		Verbose:      *verbose,
	}, opts...)
	if err != nil {
		log.Error(ctx, "simulation failed", logger.Error(err))
		os.Exit(1)
	}
	simulate.Print(os.Stdout, rep)
}
