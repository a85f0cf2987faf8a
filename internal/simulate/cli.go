package simulate

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// ShowHelp prints usage information for kart-sim.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`kart-sim
========

Plays a seeded double-elimination finals bracket end to end, reporting every
result from several concurrent clients.

Usage:
  go run ./cmd/kart-sim [options]

Options:
  -mode string
        Bracket mode: bm, mr or gp (default "bm")
  -players string
        Comma-separated seeds, top seed first (default p1..p8)
  -target int
        First-to target of each finals match (default 5)
  -reporters int
        Concurrent clients reporting each result (default 2)
  -seed uint
        RNG seed (default 1)
  -database-url string
        Play against postgres instead of memory
  -verbose
        Log every match
  -help
        Show this help message

Examples:
  go run ./cmd/kart-sim -mode gp -target 3 -seed 7
  go run ./cmd/kart-sim -reporters 8 -verbose
`)
}

// SplitPlayers parses a comma-separated seed list.
func SplitPlayers(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Print writes a human-readable summary of rep to w.
func Print(w io.Writer, rep Report) {
	_, _ = fmt.Fprintf(w, "champion: %s\n", rep.Champion)
	_, _ = fmt.Fprintf(w, "matches played: %d (reset played: %t)\n", rep.MatchesPlayed, rep.ResetPlayed)
	_, _ = fmt.Fprintf(w, "reports sent: %d, rejected: %d\n", rep.Reports, rep.Rejected)
	_, _ = fmt.Fprintf(w, "duration: %s\n\n", rep.Duration)
	for _, s := range rep.Standings {
		place := fmt.Sprintf("%d", s.Place.Start)
		if !s.Place.Single() {
			place = fmt.Sprintf("%d-%d", s.Place.Start, s.Place.End)
		}
		_, _ = fmt.Fprintf(w, "%-6s %-12s %3d pts\n", place, s.PlayerID, s.Points)
	}
}
