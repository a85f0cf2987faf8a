package bracket

import (
	"fmt"
	"strings"

	"github.com/okian/kartcup/internal/domain/model"
)

// Seed turns a topology into finals match rows. seeds[i] is the player id of
// seed i+1. First-round matches get their seeded players; every other match
// starts with placeholder slots. The caller stamps tournament and mode.
func Seed(specs []MatchSpec, seeds []string) ([]model.Match, error) {
	size := 0
	for _, s := range specs {
		size = max(size, s.Player1Seed, s.Player2Seed)
	}
	if len(seeds) != size {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSeeds,
			model.Invalid("seeds", "need exactly %d players, got %d", size, len(seeds)))
	}
	ids := make([]string, len(seeds))
	seen := make(map[string]int, len(seeds))
	for i, id := range seeds {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSeeds, model.Invalid("seeds", "seed %d is empty", i+1))
		}
		if prev, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSeeds,
				model.Invalid("seeds", "player %s is seeded at both %d and %d", id, prev, i+1))
		}
		seen[id] = i + 1
		ids[i] = id
	}

	out := make([]model.Match, 0, len(specs))
	for _, s := range specs {
		m := model.Match{
			Stage:       model.StageFinals,
			MatchNumber: s.MatchNumber,
			Round:       s.Round,
			Bracket:     s.Bracket,
		}
		if s.Player1Seed > 0 {
			m.Player1ID = ids[s.Player1Seed-1]
		}
		if s.Player2Seed > 0 {
			m.Player2ID = ids[s.Player2Seed-1]
		}
		out = append(out, m)
	}
	return out, nil
}
