package bracket

import (
	"errors"
	"fmt"

	"github.com/dominikbraun/graph"

	"github.com/okian/kartcup/internal/domain/model"
)

type slotKey struct {
	match int
	slot  int
}

// Validate checks that specs form a playable double-elimination DAG: unique
// match numbers, no dangling or cyclic pointers, a winner target on every
// match before the grand final, and every unseeded slot fed exactly once.
func Validate(specs []MatchSpec) error {
	_, err := buildGraph(specs)
	return err
}

// Order returns match numbers in an order where every match comes after the
// matches that feed it. Ties are broken by match number.
func Order(specs []MatchSpec) ([]int, error) {
	g, err := buildGraph(specs)
	if err != nil {
		return nil, err
	}
	return graph.StableTopologicalSort(g, func(a, b int) bool { return a < b })
}

func buildGraph(specs []MatchSpec) (graph.Graph[int, MatchSpec], error) {
	g := graph.New(func(s MatchSpec) int { return s.MatchNumber }, graph.Directed(), graph.PreventCycles())

	var final, reset int
	for _, s := range specs {
		if err := g.AddVertex(s); err != nil {
			if errors.Is(err, graph.ErrVertexAlreadyExists) {
				return nil, fmt.Errorf("%w: match %d defined twice", ErrInvalidTopology, s.MatchNumber)
			}
			return nil, fmt.Errorf("%w: %v", ErrInvalidTopology, err)
		}
		switch s.Round {
		case model.GrandFinalRound:
			final = s.MatchNumber
		case model.GrandFinalReset:
			reset = s.MatchNumber
		}
	}
	if final == 0 || reset == 0 {
		return nil, fmt.Errorf("%w: grand final and reset are both required", ErrInvalidTopology)
	}

	fed := make(map[slotKey]int)
	link := func(from, to, slot int, kind string) error {
		if err := g.AddEdge(from, to); err != nil {
			switch {
			case errors.Is(err, graph.ErrVertexNotFound):
				return fmt.Errorf("%w: match %d %s target %d does not exist", ErrInvalidTopology, from, kind, to)
			case errors.Is(err, graph.ErrEdgeCreatesCycle):
				return fmt.Errorf("%w: match %d -> %d creates a cycle", ErrInvalidTopology, from, to)
			}
			return fmt.Errorf("%w: match %d -> %d: %v", ErrInvalidTopology, from, to, err)
		}
		if slot != 1 && slot != 2 {
			return fmt.Errorf("%w: match %d %s slot %d", ErrInvalidTopology, from, kind, slot)
		}
		k := slotKey{to, slot}
		if prev, taken := fed[k]; taken {
			return fmt.Errorf("%w: match %d slot %d fed by both %d and %d", ErrInvalidTopology, to, slot, prev, from)
		}
		fed[k] = from
		return nil
	}

	for _, s := range specs {
		if s.Round == model.GrandFinalRound || s.Round == model.GrandFinalReset {
			continue
		}
		if s.WinnerGoesTo == 0 {
			return nil, fmt.Errorf("%w: match %d has no winner target", ErrInvalidTopology, s.MatchNumber)
		}
		if err := link(s.MatchNumber, s.WinnerGoesTo, s.Position, "winner"); err != nil {
			return nil, err
		}
		if s.Bracket == model.WinnersBracket {
			if s.LoserGoesTo == 0 {
				return nil, fmt.Errorf("%w: winners match %d has no loser target", ErrInvalidTopology, s.MatchNumber)
			}
			if err := link(s.MatchNumber, s.LoserGoesTo, LoserSlot(s), "loser"); err != nil {
				return nil, err
			}
		}
	}
	if err := g.AddEdge(final, reset); err != nil {
		return nil, fmt.Errorf("%w: grand final -> reset: %v", ErrInvalidTopology, err)
	}

	for _, s := range specs {
		if s.Seeded() || s.Round == model.GrandFinalReset {
			continue
		}
		for slot := 1; slot <= 2; slot++ {
			if _, ok := fed[slotKey{s.MatchNumber, slot}]; !ok {
				return nil, fmt.Errorf("%w: match %d slot %d is never filled", ErrInvalidTopology, s.MatchNumber, slot)
			}
		}
	}
	return g, nil
}
