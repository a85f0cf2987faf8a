// Package points maps finals placements to tournament points.
package points

import "github.com/okian/kartcup/internal/domain/model"

// MaxPosition is the last placement that earns points.
const MaxPosition = 24

// Range is a span of placements sharing one point value, e.g. 5th-6th.
type Range struct {
	Start int
	End   int
}

// Single reports whether the range covers one placement.
func (r Range) Single() bool { return r.Start == r.End }

// ungrouped is used where finals produce a strict individual order.
var ungrouped = [MaxPosition]int{
	50, 45, 41, 38, 35, 32, 30, 28, 26, 24, 22, 20,
	18, 16, 14, 12, 10, 8, 6, 5, 4, 3, 2, 1,
}

type band struct {
	Range
	points int
}

// grouped is shared by the double-elimination modes, where players knocked
// out in the same round share a placement.
var grouped = [...]band{
	{Range{1, 1}, 50},
	{Range{2, 2}, 45},
	{Range{3, 3}, 40},
	{Range{4, 4}, 36},
	{Range{5, 6}, 32},
	{Range{7, 8}, 28},
	{Range{9, 12}, 24},
	{Range{13, 16}, 20},
	{Range{17, 24}, 16},
}

// Grouped reports whether mode uses the shared-placement table.
func Grouped(mode model.Mode) bool {
	return mode != model.TimeAttack
}

// FinalsPoints returns the points for a 1-based placement, or 0 when the
// placement is outside the table.
func FinalsPoints(mode model.Mode, position int) int {
	if position < 1 || position > MaxPosition {
		return 0
	}
	if !Grouped(mode) {
		return ungrouped[position-1]
	}
	for _, b := range grouped {
		if position <= b.End {
			return b.points
		}
	}
	return 0
}

// PlacementRange returns the placements sharing position's point value.
func PlacementRange(mode model.Mode, position int) (Range, bool) {
	if position < 1 || position > MaxPosition {
		return Range{}, false
	}
	if !Grouped(mode) {
		return Range{position, position}, true
	}
	for _, b := range grouped {
		if position <= b.End {
			return b.Range, true
		}
	}
	return Range{}, false
}
