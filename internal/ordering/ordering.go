// Package ordering holds the position arithmetic behind a page's block order.
//
// Positions are sparse integers. New blocks are spaced Step apart at the end
// of a list and take the integer midpoint when inserted between two
// neighbors. When two neighbors are adjacent integers the whole list is
// renumbered to uniform Step spacing.
package ordering

import "blockpage/internal/domain"

const (
	// Step is the spacing between positions at list boundaries and after a reindex.
	Step int64 = 1000
	// ReindexOffset is the minimum temporary shift applied during a reindex.
	ReindexOffset int64 = 1_000_000
	// Sentinel is the temporary position a moving block holds mid-swap.
	// Real positions are always positive.
	Sentinel int64 = -1
)

// Append returns the position for a block appended after maxPos. hasAny is
// false for an empty list, in which case maxPos is ignored.
func Append(maxPos int64, hasAny bool) int64 {
	if !hasAny {
		return Step
	}
	return maxPos + Step
}

// Between returns the integer midpoint of prev and next. ok is false when no
// integer lies strictly between them.
func Between(prev, next int64) (pos int64, ok bool) {
	if next-prev <= 1 {
		return 0, false
	}
	return prev + (next-prev)/2, true
}

// AfterReindex returns the insert position following a reindexed reference
// block. The successor is exactly Step away, so half a step always fits.
func AfterReindex(refPos int64) int64 {
	return refPos + Step/2
}

// Assignment is one row of a reindex plan.
type Assignment struct {
	ID       int64
	Position int64
}

// Renumber assigns (rank+1)*Step to each id in the given order and returns
// the plan together with an id to position map.
func Renumber(ids []int64) ([]Assignment, map[int64]int64) {
	plan := make([]Assignment, len(ids))
	byID := make(map[int64]int64, len(ids))
	for i, id := range ids {
		pos := int64(i+1) * Step
		plan[i] = Assignment{ID: id, Position: pos}
		byID[id] = pos
	}
	return plan, byID
}

// ShiftOffset returns the amount every position is shifted by before a
// reindex of n blocks whose largest position is maxPos. Shifted positions
// stay above both maxPos and n*Step, so neither the original rows nor the
// reassigned ones can collide with a shifted row.
func ShiftOffset(maxPos int64, n int) int64 {
	top := int64(n) * Step
	if maxPos > top {
		top = maxPos
	}
	return ReindexOffset + top + 1
}

// Canonical reports whether a sorts before b in display order: position
// ascending, then id ascending.
func Canonical(a, b domain.Block) bool {
	if a.Position != b.Position {
		return a.Position < b.Position
	}
	return a.ID < b.ID
}
