package scoring

import (
	"errors"

	"updown/internal/slot"
)

// ErrInvalidSlot signals a slot index outside the class's table.
var ErrInvalidSlot = errors.New("slot index out of range")

// pointsTables rewards early commitment: each table is strictly decreasing
// across slot index, one table per duration class.
var pointsTables = map[slot.Class][]int{
	slot.Hourly:    {10, 5, 2, 1},
	slot.Daily:     {20, 12, 6, 2},
	slot.Weekly:    {35, 28, 21, 14, 9, 5, 2},
	slot.Monthly:   {60, 40, 20, 8},
	slot.Quarterly: {90, 50, 20},
	slot.Yearly:    {150, 90, 45, 15},
}

// PointsForSlot returns the reward for a correct bet placed in the given
// 1-based slot.
func PointsForSlot(c slot.Class, index int) (int, error) {
	table, ok := pointsTables[c]
	if !ok {
		return 0, ErrInvalidSlot
	}
	if index < 1 || index > len(table) {
		return 0, ErrInvalidSlot
	}
	return table[index-1], nil
}

// PenaltyForSlot returns the (negative) points for an incorrect bet:
// half the potential reward rounded down, but never worse than -1.
func PenaltyForSlot(c slot.Class, index int) (int, error) {
	points, err := PointsForSlot(c, index)
	if err != nil {
		return 0, err
	}
	// floor(-points/2) for positive points.
	penalty := -((points + 1) / 2)
	if penalty > -1 {
		penalty = -1
	}
	return penalty, nil
}
