// Package penalty scores the movement between two keys and decides how much of
// it lands on the destination finger.
package penalty

import "github.com/verte-zerg/keyload/internal/layout"

// HomeRow is the resting row.
const HomeRow = 2

// MaxBase is the upper bound of Base.
const MaxBase = 4

// Base is the geometric cost of moving from one key to another.
func Base(from, to layout.Coordinate) int {
	rd := abs(from.Row - to.Row)
	cd := abs(from.Column - to.Column)
	switch {
	case rd == 0 && cd == 0:
		return 0
	case rd+cd == 1:
		return 1
	case rd == 1 && cd == 1:
		return 2
	case rd >= 2 || cd >= 2:
		p := rd + cd
		if to.Column == 0 || to.Column == 12 || to.Row == 0 {
			p++
		}
		return min(p, MaxBase)
	}
	return 1
}

// Total is the reported cost of a movement: the base cost plus the
// destination surcharge, and the finger that owns the destination column.
func Total(from, to layout.Coordinate) (int, layout.Finger) {
	return Base(from, to) + to.Extra, layout.ForColumn(to.Column)
}

// Distribute returns the load the movement puts on a finger. It differs from
// Total: home-row landings are cheap and horizontal reach is measured from the
// home row. ok is false when the movement adds no load.
func Distribute(from, to layout.Coordinate, penalty, extra int) (layout.Finger, int, bool) {
	if from.Column == to.Column {
		// Keys outside the finger zone (the extra column 13) carry no load.
		if to.Column < 0 || to.Column > 12 {
			return layout.NoFinger, 0, false
		}
		return layout.ForColumn(to.Column), penalty + extra, true
	}

	col := to.Column
	finger := layout.ForColumn(col)
	reach := abs(to.Row - HomeRow)

	if from.Row != to.Row {
		switch {
		case col == 5 || col == 6:
			if to.Row == HomeRow {
				return finger, 1 + extra, true
			}
			return finger, penalty + extra, true
		case col >= 1 && col <= 10:
			if to.Row == HomeRow {
				return finger, extra, true
			}
			return finger, penalty + extra, true
		case col == 11 || col == 12:
			return finger, penalty + extra, true
		}
		return layout.NoFinger, 0, false
	}

	switch {
	case col == 5 || col == 6 || col == 11:
		return finger, reach + 1 + extra, true
	case col >= 1 && col <= 10:
		return finger, reach + extra, true
	case col == 12:
		return finger, reach + 2 + extra, true
	}
	return layout.NoFinger, 0, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
