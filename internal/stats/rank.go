package stats

import (
	"sort"

	"github.com/verte-zerg/keyload/internal/layout"
	"github.com/verte-zerg/keyload/internal/model"
)

// Ranking is one layout's position by total load.
type Ranking struct {
	Layout string
	Load   int
}

// RankLayouts orders layouts by total load, lowest first. Ties keep table order.
func RankLayouts(snap model.Snapshot) []Ranking {
	names := Layouts(snap)
	out := make([]Ranking, 0, len(names))
	for _, name := range names {
		out = append(out, Ranking{Layout: name, Load: snap[name].Load()})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Load < out[j].Load
	})
	return out
}

// Share is a finger's counter and its percentage of the layout total.
type Share struct {
	Finger  layout.Finger
	Value   int
	Percent float64
}

// FingerShares returns all ten fingers ordered by descending value.
func FingerShares(t model.LayoutTotals, presses bool) []Share {
	total := t.Load()
	if presses {
		total = t.Presses()
	}
	out := make([]Share, 0, layout.FingerCount)
	for _, f := range layout.Fingers() {
		v := FingerValue(t, f, presses)
		pct := 0.0
		if total > 0 {
			pct = float64(v) / float64(total) * 100
		}
		out = append(out, Share{Finger: f, Value: v, Percent: pct})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value > out[j].Value
	})
	return out
}
