// Package engine scores text against keyboard layouts.
//
// An Accumulator owns the counters of a single layout; an Analyzer feeds the
// same text to several accumulators in lockstep and exports their totals as a
// model.Snapshot. Nothing in this package blocks, logs, or shares state.
package engine

import (
	"github.com/verte-zerg/keyload/internal/layout"
	"github.com/verte-zerg/keyload/internal/model"
	"github.com/verte-zerg/keyload/internal/penalty"
)

// UppercaseCost is the load added to the left pinky for each capital letter.
const UppercaseCost = 2

// Step is the outcome of scoring one character pair.
type Step struct {
	// Penalty is the reported cost: base movement plus destination surcharge.
	Penalty int
	// Finger owns the destination column, or layout.NoFinger when skipped.
	Finger layout.Finger
}

// Scored reports whether both characters resolved.
func (s Step) Scored() bool {
	return s.Finger != layout.NoFinger
}

// Accumulator holds the counters for one layout.
type Accumulator struct {
	spec        layout.Spec
	load        [layout.FingerCount]int
	presses     [layout.FingerCount]int
	handChanges int
}

// NewAccumulator creates zeroed counters for layout id.
func NewAccumulator(id layout.ID) (*Accumulator, error) {
	spec, err := layout.Lookup(id)
	if err != nil {
		return nil, err
	}
	return &Accumulator{spec: spec}, nil
}

// Layout returns the layout this accumulator scores.
func (a *Accumulator) Layout() layout.ID {
	return a.spec.ID
}

// CountSteps scores the move from prev to next. Unresolved characters are
// skipped without touching any counter.
func (a *Accumulator) CountSteps(prev, next rune) Step {
	from, ok := layout.Resolve(a.spec.ID, prev)
	if !ok {
		return Step{Finger: layout.NoFinger}
	}
	to, ok := layout.Resolve(a.spec.ID, next)
	if !ok {
		return Step{Finger: layout.NoFinger}
	}

	base := penalty.Base(from, to)
	if f, load, ok := penalty.Distribute(from, to, base, to.Extra); ok {
		a.load[f] += load
	}

	dest := layout.ForColumn(to.Column)
	if layout.ForColumn(from.Column).Hand() != dest.Hand() {
		a.handChanges++
	}
	return Step{Penalty: base + to.Extra, Finger: dest}
}

// CountPress charges one key press to the finger serving r. Spaces are left
// to CountSpaces and unresolved characters are ignored.
func (a *Accumulator) CountPress(r rune) {
	if r == ' ' {
		return
	}
	c, ok := layout.Resolve(a.spec.ID, r)
	if !ok {
		return
	}
	a.presses[layout.ForColumn(c.Column)]++
}

// CountSpaces splits n space presses between the thumbs using the layout's
// ratio. Each side is truncated independently.
func (a *Accumulator) CountSpaces(n int) {
	if n <= 0 {
		return
	}
	left := int(float64(n) * a.spec.ThumbLeft)
	right := int(float64(n) * a.spec.ThumbRight)
	a.load[layout.F1L] += left
	a.load[layout.F1R] += right
	a.presses[layout.F1L] += left
	a.presses[layout.F1R] += right
}

// AddUppercasePenalty charges the left pinky for n capital letters.
func (a *Accumulator) AddUppercasePenalty(n int) {
	if n <= 0 {
		return
	}
	a.load[layout.ForColumn(0)] += n * UppercaseCost
}

// FingerLoad returns the movement load on f.
func (a *Accumulator) FingerLoad(f layout.Finger) int {
	if !f.Valid() {
		return 0
	}
	return a.load[f]
}

// TotalLoad sums all ten finger loads.
func (a *Accumulator) TotalLoad() int {
	total := 0
	for _, v := range a.load {
		total += v
	}
	return total
}

// FingerPresses returns the number of presses attributed to f.
func (a *Accumulator) FingerPresses(f layout.Finger) int {
	if !f.Valid() {
		return 0
	}
	return a.presses[f]
}

// TotalPresses sums all ten press counters.
func (a *Accumulator) TotalPresses() int {
	total := 0
	for _, v := range a.presses {
		total += v
	}
	return total
}

// HandChanges returns the number of scored pairs that switched hands.
func (a *Accumulator) HandChanges() int {
	return a.handChanges
}

// Totals exports the counters.
func (a *Accumulator) Totals() model.LayoutTotals {
	var t model.LayoutTotals
	for i := 0; i < 5; i++ {
		t.Left[i] = a.load[layout.F1L+layout.Finger(i)]
		t.Right[i] = a.load[layout.F1R+layout.Finger(i)]
		t.LeftPress[i] = a.presses[layout.F1L+layout.Finger(i)]
		t.RightPress[i] = a.presses[layout.F1R+layout.Finger(i)]
	}
	t.TwoHanded = a.handChanges
	return t
}

// Add folds exported totals back into the counters.
func (a *Accumulator) Add(t model.LayoutTotals) {
	for i := 0; i < 5; i++ {
		a.load[layout.F1L+layout.Finger(i)] += t.Left[i]
		a.load[layout.F1R+layout.Finger(i)] += t.Right[i]
		a.presses[layout.F1L+layout.Finger(i)] += t.LeftPress[i]
		a.presses[layout.F1R+layout.Finger(i)] += t.RightPress[i]
	}
	a.handChanges += t.TwoHanded
}
