package engine

import (
	"strings"
	"unicode"

	"github.com/verte-zerg/keyload/internal/layout"
	"github.com/verte-zerg/keyload/internal/penalty"
)

// DefaultTraceLimit is the number of characters Trace looks at by default.
const DefaultTraceLimit = 50

// TraceStep is one character pair with its per-layout breakdown.
type TraceStep struct {
	From    rune
	To      rune
	Layouts []LayoutMove
}

// LayoutMove is how one layout scores a pair.
type LayoutMove struct {
	Layout   layout.ID
	Found    bool
	Movement penalty.Movement
	Penalty  int
	Finger   layout.Finger
}

// Coords renders the movement or "N/A".
func (m LayoutMove) Coords() string {
	if !m.Found {
		return "N/A"
	}
	return m.Movement.String()
}

// Kind renders the movement kind or "N/A".
func (m LayoutMove) Kind() string {
	if !m.Found {
		return "N/A"
	}
	return m.Movement.Label()
}

// Trace describes the movements among the first limit characters of text
// that are letters or one of " ,.". It uses fresh accumulators, so it never
// changes any analyzer state.
func Trace(text string, limit int, ids ...layout.ID) ([]TraceStep, error) {
	if limit <= 0 {
		limit = DefaultTraceLimit
	}
	if len(ids) == 0 {
		ids = layout.All()
	}
	scratch, err := New(ids...)
	if err != nil {
		return nil, err
	}

	var chars []rune
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || r == ' ' || r == ',' || r == '.' {
			chars = append(chars, r)
		}
	}
	if len(chars) > limit {
		chars = chars[:limit]
	}

	var steps []TraceStep
	for i := 1; i < len(chars); i++ {
		step := TraceStep{From: chars[i-1], To: chars[i]}
		for _, id := range scratch.order {
			move := LayoutMove{Layout: id, Finger: layout.NoFinger}
			from, okFrom := layout.Resolve(id, chars[i-1])
			to, okTo := layout.Resolve(id, chars[i])
			res := scratch.accs[id].CountSteps(chars[i-1], chars[i])
			if okFrom && okTo {
				move.Found = true
				move.Movement = penalty.Classify(from, to)
				move.Penalty = res.Penalty
				move.Finger = res.Finger
			}
			step.Layouts = append(step.Layouts, move)
		}
		steps = append(steps, step)
	}
	return steps, nil
}
