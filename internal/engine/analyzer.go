package engine

import (
	"strings"
	"unicode"

	"github.com/verte-zerg/keyload/internal/layout"
	"github.com/verte-zerg/keyload/internal/model"
)

// Analyzer feeds text to one accumulator per layout.
type Analyzer struct {
	order []layout.ID
	accs  map[layout.ID]*Accumulator
}

// New creates an analyzer for ids, or for every layout when ids is empty.
func New(ids ...layout.ID) (*Analyzer, error) {
	if len(ids) == 0 {
		ids = layout.All()
	}
	a := &Analyzer{accs: make(map[layout.ID]*Accumulator, len(ids))}
	for _, id := range ids {
		if _, ok := a.accs[id]; ok {
			continue
		}
		acc, err := NewAccumulator(id)
		if err != nil {
			return nil, err
		}
		a.accs[id] = acc
		a.order = append(a.order, id)
	}
	return a, nil
}

// Layouts returns the analyzed layouts in construction order.
func (a *Analyzer) Layouts() []layout.ID {
	out := make([]layout.ID, len(a.order))
	copy(out, a.order)
	return out
}

// Accumulator returns the counters for id.
func (a *Analyzer) Accumulator(id layout.ID) (*Accumulator, bool) {
	acc, ok := a.accs[id]
	return acc, ok
}

// AnalyzeText scores one chunk. Pairs are only formed inside the chunk.
func (a *Analyzer) AnalyzeText(text string) {
	if text == "" {
		return
	}

	spaces := strings.Count(text, " ")
	for _, id := range a.order {
		a.accs[id].CountSpaces(spaces)
	}

	// Capitals are counted before filtering, Latin ones included.
	upper := 0
	for _, r := range text {
		if unicode.IsUpper(r) {
			upper++
		}
	}
	for _, id := range a.order {
		a.accs[id].AddUppercasePenalty(upper)
	}

	runes := []rune(strings.ToLower(Clean(text)))
	for i, r := range runes {
		for _, id := range a.order {
			acc := a.accs[id]
			acc.CountPress(r)
			if i > 0 {
				acc.CountSteps(runes[i-1], r)
			}
		}
	}
}

// Snapshot exports the totals of every layout.
func (a *Analyzer) Snapshot() model.Snapshot {
	out := make(model.Snapshot, len(a.order))
	for _, id := range a.order {
		out[string(id)] = a.accs[id].Totals()
	}
	return out
}

// Merge adds a partial snapshot into the analyzer. Layouts the analyzer does
// not track are ignored; layouts missing from partial contribute nothing.
func (a *Analyzer) Merge(partial model.Snapshot) {
	for name, totals := range partial {
		acc, ok := a.accs[layout.ID(name)]
		if !ok {
			continue
		}
		acc.Add(totals)
	}
}

// Clean keeps Cyrillic letters, digits, comma, whitespace, and the ASCII
// information separators.
func Clean(text string) string {
	return strings.Map(func(r rune) rune {
		if accepted(r) {
			return r
		}
		return -1
	}, text)
}

func accepted(r rune) bool {
	switch {
	case r >= 'А' && r <= 'я':
		return true
	case r == 'ё' || r == 'Ё':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == ',':
		return true
	case r >= 0x1c && r <= 0x1f:
		// File, group, record, and unit separators break pairs like whitespace.
		return true
	}
	return unicode.IsSpace(r)
}
