package layout

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"
)

// Coordinate is the key position a character resolves to.
type Coordinate struct {
	Row    int
	Column int
	// Secondary is set when the character is the second one on a two-character key.
	Secondary bool
	// Extra is the additional cost of reaching the character.
	Extra int
}

var (
	indexOnce sync.Once
	index     map[ID]map[rune]Coordinate
)

func buildIndex() {
	index = make(map[ID]map[rune]Coordinate, len(specs))
	for _, s := range specs {
		m := make(map[rune]Coordinate)
		for _, slot := range keySlots {
			raw := slot.chars[s.column]
			if s.TwoCharKeys {
				addTwoChar(m, slot, raw)
				continue
			}
			for _, r := range raw {
				if _, ok := m[r]; !ok {
					m[r] = Coordinate{Row: slot.Row, Column: slot.Column}
				}
			}
		}
		index[s.ID] = m
	}
}

// addTwoChar indexes a padded "primary[secondary]" cell. Padding is stripped,
// so a blank cell contributes nothing.
func addTwoChar(m map[rune]Coordinate, slot KeySlot, raw string) {
	cell := []rune(strings.TrimSpace(raw))
	switch len(cell) {
	case 1:
		if _, ok := m[cell[0]]; !ok {
			m[cell[0]] = Coordinate{Row: slot.Row, Column: slot.Column}
		}
	case 2:
		if _, ok := m[cell[0]]; !ok {
			m[cell[0]] = Coordinate{Row: slot.Row, Column: slot.Column}
		}
		if _, ok := m[cell[1]]; !ok {
			m[cell[1]] = Coordinate{Row: slot.Row, Column: slot.Column, Secondary: true, Extra: SecondaryPenalty}
		}
	}
}

// Resolve finds the key that produces ch in layout id. The first matching key
// in table order wins.
func Resolve(id ID, ch rune) (Coordinate, bool) {
	indexOnce.Do(buildIndex)
	m, ok := index[id]
	if !ok {
		return Coordinate{}, false
	}
	c, ok := m[ch]
	return c, ok
}

// Validate checks the static table. It is run once at startup.
func Validate() error {
	seenLayouts := make(map[ID]struct{}, len(specs))
	for i, s := range specs {
		if s.column != i {
			return fmt.Errorf("layout %s: column %d out of order", s.ID, s.column)
		}
		if _, ok := seenLayouts[s.ID]; ok {
			return fmt.Errorf("layout %s: duplicate id", s.ID)
		}
		seenLayouts[s.ID] = struct{}{}
		if s.ThumbLeft < 0 || s.ThumbRight < 0 || s.ThumbLeft+s.ThumbRight > 1 {
			return fmt.Errorf("layout %s: invalid thumb split %.2f/%.2f", s.ID, s.ThumbLeft, s.ThumbRight)
		}
	}

	seenKeys := make(map[string]struct{}, len(keySlots))
	for _, slot := range keySlots {
		if _, ok := seenKeys[slot.PhysicalID]; ok {
			return fmt.Errorf("key %s: duplicate physical id", slot.PhysicalID)
		}
		seenKeys[slot.PhysicalID] = struct{}{}
		if slot.Row < 0 || slot.Row > 3 || slot.Column < 0 || slot.Column > 13 {
			return fmt.Errorf("key %s: position (%d,%d) out of range", slot.PhysicalID, slot.Row, slot.Column)
		}
		for _, s := range specs {
			if !s.TwoCharKeys {
				continue
			}
			if n := utf8.RuneCountInString(strings.TrimSpace(slot.chars[s.column])); n > 2 {
				return fmt.Errorf("key %s: layout %s cell has %d characters", slot.PhysicalID, s.ID, n)
			}
		}
	}
	return nil
}
