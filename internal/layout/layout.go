// Package layout holds the static keyboard table and resolves characters to key coordinates.
package layout

import (
	"errors"
	"fmt"
	"strings"
)

// ID names one supported layout.
type ID string

// Supported layouts.
const (
	Diktor   ID = "diktor"
	Qwer     ID = "qwer"
	Vyzov    ID = "vyzov"
	Ant      ID = "ant"
	Skoropis ID = "skoropis"
	Rusphone ID = "rusphone"
	Zubachew ID = "zubachew"
)

// ErrUnknownLayout is returned when a layout name is not in the table.
var ErrUnknownLayout = errors.New("unknown layout")

// SecondaryPenalty is added to the destination of a movement that lands on the
// second character of a two-character key.
const SecondaryPenalty = 4

// Spec describes how a layout is read from the key table and how it splits
// space presses between thumbs.
type Spec struct {
	ID   ID
	Name string
	// ThumbLeft and ThumbRight are the share of spaces typed by each thumb.
	ThumbLeft  float64
	ThumbRight float64
	// TwoCharKeys marks layouts whose keys carry a primary and a secondary
	// character; the secondary one costs SecondaryPenalty extra.
	TwoCharKeys bool

	column int
}

// layoutCount is the width of the per-key character array in the table.
const layoutCount = 7

var specs = [layoutCount]Spec{
	{ID: Diktor, Name: "Диктор", ThumbLeft: 0.55, ThumbRight: 0.45, column: 0},
	{ID: Qwer, Name: "ЙЦУКЕН", ThumbLeft: 0.6, ThumbRight: 0.4, column: 1},
	{ID: Vyzov, Name: "Вызов", ThumbLeft: 0.5, ThumbRight: 0.5, TwoCharKeys: true, column: 2},
	{ID: Ant, Name: "Ант", ThumbLeft: 0.5, ThumbRight: 0.5, column: 3},
	{ID: Skoropis, Name: "Скоропись", ThumbLeft: 0.5, ThumbRight: 0.5, column: 4},
	{ID: Rusphone, Name: "Русфон", ThumbLeft: 0.5, ThumbRight: 0.5, column: 5},
	{ID: Zubachew, Name: "Зубачёв", ThumbLeft: 0.5, ThumbRight: 0.5, column: 6},
}

// All returns every supported layout in table order.
func All() []ID {
	ids := make([]ID, 0, len(specs))
	for _, s := range specs {
		ids = append(ids, s.ID)
	}
	return ids
}

// Lookup returns the layout definition for id.
func Lookup(id ID) (Spec, error) {
	for _, s := range specs {
		if s.ID == id {
			return s, nil
		}
	}
	return Spec{}, fmt.Errorf("%w: %q", ErrUnknownLayout, string(id))
}

// Parse normalizes a user-supplied layout name.
func Parse(name string) (ID, error) {
	id := ID(strings.ToLower(strings.TrimSpace(name)))
	if _, err := Lookup(id); err != nil {
		return "", err
	}
	return id, nil
}

// ParseList parses a comma-separated layout list. Empty input selects all layouts.
func ParseList(input string) ([]ID, error) {
	input = strings.TrimSpace(input)
	if input == "" || strings.EqualFold(input, "all") {
		return All(), nil
	}
	seen := make(map[ID]struct{})
	var ids []ID
	for _, part := range strings.Split(input, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		id, err := Parse(part)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("layout list is empty")
	}
	return ids, nil
}

// DisplayName returns the human-readable layout name, or the id itself when unknown.
func DisplayName(id ID) string {
	s, err := Lookup(id)
	if err != nil {
		return string(id)
	}
	return s.Name
}
