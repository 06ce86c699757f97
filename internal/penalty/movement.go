package penalty

import (
	"fmt"

	"github.com/verte-zerg/keyload/internal/layout"
)

// Kind classifies a movement for trace output.
type Kind int

// Movement kinds.
const (
	SameKey Kind = iota
	Vertical
	Horizontal
	Diagonal
	Complex
	Simple
)

// Movement describes one scored pair.
type Movement struct {
	From layout.Coordinate
	To   layout.Coordinate
	Kind Kind
	Base int
	// Span is the Manhattan distance capped at MaxBase, without edge surcharges.
	Span int
}

// Classify describes the movement between two coordinates.
func Classify(from, to layout.Coordinate) Movement {
	m := Movement{From: from, To: to, Base: Base(from, to)}
	rd := abs(from.Row - to.Row)
	cd := abs(from.Column - to.Column)
	m.Span = min(rd+cd, MaxBase)
	switch {
	case rd == 0 && cd == 0:
		m.Kind = SameKey
	case rd == 1 && cd == 0:
		m.Kind = Vertical
	case rd == 0 && cd == 1:
		m.Kind = Horizontal
	case rd == 1 && cd == 1:
		m.Kind = Diagonal
	case rd >= 2 || cd >= 2:
		m.Kind = Complex
	default:
		m.Kind = Simple
	}
	return m
}

// String renders the movement as "(r,c)→(r,c)".
func (m Movement) String() string {
	return fmt.Sprintf("(%d,%d)→(%d,%d)", m.From.Row, m.From.Column, m.To.Row, m.To.Column)
}

// Label names the movement kind with its base cost.
func (m Movement) Label() string {
	switch m.Kind {
	case SameKey:
		return "same key"
	case Vertical:
		return "vertical (1)"
	case Horizontal:
		return "horizontal (1)"
	case Diagonal:
		return "diagonal (2)"
	case Complex:
		return fmt.Sprintf("complex (%d)", m.Span)
	default:
		return "simple (1)"
	}
}
