package stats

import (
	"fmt"
	"io"

	"github.com/verte-zerg/keyload/internal/engine"
)

// RenderTrace prints one table per character pair with every layout's move.
func RenderTrace(w io.Writer, steps []engine.TraceStep) error {
	if len(steps) == 0 {
		_, err := fmt.Fprintln(w, "Nothing to trace.")
		return err
	}
	for i, step := range steps {
		rows := make([][]string, 0, len(step.Layouts))
		for _, move := range step.Layouts {
			penaltyCell := "-"
			if move.Found {
				penaltyCell = fmt.Sprintf("%d", move.Penalty)
			}
			rows = append(rows, []string{
				heading(string(move.Layout)),
				move.Coords(),
				move.Kind(),
				penaltyCell,
				move.Finger.String(),
				secondaryCell(move),
			})
		}
		title := fmt.Sprintf("%d. %s → %s", i+1, traceRune(step.From), traceRune(step.To))
		err := table{
			headers:    []string{"Layout", "Move", "Type", "Penalty", "Finger", "Second"},
			rows:       rows,
			rightAlign: map[int]bool{3: true},
		}.write(w, title)
		if err != nil {
			return err
		}
	}
	return nil
}

func secondaryCell(m engine.LayoutMove) string {
	if !m.Found {
		return ""
	}
	from, to := m.Movement.From.Secondary, m.Movement.To.Secondary
	switch {
	case from && to:
		return "both"
	case from:
		return "from"
	case to:
		return "to"
	}
	return ""
}

func traceRune(r rune) string {
	if r == ' ' {
		return "'␣'"
	}
	return fmt.Sprintf("'%c'", r)
}
