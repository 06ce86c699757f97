package stats

import (
	"fmt"
	"io"

	"github.com/verte-zerg/keyload/internal/layout"
)

// RenderLayouts lists the supported layouts with their thumb split.
func RenderLayouts(w io.Writer) error {
	var rows [][]string
	for _, id := range layout.All() {
		spec, err := layout.Lookup(id)
		if err != nil {
			return err
		}
		keys := "single"
		if spec.TwoCharKeys {
			keys = fmt.Sprintf("two-char (+%d)", layout.SecondaryPenalty)
		}
		rows = append(rows, []string{
			string(id),
			spec.Name,
			fmt.Sprintf("%.0f/%.0f", spec.ThumbLeft*100, spec.ThumbRight*100),
			keys,
		})
	}
	return table{
		headers: []string{"ID", "Name", "Thumbs L/R", "Keys"},
		rows:    rows,
	}.write(w, "")
}
