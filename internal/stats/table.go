package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// table is a header plus rows of pre-formatted cells.
type table struct {
	headers    []string
	rows       [][]string
	rightAlign map[int]bool
	// rules are row indexes preceded by a separator line.
	rules map[int]bool
}

func (t table) lines() []string {
	colCount := len(t.headers)
	for _, row := range t.rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range t.headers {
		widths[i] = displayWidth(header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if w := displayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	total := colCount - 1
	for _, w := range widths {
		total += w
	}

	lines := make([]string, 0, len(t.rows)+2)
	if len(t.headers) > 0 {
		lines = append(lines, formatRow(t.headers, widths, t.rightAlign))
		lines = append(lines, strings.Repeat("-", total))
	}
	for i, row := range t.rows {
		if t.rules[i] {
			lines = append(lines, strings.Repeat("-", total))
		}
		lines = append(lines, formatRow(row, widths, t.rightAlign))
	}
	return lines
}

func (t table) write(w io.Writer, title string) error {
	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	for _, line := range t.lines() {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	var b strings.Builder
	for i := 0; i < len(widths); i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(padCell(cell, widths[i], rightAlignCols[i]))
	}
	return strings.TrimRight(b.String(), " ")
}

func padCell(value string, width int, rightAlign bool) string {
	valueWidth := displayWidth(value)
	if valueWidth >= width {
		return value
	}
	padding := width - valueWidth
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}

// narrow keeps Cyrillic at one cell even under CJK locales.
var narrow = func() *runewidth.Condition {
	c := runewidth.NewCondition()
	c.EastAsianWidth = false
	return c
}()

func displayWidth(value string) int {
	return narrow.StringWidth(value)
}
