package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

// Series is a named line in a plot.
type Series struct {
	Name   string
	Values []float64
}

// PlotOptions controls plot geometry. Zero width means the terminal width.
type PlotOptions struct {
	Title  string
	Width  int
	Height int
	Color  bool
}

const (
	defaultPlotHeight   = 10
	minPlotWidth        = 10
	axisSeparator       = " │ "
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
	// axisLabelWidth is the width reserved for axis labels when sizing plots.
	axisLabelWidth = 7
)

// lineStyle draws on dots whose column modulo period is below on.
type lineStyle struct {
	name   string
	period int
	on     int
}

func (ls lineStyle) draws(x int) bool {
	return ls.period <= 1 || x%ls.period < ls.on
}

var lineStyles = []lineStyle{
	{name: "solid", period: 1, on: 1},
	{name: "dashed", period: 6, on: 3},
	{name: "dotted", period: 4, on: 1},
	{name: "dashdot", period: 8, on: 3},
}

// One ANSI color per layout curve.
var palette = []string{
	"\x1b[36m",
	"\x1b[35m",
	"\x1b[33m",
	"\x1b[32m",
	"\x1b[34m",
	"\x1b[31m",
	"\x1b[37m",
}

// brailleDots maps a dot inside a 2x4 braille cell to its bit.
var brailleDots = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

// canvas is one series rasterized into braille cells.
type canvas [][]uint8

func newCanvas(height, width int) canvas {
	c := make(canvas, height)
	for y := range c {
		c[y] = make([]uint8, width)
	}
	return c
}

// dot sets the braille dot at dot coordinates (x, y).
func (c canvas) dot(x, y int) {
	row, col := y/4, x/2
	if x < 0 || y < 0 || row >= len(c) || col >= len(c[row]) {
		return
	}
	c[row][col] |= brailleDots[x%2][y%4]
}

// line rasterizes the segment between two dot coordinates.
func (c canvas) line(x0, y0, x1, y1 int, style lineStyle) {
	steps := max(absInt(x1-x0), absInt(y1-y0))
	if steps == 0 {
		if style.draws(x0) {
			c.dot(x0, y0)
		}
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := x0 + int(math.Round(t*float64(x1-x0)))
		y := y0 + int(math.Round(t*float64(y1-y0)))
		if style.draws(x) {
			c.dot(x, y)
		}
	}
}

// Plot draws all series on one shared vertical scale using braille dots.
func Plot(w io.Writer, series []Series, opts PlotOptions) error {
	var drawn []Series
	for _, s := range series {
		if len(s.Values) > 0 {
			drawn = append(drawn, s)
		}
	}
	if len(drawn) == 0 {
		return nil
	}

	height := opts.Height
	if height <= 0 {
		height = defaultPlotHeight
	}
	width := opts.Width
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	width = max(width, minPlotWidth)

	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range drawn {
		drawn[i].Values = resample(drawn[i].Values, width)
		slo, shi := bounds(drawn[i].Values)
		lo, hi = math.Min(lo, slo), math.Max(hi, shi)
	}
	if hi-lo < 1e-9 {
		lo--
		hi++
	}

	canvases := make([]canvas, len(drawn))
	for si, s := range drawn {
		c := newCanvas(height, width)
		style := lineStyles[si%len(lineStyles)]
		for x := range s.Values {
			y := dotRow(s.Values[x], lo, hi, height*4)
			if x == 0 {
				c.line(0, y, 0, y, style)
				continue
			}
			c.line((x-1)*2, dotRow(s.Values[x-1], lo, hi, height*4), x*2, y, style)
		}
		canvases[si] = c
	}

	useColor := colorEnabled(w, opts.Color)
	labels := axisLabels(height, lo, hi)
	labelWidth := 0
	for _, l := range labels {
		labelWidth = max(labelWidth, utf8.RuneCountInString(l))
	}

	if opts.Title != "" {
		if _, err := fmt.Fprintln(w, opts.Title); err != nil {
			return err
		}
	}
	for y := 0; y < height; y++ {
		var row strings.Builder
		fmt.Fprintf(&row, "%*s%s", labelWidth, labels[y], axisSeparator)
		for x := 0; x < width; x++ {
			var mask uint8
			owner := -1
			for i, c := range canvases {
				if c[y][x] != 0 && owner < 0 {
					owner = i
				}
				mask |= c[y][x]
			}
			ch := rune(0x2800 + int(mask))
			if useColor && owner >= 0 {
				row.WriteString(palette[owner%len(palette)])
				row.WriteRune(ch)
				row.WriteString(colorReset)
				continue
			}
			row.WriteRune(ch)
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, legend(drawn, useColor)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	return max(totalWidth-axisLabelWidth-utf8.RuneCountInString(axisSeparator), minPlotWidth)
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func colorEnabled(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// axisLabels labels the top, middle, and bottom rows.
func axisLabels(height int, lo, hi float64) []string {
	labels := make([]string, height)
	labels[0] = formatAxis(hi)
	if height > 2 {
		labels[height/2] = formatAxis((lo + hi) / 2)
	}
	if height > 1 {
		labels[height-1] = formatAxis(lo)
	}
	return labels
}

func formatAxis(v float64) string {
	switch a := math.Abs(v); {
	case a >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case a >= 1e4:
		return fmt.Sprintf("%.1fk", v/1e3)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

// resample fits values to width points: buckets are averaged when there are
// more chunks than columns, and neighbors interpolated when there are fewer.
func resample(values []float64, width int) []float64 {
	n := len(values)
	out := make([]float64, width)
	switch {
	case n == width:
		copy(out, values)
	case n > width:
		for i := range out {
			start := i * n / width
			end := max((i+1)*n/width, start+1)
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
	case n == 1 || width == 1:
		for i := range out {
			out[i] = values[0]
		}
	default:
		for i := range out {
			pos := float64(i) * float64(n-1) / float64(width-1)
			idx := int(pos)
			if idx >= n-1 {
				out[i] = values[n-1]
				continue
			}
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}

// bounds returns the smallest and largest value; values must not be empty.
func bounds(values []float64) (float64, float64) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	return lo, hi
}

// dotRow maps v onto dot rows, top row for hi.
func dotRow(v, lo, hi float64, rows int) int {
	if rows <= 1 {
		return 0
	}
	row := int(math.Round((1 - (v-lo)/(hi-lo)) * float64(rows-1)))
	return min(max(row, 0), rows-1)
}

func legend(series []Series, useColor bool) string {
	parts := make([]string, 0, len(series))
	for i, s := range series {
		label := s.Name + " " + lineStyles[i%len(lineStyles)].name
		if useColor {
			label = fmt.Sprintf("%s%c %s%s", palette[i%len(palette)], rune(0x2801), label, colorReset)
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
