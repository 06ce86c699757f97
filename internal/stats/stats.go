// Package stats renders finger load tables and chunk curves.
package stats

import (
	"fmt"
	"io"
	"math"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/keyload/internal/layout"
	"github.com/verte-zerg/keyload/internal/model"
)

const sparkChars = " .:-=+*#%@"

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 || len(values) == 0 {
		copy(out, values)
		return out
	}
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := bounds(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// FingerValue returns the load or press counter of f in t.
func FingerValue(t model.LayoutTotals, f layout.Finger, presses bool) int {
	if !f.Valid() {
		return 0
	}
	i := f.Digit() - 1
	switch {
	case f.Hand() == layout.LeftHand && presses:
		return t.LeftPress[i]
	case f.Hand() == layout.LeftHand:
		return t.Left[i]
	case presses:
		return t.RightPress[i]
	default:
		return t.Right[i]
	}
}

// TableFingers interleaves hands: left thumb, right thumb, left index, ...
func TableFingers() []layout.Finger {
	out := make([]layout.Finger, 0, layout.FingerCount)
	for d := 1; d <= 5; d++ {
		out = append(out, layout.FingerOf(layout.LeftHand, d), layout.FingerOf(layout.RightHand, d))
	}
	return out
}

// Layouts lists the layouts present in snap, known ones in table order
// followed by any others sorted by name.
func Layouts(snap model.Snapshot) []string {
	out := make([]string, 0, len(snap))
	seen := make(map[string]bool, len(snap))
	for _, id := range layout.All() {
		if _, ok := snap[string(id)]; ok {
			out = append(out, string(id))
			seen[string(id)] = true
		}
	}
	var extra []string
	for name := range snap {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

func heading(name string) string {
	return layout.DisplayName(layout.ID(name))
}

// bestOf returns the first layout holding the minimum value.
func bestOf(names []string, values []int) string {
	best := -1
	for i, v := range values {
		if best < 0 || v < values[best] {
			best = i
		}
	}
	if best < 0 {
		return "-"
	}
	return names[best]
}

// RenderFingerLoads prints the per-finger load of every layout with the best
// layout per row, a total row and an efficiency row.
func RenderFingerLoads(w io.Writer, snap model.Snapshot) error {
	return renderFingerTable(w, "Finger Load", snap, false)
}

// RenderPresses prints the per-finger key press counts of every layout.
func RenderPresses(w io.Writer, snap model.Snapshot) error {
	return renderFingerTable(w, "Key Presses", snap, true)
}

func renderFingerTable(w io.Writer, title string, snap model.Snapshot, presses bool) error {
	names := Layouts(snap)
	if len(names) == 0 {
		_, err := fmt.Fprintln(w, "No layouts found.")
		return err
	}
	headers := []string{"Finger"}
	for _, name := range names {
		headers = append(headers, heading(name))
	}
	headers = append(headers, "Best")

	rightAlign := map[int]bool{}
	for i := range names {
		rightAlign[i+1] = true
	}

	rows := make([][]string, 0, layout.FingerCount+2)
	for _, f := range TableFingers() {
		row := []string{f.Label()}
		values := make([]int, len(names))
		for i, name := range names {
			values[i] = FingerValue(snap[name], f, presses)
			row = append(row, fmt.Sprintf("%d", values[i]))
		}
		rows = append(rows, append(row, bestOf(names, values)))
	}

	totals := make([]int, len(names))
	totalRow := []string{"Total"}
	for i, name := range names {
		if presses {
			totals[i] = snap[name].Presses()
		} else {
			totals[i] = snap[name].Load()
		}
		totalRow = append(totalRow, fmt.Sprintf("%d", totals[i]))
	}
	best := bestOf(names, totals)
	rows = append(rows, append(totalRow, best))

	bestValue := slices.Min(totals)
	effRow := []string{"Efficiency"}
	for _, v := range totals {
		effRow = append(effRow, efficiency(v, bestValue))
	}
	rows = append(rows, append(effRow, best))

	return table{
		headers:    headers,
		rows:       rows,
		rightAlign: rightAlign,
		rules:      map[int]bool{layout.FingerCount: true},
	}.write(w, title)
}

func efficiency(v, best int) string {
	if v == best {
		return "best"
	}
	if best == 0 {
		return "worse"
	}
	return fmt.Sprintf("+%.1f%%", float64(v-best)/float64(best)*100)
}

// RenderComparison prints each layout's total load relative to the
// reference layout, lowest load first.
func RenderComparison(w io.Writer, snap model.Snapshot, reference layout.ID) error {
	ranks := RankLayouts(snap)
	if len(ranks) == 0 {
		return nil
	}
	ref, ok := snap[string(reference)]
	if !ok {
		_, err := fmt.Fprintf(w, "Reference layout %s not in results.\n\n", reference)
		return err
	}
	refLoad := ref.Load()
	rows := make([][]string, 0, len(ranks))
	for i, r := range ranks {
		rel := "-"
		if refLoad > 0 {
			rel = fmt.Sprintf("%.1f%%", float64(r.Load)/float64(refLoad)*100)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			heading(r.Layout),
			fmt.Sprintf("%d", r.Load),
			rel,
		})
	}
	return table{
		headers:    []string{"#", "Layout", "Load", "vs " + heading(string(reference))},
		rows:       rows,
		rightAlign: map[int]bool{0: true, 2: true, 3: true},
	}.write(w, "Comparison")
}

// RenderFingerShare prints one layout's fingers ordered by load with their
// share of the total.
func RenderFingerShare(w io.Writer, snap model.Snapshot, id layout.ID) error {
	t, ok := snap[string(id)]
	if !ok {
		_, err := fmt.Fprintf(w, "No results for layout %s.\n\n", id)
		return err
	}
	shares := FingerShares(t, false)
	rows := make([][]string, 0, len(shares))
	for _, s := range shares {
		rows = append(rows, []string{
			s.Finger.Label(),
			fmt.Sprintf("%d", s.Value),
			fmt.Sprintf("%.1f%%", s.Percent),
		})
	}
	return table{
		headers:    []string{"Finger", "Load", "Share"},
		rows:       rows,
		rightAlign: map[int]bool{1: true, 2: true},
	}.write(w, fmt.Sprintf("Finger Share (%s)", heading(string(id))))
}

// RenderHandBalance prints left, right and hand-change counts per layout.
func RenderHandBalance(w io.Writer, snap model.Snapshot) error {
	names := Layouts(snap)
	if len(names) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		t := snap[name]
		left, right := sumLoad(t.Left), sumLoad(t.Right)
		leftPct := 0.0
		if left+right > 0 {
			leftPct = float64(left) / float64(left+right) * 100
		}
		rows = append(rows, []string{
			heading(name),
			fmt.Sprintf("%d", left),
			fmt.Sprintf("%d", right),
			fmt.Sprintf("%.1f/%.1f", leftPct, 100-leftPct),
			fmt.Sprintf("%d", t.TwoHanded),
		})
	}
	return table{
		headers:    []string{"Layout", "Left", "Right", "L/R %", "Hand changes"},
		rows:       rows,
		rightAlign: map[int]bool{1: true, 2: true, 3: true, 4: true},
	}.write(w, "Hand Balance")
}

func sumLoad(v [5]int) int {
	total := 0
	for _, n := range v {
		total += n
	}
	return total
}

// ChunkSeries turns per-chunk totals into one load series per layout,
// ordered by chunk id.
func ChunkSeries(chunks []model.ChunkTotal, window int) []Series {
	byLayout := map[string]map[int]int{}
	ids := map[int]bool{}
	for _, c := range chunks {
		if byLayout[c.Layout] == nil {
			byLayout[c.Layout] = map[int]int{}
		}
		byLayout[c.Layout][c.ChunkID] = c.Load
		ids[c.ChunkID] = true
	}
	order := make([]int, 0, len(ids))
	for id := range ids {
		order = append(order, id)
	}
	sort.Ints(order)

	snap := make(model.Snapshot, len(byLayout))
	for name := range byLayout {
		snap[name] = model.LayoutTotals{}
	}
	series := make([]Series, 0, len(byLayout))
	for _, name := range Layouts(snap) {
		values := make([]float64, len(order))
		for i, id := range order {
			values[i] = float64(byLayout[name][id])
		}
		series = append(series, Series{Name: heading(name), Values: MovingAverage(values, window)})
	}
	return series
}

// RenderChunkCurves plots the load of each chunk per layout.
func RenderChunkCurves(w io.Writer, chunks []model.ChunkTotal, window int) error {
	return RenderChunkCurvesWithSize(w, chunks, window, 0, defaultPlotHeight, false)
}

// RenderChunkCurvesWithSize plots chunk curves sized to a given total width.
func RenderChunkCurvesWithSize(w io.Writer, chunks []model.ChunkTotal, window, totalWidth, height int, useColor bool) error {
	series := ChunkSeries(chunks, window)
	if len(series) == 0 || len(series[0].Values) < 2 {
		return nil
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return Plot(w, series, PlotOptions{
		Title:  fmt.Sprintf("Load per Chunk (moving average %d)", max(window, 1)),
		Width:  width,
		Height: height,
		Color:  useColor,
	})
}

// RenderRuns lists stored runs, newest first.
func RenderRuns(w io.Writer, runs []model.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs found.")
		return err
	}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		best := "-"
		if ranks := RankLayouts(r.Totals); len(ranks) > 0 {
			best = heading(ranks[0].Layout)
		}
		rows = append(rows, []string{
			shortID(r.ID),
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.EndedAt.Sub(r.StartedAt).Round(10*time.Millisecond).String(),
			r.Strategy,
			fmt.Sprintf("%d", r.Chunks),
			best,
			r.Source,
		})
	}
	return table{
		headers:    []string{"ID", "Started", "Took", "Strategy", "Chunks", "Best", "Source"},
		rows:       rows,
		rightAlign: map[int]bool{2: true, 4: true},
	}.write(w, "")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
