package engine

import (
	"reflect"
	"strings"
	"testing"

	"github.com/verte-zerg/keyload/internal/layout"
	"github.com/verte-zerg/keyload/internal/model"
)

func newAccumulator(t *testing.T, id layout.ID) *Accumulator {
	t.Helper()
	acc, err := NewAccumulator(id)
	if err != nil {
		t.Fatalf("NewAccumulator(%s): %v", id, err)
	}
	return acc
}

func newAnalyzer(t *testing.T, ids ...layout.ID) *Analyzer {
	t.Helper()
	a, err := New(ids...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestCountStepsDiagonal(t *testing.T) {
	acc := newAccumulator(t, layout.Diktor)
	step := acc.CountSteps('а', 'б')
	if step.Penalty != 2 || step.Finger != layout.F2R {
		t.Fatalf("unexpected step: %+v", step)
	}
	if acc.FingerLoad(layout.F2R) != 2 || acc.TotalLoad() != 2 {
		t.Fatalf("unexpected load: f2r=%d total=%d", acc.FingerLoad(layout.F2R), acc.TotalLoad())
	}
	if acc.TotalPresses() != 0 {
		t.Fatalf("pairs must not count presses, got %d", acc.TotalPresses())
	}
	if acc.HandChanges() != 1 {
		t.Fatalf("expected a hand change, got %d", acc.HandChanges())
	}
}

func TestCountStepsHomeLandingIsFree(t *testing.T) {
	acc := newAccumulator(t, layout.Diktor)
	// ь (1,2) -> е (2,3): diagonal, reported 2, distributed 0.
	step := acc.CountSteps('ь', 'е')
	if step.Penalty != 2 || step.Finger != layout.F3L {
		t.Fatalf("unexpected step: %+v", step)
	}
	if acc.TotalLoad() != 0 {
		t.Fatalf("expected no distributed load, got %d", acc.TotalLoad())
	}
}

func TestCountStepsSecondaryCharacter(t *testing.T) {
	acc := newAccumulator(t, layout.Vyzov)
	step := acc.CountSteps('е', 'э')
	if step.Penalty != 4 || step.Finger != layout.F3L {
		t.Fatalf("unexpected step: %+v", step)
	}
	if acc.FingerLoad(layout.F3L) != 4 {
		t.Fatalf("expected surcharge on f3l, got %d", acc.FingerLoad(layout.F3L))
	}
	back := acc.CountSteps('э', 'е')
	if back.Penalty != 0 {
		t.Fatalf("origin surcharge must not count, got %d", back.Penalty)
	}
}

func TestCountStepsUnknownIsNoop(t *testing.T) {
	for _, id := range layout.All() {
		acc := newAccumulator(t, id)
		for _, pair := range [][2]rune{{'q', 'а'}, {'а', 'q'}, {'\n', 'о'}} {
			step := acc.CountSteps(pair[0], pair[1])
			if step.Scored() || step.Penalty != 0 || step.Finger.String() != "N/A" {
				t.Fatalf("%s: expected skipped step for %q, got %+v", id, string(pair[:]), step)
			}
		}
		if acc.Totals() != (model.LayoutTotals{}) {
			t.Fatalf("%s: counters changed: %+v", id, acc.Totals())
		}
	}
}

func TestCountStepsSameCharacterIsFree(t *testing.T) {
	for _, id := range layout.All() {
		for _, slot := range layout.Slots() {
			for _, r := range slot.Chars(id) {
				c, ok := layout.Resolve(id, r)
				if !ok || c.Secondary {
					continue
				}
				acc := newAccumulator(t, id)
				if step := acc.CountSteps(r, r); step.Penalty != 0 {
					t.Fatalf("%s: CountSteps(%q,%q) = %d", id, r, r, step.Penalty)
				}
			}
		}
	}
}

func TestCountPress(t *testing.T) {
	acc := newAccumulator(t, layout.Diktor)
	acc.CountPress('а')
	acc.CountPress('б')
	acc.CountPress('q')
	acc.CountPress('\n')
	if acc.FingerPresses(layout.F2L) != 1 || acc.FingerPresses(layout.F2R) != 1 || acc.TotalPresses() != 2 {
		t.Fatalf("unexpected presses: f2l=%d f2r=%d total=%d",
			acc.FingerPresses(layout.F2L), acc.FingerPresses(layout.F2R), acc.TotalPresses())
	}
	if acc.TotalLoad() != 0 {
		t.Fatalf("presses must not add load, got %d", acc.TotalLoad())
	}

	q := newAccumulator(t, layout.Qwer)
	q.CountPress(' ')
	if q.TotalPresses() != 0 {
		t.Fatalf("space must be left to the thumbs, got %d presses", q.TotalPresses())
	}
}

func TestCountSpaces(t *testing.T) {
	acc := newAccumulator(t, layout.Qwer)
	acc.CountSpaces(10)
	if acc.FingerLoad(layout.F1L) != 6 || acc.FingerLoad(layout.F1R) != 4 {
		t.Fatalf("unexpected thumbs: %d/%d", acc.FingerLoad(layout.F1L), acc.FingerLoad(layout.F1R))
	}

	d := newAccumulator(t, layout.Diktor)
	d.CountSpaces(3)
	if d.FingerLoad(layout.F1L) != 1 || d.FingerLoad(layout.F1R) != 1 {
		t.Fatalf("expected truncation, got %d/%d", d.FingerLoad(layout.F1L), d.FingerLoad(layout.F1R))
	}

	v := newAccumulator(t, layout.Vyzov)
	v.CountSpaces(1)
	if v.TotalLoad() != 0 {
		t.Fatalf("expected a single space to truncate to zero, got %d", v.TotalLoad())
	}
}

func TestAddUppercasePenalty(t *testing.T) {
	acc := newAccumulator(t, layout.Ant)
	acc.AddUppercasePenalty(3)
	if acc.FingerLoad(layout.F5L) != 6 || acc.TotalLoad() != 6 {
		t.Fatalf("unexpected uppercase load: %d", acc.FingerLoad(layout.F5L))
	}
}

func TestAnalyzeTextWithSpace(t *testing.T) {
	a := newAnalyzer(t, layout.Diktor)
	a.AnalyzeText("а б")
	got := a.Snapshot()["diktor"]
	// а(2,5) -> space(0,0) lands on column 0 and adds no load;
	// space(0,0) -> б(3,6) is a complex move worth 4 on f2r.
	// The single space truncates to zero thumb presses and is never a
	// pinky press.
	want := model.LayoutTotals{
		Right:      [5]int{0, 4, 0, 0, 0},
		TwoHanded:  1,
		LeftPress:  [5]int{0, 1, 0, 0, 0},
		RightPress: [5]int{0, 1, 0, 0, 0},
	}
	if got != want {
		t.Fatalf("unexpected totals:\n got %+v\nwant %+v", got, want)
	}
}

func TestAnalyzeTextCountsEveryPress(t *testing.T) {
	a := newAnalyzer(t)
	a.AnalyzeText("я\nя")
	for name, totals := range a.Snapshot() {
		if totals.Presses() != 2 {
			t.Fatalf("%s: expected 2 presses, got %d", name, totals.Presses())
		}
		if totals.Load() != 0 || totals.TwoHanded != 0 {
			t.Fatalf("%s: a newline must break the pair: %+v", name, totals)
		}
	}
}

func TestAnalyzeTextSeparatorsBreakPairs(t *testing.T) {
	a := newAnalyzer(t, layout.Diktor)
	a.AnalyzeText("а\x1fб")
	got := a.Snapshot()["diktor"]
	want := model.LayoutTotals{
		LeftPress:  [5]int{0, 1, 0, 0, 0},
		RightPress: [5]int{0, 1, 0, 0, 0},
	}
	if got != want {
		t.Fatalf("unexpected totals:\n got %+v\nwant %+v", got, want)
	}
	if Clean("а\x1c\x1d\x1e\x1fб") != "а\x1c\x1d\x1e\x1fб" {
		t.Fatalf("separators must survive Clean")
	}
}

func TestAnalyzeTextDropsUnsupportedCharacters(t *testing.T) {
	a := newAnalyzer(t)
	a.AnalyzeText("аqбwz")
	b := newAnalyzer(t)
	b.AnalyzeText("аб")
	if !reflect.DeepEqual(a.Snapshot(), b.Snapshot()) {
		t.Fatalf("latin letters changed the result:\n%+v\n%+v", a.Snapshot(), b.Snapshot())
	}

	c := newAnalyzer(t)
	c.AnalyzeText("Hello World")
	want := model.LayoutTotals{Left: [5]int{0, 0, 0, 0, 2 * UppercaseCost}}
	for name, totals := range c.Snapshot() {
		if totals != want {
			t.Fatalf("%s: expected only the uppercase penalty, got %+v", name, totals)
		}
	}
}

func TestAnalyzeTextUppercase(t *testing.T) {
	a := newAnalyzer(t, layout.Qwer)
	a.AnalyzeText("ЯЯ")
	acc, _ := a.Accumulator(layout.Qwer)
	if acc.FingerLoad(layout.F5L) != 2*UppercaseCost {
		t.Fatalf("expected uppercase penalty, got %d", acc.FingerLoad(layout.F5L))
	}

	upper := newAnalyzer(t, layout.Qwer)
	upper.AnalyzeText("Hello Мир")
	lower := newAnalyzer(t, layout.Qwer)
	lower.AnalyzeText("hello мир")
	diff := upper.Snapshot()["qwer"].Left[4] - lower.Snapshot()["qwer"].Left[4]
	if diff != 2*UppercaseCost {
		t.Fatalf("expected latin and cyrillic capitals counted, got %d", diff)
	}
}

func TestAnalyzeTextEmpty(t *testing.T) {
	a := newAnalyzer(t)
	a.AnalyzeText("")
	a.AnalyzeText("!!!")
	for name, totals := range a.Snapshot() {
		if totals != (model.LayoutTotals{}) {
			t.Fatalf("%s: expected zero totals, got %+v", name, totals)
		}
	}
}

func TestAnalyzeTextDeterministic(t *testing.T) {
	text := "Съешь же ещё этих мягких французских булок, да выпей чаю.\n"
	a := newAnalyzer(t)
	a.AnalyzeText(text)
	b := newAnalyzer(t)
	b.AnalyzeText(text)
	if !reflect.DeepEqual(a.Snapshot(), b.Snapshot()) {
		t.Fatalf("results differ between runs")
	}
}

func corpusLine(words []string) string {
	// 21 words, 20 spaces: every thumb split divides 20 exactly.
	parts := make([]string, 21)
	for i := range parts {
		parts[i] = words[i%len(words)]
	}
	return strings.Join(parts, " ") + "\n"
}

func TestMergeMatchesSingleChunk(t *testing.T) {
	lines := []string{
		corpusLine([]string{"Привет", "как", "дела", "сегодня"}),
		corpusLine([]string{"мороз", "и", "солнце", "день", "чудесный"}),
		corpusLine([]string{"ещё", "ты", "дремлешь", "друг", "прелестный"}),
	}
	whole := newAnalyzer(t)
	whole.AnalyzeText(strings.Join(lines, ""))

	var parts []model.Snapshot
	for _, line := range lines {
		p := newAnalyzer(t)
		p.AnalyzeText(line)
		parts = append(parts, p.Snapshot())
	}

	forward := newAnalyzer(t)
	for _, p := range parts {
		forward.Merge(p)
	}
	backward := newAnalyzer(t)
	backward.Merge(model.Merge(parts[2], parts[1]))
	backward.Merge(parts[0])

	if !reflect.DeepEqual(whole.Snapshot(), forward.Snapshot()) {
		t.Fatalf("chunked result differs:\nwhole %+v\nmerge %+v", whole.Snapshot(), forward.Snapshot())
	}
	if !reflect.DeepEqual(forward.Snapshot(), backward.Snapshot()) {
		t.Fatalf("merge order changed the result")
	}
}

func TestMergePartialCoverage(t *testing.T) {
	a := newAnalyzer(t, layout.Qwer, layout.Diktor)
	a.Merge(model.Snapshot{"qwer": {Left: [5]int{1, 0, 0, 0, 0}}})
	a.Merge(model.Snapshot{"qwer": {Left: [5]int{2, 0, 0, 0, 0}}, "dvorak": {TwoHanded: 5}})
	snap := a.Snapshot()
	if snap["qwer"].Left != [5]int{3, 0, 0, 0, 0} {
		t.Fatalf("unexpected qwer left: %v", snap["qwer"].Left)
	}
	if snap["diktor"] != (model.LayoutTotals{}) {
		t.Fatalf("missing layout should stay zero: %+v", snap["diktor"])
	}
	if _, ok := snap["dvorak"]; ok {
		t.Fatalf("unknown layout leaked into snapshot")
	}
}

func TestTrace(t *testing.T) {
	steps, err := Trace("Аб q", 0, layout.Diktor, layout.Vyzov)
	if err != nil {
		t.Fatalf("Trace: %v", err)
	}
	if len(steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(steps))
	}
	first := steps[0].Layouts[0]
	if first.Layout != layout.Diktor || first.Coords() != "(2,5)→(3,6)" || first.Kind() != "diagonal (2)" {
		t.Fatalf("unexpected first move: %+v", first)
	}
	if first.Penalty != 2 || first.Finger != layout.F2R {
		t.Fatalf("unexpected first score: %+v", first)
	}
	last := steps[2].Layouts[0]
	if last.Found || last.Coords() != "N/A" || last.Finger.String() != "N/A" {
		t.Fatalf("expected unresolved latin letter, got %+v", last)
	}
}

func TestTraceLimit(t *testing.T) {
	steps, err := Trace(strings.Repeat("аб", 100), 10)
	if err != nil {
		t.Fatalf("Trace: %v", err)
	}
	if len(steps) != 9 {
		t.Fatalf("expected 9 steps, got %d", len(steps))
	}
	if len(steps[0].Layouts) != len(layout.All()) {
		t.Fatalf("expected every layout in a step")
	}
}

func TestClean(t *testing.T) {
	got := Clean("Ёж, 12 ёлок!\tok?")
	if got != "Ёж, 12 ёлок\t" {
		t.Fatalf("Clean = %q", got)
	}
}
