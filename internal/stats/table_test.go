package stats

import "testing"

func TestTableAlignsColumns(t *testing.T) {
	tbl := table{
		headers:    []string{"Finger", "Диктор", "Best"},
		rows:       [][]string{{"Left thumb", "12", "qwer"}, {"Total", "7", "diktor"}},
		rightAlign: map[int]bool{1: true},
		rules:      map[int]bool{1: true},
	}

	lines := tbl.lines()
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d: %q", len(lines), lines)
	}
	if lines[0] != "Finger     Диктор Best" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "------------------------" {
		t.Fatalf("unexpected rule: %q", lines[1])
	}
	if lines[2] != "Left thumb     12 qwer" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
	if lines[3] != lines[1] {
		t.Fatalf("expected rule before total row, got %q", lines[3])
	}
	if lines[4] != "Total           7 diktor" {
		t.Fatalf("unexpected total line: %q", lines[4])
	}
}

func TestDisplayWidthCountsCyrillicAsNarrow(t *testing.T) {
	if got := displayWidth("Зубачёв"); got != 7 {
		t.Fatalf("expected width 7, got %d", got)
	}
}
