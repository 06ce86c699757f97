package statsui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/keyload/internal/engine"
	"github.com/verte-zerg/keyload/internal/model"
	"github.com/verte-zerg/keyload/internal/store"
)

func seedStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "keyload.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	for i, id := range []string{"first-run", "second-run"} {
		a, err := engine.New()
		if err != nil {
			t.Fatalf("engine.New: %v", err)
		}
		a.AnalyzeText("Мороз и солнце, день чудесный")
		start := time.Unix(int64(1000*(i+1)), 0)
		run := model.Run{
			ID:        id,
			Source:    "poem.txt",
			Strategy:  "sequential",
			ChunkSize: 100,
			Chunks:    1,
			StartedAt: start,
			EndedAt:   start.Add(time.Second),
			Totals:    a.Snapshot(),
		}
		var chunks []model.ChunkTotal
		for name, totals := range run.Totals {
			chunks = append(chunks, model.ChunkTotal{ChunkID: 0, Layout: name, Load: totals.Load(), Presses: totals.Presses()})
		}
		if err := st.InsertRun(context.Background(), run, chunks); err != nil {
			t.Fatalf("insert run: %v", err)
		}
	}
	return st
}

func key(s string) tea.KeyMsg {
	switch s {
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestViewerTabs(t *testing.T) {
	m := NewModel(seedStore(t), model.ReportConfig{CurveWindow: 1})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	view := m.View()
	if !strings.Contains(view, "Overview") || !strings.Contains(view, "Best layout") {
		t.Fatalf("expected overview, got:\n%s", view)
	}
	if !strings.Contains(view, "Run: second-run") {
		t.Fatalf("expected latest run selected, got:\n%s", view)
	}

	m.Update(key("right"))
	if view = m.View(); !strings.Contains(view, "Left thumb") || !strings.Contains(view, "Диктор") {
		t.Fatalf("expected finger table, got:\n%s", view)
	}

	m.Update(key("right"))
	if view = m.View(); !strings.Contains(view, "Key Presses") || !strings.Contains(view, "Hand Balance") {
		t.Fatalf("expected presses tab, got:\n%s", view)
	}

	m.Update(key("right"))
	if view = m.View(); !strings.Contains(view, "first-ru") {
		t.Fatalf("expected runs table, got:\n%s", view)
	}
	m.Update(key("down"))
	m.Update(key("enter"))
	if m.activeTab != tabOverview || m.report.Run.ID != "first-run" {
		t.Fatalf("expected first run opened on overview, got tab %d run %s", m.activeTab, m.report.Run.ID)
	}
}

func TestViewerFilterValidation(t *testing.T) {
	m := NewModel(seedStore(t), model.ReportConfig{CurveWindow: 1})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m.Update(key("/"))
	if !m.filterMode {
		t.Fatalf("expected filter mode")
	}
	m.filterInputs[1].SetValue("dvorak")
	m.Update(key("enter"))
	if !m.filterMode || m.filterError == "" {
		t.Fatalf("expected unknown layout error, got %q", m.filterError)
	}
	m.filterInputs[1].SetValue("qwer")
	m.filterInputs[2].SetValue("0")
	m.Update(key("enter"))
	if !strings.Contains(m.filterError, "curve window") {
		t.Fatalf("expected curve window error, got %q", m.filterError)
	}
	m.filterInputs[2].SetValue("3")
	m.Update(key("enter"))
	if m.filterMode || m.cfg.CurveWindow != 3 || string(m.report.Focus) != "qwer" {
		t.Fatalf("expected filter applied, got %+v focus %s", m.cfg, m.report.Focus)
	}
}

func TestViewerWithoutRuns(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "keyload.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	m := NewModel(st, model.ReportConfig{})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	if view := m.View(); !strings.Contains(view, "No runs found") {
		t.Fatalf("expected empty state, got:\n%s", view)
	}
	if m.errMsg != "" {
		t.Fatalf("unexpected error %q", m.errMsg)
	}
}

func TestCurveWindowSteps(t *testing.T) {
	if nextCurveWindow(1) != 5 || nextCurveWindow(5) != 10 || nextCurveWindow(7) != 10 {
		t.Fatalf("unexpected next window")
	}
	if prevCurveWindow(5) != 1 || prevCurveWindow(10) != 5 || prevCurveWindow(12) != 10 {
		t.Fatalf("unexpected prev window")
	}
}
