package stats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/verte-zerg/keyload/internal/engine"
	"github.com/verte-zerg/keyload/internal/layout"
)

func TestRenderTrace(t *testing.T) {
	steps, err := engine.Trace("Аб q", 0, layout.Diktor, layout.Vyzov)
	if err != nil {
		t.Fatalf("Trace: %v", err)
	}
	var buf bytes.Buffer
	if err := RenderTrace(&buf, steps); err != nil {
		t.Fatalf("RenderTrace: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"1. 'а' → 'б'", "2. 'б' → '␣'", "(2,5)→(3,6)", "diagonal (2)", "Вызов", "N/A"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in trace:\n%s", want, out)
		}
	}
}

func TestRenderTraceEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderTrace(&buf, nil); err != nil {
		t.Fatalf("RenderTrace: %v", err)
	}
	if buf.String() != "Nothing to trace.\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestRenderLayouts(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderLayouts(&buf); err != nil {
		t.Fatalf("RenderLayouts: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2+len(layout.All()) {
		t.Fatalf("expected %d lines, got %d:\n%s", 2+len(layout.All()), len(lines), buf.String())
	}
	if !strings.Contains(lines[3], "qwer") || !strings.Contains(lines[3], "60/40") {
		t.Fatalf("unexpected qwer row %q", lines[3])
	}
	if !strings.Contains(lines[4], "two-char (+4)") {
		t.Fatalf("unexpected vyzov row %q", lines[4])
	}
}
