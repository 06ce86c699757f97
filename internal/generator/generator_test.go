package generator

import (
	"bytes"
	"strings"
	"testing"
	"unicode"
)

var words = []string{"мороз", "солнце", "день", "щука"}

func TestGenerateIsReproducible(t *testing.T) {
	opts := Options{CapsPct: 0.5, PunctPct: 0.5, PunctSet: []rune(",.")}
	a := New(7).Generate(words, 50, opts)
	b := New(7).Generate(words, 50, opts)
	if strings.Join(a, " ") != strings.Join(b, " ") {
		t.Fatalf("same seed produced different output")
	}
	if len(a) != 50 {
		t.Fatalf("expected 50 words, got %d", len(a))
	}
}

func TestGenerateAppliesCapsAndPunct(t *testing.T) {
	out := New(1).Generate(words, 20, Options{CapsPct: 1, PunctPct: 1, PunctSet: []rune{','}})
	for _, w := range out {
		runes := []rune(w)
		if !unicode.IsUpper(runes[0]) || runes[len(runes)-1] != ',' {
			t.Fatalf("expected capitalized word with comma, got %q", w)
		}
	}
	plain := New(1).Generate(words, 20, Options{})
	for _, w := range plain {
		if strings.ContainsAny(w, ",.") || unicode.IsUpper([]rune(w)[0]) {
			t.Fatalf("expected undecorated word, got %q", w)
		}
	}
}

func TestGenerateFocusBiasesSelection(t *testing.T) {
	focus := map[rune]struct{}{'щ': {}}
	out := New(3).Generate(words, 2000, Options{Focus: focus, Factor: 20})
	hits := 0
	for _, w := range out {
		if w == "щука" {
			hits++
		}
	}
	// weight 21 of 24 total
	if hits < 1500 {
		t.Fatalf("expected focus word to dominate, got %d of 2000", hits)
	}
}

func TestWriteCorpus(t *testing.T) {
	var buf bytes.Buffer
	if err := New(5).WriteCorpus(&buf, words, 25, Options{WordsPerLine: 10}); err != nil {
		t.Fatalf("WriteCorpus: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if n := len(strings.Fields(lines[2])); n != 5 {
		t.Fatalf("expected 5 words on last line, got %d", n)
	}
}
