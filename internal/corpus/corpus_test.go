package corpus

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReaderFlushesOnLineBoundaries(t *testing.T) {
	text := "абв\nгде\nж\nзий"
	chunks, err := NewReader(strings.NewReader(text), 5).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	want := []string{"абв\nгде\n", "ж\nзий"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %q", len(want), len(chunks), chunks)
	}
	for i, c := range chunks {
		if c.ID != i || c.Text != want[i] {
			t.Fatalf("chunk %d: got (%d,%q), want %q", i, c.ID, c.Text, want[i])
		}
	}
}

func TestReaderCountsCharactersNotBytes(t *testing.T) {
	// Four Cyrillic characters plus newline are five characters but ten bytes.
	chunks, err := NewReader(strings.NewReader("абвг\nдежз\n"), 5).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected a chunk per line, got %q", chunks)
	}
}

func TestReaderEmpty(t *testing.T) {
	chunks, err := NewReader(strings.NewReader(""), 0).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %q", chunks)
	}
}

func TestReadFileCompressed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.txt.zst")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	text := strings.Repeat("мама мыла раму\n", 10)
	if err := Compress(f, strings.NewReader(text)); err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	chunks, err := ReadFile(path, 30)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Text)
	}
	if b.String() != text {
		t.Fatalf("round trip mismatch: %q", b.String())
	}
	if len(chunks) != 5 {
		t.Fatalf("expected 5 chunks, got %d", len(chunks))
	}
}
