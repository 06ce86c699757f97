package watch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestFileCallsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.txt")
	if err := os.WriteFile(path, []byte("мороз"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	called := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- File(ctx, path, 20*time.Millisecond, log.New(io.Discard), func(context.Context) error {
			called <- struct{}{}
			return nil
		})
	}()

	// Keep writing until the watcher has registered and reacted.
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-called:
			cancel()
			if err := <-done; err != nil {
				t.Fatalf("File: %v", err)
			}
			return
		case <-ticker.C:
			if err := os.WriteFile(path, []byte("солнце"), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
		case <-ctx.Done():
			t.Fatalf("callback was not invoked")
		}
	}
}

func TestFileMissingPath(t *testing.T) {
	err := File(context.Background(), filepath.Join(t.TempDir(), "absent"), DefaultDebounce, nil, func(context.Context) error { return nil })
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}
