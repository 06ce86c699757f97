// Package runner scores a chunked corpus sequentially, on a goroutine pool, or
// through a task queue, and folds the partial snapshots into one result.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/keyload/internal/corpus"
	"github.com/verte-zerg/keyload/internal/engine"
	"github.com/verte-zerg/keyload/internal/layout"
	"github.com/verte-zerg/keyload/internal/model"
	"github.com/verte-zerg/keyload/internal/store"
)

var (
	// ErrIncomplete is returned when fewer partials than chunks were collected.
	ErrIncomplete = errors.New("incomplete result")
	// ErrChunkFailed is returned when a chunk keeps failing after every retry.
	ErrChunkFailed = errors.New("chunk failed")
)

// Strategy selects how chunks are processed.
type Strategy string

// Strategies.
const (
	Sequential Strategy = "sequential"
	Pool       Strategy = "pool"
	Queue      Strategy = "queue"
)

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case Sequential:
		return Sequential, nil
	case Pool:
		return Pool, nil
	case Queue:
		return Queue, nil
	}
	return "", fmt.Errorf("unknown strategy %q (want sequential, pool, or queue)", s)
}

// Source yields chunks until io.EOF.
type Source interface {
	Next() (corpus.Chunk, error)
}

// PartialStore persists partial snapshots by key.
type PartialStore interface {
	Save(ctx context.Context, key string, snap model.Snapshot) error
	Load(ctx context.Context, key string) (model.Snapshot, error)
}

// PartialIndex is a PartialStore that can also list and drop keys.
type PartialIndex interface {
	PartialStore
	Keys(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, keys ...string) error
}

// Broker moves tasks to workers and completions back to the coordinator.
type Broker interface {
	PublishTask(ctx context.Context, task model.Task) error
	NextTask(ctx context.Context) (model.Task, error)
	PublishCompletion(ctx context.Context, c model.Completion) error
	NextCompletion(ctx context.Context) (model.Completion, error)
}

// Defaults.
const (
	DefaultWorkers     = 4
	DefaultMaxAttempts = 3
	DefaultTimeout     = 30 * time.Second
)

// Options configure a run.
type Options struct {
	RunID       string
	Layouts     []layout.ID
	Workers     int
	MaxAttempts int
	// Timeout bounds how long the queue coordinator waits for the next completion.
	Timeout time.Duration
	// Prefix namespaces partial keys in the shared store.
	Prefix string
	Logger *log.Logger
}

func (o *Options) setDefaults() {
	if len(o.Layouts) == 0 {
		o.Layouts = layout.All()
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
}

// Result is the merged outcome of a run.
type Result struct {
	Totals model.Snapshot
	Chunks []model.ChunkTotal
	Count  int
}

// ScoreChunk scores one chunk in isolation.
func ScoreChunk(text string, ids []layout.ID) (model.Snapshot, error) {
	a, err := engine.New(ids...)
	if err != nil {
		return nil, err
	}
	a.AnalyzeText(text)
	return a.Snapshot(), nil
}

// PartialKey returns the store key for one chunk of a run.
func PartialKey(prefix, runID string, chunkID int) string {
	return store.BlockKey(runNamespace(prefix, runID), chunkID)
}

// RunKeyPrefix returns the prefix shared by every partial key of a run.
func RunKeyPrefix(prefix, runID string) string {
	return store.BlockPrefix(runNamespace(prefix, runID))
}

func runNamespace(prefix, runID string) string {
	var parts []string
	for _, p := range []string{prefix, runID} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ":")
}

// Cleanup deletes the stored partials of a run and returns how many it removed.
func Cleanup(ctx context.Context, ps PartialIndex, prefix, runID string) (int, error) {
	keys, err := ps.Keys(ctx, RunKeyPrefix(prefix, runID))
	if err != nil {
		return 0, fmt.Errorf("failed to list partials: %w", err)
	}
	if err := ps.Delete(ctx, keys...); err != nil {
		return 0, fmt.Errorf("failed to delete partials: %w", err)
	}
	return len(keys), nil
}

// collector folds partials as they arrive.
type collector struct {
	mu       sync.Mutex
	analyzer *engine.Analyzer
	chunks   []model.ChunkTotal
	count    int
}

func newCollector(ids []layout.ID) (*collector, error) {
	a, err := engine.New(ids...)
	if err != nil {
		return nil, err
	}
	return &collector{analyzer: a}, nil
}

func (c *collector) add(chunkID int, partial model.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.analyzer.Merge(partial)
	for name, totals := range partial {
		c.chunks = append(c.chunks, model.ChunkTotal{
			ChunkID: chunkID,
			Layout:  name,
			Load:    totals.Load(),
			Presses: totals.Presses(),
		})
	}
	c.count++
}

func (c *collector) result() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	chunks := make([]model.ChunkTotal, len(c.chunks))
	copy(chunks, c.chunks)
	sort.Slice(chunks, func(i, j int) bool {
		if chunks[i].ChunkID != chunks[j].ChunkID {
			return chunks[i].ChunkID < chunks[j].ChunkID
		}
		return chunks[i].Layout < chunks[j].Layout
	})
	return Result{Totals: c.analyzer.Snapshot(), Chunks: chunks, Count: c.count}
}

// RunSequential scores chunks one after another.
func RunSequential(ctx context.Context, src Source, opts Options) (Result, error) {
	opts.setDefaults()
	col, err := newCollector(opts.Layouts)
	if err != nil {
		return Result{}, err
	}
	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		chunk, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, err
		}
		partial, err := ScoreChunk(chunk.Text, opts.Layouts)
		if err != nil {
			return Result{}, err
		}
		col.add(chunk.ID, partial)
		opts.Logger.Debug("scored chunk", "chunk", chunk.ID, "chars", len([]rune(chunk.Text)))
	}
	res := col.result()
	opts.Logger.Info("sequential run finished", "chunks", res.Count)
	return res, nil
}

// RunPool scores chunks on up to opts.Workers goroutines. Each goroutine
// builds its own partial; nothing is shared until the merge.
func RunPool(ctx context.Context, src Source, opts Options) (Result, error) {
	opts.setDefaults()
	col, err := newCollector(opts.Layouts)
	if err != nil {
		return Result{}, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for {
		if err := gctx.Err(); err != nil {
			break
		}
		chunk, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			_ = g.Wait()
			return Result{}, err
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			partial, err := ScoreChunk(chunk.Text, opts.Layouts)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", chunk.ID, err)
			}
			col.add(chunk.ID, partial)
			opts.Logger.Debug("scored chunk", "chunk", chunk.ID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	res := col.result()
	opts.Logger.Info("pool run finished", "chunks", res.Count, "workers", opts.Workers)
	return res, nil
}
