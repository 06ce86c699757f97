package runner

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/verte-zerg/keyload/internal/corpus"
	"github.com/verte-zerg/keyload/internal/engine"
	"github.com/verte-zerg/keyload/internal/model"
	"github.com/verte-zerg/keyload/internal/queue"
	"github.com/verte-zerg/keyload/internal/store"
)

const sampleText = `Мороз и солнце, день чудесный
Ещё ты дремлешь, друг прелестный
Пора, красавица, проснись
Открой сомкнуты негой взоры
Навстречу северной Авроры
Звездою севера явись
`

func quietOptions() Options {
	return Options{Logger: log.New(io.Discard), Timeout: 2 * time.Second}
}

func chunksOf(t *testing.T, size int) []corpus.Chunk {
	t.Helper()
	chunks, err := corpus.NewReader(strings.NewReader(sampleText), size).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	return chunks
}

func sequentialTotals(t *testing.T, chunks []corpus.Chunk) model.Snapshot {
	t.Helper()
	a, err := engine.New()
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	for _, c := range chunks {
		a.AnalyzeText(c.Text)
	}
	return a.Snapshot()
}

func TestParseStrategy(t *testing.T) {
	for _, s := range []string{"sequential", " Pool ", "QUEUE"} {
		if _, err := ParseStrategy(s); err != nil {
			t.Fatalf("ParseStrategy(%q): %v", s, err)
		}
	}
	if _, err := ParseStrategy("mapreduce"); err == nil {
		t.Fatalf("expected error for unknown strategy")
	}
}

func TestStrategiesAgree(t *testing.T) {
	ctx := context.Background()
	chunks := chunksOf(t, 40)
	if len(chunks) < 3 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	want := sequentialTotals(t, chunks)

	seq, err := RunSequential(ctx, NewSliceSource(chunks), quietOptions())
	if err != nil {
		t.Fatalf("RunSequential: %v", err)
	}
	if !reflect.DeepEqual(seq.Totals, want) {
		t.Fatalf("sequential totals differ")
	}

	opts := quietOptions()
	opts.Workers = 3
	pool, err := RunPool(ctx, NewSliceSource(chunks), opts)
	if err != nil {
		t.Fatalf("RunPool: %v", err)
	}
	if !reflect.DeepEqual(pool.Totals, want) {
		t.Fatalf("pool totals differ:\n%+v\n%+v", pool.Totals, want)
	}
	if !reflect.DeepEqual(pool.Chunks, seq.Chunks) {
		t.Fatalf("chunk totals differ between strategies")
	}
	if pool.Count != len(chunks) || seq.Count != len(chunks) {
		t.Fatalf("unexpected counts %d %d", pool.Count, seq.Count)
	}

	res := runQueue(t, chunks, nil)
	if !reflect.DeepEqual(res.Totals, want) {
		t.Fatalf("queue totals differ")
	}
}

func TestPoolHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := RunPool(ctx, NewSliceSource(chunksOf(t, 40)), quietOptions()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// flakyStore fails the first save of each key.
type flakyStore struct {
	*store.Memory
	mu     sync.Mutex
	failed map[string]bool
}

func (f *flakyStore) Save(ctx context.Context, key string, snap model.Snapshot) error {
	f.mu.Lock()
	first := !f.failed[key]
	f.failed[key] = true
	f.mu.Unlock()
	if first {
		return errors.New("transient")
	}
	return f.Memory.Save(ctx, key, snap)
}

func runQueue(t *testing.T, chunks []corpus.Chunk, ps PartialStore) Result {
	t.Helper()
	if ps == nil {
		ps = store.NewMemory()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	b := queue.NewMemory(len(chunks) * 4)
	opts := quietOptions()
	opts.RunID = "run-1"
	opts.Prefix = "test"

	var wg sync.WaitGroup
	workerCtx, stopWorkers := context.WithCancel(ctx)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := Worker(workerCtx, b, ps, opts); err != nil {
				t.Errorf("Worker: %v", err)
			}
		}()
	}
	res, err := RunQueue(ctx, NewSliceSource(chunks), b, ps, opts)
	stopWorkers()
	wg.Wait()
	if err != nil {
		t.Fatalf("RunQueue: %v", err)
	}
	return res
}

func TestQueueRetriesTransientFailures(t *testing.T) {
	chunks := chunksOf(t, 40)
	ps := &flakyStore{Memory: store.NewMemory(), failed: map[string]bool{}}
	res := runQueue(t, chunks, ps)
	if !reflect.DeepEqual(res.Totals, sequentialTotals(t, chunks)) {
		t.Fatalf("queue totals differ after retries")
	}
	keys, err := ps.Keys(context.Background(), "test:run-1:block_")
	if err != nil || len(keys) != len(chunks) {
		t.Fatalf("expected %d stored partials, got %v %v", len(chunks), keys, err)
	}
}

// brokenStore never saves anything.
type brokenStore struct{ *store.Memory }

func (brokenStore) Save(context.Context, string, model.Snapshot) error {
	return errors.New("disk full")
}

func TestQueueGivesUpAfterMaxAttempts(t *testing.T) {
	chunks := chunksOf(t, 1000)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	b := queue.NewMemory(16)
	ps := brokenStore{store.NewMemory()}
	opts := quietOptions()
	opts.MaxAttempts = 2

	workerCtx, stopWorker := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Worker(workerCtx, b, ps, Options{Logger: opts.Logger, MaxAttempts: 1})
	}()
	_, err := RunQueue(ctx, NewSliceSource(chunks), b, ps, opts)
	stopWorker()
	<-done
	if !errors.Is(err, ErrChunkFailed) {
		t.Fatalf("expected ErrChunkFailed, got %v", err)
	}
}

// lostStore keeps only even chunks but reports success.
type lostStore struct{ *store.Memory }

func (l lostStore) Save(ctx context.Context, key string, snap model.Snapshot) error {
	if strings.HasSuffix(key, "_1") {
		return nil
	}
	return l.Memory.Save(ctx, key, snap)
}

func TestQueueDetectsMissingPartials(t *testing.T) {
	chunks := chunksOf(t, 40)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	b := queue.NewMemory(64)
	ps := lostStore{store.NewMemory()}
	opts := quietOptions()

	workerCtx, stopWorker := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Worker(workerCtx, b, ps, opts)
	}()
	_, err := RunQueue(ctx, NewSliceSource(chunks), b, ps, opts)
	stopWorker()
	<-done
	if !errors.Is(err, ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
}

func TestQueueTimesOutWithoutWorkers(t *testing.T) {
	chunks := chunksOf(t, 1000)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := quietOptions()
	opts.Timeout = 20 * time.Millisecond
	opts.MaxAttempts = 2
	_, err := RunQueue(ctx, NewSliceSource(chunks), queue.NewMemory(8), store.NewMemory(), opts)
	if !errors.Is(err, ErrChunkFailed) {
		t.Fatalf("expected ErrChunkFailed, got %v", err)
	}
}

// countingBroker records the chunks it was asked to publish.
type countingBroker struct {
	*queue.Memory
	mu        sync.Mutex
	published []int
}

func (c *countingBroker) PublishTask(ctx context.Context, task model.Task) error {
	c.mu.Lock()
	c.published = append(c.published, task.ChunkID)
	c.mu.Unlock()
	return c.Memory.PublishTask(ctx, task)
}

func TestQueueResumesStoredPartials(t *testing.T) {
	chunks := chunksOf(t, 40)
	if len(chunks) < 3 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ps := store.NewMemory()
	opts := quietOptions()
	opts.RunID = "run-2"
	opts.Prefix = "test"
	for _, c := range chunks[:2] {
		partial, err := ScoreChunk(c.Text, nil)
		if err != nil {
			t.Fatalf("ScoreChunk: %v", err)
		}
		if err := ps.Save(ctx, PartialKey(opts.Prefix, opts.RunID, c.ID), partial); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	// Same prefix characters, different run.
	if err := ps.Save(ctx, PartialKey(opts.Prefix, "run-20", chunks[2].ID), model.Snapshot{"qwer": {TwoHanded: 99}}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	b := &countingBroker{Memory: queue.NewMemory(len(chunks) * 4)}
	workerCtx, stopWorker := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Worker(workerCtx, b, ps, opts)
	}()
	res, err := RunQueue(ctx, NewSliceSource(chunks), b, ps, opts)
	stopWorker()
	<-done
	if err != nil {
		t.Fatalf("RunQueue: %v", err)
	}
	if !reflect.DeepEqual(res.Totals, sequentialTotals(t, chunks)) {
		t.Fatalf("resumed totals differ")
	}
	if res.Count != len(chunks) {
		t.Fatalf("expected %d chunks, got %d", len(chunks), res.Count)
	}
	b.mu.Lock()
	published := append([]int(nil), b.published...)
	b.mu.Unlock()
	if len(published) != len(chunks)-2 {
		t.Fatalf("expected %d published chunks, got %v", len(chunks)-2, published)
	}
	for _, id := range published {
		if id == chunks[0].ID || id == chunks[1].ID {
			t.Fatalf("stored chunk %d was published again", id)
		}
	}

	removed, err := Cleanup(ctx, ps, opts.Prefix, opts.RunID)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if removed != len(chunks) {
		t.Fatalf("expected %d removed partials, got %d", len(chunks), removed)
	}
	left, err := ps.Keys(ctx, "test:")
	if err != nil || len(left) != 1 || left[0] != PartialKey("test", "run-20", chunks[2].ID) {
		t.Fatalf("expected only the other run's partial, got %v %v", left, err)
	}
}

func TestRunKeyPrefix(t *testing.T) {
	if got := RunKeyPrefix("kl", "abc"); got != "kl:abc:block_" {
		t.Fatalf("RunKeyPrefix = %q", got)
	}
	if got := RunKeyPrefix("", ""); got != "block_" {
		t.Fatalf("RunKeyPrefix = %q", got)
	}
	if !strings.HasPrefix(PartialKey("kl", "abc", 7), RunKeyPrefix("kl", "abc")) {
		t.Fatalf("partial key does not share the run prefix")
	}
}

func TestPartialKey(t *testing.T) {
	cases := map[string]string{
		PartialKey("", "", 2):      "block_2",
		PartialKey("kl", "", 2):    "kl:block_2",
		PartialKey("kl", "abc", 2): "kl:abc:block_2",
		PartialKey("", "abc", 10):  "abc:block_10",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("PartialKey = %q, want %q", got, want)
		}
	}
}

func TestRetry(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("again")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("Retry: %v after %d calls", err, calls)
	}
	calls = 0
	err = Retry(context.Background(), 2, time.Millisecond, func() error {
		calls++
		return errors.New("never")
	})
	if err == nil || calls != 2 {
		t.Fatalf("expected failure after 2 calls, got %v %d", err, calls)
	}
}
