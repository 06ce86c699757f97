package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/verte-zerg/keyload/internal/model"
	"github.com/verte-zerg/keyload/internal/queue"
	"github.com/verte-zerg/keyload/internal/store"
)

// RunQueue publishes every chunk as a task, waits for workers to report
// completions, retries failed or silent chunks, and merges the stored partials.
// When ps is a PartialIndex, chunks whose partial is already stored under the
// run are not published again, so an interrupted run can be resumed.
func RunQueue(ctx context.Context, src Source, b Broker, ps PartialStore, opts Options) (Result, error) {
	opts.setDefaults()
	logger := opts.Logger.With("run", opts.RunID)

	stored, err := storedPartials(ctx, ps, opts)
	if err != nil {
		return Result{}, err
	}

	texts := make(map[int]string)
	attempts := make(map[int]int)
	for {
		chunk, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, err
		}
		texts[chunk.ID] = chunk.Text
		if _, ok := stored[PartialKey(opts.Prefix, opts.RunID, chunk.ID)]; ok {
			continue
		}
		attempts[chunk.ID] = 1
		task := model.Task{RunID: opts.RunID, ChunkID: chunk.ID, Text: chunk.Text, Attempt: 1}
		if err := b.PublishTask(ctx, task); err != nil {
			return Result{}, fmt.Errorf("failed to publish chunk %d: %w", chunk.ID, err)
		}
	}
	total := len(texts)
	if resumed := total - len(attempts); resumed > 0 {
		logger.Info("resuming run", "stored", resumed)
	}
	logger.Info("published chunks", "chunks", len(attempts))

	pending := make(map[int]struct{}, len(attempts))
	for id := range attempts {
		pending[id] = struct{}{}
	}

	retry := func(id int, reason string) error {
		if attempts[id] >= opts.MaxAttempts {
			return fmt.Errorf("%w: chunk %d after %d attempts: %s", ErrChunkFailed, id, attempts[id], reason)
		}
		attempts[id]++
		logger.Warn("retrying chunk", "chunk", id, "attempt", attempts[id], "reason", reason)
		task := model.Task{RunID: opts.RunID, ChunkID: id, Text: texts[id], Attempt: attempts[id]}
		return b.PublishTask(ctx, task)
	}

	for len(pending) > 0 {
		waitCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
		c, err := b.NextCompletion(waitCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			if !errors.Is(err, context.DeadlineExceeded) {
				return Result{}, fmt.Errorf("failed to wait for completions: %w", err)
			}
			// No news within the timeout: collect what was stored and
			// resend the rest.
			for id := range pending {
				if _, lerr := ps.Load(ctx, PartialKey(opts.Prefix, opts.RunID, id)); lerr == nil {
					delete(pending, id)
					continue
				}
				if rerr := retry(id, "timed out"); rerr != nil {
					return Result{}, rerr
				}
			}
			continue
		}

		if c.RunID != opts.RunID {
			logger.Debug("ignoring completion from another run", "other", c.RunID)
			continue
		}
		if _, ok := pending[c.ChunkID]; !ok {
			continue
		}
		switch c.Status {
		case model.StatusCompleted:
			delete(pending, c.ChunkID)
			logger.Debug("chunk completed", "chunk", c.ChunkID, "left", len(pending))
		default:
			if rerr := retry(c.ChunkID, c.Error); rerr != nil {
				return Result{}, rerr
			}
		}
	}

	col, err := newCollector(opts.Layouts)
	if err != nil {
		return Result{}, err
	}
	var missing []int
	for id := range texts {
		partial, err := ps.Load(ctx, PartialKey(opts.Prefix, opts.RunID, id))
		if errors.Is(err, store.ErrNotFound) {
			missing = append(missing, id)
			continue
		}
		if err != nil {
			return Result{}, err
		}
		col.add(id, partial)
	}
	if len(missing) > 0 {
		return Result{}, fmt.Errorf("%w: collected %d/%d chunks, missing %v", ErrIncomplete, total-len(missing), total, missing)
	}
	res := col.result()
	logger.Info("queue run finished", "chunks", res.Count)
	return res, nil
}

func storedPartials(ctx context.Context, ps PartialStore, opts Options) (map[string]struct{}, error) {
	idx, ok := ps.(PartialIndex)
	if !ok {
		return nil, nil
	}
	keys, err := idx.Keys(ctx, RunKeyPrefix(opts.Prefix, opts.RunID))
	if err != nil {
		return nil, fmt.Errorf("failed to list stored partials: %w", err)
	}
	stored := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		stored[key] = struct{}{}
	}
	return stored, nil
}

// Worker consumes tasks until ctx is done or the broker closes. Each task is
// scored, its partial saved, and a completion published.
func Worker(ctx context.Context, b Broker, ps PartialStore, opts Options) error {
	opts.setDefaults()
	logger := opts.Logger
	logger.Info("worker waiting for tasks")
	for {
		task, err := b.NextTask(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, queue.ErrClosed) {
				return nil
			}
			return fmt.Errorf("failed to receive task: %w", err)
		}

		completion := model.Completion{RunID: task.RunID, ChunkID: task.ChunkID, Status: model.StatusCompleted}
		if err := process(ctx, task, ps, opts); err != nil {
			logger.Error("chunk failed", "run", task.RunID, "chunk", task.ChunkID, "err", err)
			completion.Status = model.StatusFailed
			completion.Error = err.Error()
		} else {
			logger.Info("chunk processed", "run", task.RunID, "chunk", task.ChunkID, "attempt", task.Attempt)
		}
		completion.Timestamp = time.Now().UTC()
		if err := b.PublishCompletion(ctx, completion); err != nil {
			if ctx.Err() != nil || errors.Is(err, queue.ErrClosed) {
				return nil
			}
			return fmt.Errorf("failed to publish completion: %w", err)
		}
	}
}

func process(ctx context.Context, task model.Task, ps PartialStore, opts Options) error {
	partial, err := ScoreChunk(task.Text, opts.Layouts)
	if err != nil {
		return err
	}
	key := PartialKey(opts.Prefix, task.RunID, task.ChunkID)
	return Retry(ctx, opts.MaxAttempts, 100*time.Millisecond, func() error {
		return ps.Save(ctx, key, partial)
	})
}
