// Package queue carries chunk tasks to workers and completions back.
package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/verte-zerg/keyload/internal/model"
)

// ErrClosed is returned once a broker has been closed.
var ErrClosed = errors.New("queue closed")

// Memory is a channel-backed broker for a single process.
type Memory struct {
	tasks   chan model.Task
	results chan model.Completion
	done    chan struct{}
	once    sync.Once
}

// NewMemory creates a broker whose queues hold up to buffer messages each.
func NewMemory(buffer int) *Memory {
	if buffer < 1 {
		buffer = 1
	}
	return &Memory{
		tasks:   make(chan model.Task, buffer),
		results: make(chan model.Completion, buffer),
		done:    make(chan struct{}),
	}
}

// PublishTask enqueues a task.
func (m *Memory) PublishTask(ctx context.Context, task model.Task) error {
	select {
	case <-m.done:
		return ErrClosed
	default:
	}
	select {
	case m.tasks <- task:
		return nil
	case <-m.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NextTask blocks until a task is available.
func (m *Memory) NextTask(ctx context.Context) (model.Task, error) {
	select {
	case task := <-m.tasks:
		return task, nil
	case <-m.done:
		return model.Task{}, ErrClosed
	case <-ctx.Done():
		return model.Task{}, ctx.Err()
	}
}

// PublishCompletion enqueues a completion.
func (m *Memory) PublishCompletion(ctx context.Context, c model.Completion) error {
	select {
	case <-m.done:
		return ErrClosed
	default:
	}
	select {
	case m.results <- c:
		return nil
	case <-m.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NextCompletion blocks until a completion is available.
func (m *Memory) NextCompletion(ctx context.Context) (model.Completion, error) {
	select {
	case c := <-m.results:
		return c, nil
	case <-m.done:
		return model.Completion{}, ErrClosed
	case <-ctx.Done():
		return model.Completion{}, ctx.Err()
	}
}

// Close stops the broker. Blocked callers return ErrClosed.
func (m *Memory) Close() error {
	m.once.Do(func() { close(m.done) })
	return nil
}
