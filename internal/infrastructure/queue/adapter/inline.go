package adapter

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"go-twitarr/internal/infrastructure/queue/port"
)

// InlineQueue is both a port.Client and a port.Server that records enqueued
// tasks and runs them on demand. Tests and single-process tools use it in
// place of Redis.
type InlineQueue struct {
	mu       sync.Mutex
	handlers map[string]port.Handler
	pending  []port.Task
	seen     map[string]struct{}
}

func NewInlineQueue() *InlineQueue {
	return &InlineQueue{
		handlers: make(map[string]port.Handler),
		seen:     make(map[string]struct{}),
	}
}

var (
	_ port.Client = (*InlineQueue)(nil)
	_ port.Server = (*InlineQueue)(nil)
)

func (q *InlineQueue) Enqueue(ctx context.Context, t port.Task, opts ...port.EnqueueOption) (string, error) {
	id := uuid.NewString()
	if len(opts) > 0 && opts[0].TaskID != "" {
		id = opts[0].TaskID
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, dup := q.seen[id]; dup {
		return "", fmt.Errorf("inline queue: task %s already enqueued", id)
	}
	q.seen[id] = struct{}{}
	q.pending = append(q.pending, t)
	return id, nil
}

func (q *InlineQueue) Register(taskType string, h port.Handler) {
	q.mu.Lock()
	q.handlers[taskType] = h
	q.mu.Unlock()
}

// Pending returns a copy of the tasks not yet drained.
func (q *InlineQueue) Pending() []port.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]port.Task, len(q.pending))
	copy(out, q.pending)
	return out
}

// Drain runs every pending task once, in enqueue order, and returns the first error.
// Failed tasks are dropped.
func (q *InlineQueue) Drain(ctx context.Context) error {
	q.mu.Lock()
	tasks := q.pending
	q.pending = nil
	q.mu.Unlock()

	var firstErr error
	for _, t := range tasks {
		q.mu.Lock()
		h, ok := q.handlers[t.Type]
		q.mu.Unlock()
		if !ok {
			if firstErr == nil {
				firstErr = fmt.Errorf("inline queue: no handler for %s", t.Type)
			}
			continue
		}
		if err := h(ctx, t); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Run drains once and then waits for cancellation.
func (q *InlineQueue) Run(ctx context.Context) error {
	if err := q.Drain(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

func (q *InlineQueue) Stop(context.Context) error { return nil }

func (q *InlineQueue) Close() error { return nil }
