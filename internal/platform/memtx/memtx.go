// Package memtx gives the in-memory adapters the same all-or-nothing behaviour the
// relational store provides: units of work are serialized and every mutation registers
// an undo step that runs when the unit fails.
package memtx

import (
	"context"
	"sync"
)

type undoKey struct{}

type undoLog struct {
	steps []func()
}

// Transactor serializes units of work over the in-memory repositories.
type Transactor struct {
	mu sync.Mutex
}

func NewTransactor() *Transactor {
	return &Transactor{}
}

// WithinTransaction runs fn exclusively. When fn fails the registered undo steps run in
// reverse order. Nested calls join the outer unit.
func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(undoKey{}).(*undoLog); ok {
		return fn(ctx)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	log := &undoLog{}
	if err := fn(context.WithValue(ctx, undoKey{}, log)); err != nil {
		for i := len(log.steps) - 1; i >= 0; i-- {
			log.steps[i]()
		}
		return err
	}
	return nil
}

// OnRollback registers step to run if the unit of work bound to ctx fails.
// Outside a unit of work it is a no-op.
func OnRollback(ctx context.Context, step func()) {
	if log, ok := ctx.Value(undoKey{}).(*undoLog); ok && step != nil {
		log.steps = append(log.steps, step)
	}
}
