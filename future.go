package cqltable

import (
	"context"

	"github.com/hupe1980/cqltable/internal/bridge"
)

// Future is the pending result of an *Async call.
type Future[T any] struct {
	p *bridge.Promise[T]
}

func newFuture[T any](p *bridge.Promise[T]) *Future[T] {
	return &Future[T]{p: p}
}

func failedFuture[T any](err error) *Future[T] {
	var zero T
	return newFuture(bridge.Resolved(zero, err))
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} { return f.p.Done() }

// Result blocks until the operation completes.
func (f *Future[T]) Result() (T, error) { return f.p.Wait() }

// Await waits for the result or for ctx. Cancelling ctx does not cancel
// the operation itself.
func (f *Future[T]) Await(ctx context.Context) (T, error) { return f.p.Await(ctx) }
