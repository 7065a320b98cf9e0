// Package bridge turns callback-based driver futures into single-shot
// promises that can be awaited with a context.
package bridge

import (
	"context"
	"sync"

	"github.com/hupe1980/cqltable/driver"
)

// Promise is a value that is resolved exactly once.
type Promise[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

// New returns an unresolved promise.
func New[T any]() *Promise[T] {
	return &Promise[T]{done: make(chan struct{})}
}

// Resolved returns a promise already settled with v and err.
func Resolved[T any](v T, err error) *Promise[T] {
	p := New[T]()
	p.settle(v, err)
	return p
}

// Resolve settles the promise with v. Later calls are ignored.
func (p *Promise[T]) Resolve(v T) { p.settle(v, nil) }

// Reject settles the promise with err. Later calls are ignored.
func (p *Promise[T]) Reject(err error) {
	var zero T
	p.settle(zero, err)
}

func (p *Promise[T]) settle(v T, err error) {
	p.once.Do(func() {
		p.val, p.err = v, err
		close(p.done)
	})
}

// Done is closed once the promise is settled.
func (p *Promise[T]) Done() <-chan struct{} { return p.done }

// Wait blocks until the promise settles.
func (p *Promise[T]) Wait() (T, error) {
	<-p.done
	return p.val, p.err
}

// Await waits for the promise or for ctx, whichever comes first.
//
// Cancelling ctx only stops the wait; the underlying operation still runs
// to completion.
func (p *Promise[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.val, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// FromFuture resolves with the materialized rows of a driver future.
func FromFuture(f driver.Future) *Promise[[]driver.Row] {
	p := New[[]driver.Row]()
	f.AddCallbacks(
		func(rows driver.Rows) {
			out, err := driver.Collect(rows)
			if err != nil {
				p.Reject(err)
				return
			}
			p.Resolve(out)
		},
		p.Reject,
	)
	return p
}

// Go runs fn on a new goroutine and resolves with its result.
func Go[T any](fn func() (T, error)) *Promise[T] {
	p := New[T]()
	go func() {
		v, err := fn()
		p.settle(v, err)
	}()
	return p
}
