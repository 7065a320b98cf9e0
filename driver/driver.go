// Package driver defines the row-store capability consumed by cqltable.
//
// A Session prepares statement text into reusable handles, executes them
// synchronously, and executes them asynchronously through a callback-based
// Future. Adapters live in subpackages: gocqldriver wraps a gocql session,
// memdriver is an in-memory store for tests.
package driver

import (
	"context"
	"errors"
)

// ErrInvalidQuery marks statements rejected by the store as invalid.
// Adapters wrap store errors with it so callers can match with errors.Is.
var ErrInvalidQuery = errors.New("invalid query")

// Row is one result row keyed by column name.
type Row = map[string]any

// Statement is a handle to statement text, prepared or not.
type Statement interface {
	Text() string
}

// Simple is an unprepared statement.
type Simple string

// Text implements Statement.
func (s Simple) Text() string { return string(s) }

// Rows is a forward-only cursor over result rows.
type Rows interface {
	// Next returns the next row, or false when the cursor is exhausted.
	Next() (Row, bool)
	// Close releases the cursor and reports any iteration error.
	Close() error
}

// Future is the pending result of ExecuteAsync.
type Future interface {
	// AddCallbacks registers completion callbacks. Exactly one of them is
	// invoked once, possibly from another goroutine.
	AddCallbacks(onSuccess func(Rows), onError func(error))
}

// Session is the capability set cqltable needs from a row-store driver.
type Session interface {
	Prepare(ctx context.Context, text string) (Statement, error)
	Execute(ctx context.Context, stmt Statement, values ...any) (Rows, error)
	ExecuteAsync(ctx context.Context, stmt Statement, values ...any) Future
}

// Collect drains rows into a slice and closes the cursor.
func Collect(rows Rows) ([]Row, error) {
	var out []Row
	for {
		r, ok := rows.Next()
		if !ok {
			break
		}
		out = append(out, r)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

// SliceRows is a Rows over an in-memory slice.
type SliceRows struct {
	rows []Row
	pos  int
	err  error
}

// NewSliceRows returns a cursor over rows. A non-nil err is reported by Close.
func NewSliceRows(rows []Row, err error) *SliceRows {
	return &SliceRows{rows: rows, err: err}
}

// Next implements Rows.
func (s *SliceRows) Next() (Row, bool) {
	if s.pos >= len(s.rows) {
		return nil, false
	}
	r := s.rows[s.pos]
	s.pos++
	return r, true
}

// Close implements Rows.
func (s *SliceRows) Close() error {
	s.pos = len(s.rows)
	return s.err
}

// FutureFunc adapts a function to the Future interface.
type FutureFunc func(onSuccess func(Rows), onError func(error))

// AddCallbacks implements Future.
func (f FutureFunc) AddCallbacks(onSuccess func(Rows), onError func(error)) {
	f(onSuccess, onError)
}

// Go runs fn on a new goroutine and delivers its result to the callbacks.
func Go(fn func() (Rows, error)) Future {
	type result struct {
		rows Rows
		err  error
	}
	done := make(chan result, 1)
	go func() {
		rows, err := fn()
		done <- result{rows, err}
	}()
	return FutureFunc(func(onSuccess func(Rows), onError func(error)) {
		go func() {
			r := <-done
			if r.err != nil {
				onError(r.err)
				return
			}
			onSuccess(r.rows)
		}()
	})
}
