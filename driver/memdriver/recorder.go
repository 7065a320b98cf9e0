package memdriver

import (
	"context"
	"slices"
	"sync"

	"github.com/hupe1980/cqltable/driver"
)

// Call is one executed statement.
type Call struct {
	Text   string
	Values []any
}

// Recorder is a driver.Session that records executed statements and
// forwards them to an inner session. Without an inner session every
// statement succeeds with no rows.
type Recorder struct {
	inner driver.Session

	mu    sync.Mutex
	calls []Call
}

// NewRecorder wraps inner, which may be nil.
func NewRecorder(inner driver.Session) *Recorder {
	return &Recorder{inner: inner}
}

// Prepare implements driver.Session. Preparation is not recorded.
func (r *Recorder) Prepare(ctx context.Context, text string) (driver.Statement, error) {
	if r.inner == nil {
		return driver.Simple(text), nil
	}
	return r.inner.Prepare(ctx, text)
}

// Execute implements driver.Session.
func (r *Recorder) Execute(ctx context.Context, stmt driver.Statement, values ...any) (driver.Rows, error) {
	r.record(stmt, values)
	if r.inner == nil {
		return driver.NewSliceRows(nil, nil), nil
	}
	return r.inner.Execute(ctx, stmt, values...)
}

// ExecuteAsync implements driver.Session.
func (r *Recorder) ExecuteAsync(ctx context.Context, stmt driver.Statement, values ...any) driver.Future {
	r.record(stmt, values)
	if r.inner == nil {
		return driver.Go(func() (driver.Rows, error) { return driver.NewSliceRows(nil, nil), nil })
	}
	return r.inner.ExecuteAsync(ctx, stmt, values...)
}

func (r *Recorder) record(stmt driver.Statement, values []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Text: stmt.Text(), Values: slices.Clone(values)})
}

// Calls returns every recorded statement in execution order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

// Last returns the last n recorded statements.
func (r *Recorder) Last(n int) []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n > len(r.calls) {
		n = len(r.calls)
	}
	return slices.Clone(r.calls[len(r.calls)-n:])
}

// Reset forgets the recorded statements.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
