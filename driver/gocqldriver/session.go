package gocqldriver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gocql "github.com/apache/cassandra-gocql-driver/v2"
	"github.com/google/uuid"

	"github.com/hupe1980/cqltable/driver"
)

// Option configures a Session.
type Option func(*Session)

// WithConsistency sets the consistency of every statement.
func WithConsistency(c gocql.Consistency) Option {
	return func(s *Session) {
		s.consistency = &c
	}
}

// WithPageSize sets the fetch page size of reads.
func WithPageSize(n int) Option {
	return func(s *Session) {
		s.pageSize = n
	}
}

// Session implements driver.Session over *gocql.Session.
type Session struct {
	gs          *gocql.Session
	consistency *gocql.Consistency
	pageSize    int
}

var _ driver.Session = (*Session)(nil)

// New wraps gs. The caller keeps ownership of gs and closes it.
func New(gs *gocql.Session, opts ...Option) *Session {
	s := &Session{gs: gs}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type statement string

func (s statement) Text() string { return string(s) }

// Prepare implements driver.Session.
func (s *Session) Prepare(ctx context.Context, text string) (driver.Statement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty statement", driver.ErrInvalidQuery)
	}
	return statement(text), nil
}

// Execute implements driver.Session. The rows are read page by page as the
// cursor advances.
func (s *Session) Execute(ctx context.Context, stmt driver.Statement, values ...any) (driver.Rows, error) {
	q := s.gs.Query(stmt.Text(), toDriver(values)...).WithContext(ctx)
	if s.consistency != nil {
		q = q.Consistency(*s.consistency)
	}
	if s.pageSize > 0 {
		q = q.PageSize(s.pageSize)
	}
	return &rows{iter: q.Iter()}, nil
}

// ExecuteAsync implements driver.Session. The returned future settles once
// the whole result has been read.
func (s *Session) ExecuteAsync(ctx context.Context, stmt driver.Statement, values ...any) driver.Future {
	return driver.Go(func() (driver.Rows, error) {
		r, err := s.Execute(ctx, stmt, values...)
		if err != nil {
			return nil, err
		}
		out, err := driver.Collect(r)
		if err != nil {
			return nil, err
		}
		return driver.NewSliceRows(out, nil), nil
	})
}

type rows struct {
	iter *gocql.Iter
}

func (r *rows) Next() (driver.Row, bool) {
	m := make(map[string]any)
	if !r.iter.MapScan(m) {
		return nil, false
	}
	for k, v := range m {
		m[k] = fromDriver(v)
	}
	return m, true
}

func (r *rows) Close() error {
	return translateError(r.iter.Close())
}

// translateError marks statements the server rejected as invalid so the
// table layer can tell them apart from availability failures.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var reqErr gocql.RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.Code() {
		case gocql.ErrCodeInvalid, gocql.ErrCodeSyntax:
			return fmt.Errorf("%w: %w", driver.ErrInvalidQuery, err)
		}
	}
	return err
}

func toDriver(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		switch x := v.(type) {
		case uuid.UUID:
			out[i] = gocql.UUID(x)
		case *uuid.UUID:
			if x == nil {
				out[i] = nil
			} else {
				out[i] = gocql.UUID(*x)
			}
		default:
			out[i] = v
		}
	}
	return out
}

func fromDriver(v any) any {
	switch x := v.(type) {
	case gocql.UUID:
		return uuid.UUID(x)
	case []gocql.UUID:
		out := make([]uuid.UUID, len(x))
		for i, u := range x {
			out[i] = uuid.UUID(u)
		}
		return out
	default:
		return v
	}
}
