// Package stmtcache caches prepared statement handles by statement text.
package stmtcache

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/cqltable/driver"
)

// Preparer is the part of a driver.Session the cache needs.
type Preparer interface {
	Prepare(ctx context.Context, text string) (driver.Statement, error)
}

// Cache maps statement text to a prepared handle.
//
// Concurrent misses for the same text share one Prepare call. Entries are
// never evicted; the cache lives as long as the table instance.
type Cache struct {
	preparer  Preparer
	handles   *xsync.MapOf[string, driver.Statement]
	group     singleflight.Group
	onPrepare func(time.Duration, error)
}

// Option configures a Cache.
type Option func(*Cache)

// WithPrepareHook registers a callback invoked after every Prepare round trip.
func WithPrepareHook(fn func(time.Duration, error)) Option {
	return func(c *Cache) {
		c.onPrepare = fn
	}
}

// New creates a cache preparing through p.
func New(p Preparer, opts ...Option) *Cache {
	c := &Cache{
		preparer: p,
		handles:  xsync.NewMapOf[string, driver.Statement](),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the handle for text, preparing it on first use.
func (c *Cache) Get(ctx context.Context, text string) (driver.Statement, error) {
	if h, ok := c.handles.Load(text); ok {
		return h, nil
	}

	v, err, _ := c.group.Do(text, func() (any, error) {
		if h, ok := c.handles.Load(text); ok {
			return h, nil
		}
		start := time.Now()
		// shared by every waiter, so one caller's cancellation must not fail the rest
		h, err := c.preparer.Prepare(context.WithoutCancel(ctx), text)
		if c.onPrepare != nil {
			c.onPrepare(time.Since(start), err)
		}
		if err != nil {
			return nil, err
		}
		c.handles.Store(text, h)
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(driver.Statement), nil
}

// Len returns the number of cached handles.
func (c *Cache) Len() int { return c.handles.Size() }

// Reset drops every cached handle.
func (c *Cache) Reset() { c.handles.Clear() }
