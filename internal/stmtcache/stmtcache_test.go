package stmtcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/cqltable/driver"
)

type countingPreparer struct {
	calls atomic.Int64
	delay time.Duration
	err   error
}

func (p *countingPreparer) Prepare(ctx context.Context, text string) (driver.Statement, error) {
	p.calls.Add(1)
	select {
	case <-time.After(p.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if p.err != nil {
		return nil, p.err
	}
	return driver.Simple(text), nil
}

func TestGetCaches(t *testing.T) {
	p := &countingPreparer{}
	c := New(p)

	h1, err := c.Get(context.Background(), "SELECT 1;")
	require.NoError(t, err)
	h2, err := c.Get(context.Background(), "SELECT 1;")
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Equal(t, int64(1), p.calls.Load())
	assert.Equal(t, 1, c.Len())

	c.Reset()
	assert.Equal(t, 0, c.Len())
}

func TestConcurrentMissesPrepareOnce(t *testing.T) {
	p := &countingPreparer{delay: 20 * time.Millisecond}
	c := New(p)

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Get(context.Background(), "SELECT * FROM k.t;")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), p.calls.Load())
}

func TestCancelledCallerDoesNotFailWaiters(t *testing.T) {
	p := &countingPreparer{delay: 50 * time.Millisecond}
	c := New(p)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := c.Get(ctx, "SELECT 2;")
		first <- err
	}()

	// let the first caller start the shared prepare
	time.Sleep(10 * time.Millisecond)
	second := make(chan error, 1)
	go func() {
		_, err := c.Get(context.Background(), "SELECT 2;")
		second <- err
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	require.NoError(t, <-second)
	require.NoError(t, <-first)
	assert.Equal(t, int64(1), p.calls.Load())
	assert.Equal(t, 1, c.Len())
}

func TestPrepareErrorNotCached(t *testing.T) {
	boom := errors.New("boom")
	p := &countingPreparer{err: boom}

	var hooked atomic.Int64
	c := New(p, WithPrepareHook(func(_ time.Duration, err error) {
		if err != nil {
			hooked.Add(1)
		}
	}))

	_, err := c.Get(context.Background(), "BAD")
	assert.ErrorIs(t, err, boom)
	_, err = c.Get(context.Background(), "BAD")
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, int64(2), p.calls.Load())
	assert.Equal(t, int64(2), hooked.Load())
	assert.Equal(t, 0, c.Len())
}
