package cqltable

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// promcollector package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordWrite is called after each write statement.
	RecordWrite(duration time.Duration, err error)

	// RecordRead is called after each read statement with the number of rows returned.
	RecordRead(rows int, duration time.Duration, err error)

	// RecordSearch is called after each similarity search.
	// n is the number of neighbors requested.
	RecordSearch(n int, duration time.Duration, err error)

	// RecordDelete is called after each delete operation with the number of
	// rows it targeted.
	RecordDelete(count int, duration time.Duration, err error)

	// RecordPrepare is called after each prepare round trip.
	RecordPrepare(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordWrite(time.Duration, error)       {}
func (NoopMetricsCollector) RecordRead(int, time.Duration, error)   {}
func (NoopMetricsCollector) RecordSearch(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordDelete(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordPrepare(time.Duration, error)     {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	WriteCount       atomic.Int64
	WriteErrors      atomic.Int64
	ReadCount        atomic.Int64
	ReadErrors       atomic.Int64
	ReadRows         atomic.Int64
	SearchCount      atomic.Int64
	SearchErrors     atomic.Int64
	SearchTotalNanos atomic.Int64
	DeleteCount      atomic.Int64
	DeleteErrors     atomic.Int64
	DeletedRows      atomic.Int64
	PrepareCount     atomic.Int64
	PrepareErrors    atomic.Int64
}

// RecordWrite implements MetricsCollector.
func (b *BasicMetricsCollector) RecordWrite(_ time.Duration, err error) {
	b.WriteCount.Add(1)
	if err != nil {
		b.WriteErrors.Add(1)
	}
}

// RecordRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRead(rows int, _ time.Duration, err error) {
	b.ReadCount.Add(1)
	b.ReadRows.Add(int64(rows))
	if err != nil {
		b.ReadErrors.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(_ int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(count int, _ time.Duration, err error) {
	b.DeleteCount.Add(1)
	b.DeletedRows.Add(int64(count))
	if err != nil {
		b.DeleteErrors.Add(1)
	}
}

// RecordPrepare implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPrepare(_ time.Duration, err error) {
	b.PrepareCount.Add(1)
	if err != nil {
		b.PrepareErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		WriteCount:     b.WriteCount.Load(),
		WriteErrors:    b.WriteErrors.Load(),
		ReadCount:      b.ReadCount.Load(),
		ReadErrors:     b.ReadErrors.Load(),
		ReadRows:       b.ReadRows.Load(),
		SearchCount:    b.SearchCount.Load(),
		SearchErrors:   b.SearchErrors.Load(),
		SearchAvgNanos: b.getAvgSearchNanos(),
		DeleteCount:    b.DeleteCount.Load(),
		DeleteErrors:   b.DeleteErrors.Load(),
		DeletedRows:    b.DeletedRows.Load(),
		PrepareCount:   b.PrepareCount.Load(),
		PrepareErrors:  b.PrepareErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgSearchNanos() int64 {
	count := b.SearchCount.Load()
	if count == 0 {
		return 0
	}
	return b.SearchTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	WriteCount     int64
	WriteErrors    int64
	ReadCount      int64
	ReadErrors     int64
	ReadRows       int64
	SearchCount    int64
	SearchErrors   int64
	SearchAvgNanos int64
	DeleteCount    int64
	DeleteErrors   int64
	DeletedRows    int64
	PrepareCount   int64
	PrepareErrors  int64
}
