package cqltable

import (
	"context"
	"iter"
	"maps"

	"github.com/hupe1980/cqltable/distance"
	"github.com/hupe1980/cqltable/metadata"
)

// Search creates a fluent search builder for the given query vector.
//
// Example:
//
//	rows, err := tbl.Search(query).
//	    KNN(10).
//	    Metric(distance.MetricL2).
//	    Threshold(0.5).
//	    Execute(ctx)
//
//	// Or with streaming:
//	for row, err := range tbl.Search(query).KNN(100).Stream(ctx) {
//	    if err != nil { break }
//	    process(row)
//	}
func (v VectorOps) Search(query []float32) *SearchBuilder {
	return &SearchBuilder{
		ops:   v,
		query: query,
		k:     10, // Default k
	}
}

// SearchBuilder is a fluent builder for similarity searches.
type SearchBuilder struct {
	ops   VectorOps
	query []float32
	k     int

	metric *distance.Metric
	args   Args
	opts   []CallOption
}

// KNN sets the number of candidates to fetch.
func (sb *SearchBuilder) KNN(k int) *SearchBuilder {
	sb.k = k
	return sb
}

// Metric re-ranks the candidates client side under m.
func (sb *SearchBuilder) Metric(m distance.Metric) *SearchBuilder {
	sb.metric = &m
	return sb
}

// Threshold drops candidates failing t under the re-ranking metric.
// Without Metric it has no effect.
func (sb *SearchBuilder) Threshold(t float64) *SearchBuilder {
	sb.opts = append(sb.opts, Threshold(t))
	return sb
}

// Where adds column constraints.
func (sb *SearchBuilder) Where(args Args) *SearchBuilder {
	if sb.args == nil {
		sb.args = make(Args, len(args))
	}
	maps.Copy(sb.args, args)
	return sb
}

// Partition restricts the search to one partition of a clustered table.
func (sb *SearchBuilder) Partition(id any) *SearchBuilder {
	return sb.Where(Args{ColumnPartitionID: id})
}

// AllPartitions searches across every partition, ignoring the table default.
func (sb *SearchBuilder) AllPartitions() *SearchBuilder {
	return sb.Partition(nil)
}

// WithMetadata adds metadata equality filters.
func (sb *SearchBuilder) WithMetadata(doc metadata.Document) *SearchBuilder {
	sb.opts = append(sb.opts, Metadata(doc))
	return sb
}

// BodySearch adds analyzer matches on the body.
func (sb *SearchBuilder) BodySearch(terms ...string) *SearchBuilder {
	sb.opts = append(sb.opts, BodySearch(terms...))
	return sb
}

// Execute runs the search and returns the rows.
func (sb *SearchBuilder) Execute(ctx context.Context) ([]Row, error) {
	if sb.metric != nil {
		return sb.ops.MetricANNSearch(ctx, sb.query, sb.k, *sb.metric, sb.args, sb.opts...)
	}
	return sb.ops.ANNSearch(ctx, sb.query, sb.k, sb.args, sb.opts...)
}

// ExecuteAsync is the future-returning form of Execute.
func (sb *SearchBuilder) ExecuteAsync(ctx context.Context) *Future[[]Row] {
	if sb.metric != nil {
		return sb.ops.MetricANNSearchAsync(ctx, sb.query, sb.k, *sb.metric, sb.args, sb.opts...)
	}
	return sb.ops.ANNSearchAsync(ctx, sb.query, sb.k, sb.args, sb.opts...)
}

// MustExecute runs the search, panicking on error.
// Use this only in tests or when you're certain the query is valid.
func (sb *SearchBuilder) MustExecute(ctx context.Context) []Row {
	rows, err := sb.Execute(ctx)
	if err != nil {
		panic(err)
	}
	return rows
}

// Stream returns an iterator over the rows, closest first.
// The iterator supports early termination by breaking from the loop.
func (sb *SearchBuilder) Stream(ctx context.Context) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		rows, err := sb.Execute(ctx)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, r := range rows {
			if !yield(r, nil) {
				return
			}
		}
	}
}

// First returns only the nearest row, or ErrNotFound.
func (sb *SearchBuilder) First(ctx context.Context) (Row, error) {
	sb.k = 1
	rows, err := sb.Execute(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// Count executes the search and returns the number of rows.
func (sb *SearchBuilder) Count(ctx context.Context) (int, error) {
	rows, err := sb.Execute(ctx)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Exists checks if at least one row matches the search.
func (sb *SearchBuilder) Exists(ctx context.Context) (bool, error) {
	sb.k = 1
	rows, err := sb.Execute(ctx)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}
