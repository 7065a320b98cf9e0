package cqltable

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/cqltable/cql"
	"github.com/hupe1980/cqltable/distance"
	"github.com/hupe1980/cqltable/driver"
	"github.com/hupe1980/cqltable/internal/conv"
)

// vectorCap adds the vector column and its index.
type vectorCap struct{}

func (vectorCap) kind() Capability { return CapVector }

func (vectorCap) contributeSchema(b *schemaBuilder) {
	dim := b.opts.vectorDimension
	if dim <= 0 && !b.opts.skipProvisioning {
		b.fail("vector dimension must be positive, got %d", dim)
	}
	b.da = append(b.da, cql.Column{Name: ColumnVector, Type: "VECTOR<FLOAT," + strconv.Itoa(dim) + ">"})
}

func (vectorCap) provisioning(t *Table) []cql.Template {
	var opts []cql.IndexOption
	if fn := t.opts.similarityFunction; fn != "" {
		opts = append(opts, cql.IndexOption{Key: "similarity_function", Value: fn})
	}
	if m := t.opts.sourceModel; m != "" {
		opts = append(opts, cql.IndexOption{Key: "source_model", Value: m})
	}
	return []cql.Template{cql.CreateIndex("idx_vector_"+t.name, ColumnVector, opts)}
}

func (vectorCap) normalizeArgs(t *Table, c *call) error {
	v, ok := c.args[ColumnVector]
	if !ok || v == nil || !c.isWrite() {
		return nil
	}
	vec, err := conv.Float32s(v)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if err := t.checkDimension(vec); err != nil {
		return err
	}
	c.args[ColumnVector] = vec
	return nil
}

func (vectorCap) normalizeRow(_ *Table, r Row) (Row, error) { return r, nil }

func (t *Table) checkDimension(vec []float32) error {
	if dim := t.opts.vectorDimension; dim > 0 && len(vec) != dim {
		return fmt.Errorf("%w: vector has %d dimension(s), table has %d", ErrInvalidArgument, len(vec), dim)
	}
	return nil
}

// cosineIndex reports whether the index similarity is cosine, the store default.
func (t *Table) cosineIndex() bool {
	fn := strings.ToLower(t.opts.similarityFunction)
	return fn == "" || fn == "cosine"
}

// VectorOps are the operations of vector tables.
type VectorOps struct {
	t *Table
}

// ANNSearch returns up to n rows ordered by the index similarity to vector.
//
// Further arguments constrain the search; on clustered tables an explicit
// nil partition_id searches across partitions.
func (v VectorOps) ANNSearch(ctx context.Context, vector []float32, n int, args Args, opts ...CallOption) ([]Row, error) {
	if err := v.t.ready(); err != nil {
		return nil, err
	}
	return v.annSearch(ctx, v.t.execute, vector, n, args, opts)
}

// ANNSearchAsync is the future-returning form of ANNSearch.
func (v VectorOps) ANNSearchAsync(ctx context.Context, vector []float32, n int, args Args, opts ...CallOption) *Future[[]Row] {
	args = maps.Clone(args)
	return goAsync(v.t, func() ([]Row, error) {
		return v.annSearch(ctx, v.t.executeAsync, vector, n, args, opts)
	})
}

// ANNSearchAwait waits for the table setup and then for ANNSearchAsync.
func (v VectorOps) ANNSearchAwait(ctx context.Context, vector []float32, n int, args Args, opts ...CallOption) ([]Row, error) {
	return awaitAsync(ctx, v.t, func() *Future[[]Row] { return v.ANNSearchAsync(ctx, vector, n, args, opts...) })
}

func (v VectorOps) annSearch(ctx context.Context, exec executor, vector []float32, n int, args Args, opts []CallOption) ([]Row, error) {
	t := v.t
	start := time.Now()
	rows, err := v.annRows(ctx, exec, vector, n, args, opts)
	t.metrics.RecordSearch(n, time.Since(start), err)
	t.logger.LogSearch(ctx, n, len(rows), err)
	return rows, err
}

func (v VectorOps) annRows(ctx context.Context, exec executor, vector []float32, n int, args Args, opts []CallOption) ([]Row, error) {
	t := v.t
	if err := t.require(CapVector); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: n must be positive, got %d", ErrInvalidArgument, n)
	}
	if err := t.checkDimension(vector); err != nil {
		return nil, err
	}
	if t.cosineIndex() && distance.IsZero(vector) {
		return nil, ErrZeroVector
	}

	c := newCall(callQuery, args, opts)
	if err := t.normalize(c); err != nil {
		return nil, err
	}
	w := t.where(c)
	vals := append(w.Values(), vector, n)

	raw, err := exec(ctx, cql.Statement{Text: cql.SelectANN(w, ColumnVector).For(t.fqName), Values: vals, Op: cql.OpRead})
	if err != nil && t.opts.legacyANNFallback && errors.Is(err, driver.ErrInvalidQuery) {
		t.logger.LogFallback(ctx, err)
		raw, err = exec(ctx, cql.Statement{Text: cql.SelectANNLegacy(w, ColumnVector).For(t.fqName), Values: vals, Op: cql.OpRead})
	}
	if err != nil {
		return nil, err
	}
	return t.normalizeRows(raw)
}

// MetricANNSearch runs ANNSearch and re-ranks the candidates client side
// under metric, closest first. Each returned row carries its score in the
// "distance" field. With the Threshold option, candidates failing the
// threshold under metric are dropped.
func (v VectorOps) MetricANNSearch(ctx context.Context, vector []float32, n int, metric distance.Metric, args Args, opts ...CallOption) ([]Row, error) {
	if err := v.t.ready(); err != nil {
		return nil, err
	}
	return v.metricSearch(ctx, v.t.execute, vector, n, metric, args, opts)
}

// MetricANNSearchAsync is the future-returning form of MetricANNSearch.
func (v VectorOps) MetricANNSearchAsync(ctx context.Context, vector []float32, n int, metric distance.Metric, args Args, opts ...CallOption) *Future[[]Row] {
	args = maps.Clone(args)
	return goAsync(v.t, func() ([]Row, error) {
		return v.metricSearch(ctx, v.t.executeAsync, vector, n, metric, args, opts)
	})
}

// MetricANNSearchAwait waits for the table setup and then for MetricANNSearchAsync.
func (v VectorOps) MetricANNSearchAwait(ctx context.Context, vector []float32, n int, metric distance.Metric, args Args, opts ...CallOption) ([]Row, error) {
	return awaitAsync(ctx, v.t, func() *Future[[]Row] {
		return v.MetricANNSearchAsync(ctx, vector, n, metric, args, opts...)
	})
}

func (v VectorOps) metricSearch(ctx context.Context, exec executor, vector []float32, n int, metric distance.Metric, args Args, opts []CallOption) ([]Row, error) {
	t := v.t
	start := time.Now()
	rows, err := v.rerank(ctx, exec, vector, n, metric, args, opts)
	t.metrics.RecordSearch(n, time.Since(start), err)
	t.logger.LogSearch(ctx, n, len(rows), err)
	return rows, err
}

func (v VectorOps) rerank(ctx context.Context, exec executor, vector []float32, n int, metric distance.Metric, args Args, opts []CallOption) ([]Row, error) {
	if _, err := distance.Provider(metric); err != nil {
		return nil, err
	}
	candidates, err := v.annRows(ctx, exec, vector, n, args, opts)
	if err != nil {
		return nil, err
	}

	batch := make([][]float32, len(candidates))
	for i, r := range candidates {
		vec, err := conv.Float32s(r[ColumnVector])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		batch[i] = vec
	}
	scores, err := distance.Scores(metric, vector, batch)
	if err != nil {
		return nil, err
	}

	threshold := applyCallOptions(opts).threshold
	type scored struct {
		row   Row
		score float64
	}
	kept := make([]scored, 0, len(candidates))
	for i, r := range candidates {
		s := scores[i]
		if threshold != nil && !metric.Passes(s, *threshold) {
			continue
		}
		kept = append(kept, scored{row: r, score: s})
	}

	slices.SortStableFunc(kept, func(a, b scored) int {
		aNaN, bNaN := math.IsNaN(a.score), math.IsNaN(b.score)
		switch {
		case aNaN && bNaN:
			return 0
		case aNaN:
			return 1
		case bNaN:
			return -1
		case metric.Closer(a.score, b.score):
			return -1
		case metric.Closer(b.score, a.score):
			return 1
		default:
			return 0
		}
	})

	out := make([]Row, len(kept))
	for i, k := range kept {
		k.row[FieldDistance] = k.score
		out[i] = k.row
	}
	return out, nil
}
