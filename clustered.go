package cqltable

import (
	"context"
	"fmt"
	"iter"
	"maps"
	"sync/atomic"
	"time"

	"github.com/hupe1980/cqltable/cql"
	"github.com/hupe1980/cqltable/keycodec"
)

// clusteredCap adds the partition key and moves the row id to clustering.
type clusteredCap struct{}

func (clusteredCap) kind() Capability { return CapClustered }

func (clusteredCap) contributeSchema(b *schemaBuilder) {
	types := b.partitionTypes
	if len(types) == 0 {
		types = []string{defaultPartitionType}
	}
	cols := keycodec.Columns(ColumnPartitionID, len(types))
	b.partition = keyGroup{name: ColumnPartitionID, cols: cols}
	b.cc = b.pk
	b.pk = columns(cols, types)
	b.rowIDInCC = true
}

func (clusteredCap) provisioning(*Table) []cql.Template { return nil }

func (clusteredCap) normalizeArgs(t *Table, c *call) error {
	v, ok := c.args[ColumnPartitionID]
	if !ok && t.opts.hasPartitionID {
		v, ok = t.opts.partitionID, true
		c.args[ColumnPartitionID] = v
	}
	if ok && v == nil {
		delete(c.args, ColumnPartitionID)
		c.omitPartition = true
		return nil
	}
	return c.pack(t.partition, true)
}

func (clusteredCap) normalizeRow(t *Table, r Row) (Row, error) {
	return unpack(r, t.partition), nil
}

// PartitionOps are the operations of clustered tables.
type PartitionOps struct {
	t *Table
}

// GetPartition returns the rows of one partition in clustering order.
//
// The partition comes from args["partition_id"] or the table default. An
// explicit nil partition scans across partitions. Further arguments
// constrain clustering and data columns; a row id tuple may be a prefix.
// n <= 0 means no limit.
//
// The statement runs when the sequence is ranged over. The sequence can be
// consumed once; precondition and store errors are yielded as the only
// element.
func (p PartitionOps) GetPartition(ctx context.Context, args Args, n int, opts ...CallOption) iter.Seq2[Row, error] {
	args = maps.Clone(args)
	var used atomic.Bool
	return func(yield func(Row, error) bool) {
		if !used.CompareAndSwap(false, true) {
			return
		}
		rows, err := p.getPartition(ctx, p.t.execute, true, args, n, opts)
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

// GetPartitionAsync is the future-returning form of GetPartition. The
// future resolves to the complete row slice.
func (p PartitionOps) GetPartitionAsync(ctx context.Context, args Args, n int, opts ...CallOption) *Future[[]Row] {
	args = maps.Clone(args)
	return goAsync(p.t, func() ([]Row, error) {
		return p.getPartition(ctx, p.t.executeAsync, false, args, n, opts)
	})
}

// GetPartitionAwait waits for the table setup and then for GetPartitionAsync.
func (p PartitionOps) GetPartitionAwait(ctx context.Context, args Args, n int, opts ...CallOption) ([]Row, error) {
	return awaitAsync(ctx, p.t, func() *Future[[]Row] { return p.GetPartitionAsync(ctx, args, n, opts...) })
}

func (p PartitionOps) getPartition(ctx context.Context, exec executor, gate bool, args Args, n int, opts []CallOption) ([]Row, error) {
	if err := p.t.require(CapClustered); err != nil {
		return nil, err
	}
	if gate {
		if err := p.t.ready(); err != nil {
			return nil, err
		}
	}
	return p.t.query(ctx, exec, callQuery, args, n, opts)
}

// DeletePartition removes a whole partition. The partition comes from
// args["partition_id"] or the table default; no other arguments are accepted.
func (p PartitionOps) DeletePartition(ctx context.Context, args Args) error {
	if err := p.t.ready(); err != nil {
		return err
	}
	return p.deletePartition(ctx, p.t.execute, args)
}

// DeletePartitionAsync is the future-returning form of DeletePartition.
func (p PartitionOps) DeletePartitionAsync(ctx context.Context, args Args) *Future[struct{}] {
	args = maps.Clone(args)
	return goAsync(p.t, func() (struct{}, error) {
		return struct{}{}, p.deletePartition(ctx, p.t.executeAsync, args)
	})
}

// DeletePartitionAwait waits for the table setup and then for DeletePartitionAsync.
func (p PartitionOps) DeletePartitionAwait(ctx context.Context, args Args) error {
	_, err := awaitAsync(ctx, p.t, func() *Future[struct{}] { return p.DeletePartitionAsync(ctx, args) })
	return err
}

func (p PartitionOps) deletePartition(ctx context.Context, exec executor, args Args) error {
	t := p.t
	if err := t.require(CapClustered); err != nil {
		return err
	}
	start := time.Now()
	for k := range args {
		if k != ColumnPartitionID {
			return fmt.Errorf("%w: %q is not a partition argument", ErrInvalidArgument, k)
		}
	}
	c := newCall(callQuery, args, nil)
	if err := (clusteredCap{}).normalizeArgs(t, c); err != nil {
		return err
	}
	w := &cql.Where{}
	var missing []string
	for _, col := range t.partition.cols {
		v, ok := c.args[col]
		if !ok || v == nil {
			missing = append(missing, col)
			continue
		}
		w.Cond(col, v)
	}
	if len(missing) > 0 {
		return &PrimaryKeyError{Missing: missing}
	}
	_, err := exec(ctx, t.deleteStmt(w))
	t.recordDelete(ctx, 0, w.Len(), start, err)
	return err
}
