package cqltable

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/cqltable/cql"
	"github.com/hupe1980/cqltable/driver"
	"github.com/hupe1980/cqltable/metadata"
)

// metadataCap stores metadata split into an indexed map and an attribute blob.
type metadataCap struct{}

func (metadataCap) kind() Capability { return CapMetadata }

func (metadataCap) contributeSchema(b *schemaBuilder) {
	b.da = append(b.da,
		cql.Column{Name: ColumnAttributes, Type: "TEXT"},
		cql.Column{Name: ColumnMetadataS, Type: "MAP<TEXT,TEXT>"},
	)
}

func (metadataCap) provisioning(t *Table) []cql.Template {
	return []cql.Template{cql.CreateEntriesIndex("eidx_"+ColumnMetadataS+"_"+t.name, ColumnMetadataS)}
}

func (metadataCap) normalizeArgs(t *Table, c *call) error {
	doc, has, err := metadataArg(c)
	if err != nil {
		return err
	}
	policy := t.opts.metadataIndexing

	if c.isWrite() {
		if !has {
			return nil
		}
		// a given document replaces both columns, even when empty
		indexed, attrs := metadata.Split(doc, policy)
		c.args[ColumnMetadataS] = indexed
		c.args[ColumnAttributes] = nil
		if len(attrs) > 0 {
			blob, err := metadata.EncodeAttributes(t.opts.codec, attrs)
			if err != nil {
				return err
			}
			c.args[ColumnAttributes] = blob
		}
		return nil
	}

	if _, ok := c.args[ColumnAttributes]; ok {
		return &UnindexedFieldError{Field: ColumnAttributes}
	}
	if !has {
		return nil
	}
	fields := doc.Coerce()
	keys := sortedKeys(fields)
	for _, k := range keys {
		if !policy.IsIndexed(k) {
			return &UnindexedFieldError{Field: k}
		}
	}
	for _, k := range keys {
		c.prefix.Entry(ColumnMetadataS, k, fields[k])
	}
	return nil
}

// metadataArg takes the metadata document off the call.
func metadataArg(c *call) (metadata.Document, bool, error) {
	v, inArgs := c.args[FieldMetadata]
	delete(c.args, FieldMetadata)
	if c.opts.hasMeta {
		return c.opts.meta, true, nil
	}
	if !inArgs {
		return nil, false, nil
	}
	switch m := v.(type) {
	case nil:
		return metadata.Document{}, true, nil
	case metadata.Document:
		return m, true, nil
	case map[string]any:
		return metadata.DocumentFromAny(m), true, nil
	case map[string]string:
		doc := make(metadata.Document, len(m))
		for k, s := range m {
			doc[k] = metadata.String(s)
		}
		return doc, true, nil
	default:
		return nil, false, fmt.Errorf("%w: metadata must be a map, got %T", ErrInvalidArgument, v)
	}
}

func (metadataCap) normalizeRow(t *Table, r Row) (Row, error) {
	indexed := stringMap(r[ColumnMetadataS])
	var attrs map[string]string
	if v := r[ColumnAttributes]; v != nil {
		blob, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%s: unexpected %T", ColumnAttributes, v)
		}
		var err error
		if attrs, err = metadata.DecodeAttributes(t.opts.codec, blob); err != nil {
			return nil, err
		}
	}
	delete(r, ColumnMetadataS)
	delete(r, ColumnAttributes)
	r[FieldMetadata] = metadata.Merge(indexed, attrs)
	return r, nil
}

func stringMap(v any) map[string]string {
	switch m := v.(type) {
	case map[string]string:
		return m
	case map[string]any:
		out := make(map[string]string, len(m))
		for k, x := range m {
			out[k] = fmt.Sprint(x)
		}
		return out
	default:
		return map[string]string{}
	}
}

// EntryOps are the operations of metadata tables.
type EntryOps struct {
	t *Table
}

// FindEntries returns up to n rows matching args and the Metadata option.
func (e EntryOps) FindEntries(ctx context.Context, n int, args Args, opts ...CallOption) ([]Row, error) {
	if err := e.t.ready(); err != nil {
		return nil, err
	}
	return e.findEntries(ctx, e.t.execute, n, args, opts)
}

// FindEntriesAsync is the future-returning form of FindEntries.
func (e EntryOps) FindEntriesAsync(ctx context.Context, n int, args Args, opts ...CallOption) *Future[[]Row] {
	args = maps.Clone(args)
	return goAsync(e.t, func() ([]Row, error) {
		return e.findEntries(ctx, e.t.executeAsync, n, args, opts)
	})
}

// FindEntriesAwait waits for the table setup and then for FindEntriesAsync.
func (e EntryOps) FindEntriesAwait(ctx context.Context, n int, args Args, opts ...CallOption) ([]Row, error) {
	return awaitAsync(ctx, e.t, func() *Future[[]Row] { return e.FindEntriesAsync(ctx, n, args, opts...) })
}

func (e EntryOps) findEntries(ctx context.Context, exec executor, n int, args Args, opts []CallOption) ([]Row, error) {
	if err := e.t.require(CapMetadata); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: n must be positive, got %d", ErrInvalidArgument, n)
	}
	return e.t.query(ctx, exec, callQuery, args, n, opts)
}

// FindAndDeleteEntries deletes rows matching args in rounds of at most
// batchSize until none are left or n rows are deleted, and returns the
// number of confirmed deletions. n <= 0 deletes every match; batchSize <= 0
// selects 20.
//
// A row seen again in a later round is never counted twice. The first
// failed delete aborts the run.
func (e EntryOps) FindAndDeleteEntries(ctx context.Context, n, batchSize int, args Args, opts ...CallOption) (int, error) {
	if err := e.t.ready(); err != nil {
		return 0, err
	}
	return e.findAndDelete(ctx, e.t.execute, n, batchSize, args, opts)
}

// FindAndDeleteEntriesAsync is the future-returning form of FindAndDeleteEntries.
func (e EntryOps) FindAndDeleteEntriesAsync(ctx context.Context, n, batchSize int, args Args, opts ...CallOption) *Future[int] {
	args = maps.Clone(args)
	return goAsync(e.t, func() (int, error) {
		return e.findAndDelete(ctx, e.t.executeAsync, n, batchSize, args, opts)
	})
}

// FindAndDeleteEntriesAwait waits for the table setup and then for FindAndDeleteEntriesAsync.
func (e EntryOps) FindAndDeleteEntriesAwait(ctx context.Context, n, batchSize int, args Args, opts ...CallOption) (int, error) {
	return awaitAsync(ctx, e.t, func() *Future[int] {
		return e.FindAndDeleteEntriesAsync(ctx, n, batchSize, args, opts...)
	})
}

func (e EntryOps) findAndDelete(ctx context.Context, exec executor, n, batchSize int, args Args, opts []CallOption) (int, error) {
	t := e.t
	if err := t.require(CapMetadata); err != nil {
		return 0, err
	}
	if batchSize <= 0 {
		batchSize = defaultDeleteBatchSize
	}
	start := time.Now()

	visited := make(map[string]struct{})
	var err error
	for {
		limit := batchSize
		if n > 0 {
			limit = min(batchSize, n-len(visited))
			if limit <= 0 {
				break
			}
		}
		var rows []driver.Row
		if rows, err = t.queryRaw(ctx, exec, callQuery, args, limit, opts); err != nil || len(rows) == 0 {
			break
		}

		fresh := make(map[string]driver.Row)
		for _, r := range rows {
			id := fmt.Sprintf("%#v", t.primaryKeyOf(r))
			if _, seen := visited[id]; !seen {
				fresh[id] = r
			}
		}
		if len(fresh) == 0 {
			break
		}
		if err = e.deleteRows(ctx, exec, fresh, visited); err != nil {
			break
		}
	}

	t.metrics.RecordDelete(len(visited), time.Since(start), err)
	t.logger.LogBulkDelete(ctx, len(visited), err)
	return len(visited), err
}

// deleteRows deletes rows concurrently and records each confirmed deletion
// in visited.
func (e EntryOps) deleteRows(ctx context.Context, exec executor, rows map[string]driver.Row, visited map[string]struct{}) error {
	t := e.t
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.opts.deleteConcurrency)

	var mu sync.Mutex
	for id, r := range rows {
		g.Go(func() error {
			if lim := t.opts.deleteLimiter; lim != nil {
				if err := lim.Wait(gctx); err != nil {
					return err
				}
			}
			if _, err := exec(gctx, t.deleteStmt(t.keyWhere(r))); err != nil {
				return err
			}
			mu.Lock()
			visited[id] = struct{}{}
			mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}
