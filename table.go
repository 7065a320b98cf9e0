package cqltable

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync/atomic"
	"time"

	"github.com/hupe1980/cqltable/cql"
	"github.com/hupe1980/cqltable/driver"
	"github.com/hupe1980/cqltable/internal/bridge"
	"github.com/hupe1980/cqltable/internal/stmtcache"
	"github.com/hupe1980/cqltable/keycodec"
	"github.com/hupe1980/cqltable/predicate"
)

// Table is a table composed from the base layer and a set of capabilities.
//
// A Table is safe for concurrent use. Its schema is fixed at construction.
type Table struct {
	name     string
	keyspace string
	fqName   string

	session driver.Session
	stmts   *stmtcache.Cache
	opts    options
	logger  *Logger
	metrics MetricsCollector

	caps   []Capability
	chain  []capability
	schema Schema

	rowID     keyGroup
	partition keyGroup
	elastic   *keycodec.Elastic
	columnSet map[string]struct{}

	setup  *bridge.Promise[struct{}]
	closed atomic.Bool
}

// executor runs one statement and returns its rows.
type executor func(ctx context.Context, st cql.Statement) ([]driver.Row, error)

func newTable(ctx context.Context, session driver.Session, name string, caps []Capability, optFns []Option) (*Table, error) {
	o := applyOptions(optFns)
	if session == nil && o.resolver != nil {
		session = o.resolver.Session()
	}
	if session == nil {
		return nil, ErrNoSession
	}
	if name == "" {
		return nil, fmt.Errorf("%w: empty table name", ErrInvalidArgument)
	}

	kinds, chain, err := buildChain(caps)
	if err != nil {
		return nil, err
	}

	t := &Table{
		name:     name,
		keyspace: o.keyspace,
		fqName:   cql.Qualify(o.keyspace, name),
		session:  session,
		opts:     o,
		metrics:  o.metricsCollector,
		caps:     kinds,
		chain:    chain,
	}
	t.logger = o.logger.WithTable(t.fqName)

	b := &schemaBuilder{opts: &t.opts}
	normalizeTypes(b, t.has(CapClustered), t.has(CapElasticKey))
	if t.has(CapElasticKey) {
		e, err := keycodec.NewElastic(o.keys, o.codec)
		if err != nil {
			b.fail("%v", err)
		}
		t.elastic = e
	} else if len(o.keys) > 0 {
		b.fail("keys given for a table without the elastic key capability")
	}
	for _, c := range chain {
		c.contributeSchema(b)
	}
	s, err := b.finish()
	if err != nil {
		return nil, err
	}
	t.schema = s
	t.rowID = b.rowID
	t.partition = b.partition
	t.columnSet = make(map[string]struct{})
	for _, c := range s.Columns() {
		t.columnSet[c.Name] = struct{}{}
	}

	t.stmts = stmtcache.New(session, stmtcache.WithPrepareHook(t.metrics.RecordPrepare))

	if o.skipProvisioning {
		return t, nil
	}
	if o.asyncSetup {
		setupCtx := context.WithoutCancel(ctx)
		t.setup = bridge.Go(func() (struct{}, error) {
			return struct{}{}, t.dbSetup(setupCtx)
		})
		return t, nil
	}
	if err := t.dbSetup(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Keyspace returns the keyspace, empty when the session default is used.
func (t *Table) Keyspace() string { return t.keyspace }

// FQName returns the fully-qualified table name used in statements.
func (t *Table) FQName() string { return t.fqName }

// Schema returns a copy of the composed column layout.
func (t *Table) Schema() Schema { return t.schema.clone() }

// Capabilities returns the capabilities in precedence order.
func (t *Table) Capabilities() []Capability { return slices.Clone(t.caps) }

// Has reports whether the table was composed with c.
func (t *Table) Has(c Capability) bool { return t.has(c) }

func (t *Table) has(c Capability) bool {
	return slices.Contains(t.caps, c)
}

func (t *Table) require(c Capability) error {
	if !t.has(c) {
		return fmt.Errorf("%w: %v", ErrCapabilityMissing, c)
	}
	return nil
}

// Close releases the prepared statement handles. The session is owned by
// the caller and stays open.
func (t *Table) Close() error {
	if t == nil {
		return nil
	}
	if t.closed.CompareAndSwap(false, true) {
		t.stmts.Reset()
	}
	return nil
}

// ProvisioningStatements returns the schema statements DBSetup executes.
func (t *Table) ProvisioningStatements() []string {
	var out []string
	for _, c := range t.chain {
		for _, tmpl := range c.provisioning(t) {
			out = append(out, tmpl.For(t.fqName))
		}
	}
	return out
}

// DBSetup creates the table and its indexes if they do not exist.
//
// Schema statements are executed unprepared and synchronously.
func (t *Table) DBSetup(ctx context.Context) error {
	return t.dbSetup(ctx)
}

// DBSetupAwait waits for a background setup started by WithAsyncSetup, or
// runs DBSetup when there is none.
func (t *Table) DBSetupAwait(ctx context.Context) error {
	if t.setup == nil {
		return t.dbSetup(ctx)
	}
	_, err := t.setup.Await(ctx)
	return err
}

func (t *Table) dbSetup(ctx context.Context) error {
	stmts := t.ProvisioningStatements()
	var err error
	for _, text := range stmts {
		if err = t.executeSchema(ctx, text); err != nil {
			break
		}
	}
	t.logger.LogSetup(ctx, len(stmts), err)
	return err
}

func (t *Table) executeSchema(ctx context.Context, text string) error {
	rows, err := t.session.Execute(ctx, driver.Simple(text))
	if err == nil {
		_, err = driver.Collect(rows)
	}
	t.logger.LogStatement(ctx, cql.OpSchema, text, 0, err)
	return err
}

// ready fails fast while an asynchronous setup is pending.
func (t *Table) ready() error {
	if t.setup == nil {
		return nil
	}
	select {
	case <-t.setup.Done():
		_, err := t.setup.Wait()
		return err
	default:
		return ErrSetupNotFinished
	}
}

func (t *Table) awaitReady(ctx context.Context) error {
	if t.setup == nil {
		return nil
	}
	_, err := t.setup.Await(ctx)
	return err
}

// execute runs st through the blocking driver path.
func (t *Table) execute(ctx context.Context, st cql.Statement) ([]driver.Row, error) {
	if t.closed.Load() {
		return nil, ErrClosed
	}
	handle, err := t.stmts.Get(ctx, st.Text)
	if err != nil {
		t.logger.LogStatement(ctx, st.Op, st.Text, len(st.Values), err)
		return nil, err
	}
	var out []driver.Row
	rows, err := t.session.Execute(ctx, handle, st.Values...)
	if err == nil {
		out, err = driver.Collect(rows)
	}
	t.logger.LogStatement(ctx, st.Op, st.Text, len(st.Values), err)
	return out, err
}

// executeAsync runs st through the driver future and waits for its callback.
func (t *Table) executeAsync(ctx context.Context, st cql.Statement) ([]driver.Row, error) {
	if t.closed.Load() {
		return nil, ErrClosed
	}
	handle, err := t.stmts.Get(ctx, st.Text)
	if err != nil {
		t.logger.LogStatement(ctx, st.Op, st.Text, len(st.Values), err)
		return nil, err
	}
	out, err := bridge.FromFuture(t.session.ExecuteAsync(ctx, handle, st.Values...)).Wait()
	t.logger.LogStatement(ctx, st.Op, st.Text, len(st.Values), err)
	return out, err
}

// goAsync starts fn unless the table setup is still pending.
func goAsync[T any](t *Table, fn func() (T, error)) *Future[T] {
	if err := t.ready(); err != nil {
		return failedFuture[T](err)
	}
	return newFuture(bridge.Go(fn))
}

// awaitAsync waits for the table setup and then for the future start returns.
func awaitAsync[T any](ctx context.Context, t *Table, start func() *Future[T]) (T, error) {
	if err := t.awaitReady(ctx); err != nil {
		var zero T
		return zero, err
	}
	return start().Await(ctx)
}

// normalize runs c down the capability chain.
func (t *Table) normalize(c *call) error {
	if c.opts.hasMeta && !t.has(CapMetadata) {
		return fmt.Errorf("%w: %v", ErrCapabilityMissing, CapMetadata)
	}
	for i := len(t.chain) - 1; i >= 0; i-- {
		if err := t.chain[i].normalizeArgs(t, c); err != nil {
			return err
		}
	}
	return nil
}

// normalizeRows runs raw rows up the capability chain.
func (t *Table) normalizeRows(raw []driver.Row) ([]Row, error) {
	out := make([]Row, 0, len(raw))
	for _, r := range raw {
		row := Row(maps.Clone(r))
		var err error
		for _, c := range t.chain {
			if row, err = c.normalizeRow(t, row); err != nil {
				return nil, err
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (t *Table) checkColumns(args map[string]any) error {
	for _, k := range sortedKeys(args) {
		if _, ok := t.columnSet[k]; !ok {
			return &UnknownColumnError{Column: k}
		}
	}
	return nil
}

func (t *Table) isPartitionColumn(col string) bool {
	return t.partition.defined() && slices.Contains(t.partition.cols, col)
}

// checkKey enforces the primary key of keyed calls.
func (t *Table) checkKey(c *call) error {
	if !c.keyed() {
		return nil
	}
	var missing []string
	for _, col := range t.schema.PrimaryKey() {
		v, ok := c.args[col]
		switch {
		case c.isWrite() && (!ok || v == nil):
			missing = append(missing, col)
		case !c.isWrite() && !ok:
			if c.omitPartition && t.isPartitionColumn(col) {
				continue
			}
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &PrimaryKeyError{Missing: missing}
	}
	return nil
}

// where folds the normalized arguments into WHERE conditions.
func (t *Table) where(c *call) *cql.Where {
	w := &cql.Where{}
	w.Append(&c.prefix)
	for _, col := range t.schema.whereOrder() {
		v, ok := c.args[col]
		if !ok || (v == nil && t.isPartitionColumn(col)) {
			continue
		}
		w.Cond(col, v)
	}
	for _, term := range c.opts.body {
		w.Analyzer(ColumnBody, term)
	}
	return w
}

func (t *Table) insert(c *call) (cql.Statement, error) {
	var (
		cols []string
		vals []any
	)
	for _, col := range t.schema.whereOrder() {
		v, ok := c.args[col]
		if !ok {
			continue
		}
		if _, isPred := v.(predicate.Predicate); isPred {
			return cql.Statement{}, fmt.Errorf("%w: predicate value for %q in a write", ErrInvalidArgument, col)
		}
		cols = append(cols, col)
		vals = append(vals, v)
	}
	ttl := t.opts.ttl
	if c.opts.ttl != nil {
		ttl = *c.opts.ttl
	}
	if ttl > 0 {
		vals = append(vals, ttl)
	}
	return cql.Statement{Text: cql.Insert(cols, ttl > 0).For(t.fqName), Values: vals, Op: cql.OpWrite}, nil
}

func (t *Table) selectStmt(w *cql.Where, limit int) cql.Statement {
	vals := w.Values()
	if limit > 0 {
		vals = append(vals, limit)
	}
	return cql.Statement{Text: cql.Select(w, limit > 0).For(t.fqName), Values: vals, Op: cql.OpRead}
}

func (t *Table) deleteStmt(w *cql.Where) cql.Statement {
	return cql.Statement{Text: cql.Delete(w).For(t.fqName), Values: w.Values(), Op: cql.OpWrite}
}

// Put writes one row. Only the columns present in args are written.
func (t *Table) Put(ctx context.Context, args Args, opts ...CallOption) error {
	if err := t.ready(); err != nil {
		return err
	}
	return t.put(ctx, t.execute, args, opts)
}

// PutAsync is the future-returning form of Put.
func (t *Table) PutAsync(ctx context.Context, args Args, opts ...CallOption) *Future[struct{}] {
	args = maps.Clone(args)
	return goAsync(t, func() (struct{}, error) {
		return struct{}{}, t.put(ctx, t.executeAsync, args, opts)
	})
}

// PutAwait waits for the table setup and then for PutAsync.
func (t *Table) PutAwait(ctx context.Context, args Args, opts ...CallOption) error {
	_, err := awaitAsync(ctx, t, func() *Future[struct{}] { return t.PutAsync(ctx, args, opts...) })
	return err
}

func (t *Table) put(ctx context.Context, exec executor, args Args, opts []CallOption) error {
	start := time.Now()
	c := newCall(callPut, args, opts)
	err := t.normalize(c)
	if err == nil {
		var st cql.Statement
		if st, err = t.insert(c); err == nil {
			_, err = exec(ctx, st)
		}
	}
	t.metrics.RecordWrite(time.Since(start), err)
	t.logger.LogWrite(ctx, len(c.args), err)
	return err
}

// Get reads the row addressed by the full primary key in args.
// It returns a nil Row when there is no such row.
func (t *Table) Get(ctx context.Context, args Args, opts ...CallOption) (Row, error) {
	if err := t.ready(); err != nil {
		return nil, err
	}
	return t.get(ctx, t.execute, args, opts)
}

// GetAsync is the future-returning form of Get.
func (t *Table) GetAsync(ctx context.Context, args Args, opts ...CallOption) *Future[Row] {
	args = maps.Clone(args)
	return goAsync(t, func() (Row, error) {
		return t.get(ctx, t.executeAsync, args, opts)
	})
}

// GetAwait waits for the table setup and then for GetAsync.
func (t *Table) GetAwait(ctx context.Context, args Args, opts ...CallOption) (Row, error) {
	return awaitAsync(ctx, t, func() *Future[Row] { return t.GetAsync(ctx, args, opts...) })
}

func (t *Table) get(ctx context.Context, exec executor, args Args, opts []CallOption) (Row, error) {
	rows, err := t.query(ctx, exec, callGet, args, 0, opts)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// query runs a SELECT for the normalized arguments and normalizes the rows.
func (t *Table) query(ctx context.Context, exec executor, kind callKind, args Args, limit int, opts []CallOption) ([]Row, error) {
	start := time.Now()
	var rows []Row
	raw, err := t.queryRaw(ctx, exec, kind, args, limit, opts)
	if err == nil {
		rows, err = t.normalizeRows(raw)
	}
	t.metrics.RecordRead(len(rows), time.Since(start), err)
	t.logger.LogRead(ctx, len(rows), err)
	return rows, err
}

// queryRaw runs a SELECT and returns the rows as stored.
func (t *Table) queryRaw(ctx context.Context, exec executor, kind callKind, args Args, limit int, opts []CallOption) ([]driver.Row, error) {
	c := newCall(kind, args, opts)
	if err := t.normalize(c); err != nil {
		return nil, err
	}
	return exec(ctx, t.selectStmt(t.where(c), limit))
}

// keyWhere addresses a stored row by its physical primary key.
func (t *Table) keyWhere(raw driver.Row) *cql.Where {
	w := &cql.Where{}
	for _, col := range cql.Names(t.schema.Clustering) {
		w.Cond(col, raw[col])
	}
	for _, col := range cql.Names(t.schema.PartitionKey) {
		w.Cond(col, raw[col])
	}
	return w
}

// Delete removes the row addressed by the full primary key in args.
// Deleting a missing row is not an error.
func (t *Table) Delete(ctx context.Context, args Args, opts ...CallOption) error {
	if err := t.ready(); err != nil {
		return err
	}
	return t.delete(ctx, t.execute, args, opts)
}

// DeleteAsync is the future-returning form of Delete.
func (t *Table) DeleteAsync(ctx context.Context, args Args, opts ...CallOption) *Future[struct{}] {
	args = maps.Clone(args)
	return goAsync(t, func() (struct{}, error) {
		return struct{}{}, t.delete(ctx, t.executeAsync, args, opts)
	})
}

// DeleteAwait waits for the table setup and then for DeleteAsync.
func (t *Table) DeleteAwait(ctx context.Context, args Args, opts ...CallOption) error {
	_, err := awaitAsync(ctx, t, func() *Future[struct{}] { return t.DeleteAsync(ctx, args, opts...) })
	return err
}

func (t *Table) delete(ctx context.Context, exec executor, args Args, opts []CallOption) error {
	start := time.Now()
	c := newCall(callDelete, args, opts)
	err := t.normalize(c)
	var w *cql.Where
	if err == nil {
		w = t.where(c)
		_, err = exec(ctx, t.deleteStmt(w))
	}
	t.recordDelete(ctx, 1, w.Len(), start, err)
	return err
}

func (t *Table) recordDelete(ctx context.Context, count, conditions int, start time.Time, err error) {
	if err != nil {
		count = 0
	}
	t.metrics.RecordDelete(count, time.Since(start), err)
	t.logger.LogDelete(ctx, conditions, err)
}

// Clear truncates the table.
func (t *Table) Clear(ctx context.Context) error {
	if err := t.ready(); err != nil {
		return err
	}
	return t.clear(ctx, t.execute)
}

// ClearAsync is the future-returning form of Clear.
func (t *Table) ClearAsync(ctx context.Context) *Future[struct{}] {
	return goAsync(t, func() (struct{}, error) {
		return struct{}{}, t.clear(ctx, t.executeAsync)
	})
}

// ClearAwait waits for the table setup and then for ClearAsync.
func (t *Table) ClearAwait(ctx context.Context) error {
	_, err := awaitAsync(ctx, t, func() *Future[struct{}] { return t.ClearAsync(ctx) })
	return err
}

func (t *Table) clear(ctx context.Context, exec executor) error {
	start := time.Now()
	_, err := exec(ctx, cql.Statement{Text: cql.Truncate().For(t.fqName), Op: cql.OpWrite})
	t.recordDelete(ctx, 0, 0, start, err)
	return err
}

// primaryKeyOf returns the physical primary key values of a stored row.
func (t *Table) primaryKeyOf(raw driver.Row) []any {
	pk := t.schema.PrimaryKey()
	out := make([]any, len(pk))
	for i, col := range pk {
		out[i] = raw[col]
	}
	return out
}
