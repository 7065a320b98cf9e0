package memdriver

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/hupe1980/cqltable/distance"
	"github.com/hupe1980/cqltable/driver"
	"github.com/hupe1980/cqltable/internal/conv"
)

// ErrUnknownTable is returned for statements on tables never created.
var ErrUnknownTable = errors.New("unconfigured table")

var (
	reCreateTable = regexp.MustCompile(`^CREATE TABLE IF NOT EXISTS (\S+) \((.*?)\)(?: WITH CLUSTERING ORDER BY \((.*)\))?;$`)
	rePrimaryKey  = regexp.MustCompile(`^PRIMARY KEY \(\((.*?)\)(.*)\)$`)
	reCreateIndex = regexp.MustCompile(`^CREATE CUSTOM INDEX IF NOT EXISTS (\S+) ON (\S+) \((.+?)\) USING '[^']*'(?: WITH OPTIONS = \{(.*)\})?;$`)
	reIndexOption = regexp.MustCompile(`'([^']*)': '([^']*)'`)
	reTruncate    = regexp.MustCompile(`^TRUNCATE TABLE (\S+);$`)
	reDelete      = regexp.MustCompile(`^DELETE FROM (\S+) WHERE (.+);$`)
	reInsert      = regexp.MustCompile(`^INSERT INTO (\S+) \((.*?)\) VALUES \((.*?)\)( USING TTL \?)?;$`)
	reSelect      = regexp.MustCompile(`^SELECT \* FROM (\S+)(?: WHERE (.*?))?(?: ORDER BY (\w+) ANN OF \?)?( LIMIT \?)?;$`)

	reEntryCond    = regexp.MustCompile(`^(\w+)\[\?\] = \?$`)
	reAnalyzerCond = regexp.MustCompile(`^(\w+) : \?$`)
	reANNCond      = regexp.MustCompile(`^(\w+) ANN OF \?$`)
	reCompareCond  = regexp.MustCompile(`^(\w+) (=|<|<=|>|>=) \?$`)
)

// Option configures a Store.
type Option func(*Store)

// WithRejectANNOrderBy makes the store reject the ORDER BY ... ANN OF syntax
// as an invalid query, like servers that only know the older syntax.
func WithRejectANNOrderBy() Option {
	return func(s *Store) {
		s.rejectOrderBy = true
	}
}

// Store is an in-memory wide-column store. It is safe for concurrent use.
type Store struct {
	tables        *xsync.MapOf[string, *table]
	prepares      atomic.Int64
	rejectOrderBy bool
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{tables: xsync.NewMapOf[string, *table]()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type statement string

func (s statement) Text() string { return string(s) }

// Prepare implements driver.Session.
func (s *Store) Prepare(_ context.Context, text string) (driver.Statement, error) {
	s.prepares.Add(1)
	return statement(text), nil
}

// Prepares returns the number of Prepare calls.
func (s *Store) Prepares() int { return int(s.prepares.Load()) }

// Execute implements driver.Session.
func (s *Store) Execute(ctx context.Context, stmt driver.Statement, values ...any) (driver.Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.exec(stmt.Text(), values)
	if err != nil {
		return nil, err
	}
	return driver.NewSliceRows(rows, nil), nil
}

// ExecuteAsync implements driver.Session.
func (s *Store) ExecuteAsync(ctx context.Context, stmt driver.Statement, values ...any) driver.Future {
	return driver.Go(func() (driver.Rows, error) {
		return s.Execute(ctx, stmt, values...)
	})
}

// Rows returns a snapshot of a table in primary key order.
func (s *Store) Rows(name string) ([]driver.Row, error) {
	t, ok := s.tables.Load(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.scan(nil), nil
}

// Similarity returns the similarity function recorded by the vector index
// of a table, or "" when it has none.
func (s *Store) Similarity(name string) string {
	t, ok := s.tables.Load(name)
	if !ok {
		return ""
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.similarity
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", driver.ErrInvalidQuery, fmt.Sprintf(format, args...))
}

func (s *Store) exec(text string, values []any) ([]driver.Row, error) {
	switch {
	case strings.HasPrefix(text, "CREATE TABLE"):
		return nil, s.createTable(text)
	case strings.HasPrefix(text, "CREATE CUSTOM INDEX"):
		return nil, s.createIndex(text)
	case strings.HasPrefix(text, "TRUNCATE"):
		m := reTruncate.FindStringSubmatch(text)
		if m == nil {
			return nil, invalid("malformed truncate: %s", text)
		}
		t, err := s.table(m[1])
		if err != nil {
			return nil, err
		}
		t.mu.Lock()
		clear(t.rows)
		t.mu.Unlock()
		return nil, nil
	case strings.HasPrefix(text, "INSERT"):
		return nil, s.insert(text, values)
	case strings.HasPrefix(text, "DELETE"):
		return nil, s.delete(text, values)
	case strings.HasPrefix(text, "SELECT"):
		return s.query(text, values)
	default:
		return nil, invalid("unsupported statement: %s", text)
	}
}

func (s *Store) table(name string) (*table, error) {
	t, ok := s.tables.Load(name)
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", driver.ErrInvalidQuery, ErrUnknownTable, name)
	}
	return t, nil
}

func (s *Store) createTable(text string) error {
	m := reCreateTable.FindStringSubmatch(text)
	if m == nil {
		return invalid("malformed create table: %s", text)
	}
	t := &table{types: make(map[string]string), rows: make(map[string]driver.Row)}
	for _, item := range splitTopLevel(m[2]) {
		if pk := rePrimaryKey.FindStringSubmatch(item); pk != nil {
			t.pk = splitList(pk[1])
			t.cc = splitList(strings.TrimPrefix(pk[2], ","))
			continue
		}
		name, typ, ok := strings.Cut(item, " ")
		if !ok {
			return invalid("malformed column %q", item)
		}
		t.columns = append(t.columns, name)
		t.types[name] = typ
	}
	if len(t.pk) == 0 {
		return invalid("missing primary key: %s", text)
	}
	t.desc = make([]bool, len(t.cc))
	for i, o := range splitList(m[3]) {
		if i < len(t.desc) {
			t.desc[i] = strings.HasSuffix(o, " DESC")
		}
	}
	s.tables.LoadOrStore(m[1], t)
	return nil
}

func (s *Store) createIndex(text string) error {
	m := reCreateIndex.FindStringSubmatch(text)
	if m == nil {
		return invalid("malformed create index: %s", text)
	}
	t, err := s.table(m[2])
	if err != nil {
		return err
	}
	col := m[3]
	if inner, ok := strings.CutPrefix(col, "ENTRIES("); ok {
		col = strings.TrimSuffix(inner, ")")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	typ, ok := t.types[col]
	if !ok {
		return invalid("undefined column %s", col)
	}
	if strings.HasPrefix(typ, "VECTOR<") {
		t.similarity = "cosine"
		for _, o := range reIndexOption.FindAllStringSubmatch(m[4], -1) {
			if o[1] == "similarity_function" {
				t.similarity = strings.ToLower(o[2])
			}
		}
	}
	return nil
}

func (s *Store) insert(text string, values []any) error {
	m := reInsert.FindStringSubmatch(text)
	if m == nil {
		return invalid("malformed insert: %s", text)
	}
	t, err := s.table(m[1])
	if err != nil {
		return err
	}
	cols := splitList(m[2])
	want := len(cols)
	if m[4] != "" {
		want++
	}
	if len(values) != want {
		return invalid("expected %d bound values, got %d", want, len(values))
	}

	row := make(driver.Row, len(cols))
	for i, c := range cols {
		if _, ok := t.types[c]; !ok {
			return invalid("undefined column %s", c)
		}
		row[c] = values[i]
	}
	key, err := t.key(row)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	stored, ok := t.rows[key]
	if !ok {
		stored = make(driver.Row)
		t.rows[key] = stored
	}
	for c, v := range row {
		v = storable(v)
		if v == nil {
			delete(stored, c)
			continue
		}
		stored[c] = v
	}
	return nil
}

func (s *Store) delete(text string, values []any) error {
	m := reDelete.FindStringSubmatch(text)
	if m == nil {
		return invalid("malformed delete: %s", text)
	}
	t, err := s.table(m[1])
	if err != nil {
		return err
	}
	f, rest, err := parseWhere(t, m[2], values)
	if err != nil {
		return err
	}
	if len(rest) != 0 || f.ann != "" {
		return invalid("unexpected bound values in delete")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for k, r := range t.rows {
		if f.match(r) {
			delete(t.rows, k)
		}
	}
	return nil
}

func (s *Store) query(text string, values []any) ([]driver.Row, error) {
	m := reSelect.FindStringSubmatch(text)
	if m == nil {
		return nil, invalid("malformed select: %s", text)
	}
	if m[3] != "" && s.rejectOrderBy {
		return nil, invalid("ORDER BY ... ANN OF is not supported")
	}
	t, err := s.table(m[1])
	if err != nil {
		return nil, err
	}
	f, rest, err := parseWhere(t, m[2], values)
	if err != nil {
		return nil, err
	}
	if m[3] != "" {
		if len(rest) == 0 {
			return nil, invalid("missing ANN vector")
		}
		f.ann, f.query, rest = m[3], rest[0], rest[1:]
	}
	limit := -1
	if m[4] != "" {
		if len(rest) == 0 {
			return nil, invalid("missing LIMIT value")
		}
		n, ok := conv.Int64(rest[0])
		if !ok || n <= 0 {
			return nil, invalid("LIMIT must be a positive integer")
		}
		limit, rest = int(n), rest[1:]
	}
	if len(rest) != 0 {
		return nil, invalid("too many bound values")
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []driver.Row
	if f.ann != "" {
		out, err = t.nearest(f)
		if err != nil {
			return nil, err
		}
	} else {
		out = t.scan(f)
	}
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// table is one stored table.
type table struct {
	mu         sync.RWMutex
	columns    []string
	types      map[string]string
	pk, cc     []string
	desc       []bool
	similarity string
	rows       map[string]driver.Row
}

func (t *table) key(row driver.Row) (string, error) {
	parts := make([]any, 0, len(t.pk)+len(t.cc))
	for _, c := range append(slices.Clone(t.pk), t.cc...) {
		v, ok := row[c]
		if !ok || v == nil {
			return "", invalid("missing primary key column %s", c)
		}
		if i, isInt := conv.Int64(v); isInt {
			v = i
		}
		parts = append(parts, v)
	}
	return fmt.Sprintf("%#v", parts), nil
}

// scan returns the rows matching f in partition and clustering order.
func (t *table) scan(f *filter) []driver.Row {
	var out []driver.Row
	for _, r := range t.rows {
		if f == nil || f.match(r) {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, t.compareRows)
	for i, r := range out {
		out[i] = t.project(r)
	}
	return out
}

func (t *table) nearest(f *filter) ([]driver.Row, error) {
	q, err := conv.Float32s(f.query)
	if err != nil {
		return nil, invalid("ANN vector: %v", err)
	}
	type scored struct {
		row   driver.Row
		score float64
	}
	var cands []scored
	for _, r := range t.rows {
		if !f.match(r) {
			continue
		}
		v, err := conv.Float32s(r[f.ann])
		if err != nil {
			continue
		}
		cands = append(cands, scored{r, t.score(q, v)})
	}
	slices.SortStableFunc(cands, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		default:
			return t.compareRows(a.row, b.row)
		}
	})
	out := make([]driver.Row, len(cands))
	for i, c := range cands {
		out[i] = t.project(c.row)
	}
	return out, nil
}

// score is a similarity where larger is closer.
func (t *table) score(q, v []float32) float64 {
	switch t.similarity {
	case "dot_product":
		return distance.Dot(q, v)
	case "euclidean":
		return -distance.L2(q, v)
	default:
		return distance.Cosine(q, v)
	}
}

func (t *table) compareRows(a, b driver.Row) int {
	for _, c := range t.pk {
		if d := compareValues(a[c], b[c]); d != 0 {
			return d
		}
	}
	for i, c := range t.cc {
		d := compareValues(a[c], b[c])
		if t.desc[i] {
			d = -d
		}
		if d != 0 {
			return d
		}
	}
	return 0
}

// project returns a copy of r carrying every column, nil when unset.
func (t *table) project(r driver.Row) driver.Row {
	out := make(driver.Row, len(t.columns))
	for _, c := range t.columns {
		v := r[c]
		if m, ok := v.(map[string]string); ok {
			v = maps.Clone(m)
		}
		out[c] = v
	}
	return out
}

func compareValues(a, b any) int {
	if c, ok := conv.Compare(a, b); ok {
		return c
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// storable copies maps and turns empty collections into nulls.
func storable(v any) any {
	switch x := v.(type) {
	case map[string]string:
		if len(x) == 0 {
			return nil
		}
		return maps.Clone(x)
	case map[string]any:
		if len(x) == 0 {
			return nil
		}
		out := make(map[string]string, len(x))
		for k, e := range x {
			out[k] = fmt.Sprint(e)
		}
		return out
	default:
		return v
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitTopLevel splits on commas outside of () and <>.
func splitTopLevel(s string) []string {
	var (
		out   []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '(', '<':
			depth++
		case ')', '>':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}
