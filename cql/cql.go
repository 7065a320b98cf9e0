package cql

import (
	"fmt"
	"strings"

	"github.com/hupe1980/cqltable/predicate"
)

// OpType classifies a statement for logging, metrics and preparation.
type OpType int

const (
	// OpSchema statements provision tables and indexes. They are never prepared.
	OpSchema OpType = iota + 1
	// OpWrite statements mutate rows.
	OpWrite
	// OpRead statements return rows.
	OpRead
)

func (o OpType) String() string {
	switch o {
	case OpSchema:
		return "schema"
	case OpWrite:
		return "write"
	case OpRead:
		return "read"
	default:
		return fmt.Sprintf("OpType(%d)", int(o))
	}
}

// SAIClass is the index implementation used for every custom index.
const SAIClass = "org.apache.cassandra.index.sai.StorageAttachedIndex"

// TablePlaceholder marks where the fully-qualified table name goes.
const TablePlaceholder = "{table}"

// Template is statement text with the table name not yet bound.
type Template string

// For binds the fully-qualified table name.
func (t Template) For(fqName string) string {
	return strings.ReplaceAll(string(t), TablePlaceholder, fqName)
}

// Qualify returns "keyspace.table", or table alone when keyspace is empty.
func Qualify(keyspace, table string) string {
	if keyspace == "" {
		return table
	}
	return keyspace + "." + table
}

// Statement is a rendered statement ready for execution.
type Statement struct {
	Text   string
	Values []any
	Op     OpType
}

// Column is a (name, type) pair of the table schema.
type Column struct {
	Name string
	Type string
}

// Names returns the column names in order.
func Names(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}

// Where accumulates WHERE conditions and their bound values.
type Where struct {
	blocks []string
	values []any
}

// Cond adds "col op ?" for a predicate value and "col = ?" otherwise.
func (w *Where) Cond(col string, v any) {
	if p, ok := v.(predicate.Predicate); ok {
		op, val := p.Render()
		w.Raw(col+" "+op+" ?", val)
		return
	}
	w.Raw(col+" = ?", v)
}

// Entry adds an equality on one entry of a map column.
func (w *Where) Entry(col, key string, v any) {
	w.Raw(col+"[?] = ?", key, v)
}

// Analyzer adds a text-analyzer match "col : ?".
func (w *Where) Analyzer(col string, term any) {
	w.Raw(col+" : ?", term)
}

// Raw adds a pre-rendered block and its values.
func (w *Where) Raw(block string, values ...any) {
	w.blocks = append(w.blocks, block)
	w.values = append(w.values, values...)
}

// Append adds all conditions of other after those of w.
func (w *Where) Append(other *Where) {
	if other == nil {
		return
	}
	w.blocks = append(w.blocks, other.blocks...)
	w.values = append(w.values, other.values...)
}

// Len returns the number of conditions.
func (w *Where) Len() int {
	if w == nil {
		return 0
	}
	return len(w.blocks)
}

// Values returns the bound values in placeholder order.
func (w *Where) Values() []any {
	if w == nil {
		return nil
	}
	return append([]any(nil), w.values...)
}

// String joins the conditions with AND.
func (w *Where) String() string {
	if w == nil {
		return ""
	}
	return strings.Join(w.blocks, " AND ")
}

// IndexOption is one entry of an index OPTIONS map.
type IndexOption struct {
	Key   string
	Value string
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
