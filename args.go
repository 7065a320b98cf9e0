package cqltable

import (
	"maps"
	"slices"

	"github.com/hupe1980/cqltable/cql"
	"github.com/hupe1980/cqltable/keycodec"
)

// Args maps column (or logical key) names to values. A value may be a
// predicate.Predicate to constrain a column by more than equality, or a
// keycodec.Tuple for keys spread over several columns.
type Args map[string]any

// Row is one returned row keyed by column name, with multicolumn keys folded
// back into tuples and metadata merged into the "metadata" field.
type Row map[string]any

// Tuple is the value of a key spread over numbered columns.
type Tuple = keycodec.Tuple

type callKind int

const (
	callPut callKind = iota
	callGet
	callDelete
	callQuery
)

// call is the in-flight state of one table call while it moves down the
// capability chain.
type call struct {
	kind callKind
	args map[string]any
	opts callOptions

	// prefix holds conditions rendered ahead of the column fold.
	prefix cql.Where
	// omitPartition records an explicit nil partition.
	omitPartition bool
}

func newCall(kind callKind, args Args, opts []CallOption) *call {
	a := make(map[string]any, len(args))
	maps.Copy(a, args)
	return &call{kind: kind, args: a, opts: applyCallOptions(opts)}
}

func (c *call) isWrite() bool { return c.kind == callPut }

// keyed reports whether the call addresses exactly one row.
func (c *call) keyed() bool { return c.kind != callQuery }

func (c *call) pack(g keyGroup, full bool) error {
	if v, ok := c.args[g.name]; ok && v == nil && !keycodec.IsMulti(g.name, g.cols) {
		// a literal null constraint on a single column
		return nil
	}
	out, err := keycodec.Pack(c.args, g.name, g.cols, full)
	if err != nil {
		return err
	}
	c.args = out
	return nil
}

func unpack(r Row, g keyGroup) Row {
	return keycodec.Unpack(r, g.name, g.cols)
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
