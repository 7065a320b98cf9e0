package cqltable

import (
	"fmt"

	"github.com/hupe1980/cqltable/cql"
)

// reservedNames cannot be used as elastic key names.
var reservedNames = []string{
	ColumnRowID, ColumnPartitionID, ColumnBody, ColumnVector, ColumnAttributes,
	ColumnMetadataS, ColumnKeyDesc, ColumnKeyVals, FieldMetadata, FieldDistance,
}

// elasticCap stores the caller-named key list as key_desc and key_vals.
type elasticCap struct{}

func (elasticCap) kind() Capability { return CapElasticKey }

func (elasticCap) contributeSchema(b *schemaBuilder) {
	for _, k := range b.opts.keys {
		for _, r := range reservedNames {
			if k == r {
				b.fail("key %q collides with a reserved column", k)
			}
		}
		for _, p := range b.partition.cols {
			if k == p {
				b.fail("key %q collides with a partition column", k)
			}
		}
	}
	b.replaceRowID([]cql.Column{
		{Name: ColumnKeyDesc, Type: "TEXT"},
		{Name: ColumnKeyVals, Type: "TEXT"},
	})
}

func (elasticCap) provisioning(*Table) []cql.Template { return nil }

func (elasticCap) normalizeArgs(t *Table, c *call) error {
	e := t.elastic
	for _, k := range []string{ColumnKeyDesc, ColumnKeyVals} {
		if _, ok := c.args[k]; ok {
			return fmt.Errorf("%w: %q is derived from the keys %v", ErrInvalidArgument, k, e.Keys())
		}
	}
	vals, ok, err := e.Encode(c.args)
	if err != nil {
		return err
	}
	if !ok {
		if c.keyed() {
			return &PrimaryKeyError{Missing: e.Keys()}
		}
		return nil
	}
	for _, k := range e.Keys() {
		delete(c.args, k)
	}
	c.args[ColumnKeyDesc] = e.Desc()
	c.args[ColumnKeyVals] = vals
	return nil
}

func (elasticCap) normalizeRow(t *Table, r Row) (Row, error) {
	desc, hasDesc := r[ColumnKeyDesc].(string)
	vals, hasVals := r[ColumnKeyVals].(string)
	if !hasDesc || !hasVals {
		return r, nil
	}
	keys, err := t.elastic.Decode(desc, vals)
	if err != nil {
		return nil, err
	}
	delete(r, ColumnKeyDesc)
	delete(r, ColumnKeyVals)
	for k, v := range keys {
		r[k] = v
	}
	return r, nil
}
