package cqltable

import "slices"

// normalizeTypes resolves the key type options into row-id and partition
// types on b.
//
// WithPrimaryKeyType describes the whole primary key as one list. On
// clustered tables its first WithNumPartitionKeys entries (one by default)
// type the partition key and the rest type the row id. With an elastic key
// the row-id part types the key columns and must match them one to one.
func normalizeTypes(b *schemaBuilder, clustered, elastic bool) {
	o := b.opts

	if o.numPartitionKeys != 0 && !clustered {
		b.fail("partition key count given for a table without clustering")
	}
	if elastic && len(o.rowIDType) > 0 {
		b.fail("row id type cannot be set on an elastic key table")
	}

	if len(o.primaryKeyType) == 0 {
		b.rowIDTypes = slices.Clone(o.rowIDType)
		b.partitionTypes = slices.Clone(o.partitionIDType)
		return
	}
	if len(o.rowIDType) > 0 || len(o.partitionIDType) > 0 {
		b.fail("primary key type cannot be combined with row id or partition id types")
		return
	}

	types := o.primaryKeyType
	rest := types
	if clustered {
		n := o.numPartitionKeys
		if n == 0 {
			n = 1
		}
		if n < 0 || n >= len(types) {
			b.fail("cannot take %d partition key type(s) from %d primary key type(s)", n, len(types))
			return
		}
		b.partitionTypes = slices.Clone(types[:n])
		rest = types[n:]
	}

	if elastic {
		if len(rest) != len(o.keys) {
			b.fail("expected %d key type(s) for keys %v, got %d", len(o.keys), o.keys, len(rest))
		}
		return
	}
	b.rowIDTypes = slices.Clone(rest)
}
