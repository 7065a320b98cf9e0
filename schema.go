package cqltable

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/hupe1980/cqltable/cql"
	"github.com/hupe1980/cqltable/keycodec"
)

// Physical and logical column names shared by every table shape.
const (
	ColumnRowID          = "row_id"
	ColumnPartitionID    = "partition_id"
	ColumnBody           = "body_blob"
	ColumnVector         = "vector"
	ColumnAttributes     = "attributes_blob"
	ColumnMetadataS      = "metadata_s"
	ColumnKeyDesc        = keycodec.DescColumn
	ColumnKeyVals        = keycodec.ValsColumn
	FieldMetadata        = "metadata"
	FieldDistance        = "distance"
	defaultRowIDType     = defaultKeyType
	defaultPartitionType = defaultKeyType
)

// keyGroup binds one logical key name to its physical columns.
type keyGroup struct {
	name string
	cols []string
}

func (g keyGroup) defined() bool { return g.name != "" }

// Schema is the composed column layout of a table.
type Schema struct {
	PartitionKey []cql.Column
	Clustering   []cql.Column
	Data         []cql.Column
	// Orders holds ASC or DESC per clustering column.
	Orders []string
}

// PrimaryKey returns the partition key followed by the clustering columns.
func (s Schema) PrimaryKey() []string {
	return append(cql.Names(s.PartitionKey), cql.Names(s.Clustering)...)
}

// Columns returns every column in CREATE TABLE order.
func (s Schema) Columns() []cql.Column {
	out := make([]cql.Column, 0, len(s.PartitionKey)+len(s.Clustering)+len(s.Data))
	out = append(out, s.PartitionKey...)
	out = append(out, s.Clustering...)
	return append(out, s.Data...)
}

// whereOrder is the order in which argument columns are folded into
// WHERE and INSERT clauses.
func (s Schema) whereOrder() []string {
	out := cql.Names(s.Data)
	out = append(out, cql.Names(s.Clustering)...)
	return append(out, cql.Names(s.PartitionKey)...)
}

func (s Schema) clone() Schema {
	return Schema{
		PartitionKey: slices.Clone(s.PartitionKey),
		Clustering:   slices.Clone(s.Clustering),
		Data:         slices.Clone(s.Data),
		Orders:       slices.Clone(s.Orders),
	}
}

// schemaBuilder accumulates capability contributions.
type schemaBuilder struct {
	opts           *options
	rowIDTypes     []string
	partitionTypes []string

	pk, cc, da []cql.Column
	rowID      keyGroup
	partition  keyGroup
	rowIDInCC  bool

	errs *multierror.Error
}

func (b *schemaBuilder) fail(format string, args ...any) {
	b.errs = multierror.Append(b.errs, fmt.Errorf(format, args...))
}

func columns(names, types []string) []cql.Column {
	out := make([]cql.Column, len(names))
	for i := range names {
		out[i] = cql.Column{Name: names[i], Type: types[i]}
	}
	return out
}

// replaceRowID swaps the physical row-id columns for cols, wherever they live.
func (b *schemaBuilder) replaceRowID(cols []cql.Column) {
	if b.rowIDInCC {
		b.cc = cols
	} else {
		b.pk = cols
	}
	b.rowID = keyGroup{}
}

// finish validates the composed layout.
func (b *schemaBuilder) finish() (Schema, error) {
	s := Schema{PartitionKey: b.pk, Clustering: b.cc, Data: b.da}

	if len(s.PartitionKey) == 0 {
		b.fail("empty partition key")
	}

	orders, err := clusteringOrders(b.opts.clusteringOrder, len(s.Clustering))
	if err != nil {
		b.errs = multierror.Append(b.errs, err)
	}
	s.Orders = orders

	seen := make(map[string]struct{})
	for _, c := range s.Columns() {
		if _, dup := seen[c.Name]; dup {
			b.fail("duplicate column %q", c.Name)
		}
		seen[c.Name] = struct{}{}
		if strings.TrimSpace(c.Type) == "" {
			b.fail("column %q has no type", c.Name)
		}
	}

	if err := newSchemaError(b.errs); err != nil {
		return Schema{}, err
	}
	return s, nil
}

func clusteringOrders(given []string, n int) ([]string, error) {
	if n == 0 {
		if len(given) > 0 {
			return nil, fmt.Errorf("clustering order given for a table without clustering columns")
		}
		return nil, nil
	}
	if len(given) == 0 {
		given = []string{defaultClusteringOrder}
	}
	if len(given) == 1 && n > 1 {
		given = slices.Repeat(given, n)
	}
	if len(given) != n {
		return nil, fmt.Errorf("expected %d clustering order(s), got %d", n, len(given))
	}
	out := make([]string, n)
	for i, o := range given {
		o = strings.ToUpper(strings.TrimSpace(o))
		if o != "ASC" && o != "DESC" {
			return nil, fmt.Errorf("clustering order %d: %q is not ASC or DESC", i, given[i])
		}
		out[i] = o
	}
	return out, nil
}
