package cqltable

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hupe1980/cqltable/cql"
	"github.com/hupe1980/cqltable/keycodec"
)

// Capability is an optional feature layered onto the base table.
//
// Capabilities compose in a fixed precedence order regardless of the order
// in which they are listed.
type Capability int

const (
	capBase Capability = iota
	// CapVector adds a fixed-dimension vector column and similarity search.
	CapVector
	// CapClustered adds a partition key and turns the row id into clustering columns.
	CapClustered
	// CapElasticKey replaces the row id with a caller-named key list.
	CapElasticKey
	// CapMetadata adds searchable metadata and entry search.
	CapMetadata
)

func (c Capability) String() string {
	switch c {
	case capBase:
		return "base"
	case CapVector:
		return "vector"
	case CapClustered:
		return "clustered"
	case CapElasticKey:
		return "elastic_key"
	case CapMetadata:
		return "metadata"
	default:
		return fmt.Sprintf("Capability(%d)", int(c))
	}
}

// ParseCapability maps a capability name to its Capability.
func ParseCapability(s string) (Capability, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vector":
		return CapVector, nil
	case "clustered":
		return CapClustered, nil
	case "elastic", "elastic_key", "elastickey":
		return CapElasticKey, nil
	case "metadata":
		return CapMetadata, nil
	default:
		return 0, fmt.Errorf("%w: unknown capability %q", ErrInvalidArgument, s)
	}
}

// capability is one layer of the table.
//
// Schema contributions and provisioning run in ascending precedence.
// Argument normalization runs top down, row normalization bottom up.
type capability interface {
	kind() Capability
	contributeSchema(b *schemaBuilder)
	provisioning(t *Table) []cql.Template
	normalizeArgs(t *Table, c *call) error
	normalizeRow(t *Table, r Row) (Row, error)
}

func newCapability(k Capability) (capability, error) {
	switch k {
	case CapVector:
		return vectorCap{}, nil
	case CapClustered:
		return clusteredCap{}, nil
	case CapElasticKey:
		return elasticCap{}, nil
	case CapMetadata:
		return metadataCap{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown capability %v", ErrInvalidArgument, k)
	}
}

// buildChain sorts and deduplicates caps and returns the layers, base first.
func buildChain(caps []Capability) ([]Capability, []capability, error) {
	kinds := slices.Clone(caps)
	slices.Sort(kinds)
	kinds = slices.Compact(kinds)

	chain := []capability{baseCap{}}
	for _, k := range kinds {
		c, err := newCapability(k)
		if err != nil {
			return nil, nil, err
		}
		chain = append(chain, c)
	}
	return kinds, chain, nil
}

// baseCap owns the row id, the body column and the key checks.
type baseCap struct{}

func (baseCap) kind() Capability { return capBase }

func (baseCap) contributeSchema(b *schemaBuilder) {
	types := b.rowIDTypes
	if len(types) == 0 {
		types = []string{defaultRowIDType}
	}
	cols := keycodec.Columns(ColumnRowID, len(types))
	b.rowID = keyGroup{name: ColumnRowID, cols: cols}
	b.pk = columns(cols, types)
	b.da = append(b.da, cql.Column{Name: ColumnBody, Type: "TEXT"})
}

func (baseCap) provisioning(t *Table) []cql.Template {
	s := t.schema
	out := []cql.Template{
		cql.CreateTable(s.Columns(), cql.Names(s.PartitionKey), cql.Names(s.Clustering), s.Orders),
	}
	if len(t.opts.bodyIndexOptions) > 0 {
		out = append(out, cql.CreateIndex("idx_body_"+t.name, ColumnBody, t.opts.bodyIndexOptions))
	}
	return out
}

func (baseCap) normalizeArgs(t *Table, c *call) error {
	if t.rowID.defined() {
		if err := c.pack(t.rowID, c.keyed()); err != nil {
			return err
		}
	}
	if err := t.checkColumns(c.args); err != nil {
		return err
	}
	return t.checkKey(c)
}

func (baseCap) normalizeRow(t *Table, r Row) (Row, error) {
	if t.rowID.defined() {
		r = unpack(r, t.rowID)
	}
	return r, nil
}
