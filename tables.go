package cqltable

import (
	"context"

	"github.com/hupe1980/cqltable/driver"
)

// The table shapes below fix a capability set at compile time. Each embeds
// *Table and the operation sets its capabilities enable.

// PlainTable is a key-value table keyed by row_id.
type PlainTable struct {
	*Table
}

// NewPlainTable creates the table and provisions it unless WithSkipProvisioning is set.
func NewPlainTable(ctx context.Context, session driver.Session, name string, opts ...Option) (*PlainTable, error) {
	t, err := newTable(ctx, session, name, nil, opts)
	if err != nil {
		return nil, err
	}
	return &PlainTable{Table: t}, nil
}

// ClusteredTable groups rows into partitions ordered by row_id.
type ClusteredTable struct {
	*Table
	PartitionOps
}

// NewClusteredTable creates the table and provisions it unless WithSkipProvisioning is set.
func NewClusteredTable(ctx context.Context, session driver.Session, name string, opts ...Option) (*ClusteredTable, error) {
	t, err := newTable(ctx, session, name, []Capability{CapClustered}, opts)
	if err != nil {
		return nil, err
	}
	return &ClusteredTable{Table: t, PartitionOps: PartitionOps{t}}, nil
}

// ElasticTable is keyed by the columns named with WithKeys.
type ElasticTable struct {
	*Table
}

// NewElasticTable creates the table and provisions it unless WithSkipProvisioning is set.
func NewElasticTable(ctx context.Context, session driver.Session, name string, opts ...Option) (*ElasticTable, error) {
	t, err := newTable(ctx, session, name, []Capability{CapElasticKey}, opts)
	if err != nil {
		return nil, err
	}
	return &ElasticTable{Table: t}, nil
}

// MetadataTable stores searchable metadata next to the body.
type MetadataTable struct {
	*Table
	EntryOps
}

// NewMetadataTable creates the table and provisions it unless WithSkipProvisioning is set.
func NewMetadataTable(ctx context.Context, session driver.Session, name string, opts ...Option) (*MetadataTable, error) {
	t, err := newTable(ctx, session, name, []Capability{CapMetadata}, opts)
	if err != nil {
		return nil, err
	}
	return &MetadataTable{Table: t, EntryOps: EntryOps{t}}, nil
}

// VectorTable stores an embedding vector per row and supports similarity search.
type VectorTable struct {
	*Table
	VectorOps
}

// NewVectorTable creates the table and provisions it unless WithSkipProvisioning is set.
func NewVectorTable(ctx context.Context, session driver.Session, name string, opts ...Option) (*VectorTable, error) {
	t, err := newTable(ctx, session, name, []Capability{CapVector}, opts)
	if err != nil {
		return nil, err
	}
	return &VectorTable{Table: t, VectorOps: VectorOps{t}}, nil
}

// ClusteredElasticTable combines the clustered and elastic key capabilities.
type ClusteredElasticTable struct {
	*Table
	PartitionOps
}

// NewClusteredElasticTable creates the table and provisions it unless WithSkipProvisioning is set.
func NewClusteredElasticTable(ctx context.Context, session driver.Session, name string, opts ...Option) (*ClusteredElasticTable, error) {
	t, err := newTable(ctx, session, name, []Capability{CapClustered, CapElasticKey}, opts)
	if err != nil {
		return nil, err
	}
	return &ClusteredElasticTable{Table: t, PartitionOps: PartitionOps{t}}, nil
}

// ClusteredMetadataTable combines the clustered and metadata capabilities.
type ClusteredMetadataTable struct {
	*Table
	PartitionOps
	EntryOps
}

// NewClusteredMetadataTable creates the table and provisions it unless WithSkipProvisioning is set.
func NewClusteredMetadataTable(ctx context.Context, session driver.Session, name string, opts ...Option) (*ClusteredMetadataTable, error) {
	t, err := newTable(ctx, session, name, []Capability{CapClustered, CapMetadata}, opts)
	if err != nil {
		return nil, err
	}
	return &ClusteredMetadataTable{Table: t, PartitionOps: PartitionOps{t}, EntryOps: EntryOps{t}}, nil
}

// ClusteredVectorTable combines the clustered and vector capabilities.
type ClusteredVectorTable struct {
	*Table
	PartitionOps
	VectorOps
}

// NewClusteredVectorTable creates the table and provisions it unless WithSkipProvisioning is set.
func NewClusteredVectorTable(ctx context.Context, session driver.Session, name string, opts ...Option) (*ClusteredVectorTable, error) {
	t, err := newTable(ctx, session, name, []Capability{CapClustered, CapVector}, opts)
	if err != nil {
		return nil, err
	}
	return &ClusteredVectorTable{Table: t, PartitionOps: PartitionOps{t}, VectorOps: VectorOps{t}}, nil
}

// ElasticMetadataTable combines the elastic key and metadata capabilities.
type ElasticMetadataTable struct {
	*Table
	EntryOps
}

// NewElasticMetadataTable creates the table and provisions it unless WithSkipProvisioning is set.
func NewElasticMetadataTable(ctx context.Context, session driver.Session, name string, opts ...Option) (*ElasticMetadataTable, error) {
	t, err := newTable(ctx, session, name, []Capability{CapElasticKey, CapMetadata}, opts)
	if err != nil {
		return nil, err
	}
	return &ElasticMetadataTable{Table: t, EntryOps: EntryOps{t}}, nil
}

// ElasticVectorTable combines the elastic key and vector capabilities.
type ElasticVectorTable struct {
	*Table
	VectorOps
}

// NewElasticVectorTable creates the table and provisions it unless WithSkipProvisioning is set.
func NewElasticVectorTable(ctx context.Context, session driver.Session, name string, opts ...Option) (*ElasticVectorTable, error) {
	t, err := newTable(ctx, session, name, []Capability{CapElasticKey, CapVector}, opts)
	if err != nil {
		return nil, err
	}
	return &ElasticVectorTable{Table: t, VectorOps: VectorOps{t}}, nil
}

// MetadataVectorTable combines the metadata and vector capabilities.
type MetadataVectorTable struct {
	*Table
	EntryOps
	VectorOps
}

// NewMetadataVectorTable creates the table and provisions it unless WithSkipProvisioning is set.
func NewMetadataVectorTable(ctx context.Context, session driver.Session, name string, opts ...Option) (*MetadataVectorTable, error) {
	t, err := newTable(ctx, session, name, []Capability{CapMetadata, CapVector}, opts)
	if err != nil {
		return nil, err
	}
	return &MetadataVectorTable{Table: t, EntryOps: EntryOps{t}, VectorOps: VectorOps{t}}, nil
}

// ClusteredElasticMetadataTable combines the clustered, elastic key, metadata capabilities.
type ClusteredElasticMetadataTable struct {
	*Table
	PartitionOps
	EntryOps
}

// NewClusteredElasticMetadataTable creates the table and provisions it unless WithSkipProvisioning is set.
func NewClusteredElasticMetadataTable(ctx context.Context, session driver.Session, name string, opts ...Option) (*ClusteredElasticMetadataTable, error) {
	t, err := newTable(ctx, session, name, []Capability{CapClustered, CapElasticKey, CapMetadata}, opts)
	if err != nil {
		return nil, err
	}
	return &ClusteredElasticMetadataTable{Table: t, PartitionOps: PartitionOps{t}, EntryOps: EntryOps{t}}, nil
}

// ClusteredElasticVectorTable combines the clustered, elastic key, vector capabilities.
type ClusteredElasticVectorTable struct {
	*Table
	PartitionOps
	VectorOps
}

// NewClusteredElasticVectorTable creates the table and provisions it unless WithSkipProvisioning is set.
func NewClusteredElasticVectorTable(ctx context.Context, session driver.Session, name string, opts ...Option) (*ClusteredElasticVectorTable, error) {
	t, err := newTable(ctx, session, name, []Capability{CapClustered, CapElasticKey, CapVector}, opts)
	if err != nil {
		return nil, err
	}
	return &ClusteredElasticVectorTable{Table: t, PartitionOps: PartitionOps{t}, VectorOps: VectorOps{t}}, nil
}

// ClusteredMetadataVectorTable combines the clustered, metadata, vector capabilities.
type ClusteredMetadataVectorTable struct {
	*Table
	PartitionOps
	EntryOps
	VectorOps
}

// NewClusteredMetadataVectorTable creates the table and provisions it unless WithSkipProvisioning is set.
func NewClusteredMetadataVectorTable(ctx context.Context, session driver.Session, name string, opts ...Option) (*ClusteredMetadataVectorTable, error) {
	t, err := newTable(ctx, session, name, []Capability{CapClustered, CapMetadata, CapVector}, opts)
	if err != nil {
		return nil, err
	}
	return &ClusteredMetadataVectorTable{Table: t, PartitionOps: PartitionOps{t}, EntryOps: EntryOps{t}, VectorOps: VectorOps{t}}, nil
}

// ElasticMetadataVectorTable combines the elastic key, metadata, vector capabilities.
type ElasticMetadataVectorTable struct {
	*Table
	EntryOps
	VectorOps
}

// NewElasticMetadataVectorTable creates the table and provisions it unless WithSkipProvisioning is set.
func NewElasticMetadataVectorTable(ctx context.Context, session driver.Session, name string, opts ...Option) (*ElasticMetadataVectorTable, error) {
	t, err := newTable(ctx, session, name, []Capability{CapElasticKey, CapMetadata, CapVector}, opts)
	if err != nil {
		return nil, err
	}
	return &ElasticMetadataVectorTable{Table: t, EntryOps: EntryOps{t}, VectorOps: VectorOps{t}}, nil
}

// ClusteredElasticMetadataVectorTable combines the clustered, elastic key, metadata, vector capabilities.
type ClusteredElasticMetadataVectorTable struct {
	*Table
	PartitionOps
	EntryOps
	VectorOps
}

// NewClusteredElasticMetadataVectorTable creates the table and provisions it unless WithSkipProvisioning is set.
func NewClusteredElasticMetadataVectorTable(ctx context.Context, session driver.Session, name string, opts ...Option) (*ClusteredElasticMetadataVectorTable, error) {
	t, err := newTable(ctx, session, name, []Capability{CapClustered, CapElasticKey, CapMetadata, CapVector}, opts)
	if err != nil {
		return nil, err
	}
	return &ClusteredElasticMetadataVectorTable{Table: t, PartitionOps: PartitionOps{t}, EntryOps: EntryOps{t}, VectorOps: VectorOps{t}}, nil
}

// DynamicTable is a table whose capabilities are chosen at run time.
// Operations of capabilities it lacks fail with ErrCapabilityMissing.
type DynamicTable struct {
	*Table
	PartitionOps
	EntryOps
	VectorOps
}

// Open creates a table with the given capabilities in any order.
func Open(ctx context.Context, session driver.Session, name string, caps []Capability, opts ...Option) (*DynamicTable, error) {
	t, err := newTable(ctx, session, name, caps, opts)
	if err != nil {
		return nil, err
	}
	return &DynamicTable{Table: t, PartitionOps: PartitionOps{t}, EntryOps: EntryOps{t}, VectorOps: VectorOps{t}}, nil
}
