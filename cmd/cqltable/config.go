package main

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/cqltable"
	"github.com/hupe1980/cqltable/metadata"
)

// Definition is the YAML description of a set of tables.
type Definition struct {
	Keyspace string     `yaml:"keyspace"`
	Tables   []TableDef `yaml:"tables"`
}

// TableDef describes one table.
type TableDef struct {
	Name               string            `yaml:"name"`
	Capabilities       []string          `yaml:"capabilities"`
	RowIDType          []string          `yaml:"row_id_type"`
	PartitionIDType    []string          `yaml:"partition_id_type"`
	PrimaryKeyType     []string          `yaml:"primary_key_type"`
	NumPartitionKeys   int               `yaml:"num_partition_keys"`
	ClusteringOrder    []string          `yaml:"clustering_order"`
	Keys               []string          `yaml:"keys"`
	VectorDimension    int               `yaml:"vector_dimension"`
	SimilarityFunction string            `yaml:"similarity_function"`
	SourceModel        string            `yaml:"source_model"`
	TTL                int               `yaml:"ttl"`
	MetadataIndexing   *IndexingDef      `yaml:"metadata_indexing"`
	BodyIndex          map[string]string `yaml:"body_index"`
}

// IndexingDef is either a shorthand ("all", "none") or a mode with fields.
type IndexingDef struct {
	Policy string   `yaml:"policy"`
	Mode   string   `yaml:"mode"`
	Fields []string `yaml:"fields"`
}

// UnmarshalYAML accepts a bare shorthand string as well as the mapping form.
func (d *IndexingDef) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		d.Policy = value.Value
		return nil
	}
	type plain IndexingDef
	return value.Decode((*plain)(d))
}

func (d *IndexingDef) policy() (metadata.IndexingPolicy, error) {
	if d.Policy != "" {
		return metadata.ParsePolicy(d.Policy)
	}
	return metadata.ParseModePolicy(d.Mode, d.Fields...)
}

func loadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("can't read definition %s: %w", path, err)
	}
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("can't parse definition %s: %w", path, err)
	}
	return &def, nil
}

// tableSpec is a table definition resolved into constructor arguments.
type tableSpec struct {
	name string
	caps []cqltable.Capability
	opts []cqltable.Option
}

// resolve validates every table and collects all problems at once.
func (d *Definition) resolve(keyspace string) ([]tableSpec, error) {
	if keyspace == "" {
		keyspace = d.Keyspace
	}
	var errs *multierror.Error
	if len(d.Tables) == 0 {
		errs = multierror.Append(errs, fmt.Errorf("no tables defined"))
	}

	seen := map[string]struct{}{}
	specs := make([]tableSpec, 0, len(d.Tables))
	for i, td := range d.Tables {
		if td.Name == "" {
			errs = multierror.Append(errs, fmt.Errorf("table #%d: missing name", i))
			continue
		}
		if _, dup := seen[td.Name]; dup {
			errs = multierror.Append(errs, fmt.Errorf("table %s: defined twice", td.Name))
			continue
		}
		seen[td.Name] = struct{}{}

		spec, err := td.resolve(keyspace)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("table %s: %w", td.Name, err))
			continue
		}
		specs = append(specs, spec)
	}
	return specs, errs.ErrorOrNil()
}

func (td TableDef) resolve(keyspace string) (tableSpec, error) {
	spec := tableSpec{name: td.Name}
	var errs *multierror.Error
	for _, s := range td.Capabilities {
		c, err := cqltable.ParseCapability(s)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		spec.caps = append(spec.caps, c)
	}

	opts := []cqltable.Option{cqltable.WithKeyspace(keyspace)}
	if len(td.RowIDType) > 0 {
		opts = append(opts, cqltable.WithRowIDType(td.RowIDType...))
	}
	if len(td.PartitionIDType) > 0 {
		opts = append(opts, cqltable.WithPartitionIDType(td.PartitionIDType...))
	}
	if len(td.PrimaryKeyType) > 0 {
		opts = append(opts, cqltable.WithPrimaryKeyType(td.PrimaryKeyType...))
	}
	if td.NumPartitionKeys != 0 {
		opts = append(opts, cqltable.WithNumPartitionKeys(td.NumPartitionKeys))
	}
	if len(td.ClusteringOrder) > 0 {
		opts = append(opts, cqltable.WithClusteringOrder(td.ClusteringOrder...))
	}
	if len(td.Keys) > 0 {
		opts = append(opts, cqltable.WithKeys(td.Keys...))
	}
	if td.VectorDimension != 0 {
		opts = append(opts, cqltable.WithVectorDimension(td.VectorDimension))
	}
	if td.SimilarityFunction != "" {
		opts = append(opts, cqltable.WithSimilarityFunction(td.SimilarityFunction))
	}
	if td.SourceModel != "" {
		opts = append(opts, cqltable.WithSourceModel(td.SourceModel))
	}
	if td.TTL > 0 {
		opts = append(opts, cqltable.WithTTL(td.TTL))
	}
	if td.MetadataIndexing != nil {
		p, err := td.MetadataIndexing.policy()
		if err != nil {
			errs = multierror.Append(errs, err)
		} else {
			opts = append(opts, cqltable.WithMetadataIndexing(p))
		}
	}
	if td.BodyIndex != nil {
		opts = append(opts, cqltable.WithBodyIndexOptions(bodyIndexOptions(td.BodyIndex)...))
	}
	spec.opts = opts
	return spec, errs.ErrorOrNil()
}
