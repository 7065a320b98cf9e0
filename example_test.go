package cqltable_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/cqltable"
	"github.com/hupe1980/cqltable/distance"
	"github.com/hupe1980/cqltable/driver/memdriver"
	"github.com/hupe1980/cqltable/metadata"
)

// Example_provisioning prints the schema statements of a composed table.
func Example_provisioning() {
	tbl, err := cqltable.NewClusteredMetadataTable(context.Background(), memdriver.New(), "notes",
		cqltable.WithKeyspace("app"),
		cqltable.WithSkipProvisioning(),
	)
	if err != nil {
		log.Fatal(err)
	}

	for _, stmt := range tbl.ProvisioningStatements() {
		fmt.Println(stmt)
	}
	// Output:
	// CREATE TABLE IF NOT EXISTS app.notes (partition_id TEXT, row_id TEXT, body_blob TEXT, attributes_blob TEXT, metadata_s MAP<TEXT,TEXT>, PRIMARY KEY ((partition_id), row_id)) WITH CLUSTERING ORDER BY (row_id ASC);
	// CREATE CUSTOM INDEX IF NOT EXISTS eidx_metadata_s_notes ON app.notes (ENTRIES(metadata_s)) USING 'org.apache.cassandra.index.sai.StorageAttachedIndex';
}

// Example_metadata demonstrates storing and filtering on metadata.
func Example_metadata() {
	ctx := context.Background()
	tbl, err := cqltable.NewMetadataTable(ctx, memdriver.New(), "docs",
		cqltable.WithMetadataIndexing(metadata.AllowList("lang")))
	if err != nil {
		log.Fatal(err)
	}
	defer tbl.Close()

	_ = tbl.Put(ctx, cqltable.Args{"row_id": "a", "body_blob": "hello"},
		cqltable.MetadataMap(map[string]any{"lang": "en", "words": 1}))
	_ = tbl.Put(ctx, cqltable.Args{"row_id": "b", "body_blob": "hallo"},
		cqltable.MetadataMap(map[string]any{"lang": "de", "words": 1}))

	rows, err := tbl.FindEntries(ctx, 10, nil, cqltable.MetadataMap(map[string]any{"lang": "de"}))
	if err != nil {
		log.Fatal(err)
	}
	for _, r := range rows {
		fmt.Println(r["row_id"], r["body_blob"], r["metadata"])
	}
	// Output: b hallo map[lang:de words:1.0]
}

// Example_elasticKey demonstrates a table keyed by named columns.
func Example_elasticKey() {
	ctx := context.Background()
	tbl, err := cqltable.NewElasticTable(ctx, memdriver.New(), "events",
		cqltable.WithKeys("tenant", "day"))
	if err != nil {
		log.Fatal(err)
	}
	defer tbl.Close()

	_ = tbl.Put(ctx, cqltable.Args{"tenant": "acme", "day": 17, "body_blob": "deploy"})

	row, err := tbl.Get(ctx, cqltable.Args{"tenant": "acme", "day": 17})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(row["tenant"], row["day"], row["body_blob"])
	// Output: acme 17 deploy
}

// Example_search demonstrates an ANN search re-ranked under a metric.
func Example_search() {
	ctx := context.Background()
	tbl, err := cqltable.NewVectorTable(ctx, memdriver.New(), "vectors",
		cqltable.WithVectorDimension(2))
	if err != nil {
		log.Fatal(err)
	}
	defer tbl.Close()

	for i, v := range [][]float32{{1, 0}, {0.9, 0.1}, {0, 1}} {
		_ = tbl.Put(ctx, cqltable.Args{"row_id": fmt.Sprintf("v%d", i), "vector": v})
	}

	rows, err := tbl.Search([]float32{1, 0}).
		KNN(2).
		Metric(distance.MetricL2).
		Execute(ctx)
	if err != nil {
		log.Fatal(err)
	}
	for _, r := range rows {
		fmt.Printf("%s %.3f\n", r["row_id"], r["distance"])
	}
	// Output:
	// v0 0.000
	// v1 0.141
}

// Example_streamingPartition demonstrates ranging over a partition.
func Example_streamingPartition() {
	ctx := context.Background()
	tbl, err := cqltable.NewClusteredTable(ctx, memdriver.New(), "log",
		cqltable.WithPartitionID("today"),
		cqltable.WithRowIDType("INT"),
		cqltable.WithClusteringOrder("DESC"))
	if err != nil {
		log.Fatal(err)
	}
	defer tbl.Close()

	for i := range 5 {
		_ = tbl.Put(ctx, cqltable.Args{"row_id": i, "body_blob": fmt.Sprintf("entry %d", i)})
	}

	for row, err := range tbl.GetPartition(ctx, nil, 3) {
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(row["body_blob"])
	}
	// Output:
	// entry 4
	// entry 3
	// entry 2
}
