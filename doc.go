// Package cqltable provides typed tables over a wide-column store such as
// Apache Cassandra, composed from a base key-value table and optional
// capabilities.
//
// A table renders parameterized CQL, prepares each distinct statement once
// and executes it through a driver.Session. Row data is passed as Args and
// returned as Row maps.
//
// # Quick Start
//
//	ctx := context.Background()
//	session := gocqldriver.New(gocqlSession)
//
//	docs, _ := cqltable.NewClusteredMetadataVectorTable(ctx, session, "docs",
//	    cqltable.WithKeyspace("ks"),
//	    cqltable.WithVectorDimension(384),
//	    cqltable.WithMetadataIndexing(metadata.AllowList("source")),
//	)
//
//	_ = docs.Put(ctx, cqltable.Args{
//	    "partition_id": "p1",
//	    "row_id":       "r1",
//	    "body_blob":    "hello",
//	    "vector":       embedding,
//	}, cqltable.MetadataMap(map[string]any{"source": "web", "rank": 3}))
//
//	rows, _ := docs.ANNSearch(ctx, query, 5, cqltable.Args{"partition_id": "p1"})
//
// # Capabilities
//
// Four capabilities can be combined freely, giving sixteen table shapes:
//
//	CapClustered   partition_id partition key, row_id becomes clustering
//	CapElasticKey  row_id replaced by caller-named keys (WithKeys)
//	CapMetadata    metadata split into an indexed map and an attribute blob
//	CapVector      fixed-dimension vector column and ANN search
//
// Composition order never matters: capabilities always apply in the same
// precedence. Open builds a DynamicTable from a run-time capability list.
//
// # Keys
//
// A key typed with several CQL types is spread over numbered columns
// (row_id_0, row_id_1, ...) and passed as a Tuple. Queries on clustered
// tables accept a prefix of the row id tuple, and a predicate.Predicate
// constrains a column by a comparison:
//
//	rows := tbl.GetPartition(ctx, cqltable.Args{
//	    "partition_id": "p",
//	    "row_id":       cqltable.Tuple{"2024", predicate.Gte(10)},
//	}, 0)
//
// # Execution
//
// Every operation has a blocking form, an Async form returning a *Future and
// an Await form that first waits for a background setup (WithAsyncSetup).
// Blocking and Async calls issued before that setup completes fail with
// ErrSetupNotFinished.
package cqltable
