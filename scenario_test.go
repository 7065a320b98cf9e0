package cqltable_test

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/cqltable"
	"github.com/hupe1980/cqltable/codec"
	"github.com/hupe1980/cqltable/distance"
	"github.com/hupe1980/cqltable/driver/memdriver"
	"github.com/hupe1980/cqltable/metadata"
	"github.com/hupe1980/cqltable/predicate"
	"github.com/hupe1980/cqltable/testutil"
)

func TestPartitionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memdriver.New()

	tbl, err := cqltable.NewClusteredTable(ctx, store, "docs")
	require.NoError(t, err)

	require.NoError(t, tbl.Put(ctx, cqltable.Args{"partition_id": "p", "row_id": "r1", "body_blob": "x"}))
	require.NoError(t, tbl.Put(ctx, cqltable.Args{"partition_id": "q", "row_id": "r2", "body_blob": "y"}))

	var rows []cqltable.Row
	for row, err := range tbl.GetPartition(ctx, cqltable.Args{"partition_id": "p"}, 0) {
		require.NoError(t, err)
		rows = append(rows, row)
	}
	require.Len(t, rows, 1)
	assert.Equal(t, cqltable.Row{"partition_id": "p", "row_id": "r1", "body_blob": "x"}, rows[0])

	t.Run("get and delete", func(t *testing.T) {
		row, err := tbl.Get(ctx, cqltable.Args{"partition_id": "q", "row_id": "r2"})
		require.NoError(t, err)
		assert.Equal(t, "y", row["body_blob"])

		require.NoError(t, tbl.Delete(ctx, cqltable.Args{"partition_id": "q", "row_id": "r2"}))
		row, err = tbl.Get(ctx, cqltable.Args{"partition_id": "q", "row_id": "r2"})
		require.NoError(t, err)
		assert.Nil(t, row)
	})

	t.Run("delete partition", func(t *testing.T) {
		require.NoError(t, tbl.DeletePartition(ctx, cqltable.Args{"partition_id": "p"}))
		rows, err := tbl.GetPartitionAwait(ctx, cqltable.Args{"partition_id": "p"}, 0)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestDeleteAndClearIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memdriver.New()

	tbl, err := cqltable.NewClusteredTable(ctx, store, "idem")
	require.NoError(t, err)

	key := cqltable.Args{"partition_id": "p", "row_id": "r1"}
	require.NoError(t, tbl.Put(ctx, cqltable.Args{"partition_id": "p", "row_id": "r1", "body_blob": "x"}))
	require.NoError(t, tbl.Delete(ctx, key))
	require.NoError(t, tbl.Delete(ctx, key))

	row, err := tbl.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, row)

	require.NoError(t, tbl.Put(ctx, cqltable.Args{"partition_id": "p", "row_id": "r2", "body_blob": "y"}))
	require.NoError(t, tbl.Clear(ctx))
	require.NoError(t, tbl.Clear(ctx))

	raw, err := store.Rows("idem")
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestMetadataRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memdriver.New()

	tbl, err := cqltable.NewMetadataTable(ctx, store, "meta")
	require.NoError(t, err)

	require.NoError(t, tbl.Put(ctx, cqltable.Args{
		"row_id":   "r",
		"metadata": map[string]any{"a": 1, "b": "x", "c": true},
	}))
	row, err := tbl.Get(ctx, cqltable.Args{"row_id": "r"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1.0", "b": "x", "c": "true"}, row["metadata"])
	assert.NotContains(t, row, "metadata_s")
	assert.NotContains(t, row, "attributes_blob")

	t.Run("put without metadata keeps it", func(t *testing.T) {
		require.NoError(t, tbl.Put(ctx, cqltable.Args{"row_id": "r", "body_blob": "new"}))
		row, err := tbl.Get(ctx, cqltable.Args{"row_id": "r"})
		require.NoError(t, err)
		assert.Equal(t, "new", row["body_blob"])
		assert.Equal(t, map[string]string{"a": "1.0", "b": "x", "c": "true"}, row["metadata"])
	})

	t.Run("empty metadata clears it", func(t *testing.T) {
		require.NoError(t, tbl.Put(ctx, cqltable.Args{"row_id": "r"}, cqltable.Metadata(metadata.Document{})))
		row, err := tbl.Get(ctx, cqltable.Args{"row_id": "r"})
		require.NoError(t, err)
		assert.Empty(t, row["metadata"])
	})
}

func TestMetadataIndexingPolicy(t *testing.T) {
	ctx := context.Background()
	store := memdriver.New()

	tbl, err := cqltable.NewMetadataTable(ctx, store, "meta",
		cqltable.WithMetadataIndexing(metadata.AllowList("kind")))
	require.NoError(t, err)

	require.NoError(t, tbl.Put(ctx, cqltable.Args{"row_id": "r1"},
		cqltable.MetadataMap(map[string]any{"kind": "note", "secret": 42, "nested": nil})))
	require.NoError(t, tbl.Put(ctx, cqltable.Args{"row_id": "r2"},
		cqltable.MetadataMap(map[string]any{"kind": "mail"})))

	raw, err := store.Rows("meta")
	require.NoError(t, err)
	var stored map[string]any
	for _, r := range raw {
		if r["row_id"] == "r1" {
			stored = r
		}
	}
	require.NotNil(t, stored)
	assert.Equal(t, map[string]string{"kind": "note"}, stored["metadata_s"])
	assert.NotNil(t, stored["attributes_blob"])

	row, err := tbl.Get(ctx, cqltable.Args{"row_id": "r1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"kind": "note", "secret": "42.0", "nested": "null"}, row["metadata"])

	rows, err := tbl.FindEntries(ctx, 10, nil, cqltable.MetadataMap(map[string]any{"kind": "mail"}))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "r2", rows[0]["row_id"])

	_, err = tbl.FindEntries(ctx, 10, nil, cqltable.MetadataMap(map[string]any{"secret": 42}))
	var uf *cqltable.UnindexedFieldError
	require.ErrorAs(t, err, &uf)
	assert.Equal(t, "secret", uf.Field)
}

func TestElasticKeyRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memdriver.New()

	tbl, err := cqltable.NewElasticTable(ctx, store, "el", cqltable.WithKeys("a", "b"))
	require.NoError(t, err)

	require.NoError(t, tbl.Put(ctx, cqltable.Args{"a": 1, "b": "B", "body_blob": "z"}))
	row, err := tbl.Get(ctx, cqltable.Args{"a": 1, "b": "B"})
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.EqualValues(t, 1, row["a"])
	assert.Equal(t, "B", row["b"])
	assert.Equal(t, "z", row["body_blob"])
	assert.NotContains(t, row, "key_desc")
	assert.NotContains(t, row, "key_vals")

	t.Run("no key", func(t *testing.T) {
		var pk *cqltable.PrimaryKeyError
		require.ErrorAs(t, tbl.Put(ctx, cqltable.Args{"body_blob": "z"}), &pk)
		assert.Equal(t, []string{"a", "b"}, pk.Missing)
	})

	t.Run("partial key", func(t *testing.T) {
		_, err := tbl.Get(ctx, cqltable.Args{"a": 1})
		assert.ErrorIs(t, err, cqltable.ErrKeyArity)
	})

	t.Run("physical key columns are not arguments", func(t *testing.T) {
		err := tbl.Put(ctx, cqltable.Args{"a": 1, "b": "B", "key_vals": "[]"})
		assert.ErrorIs(t, err, cqltable.ErrInvalidArgument)
	})
}

func TestElasticKeyAcrossCodecs(t *testing.T) {
	ctx := context.Background()
	store := memdriver.New()

	writer, err := cqltable.NewElasticTable(ctx, store, "el_codec", cqltable.WithKeys("a"))
	require.NoError(t, err)
	reader, err := cqltable.NewElasticTable(ctx, store, "el_codec",
		cqltable.WithKeys("a"), cqltable.WithCodec(codec.JSON{}), cqltable.WithSkipProvisioning())
	require.NoError(t, err)

	require.NoError(t, writer.Put(ctx, cqltable.Args{"a": "<k&v>", "body_blob": "z"}))

	raw, err := store.Rows("el_codec")
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.Equal(t, `["<k&v>"]`, raw[0]["key_vals"])

	row, err := reader.Get(ctx, cqltable.Args{"a": "<k&v>"})
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "z", row["body_blob"])
}

func TestMulticolumnRowID(t *testing.T) {
	ctx := context.Background()
	store := memdriver.New()

	tbl, err := cqltable.NewClusteredTable(ctx, store, "mc",
		cqltable.WithPartitionIDType("TEXT", "INT"),
		cqltable.WithRowIDType("TEXT", "INT"),
		cqltable.WithPartitionID(cqltable.Tuple{"p", 1}),
	)
	require.NoError(t, err)

	for i := range 4 {
		prefix := "a"
		if i >= 2 {
			prefix = "b"
		}
		require.NoError(t, tbl.Put(ctx, cqltable.Args{
			"row_id":    cqltable.Tuple{prefix, i},
			"body_blob": fmt.Sprintf("body-%d", i),
		}))
	}

	row, err := tbl.Get(ctx, cqltable.Args{"row_id": cqltable.Tuple{"b", 3}})
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, cqltable.Tuple{"b", 3}, row["row_id"])
	assert.Equal(t, cqltable.Tuple{"p", 1}, row["partition_id"])
	assert.Equal(t, "body-3", row["body_blob"])

	tests := []struct {
		name   string
		args   cqltable.Args
		bodies []string
	}{
		{"whole partition", nil, []string{"body-0", "body-1", "body-2", "body-3"}},
		{"prefix", cqltable.Args{"row_id": cqltable.Tuple{"a"}}, []string{"body-0", "body-1"}},
		{"prefix and range", cqltable.Args{"row_id": cqltable.Tuple{"b", predicate.Gt(2)}}, []string{"body-3"}},
		{"other partition", cqltable.Args{"partition_id": cqltable.Tuple{"p", 2}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := tbl.GetPartitionAwait(ctx, tt.args, 0)
			require.NoError(t, err)
			var bodies []string
			for _, r := range rows {
				bodies = append(bodies, r["body_blob"].(string))
			}
			assert.Equal(t, tt.bodies, bodies)
		})
	}

	t.Run("arity", func(t *testing.T) {
		err := tbl.Put(ctx, cqltable.Args{"row_id": cqltable.Tuple{"a", 1, 2}})
		var ae *cqltable.KeyArityError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, 2, ae.Expected)
		assert.Equal(t, 3, ae.Actual)
	})
}

func TestANNSearchNearestAngles(t *testing.T) {
	ctx := context.Background()
	store := memdriver.New()

	tbl, err := cqltable.NewVectorTable(ctx, store, "vec", cqltable.WithVectorDimension(2))
	require.NoError(t, err)

	for i := range 16 {
		require.NoError(t, tbl.Put(ctx, cqltable.Args{
			"row_id":    fmt.Sprintf("r%d", i),
			"body_blob": fmt.Sprintf("angle %d", i),
			"vector":    testutil.AngleVector(float64(i) * math.Pi / 8),
		}))
	}

	rows, err := tbl.ANNSearch(ctx, testutil.AngleVector(math.Pi/8), 3, nil)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "r1", rows[0]["row_id"])
	assert.ElementsMatch(t, []any{"r0", "r2"}, []any{rows[1]["row_id"], rows[2]["row_id"]})

	t.Run("async", func(t *testing.T) {
		rows, err := tbl.ANNSearchAsync(ctx, testutil.AngleVector(math.Pi), 1, nil).Result()
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "r8", rows[0]["row_id"])
	})
}

func TestMetricANNSearch(t *testing.T) {
	ctx := context.Background()
	store := memdriver.New()

	tbl, err := cqltable.NewVectorTable(ctx, store, "vec",
		cqltable.WithVectorDimension(2),
		cqltable.WithSimilarityFunction("dot_product"))
	require.NoError(t, err)

	for id, v := range map[string][]float32{
		"r1": {1, 0},
		"r2": {10, 0.5},
		"r3": {0, 1},
		"r4": {-1, 0},
	} {
		require.NoError(t, tbl.Put(ctx, cqltable.Args{"row_id": id, "vector": v}))
	}

	ids := func(rows []cqltable.Row) []string {
		out := make([]string, len(rows))
		for i, r := range rows {
			out[i] = r["row_id"].(string)
			assert.Contains(t, r, "distance")
		}
		return out
	}

	tests := []struct {
		name   string
		metric distance.Metric
		opts   []cqltable.CallOption
		want   []string
	}{
		{"dot", distance.MetricDot, nil, []string{"r2", "r1", "r3", "r4"}},
		{"dot with threshold", distance.MetricDot, []cqltable.CallOption{cqltable.Threshold(0.5)}, []string{"r2", "r1"}},
		{"l2", distance.MetricL2, nil, []string{"r1", "r3", "r4", "r2"}},
		{"l2 with threshold", distance.MetricL2, []cqltable.CallOption{cqltable.Threshold(1.5)}, []string{"r1", "r3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := tbl.MetricANNSearch(ctx, []float32{1, 0}, 4, tt.metric, nil, tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(rows))
		})
	}

	t.Run("scores", func(t *testing.T) {
		rows, err := tbl.MetricANNSearch(ctx, []float32{1, 0}, 4, distance.MetricL1, nil)
		require.NoError(t, err)
		require.Len(t, rows, 4)
		assert.Equal(t, "r1", rows[0]["row_id"])
		assert.InDelta(t, 0.0, rows[0]["distance"], 1e-9)
	})

	t.Run("unknown metric", func(t *testing.T) {
		_, err := tbl.MetricANNSearch(ctx, []float32{1, 0}, 4, distance.Metric(42), nil)
		assert.ErrorIs(t, err, cqltable.ErrUnknownMetric)
	})
}

func TestMetricANNSearchMatchesExactTopK(t *testing.T) {
	ctx := context.Background()
	store := memdriver.New()
	tbl, err := cqltable.NewVectorTable(ctx, store, "exact", cqltable.WithVectorDimension(8))
	require.NoError(t, err)

	rng := testutil.NewRNG(42)
	vecs := map[string][]float32{}
	for i, v := range rng.UniformVectors(200, 8) {
		id := fmt.Sprintf("v%03d", i)
		vecs[id] = v
		require.NoError(t, tbl.Put(ctx, cqltable.Args{"row_id": id, "vector": v}))
	}
	query := rng.UniformVectors(1, 8)[0]

	for _, m := range []distance.Metric{distance.MetricL1, distance.MetricL2, distance.MetricMax} {
		t.Run(m.String(), func(t *testing.T) {
			// all rows are candidates, so the re-ranked head is exact
			rows, err := tbl.MetricANNSearch(ctx, query, len(vecs), m, nil)
			require.NoError(t, err)
			want, err := testutil.ExactTopK(query, vecs, 5, m)
			require.NoError(t, err)

			got := make([]string, 5)
			for i := range got {
				got[i] = rows[i]["row_id"].(string)
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestFindAndDeleteEntries(t *testing.T) {
	ctx := context.Background()
	store := memdriver.New()

	tbl, err := cqltable.NewMetadataTable(ctx, store, "bulk", cqltable.WithDeleteConcurrency(4))
	require.NoError(t, err)

	for i := range 128 {
		require.NoError(t, tbl.Put(ctx, cqltable.Args{"row_id": fmt.Sprintf("m%03d", i)},
			cqltable.MetadataMap(map[string]any{"group": "doomed"})))
	}
	for i := range 20 {
		require.NoError(t, tbl.Put(ctx, cqltable.Args{"row_id": fmt.Sprintf("o%03d", i)},
			cqltable.MetadataMap(map[string]any{"group": "kept"})))
	}
	filter := cqltable.MetadataMap(map[string]any{"group": "doomed"})

	deleted, err := tbl.FindAndDeleteEntries(ctx, 30, 25, nil, filter)
	require.NoError(t, err)
	assert.Equal(t, 30, deleted)

	left, err := tbl.FindEntries(ctx, 1000, nil, filter)
	require.NoError(t, err)
	assert.Len(t, left, 98)

	t.Run("delete all remaining", func(t *testing.T) {
		deleted, err := tbl.FindAndDeleteEntriesAwait(ctx, 0, 25, nil, filter)
		require.NoError(t, err)
		assert.Equal(t, 98, deleted)

		raw, err := store.Rows("bulk")
		require.NoError(t, err)
		assert.Len(t, raw, 20)
	})

	t.Run("rate limited", func(t *testing.T) {
		limited, err := cqltable.NewMetadataTable(ctx, store, "bulk",
			cqltable.WithSkipProvisioning(),
			cqltable.WithDeleteRateLimit(1000, 10))
		require.NoError(t, err)
		deleted, err := limited.FindAndDeleteEntries(ctx, 5, 2, nil,
			cqltable.MetadataMap(map[string]any{"group": "kept"}))
		require.NoError(t, err)
		assert.Equal(t, 5, deleted)
	})
}

func TestLegacyANNFallback(t *testing.T) {
	ctx := context.Background()
	query := []float32{1, 0}

	t.Run("enabled", func(t *testing.T) {
		rec := memdriver.NewRecorder(memdriver.New(memdriver.WithRejectANNOrderBy()))
		tbl, err := cqltable.NewVectorTable(ctx, rec, "vec",
			cqltable.WithVectorDimension(2), cqltable.WithLegacyANNFallback(true))
		require.NoError(t, err)
		require.NoError(t, tbl.Put(ctx, cqltable.Args{"row_id": "r", "vector": query}))
		rec.Reset()

		rows, err := tbl.ANNSearch(ctx, query, 1, nil)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		calls := rec.Calls()
		require.Len(t, calls, 2)
		assert.Equal(t, "SELECT * FROM vec ORDER BY vector ANN OF ? LIMIT ?;", calls[0].Text)
		assert.Equal(t, "SELECT * FROM vec WHERE vector ANN OF ? LIMIT ?;", calls[1].Text)
	})

	t.Run("disabled", func(t *testing.T) {
		store := memdriver.New(memdriver.WithRejectANNOrderBy())
		tbl, err := cqltable.NewVectorTable(ctx, store, "vec", cqltable.WithVectorDimension(2))
		require.NoError(t, err)

		_, err = tbl.ANNSearch(ctx, query, 1, nil)
		assert.Error(t, err)
	})
}

func TestBodySearch(t *testing.T) {
	ctx := context.Background()
	store := memdriver.New()

	tbl, err := cqltable.NewPlainTable(ctx, store, "body")
	require.NoError(t, err)
	require.NoError(t, tbl.Put(ctx, cqltable.Args{"row_id": "r1", "body_blob": "The quick brown fox"}))
	require.NoError(t, tbl.Put(ctx, cqltable.Args{"row_id": "r2", "body_blob": "A lazy dog"}))

	dyn, err := cqltable.Open(ctx, store, "body", []cqltable.Capability{cqltable.CapMetadata}, cqltable.WithSkipProvisioning())
	require.NoError(t, err)
	rows, err := dyn.FindEntries(ctx, 5, nil, cqltable.BodySearch("quick"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "r1", rows[0]["row_id"])
}
