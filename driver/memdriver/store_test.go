package memdriver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/cqltable/driver"
)

func exec(t *testing.T, s *Store, text string, values ...any) []driver.Row {
	t.Helper()
	rows, err := s.Execute(context.Background(), driver.Simple(text), values...)
	require.NoError(t, err)
	out, err := driver.Collect(rows)
	require.NoError(t, err)
	return out
}

func newClustered(t *testing.T, order string) *Store {
	t.Helper()
	s := New()
	exec(t, s, "CREATE TABLE IF NOT EXISTS ks.t (partition_id TEXT, row_id INT, body_blob TEXT, vector VECTOR<FLOAT,2>, metadata_s MAP<TEXT,TEXT>, PRIMARY KEY ((partition_id), row_id)) WITH CLUSTERING ORDER BY (row_id "+order+");")
	return s
}

func TestCreateTable(t *testing.T) {
	s := newClustered(t, "DESC")
	tb, ok := s.tables.Load("ks.t")
	require.True(t, ok)
	assert.Equal(t, []string{"partition_id"}, tb.pk)
	assert.Equal(t, []string{"row_id"}, tb.cc)
	assert.Equal(t, []bool{true}, tb.desc)
	assert.Equal(t, "VECTOR<FLOAT,2>", tb.types["vector"])
	assert.Equal(t, "MAP<TEXT,TEXT>", tb.types["metadata_s"])

	// IF NOT EXISTS keeps the first definition
	exec(t, s, "CREATE TABLE IF NOT EXISTS ks.t (a TEXT, PRIMARY KEY ((a)));")
	tb2, _ := s.tables.Load("ks.t")
	assert.Same(t, tb, tb2)
}

func TestInsertSelect(t *testing.T) {
	s := newClustered(t, "ASC")
	for i := range 5 {
		exec(t, s, "INSERT INTO ks.t (body_blob, row_id, partition_id) VALUES (?, ?, ?);", "b", i, "p")
	}
	exec(t, s, "INSERT INTO ks.t (row_id, partition_id) VALUES (?, ?);", 0, "q")

	rows := exec(t, s, "SELECT * FROM ks.t WHERE partition_id = ?;", "p")
	require.Len(t, rows, 5)
	assert.Equal(t, 0, rows[0]["row_id"])
	assert.Equal(t, 4, rows[4]["row_id"])
	assert.Contains(t, rows[0], "vector")
	assert.Nil(t, rows[0]["vector"])

	rows = exec(t, s, "SELECT * FROM ks.t WHERE row_id >= ? AND partition_id = ? LIMIT ?;", 2, "p", 2)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0]["row_id"])
	assert.Equal(t, 3, rows[1]["row_id"])

	assert.Len(t, exec(t, s, "SELECT * FROM ks.t;"), 6)
}

func TestClusteringOrderDesc(t *testing.T) {
	s := newClustered(t, "DESC")
	for i := range 3 {
		exec(t, s, "INSERT INTO ks.t (row_id, partition_id) VALUES (?, ?);", i, "p")
	}
	rows := exec(t, s, "SELECT * FROM ks.t WHERE partition_id = ?;", "p")
	require.Len(t, rows, 3)
	assert.Equal(t, 2, rows[0]["row_id"])
}

func TestUpsertIsSparse(t *testing.T) {
	s := newClustered(t, "ASC")
	exec(t, s, "INSERT INTO ks.t (body_blob, metadata_s, row_id, partition_id) VALUES (?, ?, ?, ?) USING TTL ?;",
		"first", map[string]string{"a": "1"}, 1, "p", 60)
	exec(t, s, "INSERT INTO ks.t (vector, row_id, partition_id) VALUES (?, ?, ?);", []float32{1, 0}, 1, "p")

	rows := exec(t, s, "SELECT * FROM ks.t WHERE partition_id = ? AND row_id = ?;", "p", 1)
	require.Len(t, rows, 1)
	assert.Equal(t, "first", rows[0]["body_blob"])
	assert.Equal(t, []float32{1, 0}, rows[0]["vector"])

	// empty maps and nulls clear the column
	exec(t, s, "INSERT INTO ks.t (body_blob, metadata_s, row_id, partition_id) VALUES (?, ?, ?, ?);",
		nil, map[string]string{}, 1, "p")
	rows = exec(t, s, "SELECT * FROM ks.t WHERE partition_id = ? AND row_id = ?;", "p", 1)
	assert.Nil(t, rows[0]["body_blob"])
	assert.Nil(t, rows[0]["metadata_s"])
}

func TestEntryAndAnalyzerConditions(t *testing.T) {
	s := newClustered(t, "ASC")
	exec(t, s, "INSERT INTO ks.t (body_blob, metadata_s, row_id, partition_id) VALUES (?, ?, ?, ?);",
		"The Quick Fox", map[string]string{"k": "v"}, 1, "p")
	exec(t, s, "INSERT INTO ks.t (body_blob, metadata_s, row_id, partition_id) VALUES (?, ?, ?, ?);",
		"slow dog", map[string]string{"k": "w"}, 2, "p")

	rows := exec(t, s, "SELECT * FROM ks.t WHERE metadata_s[?] = ?;", "k", "v")
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0]["row_id"])

	rows = exec(t, s, "SELECT * FROM ks.t WHERE body_blob : ?;", "quick")
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0]["row_id"])
}

func TestANN(t *testing.T) {
	tests := []struct {
		name    string
		options string
		want    int
	}{
		{"cosine default", "", 1},
		{"dot product", " WITH OPTIONS = {'similarity_function': 'dot_product'}", 2},
		{"euclidean", " WITH OPTIONS = {'similarity_function': 'euclidean'}", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newClustered(t, "ASC")
			exec(t, s, "CREATE CUSTOM INDEX IF NOT EXISTS idx_vector_t ON ks.t (vector) USING 'org.apache.cassandra.index.sai.StorageAttachedIndex'"+tt.options+";")
			exec(t, s, "INSERT INTO ks.t (vector, row_id, partition_id) VALUES (?, ?, ?);", []float32{1, 0.1}, 1, "p")
			exec(t, s, "INSERT INTO ks.t (vector, row_id, partition_id) VALUES (?, ?, ?);", []float32{10, 5}, 2, "p")
			exec(t, s, "INSERT INTO ks.t (row_id, partition_id) VALUES (?, ?);", 3, "p")

			rows := exec(t, s, "SELECT * FROM ks.t ORDER BY vector ANN OF ? LIMIT ?;", []float32{1, 0}, 5)
			require.Len(t, rows, 2)
			assert.Equal(t, tt.want, rows[0]["row_id"])

			legacy := exec(t, s, "SELECT * FROM ks.t WHERE partition_id = ? AND vector ANN OF ? LIMIT ?;", "p", []float32{1, 0}, 1)
			require.Len(t, legacy, 1)
			assert.Equal(t, tt.want, legacy[0]["row_id"])
		})
	}
}

func TestRejectANNOrderBy(t *testing.T) {
	s := New(WithRejectANNOrderBy())
	exec(t, s, "CREATE TABLE IF NOT EXISTS t (row_id TEXT, vector VECTOR<FLOAT,2>, PRIMARY KEY ((row_id)));")
	_, err := s.Execute(context.Background(), driver.Simple("SELECT * FROM t ORDER BY vector ANN OF ? LIMIT ?;"), []float32{1, 0}, 1)
	assert.ErrorIs(t, err, driver.ErrInvalidQuery)
}

func TestDeleteAndTruncate(t *testing.T) {
	s := newClustered(t, "ASC")
	for i := range 3 {
		exec(t, s, "INSERT INTO ks.t (row_id, partition_id) VALUES (?, ?);", i, "p")
	}
	exec(t, s, "INSERT INTO ks.t (row_id, partition_id) VALUES (?, ?);", 0, "q")

	exec(t, s, "DELETE FROM ks.t WHERE row_id = ? AND partition_id = ?;", 1, "p")
	exec(t, s, "DELETE FROM ks.t WHERE row_id = ? AND partition_id = ?;", 1, "p")
	assert.Len(t, exec(t, s, "SELECT * FROM ks.t;"), 3)

	exec(t, s, "DELETE FROM ks.t WHERE partition_id = ?;", "p")
	assert.Len(t, exec(t, s, "SELECT * FROM ks.t;"), 1)

	exec(t, s, "TRUNCATE TABLE ks.t;")
	assert.Empty(t, exec(t, s, "SELECT * FROM ks.t;"))
}

func TestErrors(t *testing.T) {
	s := newClustered(t, "ASC")
	ctx := context.Background()

	tests := []struct {
		name   string
		text   string
		values []any
	}{
		{"unknown table", "SELECT * FROM ks.nope;", nil},
		{"unknown column", "SELECT * FROM ks.t WHERE nope = ?;", []any{1}},
		{"missing key", "INSERT INTO ks.t (row_id) VALUES (?);", []any{1}},
		{"value count", "INSERT INTO ks.t (row_id, partition_id) VALUES (?, ?);", []any{1}},
		{"unsupported", "UPDATE ks.t SET a = 1;", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Execute(ctx, driver.Simple(tt.text), tt.values...)
			assert.ErrorIs(t, err, driver.ErrInvalidQuery)
		})
	}
}

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	s := New()
	r := NewRecorder(s)

	stmt, err := r.Prepare(ctx, "CREATE TABLE IF NOT EXISTS t (row_id TEXT, PRIMARY KEY ((row_id)));")
	require.NoError(t, err)
	_, err = r.Execute(ctx, stmt)
	require.NoError(t, err)

	done := make(chan error, 1)
	r.ExecuteAsync(ctx, driver.Simple("SELECT * FROM t WHERE row_id = ?;"), "x").AddCallbacks(
		func(rows driver.Rows) { done <- rows.Close() },
		func(err error) { done <- err },
	)
	require.NoError(t, <-done)

	assert.Equal(t, 1, s.Prepares())
	calls := r.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, []any{"x"}, calls[1].Values)
	assert.Equal(t, calls[1:], r.Last(1))
	assert.Len(t, r.Last(10), 2)

	r.Reset()
	assert.Empty(t, r.Calls())
}
