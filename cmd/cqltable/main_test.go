package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/cqltable/driver/memdriver"
)

func Test_runRender(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), options{Definition: "testdata/tables.yml"}, &out)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"CREATE TABLE IF NOT EXISTS app.docs (partition_id TEXT, row_id UUID, body_blob TEXT, vector VECTOR<FLOAT,3>, attributes_blob TEXT, metadata_s MAP<TEXT,TEXT>, PRIMARY KEY ((partition_id), row_id)) WITH CLUSTERING ORDER BY (row_id ASC);",
		"CREATE CUSTOM INDEX IF NOT EXISTS idx_vector_docs ON app.docs (vector) USING 'org.apache.cassandra.index.sai.StorageAttachedIndex' WITH OPTIONS = {'similarity_function': 'dot_product'};",
		"CREATE CUSTOM INDEX IF NOT EXISTS eidx_metadata_s_docs ON app.docs (ENTRIES(metadata_s)) USING 'org.apache.cassandra.index.sai.StorageAttachedIndex';",
		"CREATE TABLE IF NOT EXISTS app.events (key_desc TEXT, key_vals TEXT, body_blob TEXT, PRIMARY KEY ((key_desc, key_vals)));",
		"CREATE CUSTOM INDEX IF NOT EXISTS idx_body_events ON app.events (body_blob) USING 'org.apache.cassandra.index.sai.StorageAttachedIndex' WITH OPTIONS = {'index_analyzer': 'STANDARD'};",
		"CREATE TABLE IF NOT EXISTS app.plain (row_id TEXT, body_blob TEXT, PRIMARY KEY ((row_id)));",
	}, strings.Split(strings.TrimSpace(out.String()), "\n"))
}

func Test_runKeyspaceOverride(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), options{Definition: "testdata/tables.yml", Keyspace: "other"}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "other.plain")
	assert.NotContains(t, out.String(), "app.")
}

func Test_runInvalid(t *testing.T) {
	err := run(context.Background(), options{Definition: "testdata/invalid.yml"}, &bytes.Buffer{})
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 4)
}

func Test_runMissingFile(t *testing.T) {
	err := run(context.Background(), options{Definition: "testdata/nope.yml"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "can't read definition")
}

func Test_apply(t *testing.T) {
	def, err := loadDefinition("testdata/tables.yml")
	require.NoError(t, err)
	specs, err := def.resolve("")
	require.NoError(t, err)

	store := memdriver.New()
	var out bytes.Buffer
	require.NoError(t, apply(context.Background(), store, specs, false, &out))
	assert.Equal(t, "app.docs ok (3 statements)\napp.events ok (2 statements)\napp.plain ok (1 statements)\n", out.String())

	rows, err := store.Rows("app.events")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
