// Package cql renders the parameterized statements issued by cqltable.
//
// Every renderer returns a Template whose fully-qualified table name is still
// a placeholder; the table layer binds it last with Template.For so that
// capability code can render its fragment without knowing the keyspace.
//
//	tpl := cql.Select(where, true)
//	stmt := cql.Statement{Text: tpl.For(cql.Qualify("ks", "tn")), Values: where.Values(), Op: cql.OpRead}
//
// Bound values always appear as `?` placeholders; only identifiers and index
// options are rendered inline.
package cql
