package cql

import (
	"strings"
)

// CreateTable renders the CREATE TABLE statement.
//
// orders holds one direction per clustering column.
func CreateTable(cols []Column, pk, cc, orders []string) Template {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS " + TablePlaceholder + " (")
	for _, c := range cols {
		b.WriteString(c.Name + " " + c.Type + ", ")
	}
	b.WriteString("PRIMARY KEY ((" + strings.Join(pk, ", ") + ")")
	for _, c := range cc {
		b.WriteString(", " + c)
	}
	b.WriteString("))")
	if len(cc) > 0 {
		parts := make([]string, len(cc))
		for i, c := range cc {
			parts[i] = c + " " + orders[i]
		}
		b.WriteString(" WITH CLUSTERING ORDER BY (" + strings.Join(parts, ", ") + ")")
	}
	b.WriteString(";")
	return Template(b.String())
}

// CreateIndex renders a storage-attached index on column.
func CreateIndex(name, column string, opts []IndexOption) Template {
	var b strings.Builder
	b.WriteString("CREATE CUSTOM INDEX IF NOT EXISTS " + name + " ON " + TablePlaceholder)
	b.WriteString(" (" + column + ") USING " + quote(SAIClass))
	if len(opts) > 0 {
		parts := make([]string, len(opts))
		for i, o := range opts {
			parts[i] = quote(o.Key) + ": " + quote(o.Value)
		}
		b.WriteString(" WITH OPTIONS = {" + strings.Join(parts, ", ") + "}")
	}
	b.WriteString(";")
	return Template(b.String())
}

// CreateEntriesIndex renders an index on the entries of a map column.
func CreateEntriesIndex(name, column string) Template {
	return CreateIndex(name, "ENTRIES("+column+")", nil)
}

// Truncate renders a full-table truncate.
func Truncate() Template {
	return Template("TRUNCATE TABLE " + TablePlaceholder + ";")
}

// Delete renders a DELETE restricted by where.
func Delete(where *Where) Template {
	return Template("DELETE FROM " + TablePlaceholder + " WHERE " + where.String() + ";")
}

// Select renders a SELECT * restricted by where, with an optional bound LIMIT.
func Select(where *Where, limit bool) Template {
	var b strings.Builder
	b.WriteString("SELECT * FROM " + TablePlaceholder)
	if where.Len() > 0 {
		b.WriteString(" WHERE " + where.String())
	}
	if limit {
		b.WriteString(" LIMIT ?")
	}
	b.WriteString(";")
	return Template(b.String())
}

// Insert renders an INSERT of columns, with an optional bound TTL.
func Insert(columns []string, ttl bool) Template {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	var b strings.Builder
	b.WriteString("INSERT INTO " + TablePlaceholder + " (" + strings.Join(columns, ", ") + ")")
	b.WriteString(" VALUES (" + marks + ")")
	if ttl {
		b.WriteString(" USING TTL ?")
	}
	b.WriteString(";")
	return Template(b.String())
}

// SelectANN renders a similarity search ordered by vectorColumn.
//
// The bound values are where's values, then the query vector, then the limit.
func SelectANN(where *Where, vectorColumn string) Template {
	var b strings.Builder
	b.WriteString("SELECT * FROM " + TablePlaceholder)
	if where.Len() > 0 {
		b.WriteString(" WHERE " + where.String())
	}
	b.WriteString(" ORDER BY " + vectorColumn + " ANN OF ? LIMIT ?;")
	return Template(b.String())
}

// SelectANNLegacy renders the older similarity syntax with the ANN clause
// inside WHERE. Bound values follow the same order as SelectANN.
func SelectANNLegacy(where *Where, vectorColumn string) Template {
	var b strings.Builder
	b.WriteString("SELECT * FROM " + TablePlaceholder + " WHERE ")
	if where.Len() > 0 {
		b.WriteString(where.String() + " AND ")
	}
	b.WriteString(vectorColumn + " ANN OF ? LIMIT ?;")
	return Template(b.String())
}
