// Package metadata handles the searchable-metadata storage split.
//
// A metadata document is a map of typed values. On write every value is
// coerced to a string and routed by an IndexingPolicy either to the indexed
// `metadata_s` map column (queryable per entry) or to the `attributes_blob`
// text column (JSON, not queryable).
//
// # Metadata Types
//
//   - String: metadata.String("tech")
//   - Int: metadata.Int(2024)        -> "2024.0"
//   - Float: metadata.Float(3.5)     -> "3.5"
//   - Bool: metadata.Bool(true)      -> "true"
//   - Null: metadata.Null()          -> "null"
//   - Other: metadata.Other(v)       -> fmt.Sprint(v)
//
// Integers and floats coerce to the same text ("1" and "1.0" both become
// "1.0") so equality queries on the indexed column behave the same for both.
//
// # Indexing Policy
//
//	metadata.IndexAll()                 // every field searchable
//	metadata.IndexNone()                // nothing searchable
//	metadata.AllowList("author", "year")
//	metadata.DenyList("body_html")
package metadata
