// Package keycodec maps logical key values onto physical columns.
//
// # Multicolumn keys
//
// A logical key name bound to N physical columns is stored as-is when N == 1
// and as name_0..name_{N-1} otherwise. Pack spreads a Tuple over the numbered
// columns; Unpack folds them back:
//
//	cols := keycodec.Columns("row_id", 2)            // [row_id_0 row_id_1]
//	args, _ := keycodec.Pack(args, "row_id", cols, true)
//	row := keycodec.Unpack(row, "row_id", cols)
//
// Partial tuples (prefixes) are accepted when full is false, which enables
// partial clustering-key queries.
//
// # Elastic keys
//
// An Elastic key collapses an ordered list of named key columns into two
// text columns: key_desc (the serialized key names, constant per table) and
// key_vals (the serialized values of one row).
package keycodec
