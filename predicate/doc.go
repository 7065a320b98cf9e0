// Package predicate provides the comparison value type used wherever a column
// may be constrained by more than plain equality.
//
// # Usage
//
//	p := predicate.New(predicate.OpGreaterEqual, 10)
//	op, v := p.Render() // ">=", 10
//
// A Predicate passed as a column value in a read makes the statement render
// `col >= ?` instead of `col = ?`.
package predicate
