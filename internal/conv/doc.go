// Package conv converts loosely-typed driver values.
//
// Drivers return vectors as []float32, []float64 or []any depending on the
// codec in use, and numbers in any width; these helpers give them one shape.
package conv
