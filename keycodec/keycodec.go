package keycodec

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
)

// ErrKeyArity is returned when a key tuple does not match the configured
// number of columns.
var ErrKeyArity = errors.New("key arity mismatch")

// KeyArityError reports a key tuple of the wrong length.
type KeyArityError struct {
	Key      string
	Expected int
	Actual   int
}

func (e *KeyArityError) Error() string {
	return fmt.Sprintf("key %q: expected %d value(s), got %d", e.Key, e.Expected, e.Actual)
}

func (e *KeyArityError) Unwrap() error { return ErrKeyArity }

// Tuple is the logical value of a key spread over several columns.
type Tuple []any

// Columns returns the physical column names for a key of n columns.
func Columns(name string, n int) []string {
	if n <= 1 {
		return []string{name}
	}
	cols := make([]string, n)
	for i := range n {
		cols[i] = name + "_" + strconv.Itoa(i)
	}
	return cols
}

// IsMulti reports whether cols is a numbered expansion of name.
func IsMulti(name string, cols []string) bool {
	return !(len(cols) == 1 && cols[0] == name)
}

// Pack replaces args[name] with its numbered columns.
//
// A nil or missing value removes the key altogether. When full is true the
// tuple must have exactly len(cols) values; otherwise any prefix is accepted.
// The input map is not modified.
func Pack(args map[string]any, name string, cols []string, full bool) (map[string]any, error) {
	out := make(map[string]any, len(args)+len(cols))
	for k, v := range args {
		if k != name {
			out[k] = v
		}
	}

	v, ok := args[name]
	if !ok || v == nil {
		return out, nil
	}

	if !IsMulti(name, cols) {
		if t, isTuple := v.(Tuple); isTuple {
			if len(t) != 1 {
				return nil, &KeyArityError{Key: name, Expected: 1, Actual: len(t)}
			}
			v = t[0]
		}
		out[name] = v
		return out, nil
	}

	t, isTuple := v.(Tuple)
	if !isTuple {
		t = Tuple{v}
	}
	if len(t) > len(cols) || (full && len(t) != len(cols)) {
		return nil, &KeyArityError{Key: name, Expected: len(cols), Actual: len(t)}
	}
	for i, tv := range t {
		out[cols[i]] = tv
	}
	return out, nil
}

// Unpack folds the numbered columns of row back into row[name].
//
// Rows that carry none of the numbered columns are returned unchanged.
// The input map is not modified.
func Unpack(row map[string]any, name string, cols []string) map[string]any {
	if !IsMulti(name, cols) {
		return row
	}

	found := false
	for _, c := range cols {
		if _, ok := row[c]; ok {
			found = true
			break
		}
	}
	if !found {
		return row
	}

	out := make(map[string]any, len(row))
	t := make(Tuple, len(cols))
	for k, v := range row {
		if i := slices.Index(cols, k); i >= 0 {
			t[i] = v
			continue
		}
		out[k] = v
	}
	out[name] = t
	return out
}
