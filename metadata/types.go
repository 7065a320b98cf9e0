package metadata

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the concrete type stored in a Value.
type Kind uint8

const (
	// KindInvalid represents an invalid kind.
	KindInvalid Kind = iota
	// KindNull represents a null value.
	KindNull
	// KindInt represents an integer value.
	KindInt
	// KindFloat represents a float value.
	KindFloat
	// KindString represents a string value.
	KindString
	// KindBool represents a boolean value.
	KindBool
	// KindOther represents any other value, kept as its text form.
	KindOther
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindString:
		return "String"
	case KindBool:
		return "Bool"
	case KindOther:
		return "Other"
	default:
		return "Invalid"
	}
}

// Value is a small closed tagged value used for metadata documents.
type Value struct {
	Kind Kind
	I64  int64
	F64  float64
	S    string
	B    bool
}

// Null returns a null Value.
func Null() Value { return Value{Kind: KindNull} }

// Int returns an int64 Value.
func Int(v int64) Value { return Value{Kind: KindInt, I64: v} }

// Float returns a float64 Value.
func Float(v float64) Value { return Value{Kind: KindFloat, F64: v} }

// String returns a string Value.
func String(v string) Value { return Value{Kind: KindString, S: v} }

// Bool returns a boolean Value.
func Bool(v bool) Value { return Value{Kind: KindBool, B: v} }

// Other returns a Value holding the text form of an arbitrary value.
func Other(v any) Value { return Value{Kind: KindOther, S: fmt.Sprint(v)} }

// Coerce returns the string stored for the value.
func (v Value) Coerce() string {
	switch v.Kind {
	case KindString, KindOther:
		return v.S
	case KindBool:
		if v.B {
			return "true"
		}
		return "false"
	case KindInt:
		return formatFloat(float64(v.I64))
	case KindFloat:
		return formatFloat(v.F64)
	default:
		return "null"
	}
}

// formatFloat renders a float the way JSON float text is written by the
// metadata readers of the same tables: integral values keep a ".0" suffix.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}

	if abs := math.Abs(f); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Document is a typed metadata document.
type Document map[string]Value

// Clone creates a copy of the metadata document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	clone := make(Document, len(d))
	for k, v := range d {
		clone[k] = v
	}
	return clone
}

// Coerce returns the string form of every field.
func (d Document) Coerce() map[string]string {
	out := make(map[string]string, len(d))
	for k, v := range d {
		out[k] = v.Coerce()
	}
	return out
}
