package keycodec

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hupe1980/cqltable/codec"
)

// Physical column names of an elastic key.
const (
	DescColumn = "key_desc"
	ValsColumn = "key_vals"
)

// ErrKeyDescMismatch is returned when a stored key_desc does not describe the
// key list of the reading instance.
var ErrKeyDescMismatch = errors.New("key_desc does not match the configured keys")

// Elastic serializes a fixed, ordered list of key columns.
type Elastic struct {
	keys  []string
	desc  string
	codec codec.Codec
}

// NewElastic creates an Elastic key over keys. A nil codec selects codec.Default.
func NewElastic(keys []string, c codec.Codec) (*Elastic, error) {
	if len(keys) == 0 {
		return nil, errors.New("elastic key requires at least one key column")
	}
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			return nil, fmt.Errorf("duplicate elastic key column %q", k)
		}
		seen[k] = struct{}{}
	}
	if c == nil {
		c = codec.Default
	}

	names := make([]any, len(keys))
	for i, k := range keys {
		names[i] = k
	}
	desc, err := SerializeKeys(c, names)
	if err != nil {
		return nil, err
	}

	return &Elastic{keys: slices.Clone(keys), desc: desc, codec: c}, nil
}

// Keys returns a copy of the key column names.
func (e *Elastic) Keys() []string { return slices.Clone(e.keys) }

// Desc returns the serialized key list stored in key_desc.
func (e *Elastic) Desc() string { return e.desc }

// Has reports whether name is one of the elastic key columns.
func (e *Elastic) Has(name string) bool { return slices.Contains(e.keys, name) }

// Encode serializes the key values found in args, in key order.
//
// The key is all-or-nothing: ok is false when none of the key columns is
// present, and a partial key is an arity error.
func (e *Elastic) Encode(args map[string]any) (vals string, ok bool, err error) {
	values := make([]any, 0, len(e.keys))
	for _, k := range e.keys {
		if v, present := args[k]; present {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return "", false, nil
	}
	if len(values) != len(e.keys) {
		return "", false, &KeyArityError{Key: DescColumn, Expected: len(e.keys), Actual: len(values)}
	}
	s, err := SerializeKeys(e.codec, values)
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}

// Decode maps a stored (key_desc, key_vals) pair back to named values.
func (e *Elastic) Decode(desc, vals string) (map[string]any, error) {
	if desc != e.desc {
		names, err := DeserializeKeys(e.codec, desc)
		if err != nil {
			return nil, err
		}
		if len(names) != len(e.keys) {
			return nil, fmt.Errorf("%w: %s", ErrKeyDescMismatch, desc)
		}
		for i, n := range names {
			if n != e.keys[i] {
				return nil, fmt.Errorf("%w: %s", ErrKeyDescMismatch, desc)
			}
		}
	}

	values, err := DeserializeKeys(e.codec, vals)
	if err != nil {
		return nil, err
	}
	if len(values) != len(e.keys) {
		return nil, &KeyArityError{Key: ValsColumn, Expected: len(e.keys), Actual: len(values)}
	}

	out := make(map[string]any, len(e.keys))
	for i, k := range e.keys {
		out[k] = values[i]
	}
	return out, nil
}

// SerializeKeys encodes a key list as compact JSON text.
func SerializeKeys(c codec.Codec, values []any) (string, error) {
	if c == nil {
		c = codec.Default
	}
	b, err := c.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("serialize keys: %w", err)
	}
	return string(b), nil
}

// DeserializeKeys decodes a key list produced by SerializeKeys.
//
// Integral JSON numbers decode to int64, other numbers to float64.
func DeserializeKeys(c codec.Codec, s string) ([]any, error) {
	if c == nil {
		c = codec.Default
	}
	var raw []any
	if err := c.Unmarshal([]byte(s), &raw); err != nil {
		return nil, fmt.Errorf("deserialize keys: %w", err)
	}
	for i, v := range raw {
		raw[i] = normalizeNumber(v)
	}
	return raw, nil
}

type jsonNumber interface {
	Int64() (int64, error)
	Float64() (float64, error)
	String() string
}

func normalizeNumber(v any) any {
	n, ok := v.(jsonNumber)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
