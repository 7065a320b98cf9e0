package metadata

import (
	"fmt"

	"github.com/hupe1980/cqltable/codec"
)

// Split coerces every field of doc to a string and routes it by policy.
//
// The returned maps are never nil.
func Split(doc Document, p IndexingPolicy) (indexed, attributes map[string]string) {
	indexed = make(map[string]string)
	attributes = make(map[string]string)
	for k, v := range doc {
		if p.IsIndexed(k) {
			indexed[k] = v.Coerce()
		} else {
			attributes[k] = v.Coerce()
		}
	}
	return indexed, attributes
}

// EncodeAttributes serializes the non-indexed part for the blob column.
func EncodeAttributes(c codec.Codec, attributes map[string]string) (string, error) {
	if c == nil {
		c = codec.Default
	}
	b, err := c.Marshal(attributes)
	if err != nil {
		return "", fmt.Errorf("encode attributes: %w", err)
	}
	return string(b), nil
}

// DecodeAttributes parses a blob written by EncodeAttributes.
func DecodeAttributes(c codec.Codec, blob string) (map[string]string, error) {
	if c == nil {
		c = codec.Default
	}
	var raw map[string]any
	if err := c.Unmarshal([]byte(blob), &raw); err != nil {
		return nil, fmt.Errorf("decode attributes: %w", err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch x := v.(type) {
		case string:
			out[k] = x
		case nil:
			out[k] = "null"
		case fmt.Stringer:
			out[k] = x.String()
		default:
			out[k] = fmt.Sprint(x)
		}
	}
	return out, nil
}

// Merge rebuilds the metadata mapping of a row from its stored columns.
//
// indexed and attributes come from disjoint parts of the key space, so the
// merge order only matters for rows written under a different policy; the
// indexed value wins in that case.
func Merge(indexed map[string]string, attributes map[string]string) map[string]string {
	out := make(map[string]string, len(indexed)+len(attributes))
	for k, v := range attributes {
		out[k] = v
	}
	for k, v := range indexed {
		out[k] = v
	}
	return out
}
