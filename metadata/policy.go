package metadata

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ErrInvalidPolicy is returned for unrecognized indexing policy strings.
var ErrInvalidPolicy = errors.New("invalid metadata indexing policy")

// Mode selects how the field set of an IndexingPolicy is interpreted.
type Mode uint8

const (
	// ModeAllowList indexes only the listed fields.
	ModeAllowList Mode = iota + 1
	// ModeDenyList indexes every field except the listed ones.
	ModeDenyList
)

// String returns the name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeAllowList:
		return "ALLOW_LIST"
	case ModeDenyList:
		return "DENY_LIST"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// IndexingPolicy decides which metadata fields go to the indexed column.
type IndexingPolicy struct {
	Mode   Mode
	Fields map[string]struct{}
}

// AllowList returns a policy that indexes only fields.
func AllowList(fields ...string) IndexingPolicy {
	return IndexingPolicy{Mode: ModeAllowList, Fields: fieldSet(fields)}
}

// DenyList returns a policy that indexes everything except fields.
func DenyList(fields ...string) IndexingPolicy {
	return IndexingPolicy{Mode: ModeDenyList, Fields: fieldSet(fields)}
}

// IndexAll returns the policy indexing every field.
func IndexAll() IndexingPolicy { return DenyList() }

// IndexNone returns the policy indexing no field.
func IndexNone() IndexingPolicy { return AllowList() }

// ParsePolicy parses the shorthand forms "all" and "none".
func ParsePolicy(s string) (IndexingPolicy, error) {
	switch strings.ToLower(s) {
	case "all":
		return IndexAll(), nil
	case "none":
		return IndexNone(), nil
	default:
		return IndexingPolicy{}, fmt.Errorf("%w: unsupported value %q", ErrInvalidPolicy, s)
	}
}

// ParseModePolicy builds a policy from a textual mode and its field list.
//
// Accepted modes (case-insensitive): allow, allowlist, allow_list,
// default_to_unsearchable and deny, denylist, deny_list, default_to_searchable.
func ParseModePolicy(mode string, fields ...string) (IndexingPolicy, error) {
	switch strings.ToLower(mode) {
	case "allow", "allowlist", "allow_list", "default_to_unsearchable":
		return AllowList(fields...), nil
	case "deny", "denylist", "deny_list", "default_to_searchable":
		return DenyList(fields...), nil
	default:
		return IndexingPolicy{}, fmt.Errorf("%w: unsupported mode %q", ErrInvalidPolicy, mode)
	}
}

// IsIndexed reports whether field is routed to the indexed column.
func (p IndexingPolicy) IsIndexed(field string) bool {
	_, listed := p.Fields[field]
	if p.Mode == ModeAllowList {
		return listed
	}
	return !listed
}

// FieldList returns the listed fields in sorted order.
func (p IndexingPolicy) FieldList() []string {
	return slices.Sorted(maps.Keys(p.Fields))
}

// String returns a readable form such as "DENY_LIST[body]".
func (p IndexingPolicy) String() string {
	return p.Mode.String() + "[" + strings.Join(p.FieldList(), ",") + "]"
}

func fieldSet(fields []string) map[string]struct{} {
	m := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		m[f] = struct{}{}
	}
	return m
}
