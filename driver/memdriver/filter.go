package memdriver

import (
	"fmt"
	"strings"

	"github.com/hupe1980/cqltable/driver"
	"github.com/hupe1980/cqltable/internal/conv"
)

type condKind int

const (
	condCompare condKind = iota
	condEntry
	condAnalyzer
)

type cond struct {
	kind  condKind
	col   string
	op    string
	key   string
	value any
}

// filter is a parsed WHERE clause.
type filter struct {
	conds []cond
	ann   string
	query any
}

// parseWhere binds the conditions of where to values and returns the
// values left over.
func parseWhere(t *table, where string, values []any) (*filter, []any, error) {
	f := &filter{}
	if where == "" {
		return f, values, nil
	}
	take := func(n int) ([]any, error) {
		if len(values) < n {
			return nil, invalid("not enough bound values")
		}
		out := values[:n]
		values = values[n:]
		return out, nil
	}
	for _, block := range strings.Split(where, " AND ") {
		var (
			c   cond
			col string
		)
		switch {
		case reEntryCond.MatchString(block):
			col = reEntryCond.FindStringSubmatch(block)[1]
			v, err := take(2)
			if err != nil {
				return nil, nil, err
			}
			c = cond{kind: condEntry, col: col, key: fmt.Sprint(v[0]), value: v[1]}
		case reAnalyzerCond.MatchString(block):
			col = reAnalyzerCond.FindStringSubmatch(block)[1]
			v, err := take(1)
			if err != nil {
				return nil, nil, err
			}
			c = cond{kind: condAnalyzer, col: col, value: v[0]}
		case reANNCond.MatchString(block):
			col = reANNCond.FindStringSubmatch(block)[1]
			v, err := take(1)
			if err != nil {
				return nil, nil, err
			}
			f.ann, f.query = col, v[0]
			continue
		case reCompareCond.MatchString(block):
			m := reCompareCond.FindStringSubmatch(block)
			col = m[1]
			v, err := take(1)
			if err != nil {
				return nil, nil, err
			}
			c = cond{kind: condCompare, col: col, op: m[2], value: v[0]}
		default:
			return nil, nil, invalid("unsupported condition %q", block)
		}
		if _, ok := t.types[col]; !ok {
			return nil, nil, invalid("undefined column %s", col)
		}
		f.conds = append(f.conds, c)
	}
	return f, values, nil
}

func (f *filter) match(r driver.Row) bool {
	for _, c := range f.conds {
		if !c.match(r) {
			return false
		}
	}
	return true
}

func (c cond) match(r driver.Row) bool {
	v := r[c.col]
	switch c.kind {
	case condEntry:
		m, ok := v.(map[string]string)
		if !ok {
			return false
		}
		e, ok := m[c.key]
		return ok && e == fmt.Sprint(c.value)
	case condAnalyzer:
		s, ok := v.(string)
		return ok && strings.Contains(strings.ToLower(s), strings.ToLower(fmt.Sprint(c.value)))
	}

	if c.op == "=" {
		return conv.Equal(v, c.value)
	}
	if v == nil {
		return false
	}
	d, ok := conv.Compare(v, c.value)
	if !ok {
		return false
	}
	switch c.op {
	case "<":
		return d < 0
	case "<=":
		return d <= 0
	case ">":
		return d > 0
	case ">=":
		return d >= 0
	}
	return false
}
