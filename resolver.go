package cqltable

import "github.com/hupe1980/cqltable/driver"

// Resolver holds the default session and keyspace shared by several tables.
//
//	r := cqltable.NewResolver(session, "ks")
//	docs, _ := cqltable.NewPlainTable(ctx, nil, "docs", cqltable.WithResolver(r))
type Resolver struct {
	session  driver.Session
	keyspace string
}

// NewResolver creates a Resolver.
func NewResolver(session driver.Session, keyspace string) *Resolver {
	return &Resolver{session: session, keyspace: keyspace}
}

// Session returns the default session.
func (r *Resolver) Session() driver.Session { return r.session }

// Keyspace returns the default keyspace.
func (r *Resolver) Keyspace() string { return r.keyspace }

// Options returns the table options carrying this resolver.
func (r *Resolver) Options(opts ...Option) []Option {
	return append([]Option{WithResolver(r)}, opts...)
}
