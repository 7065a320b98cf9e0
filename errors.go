package cqltable

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/hupe1980/cqltable/distance"
	"github.com/hupe1980/cqltable/keycodec"
	"github.com/hupe1980/cqltable/metadata"
	"github.com/hupe1980/cqltable/predicate"
)

var (
	// ErrIncompletePrimaryKey is returned when a keyed call lacks primary key columns.
	ErrIncompletePrimaryKey = errors.New("incomplete primary key")

	// ErrUnindexedMetadata is returned when a query constrains a metadata
	// field that the indexing policy keeps out of the indexed column.
	ErrUnindexedMetadata = errors.New("non-indexed metadata fields cannot be used in queries")

	// ErrZeroVector is returned for an all-zero query vector under cosine similarity.
	ErrZeroVector = errors.New("cannot use identically-zero vectors in cosine ANN search")

	// ErrSetupNotFinished is returned by blocking calls issued while an
	// asynchronous schema setup is still running.
	ErrSetupNotFinished = errors.New("table setup not finished")

	// ErrUnknownColumn is returned for arguments that name no schema column.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrInvalidSchema is returned when table options do not describe a valid schema.
	ErrInvalidSchema = errors.New("invalid table schema")

	// ErrInvalidArgument is returned for malformed call arguments.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrCapabilityMissing is returned when an operation needs a capability
	// the table was not composed with.
	ErrCapabilityMissing = errors.New("capability not available on this table")

	// ErrNoSession is returned when neither the caller nor the resolver supplies a session.
	ErrNoSession = errors.New("no session available")

	// ErrClosed is returned for calls on a closed table.
	ErrClosed = errors.New("table is closed")

	// ErrNotFound is returned by SearchBuilder.First when nothing matches.
	ErrNotFound = errors.New("not found")

	// ErrKeyArity is returned when a key tuple does not match its column count.
	ErrKeyArity = keycodec.ErrKeyArity

	// ErrUnknownMetric is returned for unsupported distance metric names.
	ErrUnknownMetric = distance.ErrUnknownMetric

	// ErrInvalidOperator is returned for unsupported predicate operators.
	ErrInvalidOperator = predicate.ErrInvalidOperator

	// ErrInvalidPolicy is returned for malformed metadata indexing policies.
	ErrInvalidPolicy = metadata.ErrInvalidPolicy
)

// KeyArityError reports a key tuple of the wrong length.
type KeyArityError = keycodec.KeyArityError

// PrimaryKeyError lists the primary key columns missing from a call.
type PrimaryKeyError struct {
	Missing []string
}

func (e *PrimaryKeyError) Error() string {
	return fmt.Sprintf("incomplete primary key: missing %s", strings.Join(e.Missing, ", "))
}

func (e *PrimaryKeyError) Unwrap() error { return ErrIncompletePrimaryKey }

// UnindexedFieldError names a metadata field that cannot be queried.
type UnindexedFieldError struct {
	Field string
}

func (e *UnindexedFieldError) Error() string {
	return fmt.Sprintf("metadata field %q is not indexed", e.Field)
}

func (e *UnindexedFieldError) Unwrap() error { return ErrUnindexedMetadata }

// UnknownColumnError names an argument outside the table schema.
type UnknownColumnError struct {
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column %q", e.Column)
}

func (e *UnknownColumnError) Unwrap() error { return ErrUnknownColumn }

// SchemaError aggregates every problem found while composing a schema.
type SchemaError struct {
	errs *multierror.Error
}

func (e *SchemaError) Error() string {
	return "invalid table schema: " + e.errs.Error()
}

// Errors returns the individual problems.
func (e *SchemaError) Errors() []error {
	return e.errs.WrappedErrors()
}

// Unwrap exposes ErrInvalidSchema and the individual problems to errors.Is.
func (e *SchemaError) Unwrap() []error {
	return append([]error{ErrInvalidSchema}, e.errs.WrappedErrors()...)
}

func newSchemaError(errs *multierror.Error) error {
	if errs == nil || len(errs.Errors) == 0 {
		return nil
	}
	errs.ErrorFormat = func(es []error) string {
		parts := make([]string, len(es))
		for i, err := range es {
			parts[i] = err.Error()
		}
		return strings.Join(parts, "; ")
	}
	return &SchemaError{errs: errs}
}
