package predicate

import (
	"errors"
	"fmt"
)

// ErrInvalidOperator is returned when an operator string is not recognized.
var ErrInvalidOperator = errors.New("invalid predicate operator")

// Operator represents a comparison operator.
type Operator string

const (
	// OpEqual represents the equality operator.
	OpEqual Operator = "="
	// OpLessThan represents the less than operator.
	OpLessThan Operator = "<"
	// OpLessEqual represents the less than or equal operator.
	OpLessEqual Operator = "<="
	// OpGreaterThan represents the greater than operator.
	OpGreaterThan Operator = ">"
	// OpGreaterEqual represents the greater than or equal operator.
	OpGreaterEqual Operator = ">="
)

// ParseOperator returns the Operator for its textual form.
func ParseOperator(s string) (Operator, error) {
	switch op := Operator(s); op {
	case OpEqual, OpLessThan, OpLessEqual, OpGreaterThan, OpGreaterEqual:
		return op, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOperator, s)
	}
}

// String returns the textual form of the operator.
func (o Operator) String() string { return string(o) }

// Predicate is a comparison operator applied to an operand.
type Predicate struct {
	Operator Operator
	Value    any
}

// New creates a predicate from an already valid operator.
func New(op Operator, value any) Predicate {
	return Predicate{Operator: op, Value: value}
}

// Parse creates a predicate from the textual form of an operator.
func Parse(op string, value any) (Predicate, error) {
	o, err := ParseOperator(op)
	if err != nil {
		return Predicate{}, err
	}
	return Predicate{Operator: o, Value: value}, nil
}

// Eq is shorthand for New(OpEqual, v).
func Eq(v any) Predicate { return New(OpEqual, v) }

// Lt is shorthand for New(OpLessThan, v).
func Lt(v any) Predicate { return New(OpLessThan, v) }

// Lte is shorthand for New(OpLessEqual, v).
func Lte(v any) Predicate { return New(OpLessEqual, v) }

// Gt is shorthand for New(OpGreaterThan, v).
func Gt(v any) Predicate { return New(OpGreaterThan, v) }

// Gte is shorthand for New(OpGreaterEqual, v).
func Gte(v any) Predicate { return New(OpGreaterEqual, v) }

// Render returns the operator text and the operand.
func (p Predicate) Render() (string, any) {
	return string(p.Operator), p.Value
}

// String returns a readable form such as ">= 10".
func (p Predicate) String() string {
	return fmt.Sprintf("%s %v", p.Operator, p.Value)
}
