package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/felix-wang-0307/NaturalDB/record"
)

// ErrInvalidQuery indicates a malformed condition or aggregation, such as
// an unknown operator or a non-sequence value for an in/nin test.
var ErrInvalidQuery = errors.New("invalid query")

// Operator defines the comparison operation of a condition.
type Operator string

const (
	// OpEqual represents the equality operator.
	OpEqual Operator = "eq"
	// OpNotEqual represents the inequality operator.
	OpNotEqual Operator = "ne"
	// OpGreaterThan represents the greater-than operator.
	OpGreaterThan Operator = "gt"
	// OpGreaterEqual represents the greater-than-or-equal operator.
	OpGreaterEqual Operator = "gte"
	// OpLessThan represents the less-than operator.
	OpLessThan Operator = "lt"
	// OpLessEqual represents the less-than-or-equal operator.
	OpLessEqual Operator = "lte"
	// OpIn tests membership of the field value in a sequence.
	OpIn Operator = "in"
	// OpNotIn tests absence of the field value from a sequence.
	OpNotIn Operator = "nin"
	// OpContains tests substring containment on string-like values.
	OpContains Operator = "contains"
)

// Condition is a single (field, operator, value) comparison. Field
// supports dot-separated nested paths.
type Condition struct {
	Field    string
	Operator Operator
	Value    record.Value
}

// Eq builds an equality condition.
func Eq(field string, value record.Value) Condition {
	return Condition{Field: field, Operator: OpEqual, Value: value}
}

// Ne builds an inequality condition.
func Ne(field string, value record.Value) Condition {
	return Condition{Field: field, Operator: OpNotEqual, Value: value}
}

// Gt builds a greater-than condition.
func Gt(field string, value record.Value) Condition {
	return Condition{Field: field, Operator: OpGreaterThan, Value: value}
}

// Gte builds a greater-than-or-equal condition.
func Gte(field string, value record.Value) Condition {
	return Condition{Field: field, Operator: OpGreaterEqual, Value: value}
}

// Lt builds a less-than condition.
func Lt(field string, value record.Value) Condition {
	return Condition{Field: field, Operator: OpLessThan, Value: value}
}

// Lte builds a less-than-or-equal condition.
func Lte(field string, value record.Value) Condition {
	return Condition{Field: field, Operator: OpLessEqual, Value: value}
}

// In builds a membership condition over a sequence of values.
func In(field string, values ...record.Value) Condition {
	return Condition{Field: field, Operator: OpIn, Value: record.Array(values)}
}

// NotIn builds a non-membership condition over a sequence of values.
func NotIn(field string, values ...record.Value) Condition {
	return Condition{Field: field, Operator: OpNotIn, Value: record.Array(values)}
}

// Contains builds a substring-containment condition.
func Contains(field, substr string) Condition {
	return Condition{Field: field, Operator: OpContains, Value: record.String(substr)}
}

// Validate reports ErrInvalidQuery for unknown operators and for in/nin
// conditions whose value is not a sequence.
func (c Condition) Validate() error {
	switch c.Operator {
	case OpEqual, OpNotEqual, OpGreaterThan, OpGreaterEqual, OpLessThan, OpLessEqual, OpContains:
		return nil
	case OpIn, OpNotIn:
		if _, ok := c.Value.AsArray(); !ok {
			return fmt.Errorf("%w: operator %q requires a sequence value", ErrInvalidQuery, c.Operator)
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported operator %q", ErrInvalidQuery, c.Operator)
	}
}

// Matches checks if the provided document matches this condition.
//
// A document missing the field never matches a comparison operator; for
// nin the missing field counts as "not in" and matches.
func (c Condition) Matches(doc record.Document) bool {
	value, exists := doc.Lookup(c.Field)
	if !exists {
		return c.Operator == OpNotIn
	}

	switch c.Operator {
	case OpEqual:
		return value.Equal(c.Value)
	case OpNotEqual:
		return !value.Equal(c.Value)
	case OpGreaterThan:
		return compareOrdered(value, c.Value) > 0
	case OpGreaterEqual:
		return compareOrdered(value, c.Value) >= 0
	case OpLessThan:
		ord := compareOrdered(value, c.Value)
		return ord != incomparable && ord < 0
	case OpLessEqual:
		ord := compareOrdered(value, c.Value)
		return ord != incomparable && ord <= 0
	case OpIn:
		return containsValue(c.Value, value)
	case OpNotIn:
		return !containsValue(c.Value, value)
	case OpContains:
		field, ok := value.AsString()
		if !ok {
			return false
		}
		substr, ok := c.Value.AsString()
		if !ok {
			return false
		}
		return strings.Contains(field, substr)
	default:
		return false
	}
}

// incomparable is returned by compareOrdered for values that have no
// meaningful order relative to each other. It is chosen so that every
// ordering test against it fails.
const incomparable = -2

// compareOrdered compares two values for the ordering operators. Only
// number-to-number and string-to-string comparisons are meaningful;
// anything else is incomparable and matches no ordering operator.
func compareOrdered(a, b record.Value) int {
	if a.IsNumber() && b.IsNumber() {
		return record.Compare(a, b)
	}
	if as, ok := a.AsString(); ok {
		if bs, ok := b.AsString(); ok {
			return strings.Compare(as, bs)
		}
	}
	return incomparable
}

func containsValue(seq, v record.Value) bool {
	items, ok := seq.AsArray()
	if !ok {
		return false
	}
	for _, item := range items {
		if item.Equal(v) {
			return true
		}
	}
	return false
}
