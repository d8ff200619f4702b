package content

import (
	"fmt"
	"time"
)

// Operator is a filter comparison
type Operator string

const (
	OpEq      Operator = "=="
	OpNeq     Operator = "!="
	OpLt      Operator = "<"
	OpDefined Operator = "defined"
)

// Filter is a single predicate on a document field
type Filter struct {
	Field string
	Op    Operator
	Value any
}

// Eq matches documents where field equals value
func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEq, Value: value}
}

// Neq matches documents where field does not equal value (or is absent)
func Neq(field string, value any) Filter {
	return Filter{Field: field, Op: OpNeq, Value: value}
}

// Lt matches documents where field is less than value. Times compare as
// instants, numbers numerically, strings lexically.
func Lt(field string, value any) Filter {
	return Filter{Field: field, Op: OpLt, Value: value}
}

// Defined matches documents where field is present and non-null
func Defined(field string) Filter {
	return Filter{Field: field, Op: OpDefined}
}

// Query selects documents of one type matching all filters
type Query struct {
	Type    string
	Filters []Filter
	// Limit caps the result size; zero means unlimited
	Limit int
}

// Matches reports whether doc satisfies the query
func (q Query) Matches(doc Document) bool {
	if q.Type != "" && doc.Type() != q.Type {
		return false
	}
	for _, f := range q.Filters {
		if !f.Matches(doc) {
			return false
		}
	}
	return true
}

// Matches reports whether doc satisfies the filter
func (f Filter) Matches(doc Document) bool {
	switch f.Op {
	case OpDefined:
		return doc.Defined(f.Field)
	case OpEq:
		v, ok := doc[f.Field]
		return ok && equalValues(v, f.Value)
	case OpNeq:
		v, ok := doc[f.Field]
		return !ok || !equalValues(v, f.Value)
	case OpLt:
		v, ok := doc[f.Field]
		if !ok || v == nil {
			return false
		}
		c, ok := compareValues(v, f.Value)
		return ok && c < 0
	}
	return false
}

// String renders the filter for logs
func (f Filter) String() string {
	if f.Op == OpDefined {
		return fmt.Sprintf("defined(%s)", f.Field)
	}
	return fmt.Sprintf("%s %s %v", f.Field, f.Op, f.Value)
}

func equalValues(a, b any) bool {
	if c, ok := compareValues(a, b); ok {
		return c == 0
	}
	return a == b
}

// compareValues returns -1, 0 or 1 when a and b are comparable
func compareValues(a, b any) (int, bool) {
	if bt, ok := b.(time.Time); ok {
		as, ok := a.(string)
		if !ok {
			return 0, false
		}
		at, err := time.Parse(time.RFC3339Nano, as)
		if err != nil {
			return 0, false
		}
		return at.Compare(bt), true
	}

	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}

	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		switch {
		case as < bs:
			return -1, true
		case as > bs:
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}
