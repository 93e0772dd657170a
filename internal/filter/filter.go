// Package filter implements the typed predicate tree used to restrict which
// records take part in a report aggregation.
//
// A filter is either a single condition (field, operator, value) or an And/Or
// composition of filters. An empty And means "no restriction".
package filter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Op is a comparison operator of a condition.
type Op string

const (
	OpEq    Op = "="
	OpNe    Op = "!="
	OpIn    Op = "in"
	OpNotIn Op = "not in"
	OpGt    Op = ">"
	OpLt    Op = "<"
	OpGte   Op = ">="
	OpLte   Op = "<="
	OpILike Op = "ilike"
)

var validOps = map[Op]bool{
	OpEq:    true,
	OpNe:    true,
	OpIn:    true,
	OpNotIn: true,
	OpGt:    true,
	OpLt:    true,
	OpGte:   true,
	OpLte:   true,
	OpILike: true,
}

// IsValidOp reports whether op is a supported operator.
func IsValidOp(op Op) bool {
	return validOps[op]
}

// Expr is a node of the filter tree.
type Expr interface {
	// String renders the node back to domain text.
	String() string
	isExpr()
}

// Cond compares a record field with a literal value.
type Cond struct {
	Field string
	Op    Op
	Value any
}

// And is satisfied when every child is. An empty And matches everything.
type And []Expr

// Or is satisfied when any child is. An empty Or matches nothing.
type Or []Expr

func (Cond) isExpr() {}
func (And) isExpr()  {}
func (Or) isExpr()   {}

// Eq, Ne, Gte and Lte are shorthands used when building predicates in code.
func Eq(field string, v any) Cond  { return Cond{Field: field, Op: OpEq, Value: v} }
func Ne(field string, v any) Cond  { return Cond{Field: field, Op: OpNe, Value: v} }
func Gte(field string, v any) Cond { return Cond{Field: field, Op: OpGte, Value: v} }
func Lte(field string, v any) Cond { return Cond{Field: field, Op: OpLte, Value: v} }
func In(field string, v ...any) Cond {
	return Cond{Field: field, Op: OpIn, Value: v}
}

// All joins the given expressions with a logical AND. Nil and empty And
// operands are dropped, nested And nodes are flattened. The result is never
// nil.
func All(exprs ...Expr) And {
	out := And{}
	for _, e := range exprs {
		switch v := e.(type) {
		case nil:
		case And:
			out = append(out, All(v...)...)
		default:
			out = append(out, v)
		}
	}
	return out
}

// IsEmpty reports whether e places no restriction on records.
func IsEmpty(e Expr) bool {
	if e == nil {
		return true
	}
	a, ok := e.(And)
	if !ok {
		return false
	}
	for _, c := range a {
		if !IsEmpty(c) {
			return false
		}
	}
	return true
}

// Fields returns the distinct field names referenced by e, sorted.
func Fields(e Expr) []string {
	seen := map[string]bool{}
	walk(e, func(c Cond) { seen[c.Field] = true })
	fields := make([]string, 0, len(seen))
	for f := range seen {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Mentions reports whether e has a condition on field.
func Mentions(e Expr, field string) bool {
	found := false
	walk(e, func(c Cond) {
		if c.Field == field {
			found = true
		}
	})
	return found
}

func walk(e Expr, fn func(Cond)) {
	switch v := e.(type) {
	case Cond:
		fn(v)
	case And:
		for _, c := range v {
			walk(c, fn)
		}
	case Or:
		for _, c := range v {
			walk(c, fn)
		}
	}
}

// Validate checks that every condition uses a supported operator with a
// value of the right shape and names a field accepted by known.
func Validate(e Expr, known func(field string) bool) error {
	var err error
	walk(e, func(c Cond) {
		if err != nil {
			return
		}
		switch {
		case !IsValidOp(c.Op):
			err = fmt.Errorf("unsupported operator %q on field %q", c.Op, c.Field)
		case known != nil && !known(c.Field):
			err = fmt.Errorf("unknown field %q", c.Field)
		case (c.Op == OpIn || c.Op == OpNotIn) && !isList(c.Value):
			err = fmt.Errorf("operator %q on field %q needs a list value", c.Op, c.Field)
		case c.Op == OpILike && !isString(c.Value):
			err = fmt.Errorf("operator %q on field %q needs a string value", c.Op, c.Field)
		}
	})
	return err
}

func isList(v any) bool {
	_, ok := v.([]any)
	return ok
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

func (c Cond) String() string {
	return fmt.Sprintf("(%s, %s, %s)", strconv.Quote(c.Field), strconv.Quote(string(c.Op)), literal(c.Value))
}

// String renders the node in prefix (Polish) domain notation.
func (a And) String() string {
	return "[" + strings.Join(prefix("&", a), ", ") + "]"
}

func (o Or) String() string {
	return "[" + strings.Join(prefix("|", o), ", ") + "]"
}

// prefix renders a conjunction or disjunction as n-1 operators followed by the
// operands. A top-level And does not need explicit operators.
func prefix(op string, exprs []Expr) []string {
	var parts []string
	if op == "|" {
		for i := 1; i < len(exprs); i++ {
			parts = append(parts, strconv.Quote(op))
		}
	}
	for _, e := range exprs {
		switch v := e.(type) {
		case Cond:
			parts = append(parts, v.String())
		case And:
			inner := prefix("&", v)
			if op != "&" && len(v) > 1 {
				ops := make([]string, 0, len(v)-1)
				for i := 1; i < len(v); i++ {
					ops = append(ops, strconv.Quote("&"))
				}
				inner = append(ops, inner...)
			}
			parts = append(parts, inner...)
		case Or:
			parts = append(parts, prefix("|", v)...)
		}
	}
	return parts
}

func literal(v any) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case bool:
		if t {
			return "True"
		}
		return "False"
	case string:
		return strconv.Quote(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		return strconv.Quote(t.Format(time.DateOnly))
	case []any:
		items := make([]string, len(t))
		for i, it := range t {
			items[i] = literal(it)
		}
		return "[" + strings.Join(items, ", ") + "]"
	default:
		return strconv.Quote(fmt.Sprint(t))
	}
}
