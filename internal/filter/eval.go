package filter

import (
	"fmt"
	"strings"
	"time"
)

// Getter returns the value of a record field. Reference fields are expected
// to yield their identifier.
type Getter func(field string) (any, bool)

// Eval reports whether the record exposed by get satisfies e. Unknown fields
// compare as null.
func Eval(e Expr, get Getter) bool {
	switch v := e.(type) {
	case nil:
		return true
	case And:
		for _, c := range v {
			if !Eval(c, get) {
				return false
			}
		}
		return true
	case Or:
		for _, c := range v {
			if Eval(c, get) {
				return true
			}
		}
		return false
	case Cond:
		actual, _ := get(v.Field)
		return evalCond(v, actual)
	}
	return false
}

func evalCond(c Cond, actual any) bool {
	switch c.Op {
	case OpEq:
		return equal(actual, c.Value)
	case OpNe:
		return !equal(actual, c.Value)
	case OpIn:
		return contains(c.Value, actual)
	case OpNotIn:
		return !contains(c.Value, actual)
	case OpILike:
		s, ok := actual.(string)
		p, pok := c.Value.(string)
		return ok && pok && strings.Contains(strings.ToLower(s), strings.ToLower(p))
	case OpGt, OpLt, OpGte, OpLte:
		cmp, ok := compare(actual, c.Value)
		if !ok {
			return false
		}
		switch c.Op {
		case OpGt:
			return cmp > 0
		case OpLt:
			return cmp < 0
		case OpGte:
			return cmp >= 0
		default:
			return cmp <= 0
		}
	}
	return false
}

func contains(list, actual any) bool {
	items, ok := list.([]any)
	if !ok {
		return false
	}
	for _, it := range items {
		if equal(actual, it) {
			return true
		}
	}
	return false
}

// equal treats a false literal as matching null, the way domain filters
// compare unset fields.
func equal(actual, want any) bool {
	if actual == nil || want == nil {
		if actual == nil && (want == nil || want == false) {
			return true
		}
		return want == nil && actual == false
	}
	if cmp, ok := compare(actual, want); ok {
		return cmp == 0
	}
	return fmt.Sprint(actual) == fmt.Sprint(want)
}

// compare orders two values of compatible kinds. Dates compare against
// date strings in YYYY-MM-DD or RFC 3339 form.
func compare(a, b any) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1, true
			case fa > fb:
				return 1, true
			}
			return 0, true
		}
		return 0, false
	}
	if ta, ok := toTime(a); ok {
		if tb, ok := toTime(b); ok {
			return ta.Compare(tb), true
		}
		return 0, false
	}
	if ba, ok := a.(bool); ok {
		bb, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case ba == bb:
			return 0, true
		case !ba:
			return -1, true
		}
		return 1, true
	}
	sa, ok := a.(string)
	if !ok {
		return 0, false
	}
	sb, ok := b.(string)
	if !ok {
		return 0, false
	}
	return strings.Compare(sa, sb), true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if d, err := time.Parse(time.DateOnly, t); err == nil {
			return d, true
		}
		if d, err := time.Parse(time.RFC3339, t); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}
