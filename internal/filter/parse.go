package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrSyntax is wrapped by every parse failure.
var ErrSyntax = errors.New("filter syntax error")

// Parse parses domain text such as
//
//	[("type", "=", "opportunity"), "|", ("stage_id", "in", [1, 2]), ("probability", ">", 50)]
//
// Conditions are tuples (or lists) of field, operator and value. "&" and "|"
// are prefix operators taking the next two operands; operands left over at the
// top level are joined with AND. Blank text parses to an empty And.
func Parse(text string) (Expr, error) {
	if strings.TrimSpace(text) == "" {
		return And{}, nil
	}
	p := &parser{lx: newLexer(text)}
	if err := p.next(); err != nil {
		return nil, err
	}
	items, err := p.domain()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.errorf("unexpected %s after domain", p.tok)
	}
	return fold(items)
}

// ParseLenient parses text and degrades to an empty And on any error. It is
// used at query time where legacy definitions must not break aggregation.
func ParseLenient(text string) Expr {
	e, err := Parse(text)
	if err != nil {
		return And{}
	}
	if v := Validate(e, nil); v != nil {
		return And{}
	}
	return e
}

// item is a single entry of a domain list: either a leaf condition or a
// prefix operator.
type item struct {
	op   string
	cond Cond
}

func fold(items []item) (Expr, error) {
	var stack []Expr
	for i := len(items) - 1; i >= 0; i-- {
		it := items[i]
		if it.op == "" {
			stack = append(stack, it.cond)
			continue
		}
		if len(stack) < 2 {
			return nil, fmt.Errorf("%w: operator %q needs two operands", ErrSyntax, it.op)
		}
		a, b := stack[len(stack)-1], stack[len(stack)-2]
		stack = stack[:len(stack)-2]
		if it.op == "&" {
			stack = append(stack, All(a, b))
		} else {
			stack = append(stack, Or{a, b})
		}
	}
	out := And{}
	for i := len(stack) - 1; i >= 0; i-- {
		out = append(out, stack[i])
	}
	return All(out...), nil
}

type parser struct {
	lx  *lexer
	tok token
}

func (p *parser) next() error {
	t, err := p.lx.scan()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", ErrSyntax, p.tok.pos, fmt.Sprintf(format, args...))
}

func (p *parser) expect(k tokenKind) error {
	if p.tok.kind != k {
		return p.errorf("expected %s, got %s", k, p.tok)
	}
	return p.next()
}

func (p *parser) domain() ([]item, error) {
	if err := p.expect(tokLBracket); err != nil {
		return nil, err
	}
	var items []item
	for p.tok.kind != tokRBracket {
		it, err := p.item()
		if err != nil {
			return nil, err
		}
		items = append(items, it)
		if p.tok.kind == tokComma {
			if err := p.next(); err != nil {
				return nil, err
			}
			continue
		}
		if p.tok.kind != tokRBracket {
			return nil, p.errorf("expected , or ], got %s", p.tok)
		}
	}
	return items, p.next()
}

func (p *parser) item() (item, error) {
	switch p.tok.kind {
	case tokString:
		op := p.tok.text
		if op != "&" && op != "|" {
			return item{}, p.errorf("unknown domain operator %q", op)
		}
		return item{op: op}, p.next()
	case tokLParen, tokLBracket:
		c, err := p.cond()
		return item{cond: c}, err
	default:
		return item{}, p.errorf("unexpected %s", p.tok)
	}
}

func (p *parser) cond() (Cond, error) {
	closing := tokRParen
	if p.tok.kind == tokLBracket {
		closing = tokRBracket
	}
	if err := p.next(); err != nil {
		return Cond{}, err
	}
	if p.tok.kind != tokString {
		return Cond{}, p.errorf("expected field name, got %s", p.tok)
	}
	field := p.tok.text
	if !validField(field) {
		return Cond{}, p.errorf("invalid field name %q", field)
	}
	if err := p.next(); err != nil {
		return Cond{}, err
	}
	if err := p.expect(tokComma); err != nil {
		return Cond{}, err
	}
	if p.tok.kind != tokString {
		return Cond{}, p.errorf("expected operator, got %s", p.tok)
	}
	op, ok := normalizeOp(p.tok.text)
	if !ok {
		return Cond{}, p.errorf("unsupported operator %q", p.tok.text)
	}
	if err := p.next(); err != nil {
		return Cond{}, err
	}
	if err := p.expect(tokComma); err != nil {
		return Cond{}, err
	}
	v, err := p.value()
	if err != nil {
		return Cond{}, err
	}
	if err := p.expect(closing); err != nil {
		return Cond{}, err
	}
	return Cond{Field: field, Op: op, Value: v}, nil
}

func (p *parser) value() (any, error) {
	t := p.tok
	switch t.kind {
	case tokString:
		return t.text, p.next()
	case tokNumber:
		if n, err := strconv.ParseInt(t.text, 10, 64); err == nil {
			return n, p.next()
		}
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, p.errorf("bad number %q", t.text)
		}
		return f, p.next()
	case tokIdent:
		var v any
		switch t.text {
		case "True", "true":
			v = true
		case "False", "false":
			v = false
		case "None", "null":
			v = nil
		default:
			return nil, p.errorf("unknown literal %q", t.text)
		}
		return v, p.next()
	case tokLBracket, tokLParen:
		closing := tokRBracket
		if t.kind == tokLParen {
			closing = tokRParen
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		list := []any{}
		for p.tok.kind != closing {
			v, err := p.value()
			if err != nil {
				return nil, err
			}
			list = append(list, v)
			if p.tok.kind == tokComma {
				if err := p.next(); err != nil {
					return nil, err
				}
				continue
			}
			if p.tok.kind != closing {
				return nil, p.errorf("expected , or %s, got %s", closing, p.tok)
			}
		}
		return list, p.next()
	default:
		return nil, p.errorf("expected value, got %s", t)
	}
}

func normalizeOp(s string) (Op, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "=", "==":
		return OpEq, true
	case "!=", "<>":
		return OpNe, true
	case "in":
		return OpIn, true
	case "not in":
		return OpNotIn, true
	case ">":
		return OpGt, true
	case "<":
		return OpLt, true
	case ">=":
		return OpGte, true
	case "<=":
		return OpLte, true
	case "ilike", "like":
		return OpILike, true
	}
	return "", false
}

func validField(s string) bool {
	if s == "" || s[0] == '.' || s[len(s)-1] == '.' {
		return false
	}
	for _, r := range s {
		if r != '_' && r != '.' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
