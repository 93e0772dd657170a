package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jekabolt/grbpwr-reports/internal/entity"
	"github.com/jekabolt/grbpwr-reports/internal/filter"
	"github.com/shopspring/decimal"
)

var psq = sq.StatementBuilder.PlaceholderFormat(sq.Question)

type recordStore struct {
	*MYSQLStore
}

// where translates a filter tree. An empty filter yields a nil Sqlizer.
func (q *sourceQuery) where(e filter.Expr) (sq.Sqlizer, error) {
	switch v := e.(type) {
	case nil:
		return nil, nil
	case filter.And:
		and := sq.And{}
		for _, c := range v {
			s, err := q.where(c)
			if err != nil {
				return nil, err
			}
			if s != nil {
				and = append(and, s)
			}
		}
		if len(and) == 0 {
			return nil, nil
		}
		return and, nil
	case filter.Or:
		or := sq.Or{}
		for _, c := range v {
			s, err := q.where(c)
			if err != nil {
				return nil, err
			}
			if s == nil {
				s = sq.Expr("1=1")
			}
			or = append(or, s)
		}
		return or, nil
	case filter.Cond:
		return q.cond(v)
	}
	return nil, fmt.Errorf("unsupported filter node %T", e)
}

// cond translates a single condition. Comparing with false matches NULL as
// well, and a negated comparison keeps NULL rows, the way domain filters
// treat unset fields.
func (q *sourceQuery) cond(c filter.Cond) (sq.Sqlizer, error) {
	f, err := q.resolve(c.Field)
	if err != nil {
		return nil, err
	}
	col := f.expr
	isNull := sq.Eq{col: nil}
	notNull := sq.NotEq{col: nil}

	switch c.Op {
	case filter.OpEq:
		switch {
		case c.Value == nil:
			return isNull, nil
		case c.Value == false && f.kind == entity.FieldBool:
			return sq.Or{sq.Eq{col: false}, isNull}, nil
		case c.Value == false:
			return isNull, nil
		}
		return sq.Eq{col: c.Value}, nil
	case filter.OpNe:
		switch {
		case c.Value == nil:
			return notNull, nil
		case c.Value == false && f.kind == entity.FieldBool:
			return sq.Eq{col: true}, nil
		case c.Value == false:
			return notNull, nil
		}
		return sq.Or{sq.NotEq{col: c.Value}, isNull}, nil
	case filter.OpIn:
		return sq.Eq{col: c.Value}, nil
	case filter.OpNotIn:
		return sq.Or{sq.NotEq{col: c.Value}, isNull}, nil
	case filter.OpGt:
		return sq.Gt{col: c.Value}, nil
	case filter.OpLt:
		return sq.Lt{col: c.Value}, nil
	case filter.OpGte:
		return sq.GtOrEq{col: c.Value}, nil
	case filter.OpLte:
		return sq.LtOrEq{col: c.Value}, nil
	case filter.OpILike:
		s, ok := c.Value.(string)
		if !ok {
			return nil, fmt.Errorf("operator %q on field %q needs a string value", c.Op, c.Field)
		}
		return sq.Like{col: "%" + s + "%"}, nil
	}
	return nil, fmt.Errorf("unsupported operator %q", c.Op)
}

func (q *sourceQuery) selectFrom(pred sq.Sqlizer, columns ...string) sq.SelectBuilder {
	from, joins := q.from()
	b := psq.Select(columns...).From(from)
	for _, j := range joins {
		b = b.LeftJoin(j)
	}
	if pred != nil {
		b = b.Where(pred)
	}
	return b
}

func (rs *recordStore) Count(ctx context.Context, source entity.SourceKind, where filter.Expr) (int, error) {
	q, err := newQuery(source)
	if err != nil {
		return 0, err
	}
	pred, err := q.where(where)
	if err != nil {
		return 0, fmt.Errorf("invalid filter: %w", err)
	}
	query, args, err := q.selectFrom(pred, "COUNT(*)").ToSql()
	if err != nil {
		return 0, fmt.Errorf("building count query: %w", err)
	}

	ctx, cancel := rs.queryCtx(ctx)
	defer cancel()
	var count int
	if err := rs.db.QueryRowxContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("can't count %s: %w", source, err)
	}
	return count, nil
}

// dateBucket formats a date column to the label of its bucket.
func dateBucket(expr string, g entity.Granularity) string {
	layout := "%Y-%m"
	if g == entity.GranularityDay {
		layout = "%Y-%m-%d"
	}
	return "DATE_FORMAT(" + expr + ", '" + layout + "')"
}

var aggregateFuncs = map[entity.AggregateFunc]string{
	entity.AggregateSum: "SUM",
	entity.AggregateAvg: "AVG",
	entity.AggregateMax: "MAX",
	entity.AggregateMin: "MIN",
}

// keySpec tells how the key columns of a grouped row are read back.
type keySpec struct {
	ref  bool
	kind entity.FieldKind
}

func (rs *recordStore) GroupAggregate(ctx context.Context, source entity.SourceKind, where filter.Expr, groupBy []entity.GroupBy, aggregates []entity.Aggregate) ([]entity.GroupRow, error) {
	q, err := newQuery(source)
	if err != nil {
		return nil, err
	}

	var columns, groupCols []string
	specs := make([]keySpec, 0, len(groupBy))
	for _, g := range groupBy {
		f, err := q.resolve(g.Field)
		if err != nil {
			return nil, err
		}
		switch {
		case f.kind == entity.FieldReference:
			name := q.displayName(g.Field)
			columns = append(columns, f.expr, name)
			groupCols = append(groupCols, f.expr, name)
			specs = append(specs, keySpec{ref: true})
		case f.kind == entity.FieldDate && g.Granularity != entity.GranularityNone:
			bucket := dateBucket(f.expr, g.Granularity)
			columns = append(columns, bucket)
			groupCols = append(groupCols, bucket)
			specs = append(specs, keySpec{kind: entity.FieldText})
		default:
			columns = append(columns, f.expr)
			groupCols = append(groupCols, f.expr)
			specs = append(specs, keySpec{kind: f.kind})
		}
	}
	columns = append(columns, "COUNT(*)")
	for _, a := range aggregates {
		f, err := q.resolve(a.Field)
		if err != nil {
			return nil, err
		}
		fn, ok := aggregateFuncs[a.Func]
		if !ok || !f.kind.IsNumeric() {
			return nil, fmt.Errorf("cannot aggregate field %q with %q", a.Field, a.Func)
		}
		columns = append(columns, fn+"("+f.expr+")")
	}

	pred, err := q.where(where)
	if err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}
	b := q.selectFrom(pred, columns...)
	if len(groupCols) > 0 {
		b = b.GroupBy(groupCols...).OrderBy(groupCols...)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building aggregate query: %w", err)
	}

	ctx, cancel := rs.queryCtx(ctx)
	defer cancel()
	rows, err := rs.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("can't aggregate %s: %w", source, err)
	}
	defer rows.Close()

	out := []entity.GroupRow{}
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("slice scan: %w", err)
		}
		row, err := groupRow(vals, specs, aggregates)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating aggregate rows: %w", err)
	}
	return out, nil
}

func groupRow(vals []any, specs []keySpec, aggregates []entity.Aggregate) (entity.GroupRow, error) {
	row := entity.GroupRow{Metrics: map[string]decimal.Decimal{}}
	i := 0
	for _, ks := range specs {
		if ks.ref {
			if id, ok := asInt64(vals[i]); ok {
				row.Keys = append(row.Keys, entity.ReferenceKey{ID: id, DisplayName: asString(vals[i+1])})
			} else {
				row.Keys = append(row.Keys, entity.NullKey{})
			}
			i += 2
			continue
		}
		v := scalar(ks.kind, vals[i])
		if v == nil {
			row.Keys = append(row.Keys, entity.NullKey{})
		} else {
			row.Keys = append(row.Keys, entity.ScalarKey{Value: v})
		}
		i++
	}
	count, ok := asInt64(vals[i])
	if !ok {
		return row, fmt.Errorf("bad count %v", vals[i])
	}
	row.Count = int(count)
	i++
	for _, a := range aggregates {
		d, err := asDecimal(vals[i])
		if err != nil {
			return row, fmt.Errorf("bad %s of %s: %w", a.Func, a.Field, err)
		}
		row.Metrics[a.Field] = d
		i++
	}
	return row, nil
}

func (rs *recordStore) Read(ctx context.Context, source entity.SourceKind, where filter.Expr, rq entity.ReadQuery) ([]entity.Record, error) {
	q, err := newQuery(source)
	if err != nil {
		return nil, err
	}

	id, err := q.resolve("id")
	if err != nil {
		return nil, err
	}
	columns := []string{id.expr}
	specs := make([]keySpec, 0, len(rq.Fields))
	for _, name := range rq.Fields {
		f, err := q.resolve(name)
		if err != nil {
			return nil, err
		}
		if f.kind == entity.FieldReference {
			columns = append(columns, f.expr, q.displayName(name))
			specs = append(specs, keySpec{ref: true})
			continue
		}
		columns = append(columns, f.expr)
		specs = append(specs, keySpec{kind: f.kind})
	}
	var order []string
	for _, o := range rq.Order {
		f, err := q.resolve(o.Field)
		if err != nil {
			return nil, err
		}
		order = append(order, f.expr+" "+o.Factor.String())
	}
	order = append(order, id.expr+" ASC")

	pred, err := q.where(where)
	if err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}
	b := q.selectFrom(pred, columns...).OrderBy(order...)
	if rq.Limit > 0 {
		b = b.Limit(uint64(rq.Limit))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building read query: %w", err)
	}

	ctx, cancel := rs.queryCtx(ctx)
	defer cancel()
	rows, err := rs.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("can't read %s: %w", source, err)
	}
	defer rows.Close()

	out := []entity.Record{}
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("slice scan: %w", err)
		}
		rec := entity.Record{"id": scalar(entity.FieldInteger, vals[0])}
		i := 1
		for n, name := range rq.Fields {
			if specs[n].ref {
				if refID, ok := asInt64(vals[i]); ok {
					rec[name] = entity.Reference{ID: refID, Name: asString(vals[i+1])}
				} else {
					rec[name] = nil
				}
				i += 2
				continue
			}
			rec[name] = scalar(specs[n].kind, vals[i])
			i++
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating read rows: %w", err)
	}
	return out, nil
}

// scalar converts a driver value to the Go type of a field kind: integers to
// int64, numbers to decimal.Decimal, booleans stored as TINYINT to bool and
// text to string.
func scalar(kind entity.FieldKind, v any) any {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if v == nil {
		return nil
	}
	switch kind {
	case entity.FieldBool:
		switch t := v.(type) {
		case bool:
			return t
		case int64:
			return t != 0
		case string:
			return t == "1" || t == "true"
		}
	case entity.FieldInteger:
		if n, ok := asInt64(v); ok {
			return n
		}
	case entity.FieldNumber:
		if d, err := asDecimal(v); err == nil {
			return d
		}
	case entity.FieldDate:
		if s, ok := v.(string); ok {
			for _, layout := range []string{time.DateTime, time.DateOnly} {
				if t, err := time.Parse(layout, s); err == nil {
					return t
				}
			}
		}
	}
	return v
}

func asInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case []byte:
		n, err := strconv.ParseInt(string(t), 10, 64)
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		return n, err == nil
	}
	return 0, false
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case string:
		return t
	}
	return fmt.Sprint(v)
}

// asDecimal reads an aggregate. SQL aggregates over no rows are NULL, which
// reads as zero.
func asDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case nil:
		return decimal.Zero, nil
	case []byte:
		return decimal.NewFromString(string(t))
	case string:
		return decimal.NewFromString(t)
	case int64:
		return decimal.NewFromInt(t), nil
	case float64:
		return decimal.NewFromFloat(t), nil
	case decimal.Decimal:
		return t, nil
	}
	return decimal.Zero, fmt.Errorf("unexpected value %T", v)
}
