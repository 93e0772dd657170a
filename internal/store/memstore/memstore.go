// Package memstore keeps report definitions and source records in memory.
// It serves the demo mode of the service and the engine tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jekabolt/grbpwr-reports/internal/dependency"
	"github.com/jekabolt/grbpwr-reports/internal/entity"
	"github.com/jekabolt/grbpwr-reports/internal/filter"
	"github.com/shopspring/decimal"
)

// Store is an in-memory dependency.Repository.
type Store struct {
	mu              sync.RWMutex
	records         map[entity.SourceKind][]entity.Record
	attrs           map[string]map[int64]map[string]any
	stages          []entity.PipelineStage
	labels          []entity.FieldLabel
	reports         map[int]entity.ReportDefinition
	activityReports map[int]entity.ActivityReportDefinition
	lastId          int
	now             func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		records:         map[entity.SourceKind][]entity.Record{},
		attrs:           map[string]map[int64]map[string]any{},
		reports:         map[int]entity.ReportDefinition{},
		activityReports: map[int]entity.ActivityReportDefinition{},
		now:             time.Now,
	}
}

// Insert appends records to source. Reference fields hold entity.Reference
// values or nil.
func (s *Store) Insert(source entity.SourceKind, recs ...entity.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range recs {
		cp := make(entity.Record, len(r))
		for k, v := range r {
			cp[k] = v
		}
		s.records[source] = append(s.records[source], cp)
	}
}

// SetAttr sets an attribute of the record a reference field points to, which
// makes dotted fields such as "stage_id.is_won" resolvable.
func (s *Store) SetAttr(field string, id int64, attr string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setAttr(field, id, attr, value)
}

func (s *Store) setAttr(field string, id int64, attr string, value any) {
	byId, ok := s.attrs[field]
	if !ok {
		byId = map[int64]map[string]any{}
		s.attrs[field] = byId
	}
	if byId[id] == nil {
		byId[id] = map[string]any{}
	}
	byId[id][attr] = value
}

// AddStage registers a pipeline stage.
func (s *Store) AddStage(st entity.PipelineStage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages = append(s.stages, st)
	s.setAttr(entity.LeadStage, st.Id, "is_won", st.IsWon)
}

// SetFieldLabels replaces the stored field labels.
func (s *Store) SetFieldLabels(labels []entity.FieldLabel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.labels = append([]entity.FieldLabel(nil), labels...)
}

func (s *Store) Tx(ctx context.Context, fn func(ctx context.Context, store dependency.Repository) error) error {
	return fn(ctx, s)
}

func (s *Store) Reports() dependency.Reports         { return s }
func (s *Store) Records() dependency.RecordStore     { return s }
func (s *Store) Pipeline() dependency.Pipeline       { return s }
func (s *Store) FieldLabels() dependency.FieldLabels { return s }
func (s *Store) Ping(ctx context.Context) error      { return nil }
func (s *Store) Close()                              {}

func (s *Store) ListStages(ctx context.Context) ([]entity.PipelineStage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stages := append([]entity.PipelineStage{}, s.stages...)
	sort.SliceStable(stages, func(i, j int) bool {
		return stages[i].Sequence < stages[j].Sequence
	})
	return stages, nil
}

func (s *Store) ListFieldLabels(ctx context.Context) ([]entity.FieldLabel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.FieldLabel{}, s.labels...), nil
}

func (s *Store) Count(ctx context.Context, source entity.SourceKind, where filter.Expr) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs, err := s.match(source, where)
	if err != nil {
		return 0, err
	}
	return len(recs), nil
}

type group struct {
	keys []entity.GroupKey
	recs []entity.Record
}

func (s *Store) GroupAggregate(ctx context.Context, source entity.SourceKind, where filter.Expr, groupBy []entity.GroupBy, aggregates []entity.Aggregate) ([]entity.GroupRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs, err := s.match(source, where)
	if err != nil {
		return nil, err
	}
	for _, g := range groupBy {
		if _, ok := entity.FieldKindOf(source, g.Field); !ok {
			return nil, fmt.Errorf("unknown group field %q on %s", g.Field, source)
		}
	}
	for _, a := range aggregates {
		kind, ok := entity.FieldKindOf(source, a.Field)
		if !ok || !kind.IsNumeric() {
			return nil, fmt.Errorf("cannot aggregate field %q on %s", a.Field, source)
		}
	}
	if len(groupBy) == 0 {
		return []entity.GroupRow{s.row(nil, recs, aggregates)}, nil
	}

	var groups []*group
	index := map[string]*group{}
	for _, r := range recs {
		keys := make([]entity.GroupKey, len(groupBy))
		joins := make([]string, len(groupBy))
		for i, g := range groupBy {
			keys[i] = s.groupKey(r, g)
			joins[i] = keys[i].JoinKey()
		}
		id := strings.Join(joins, "\x00")
		grp, ok := index[id]
		if !ok {
			grp = &group{keys: keys}
			index[id] = grp
			groups = append(groups, grp)
		}
		grp.recs = append(grp.recs, r)
	}

	// date buckets come back in chronological order
	for i := len(groupBy) - 1; i >= 0; i-- {
		if groupBy[i].Granularity == entity.GranularityNone {
			continue
		}
		sort.SliceStable(groups, func(a, b int) bool {
			return groups[a].keys[i].Label("") < groups[b].keys[i].Label("")
		})
	}

	rows := make([]entity.GroupRow, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, s.row(g.keys, g.recs, aggregates))
	}
	return rows, nil
}

func (s *Store) row(keys []entity.GroupKey, recs []entity.Record, aggregates []entity.Aggregate) entity.GroupRow {
	row := entity.GroupRow{Keys: keys, Count: len(recs), Metrics: map[string]decimal.Decimal{}}
	for _, a := range aggregates {
		var vals []decimal.Decimal
		for _, r := range recs {
			if d, ok := toDecimal(s.value(r, a.Field)); ok {
				vals = append(vals, d)
			}
		}
		row.Metrics[a.Field] = aggregate(a.Func, vals)
	}
	return row
}

func aggregate(fn entity.AggregateFunc, vals []decimal.Decimal) decimal.Decimal {
	if len(vals) == 0 {
		return decimal.Zero
	}
	switch fn {
	case entity.AggregateAvg:
		return decimal.Avg(vals[0], vals[1:]...)
	case entity.AggregateMin:
		return decimal.Min(vals[0], vals[1:]...)
	case entity.AggregateMax:
		return decimal.Max(vals[0], vals[1:]...)
	}
	return decimal.Sum(vals[0], vals[1:]...)
}

func (s *Store) groupKey(r entity.Record, g entity.GroupBy) entity.GroupKey {
	v := s.raw(r, g.Field)
	switch t := v.(type) {
	case nil:
		return entity.NullKey{}
	case entity.Reference:
		return entity.ReferenceKey{ID: t.ID, DisplayName: t.Name}
	case *entity.Reference:
		if t == nil {
			return entity.NullKey{}
		}
		return entity.ReferenceKey{ID: t.ID, DisplayName: t.Name}
	case time.Time:
		if g.Granularity != entity.GranularityNone {
			return entity.ScalarKey{Value: t.Format(g.Granularity.Layout())}
		}
	}
	return entity.ScalarKey{Value: v}
}

func (s *Store) Read(ctx context.Context, source entity.SourceKind, where filter.Expr, q entity.ReadQuery) ([]entity.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs, err := s.match(source, where)
	if err != nil {
		return nil, err
	}
	for _, f := range q.Fields {
		if _, ok := entity.FieldKindOf(source, f); !ok {
			return nil, fmt.Errorf("unknown field %q on %s", f, source)
		}
	}
	for i := len(q.Order) - 1; i >= 0; i-- {
		o := q.Order[i]
		sort.SliceStable(recs, func(a, b int) bool {
			c := compare(s.value(recs[a], o.Field), s.value(recs[b], o.Field))
			if o.Factor == entity.Descending {
				return c > 0
			}
			return c < 0
		})
	}
	if q.Limit > 0 && len(recs) > q.Limit {
		recs = recs[:q.Limit]
	}
	out := make([]entity.Record, 0, len(recs))
	for _, r := range recs {
		row := entity.Record{"id": r["id"]}
		for _, f := range q.Fields {
			row[f] = s.raw(r, f)
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *Store) match(source entity.SourceKind, where filter.Expr) ([]entity.Record, error) {
	fields, ok := entity.SourceFields[source]
	if !ok {
		return nil, fmt.Errorf("unknown source %q", source)
	}
	err := filter.Validate(where, func(f string) bool {
		_, ok := fields[f]
		return ok
	})
	if err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}
	var out []entity.Record
	for _, r := range s.records[source] {
		get := func(f string) (any, bool) {
			v := s.value(r, f)
			return v, v != nil
		}
		if filter.Eval(where, get) {
			out = append(out, r)
		}
	}
	return out, nil
}

// raw returns the stored value of field, resolving dotted paths.
func (s *Store) raw(r entity.Record, field string) any {
	ref, attr, dotted := strings.Cut(field, ".")
	if !dotted {
		return r[field]
	}
	var id int64
	switch t := r[ref].(type) {
	case entity.Reference:
		id = t.ID
	case *entity.Reference:
		if t == nil {
			return nil
		}
		id = t.ID
	default:
		return nil
	}
	return s.attrs[ref][id][attr]
}

// value is raw with references reduced to their id.
func (s *Store) value(r entity.Record, field string) any {
	switch t := s.raw(r, field).(type) {
	case entity.Reference:
		return t.ID
	case *entity.Reference:
		if t == nil {
			return nil
		}
		return t.ID
	case decimal.Decimal:
		return t.InexactFloat64()
	default:
		return t
	}
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case float64:
		return decimal.NewFromFloat(n), true
	case decimal.Decimal:
		return n, true
	}
	return decimal.Zero, false
}

// compare orders values for reads; nil sorts first.
func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if da, ok := toDecimal(a); ok {
		if db, ok := toDecimal(b); ok {
			return da.Cmp(db)
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
