package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jekabolt/grbpwr-reports/internal/entity"
	"github.com/jekabolt/grbpwr-reports/internal/filter"
	"github.com/jekabolt/grbpwr-reports/internal/store/memstore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	testNow = time.Date(2025, time.June, 15, 10, 30, 0, 0, time.UTC)

	stageX   = entity.PipelineStage{Id: 1, Name: "X", Sequence: 1}
	stageY   = entity.PipelineStage{Id: 2, Name: "Y", Sequence: 2}
	stageWon = entity.PipelineStage{Id: 3, Name: "Won", Sequence: 3, IsWon: true}
)

func newTestEngine(t *testing.T, records *memstore.Store, cfg Config) *Engine {
	t.Helper()
	e, err := New(records, nil, cfg)
	require.NoError(t, err)
	e.now = func() time.Time { return testNow }
	return e
}

func newTestStore() *memstore.Store {
	s := memstore.New()
	for _, st := range []entity.PipelineStage{stageX, stageY, stageWon} {
		s.AddStage(st)
	}
	return s
}

func ref(st entity.PipelineStage) entity.Reference {
	return entity.Reference{ID: st.Id, Name: st.Name}
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 9, 0, 0, 0, time.UTC)
}

type leadOpt func(entity.Record)

func archived() leadOpt {
	return func(r entity.Record) { r[entity.LeadActive] = false }
}

func created(t time.Time) leadOpt {
	return func(r entity.Record) { r[entity.LeadCreateDate] = t }
}

func with(field string, v any) leadOpt {
	return func(r entity.Record) { r[field] = v }
}

var lastLeadId int64

func record(typ string, opts ...leadOpt) entity.Record {
	lastLeadId++
	r := entity.Record{
		entity.LeadID:         lastLeadId,
		entity.LeadName:       "lead",
		entity.LeadType:       typ,
		entity.LeadActive:     true,
		entity.LeadStage:      nil,
		entity.LeadCreateDate: day(2025, time.February, 1),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func opp(st *entity.PipelineStage, revenue float64, opts ...leadOpt) entity.Record {
	base := []leadOpt{with(entity.LeadExpRevenue, revenue)}
	if st != nil {
		base = append(base, with(entity.LeadStage, ref(*st)))
	}
	return record(entity.LeadTypeOpportunity, append(base, opts...)...)
}

func lead(opts ...leadOpt) entity.Record {
	return record(entity.LeadTypeLead, opts...)
}

func repeat(n int, fn func() entity.Record) []entity.Record {
	out := make([]entity.Record, n)
	for i := range out {
		out[i] = fn()
	}
	return out
}

func decimalStrings(ds []decimal.Decimal) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.String()
	}
	return out
}

var errStore = errors.New("store unavailable")

// failingStore fails every query.
type failingStore struct{}

func (failingStore) Count(ctx context.Context, source entity.SourceKind, where filter.Expr) (int, error) {
	return 0, errStore
}

func (failingStore) GroupAggregate(ctx context.Context, source entity.SourceKind, where filter.Expr, groupBy []entity.GroupBy, aggregates []entity.Aggregate) ([]entity.GroupRow, error) {
	return nil, errStore
}

func (failingStore) Read(ctx context.Context, source entity.SourceKind, where filter.Expr, q entity.ReadQuery) ([]entity.Record, error) {
	return nil, errStore
}

type labelMap map[string]string

func (m labelMap) LabelFor(source entity.SourceKind, field string) string {
	if l, ok := m[field]; ok {
		return l
	}
	return field
}
