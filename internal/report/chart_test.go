package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jekabolt/grbpwr-reports/internal/entity"
	"github.com/jekabolt/grbpwr-reports/internal/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chartFixture(t *testing.T) *Engine {
	s := newTestStore()
	s.Insert(entity.SourceLead, repeat(3, func() entity.Record {
		return opp(&stageX, 10, created(day(2025, time.January, 10)))
	})...)
	s.Insert(entity.SourceLead, repeat(2, func() entity.Record {
		return opp(&stageY, 100, created(day(2025, time.March, 5)))
	})...)
	// outside this year
	s.Insert(entity.SourceLead, opp(&stageY, 1000, created(day(2024, time.December, 31))))
	// archived
	s.Insert(entity.SourceLead, opp(&stageX, 1000, archived(), created(day(2025, time.January, 11))))
	return newTestEngine(t, s, Config{})
}

func TestChartGroupsByDefaultField(t *testing.T) {
	ctx := context.Background()
	e := chartFixture(t)

	out, diags := e.Chart(ctx, Query{Source: entity.SourceLead, TimeFilter: entity.TimeFilterThisYear})
	require.Empty(t, diags)
	assert.Equal(t, []string{"X", "Y"}, out.Labels)
	assert.Equal(t, []int{3, 2}, out.Counts)
	// without a value field sums are counts
	assert.Equal(t, []string{"3", "2"}, decimalStrings(out.Sums))

	assert.Equal(t, []string{"2025-01", "2025-03"}, out.LineLabels)
	assert.Equal(t, []string{"3", "2"}, decimalStrings(out.LineValues))
}

func TestChartValueFieldAndLimit(t *testing.T) {
	ctx := context.Background()
	e := chartFixture(t)

	q := Query{
		Source:     entity.SourceLead,
		GroupField: entity.LeadStage,
		ValueField: entity.LeadExpRevenue,
		TimeFilter: entity.TimeFilterThisYear,
	}
	out, diags := e.Chart(ctx, q)
	require.Empty(t, diags)
	assert.Equal(t, []string{"X", "Y"}, out.Labels)
	assert.Equal(t, []string{"30", "200"}, decimalStrings(out.Sums))
	assert.Equal(t, []string{"30", "200"}, decimalStrings(out.LineValues))

	q.Limit = 1
	out, diags = e.Chart(ctx, q)
	require.Empty(t, diags)
	assert.Equal(t, []string{"Y"}, out.Labels)
	assert.Equal(t, []int{2}, out.Counts)
	assert.Equal(t, []string{"200"}, decimalStrings(out.Sums))
}

func TestChartLimitByCountWithoutValueField(t *testing.T) {
	ctx := context.Background()
	e := chartFixture(t)

	out, _ := e.Chart(ctx, Query{Source: entity.SourceLead, TimeFilter: entity.TimeFilterThisYear, Limit: 1})
	assert.Equal(t, []string{"X"}, out.Labels)
	assert.Equal(t, []int{3}, out.Counts)
}

func TestChartActiveScope(t *testing.T) {
	ctx := context.Background()
	e := chartFixture(t)

	out, diags := e.Chart(ctx, Query{
		Source:     entity.SourceLead,
		Domain:     `[("active", "=", False)]`,
		TimeFilter: entity.TimeFilterThisYear,
	})
	require.Empty(t, diags)
	assert.Equal(t, []string{"X"}, out.Labels)
	assert.Equal(t, []int{1}, out.Counts)
}

func TestChartUngroupedActivity(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	s.Insert(entity.SourceActivity,
		entity.Record{entity.ActivityID: int64(1), entity.ActivityCreateDate: day(2025, time.June, 2)},
		entity.Record{entity.ActivityID: int64(2), entity.ActivityCreateDate: day(2025, time.June, 3)},
	)
	e := newTestEngine(t, s, Config{})

	out, diags := e.Chart(ctx, Query{Source: entity.SourceActivity, TimeFilter: entity.TimeFilterThisMonth})
	require.Empty(t, diags)
	assert.Equal(t, []string{"All"}, out.Labels)
	assert.Equal(t, []int{2}, out.Counts)
	assert.Equal(t, []string{"2"}, decimalStrings(out.Sums))
	assert.Equal(t, []string{"2025-06-02", "2025-06-03"}, out.LineLabels)
}

func TestChartUndefinedGroup(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	s.Insert(entity.SourceLead, opp(&stageX, 5), opp(nil, 7))
	e := newTestEngine(t, s, Config{UndefinedLabel: "None set"})

	out, diags := e.Chart(ctx, Query{Source: entity.SourceLead, ValueField: entity.LeadExpRevenue})
	require.Empty(t, diags)
	assert.Equal(t, []string{"X", "None set"}, out.Labels)
	assert.Equal(t, []string{"5", "7"}, decimalStrings(out.Sums))
}

func TestChartDegradesOnBadDefinition(t *testing.T) {
	ctx := context.Background()
	e := chartFixture(t)

	out, diags := e.Chart(ctx, Query{
		Source:     entity.SourceLead,
		Domain:     `[("stage_id", "=", `,
		GroupField: "no_such_field",
		ValueField: entity.LeadName,
		TimeFilter: entity.TimeFilterThisYear,
	})
	assert.Equal(t, []string{"filter", "group_field", "value_field"}, diags.Phases())
	assert.ErrorIs(t, diags[0], filter.ErrSyntax)
	assert.Equal(t, []string{"X", "Y"}, out.Labels)
	assert.Equal(t, []string{"30", "200"}, decimalStrings(out.Sums))
}

func TestChartUnknownSource(t *testing.T) {
	e := chartFixture(t)

	out, diags := e.Chart(context.Background(), Query{Source: "invoice"})
	assert.Equal(t, []string{"source"}, diags.Phases())
	assert.Equal(t, entity.EmptyChartData(), out)
}

func TestChartStoreFailure(t *testing.T) {
	e, err := New(failingStore{}, nil, Config{})
	require.NoError(t, err)

	out, diags := e.Chart(context.Background(), Query{
		Source:     entity.SourceLead,
		ValueField: entity.LeadExpRevenue,
	})
	require.NotEmpty(t, diags)
	assert.True(t, errors.Is(diags.Err(), errStore))
	assert.NotNil(t, out.Labels)
	assert.NotNil(t, out.Counts)
	assert.NotNil(t, out.Sums)
	assert.NotNil(t, out.LineLabels)
	assert.NotNil(t, out.LineValues)
	assert.Empty(t, out.Labels)
	assert.Empty(t, out.LineLabels)
}

func TestChartDeterministic(t *testing.T) {
	ctx := context.Background()
	e := chartFixture(t)
	q := Query{Source: entity.SourceLead, ValueField: entity.LeadExpRevenue, TimeFilter: entity.TimeFilterThisYear}

	first, _ := e.Chart(ctx, q)
	second, _ := e.Chart(ctx, q)
	assert.Equal(t, first, second)
}

func TestTopNKeepsStoreOrderOnTies(t *testing.T) {
	entries := []entity.GroupEntry{
		{Label: "a", Count: 1},
		{Label: "b", Count: 2},
		{Label: "c", Count: 2},
	}
	got := topN(entries, 2, false)
	assert.Equal(t, []string{"b", "c"}, []string{got[0].Label, got[1].Label})
	assert.Len(t, topN(entries, 0, false), 3)
	assert.Equal(t, "a", entries[0].Label)
}
