package report

import (
	"context"
	"testing"

	"github.com/jekabolt/grbpwr-reports/internal/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKpis(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	s.Insert(entity.SourceLead, repeat(10, func() entity.Record { return opp(&stageWon, 100) })...)
	s.Insert(entity.SourceLead, repeat(5, func() entity.Record { return opp(&stageX, 40) })...)
	s.Insert(entity.SourceLead, repeat(5, func() entity.Record { return opp(&stageY, 20, archived()) })...)
	s.Insert(entity.SourceLead, repeat(5, func() entity.Record { return lead() })...)
	e := newTestEngine(t, s, Config{})

	kpi, diags := e.Kpis(ctx, Query{Source: entity.SourceLead})
	require.Empty(t, diags)
	assert.Equal(t, 5, kpi.LeadCount)
	assert.Equal(t, 15, kpi.OppCount)
	assert.Equal(t, 5, kpi.LostCount)
	assert.Equal(t, 20, kpi.TotalOpps)
	assert.Equal(t, 10, kpi.WonCount)
	assert.Equal(t, "1200", kpi.Forecast.String())
	assert.Equal(t, "1000", kpi.WonRevenue.String())
	assert.Equal(t, "100", kpi.AvgDealSize.String())
	assert.Equal(t, "50", kpi.WonRate.String())
	assert.Equal(t, "25", kpi.LostRate.String())
	assert.Equal(t, "80", kpi.ConversionRate.String())
}

func TestKpisFilteredByDomain(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	s.Insert(entity.SourceLead,
		opp(&stageWon, 100, with(entity.LeadProbability, 100.0)),
		opp(&stageX, 40, with(entity.LeadProbability, 10.0)),
		opp(&stageX, 40, with(entity.LeadProbability, 60.0)),
	)
	e := newTestEngine(t, s, Config{})

	kpi, diags := e.Kpis(ctx, Query{Source: entity.SourceLead, Domain: `[("probability", ">=", 50)]`})
	require.Empty(t, diags)
	assert.Equal(t, 2, kpi.OppCount)
	assert.Equal(t, "140", kpi.Forecast.String())
	assert.Equal(t, "50", kpi.WonRate.String())
}

func TestKpisEmpty(t *testing.T) {
	e := newTestEngine(t, newTestStore(), Config{})

	kpi, diags := e.Kpis(context.Background(), Query{Source: entity.SourceLead})
	require.Empty(t, diags)
	assert.Zero(t, kpi.TotalOpps)
	assert.True(t, kpi.WonRate.IsZero())
	assert.True(t, kpi.LostRate.IsZero())
	assert.True(t, kpi.ConversionRate.IsZero())
	assert.True(t, kpi.AvgDealSize.IsZero())
}

func TestKpisWithoutPipeline(t *testing.T) {
	e := newTestEngine(t, newTestStore(), Config{})

	_, diags := e.Kpis(context.Background(), Query{Source: entity.SourceActivity})
	assert.Equal(t, []string{"kpi"}, diags.Phases())
}

func TestKpisStoreFailure(t *testing.T) {
	e, err := New(failingStore{}, nil, Config{})
	require.NoError(t, err)

	kpi, diags := e.Kpis(context.Background(), Query{Source: entity.SourceLead})
	assert.Equal(t, []string{"lead_count", "opp_count", "lost_count", "forecast", "won"}, diags.Phases())
	assert.Equal(t, entity.KpiSet{
		Forecast:       decimal.Zero,
		WonRevenue:     decimal.Zero,
		WonRate:        decimal.Zero,
		LostRate:       decimal.Zero,
		ConversionRate: decimal.Zero,
	}, kpi)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "66.67", percentInt(2, 3, 2).String())
	assert.Equal(t, "33.3", percentInt(1, 3, 1).String())
	assert.True(t, percentInt(1, 0, 2).IsZero())
}
