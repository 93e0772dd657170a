package report

import (
	"context"
	"testing"

	"github.com/jekabolt/grbpwr-reports/internal/entity"
	"github.com/jekabolt/grbpwr-reports/internal/store/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func funnelStore() *memstore.Store {
	s := newTestStore()
	s.Insert(entity.SourceLead, repeat(4, func() entity.Record { return lead() })...)
	s.Insert(entity.SourceLead, repeat(3, func() entity.Record { return opp(&stageX, 10) })...)
	s.Insert(entity.SourceLead, repeat(2, func() entity.Record { return opp(&stageY, 20) })...)
	s.Insert(entity.SourceLead, opp(&stageWon, 50), opp(nil, 5))
	s.Insert(entity.SourceLead, repeat(2, func() entity.Record { return opp(&stageX, 30, archived()) })...)
	return s
}

func TestFunnel(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, funnelStore(), Config{})
	stages := []entity.PipelineStage{stageWon, stageY, stageX}

	res, diags := e.Funnel(ctx, Query{Source: entity.SourceLead}, stages)
	require.Empty(t, diags)
	require.Len(t, res.Stages, 4)

	names := make([]string, 0, len(res.Stages))
	counts := make([]int, 0, len(res.Stages))
	for _, st := range res.Stages {
		names = append(names, st.Name)
		counts = append(counts, st.Count)
	}
	assert.Equal(t, []string{"Leads", "X", "Y", "Won"}, names)
	assert.Equal(t, []int{4, 3, 2, 1}, counts)

	cfg := e.Config()
	assert.Equal(t, cfg.LeadsColor, res.Stages[0].Color)
	assert.Equal(t, cfg.FunnelColors[0], res.Stages[1].Color)
	assert.Equal(t, cfg.FunnelColors[1], res.Stages[2].Color)
	assert.Equal(t, cfg.WonColor, res.Stages[3].Color)
	assert.True(t, res.Stages[3].IsWon)
	assert.Equal(t, stageY.Id, res.Stages[2].StageId)
	assert.Equal(t, "30", res.Stages[1].Revenue.String())

	assert.Equal(t, 2, res.Lost.Count)
	assert.Equal(t, "60", res.Lost.Revenue.String())
	assert.Equal(t, cfg.LostColor, res.Lost.Color)

	// 8 opportunities: 6 staged, 2 lost
	assert.Equal(t, "200", res.ConversionRates.LeadToOpp.String())
	assert.Equal(t, "12.5", res.ConversionRates.OppToWon.String())
	assert.Equal(t, "25", res.ConversionRates.LeadToWon.String())
}

func TestFunnelIncludeUndefined(t *testing.T) {
	e := newTestEngine(t, funnelStore(), Config{IncludeUndefinedInTotals: true})

	res, diags := e.Funnel(context.Background(), Query{Source: entity.SourceLead}, []entity.PipelineStage{stageX, stageY, stageWon})
	require.Empty(t, diags)
	assert.Equal(t, "225", res.ConversionRates.LeadToOpp.String())
	assert.Equal(t, "11.1", res.ConversionRates.OppToWon.String())
}

func TestFunnelLeadToWonCapped(t *testing.T) {
	s := newTestStore()
	s.Insert(entity.SourceLead, lead())
	s.Insert(entity.SourceLead, repeat(3, func() entity.Record { return opp(&stageWon, 1) })...)
	e := newTestEngine(t, s, Config{})

	res, diags := e.Funnel(context.Background(), Query{Source: entity.SourceLead}, []entity.PipelineStage{stageWon})
	require.Empty(t, diags)
	assert.Equal(t, "100", res.ConversionRates.LeadToWon.String())
	assert.Equal(t, "100", res.ConversionRates.OppToWon.String())
}

func TestFunnelEmpty(t *testing.T) {
	e := newTestEngine(t, newTestStore(), Config{})

	res, diags := e.Funnel(context.Background(), Query{Source: entity.SourceLead}, []entity.PipelineStage{stageX})
	require.Empty(t, diags)
	require.Len(t, res.Stages, 2)
	assert.Zero(t, res.Stages[1].Count)
	assert.True(t, res.ConversionRates.LeadToOpp.IsZero())
	assert.True(t, res.ConversionRates.OppToWon.IsZero())
	assert.True(t, res.ConversionRates.LeadToWon.IsZero())
}
