package report

import (
	"context"
	"fmt"

	"github.com/jekabolt/grbpwr-reports/internal/entity"
	"github.com/jekabolt/grbpwr-reports/internal/filter"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// percent returns num/den*100 rounded to places, zero when den is zero.
func percent(num, den decimal.Decimal, places int32) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Mul(hundred).Div(den).Round(places)
}

func percentInt(num, den int, places int32) decimal.Decimal {
	return percent(decimal.NewFromInt(int64(num)), decimal.NewFromInt(int64(den)), places)
}

// pipelineFilters splits a lead filter into its lead, active opportunity and
// lost opportunity parts.
type pipelineFilters struct {
	leads filter.And
	opps  filter.And
	lost  filter.And
	won   filter.And
}

func (s Source) pipeline(where filter.And) (pipelineFilters, error) {
	if s.TypeField == "" || s.ActiveField == "" || s.WonField == "" {
		return pipelineFilters{}, fmt.Errorf("source %q has no opportunity pipeline", s.Kind)
	}
	opps := s.scope(filter.All(where, filter.Eq(s.TypeField, entity.LeadTypeOpportunity)), false)
	return pipelineFilters{
		leads: s.scope(filter.All(where, filter.Eq(s.TypeField, entity.LeadTypeLead)), false),
		opps:  opps,
		lost: filter.All(where,
			filter.Eq(s.TypeField, entity.LeadTypeOpportunity),
			filter.Eq(s.ActiveField, false),
		),
		won: filter.All(opps, filter.Eq(s.WonField, true)),
	}, nil
}

// Kpis derives the lead and opportunity KPIs of q. Lost opportunities are
// the archived ones; won opportunities are active ones in a won stage. A
// failing sub-query contributes zero.
func (e *Engine) Kpis(ctx context.Context, q Query) (entity.KpiSet, Diagnostics) {
	kpi := entity.KpiSet{}
	src, where, diags, ok := e.prepare(q)
	if !ok {
		return kpi, diags
	}
	pf, err := src.pipeline(where)
	if err != nil {
		diags.add("kpi", err)
		return kpi, diags
	}

	kpi.LeadCount = e.count(ctx, &diags, "lead_count", src.Kind, pf.leads)
	kpi.OppCount = e.count(ctx, &diags, "opp_count", src.Kind, pf.opps)
	kpi.LostCount = e.count(ctx, &diags, "lost_count", src.Kind, pf.lost)
	kpi.TotalOpps = kpi.OppCount + kpi.LostCount
	kpi.Forecast = e.sum(ctx, &diags, "forecast", src.Kind, pf.opps, src.RevenueField)

	won := e.total(ctx, &diags, "won", src.Kind, pf.won, src.RevenueField)
	kpi.WonCount = won.Count
	kpi.WonRevenue = won.Metric(src.RevenueField)
	if kpi.WonCount > 0 {
		kpi.AvgDealSize = kpi.WonRevenue.Div(decimal.NewFromInt(int64(kpi.WonCount))).Round(2)
	}

	kpi.WonRate = percentInt(kpi.WonCount, kpi.TotalOpps, 2)
	kpi.LostRate = percentInt(kpi.LostCount, kpi.TotalOpps, 2)
	kpi.ConversionRate = percentInt(kpi.TotalOpps, kpi.LeadCount+kpi.TotalOpps, 2)
	return kpi, diags
}

func (e *Engine) count(ctx context.Context, diags *Diagnostics, phase string, source entity.SourceKind, where filter.Expr) int {
	return collect(diags, phase, func() (int, error) {
		return e.records.Count(ctx, source, where)
	})
}
