package report

import (
	"context"
	"fmt"
	"sort"

	"github.com/jekabolt/grbpwr-reports/internal/entity"
	"github.com/jekabolt/grbpwr-reports/internal/filter"
	"github.com/shopspring/decimal"
)

// RevenueDimensions are the fields revenue can be broken down by.
var RevenueDimensions = map[string]bool{
	entity.LeadSource:   true,
	entity.LeadCampaign: true,
	entity.LeadMedium:   true,
}

// LostReasons breaks lost opportunities down by lost reason. Percentages are
// shares of the lost count.
func (e *Engine) LostReasons(ctx context.Context, q Query) ([]entity.BreakdownEntry, Diagnostics) {
	src, where, diags, ok := e.prepare(q)
	if !ok {
		return []entity.BreakdownEntry{}, diags
	}
	pf, err := src.pipeline(where)
	if err != nil {
		diags.add("lost_reasons", err)
		return []entity.BreakdownEntry{}, diags
	}
	return e.breakdown(ctx, &diags, "lost_reasons", src, pf.lost, src.LostReasonField, false), diags
}

// PipelineByStage breaks open opportunities, active and not yet won, down by
// stage. Percentages are shares of the pipeline value.
func (e *Engine) PipelineByStage(ctx context.Context, q Query) ([]entity.BreakdownEntry, Diagnostics) {
	src, where, diags, ok := e.prepare(q)
	if !ok {
		return []entity.BreakdownEntry{}, diags
	}
	pf, err := src.pipeline(where)
	if err != nil {
		diags.add("pipeline", err)
		return []entity.BreakdownEntry{}, diags
	}
	open := filter.All(pf.opps, filter.Eq(src.WonField, false))
	return e.breakdown(ctx, &diags, "pipeline", src, open, src.StageField, true), diags
}

// RevenueBy breaks won revenue down by one of RevenueDimensions.
func (e *Engine) RevenueBy(ctx context.Context, q Query, dimension string) ([]entity.BreakdownEntry, Diagnostics) {
	src, where, diags, ok := e.prepare(q)
	if !ok {
		return []entity.BreakdownEntry{}, diags
	}
	if !RevenueDimensions[dimension] || !src.Known(dimension) {
		diags.add("revenue", fmt.Errorf("unknown revenue dimension %q", dimension))
		return []entity.BreakdownEntry{}, diags
	}
	pf, err := src.pipeline(where)
	if err != nil {
		diags.add("revenue", err)
		return []entity.BreakdownEntry{}, diags
	}
	return e.breakdown(ctx, &diags, "revenue", src, pf.won, dimension, true), diags
}

// breakdown groups where by field summing the revenue field. Percent is the
// entry's share of the total value when byValue is set, of the total count
// otherwise. Records without a value for field are listed and counted in the
// total only when IncludeUndefinedInTotals is set.
func (e *Engine) breakdown(ctx context.Context, diags *Diagnostics, phase string, src Source, where filter.Expr, field string, byValue bool) []entity.BreakdownEntry {
	rows := collect(diags, phase, func() ([]entity.GroupRow, error) {
		return e.records.GroupAggregate(ctx, src.Kind, where,
			[]entity.GroupBy{{Field: field}},
			[]entity.Aggregate{entity.Sum(src.RevenueField)})
	})

	entries := make([]entity.BreakdownEntry, 0, len(rows))
	totalCount, totalValue := 0, decimal.Zero
	for _, r := range rows {
		key := r.Key()
		if entity.IsNullKey(key) && !e.cfg.IncludeUndefinedInTotals {
			continue
		}
		value := r.Metric(src.RevenueField)
		totalCount += r.Count
		totalValue = totalValue.Add(value)
		entries = append(entries, entity.BreakdownEntry{
			GroupID: key.JoinKey(),
			Label:   key.Label(e.cfg.UndefinedLabel),
			Count:   r.Count,
			Value:   value,
		})
	}
	for i := range entries {
		if byValue {
			entries[i].Percent = percent(entries[i].Value, totalValue, 2)
		} else {
			entries[i].Percent = percentInt(entries[i].Count, totalCount, 2)
		}
	}
	return entries
}

// WinLossTrend buckets won and lost opportunities by period and merges both
// series on the period. A period present on one side only reads zero on the
// other.
func (e *Engine) WinLossTrend(ctx context.Context, q Query) ([]entity.TrendPoint, Diagnostics) {
	src, where, diags, ok := e.prepare(q)
	if !ok {
		return []entity.TrendPoint{}, diags
	}
	pf, err := src.pipeline(where)
	if err != nil {
		diags.add("win_loss", err)
		return []entity.TrendPoint{}, diags
	}
	groupBy := []entity.GroupBy{{Field: src.DateField, Granularity: GranularityFor(q.TimeFilter)}}
	aggs := []entity.Aggregate{entity.Sum(src.RevenueField)}
	won := collect(&diags, "win_loss_won", func() ([]entity.GroupRow, error) {
		return e.records.GroupAggregate(ctx, src.Kind, pf.won, groupBy, aggs)
	})
	lost := collect(&diags, "win_loss_lost", func() ([]entity.GroupRow, error) {
		return e.records.GroupAggregate(ctx, src.Kind, pf.lost, groupBy, aggs)
	})
	return mergeTrend(bucketRows(won), bucketRows(lost), src.RevenueField), diags
}

func mergeTrend(won, lost []entity.GroupRow, revenueField string) []entity.TrendPoint {
	points := map[string]*entity.TrendPoint{}
	get := func(period string) *entity.TrendPoint {
		p, ok := points[period]
		if !ok {
			p = &entity.TrendPoint{Period: period, WonRevenue: decimal.Zero, LostRevenue: decimal.Zero}
			points[period] = p
		}
		return p
	}
	for _, r := range won {
		p := get(r.Key().Label(""))
		p.Won = r.Count
		p.WonRevenue = r.Metric(revenueField)
	}
	for _, r := range lost {
		p := get(r.Key().Label(""))
		p.Lost = r.Count
		p.LostRevenue = r.Metric(revenueField)
	}
	periods := make([]string, 0, len(points))
	for period := range points {
		periods = append(periods, period)
	}
	sort.Strings(periods)
	out := make([]entity.TrendPoint, 0, len(periods))
	for _, period := range periods {
		out = append(out, *points[period])
	}
	return out
}
