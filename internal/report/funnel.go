package report

import (
	"context"
	"sort"

	"github.com/jekabolt/grbpwr-reports/internal/entity"
	"github.com/shopspring/decimal"
)

const (
	leadsStageName = "Leads"
	lostStageName  = "Lost"
)

// Funnel lays the records of q out along stages. The first stage counts
// leads, the following ones count active opportunities per pipeline stage in
// sequence order. Archived opportunities form the separate lost bucket.
//
// Opportunities without a stage count towards the opportunity total only when
// IncludeUndefinedInTotals is set. Lead to won is capped at 100; it is not
// bounded by opp to won.
func (e *Engine) Funnel(ctx context.Context, q Query, stages []entity.PipelineStage) (entity.FunnelResult, Diagnostics) {
	res := entity.FunnelResult{
		Stages: []entity.FunnelStage{},
		Lost:   entity.FunnelStage{Name: lostStageName, Color: e.cfg.LostColor, Revenue: decimal.Zero},
		ConversionRates: entity.ConversionRates{
			LeadToOpp: decimal.Zero,
			OppToWon:  decimal.Zero,
			LeadToWon: decimal.Zero,
		},
	}
	src, where, diags, ok := e.prepare(q)
	if !ok {
		return res, diags
	}
	pf, err := src.pipeline(where)
	if err != nil {
		diags.add("funnel", err)
		return res, diags
	}

	leads := e.count(ctx, &diags, "funnel_leads", src.Kind, pf.leads)
	res.Stages = append(res.Stages, entity.FunnelStage{
		Name:    leadsStageName,
		Count:   leads,
		Revenue: decimal.Zero,
		Color:   e.cfg.LeadsColor,
	})

	rows := collect(&diags, "funnel_stages", func() ([]entity.GroupRow, error) {
		return e.records.GroupAggregate(ctx, src.Kind, pf.opps,
			[]entity.GroupBy{{Field: src.StageField}},
			[]entity.Aggregate{entity.Sum(src.RevenueField)})
	})
	byStage := map[int64]entity.GroupRow{}
	active := 0
	for _, r := range rows {
		key, isRef := r.Key().(entity.ReferenceKey)
		if !isRef {
			if e.cfg.IncludeUndefinedInTotals {
				active += r.Count
			}
			continue
		}
		byStage[key.ID] = r
		active += r.Count
	}

	ordered := append([]entity.PipelineStage(nil), stages...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Sequence < ordered[j].Sequence
	})
	won := 0
	for i, st := range ordered {
		r := byStage[st.Id]
		color := e.cfg.FunnelColors[i%len(e.cfg.FunnelColors)]
		if st.IsWon {
			color = e.cfg.WonColor
			won += r.Count
		}
		res.Stages = append(res.Stages, entity.FunnelStage{
			StageId: st.Id,
			Name:    st.Name,
			Count:   r.Count,
			Revenue: r.Metric(src.RevenueField),
			Color:   color,
			IsWon:   st.IsWon,
		})
	}

	lost := e.total(ctx, &diags, "funnel_lost", src.Kind, pf.lost, src.RevenueField)
	res.Lost.Count = lost.Count
	res.Lost.Revenue = lost.Metric(src.RevenueField)

	totalOpps := active + lost.Count
	res.ConversionRates.LeadToOpp = percentInt(totalOpps, leads, 1)
	res.ConversionRates.OppToWon = percentInt(won, totalOpps, 1)
	res.ConversionRates.LeadToWon = decimal.Min(percentInt(won, leads, 1), hundred)
	return res, diags
}
