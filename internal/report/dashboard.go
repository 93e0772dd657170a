package report

import (
	"context"

	"github.com/jekabolt/grbpwr-reports/internal/entity"
	"golang.org/x/sync/errgroup"
)

// Dashboard evaluates the chart, KPIs, funnel and detail rows of a lead
// report concurrently. Each part degrades independently.
func (e *Engine) Dashboard(ctx context.Context, q Query, stages []entity.PipelineStage) (entity.Dashboard, Diagnostics) {
	var out entity.Dashboard
	var chartD, kpiD, funnelD, detailD Diagnostics
	var g errgroup.Group
	g.Go(func() error {
		out.Chart, chartD = e.Chart(ctx, q)
		return nil
	})
	g.Go(func() error {
		out.Kpi, kpiD = e.Kpis(ctx, q)
		return nil
	})
	g.Go(func() error {
		out.Funnel, funnelD = e.Funnel(ctx, q, stages)
		return nil
	})
	g.Go(func() error {
		out.Detail, detailD = e.Detail(ctx, q)
		return nil
	})
	_ = g.Wait()

	var diags Diagnostics
	for _, d := range []Diagnostics{chartD, kpiD, funnelD, detailD} {
		diags.merge(d)
	}
	return out, diags
}
