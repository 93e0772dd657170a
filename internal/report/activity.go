package report

import (
	"context"

	"github.com/jekabolt/grbpwr-reports/internal/entity"
)

// Activity aggregates an activity report: the total, the count per activity
// type and, when the definition groups, the count per group.
func (e *Engine) Activity(ctx context.Context, q Query) (entity.ActivityData, Diagnostics) {
	data := entity.ActivityData{
		TypeCounts: []entity.NamedCount{},
		Labels:     []string{},
		Values:     []int{},
	}
	src, where, diags, ok := e.prepare(q)
	if !ok {
		return data, diags
	}
	data.Total = e.count(ctx, &diags, "activity_total", src.Kind, where)

	if src.TypeCountField != "" {
		rows := collect(&diags, "activity_types", func() ([]entity.GroupRow, error) {
			return e.records.GroupAggregate(ctx, src.Kind, where, []entity.GroupBy{{Field: src.TypeCountField}}, nil)
		})
		for _, r := range rows {
			data.TypeCounts = append(data.TypeCounts, entity.NamedCount{
				Name:  r.Key().Label(e.cfg.UndefinedLabel),
				Count: r.Count,
			})
		}
	}

	groupField, _ := src.groupField(q.GroupField)
	if groupField == "" {
		return data, diags
	}
	for _, g := range e.Groups(ctx, &diags, src.Kind, where, groupField, "", q.Limit) {
		data.Labels = append(data.Labels, g.Label)
		data.Values = append(data.Values, g.Count)
	}
	return data, diags
}
