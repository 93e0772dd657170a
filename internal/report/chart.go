package report

import (
	"context"
	"fmt"
	"sort"

	"github.com/jekabolt/grbpwr-reports/internal/entity"
	"github.com/jekabolt/grbpwr-reports/internal/filter"
	"github.com/shopspring/decimal"
)

// allLabel names the single group of an ungrouped chart.
const allLabel = "All"

// Chart computes the grouped counts and sums of q together with its time
// series. Every array of the result is present even when queries fail.
func (e *Engine) Chart(ctx context.Context, q Query) (entity.ChartData, Diagnostics) {
	out := entity.EmptyChartData()
	src, where, diags, ok := e.prepare(q)
	if !ok {
		return out, diags
	}
	where = src.scope(where, false)

	groupField, replaced := src.groupField(q.GroupField)
	if replaced {
		diags.add("group_field", fmt.Errorf("unknown group field %q, using %q", q.GroupField, groupField))
	}
	valueField, replaced := src.valueField(q.ValueField)
	if replaced {
		diags.add("value_field", fmt.Errorf("unknown value field %q, using %q", q.ValueField, valueField))
	}

	if groupField == "" {
		count, sum := e.totals(ctx, &diags, src, where, valueField)
		out.Labels = append(out.Labels, allLabel)
		out.Counts = append(out.Counts, count)
		out.Sums = append(out.Sums, sum)
	} else {
		for _, g := range e.Groups(ctx, &diags, src.Kind, where, groupField, valueField, q.Limit) {
			out.Labels = append(out.Labels, g.Label)
			out.Counts = append(out.Counts, g.Count)
			out.Sums = append(out.Sums, g.Sum)
		}
	}

	out.LineLabels, out.LineValues = e.series(ctx, &diags, src, where, valueField, GranularityFor(q.TimeFilter))
	return out, diags
}

// Groups runs the grouped count and the grouped sum of where by groupField
// and joins them on the group key. Without a value field a group's sum is its
// count. A positive limit keeps the limit largest groups by sum (or count
// without a value field); ties keep store order.
func (e *Engine) Groups(ctx context.Context, diags *Diagnostics, source entity.SourceKind, where filter.Expr, groupField, valueField string, limit int) []entity.GroupEntry {
	groupBy := []entity.GroupBy{{Field: groupField}}
	counts := collect(diags, "group_count", func() ([]entity.GroupRow, error) {
		return e.records.GroupAggregate(ctx, source, where, groupBy, nil)
	})

	sums := map[string]decimal.Decimal{}
	if valueField != "" {
		rows := collect(diags, "group_sum", func() ([]entity.GroupRow, error) {
			return e.records.GroupAggregate(ctx, source, where, groupBy, []entity.Aggregate{entity.Sum(valueField)})
		})
		for _, r := range rows {
			sums[r.Key().JoinKey()] = r.Metric(valueField)
		}
	}

	entries := make([]entity.GroupEntry, 0, len(counts))
	for _, r := range counts {
		key := r.Key()
		id := key.JoinKey()
		sum, ok := sums[id]
		if !ok {
			if valueField == "" {
				sum = decimal.NewFromInt(int64(r.Count))
			} else {
				sum = decimal.Zero
			}
		}
		entries = append(entries, entity.GroupEntry{
			GroupID: id,
			Label:   key.Label(e.cfg.UndefinedLabel),
			Count:   r.Count,
			Sum:     sum,
		})
	}
	return topN(entries, limit, valueField != "")
}

func topN(entries []entity.GroupEntry, limit int, bySum bool) []entity.GroupEntry {
	if limit <= 0 || len(entries) <= limit {
		return entries
	}
	sorted := append([]entity.GroupEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if bySum {
			return sorted[i].Sum.GreaterThan(sorted[j].Sum)
		}
		return sorted[i].Count > sorted[j].Count
	})
	return sorted[:limit]
}

func (e *Engine) totals(ctx context.Context, diags *Diagnostics, src Source, where filter.Expr, valueField string) (int, decimal.Decimal) {
	count := collect(diags, "total_count", func() (int, error) {
		return e.records.Count(ctx, src.Kind, where)
	})
	if valueField == "" {
		return count, decimal.NewFromInt(int64(count))
	}
	return count, e.sum(ctx, diags, "total_sum", src.Kind, where, valueField)
}

// sum returns the total of field over where.
func (e *Engine) sum(ctx context.Context, diags *Diagnostics, phase string, source entity.SourceKind, where filter.Expr, field string) decimal.Decimal {
	row := e.total(ctx, diags, phase, source, where, field)
	return row.Metric(field)
}

// total runs an ungrouped aggregate, which yields a single row.
func (e *Engine) total(ctx context.Context, diags *Diagnostics, phase string, source entity.SourceKind, where filter.Expr, field string) entity.GroupRow {
	rows := collect(diags, phase, func() ([]entity.GroupRow, error) {
		return e.records.GroupAggregate(ctx, source, where, nil, []entity.Aggregate{entity.Sum(field)})
	})
	if len(rows) == 0 {
		return entity.GroupRow{}
	}
	return rows[0]
}

// series buckets where by the date field. Empty buckets are omitted and the
// rest are ordered chronologically by label.
func (e *Engine) series(ctx context.Context, diags *Diagnostics, src Source, where filter.Expr, valueField string, g entity.Granularity) ([]string, []decimal.Decimal) {
	labels, values := []string{}, []decimal.Decimal{}
	if src.DateField == "" {
		return labels, values
	}
	var aggs []entity.Aggregate
	if valueField != "" {
		aggs = append(aggs, entity.Sum(valueField))
	}
	rows := collect(diags, "time_series", func() ([]entity.GroupRow, error) {
		return e.records.GroupAggregate(ctx, src.Kind, where, []entity.GroupBy{{Field: src.DateField, Granularity: g}}, aggs)
	})
	rows = bucketRows(rows)
	for _, r := range rows {
		labels = append(labels, r.Key().Label(""))
		if valueField != "" {
			values = append(values, r.Metric(valueField))
		} else {
			values = append(values, decimal.NewFromInt(int64(r.Count)))
		}
	}
	return labels, values
}

// bucketRows drops rows without a period and sorts the rest by period label.
func bucketRows(rows []entity.GroupRow) []entity.GroupRow {
	out := make([]entity.GroupRow, 0, len(rows))
	for _, r := range rows {
		if !entity.IsNullKey(r.Key()) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Key().Label("") < out[j].Key().Label("")
	})
	return out
}
