package report

import (
	"context"

	"github.com/jekabolt/grbpwr-reports/internal/entity"
	"github.com/jekabolt/grbpwr-reports/internal/filter"
)

// salespersonField is added to activity detail rows attached to leads.
const salespersonField = "salesperson"

// Detail returns the records behind a report, archived ones included, in the
// source's detail order. The query limit caps the rows, the configured detail
// limit applies when it is zero.
func (e *Engine) Detail(ctx context.Context, q Query) ([]entity.Record, Diagnostics) {
	src, where, diags, ok := e.prepare(q)
	if !ok {
		return []entity.Record{}, diags
	}
	rows := e.read(ctx, &diags, src, where, q)
	if src.Kind == entity.SourceActivity {
		e.enrichSalesperson(ctx, &diags, rows)
	}
	return rows, diags
}

func (e *Engine) read(ctx context.Context, diags *Diagnostics, src Source, where filter.Expr, q Query) []entity.Record {
	limit := q.Limit
	if limit <= 0 {
		limit = e.cfg.DetailLimit
	}
	groupField, _ := src.groupField(q.GroupField)
	rq := entity.ReadQuery{
		Fields: src.detailFields(groupField),
		Limit:  limit,
		Order:  []entity.OrderBy{src.DetailOrder},
	}
	rows := collect(diags, "detail", func() ([]entity.Record, error) {
		return e.records.Read(ctx, src.Kind, where, rq)
	})
	if rows == nil {
		rows = []entity.Record{}
	}
	return rows
}

// enrichSalesperson sets the salesperson of activities attached to leads to
// the lead's assigned user.
func (e *Engine) enrichSalesperson(ctx context.Context, diags *Diagnostics, rows []entity.Record) {
	var ids []any
	seen := map[int64]bool{}
	for _, r := range rows {
		if r.String(entity.ActivityResModel) != entity.ActivityResModelLead {
			continue
		}
		id, ok := r.Int64(entity.ActivityResID)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return
	}
	leads := collect(diags, "salesperson", func() ([]entity.Record, error) {
		return e.records.Read(ctx, entity.SourceLead, filter.In(entity.LeadID, ids...), entity.ReadQuery{
			Fields: []string{entity.LeadID, entity.LeadUser},
		})
	})
	users := make(map[int64]any, len(leads))
	for _, l := range leads {
		id, ok := l.Int64(entity.LeadID)
		if !ok {
			continue
		}
		if name := l.String(entity.LeadUser); name != "" {
			users[id] = name
		}
	}
	for _, r := range rows {
		if r.String(entity.ActivityResModel) != entity.ActivityResModelLead {
			continue
		}
		id, _ := r.Int64(entity.ActivityResID)
		r[salespersonField] = users[id]
	}
}
