package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jekabolt/grbpwr-reports/internal/entity"
	gerr "github.com/jekabolt/grbpwr-reports/internal/errors"
)

type reportStore struct {
	*MYSQLStore
}

func reportParams(r *entity.ReportDefinitionInsert) map[string]any {
	return map[string]any{
		"name":        r.Name,
		"source":      r.Source,
		"domain":      r.Domain,
		"groupField":  r.GroupField,
		"valueField":  r.ValueField,
		"chartType":   r.ChartType,
		"timeFilter":  r.TimeFilter,
		"dateFrom":    r.DateFrom,
		"dateTo":      r.DateTo,
		"resultLimit": r.Limit,
		"description": r.Description,
		"createdBy":   r.CreatedBy,
	}
}

func (ms *reportStore) AddReport(ctx context.Context, r *entity.ReportDefinitionInsert) (int, error) {
	id, err := ExecNamedLastId(ctx, ms.DB(), `
	INSERT INTO report (name, source, domain, group_field, value_field, chart_type, time_filter, date_from, date_to, result_limit, description, created_by) VALUES
		(:name, :source, :domain, :groupField, :valueField, :chartType, :timeFilter, :dateFrom, :dateTo, :resultLimit, :description, :createdBy)`,
		reportParams(r))
	if err != nil {
		return 0, fmt.Errorf("failed to add report: %w", err)
	}
	return id, nil
}

func (ms *reportStore) UpdateReport(ctx context.Context, id int, r *entity.ReportDefinitionInsert) error {
	params := reportParams(r)
	params["id"] = id
	n, err := ExecNamed(ctx, ms.DB(), `
	UPDATE report SET
		name = :name,
		source = :source,
		domain = :domain,
		group_field = :groupField,
		value_field = :valueField,
		chart_type = :chartType,
		time_filter = :timeFilter,
		date_from = :dateFrom,
		date_to = :dateTo,
		result_limit = :resultLimit,
		description = :description
	WHERE id = :id`, params)
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}
	if n == 0 {
		// MySQL reports unchanged rows as unaffected
		if _, err := ms.GetReportById(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (ms *reportStore) GetReportById(ctx context.Context, id int) (*entity.ReportDefinition, error) {
	r, err := QueryNamedOne[entity.ReportDefinition](ctx, ms.DB(), `SELECT * FROM report WHERE id = :id`, map[string]any{
		"id": id,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gerr.ReportNotFound
		}
		return nil, fmt.Errorf("can't get report by id: %w", err)
	}
	return &r, nil
}

func (ms *reportStore) ListReports(ctx context.Context, limit, offset int, orderFactor entity.OrderFactor) ([]entity.ReportDefinition, int, error) {
	query := fmt.Sprintf(`
	SELECT * FROM report
	ORDER BY id %s
	LIMIT :limit OFFSET :offset`, orderFactor.String())

	reports, err := QueryListNamed[entity.ReportDefinition](ctx, ms.DB(), query, map[string]any{
		"limit":  limit,
		"offset": offset,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("can't get report list: %w", err)
	}
	total, err := QueryCountNamed(ctx, ms.DB(), `SELECT COUNT(*) FROM report`, map[string]any{})
	if err != nil {
		return nil, 0, fmt.Errorf("can't count reports: %w", err)
	}
	return reports, total, nil
}

func (ms *reportStore) DeleteReport(ctx context.Context, id int) error {
	n, err := ExecNamed(ctx, ms.DB(), `DELETE FROM report WHERE id = :id`, map[string]any{
		"id": id,
	})
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if n == 0 {
		return gerr.ReportNotFound
	}
	return nil
}

func (ms *reportStore) AddActivityReport(ctx context.Context, r *entity.ActivityReportDefinitionInsert) (int, error) {
	id, err := ExecNamedLastId(ctx, ms.DB(), `
	INSERT INTO activity_report (name, domain, group_field, time_filter, date_from, date_to, result_limit, created_by) VALUES
		(:name, :domain, :groupField, :timeFilter, :dateFrom, :dateTo, :resultLimit, :createdBy)`, map[string]any{
		"name":        r.Name,
		"domain":      r.Domain,
		"groupField":  r.GroupField,
		"timeFilter":  r.TimeFilter,
		"dateFrom":    r.DateFrom,
		"dateTo":      r.DateTo,
		"resultLimit": r.Limit,
		"createdBy":   r.CreatedBy,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add activity report: %w", err)
	}
	return id, nil
}

func (ms *reportStore) GetActivityReportById(ctx context.Context, id int) (*entity.ActivityReportDefinition, error) {
	r, err := QueryNamedOne[entity.ActivityReportDefinition](ctx, ms.DB(), `SELECT * FROM activity_report WHERE id = :id`, map[string]any{
		"id": id,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gerr.ActivityReportNotFound
		}
		return nil, fmt.Errorf("can't get activity report by id: %w", err)
	}
	return &r, nil
}

func (ms *reportStore) ListActivityReports(ctx context.Context, limit, offset int, orderFactor entity.OrderFactor) ([]entity.ActivityReportDefinition, int, error) {
	query := fmt.Sprintf(`
	SELECT * FROM activity_report
	ORDER BY id %s
	LIMIT :limit OFFSET :offset`, orderFactor.String())

	reports, err := QueryListNamed[entity.ActivityReportDefinition](ctx, ms.DB(), query, map[string]any{
		"limit":  limit,
		"offset": offset,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("can't get activity report list: %w", err)
	}
	total, err := QueryCountNamed(ctx, ms.DB(), `SELECT COUNT(*) FROM activity_report`, map[string]any{})
	if err != nil {
		return nil, 0, fmt.Errorf("can't count activity reports: %w", err)
	}
	return reports, total, nil
}
