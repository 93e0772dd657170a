package store

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jekabolt/grbpwr-reports/internal/entity"
	gerr "github.com/jekabolt/grbpwr-reports/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reportColumns = []string{
	"id", "created_at", "updated_at", "name", "source", "domain", "group_field", "value_field",
	"chart_type", "time_filter", "date_from", "date_to", "result_limit", "description", "created_by",
}

func TestAddReport(t *testing.T) {
	ms, mock := newMockStore(t)
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO report (name, source, domain")).
		WithArgs("Pipeline", "lead", `[("type", "=", "opportunity")]`, "stage_id", "expected_revenue",
			"bar", "custom", from, nil, 10, "Bar chart", "ann").
		WillReturnResult(sqlmock.NewResult(7, 1))

	id, err := ms.Reports().AddReport(context.Background(), &entity.ReportDefinitionInsert{
		Name:        "Pipeline",
		Source:      entity.SourceLead,
		Domain:      `[("type", "=", "opportunity")]`,
		GroupField:  "stage_id",
		ValueField:  "expected_revenue",
		ChartType:   entity.ChartBar,
		TimeFilter:  entity.TimeFilterCustom,
		DateFrom:    sql.NullTime{Time: from, Valid: true},
		Limit:       10,
		Description: "Bar chart",
		CreatedBy:   "ann",
	})
	require.NoError(t, err)
	assert.Equal(t, 7, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetReportById(t *testing.T) {
	ms, mock := newMockStore(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	query := regexp.QuoteMeta("SELECT * FROM report WHERE id = ?")

	mock.ExpectQuery(query).WithArgs(3).WillReturnRows(sqlmock.NewRows(reportColumns).
		AddRow(3, now, now, "Won by team", "lead", "", "team_id", "", "pie", "this_year", nil, nil, 1000, "", "bob"))
	mock.ExpectQuery(query).WithArgs(4).WillReturnRows(sqlmock.NewRows(reportColumns))

	rep, err := ms.Reports().GetReportById(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Id)
	assert.Equal(t, "Won by team", rep.Name)
	assert.Equal(t, entity.ChartPie, rep.ChartType)
	assert.Equal(t, 1000, rep.Limit)
	assert.False(t, rep.DateFrom.Valid)

	_, err = ms.Reports().GetReportById(context.Background(), 4)
	assert.ErrorIs(t, err, gerr.ReportNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListReports(t *testing.T) {
	ms, mock := newMockStore(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM report ORDER BY id DESC LIMIT ? OFFSET ?")).
		WithArgs(1, 0).
		WillReturnRows(sqlmock.NewRows(reportColumns).
			AddRow(9, now, now, "Latest", "lead", "", "", "", "bar", "", nil, nil, 0, "", ""))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM report")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	reports, total, err := ms.Reports().ListReports(context.Background(), 1, 0, entity.Descending)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, reports, 1)
	assert.Equal(t, "Latest", reports[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateReport(t *testing.T) {
	ms, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE report SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM report WHERE id = ?")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(reportColumns))

	err := ms.Reports().UpdateReport(context.Background(), 5, &entity.ReportDefinitionInsert{Name: "gone"})
	assert.ErrorIs(t, err, gerr.ReportNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteReport(t *testing.T) {
	ms, mock := newMockStore(t)
	query := regexp.QuoteMeta("DELETE FROM report WHERE id = ?")

	mock.ExpectExec(query).WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).WithArgs(2).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, ms.Reports().DeleteReport(context.Background(), 1))
	assert.ErrorIs(t, ms.Reports().DeleteReport(context.Background(), 2), gerr.ReportNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityReports(t *testing.T) {
	ms, mock := newMockStore(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	columns := []string{"id", "created_at", "updated_at", "name", "domain", "group_field", "time_filter", "date_from", "date_to", "result_limit", "created_by"}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO activity_report")).
		WithArgs("Calls", "", "user_id", "this_month", nil, nil, 0, "ann").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM activity_report WHERE id = ?")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(2, now, now, "Calls", "", "user_id", "this_month", nil, nil, 0, "ann"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM activity_report WHERE id = ?")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows(columns))

	ctx := context.Background()
	id, err := ms.Reports().AddActivityReport(ctx, &entity.ActivityReportDefinitionInsert{
		Name:       "Calls",
		GroupField: "user_id",
		TimeFilter: entity.TimeFilterThisMonth,
		CreatedBy:  "ann",
	})
	require.NoError(t, err)

	rep, err := ms.Reports().GetActivityReportById(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.TimeFilterThisMonth, rep.TimeFilter)

	_, err = ms.Reports().GetActivityReportById(ctx, 3)
	assert.ErrorIs(t, err, gerr.ActivityReportNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListStagesAndLabels(t *testing.T) {
	ms, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, sequence, is_won FROM crm_stage ORDER BY sequence, id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "sequence", "is_won"}).
			AddRow(1, "New", 1, false).
			AddRow(4, "Won", 9, true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT source, field, label FROM report_field_label")).
		WillReturnRows(sqlmock.NewRows([]string{"source", "field", "label"}).
			AddRow("lead", "stage_id", "Stage"))

	stages, err := ms.Pipeline().ListStages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []entity.PipelineStage{
		{Id: 1, Name: "New", Sequence: 1},
		{Id: 4, Name: "Won", Sequence: 9, IsWon: true},
	}, stages)

	labels, err := ms.FieldLabels().ListFieldLabels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []entity.FieldLabel{{Source: entity.SourceLead, Field: "stage_id", Label: "Stage"}}, labels)
	assert.NoError(t, mock.ExpectationsWereMet())
}
