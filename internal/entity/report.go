package entity

import (
	"database/sql"
	"time"
)

// SourceKind names the record collection a report reads from.
type SourceKind string

const (
	SourceLead     SourceKind = "lead"
	SourceActivity SourceKind = "activity"
)

var ValidSourceKinds = map[SourceKind]bool{
	SourceLead:     true,
	SourceActivity: true,
}

type ChartType string

const (
	ChartBar  ChartType = "bar"
	ChartLine ChartType = "line"
	ChartPie  ChartType = "pie"
)

var ValidChartTypes = map[ChartType]bool{
	ChartBar:  true,
	ChartLine: true,
	ChartPie:  true,
}

// TimeFilter selects the creation-date window of a report.
type TimeFilter string

const (
	TimeFilterLast3Months TimeFilter = "last_3_months"
	TimeFilterLast6Months TimeFilter = "last_6_months"
	TimeFilterThisMonth   TimeFilter = "this_month"
	TimeFilterThisYear    TimeFilter = "this_year"
	TimeFilterCustom      TimeFilter = "custom"
)

var ValidTimeFilters = map[TimeFilter]bool{
	TimeFilterLast3Months: true,
	TimeFilterLast6Months: true,
	TimeFilterThisMonth:   true,
	TimeFilterThisYear:    true,
	TimeFilterCustom:      true,
}

// TimeFilterLabels are the human readable names used in descriptions.
var TimeFilterLabels = map[TimeFilter]string{
	TimeFilterLast3Months: "the last 3 months",
	TimeFilterLast6Months: "the last 6 months",
	TimeFilterThisMonth:   "this month",
	TimeFilterThisYear:    "this year",
	TimeFilterCustom:      "a custom period",
}

// DefaultReportLimit is applied when a definition is created without a limit.
const DefaultReportLimit = 1000

// ReportDefinition represents the report table.
type ReportDefinition struct {
	Id        int       `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
	ReportDefinitionInsert
}

// ReportDefinitionInsert holds the user editable part of a report.
type ReportDefinitionInsert struct {
	Name       string       `db:"name"`
	Source     SourceKind   `db:"source"`
	Domain     string       `db:"domain"`
	GroupField string       `db:"group_field"`
	ValueField string       `db:"value_field"`
	ChartType  ChartType    `db:"chart_type"`
	TimeFilter TimeFilter   `db:"time_filter"`
	DateFrom   sql.NullTime `db:"date_from"`
	DateTo     sql.NullTime `db:"date_to"`
	// Limit caps the number of groups; 0 means unbounded.
	Limit       int    `db:"result_limit"`
	Description string `db:"description"`
	CreatedBy   string `db:"created_by"`
}

// ActivityReportDefinition represents the activity_report table.
type ActivityReportDefinition struct {
	Id        int       `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
	ActivityReportDefinitionInsert
}

type ActivityReportDefinitionInsert struct {
	Name       string       `db:"name"`
	Domain     string       `db:"domain"`
	GroupField string       `db:"group_field"`
	TimeFilter TimeFilter   `db:"time_filter"`
	DateFrom   sql.NullTime `db:"date_from"`
	DateTo     sql.NullTime `db:"date_to"`
	Limit      int          `db:"result_limit"`
	CreatedBy  string       `db:"created_by"`
}

// Window returns the custom date range of a definition.
func (r *ReportDefinitionInsert) Window() (from, to *time.Time) {
	return nullTimePtr(r.DateFrom), nullTimePtr(r.DateTo)
}

func (r *ActivityReportDefinitionInsert) Window() (from, to *time.Time) {
	return nullTimePtr(r.DateFrom), nullTimePtr(r.DateTo)
}

func nullTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
