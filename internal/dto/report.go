package dto

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jekabolt/grbpwr-reports/internal/entity"
)

// ReportDefinitionInsert is the JSON body of a report create or update.
// Dates use the YYYY-MM-DD layout.
type ReportDefinitionInsert struct {
	Name       string  `json:"name"`
	Source     string  `json:"source"`
	Domain     string  `json:"domain"`
	GroupField string  `json:"group_field"`
	ValueField string  `json:"value_field"`
	ChartType  string  `json:"chart_type"`
	TimeFilter string  `json:"time_filter"`
	DateFrom   *string `json:"date_from,omitempty"`
	DateTo     *string `json:"date_to,omitempty"`
	// Limit is the default limit when absent, 0 disables it.
	Limit     *int   `json:"limit,omitempty"`
	CreatedBy string `json:"created_by"`
}

type ReportDefinition struct {
	Id          int       `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `json:"name"`
	Source      string    `json:"source"`
	Domain      string    `json:"domain"`
	GroupField  string    `json:"group_field"`
	ValueField  string    `json:"value_field"`
	ChartType   string    `json:"chart_type"`
	TimeFilter  string    `json:"time_filter"`
	DateFrom    *string   `json:"date_from"`
	DateTo      *string   `json:"date_to"`
	Limit       int       `json:"limit"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"created_by"`
}

type ActivityReportDefinitionInsert struct {
	Name       string  `json:"name"`
	Domain     string  `json:"domain"`
	GroupField string  `json:"group_field"`
	TimeFilter string  `json:"time_filter"`
	DateFrom   *string `json:"date_from,omitempty"`
	DateTo     *string `json:"date_to,omitempty"`
	Limit      *int    `json:"limit,omitempty"`
	CreatedBy  string  `json:"created_by"`
}

type ActivityReportDefinition struct {
	Id         int       `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Name       string    `json:"name"`
	Domain     string    `json:"domain"`
	GroupField string    `json:"group_field"`
	TimeFilter string    `json:"time_filter"`
	DateFrom   *string   `json:"date_from"`
	DateTo     *string   `json:"date_to"`
	Limit      int       `json:"limit"`
	CreatedBy  string    `json:"created_by"`
}

// ListPage wraps a page of a listing with the total number of items.
type ListPage[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

func parseDate(s *string) (sql.NullTime, error) {
	if s == nil || *s == "" {
		return sql.NullTime{}, nil
	}
	t, err := time.Parse(time.DateOnly, *s)
	if err != nil {
		return sql.NullTime{}, fmt.Errorf("bad date %q: %w", *s, err)
	}
	return sql.NullTime{Time: t, Valid: true}, nil
}

func formatDate(nt sql.NullTime) *string {
	if !nt.Valid {
		return nil
	}
	s := nt.Time.Format(time.DateOnly)
	return &s
}

func limitOrDefault(l *int, def int) int {
	if l == nil {
		return def
	}
	return *l
}

// ConvertReportInsertToEntity converts a request body. An absent limit becomes
// defaultLimit and an absent source the lead source.
func ConvertReportInsertToEntity(r *ReportDefinitionInsert, defaultLimit int) (*entity.ReportDefinitionInsert, error) {
	from, err := parseDate(r.DateFrom)
	if err != nil {
		return nil, err
	}
	to, err := parseDate(r.DateTo)
	if err != nil {
		return nil, err
	}
	source := entity.SourceKind(r.Source)
	if source == "" {
		source = entity.SourceLead
	}
	return &entity.ReportDefinitionInsert{
		Name:       r.Name,
		Source:     source,
		Domain:     r.Domain,
		GroupField: r.GroupField,
		ValueField: r.ValueField,
		ChartType:  entity.ChartType(r.ChartType),
		TimeFilter: entity.TimeFilter(r.TimeFilter),
		DateFrom:   from,
		DateTo:     to,
		Limit:      limitOrDefault(r.Limit, defaultLimit),
		CreatedBy:  r.CreatedBy,
	}, nil
}

func ConvertEntityReportToDto(r *entity.ReportDefinition) ReportDefinition {
	return ReportDefinition{
		Id:          r.Id,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Name:        r.Name,
		Source:      string(r.Source),
		Domain:      r.Domain,
		GroupField:  r.GroupField,
		ValueField:  r.ValueField,
		ChartType:   string(r.ChartType),
		TimeFilter:  string(r.TimeFilter),
		DateFrom:    formatDate(r.DateFrom),
		DateTo:      formatDate(r.DateTo),
		Limit:       r.Limit,
		Description: r.Description,
		CreatedBy:   r.CreatedBy,
	}
}

func ConvertActivityReportInsertToEntity(r *ActivityReportDefinitionInsert, defaultLimit int) (*entity.ActivityReportDefinitionInsert, error) {
	from, err := parseDate(r.DateFrom)
	if err != nil {
		return nil, err
	}
	to, err := parseDate(r.DateTo)
	if err != nil {
		return nil, err
	}
	return &entity.ActivityReportDefinitionInsert{
		Name:       r.Name,
		Domain:     r.Domain,
		GroupField: r.GroupField,
		TimeFilter: entity.TimeFilter(r.TimeFilter),
		DateFrom:   from,
		DateTo:     to,
		Limit:      limitOrDefault(r.Limit, defaultLimit),
		CreatedBy:  r.CreatedBy,
	}, nil
}

func ConvertEntityActivityReportToDto(r *entity.ActivityReportDefinition) ActivityReportDefinition {
	return ActivityReportDefinition{
		Id:         r.Id,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		Name:       r.Name,
		Domain:     r.Domain,
		GroupField: r.GroupField,
		TimeFilter: string(r.TimeFilter),
		DateFrom:   formatDate(r.DateFrom),
		DateTo:     formatDate(r.DateTo),
		Limit:      r.Limit,
		CreatedBy:  r.CreatedBy,
	}
}
