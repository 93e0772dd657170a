// Package report is the aggregation engine. It resolves a report definition
// plus ad-hoc predicates into an effective filter and turns the records the
// store returns into chart data, KPIs, funnels and breakdowns.
//
// Every call is a self-contained read. Failed sub-queries never abort a call:
// their share of the output is empty or zero and the failure is returned as a
// Diagnostic.
package report

import (
	"fmt"
	"time"

	"github.com/jekabolt/grbpwr-reports/internal/dependency"
	"github.com/jekabolt/grbpwr-reports/internal/entity"
	"github.com/jekabolt/grbpwr-reports/internal/filter"
)

// Engine evaluates reports against a record store.
type Engine struct {
	records dependency.RecordStore
	labels  dependency.FieldMetadata
	cfg     Config
	loc     *time.Location
	now     func() time.Time
}

// New returns an engine reading from records. labels may be nil, in which
// case raw field names are used as labels.
func New(records dependency.RecordStore, labels dependency.FieldMetadata, cfg Config) (*Engine, error) {
	cfg = cfg.withDefaults()
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	return &Engine{
		records: records,
		labels:  labels,
		cfg:     cfg,
		loc:     loc,
		now:     time.Now,
	}, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Query is a report definition reduced to what aggregation needs.
type Query struct {
	Source     entity.SourceKind
	Domain     string
	GroupField string
	ValueField string
	TimeFilter entity.TimeFilter
	DateFrom   *time.Time
	DateTo     *time.Time
	// Limit caps groups and detail rows; 0 means unbounded groups and the
	// configured detail limit.
	Limit int
	// Extra is ANDed with everything else.
	Extra filter.Expr
}

// LeadQuery builds the query of a lead report.
func LeadQuery(def *entity.ReportDefinition, extra filter.Expr) Query {
	from, to := def.Window()
	source := def.Source
	if source == "" {
		source = entity.SourceLead
	}
	return Query{
		Source:     source,
		Domain:     def.Domain,
		GroupField: def.GroupField,
		ValueField: def.ValueField,
		TimeFilter: def.TimeFilter,
		DateFrom:   from,
		DateTo:     to,
		Limit:      def.Limit,
		Extra:      extra,
	}
}

// ActivityQuery builds the query of an activity report.
func ActivityQuery(def *entity.ActivityReportDefinition, extra filter.Expr) Query {
	from, to := def.Window()
	return Query{
		Source:     entity.SourceActivity,
		Domain:     def.Domain,
		GroupField: def.GroupField,
		TimeFilter: def.TimeFilter,
		DateFrom:   from,
		DateTo:     to,
		Limit:      def.Limit,
		Extra:      extra,
	}
}

func (e *Engine) label(source entity.SourceKind, field string) string {
	if field == "" {
		return ""
	}
	if e.labels == nil {
		return field
	}
	return e.labels.LabelFor(source, field)
}

// prepare resolves q. It returns false when the source is unknown, in which
// case the diagnostics say so.
func (e *Engine) prepare(q Query) (Source, filter.And, Diagnostics, bool) {
	where, diags := e.Resolve(q)
	src, ok := SourceFor(q.Source)
	return src, where, diags, ok
}
