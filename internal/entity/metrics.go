package entity

import (
	"github.com/shopspring/decimal"
)

// GroupEntry is one group of a grouped aggregation.
type GroupEntry struct {
	// GroupID joins count and sum rows of the same group.
	GroupID string
	Label   string
	Count   int
	Sum     decimal.Decimal
}

// ChartData holds parallel arrays ready for charting. Labels, Counts and
// Sums share one length; LineLabels and LineValues share another.
type ChartData struct {
	Labels     []string
	Counts     []int
	Sums       []decimal.Decimal
	LineLabels []string
	LineValues []decimal.Decimal
}

// EmptyChartData returns chart data with every array present and empty.
func EmptyChartData() ChartData {
	return ChartData{
		Labels:     []string{},
		Counts:     []int{},
		Sums:       []decimal.Decimal{},
		LineLabels: []string{},
		LineValues: []decimal.Decimal{},
	}
}

// KpiSet is the derived metrics of a lead report. Rates are percentages
// rounded to 2 decimals.
type KpiSet struct {
	LeadCount      int
	OppCount       int
	TotalOpps      int
	WonCount       int
	LostCount      int
	Forecast       decimal.Decimal
	WonRevenue     decimal.Decimal
	AvgDealSize    decimal.Decimal
	WonRate        decimal.Decimal
	LostRate       decimal.Decimal
	ConversionRate decimal.Decimal
}

// FunnelStage is a step of a funnel. Color is a presentation hint.
type FunnelStage struct {
	StageId int64
	Name    string
	Count   int
	Revenue decimal.Decimal
	Color   string
	IsWon   bool
}

// ConversionRates are cross-stage percentages rounded to 1 decimal.
type ConversionRates struct {
	LeadToOpp decimal.Decimal
	OppToWon  decimal.Decimal
	LeadToWon decimal.Decimal
}

// FunnelResult starts with a synthetic leads stage followed by the pipeline
// stages in sequence order. Lost is reported outside the sequence.
type FunnelResult struct {
	Stages          []FunnelStage
	Lost            FunnelStage
	ConversionRates ConversionRates
}

// BreakdownEntry is a categorical slice of a total.
type BreakdownEntry struct {
	GroupID string
	Label   string
	Count   int
	Value   decimal.Decimal
	Percent decimal.Decimal
}

// TrendPoint is one period of the merged won and lost series.
type TrendPoint struct {
	Period      string
	Won         int
	Lost        int
	WonRevenue  decimal.Decimal
	LostRevenue decimal.Decimal
}

// NamedCount is a labelled counter.
type NamedCount struct {
	Name  string
	Count int
}

// ActivityData is the aggregate of an activity report.
type ActivityData struct {
	Total      int
	TypeCounts []NamedCount
	Labels     []string
	Values     []int
}

// Dashboard bundles the aggregates of a lead report.
type Dashboard struct {
	Chart  ChartData
	Kpi    KpiSet
	Funnel FunnelResult
	Detail []Record
}
