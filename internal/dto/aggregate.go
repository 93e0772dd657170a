package dto

import (
	"time"

	"github.com/jekabolt/grbpwr-reports/internal/entity"
	"github.com/shopspring/decimal"
)

// Aggregate wraps every aggregate payload. Warnings name the phases that
// degraded to empty or zero results.
type Aggregate[T any] struct {
	Data     T        `json:"data"`
	Warnings []string `json:"warnings"`
}

func NewAggregate[T any](data T, phases []string) Aggregate[T] {
	if phases == nil {
		phases = []string{}
	}
	return Aggregate[T]{Data: data, Warnings: phases}
}

type ChartData struct {
	Labels     []string  `json:"labels"`
	Counts     []int     `json:"count_values"`
	Sums       []float64 `json:"sum_values"`
	LineLabels []string  `json:"line_labels"`
	LineValues []float64 `json:"line_values"`
}

type KpiSet struct {
	LeadCount      int     `json:"lead_count"`
	OppCount       int     `json:"opp_count"`
	TotalOpps      int     `json:"total_opps"`
	WonCount       int     `json:"won_count"`
	LostCount      int     `json:"lost_count"`
	Forecast       float64 `json:"forecast"`
	WonRevenue     float64 `json:"won_revenue"`
	AvgDealSize    float64 `json:"avg_deal_size"`
	WonRate        float64 `json:"won_rate"`
	LostRate       float64 `json:"lost_rate"`
	ConversionRate float64 `json:"conversion_rate"`
}

type FunnelStage struct {
	StageId int64   `json:"stage_id"`
	Name    string  `json:"stage_name"`
	Count   int     `json:"count"`
	Revenue float64 `json:"revenue"`
	Color   string  `json:"color"`
	IsWon   bool    `json:"is_won"`
}

type FunnelResult struct {
	Stages          []FunnelStage      `json:"stages"`
	Lost            FunnelStage        `json:"lost"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

type BreakdownEntry struct {
	GroupId string  `json:"group_id"`
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Value   float64 `json:"value"`
	Percent float64 `json:"percent"`
}

type TrendPoint struct {
	Period      string  `json:"period"`
	Won         int     `json:"won"`
	Lost        int     `json:"lost"`
	WonRevenue  float64 `json:"won_revenue"`
	LostRevenue float64 `json:"lost_revenue"`
}

type NamedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type ActivityData struct {
	Total      int          `json:"total"`
	TypeCounts []NamedCount `json:"type_counts"`
	Labels     []string     `json:"labels"`
	Values     []int        `json:"values"`
}

type Dashboard struct {
	Chart  ChartData        `json:"chart"`
	Kpi    KpiSet           `json:"kpi"`
	Funnel FunnelResult     `json:"funnel"`
	Detail []map[string]any `json:"detail"`
}

type FieldOption struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

type SourceFields struct {
	Source      string        `json:"source"`
	GroupFields []FieldOption `json:"group_fields"`
	ValueFields []FieldOption `json:"value_fields"`
}

func floats(ds []decimal.Decimal) []float64 {
	out := make([]float64, len(ds))
	for i, d := range ds {
		out[i] = d.InexactFloat64()
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func ConvertChartData(c entity.ChartData) ChartData {
	return ChartData{
		Labels:     nonNil(c.Labels),
		Counts:     nonNil(c.Counts),
		Sums:       floats(c.Sums),
		LineLabels: nonNil(c.LineLabels),
		LineValues: floats(c.LineValues),
	}
}

func ConvertKpiSet(k entity.KpiSet) KpiSet {
	return KpiSet{
		LeadCount:      k.LeadCount,
		OppCount:       k.OppCount,
		TotalOpps:      k.TotalOpps,
		WonCount:       k.WonCount,
		LostCount:      k.LostCount,
		Forecast:       k.Forecast.InexactFloat64(),
		WonRevenue:     k.WonRevenue.InexactFloat64(),
		AvgDealSize:    k.AvgDealSize.InexactFloat64(),
		WonRate:        k.WonRate.InexactFloat64(),
		LostRate:       k.LostRate.InexactFloat64(),
		ConversionRate: k.ConversionRate.InexactFloat64(),
	}
}

func convertFunnelStage(s entity.FunnelStage) FunnelStage {
	return FunnelStage{
		StageId: s.StageId,
		Name:    s.Name,
		Count:   s.Count,
		Revenue: s.Revenue.InexactFloat64(),
		Color:   s.Color,
		IsWon:   s.IsWon,
	}
}

func ConvertFunnelResult(f entity.FunnelResult) FunnelResult {
	stages := make([]FunnelStage, 0, len(f.Stages))
	for _, s := range f.Stages {
		stages = append(stages, convertFunnelStage(s))
	}
	return FunnelResult{
		Stages: stages,
		Lost:   convertFunnelStage(f.Lost),
		ConversionRates: map[string]float64{
			"lead_to_opp": f.ConversionRates.LeadToOpp.InexactFloat64(),
			"opp_to_won":  f.ConversionRates.OppToWon.InexactFloat64(),
			"lead_to_won": f.ConversionRates.LeadToWon.InexactFloat64(),
		},
	}
}

func ConvertBreakdown(entries []entity.BreakdownEntry) []BreakdownEntry {
	out := make([]BreakdownEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, BreakdownEntry{
			GroupId: e.GroupID,
			Label:   e.Label,
			Count:   e.Count,
			Value:   e.Value.InexactFloat64(),
			Percent: e.Percent.InexactFloat64(),
		})
	}
	return out
}

func ConvertTrend(points []entity.TrendPoint) []TrendPoint {
	out := make([]TrendPoint, 0, len(points))
	for _, p := range points {
		out = append(out, TrendPoint{
			Period:      p.Period,
			Won:         p.Won,
			Lost:        p.Lost,
			WonRevenue:  p.WonRevenue.InexactFloat64(),
			LostRevenue: p.LostRevenue.InexactFloat64(),
		})
	}
	return out
}

func ConvertActivityData(a entity.ActivityData) ActivityData {
	counts := make([]NamedCount, 0, len(a.TypeCounts))
	for _, c := range a.TypeCounts {
		counts = append(counts, NamedCount{Name: c.Name, Count: c.Count})
	}
	return ActivityData{
		Total:      a.Total,
		TypeCounts: counts,
		Labels:     nonNil(a.Labels),
		Values:     nonNil(a.Values),
	}
}

// ConvertRecords renders records for JSON: numbers as floats, dates as
// YYYY-MM-DD HH:MM:SS and references as {id, name} objects.
func ConvertRecords(recs []entity.Record) []map[string]any {
	out := make([]map[string]any, 0, len(recs))
	for _, r := range recs {
		m := make(map[string]any, len(r))
		for k, v := range r {
			m[k] = recordValue(v)
		}
		out = append(out, m)
	}
	return out
}

func recordValue(v any) any {
	switch t := v.(type) {
	case decimal.Decimal:
		return t.InexactFloat64()
	case time.Time:
		return t.Format(time.DateTime)
	case *entity.Reference:
		if t == nil {
			return nil
		}
		return *t
	}
	return v
}

func ConvertDashboard(d entity.Dashboard) Dashboard {
	return Dashboard{
		Chart:  ConvertChartData(d.Chart),
		Kpi:    ConvertKpiSet(d.Kpi),
		Funnel: ConvertFunnelResult(d.Funnel),
		Detail: ConvertRecords(d.Detail),
	}
}
