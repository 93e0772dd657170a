package report

import (
	"fmt"
	"strings"

	"github.com/jekabolt/grbpwr-reports/internal/entity"
)

const countLabel = "Count"

// Describe generates the description of a lead report from its chart type,
// fields and time filter.
func (e *Engine) Describe(def *entity.ReportDefinitionInsert) string {
	source := def.Source
	if source == "" {
		source = entity.SourceLead
	}
	src, ok := SourceFor(source)
	if !ok {
		return ""
	}
	groupField, _ := src.groupField(def.GroupField)
	valueField, _ := src.valueField(def.ValueField)

	groupLabel := e.label(source, groupField)
	if groupLabel == "" {
		groupLabel = strings.ToLower(allLabel) + " records"
	}
	valueLabel := countLabel
	if valueField != "" {
		valueLabel = e.label(source, valueField)
	}
	timeLabel, ok := entity.TimeFilterLabels[def.TimeFilter]
	if !ok {
		timeLabel = "the whole period"
	}

	var desc string
	switch def.ChartType {
	case entity.ChartPie:
		desc = fmt.Sprintf("Pie chart showing how %s is distributed by %s.", valueLabel, groupLabel)
	case entity.ChartLine:
		desc = fmt.Sprintf("Line chart showing the trend of %s over %s.", valueLabel, timeLabel)
	default:
		desc = fmt.Sprintf("Bar chart comparing %s across %s.", valueLabel, groupLabel)
	}
	if strings.TrimSpace(def.Domain) != "" {
		desc += " Data is filtered."
	}
	return desc
}

// FieldOption is a field offered for authoring.
type FieldOption struct {
	Name  string
	Label string
}

// SourceFields lists the group and value fields of a source with labels.
func (e *Engine) SourceFields(kind entity.SourceKind) (groups, values []FieldOption, ok bool) {
	src, ok := SourceFor(kind)
	if !ok {
		return nil, nil, false
	}
	groups = make([]FieldOption, 0, len(src.GroupFields))
	for _, f := range src.GroupFields {
		groups = append(groups, FieldOption{Name: f, Label: e.label(kind, f)})
	}
	values = make([]FieldOption, 0, len(src.ValueFields))
	for _, f := range src.ValueFields {
		values = append(values, FieldOption{Name: f, Label: e.label(kind, f)})
	}
	return groups, values, true
}
