package report

import (
	"github.com/jekabolt/grbpwr-reports/internal/entity"
	"github.com/jekabolt/grbpwr-reports/internal/filter"
)

// Source is the per-source configuration consulted when a definition is
// resolved: default fields, the fields carrying special meaning, and the
// fields offered for authoring.
type Source struct {
	Kind entity.SourceKind
	// DefaultGroupField is used when a definition has no usable group field.
	// Empty means aggregate everything into a single group.
	DefaultGroupField string
	// DefaultValueField replaces a value field that does not exist.
	DefaultValueField string
	// DateField anchors time windows and time series.
	DateField string
	// ActiveField hides archived records unless a filter mentions it.
	ActiveField string

	TypeField       string
	StageField      string
	WonField        string
	RevenueField    string
	LostReasonField string
	// TypeCountField breaks activity totals down by kind.
	TypeCountField string

	GroupFields  []string
	ValueFields  []string
	DetailFields []string
	DetailOrder  entity.OrderBy
}

var sources = map[entity.SourceKind]Source{
	entity.SourceLead: {
		Kind:              entity.SourceLead,
		DefaultGroupField: entity.LeadStage,
		DefaultValueField: entity.LeadExpRevenue,
		DateField:         entity.LeadCreateDate,
		ActiveField:       entity.LeadActive,
		TypeField:         entity.LeadType,
		StageField:        entity.LeadStage,
		WonField:          entity.LeadStageIsWon,
		RevenueField:      entity.LeadExpRevenue,
		LostReasonField:   entity.LeadLostReason,
		GroupFields: []string{
			entity.LeadStage,
			entity.LeadUser,
			entity.LeadTeam,
			entity.LeadPartner,
			entity.LeadCompany,
			entity.LeadCountry,
		},
		ValueFields: []string{
			entity.LeadExpRevenue,
			entity.LeadPlanRevenue,
			entity.LeadProbability,
		},
		DetailFields: []string{
			entity.LeadName,
			entity.LeadPartner,
			entity.LeadUser,
			entity.LeadStage,
			entity.LeadExpRevenue,
			entity.LeadProbability,
			entity.LeadCreateDate,
			entity.LeadType,
			entity.LeadActive,
			entity.LeadLostReason,
		},
		DetailOrder: entity.OrderBy{Field: entity.LeadCreateDate, Factor: entity.Descending},
	},
	entity.SourceActivity: {
		Kind:           entity.SourceActivity,
		DateField:      entity.ActivityCreateDate,
		TypeCountField: entity.ActivityType,
		GroupFields: []string{
			entity.ActivityType,
			entity.ActivityUser,
			entity.ActivityCreateUser,
		},
		DetailFields: []string{
			entity.ActivityResName,
			entity.ActivityType,
			entity.ActivitySummary,
			entity.ActivityDeadline,
			entity.ActivityUser,
			entity.ActivityState,
			entity.ActivityResModel,
			entity.ActivityResID,
		},
		DetailOrder: entity.OrderBy{Field: entity.ActivityDeadline, Factor: entity.Ascending},
	},
}

// SourceFor returns the configuration of kind.
func SourceFor(kind entity.SourceKind) (Source, bool) {
	s, ok := sources[kind]
	return s, ok
}

// Known reports whether field exists on the source.
func (s Source) Known(field string) bool {
	_, ok := entity.FieldKindOf(s.Kind, field)
	return ok
}

// IsNumeric reports whether field exists on the source and can be summed.
func (s Source) IsNumeric(field string) bool {
	k, ok := entity.FieldKindOf(s.Kind, field)
	return ok && k.IsNumeric()
}

// groupField returns the field to group by and whether the requested one had
// to be replaced.
func (s Source) groupField(requested string) (string, bool) {
	if requested == "" {
		return s.DefaultGroupField, false
	}
	if s.Known(requested) {
		return requested, false
	}
	return s.DefaultGroupField, true
}

// valueField returns the field to sum and whether the requested one had to be
// replaced. An empty result means counts stand in for sums.
func (s Source) valueField(requested string) (string, bool) {
	if requested == "" {
		return "", false
	}
	if s.IsNumeric(requested) {
		return requested, false
	}
	return s.DefaultValueField, true
}

// scope hides inactive records unless the filter already mentions the active
// flag or the caller asked for every record.
func (s Source) scope(where filter.And, includeInactive bool) filter.And {
	if s.ActiveField == "" || includeInactive || filter.Mentions(where, s.ActiveField) {
		return where
	}
	return filter.All(where, filter.Eq(s.ActiveField, true))
}

// detailFields returns the detail columns plus the group field when it is a
// known field not already listed.
func (s Source) detailFields(groupField string) []string {
	fields := append([]string{}, s.DetailFields...)
	if groupField == "" || !s.Known(groupField) {
		return fields
	}
	for _, f := range fields {
		if f == groupField {
			return fields
		}
	}
	return append(fields, groupField)
}
