package form

import (
	"fmt"
	"time"

	v "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/jekabolt/grbpwr-reports/internal/dto"
	"github.com/jekabolt/grbpwr-reports/internal/entity"
	"github.com/jekabolt/grbpwr-reports/internal/filter"
	"github.com/jekabolt/grbpwr-reports/internal/report"
)

type ReportDefinitionRequest struct {
	*dto.ReportDefinitionInsert
}

func (r *ReportDefinitionRequest) Validate() error {
	source := entity.SourceKind(r.Source)
	if source == "" {
		source = entity.SourceLead
	}
	custom := r.TimeFilter == string(entity.TimeFilterCustom)
	return ValidateStruct(r.ReportDefinitionInsert,
		v.Field(&r.Name, v.Required, v.Length(1, 255)),
		v.Field(&r.Source, v.In(stringKeys(entity.ValidSourceKinds)...)),
		v.Field(&r.ChartType, v.Required, v.In(stringKeys(entity.ValidChartTypes)...)),
		v.Field(&r.TimeFilter, v.In(stringKeys(entity.ValidTimeFilters)...)),
		v.Field(&r.DateFrom, v.When(custom, v.Required), v.Date(time.DateOnly)),
		v.Field(&r.DateTo, v.When(custom, v.Required), v.Date(time.DateOnly)),
		v.Field(&r.Limit, v.Min(0)),
		v.Field(&r.Domain, v.By(validDomain(source))),
		v.Field(&r.GroupField, v.By(oneOf(source, func(s report.Source) []string { return s.GroupFields }))),
		v.Field(&r.ValueField, v.By(oneOf(source, func(s report.Source) []string { return s.ValueFields }))),
		v.Field(&r.CreatedBy, v.Length(0, 255)),
	)
}

type ActivityReportDefinitionRequest struct {
	*dto.ActivityReportDefinitionInsert
}

func (r *ActivityReportDefinitionRequest) Validate() error {
	custom := r.TimeFilter == string(entity.TimeFilterCustom)
	return ValidateStruct(r.ActivityReportDefinitionInsert,
		v.Field(&r.Name, v.Required, v.Length(1, 255)),
		v.Field(&r.TimeFilter, v.In(stringKeys(entity.ValidTimeFilters)...)),
		v.Field(&r.DateFrom, v.When(custom, v.Required), v.Date(time.DateOnly)),
		v.Field(&r.DateTo, v.When(custom, v.Required), v.Date(time.DateOnly)),
		v.Field(&r.Limit, v.Min(0)),
		v.Field(&r.Domain, v.By(validDomain(entity.SourceActivity))),
		v.Field(&r.GroupField, v.By(oneOf(entity.SourceActivity, func(s report.Source) []string { return s.GroupFields }))),
		v.Field(&r.CreatedBy, v.Length(0, 255)),
	)
}

// validDomain parses domain text strictly. Query time parsing is lenient, so
// this is the only place a malformed filter is rejected.
func validDomain(source entity.SourceKind) v.RuleFunc {
	return func(value interface{}) error {
		text, _ := value.(string)
		e, err := filter.Parse(text)
		if err != nil {
			return err
		}
		src, ok := report.SourceFor(source)
		if !ok {
			return nil
		}
		return filter.Validate(e, src.Known)
	}
}

func oneOf(source entity.SourceKind, allowed func(report.Source) []string) v.RuleFunc {
	return func(value interface{}) error {
		field, _ := value.(string)
		if field == "" {
			return nil
		}
		src, ok := report.SourceFor(source)
		if !ok {
			return nil
		}
		for _, f := range allowed(src) {
			if f == field {
				return nil
			}
		}
		return fmt.Errorf("field %q is not allowed", field)
	}
}

func stringKeys[K ~string](m map[K]bool) []interface{} {
	out := make([]interface{}, 0, len(m))
	for k := range m {
		out = append(out, string(k))
	}
	return out
}
