package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jekabolt/grbpwr-reports/internal/dto"
	"github.com/jekabolt/grbpwr-reports/internal/entity"
	gerr "github.com/jekabolt/grbpwr-reports/internal/errors"
	"github.com/jekabolt/grbpwr-reports/internal/filter"
	"github.com/jekabolt/grbpwr-reports/internal/report"
)

// extraFilter reads the ad-hoc ?filter= predicates. Malformed text places no
// restriction.
func extraFilter(r *http.Request) filter.Expr {
	return filter.ParseLenient(r.URL.Query().Get("filter"))
}

// reportQuery loads the definition addressed by the path and turns it into an
// engine query.
func (s *Server) reportQuery(r *http.Request) (int, report.Query, error) {
	def, err := s.loadReport(r)
	if err != nil {
		return 0, report.Query{}, err
	}
	return def.Id, report.LeadQuery(def, extraFilter(r)), nil
}

// aggregate runs one engine call for the report of the request and writes its
// result with the degraded phases as warnings.
func aggregate[T, D any](s *Server, w http.ResponseWriter, r *http.Request, run func(ctx context.Context, q report.Query) (T, report.Diagnostics), convert func(T) D) {
	id, q, err := s.reportQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, diags := run(r.Context(), q)
	logDiagnostics(r, id, diags)
	writeJSON(w, http.StatusOK, dto.NewAggregate(convert(data), diags.Phases()))
}

func (s *Server) chart(w http.ResponseWriter, r *http.Request) {
	aggregate(s, w, r, s.engine.Chart, dto.ConvertChartData)
}

func (s *Server) kpi(w http.ResponseWriter, r *http.Request) {
	aggregate(s, w, r, s.engine.Kpis, dto.ConvertKpiSet)
}

func (s *Server) detail(w http.ResponseWriter, r *http.Request) {
	aggregate(s, w, r, s.engine.Detail, dto.ConvertRecords)
}

func (s *Server) lostReasons(w http.ResponseWriter, r *http.Request) {
	aggregate(s, w, r, s.engine.LostReasons, dto.ConvertBreakdown)
}

func (s *Server) pipeline(w http.ResponseWriter, r *http.Request) {
	aggregate(s, w, r, s.engine.PipelineByStage, dto.ConvertBreakdown)
}

func (s *Server) winLoss(w http.ResponseWriter, r *http.Request) {
	aggregate(s, w, r, s.engine.WinLossTrend, dto.ConvertTrend)
}

func (s *Server) revenue(w http.ResponseWriter, r *http.Request) {
	dimension := chi.URLParam(r, "dimension")
	if !report.RevenueDimensions[dimension] {
		s.writeError(w, r, gerr.UnknownDimension)
		return
	}
	aggregate(s, w, r, func(ctx context.Context, q report.Query) ([]entity.BreakdownEntry, report.Diagnostics) {
		return s.engine.RevenueBy(ctx, q, dimension)
	}, dto.ConvertBreakdown)
}

// stages lists the pipeline. A failure leaves the funnel without stages and
// shows up as the "stages" phase.
func (s *Server) stages(ctx context.Context) ([]entity.PipelineStage, report.Diagnostics) {
	stages, err := s.repo.Pipeline().ListStages(ctx)
	if err != nil {
		return nil, report.Diagnostics{{Phase: "stages", Err: err}}
	}
	return stages, nil
}

func (s *Server) funnel(w http.ResponseWriter, r *http.Request) {
	aggregate(s, w, r, func(ctx context.Context, q report.Query) (entity.FunnelResult, report.Diagnostics) {
		stages, diags := s.stages(ctx)
		res, d := s.engine.Funnel(ctx, q, stages)
		return res, append(diags, d...)
	}, dto.ConvertFunnelResult)
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	aggregate(s, w, r, func(ctx context.Context, q report.Query) (entity.Dashboard, report.Diagnostics) {
		stages, diags := s.stages(ctx)
		res, d := s.engine.Dashboard(ctx, q, stages)
		return res, append(diags, d...)
	}, dto.ConvertDashboard)
}

// activityAggregate is aggregate for activity reports.
func activityAggregate[T, D any](s *Server, w http.ResponseWriter, r *http.Request, run func(ctx context.Context, q report.Query) (T, report.Diagnostics), convert func(T) D) {
	def, err := s.loadActivityReport(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, diags := run(r.Context(), report.ActivityQuery(def, extraFilter(r)))
	logDiagnostics(r, def.Id, diags)
	writeJSON(w, http.StatusOK, dto.NewAggregate(convert(data), diags.Phases()))
}

func (s *Server) activityData(w http.ResponseWriter, r *http.Request) {
	activityAggregate(s, w, r, s.engine.Activity, dto.ConvertActivityData)
}

func (s *Server) activityDetail(w http.ResponseWriter, r *http.Request) {
	activityAggregate(s, w, r, s.engine.Detail, dto.ConvertRecords)
}

func (s *Server) sourceFields(w http.ResponseWriter, r *http.Request) {
	kind := entity.SourceKind(chi.URLParam(r, "kind"))
	groups, values, ok := s.engine.SourceFields(kind)
	if !ok {
		s.writeError(w, r, gerr.UnknownSource)
		return
	}
	writeJSON(w, http.StatusOK, dto.SourceFields{
		Source:      string(kind),
		GroupFields: fieldOptions(groups),
		ValueFields: fieldOptions(values),
	})
}

func fieldOptions(opts []report.FieldOption) []dto.FieldOption {
	out := make([]dto.FieldOption, 0, len(opts))
	for _, o := range opts {
		out = append(out, dto.FieldOption{Name: o.Name, Label: o.Label})
	}
	return out
}
