package httpapi

import (
	"context"
	"net/http"

	"github.com/jekabolt/grbpwr-reports/internal/dependency"
	"github.com/jekabolt/grbpwr-reports/internal/dto"
	"github.com/jekabolt/grbpwr-reports/internal/entity"
	"github.com/jekabolt/grbpwr-reports/internal/form"
)

func (s *Server) listReports(w http.ResponseWriter, r *http.Request) {
	limit, offset, order := pageParams(r)
	reports, total, err := s.repo.Reports().ListReports(r.Context(), limit, offset, order)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	items := make([]dto.ReportDefinition, 0, len(reports))
	for i := range reports {
		items = append(items, dto.ConvertEntityReportToDto(&reports[i]))
	}
	writeJSON(w, http.StatusOK, dto.ListPage[dto.ReportDefinition]{Items: items, Total: total})
}

// reportInsert decodes and validates a report body. The description is
// generated from the definition.
func (s *Server) reportInsert(w http.ResponseWriter, r *http.Request) (*entity.ReportDefinitionInsert, error) {
	var body dto.ReportDefinitionInsert
	if err := decodeBody(w, r, &body); err != nil {
		return nil, err
	}
	if err := (&form.ReportDefinitionRequest{ReportDefinitionInsert: &body}).Validate(); err != nil {
		return nil, err
	}
	def, err := dto.ConvertReportInsertToEntity(&body, s.engine.Config().DefaultLimit)
	if err != nil {
		return nil, err
	}
	def.Description = s.engine.Describe(def)
	return def, nil
}

func (s *Server) addReport(w http.ResponseWriter, r *http.Request) {
	def, err := s.reportInsert(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var saved *entity.ReportDefinition
	err = s.repo.Tx(r.Context(), func(ctx context.Context, rep dependency.Repository) error {
		id, err := rep.Reports().AddReport(ctx, def)
		if err != nil {
			return err
		}
		saved, err = rep.Reports().GetReportById(ctx, id)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.ConvertEntityReportToDto(saved))
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	def, err := s.loadReport(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ConvertEntityReportToDto(def))
}

func (s *Server) updateReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	def, err := s.reportInsert(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var saved *entity.ReportDefinition
	err = s.repo.Tx(r.Context(), func(ctx context.Context, rep dependency.Repository) error {
		if err := rep.Reports().UpdateReport(ctx, id, def); err != nil {
			return err
		}
		var err error
		saved, err = rep.Reports().GetReportById(ctx, id)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ConvertEntityReportToDto(saved))
}

func (s *Server) deleteReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.repo.Reports().DeleteReport(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) loadReport(r *http.Request) (*entity.ReportDefinition, error) {
	id, err := pathId(r)
	if err != nil {
		return nil, err
	}
	return s.repo.Reports().GetReportById(r.Context(), id)
}

func (s *Server) listActivityReports(w http.ResponseWriter, r *http.Request) {
	limit, offset, order := pageParams(r)
	reports, total, err := s.repo.Reports().ListActivityReports(r.Context(), limit, offset, order)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	items := make([]dto.ActivityReportDefinition, 0, len(reports))
	for i := range reports {
		items = append(items, dto.ConvertEntityActivityReportToDto(&reports[i]))
	}
	writeJSON(w, http.StatusOK, dto.ListPage[dto.ActivityReportDefinition]{Items: items, Total: total})
}

func (s *Server) addActivityReport(w http.ResponseWriter, r *http.Request) {
	var body dto.ActivityReportDefinitionInsert
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := (&form.ActivityReportDefinitionRequest{ActivityReportDefinitionInsert: &body}).Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	def, err := dto.ConvertActivityReportInsertToEntity(&body, s.engine.Config().DefaultLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var saved *entity.ActivityReportDefinition
	err = s.repo.Tx(r.Context(), func(ctx context.Context, rep dependency.Repository) error {
		id, err := rep.Reports().AddActivityReport(ctx, def)
		if err != nil {
			return err
		}
		saved, err = rep.Reports().GetActivityReportById(ctx, id)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.ConvertEntityActivityReportToDto(saved))
}

func (s *Server) getActivityReport(w http.ResponseWriter, r *http.Request) {
	def, err := s.loadActivityReport(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ConvertEntityActivityReportToDto(def))
}

func (s *Server) loadActivityReport(r *http.Request) (*entity.ActivityReportDefinition, error) {
	id, err := pathId(r)
	if err != nil {
		return nil, err
	}
	return s.repo.Reports().GetActivityReportById(r.Context(), id)
}
