package memstore

import (
	"context"
	"sort"

	"github.com/jekabolt/grbpwr-reports/internal/entity"
	gerr "github.com/jekabolt/grbpwr-reports/internal/errors"
)

func (s *Store) AddReport(ctx context.Context, r *entity.ReportDefinitionInsert) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastId++
	now := s.now()
	s.reports[s.lastId] = entity.ReportDefinition{
		Id:                     s.lastId,
		CreatedAt:              now,
		UpdatedAt:              now,
		ReportDefinitionInsert: *r,
	}
	return s.lastId, nil
}

func (s *Store) UpdateReport(ctx context.Context, id int, r *entity.ReportDefinitionInsert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rep, ok := s.reports[id]
	if !ok {
		return gerr.ReportNotFound
	}
	rep.ReportDefinitionInsert = *r
	rep.UpdatedAt = s.now()
	s.reports[id] = rep
	return nil
}

func (s *Store) GetReportById(ctx context.Context, id int) (*entity.ReportDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rep, ok := s.reports[id]
	if !ok {
		return nil, gerr.ReportNotFound
	}
	return &rep, nil
}

func (s *Store) ListReports(ctx context.Context, limit, offset int, orderFactor entity.OrderFactor) ([]entity.ReportDefinition, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]entity.ReportDefinition, 0, len(s.reports))
	for _, r := range s.reports {
		list = append(list, r)
	}
	sort.Slice(list, func(i, j int) bool {
		if orderFactor == entity.Descending {
			return list[i].Id > list[j].Id
		}
		return list[i].Id < list[j].Id
	})
	return page(list, limit, offset), len(list), nil
}

func (s *Store) DeleteReport(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[id]; !ok {
		return gerr.ReportNotFound
	}
	delete(s.reports, id)
	return nil
}

func (s *Store) AddActivityReport(ctx context.Context, r *entity.ActivityReportDefinitionInsert) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastId++
	now := s.now()
	s.activityReports[s.lastId] = entity.ActivityReportDefinition{
		Id:                             s.lastId,
		CreatedAt:                      now,
		UpdatedAt:                      now,
		ActivityReportDefinitionInsert: *r,
	}
	return s.lastId, nil
}

func (s *Store) GetActivityReportById(ctx context.Context, id int) (*entity.ActivityReportDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rep, ok := s.activityReports[id]
	if !ok {
		return nil, gerr.ActivityReportNotFound
	}
	return &rep, nil
}

func (s *Store) ListActivityReports(ctx context.Context, limit, offset int, orderFactor entity.OrderFactor) ([]entity.ActivityReportDefinition, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]entity.ActivityReportDefinition, 0, len(s.activityReports))
	for _, r := range s.activityReports {
		list = append(list, r)
	}
	sort.Slice(list, func(i, j int) bool {
		if orderFactor == entity.Descending {
			return list[i].Id > list[j].Id
		}
		return list[i].Id < list[j].Id
	})
	return page(list, limit, offset), len(list), nil
}

func page[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return []T{}
	}
	list = list[offset:]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list
}
