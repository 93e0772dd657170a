package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jekabolt/grbpwr-reports/internal/middleware"
	"github.com/jekabolt/grbpwr-reports/internal/ratelimit"
)

// Router returns the HTTP handler of the report API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientIdentifier)
	r.Use(accessLog)
	r.Use(s.cors())
	if s.c.RequestTimeout > 0 {
		r.Use(chimw.Timeout(s.c.RequestTimeout))
	}

	r.Get("/healthz", s.health)

	r.Route("/api", func(r chi.Router) {
		write := s.limit(ratelimit.OpWrite)
		agg := s.limit(ratelimit.OpAggregate)

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", s.listReports)
			r.With(write).Post("/", s.addReport)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getReport)
				r.With(write).Put("/", s.updateReport)
				r.With(write).Delete("/", s.deleteReport)

				r.Group(func(r chi.Router) {
					r.Use(agg)
					r.Get("/chart", s.chart)
					r.Get("/kpi", s.kpi)
					r.Get("/detail", s.detail)
					r.Get("/funnel", s.funnel)
					r.Get("/lost-reasons", s.lostReasons)
					r.Get("/pipeline", s.pipeline)
					r.Get("/win-loss", s.winLoss)
					r.Get("/revenue/{dimension}", s.revenue)
					r.Get("/dashboard", s.dashboard)
				})
			})
		})

		r.Route("/activity-reports", func(r chi.Router) {
			r.Get("/", s.listActivityReports)
			r.With(write).Post("/", s.addActivityReport)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getActivityReport)
				r.With(agg).Get("/data", s.activityData)
				r.With(agg).Get("/detail", s.activityDetail)
			})
		})

		r.Get("/sources/{kind}/fields", s.sourceFields)
	})

	return r
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		slog.Default().InfoContext(r.Context(), "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("client_ip", middleware.GetClientIP(r.Context())),
		)
	})
}

// limit rejects clients that exhausted their budget for op.
func (s *Server) limit(op string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := s.limits.Check(op, middleware.GetClientIP(r.Context())); err != nil {
				s.writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Ping(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
