package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/jekabolt/grbpwr-reports/internal/entity"
	gerr "github.com/jekabolt/grbpwr-reports/internal/errors"
	"github.com/jekabolt/grbpwr-reports/internal/form"
	"github.com/jekabolt/grbpwr-reports/internal/middleware"
	"github.com/jekabolt/grbpwr-reports/internal/report"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultPageSize = 50
	maxPageSize     = 1000
	maxBodyBytes    = 1 << 20
)

type errorBody struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Violations map[string]string `json:"violations,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("can't encode response",
			slog.String("err", err.Error()),
		)
	}
}

// writeError maps status errors to their HTTP code. Anything else is logged
// and hidden behind a 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	st, ok := status.FromError(err)
	if !ok || st.Code() == codes.Internal || st.Code() == codes.Unknown {
		slog.Default().ErrorContext(r.Context(), "request failed",
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("path", r.URL.Path),
			slog.String("err", err.Error()),
		)
		st = status.New(codes.Internal, "internal error")
	}
	body := errorBody{
		Code:    st.Code().String(),
		Message: st.Message(),
	}
	if st.Code() == codes.InvalidArgument {
		if v := form.Violations(err); len(v) > 0 {
			body.Violations = v
		}
	}
	writeJSON(w, runtime.HTTPStatusFromCode(st.Code()), body)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return gerr.BadRequestBody
	}
	return nil
}

func pathId(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, gerr.BadReportId
	}
	return id, nil
}

// pageParams reads limit, offset and order query parameters.
func pageParams(r *http.Request) (int, int, entity.OrderFactor) {
	q := r.URL.Query()
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err := strconv.Atoi(q.Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	order := entity.Descending
	if q.Get("order") == "asc" {
		order = entity.Ascending
	}
	return limit, offset, order
}

// logDiagnostics reports degraded phases of an aggregate.
func logDiagnostics(r *http.Request, reportId int, diags report.Diagnostics) {
	for _, d := range diags {
		slog.Default().WarnContext(r.Context(), "report phase degraded",
			slog.Int("report_id", reportId),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("phase", d.Phase),
			slog.String("err", d.Err.Error()),
		)
	}
}
