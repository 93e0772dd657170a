package dependency

import (
	"context"
	"database/sql"

	"github.com/jekabolt/grbpwr-reports/internal/entity"
	"github.com/jekabolt/grbpwr-reports/internal/filter"
	"github.com/jmoiron/sqlx"
)

type (
	ContextStore interface {
		Tx(ctx context.Context, fn func(ctx context.Context, store Repository) error) error
	}

	// RecordStore is the queryable data source aggregations run against.
	RecordStore interface {
		// Count returns the number of records of source matching where.
		Count(ctx context.Context, source entity.SourceKind, where filter.Expr) (int, error)
		// GroupAggregate groups the matching records by groupBy and computes the
		// aggregates and the record count of every group. Reference fields yield
		// ReferenceKey group keys, scalar fields ScalarKey, missing values NullKey.
		GroupAggregate(ctx context.Context, source entity.SourceKind, where filter.Expr, groupBy []entity.GroupBy, aggregates []entity.Aggregate) ([]entity.GroupRow, error)
		// Read returns the requested fields of the matching records.
		Read(ctx context.Context, source entity.SourceKind, where filter.Expr, q entity.ReadQuery) ([]entity.Record, error)
	}

	// FieldMetadata resolves human readable field names.
	FieldMetadata interface {
		// LabelFor returns the label of field, or the field name when none is known.
		LabelFor(source entity.SourceKind, field string) string
	}

	Pipeline interface {
		// ListStages returns the pipeline stages ordered by sequence.
		ListStages(ctx context.Context) ([]entity.PipelineStage, error)
	}

	Reports interface {
		ContextStore
		AddReport(ctx context.Context, r *entity.ReportDefinitionInsert) (int, error)
		UpdateReport(ctx context.Context, id int, r *entity.ReportDefinitionInsert) error
		GetReportById(ctx context.Context, id int) (*entity.ReportDefinition, error)
		ListReports(ctx context.Context, limit, offset int, orderFactor entity.OrderFactor) ([]entity.ReportDefinition, int, error)
		DeleteReport(ctx context.Context, id int) error

		AddActivityReport(ctx context.Context, r *entity.ActivityReportDefinitionInsert) (int, error)
		GetActivityReportById(ctx context.Context, id int) (*entity.ActivityReportDefinition, error)
		ListActivityReports(ctx context.Context, limit, offset int, orderFactor entity.OrderFactor) ([]entity.ActivityReportDefinition, int, error)
	}

	FieldLabels interface {
		ListFieldLabels(ctx context.Context) ([]entity.FieldLabel, error)
	}

	Repository interface {
		ContextStore
		Reports() Reports
		Records() RecordStore
		Pipeline() Pipeline
		FieldLabels() FieldLabels
		Ping(ctx context.Context) error
		Close()
	}

	DB interface {
		BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)

		// sqlx methods
		GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
		QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
		QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
		SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	}
)
