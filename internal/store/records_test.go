package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jekabolt/grbpwr-reports/internal/entity"
	"github.com/jekabolt/grbpwr-reports/internal/filter"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhere(t *testing.T) {
	tests := []struct {
		name  string
		expr  filter.Expr
		sql   string
		args  []any
		joins int
	}{
		{
			name: "eq",
			expr: filter.Eq("type", "opportunity"),
			sql:  "l.type = ?",
			args: []any{"opportunity"},
		},
		{
			name: "false bool matches null",
			expr: filter.Eq("active", false),
			sql:  "(l.active = ? OR l.active IS NULL)",
			args: []any{false},
		},
		{
			name: "false on non bool means unset",
			expr: filter.Eq("lost_reason_id", false),
			sql:  "l.lost_reason_id IS NULL",
		},
		{
			name: "not equal keeps null",
			expr: filter.Ne("type", "lead"),
			sql:  "(l.type <> ? OR l.type IS NULL)",
			args: []any{"lead"},
		},
		{
			name: "in",
			expr: filter.In("stage_id", 1, 2),
			sql:  "l.stage_id IN (?,?)",
			args: []any{1, 2},
		},
		{
			name: "not in keeps null",
			expr: filter.Cond{Field: "stage_id", Op: filter.OpNotIn, Value: []any{3}},
			sql:  "(l.stage_id NOT IN (?) OR l.stage_id IS NULL)",
			args: []any{3},
		},
		{
			name: "ilike",
			expr: filter.Cond{Field: "name", Op: filter.OpILike, Value: "acme"},
			sql:  "l.name LIKE ?",
			args: []any{"%acme%"},
		},
		{
			name: "and or",
			expr: filter.And{filter.Eq("type", "opportunity"), filter.Or{filter.Gte("probability", 50), filter.Eq("user_id", 7)}},
			sql:  "(l.type = ? AND (l.probability >= ? OR l.user_id = ?))",
			args: []any{"opportunity", 50, 7},
		},
		{
			name:  "dotted field joins",
			expr:  filter.Eq("stage_id.is_won", true),
			sql:   "j_stage_id.is_won = ?",
			args:  []any{true},
			joins: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := newQuery(entity.SourceLead)
			require.NoError(t, err)
			pred, err := q.where(tt.expr)
			require.NoError(t, err)
			sql, args, err := pred.ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sql)
			if tt.args == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.args, args)
			}
			_, joins := q.from()
			assert.Len(t, joins, tt.joins)
		})
	}
}

func TestWhereErrors(t *testing.T) {
	q, err := newQuery(entity.SourceLead)
	require.NoError(t, err)

	_, err = q.where(filter.Eq("password", "x"))
	assert.Error(t, err)
	_, err = q.where(filter.Cond{Field: "name", Op: filter.OpILike, Value: 3})
	assert.Error(t, err)

	pred, err := q.where(filter.And{})
	require.NoError(t, err)
	assert.Nil(t, pred)

	_, err = newQuery("invoice")
	assert.Error(t, err)
}

func TestCount(t *testing.T) {
	ms, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM crm_lead l LEFT JOIN crm_stage j_stage_id ON j_stage_id.id = l.stage_id WHERE (l.type = ? AND j_stage_id.is_won = ?)")).
		WithArgs("opportunity", true).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(12))

	n, err := ms.Records().Count(context.Background(), entity.SourceLead,
		filter.And{filter.Eq("type", "opportunity"), filter.Eq("stage_id.is_won", true)})
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupAggregateReference(t *testing.T) {
	ms, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT l.stage_id, j_stage_id.name, COUNT(*), SUM(l.expected_revenue) FROM crm_lead l " +
			"LEFT JOIN crm_stage j_stage_id ON j_stage_id.id = l.stage_id WHERE (l.active = ?) " +
			"GROUP BY l.stage_id, j_stage_id.name ORDER BY l.stage_id, j_stage_id.name")).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"stage_id", "name", "count", "sum"}).
			AddRow(nil, nil, 2, []byte("5.00")).
			AddRow(int64(1), []byte("New"), 3, []byte("30.50")).
			AddRow(int64(2), []byte("Won"), 1, nil))

	rows, err := ms.Records().GroupAggregate(context.Background(), entity.SourceLead,
		filter.And{filter.Eq("active", true)},
		[]entity.GroupBy{{Field: "stage_id"}},
		[]entity.Aggregate{entity.Sum("expected_revenue")})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, entity.NullKey{}, rows[0].Key())
	assert.Equal(t, 2, rows[0].Count)
	assert.Equal(t, entity.ReferenceKey{ID: 1, DisplayName: "New"}, rows[1].Key())
	assert.True(t, decimal.RequireFromString("30.5").Equal(rows[1].Metric("expected_revenue")))
	assert.True(t, rows[2].Metric("expected_revenue").IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupAggregateDateBucket(t *testing.T) {
	ms, mock := newMockStore(t)
	bucket := "DATE_FORMAT(l.create_date, '%Y-%m')"
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT " + bucket + ", COUNT(*) FROM crm_lead l GROUP BY " + bucket + " ORDER BY " + bucket)).
		WillReturnRows(sqlmock.NewRows([]string{"bucket", "count"}).
			AddRow([]byte("2025-01"), 4).
			AddRow([]byte("2025-02"), 1))

	rows, err := ms.Records().GroupAggregate(context.Background(), entity.SourceLead, nil,
		[]entity.GroupBy{{Field: "create_date", Granularity: entity.GranularityMonth}}, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, entity.ScalarKey{Value: "2025-01"}, rows[0].Key())
	assert.Equal(t, 1, rows[1].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupAggregateRejectsText(t *testing.T) {
	ms, _ := newMockStore(t)
	_, err := ms.Records().GroupAggregate(context.Background(), entity.SourceLead, nil,
		[]entity.GroupBy{{Field: "stage_id"}},
		[]entity.Aggregate{entity.Sum("name")})
	assert.Error(t, err)
}

func TestRead(t *testing.T) {
	ms, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT l.id, l.name, l.stage_id, j_stage_id.name, l.expected_revenue, l.active, l.create_date FROM crm_lead l " +
			"LEFT JOIN crm_stage j_stage_id ON j_stage_id.id = l.stage_id " +
			"ORDER BY l.create_date DESC, l.id ASC LIMIT 10")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "stage_id", "stage", "expected_revenue", "active", "create_date"}).
			AddRow(int64(8), []byte("Acme"), int64(1), []byte("New"), []byte("100.00"), int64(1), []byte("2025-03-04 10:00:00")).
			AddRow(int64(9), []byte("Globex"), nil, nil, nil, int64(0), nil))

	recs, err := ms.Records().Read(context.Background(), entity.SourceLead, nil, entity.ReadQuery{
		Fields: []string{"name", "stage_id", "expected_revenue", "active", "create_date"},
		Limit:  10,
		Order:  []entity.OrderBy{{Field: "create_date", Factor: entity.Descending}},
	})
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, int64(8), recs[0]["id"])
	assert.Equal(t, "Acme", recs[0]["name"])
	assert.Equal(t, entity.Reference{ID: 1, Name: "New"}, recs[0]["stage_id"])
	assert.True(t, decimal.NewFromInt(100).Equal(recs[0]["expected_revenue"].(decimal.Decimal)))
	assert.Equal(t, true, recs[0]["active"])
	assert.Equal(t, time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC), recs[0]["create_date"])

	assert.Nil(t, recs[1]["stage_id"])
	assert.Nil(t, recs[1]["expected_revenue"])
	assert.Equal(t, false, recs[1]["active"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
