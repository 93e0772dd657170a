package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Expr
	}{
		{
			name: "blank",
			text: "  ",
			want: And{},
		},
		{
			name: "empty list",
			text: "[]",
			want: And{},
		},
		{
			name: "single tuple",
			text: `[("type", "=", "lead")]`,
			want: And{Cond{Field: "type", Op: OpEq, Value: "lead"}},
		},
		{
			name: "implicit and with list tuple and trailing comma",
			text: `[('stage_id', 'in', [1, 2]), ["probability", ">", 12.5],]`,
			want: And{
				Cond{Field: "stage_id", Op: OpIn, Value: []any{int64(1), int64(2)}},
				Cond{Field: "probability", Op: OpGt, Value: 12.5},
			},
		},
		{
			name: "prefix or",
			text: `["|", ("type", "=", "lead"), ("active", "=", False), ("user_id", "!=", None)]`,
			want: And{
				Or{
					Cond{Field: "type", Op: OpEq, Value: "lead"},
					Cond{Field: "active", Op: OpEq, Value: false},
				},
				Cond{Field: "user_id", Op: OpNe, Value: nil},
			},
		},
		{
			name: "nested operators",
			text: `["|", "&", ("a", "=", 1), ("b", "=", 2), ("c", "not in", (3,))]`,
			want: And{
				Or{
					And{Cond{Field: "a", Op: OpEq, Value: int64(1)}, Cond{Field: "b", Op: OpEq, Value: int64(2)}},
					Cond{Field: "c", Op: OpNotIn, Value: []any{int64(3)}},
				},
			},
		},
		{
			name: "dotted field and operator aliases",
			text: `[("stage_id.is_won", "==", True), ("name", "like", "acme")]`,
			want: And{
				Cond{Field: "stage_id.is_won", Op: OpEq, Value: true},
				Cond{Field: "name", Op: OpILike, Value: "acme"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, text := range []string{
		`[("type", "=")]`,
		`[("type" "=" "lead")]`,
		`["|", ("type", "=", "lead")]`,
		`[("type", "~", "lead")]`,
		`[("ty pe", "=", "lead")]`,
		`[("type", "=", "lead")`,
		`[("type", "=", 'lead)]`,
		`[("type", "=", foo)]`,
		`("type", "=", "lead")`,
		`[("type", "=", "lead")] extra`,
		`["!", ("type", "=", "lead")]`,
	} {
		t.Run(text, func(t *testing.T) {
			_, err := Parse(text)
			assert.ErrorIs(t, err, ErrSyntax)
		})
	}
}

func TestParseLenient(t *testing.T) {
	assert.Equal(t, And{}, ParseLenient("not a domain"))
	assert.Equal(t, And{}, ParseLenient(`[("stage_id", "in", 3)]`))
	assert.Equal(t, And{Cond{Field: "type", Op: OpEq, Value: "lead"}}, ParseLenient(`[("type","=","lead")]`))
}

func TestValidate(t *testing.T) {
	known := func(f string) bool { return f == "type" || f == "stage_id" }

	assert.NoError(t, Validate(And{Eq("type", "lead"), In("stage_id", int64(1))}, known))
	assert.ErrorContains(t, Validate(And{Eq("probability", 1)}, known), "unknown field")
	assert.ErrorContains(t, Validate(Cond{Field: "stage_id", Op: OpIn, Value: int64(1)}, known), "needs a list")
	assert.ErrorContains(t, Validate(Cond{Field: "type", Op: "~", Value: "x"}, known), "unsupported operator")
	assert.ErrorContains(t, Validate(Cond{Field: "type", Op: OpILike, Value: 3}, known), "needs a string")
}

func TestAllAndIsEmpty(t *testing.T) {
	a := Eq("type", "lead")
	got := All(nil, And{}, And{a, And{}}, Or{a})
	assert.Equal(t, And{a, Or{a}}, got)
	assert.True(t, IsEmpty(nil))
	assert.True(t, IsEmpty(And{And{}}))
	assert.False(t, IsEmpty(Or{}))
	assert.False(t, IsEmpty(got))
	assert.Equal(t, []string{"type"}, Fields(got))
	assert.True(t, Mentions(got, "type"))
	assert.False(t, Mentions(got, "active"))
}

func TestStringRoundTrip(t *testing.T) {
	for _, text := range []string{
		`[("type", "=", "lead")]`,
		`["|", ("type", "=", "lead"), ("active", "=", False)]`,
		`[("a", "=", 1), "|", "&", ("b", "in", [1, 2]), ("c", "!=", None), ("d", ">=", 2.5)]`,
	} {
		t.Run(text, func(t *testing.T) {
			e, err := Parse(text)
			require.NoError(t, err)
			again, err := Parse(e.String())
			require.NoError(t, err)
			assert.Equal(t, e, again)
		})
	}
}

func TestEval(t *testing.T) {
	created := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	rec := map[string]any{
		"type":             "opportunity",
		"active":           true,
		"stage_id":         int64(3),
		"expected_revenue": 1500.0,
		"create_date":      created,
		"user_id":          nil,
		"name":             "ACME deal",
	}
	get := func(f string) (any, bool) {
		v, ok := rec[f]
		return v, ok
	}
	tests := []struct {
		name string
		expr Expr
		want bool
	}{
		{"empty", And{}, true},
		{"eq", Eq("type", "opportunity"), true},
		{"ne", Ne("type", "lead"), true},
		{"in ints", In("stage_id", int64(1), int64(3)), true},
		{"not in", Cond{Field: "stage_id", Op: OpNotIn, Value: []any{int64(3)}}, false},
		{"gt mixed numbers", Cond{Field: "expected_revenue", Op: OpGt, Value: int64(1000)}, true},
		{"date string bound", Gte("create_date", "2025-03-01"), true},
		{"date upper bound", Lte("create_date", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)), false},
		{"null equals false", Eq("user_id", false), true},
		{"null ne none", Ne("user_id", nil), false},
		{"missing field is null", Eq("team_id", nil), true},
		{"ilike", Cond{Field: "name", Op: OpILike, Value: "acme"}, true},
		{"or", Or{Eq("type", "lead"), Eq("active", true)}, true},
		{"empty or", Or{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Eval(tt.expr, get))
		})
	}
}
