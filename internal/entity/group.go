package entity

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Granularity controls how a date group-by field is bucketed.
type Granularity int

const (
	GranularityNone  Granularity = 0
	GranularityDay   Granularity = 1
	GranularityMonth Granularity = 3
)

// Layout returns the canonical label layout of a bucket.
func (g Granularity) Layout() string {
	if g == GranularityDay {
		return time.DateOnly
	}
	return "2006-01"
}

// GroupBy is a single group-by clause of a grouped aggregate.
type GroupBy struct {
	Field       string
	Granularity Granularity
}

type AggregateFunc string

const (
	AggregateSum AggregateFunc = "sum"
	AggregateAvg AggregateFunc = "avg"
	AggregateMax AggregateFunc = "max"
	AggregateMin AggregateFunc = "min"
)

// Aggregate asks the record store for one metric per group.
type Aggregate struct {
	Field string
	Func  AggregateFunc
}

func Sum(field string) Aggregate {
	return Aggregate{Field: field, Func: AggregateSum}
}

// GroupRow is one row returned by a grouped aggregate: one key per group-by
// clause, the metrics keyed by field name, and the number of records.
type GroupRow struct {
	Keys    []GroupKey
	Metrics map[string]decimal.Decimal
	Count   int
}

// Key returns the first group key or a NullKey.
func (r GroupRow) Key() GroupKey {
	if len(r.Keys) == 0 {
		return NullKey{}
	}
	return r.Keys[0]
}

// Metric returns the value of field, zero when the store returned none.
func (r GroupRow) Metric(field string) decimal.Decimal {
	if r.Metrics == nil {
		return decimal.Zero
	}
	return r.Metrics[field]
}

// GroupKey is the value a group was formed on. It is one of ScalarKey,
// ReferenceKey or NullKey.
type GroupKey interface {
	// Label is the human readable value; undefined is used for null keys.
	Label(undefined string) string
	// JoinKey identifies the group across independent queries.
	JoinKey() string
	isGroupKey()
}

// ScalarKey is a raw field value such as a selection string or a bucket label.
type ScalarKey struct {
	Value any
}

// ReferenceKey is a (id, display name) pair of a reference field.
type ReferenceKey struct {
	ID          int64
	DisplayName string
}

// NullKey groups records without a value.
type NullKey struct{}

func (ScalarKey) isGroupKey()    {}
func (ReferenceKey) isGroupKey() {}
func (NullKey) isGroupKey()      {}

func (k ScalarKey) Label(undefined string) string {
	switch v := k.Value.(type) {
	case nil:
		return undefined
	case bool:
		if !v {
			return undefined
		}
		return "True"
	case string:
		if v == "" {
			return undefined
		}
		return v
	case time.Time:
		return v.Format(time.DateOnly)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fmt.Sprint(k.Value)
}

func (k ScalarKey) JoinKey() string {
	return "s:" + k.Label("")
}

func (k ReferenceKey) Label(undefined string) string {
	if k.DisplayName == "" {
		return undefined
	}
	return k.DisplayName
}

func (k ReferenceKey) JoinKey() string {
	return "r:" + strconv.FormatInt(k.ID, 10)
}

func (NullKey) Label(undefined string) string {
	return undefined
}

func (NullKey) JoinKey() string {
	return ""
}

// IsNullKey reports whether k stands for "no value".
func IsNullKey(k GroupKey) bool {
	switch v := k.(type) {
	case nil, NullKey:
		return true
	case ScalarKey:
		return v.JoinKey() == "s:"
	}
	return false
}

// Reference is the value of a reference field in a record read.
type Reference struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Record is a single row returned by a read, keyed by field name.
type Record map[string]any

// Int64 returns the integer value of field, following references to their id.
func (r Record) Int64(field string) (int64, bool) {
	switch v := r[field].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case Reference:
		return v.ID, true
	case *Reference:
		if v == nil {
			return 0, false
		}
		return v.ID, true
	}
	return 0, false
}

// String returns the string value of field, using the display name of references.
func (r Record) String(field string) string {
	switch v := r[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case Reference:
		return v.Name
	case *Reference:
		if v == nil {
			return ""
		}
		return v.Name
	}
	return fmt.Sprint(r[field])
}
