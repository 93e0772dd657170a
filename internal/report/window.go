package report

import (
	"time"

	"github.com/jekabolt/grbpwr-reports/internal/entity"
	"github.com/jekabolt/grbpwr-reports/internal/filter"
)

// Window is a range of whole days, stored half-open as [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// ResolveWindow maps a time filter to the window it covers at now. Day
// bounds are inclusive: "this year" ends with Dec 31 included. A custom
// filter uses from and to verbatim, an inverted range simply matches nothing.
// It returns false when no window applies.
func ResolveWindow(tf entity.TimeFilter, from, to *time.Time, now time.Time) (Window, bool) {
	today := startOfDay(now)
	switch tf {
	case entity.TimeFilterLast3Months:
		return Window{Start: addMonths(today, -3), End: today.AddDate(0, 0, 1)}, true
	case entity.TimeFilterLast6Months:
		return Window{Start: addMonths(today, -6), End: today.AddDate(0, 0, 1)}, true
	case entity.TimeFilterThisMonth:
		start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return Window{Start: start, End: start.AddDate(0, 1, 0)}, true
	case entity.TimeFilterThisYear:
		start := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location())
		return Window{Start: start, End: start.AddDate(1, 0, 0)}, true
	case entity.TimeFilterCustom:
		if from == nil || to == nil {
			return Window{}, false
		}
		loc := now.Location()
		return Window{
			Start: startOfDay(from.In(loc)),
			End:   startOfDay(to.In(loc)).AddDate(0, 0, 1),
		}, true
	}
	return Window{}, false
}

// Predicate restricts field to the window.
func (w Window) Predicate(field string) filter.And {
	return filter.And{
		filter.Gte(field, w.Start),
		filter.Cond{Field: field, Op: filter.OpLt, Value: w.End},
	}
}

// GranularityFor returns the time series bucket size of a time filter.
func GranularityFor(tf entity.TimeFilter) entity.Granularity {
	if tf == entity.TimeFilterThisMonth {
		return entity.GranularityDay
	}
	return entity.GranularityMonth
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// addMonths moves t by n calendar months, clamping the day to the length of
// the target month (May 31 minus 3 months is Feb 28).
func addMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, n, 0)
	last := first.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
