package report

import (
	"fmt"

	"github.com/jekabolt/grbpwr-reports/internal/filter"
)

// Resolve returns the effective filter of q: the parsed definition filter AND
// the time window predicate AND the extra predicates. A definition filter or
// extra predicate that does not parse or names unknown fields is dropped and
// reported as a diagnostic. The result is never nil.
func (e *Engine) Resolve(q Query) (filter.And, Diagnostics) {
	var diags Diagnostics
	src, ok := SourceFor(q.Source)
	if !ok {
		diags.add("source", fmt.Errorf("unknown source %q", q.Source))
		return filter.And{}, diags
	}

	domain, err := filter.Parse(q.Domain)
	if err == nil {
		err = filter.Validate(domain, src.Known)
	}
	if err != nil {
		diags.add("filter", fmt.Errorf("definition filter ignored: %w", err))
		domain = filter.And{}
	}

	var window filter.Expr
	if w, ok := ResolveWindow(q.TimeFilter, q.DateFrom, q.DateTo, e.now().In(e.loc)); ok && src.DateField != "" {
		window = w.Predicate(src.DateField)
	}

	extra := q.Extra
	if extra != nil {
		if err := filter.Validate(extra, src.Known); err != nil {
			diags.add("extra_filter", fmt.Errorf("extra predicates ignored: %w", err))
			extra = nil
		}
	}
	return filter.All(domain, window, extra), diags
}
