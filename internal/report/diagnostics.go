package report

import (
	"errors"
	"fmt"
)

// Diagnostic records a sub-query or resolution step that failed and was
// replaced by an empty or zero contribution.
type Diagnostic struct {
	Phase string
	Err   error
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %v", d.Phase, d.Err)
}

func (d Diagnostic) Unwrap() error {
	return d.Err
}

// Diagnostics is returned next to every aggregate. The engine never logs;
// callers decide what to do with them.
type Diagnostics []Diagnostic

func (d *Diagnostics) add(phase string, err error) {
	if err == nil {
		return
	}
	*d = append(*d, Diagnostic{Phase: phase, Err: err})
}

// merge appends the diagnostics of other that are not already present. Every
// part of a combined call resolves the same filter and would otherwise repeat
// its diagnostics.
func (d *Diagnostics) merge(other Diagnostics) {
	for _, o := range other {
		dup := false
		for _, have := range *d {
			if have.Phase == o.Phase && have.Error() == o.Error() {
				dup = true
				break
			}
		}
		if !dup {
			*d = append(*d, o)
		}
	}
}

// Err joins all diagnostics into one error, nil when there are none.
func (d Diagnostics) Err() error {
	if len(d) == 0 {
		return nil
	}
	errs := make([]error, len(d))
	for i, dg := range d {
		errs[i] = dg
	}
	return errors.Join(errs...)
}

// Phases lists the failed phases in order.
func (d Diagnostics) Phases() []string {
	phases := make([]string, len(d))
	for i, dg := range d {
		phases[i] = dg.Phase
	}
	return phases
}

// collect runs fn and returns its value, or the zero value with a diagnostic
// when fn fails.
func collect[T any](d *Diagnostics, phase string, fn func() (T, error)) T {
	v, err := fn()
	if err != nil {
		d.add(phase, err)
		var zero T
		return zero
	}
	return v
}
