package cache

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jekabolt/grbpwr-reports/internal/dependency"
	"github.com/jekabolt/grbpwr-reports/internal/entity"
)

type labelKey struct {
	source entity.SourceKind
	field  string
}

// LabelCache resolves field labels from the report_field_label table.
type LabelCache struct {
	Cache map[labelKey]string
	Mutex sync.RWMutex
}

// NewLabelCache loads every label of store.
func NewLabelCache(ctx context.Context, store dependency.FieldLabels) (*LabelCache, error) {
	c := &LabelCache{
		Cache: make(map[labelKey]string),
	}
	if err := c.Reload(ctx, store); err != nil {
		slog.Default().ErrorContext(ctx, "cant get field labels",
			slog.String("err", err.Error()),
		)
		return nil, err
	}
	return c, nil
}

// Reload replaces the cached labels with the current content of store.
func (c *LabelCache) Reload(ctx context.Context, store dependency.FieldLabels) error {
	labels, err := store.ListFieldLabels(ctx)
	if err != nil {
		return err
	}
	m := make(map[labelKey]string, len(labels))
	for _, l := range labels {
		m[labelKey{source: l.Source, field: l.Field}] = l.Label
	}

	c.Mutex.Lock()
	defer c.Mutex.Unlock()
	c.Cache = m
	return nil
}

// LabelFor returns the label of field, or field itself when none is known.
func (c *LabelCache) LabelFor(source entity.SourceKind, field string) string {
	c.Mutex.RLock()
	defer c.Mutex.RUnlock()

	if label, ok := c.Cache[labelKey{source: source, field: field}]; ok && label != "" {
		return label
	}
	return field
}

// Labels returns a copy of the labels known for source.
func (c *LabelCache) Labels(source entity.SourceKind) map[string]string {
	c.Mutex.RLock()
	defer c.Mutex.RUnlock()

	out := map[string]string{}
	for k, v := range c.Cache {
		if k.source == source {
			out[k.field] = v
		}
	}
	return out
}
