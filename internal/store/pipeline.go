package store

import (
	"context"
	"fmt"

	"github.com/jekabolt/grbpwr-reports/internal/entity"
)

type pipelineStore struct {
	*MYSQLStore
}

func (ms *pipelineStore) ListStages(ctx context.Context) ([]entity.PipelineStage, error) {
	stages, err := QueryListNamed[entity.PipelineStage](ctx, ms.DB(), `
	SELECT id, name, sequence, is_won FROM crm_stage
	ORDER BY sequence, id`, map[string]any{})
	if err != nil {
		return nil, fmt.Errorf("can't list pipeline stages: %w", err)
	}
	return stages, nil
}

type fieldLabelStore struct {
	*MYSQLStore
}

func (ms *fieldLabelStore) ListFieldLabels(ctx context.Context) ([]entity.FieldLabel, error) {
	labels, err := QueryListNamed[entity.FieldLabel](ctx, ms.DB(), `
	SELECT source, field, label FROM report_field_label`, map[string]any{})
	if err != nil {
		return nil, fmt.Errorf("can't list field labels: %w", err)
	}
	return labels, nil
}
