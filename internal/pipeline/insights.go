package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"property-appraisal/internal/inference"
	"property-appraisal/internal/models"
)

// generateInsights produces the advisory bundle. Unlike enrichment and
// component analysis this stage has no fallback: without insights the
// reports cannot be written, so its error aborts the run. During
// revaluation the previous bundle and the caller's extra context are
// handed to the model as reference material.
func (p *Pipeline) generateInsights(ctx context.Context, property *models.Property, components []models.Component, previous *models.InsightBundle, extraContext string) (*models.InsightBundle, error) {
	var snippets []string
	if p.useWebContext && p.web != nil {
		snippets = p.web.Snippets(ctx, property.Address)
	}

	prompt := inference.BuildInsightsPrompt(property, components)
	if previous != nil || extraContext != "" {
		reference := ""
		if previous != nil {
			if data, err := json.Marshal(previous); err == nil {
				reference = string(data)
			}
		}
		prompt = inference.BuildRevaluationInsightsPrompt(property, components, reference, extraContext)
	}

	raw, err := p.gateway.Generate(ctx, inference.Request{
		Prompt:     prompt,
		WebContext: snippets,
	})
	if err != nil {
		return nil, fmt.Errorf("insight generation: %w", err)
	}

	var bundle models.InsightBundle
	if err := decodeInto(raw, &bundle); err != nil {
		return nil, fmt.Errorf("insight decoding: %w", err)
	}

	return &bundle, nil
}
