package pipeline

import (
	"context"
	"log"
	"strings"

	"property-appraisal/internal/inference"
	"property-appraisal/internal/models"
)

// enrichmentResult mirrors the enrichment prompt's output schema.
type enrichmentResult struct {
	Classification     string  `json:"classification"`
	RebuildCostPerSqft float64 `json:"rebuild_cost_per_sqft"`
	LandValue          float64 `json:"land_value"`
}

// enrichProperty asks the model for the property's classification and
// cost basis. Any failure leaves the fields zero; the valuation stage
// substitutes the documented defaults.
func (p *Pipeline) enrichProperty(ctx context.Context, property *models.Property) {
	raw, err := p.gateway.Generate(ctx, inference.Request{
		Prompt: inference.BuildEnrichmentPrompt(property),
	})
	if err != nil {
		log.Printf("Pipeline: enrichment failed for property %s, defaults will apply: %v", property.ID, err)
		return
	}

	var result enrichmentResult
	if err := decodeInto(raw, &result); err != nil {
		log.Printf("Pipeline: enrichment response unusable for property %s, defaults will apply: %v", property.ID, err)
		return
	}

	property.Classification = strings.ToLower(strings.TrimSpace(result.Classification))
	if result.RebuildCostPerSqft > 0 {
		property.RebuildCostPerSqft = result.RebuildCostPerSqft
	}
	if result.LandValue > 0 {
		property.LandValue = result.LandValue
	}
}

// reenrichProperty refreshes the cost basis during revaluation. The
// values already on record survive any failure or absent field.
func (p *Pipeline) reenrichProperty(ctx context.Context, property *models.Property, additionalContext string) {
	raw, err := p.gateway.Generate(ctx, inference.Request{
		Prompt: inference.BuildRevaluationEnrichmentPrompt(property, additionalContext),
	})
	if err != nil {
		log.Printf("Pipeline: re-enrichment failed for property %s, keeping recorded cost basis: %v", property.ID, err)
		return
	}

	var result enrichmentResult
	if err := decodeInto(raw, &result); err != nil {
		log.Printf("Pipeline: re-enrichment response unusable for property %s, keeping recorded cost basis: %v", property.ID, err)
		return
	}

	if c := strings.ToLower(strings.TrimSpace(result.Classification)); c != "" {
		property.Classification = c
	}
	if result.RebuildCostPerSqft > 0 {
		property.RebuildCostPerSqft = result.RebuildCostPerSqft
	}
	if result.LandValue > 0 {
		property.LandValue = result.LandValue
	}
}
