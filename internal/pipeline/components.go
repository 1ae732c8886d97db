package pipeline

import (
	"context"
	"log"
	"sync"

	"property-appraisal/internal/inference"
	"property-appraisal/internal/models"
	"property-appraisal/internal/valuation"

	"github.com/google/uuid"
)

// componentResult mirrors the component analysis prompt's output schema.
type componentResult struct {
	CurrentCondition       string  `json:"current_condition"`
	InstallationYear       int     `json:"installation_year"`
	EstimatedLifetimeYears int     `json:"estimated_lifetime_years"`
	ReplacementCost        float64 `json:"replacement_cost"`
	ResidualValue          float64 `json:"residual_value"`
	MaintenanceNotes       string  `json:"maintenance_notes"`
}

// analyzeComponents fans out one analysis per submission and persists
// each component. Submissions with neither photos nor a serial number
// are skipped entirely; every other submission yields a record, with
// the default values when analysis or evidence fetching fails.
func (p *Pipeline) analyzeComponents(ctx context.Context, property *models.Property, submissions []ComponentSubmission) []models.Component {
	eligible := make([]ComponentSubmission, 0, len(submissions))
	for _, sub := range submissions {
		if len(sub.PhotoURLs) == 0 && sub.SerialNumber == "" {
			log.Printf("Pipeline: skipping %s submission with no photos and no serial number", sub.ComponentType)
			continue
		}
		eligible = append(eligible, sub)
	}
	if len(eligible) == 0 {
		return nil
	}

	components := make([]models.Component, len(eligible))
	var wg sync.WaitGroup
	for i, sub := range eligible {
		wg.Add(1)
		go func(i int, sub ComponentSubmission) {
			defer wg.Done()
			components[i] = p.analyzeOne(ctx, property, sub)
		}(i, sub)
	}
	wg.Wait()

	// A component that could not be persisted is dropped from the run,
	// so the stored records and the aggregate residual always agree.
	persisted := components[:0]
	for i := range components {
		photos := make([]models.ComponentPhoto, len(eligible[i].PhotoURLs))
		for j, url := range eligible[i].PhotoURLs {
			photos[j] = models.ComponentPhoto{PhotoURL: url, SortOrder: j}
		}
		if err := p.store.CreateComponent(&components[i], photos); err != nil {
			log.Printf("Pipeline: failed to persist component %s (%s), excluding it from the appraisal: %v",
				components[i].ID, components[i].ComponentType, err)
			continue
		}
		persisted = append(persisted, components[i])
	}

	return persisted
}

func (p *Pipeline) analyzeOne(ctx context.Context, property *models.Property, sub ComponentSubmission) models.Component {
	component := models.Component{
		ID:            uuid.NewString(),
		PropertyID:    property.ID,
		ComponentType: sub.ComponentType,
		SerialNumber:  sub.SerialNumber,
	}

	var evidence []inference.Blob
	if p.photos != nil && len(sub.PhotoURLs) > 0 {
		evidence = p.photos.FetchAll(ctx, sub.PhotoURLs)
	}

	raw, err := p.gateway.Generate(ctx, inference.Request{
		Prompt:   inference.BuildComponentPrompt(property, sub.ComponentType, sub.SerialNumber),
		Evidence: evidence,
	})
	if err != nil {
		log.Printf("Pipeline: component analysis failed for %s (%s), using defaults: %v",
			component.ID, sub.ComponentType, err)
		applyComponentDefaults(&component, property)
		return component
	}

	var result componentResult
	if err := decodeInto(raw, &result); err != nil {
		log.Printf("Pipeline: component analysis response unusable for %s (%s), using defaults: %v",
			component.ID, sub.ComponentType, err)
		applyComponentDefaults(&component, property)
		return component
	}

	// Fields the model left out fall back individually.
	if !models.ValidCondition(result.CurrentCondition) {
		result.CurrentCondition = valuation.DefaultComponentCondition
	}
	if result.EstimatedLifetimeYears <= 0 {
		result.EstimatedLifetimeYears = valuation.DefaultComponentLifetimeYears
	}
	if result.ReplacementCost <= 0 {
		result.ReplacementCost = valuation.DefaultComponentReplacementCost
	}
	if result.ResidualValue <= 0 {
		result.ResidualValue = valuation.DefaultComponentResidualValue
	}
	if result.MaintenanceNotes == "" {
		result.MaintenanceNotes = valuation.DefaultComponentNotes
	}
	if result.ResidualValue > result.ReplacementCost {
		result.ResidualValue = result.ReplacementCost
	}

	component.CurrentCondition = models.ComponentCondition(result.CurrentCondition)
	component.InstallationYear = result.InstallationYear
	component.EstimatedLifetimeYears = result.EstimatedLifetimeYears
	component.ReplacementCost = result.ReplacementCost
	component.ResidualValue = result.ResidualValue
	component.MaintenanceNotes = result.MaintenanceNotes
	component.AnalysisSource = models.AnalysisSourceInference

	if component.InstallationYear == 0 && property.YearBuilt != nil {
		component.InstallationYear = *property.YearBuilt
	}

	return component
}

// applyComponentDefaults fills the failure-default values.
func applyComponentDefaults(c *models.Component, property *models.Property) {
	c.CurrentCondition = models.ComponentCondition(valuation.DefaultComponentCondition)
	c.EstimatedLifetimeYears = valuation.DefaultComponentLifetimeYears
	c.ReplacementCost = valuation.DefaultComponentReplacementCost
	c.ResidualValue = valuation.DefaultComponentResidualValue
	c.MaintenanceNotes = valuation.DefaultComponentNotes
	c.AnalysisSource = models.AnalysisSourceDefault
	if property.YearBuilt != nil {
		c.InstallationYear = *property.YearBuilt
	}
}
