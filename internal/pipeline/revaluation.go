package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"

	"property-appraisal/internal/models"
	"property-appraisal/internal/store"
	"property-appraisal/internal/valuation"

	"github.com/google/uuid"
)

// ErrNotCompleted is returned when revaluation is requested for a
// property that never finished digitization.
var ErrNotCompleted = errors.New("pipeline: property has not completed digitization")

// RevalueRequest updates the market view of a completed property. The
// additional context is free text handed to the model alongside the
// existing record.
type RevalueRequest struct {
	MarketRating      *int   `json:"market_rating" binding:"required"`
	AdditionalContext string `json:"additional_context"`
}

func (r *RevalueRequest) Validate() error {
	if r.MarketRating == nil || *r.MarketRating < 0 || *r.MarketRating > 10 {
		return fmt.Errorf("%w: market_rating must be between 0 and 10", ErrValidation)
	}
	return nil
}

// RevalueResult reports the before and after of a revaluation.
type RevalueResult struct {
	Property       *models.Property `json:"property"`
	Report         *models.Report   `json:"report"`
	PreviousValue  float64          `json:"previous_value"`
	AppraisedValue float64          `json:"appraised_value"`
}

// Revalue re-runs enrichment and insight generation over a completed
// property, recomputes its appraisal under the new market rating and
// rewrites the existing appraisal report in place. Components and the
// inspection report are never touched. All state is computed first and
// committed only at the end, so any failure before the commit leaves
// the property exactly as it was.
func (p *Pipeline) Revalue(ctx context.Context, propertyID string, req *RevalueRequest) (*RevalueResult, error) {
	if err := req.Validate(); err != nil {
		return nil, &StageError{Stage: StageValidating, Err: err}
	}

	property, err := p.store.GetProperty(propertyID)
	if err != nil {
		return nil, err
	}
	if !property.IsCompleted() {
		return nil, ErrNotCompleted
	}

	run := p.startRun(propertyID, models.RunKindRevaluation, StageEnriching)

	previousValue := property.AppraisedValue
	property.MarketRating = *req.MarketRating

	// Re-enrichment keeps the recorded cost basis on any failure.
	p.reenrichProperty(ctx, property, req.AdditionalContext)
	property.RebuildCostPerSqft = valuation.ResolveRebuildCost(property.RebuildCostPerSqft)
	property.LandValue = valuation.ResolveLandValue(landClassification(property), property.LandValue, property.SquareFootage)

	var previous *models.InsightBundle
	if len(property.Insights) > 0 {
		var b models.InsightBundle
		if err := models.FromJSON(property.Insights, &b); err == nil {
			previous = &b
		}
	}

	// Existing components are re-summed, never re-analyzed.
	components, err := p.store.ComponentsByProperty(propertyID)
	if err != nil {
		p.failRun(run, StageEnriching, err)
		return nil, &StageError{Stage: StageEnriching, Err: err}
	}

	p.advance(run, StageGeneratingInsights)
	bundle, err := p.generateInsights(ctx, property, components, previous, req.AdditionalContext)
	if err != nil {
		p.failRun(run, StageGeneratingInsights, err)
		return nil, &StageError{Stage: StageGeneratingInsights, Err: err}
	}

	p.advance(run, StageAggregating)
	property.TotalAssetResidualValue = sumComponentResiduals(components)

	p.advance(run, StageComputingValuation)
	p.applyValuation(property, bundle)

	p.advance(run, StageCompilingAppraisal)
	data, err := p.buildAppraisalData(ctx, property, bundle, &previousValue)
	if err != nil {
		p.failRun(run, StageCompilingAppraisal, err)
		return nil, &StageError{Stage: StageCompilingAppraisal, Err: err}
	}

	payload, err := models.ToJSON(data)
	if err != nil {
		p.failRun(run, StageCompilingAppraisal, err)
		return nil, &StageError{Stage: StageCompilingAppraisal, Err: err}
	}

	// Commit point: everything computed, now persist.
	p.advance(run, StagePersistingFinal)
	report, err := p.store.ReportByType(propertyID, string(models.ReportTypeAppraisal))
	switch {
	case err == nil:
		report.ReportData = payload
		report.Summary = data.Summary
		if err := p.store.UpdateReport(report); err != nil {
			p.failRun(run, StagePersistingFinal, err)
			return nil, &StageError{Stage: StagePersistingFinal, Err: err}
		}
	case errors.Is(err, store.ErrNotFound):
		report = &models.Report{
			ID:         uuid.NewString(),
			PropertyID: propertyID,
			ReportType: models.ReportTypeAppraisal,
			ReportData: payload,
			Summary:    data.Summary,
		}
		if err := p.store.CreateReport(report); err != nil {
			p.failRun(run, StagePersistingFinal, err)
			return nil, &StageError{Stage: StagePersistingFinal, Err: err}
		}
	default:
		p.failRun(run, StagePersistingFinal, err)
		return nil, &StageError{Stage: StagePersistingFinal, Err: err}
	}

	if err := p.store.UpdateProperty(property); err != nil {
		p.failRun(run, StagePersistingFinal, err)
		return nil, &StageError{Stage: StagePersistingFinal, Err: err}
	}

	if p.history != nil {
		p.history.Record(property, models.SnapshotTriggerRevaluation)
	}
	if p.search != nil {
		if err := p.search.IndexProperty(property); err != nil {
			log.Printf("Pipeline: search reindexing failed for property %s: %v", property.ID, err)
		}
	}

	p.completeRun(run)

	return &RevalueResult{
		Property:       property,
		Report:         report,
		PreviousValue:  previousValue,
		AppraisedValue: property.AppraisedValue,
	}, nil
}
