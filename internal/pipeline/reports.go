package pipeline

import (
	"context"

	"property-appraisal/internal/inference"
	"property-appraisal/internal/models"
	"property-appraisal/internal/valuation"

	"github.com/google/uuid"
)

// appraisalNarrative mirrors the appraisal prompt's output schema. The
// numeric figures never come from the model; they are injected from the
// valuation result after the narrative is decoded.
type appraisalNarrative struct {
	Summary            string `json:"summary"`
	Methodology        string `json:"methodology"`
	MarketAnalysis     string `json:"market_analysis"`
	ComparablesComment string `json:"comparables_comment"`
}

func (p *Pipeline) generateInspectionReport(ctx context.Context, property *models.Property, components []models.Component) (*models.Report, error) {
	raw, err := p.gateway.Generate(ctx, inference.Request{
		Prompt: inference.BuildInspectionReportPrompt(property, components),
	})
	if err != nil {
		return nil, err
	}

	var data models.InspectionReportData
	if err := decodeInto(raw, &data); err != nil {
		return nil, err
	}

	payload, err := models.ToJSON(data)
	if err != nil {
		return nil, err
	}

	report := &models.Report{
		ID:         uuid.NewString(),
		PropertyID: property.ID,
		ReportType: models.ReportTypeInspection,
		ReportData: payload,
		Summary:    data.Summary,
	}
	if err := p.store.CreateReport(report); err != nil {
		return nil, err
	}
	return report, nil
}

func (p *Pipeline) generateAppraisalReport(ctx context.Context, property *models.Property, bundle *models.InsightBundle) (*models.Report, error) {
	data, err := p.buildAppraisalData(ctx, property, bundle, nil)
	if err != nil {
		return nil, err
	}

	payload, err := models.ToJSON(data)
	if err != nil {
		return nil, err
	}

	report := &models.Report{
		ID:         uuid.NewString(),
		PropertyID: property.ID,
		ReportType: models.ReportTypeAppraisal,
		ReportData: payload,
		Summary:    data.Summary,
	}
	if err := p.store.CreateReport(report); err != nil {
		return nil, err
	}
	return report, nil
}

// buildAppraisalData asks the model for the appraisal narrative and then
// overwrites every numeric field with the valuation result. The model
// never gets the last word on a number.
func (p *Pipeline) buildAppraisalData(ctx context.Context, property *models.Property, bundle *models.InsightBundle, previousValue *float64) (*models.AppraisalReportData, error) {
	adjustment := valuation.MarketAdjustment(property.MarketRating)
	rebuildCost := property.SquareFootage * property.RebuildCostPerSqft

	marketTrends := ""
	if bundle != nil {
		marketTrends = bundle.MarketTrends
	}

	raw, err := p.gateway.Generate(ctx, inference.Request{
		Prompt: inference.BuildAppraisalReportPrompt(property, rebuildCost, adjustment, marketTrends),
	})
	if err != nil {
		return nil, err
	}

	var narrative appraisalNarrative
	if err := decodeInto(raw, &narrative); err != nil {
		return nil, err
	}

	data := &models.AppraisalReportData{
		Summary:            narrative.Summary,
		Methodology:        narrative.Methodology,
		MarketAnalysis:     narrative.MarketAnalysis,
		ComparablesComment: narrative.ComparablesComment,
		AppraisedValue:     property.AppraisedValue,
		RebuildCost:        rebuildCost,
		LandValue:          property.LandValue,
		AssetResidualValue: property.TotalAssetResidualValue,
		MarketAdjustment:   adjustment,
	}
	if previousValue != nil {
		data.PreviousAppraisedValue = previousValue
		delta := property.AppraisedValue - *previousValue
		data.ValueDelta = &delta
	}
	return data, nil
}
