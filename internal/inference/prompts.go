package inference

import (
	"fmt"
	"strings"

	"property-appraisal/internal/models"
)

const enrichmentPromptTemplate = `You are a property records analyst digitizing a real-estate record.

## PRIMARY OBJECTIVE
Classify the property below and estimate its cost basis for a cost-approach valuation.

## CRITICAL RULES
1. Output ONLY valid JSON matching the schema below - no markdown, no explanations, no preamble
2. Your response must start with { and end with }
3. rebuild_cost_per_sqft is the local construction cost to rebuild the structure, in USD per square foot
4. land_value is the value of the land parcel alone, in USD
5. classification must be one of: "single_family", "condo", "townhouse", "multi_family"

## PROPERTY
%s

## OUTPUT SCHEMA
{
  "classification": "single_family",
  "rebuild_cost_per_sqft": 185.0,
  "land_value": 120000.0
}`

const componentPromptTemplate = `You are a building inspector assessing one component of a residential property.

## PRIMARY OBJECTIVE
Assess the component below from its description and the attached photos, and estimate its remaining value.

## CRITICAL RULES
1. Output ONLY valid JSON matching the schema below - no markdown, no explanations, no preamble
2. Your response must start with { and end with }
3. current_condition must be one of: "excellent", "good", "fair", "poor"
4. residual_value is the component's current depreciated value in USD, never above replacement_cost
5. maintenance_notes is one or two actionable sentences

## COMPONENT
Type: %s
Serial number: %s
Property address: %s
Property year built: %s

## OUTPUT SCHEMA
{
  "current_condition": "good",
  "installation_year": 2015,
  "estimated_lifetime_years": 20,
  "replacement_cost": 8500.0,
  "residual_value": 4200.0,
  "maintenance_notes": "Annual servicing recommended."
}`

const insightsPromptTemplate = `You are a real-estate investment advisor producing a structured analysis of a digitized property.

## PRIMARY OBJECTIVE
Produce market trends, ROI projections, risk factors, opportunities, comparable properties, value drivers and maintenance priorities for the property below.

## CRITICAL RULES
1. Output ONLY valid JSON matching the schema below - no markdown, no explanations, no preamble
2. Your response must start with { and end with }
3. ROI projections are cumulative percentage appreciation over 1, 5 and 10 years
4. Each risk severity must be one of: "low", "medium", "high"
5. Each maintenance urgency must be one of: "low", "medium", "high"
6. similarity_score is between 0 and 100

## PROPERTY
%s

## COMPONENTS
%s

## OUTPUT SCHEMA
{
  "market_trends": "one paragraph on the local market",
  "roi_projection": {"one_year_pct": 3.5, "five_year_pct": 18.0, "ten_year_pct": 42.0},
  "risks": [{"description": "...", "severity": "medium"}],
  "opportunities": ["..."],
  "comparables": [{"address": "...", "price": 450000.0, "square_footage": 1900.0, "similarity_score": 85.0}],
  "value_drivers": ["..."],
  "maintenance_priorities": [{"item": "...", "estimated_cost": 2500.0, "urgency": "medium"}]
}`

const inspectionReportPromptTemplate = `You are a licensed home inspector writing an inspection report.

## PRIMARY OBJECTIVE
Write a narrative inspection report for the property and component assessments below.

## CRITICAL RULES
1. Output ONLY valid JSON matching the schema below - no markdown, no explanations, no preamble
2. Your response must start with { and end with }
3. Base every assessment strictly on the component data given; do not invent components
4. overall_rating must be one of: "excellent", "good", "fair", "poor"

## PROPERTY
%s

## COMPONENTS
%s

## OUTPUT SCHEMA
{
  "summary": "two to three sentence executive summary",
  "property_overview": "one paragraph describing the property",
  "component_assessments": [{"component_type": "roof", "condition": "good", "assessment": "..."}],
  "maintenance_recommendations": ["prioritized recommendation", "..."],
  "overall_rating": "good",
  "inspector_notes": "anything notable"
}`

const appraisalReportPromptTemplate = `You are a certified property appraiser writing the narrative sections of an appraisal report.

## PRIMARY OBJECTIVE
Write the narrative for a cost-approach appraisal of the property below. The numeric valuation figures are already final and are provided for context; restate them faithfully in prose where useful but do not change them.

## CRITICAL RULES
1. Output ONLY valid JSON matching the schema below - no markdown, no explanations, no preamble
2. Your response must start with { and end with }
3. The appraised value and its inputs are fixed; your narrative must be consistent with them

## PROPERTY
%s

## VALUATION (final)
Rebuild cost: %.2f USD (%.2f USD/sqft x %.2f sqft)
Land value: %.2f USD
Component residual value: %.2f USD
Market rating: %d of 10 (adjustment %+.2f%%)
Appraised value: %.2f USD

## MARKET INSIGHTS
%s

## OUTPUT SCHEMA
{
  "summary": "two to three sentence executive summary",
  "methodology": "one paragraph on the cost approach used",
  "market_analysis": "one paragraph on market conditions",
  "comparables_comment": "one paragraph relating the value to comparable sales"
}`

// describeProperty renders the property facts shared by several prompts.
func describeProperty(p *models.Property) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Address: %s\n", p.Address)
	fmt.Fprintf(&b, "Square footage: %.1f\n", p.SquareFootage)
	fmt.Fprintf(&b, "Lot size: %.1f sqft\n", p.LotSize)
	if p.Bedrooms > 0 {
		fmt.Fprintf(&b, "Bedrooms: %d\n", p.Bedrooms)
	}
	if p.Bathrooms > 0 {
		fmt.Fprintf(&b, "Bathrooms: %.1f\n", p.Bathrooms)
	}
	if p.YearBuilt != nil {
		fmt.Fprintf(&b, "Year built: %d\n", *p.YearBuilt)
	}
	if p.PropertyType != "" {
		fmt.Fprintf(&b, "Property type: %s\n", p.PropertyType)
	}
	if p.Classification != "" {
		fmt.Fprintf(&b, "Classification: %s\n", p.Classification)
	}
	return strings.TrimRight(b.String(), "\n")
}

func describeComponents(components []models.Component) string {
	if len(components) == 0 {
		return "No components were submitted for this property."
	}
	var b strings.Builder
	for _, c := range components {
		fmt.Fprintf(&b, "- %s: condition %s, installed %d, lifetime %d years, replacement cost %.2f, residual value %.2f",
			c.ComponentType, c.CurrentCondition, c.InstallationYear,
			c.EstimatedLifetimeYears, c.ReplacementCost, c.ResidualValue)
		if c.MaintenanceNotes != "" {
			fmt.Fprintf(&b, " (%s)", c.MaintenanceNotes)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// BuildEnrichmentPrompt asks for classification and cost basis.
func BuildEnrichmentPrompt(p *models.Property) string {
	return fmt.Sprintf(enrichmentPromptTemplate, describeProperty(p))
}

// BuildRevaluationEnrichmentPrompt re-asks for the cost basis, seeded
// with the values currently on record and any supplementary context the
// caller provided.
func BuildRevaluationEnrichmentPrompt(p *models.Property, additionalContext string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf(enrichmentPromptTemplate, describeProperty(p)))
	fmt.Fprintf(&b, "\n\n## CURRENT RECORD\nClassification: %s\nRebuild cost per sqft: %.2f USD\nLand value: %.2f USD\nKeep these values unless the supplementary context justifies a change.",
		p.Classification, p.RebuildCostPerSqft, p.LandValue)
	if additionalContext != "" {
		b.WriteString("\n\n## SUPPLEMENTARY CONTEXT\n")
		b.WriteString(additionalContext)
	}
	return b.String()
}

// BuildComponentPrompt asks for one component's assessment.
func BuildComponentPrompt(p *models.Property, componentType, serialNumber string) string {
	yearBuilt := "unknown"
	if p.YearBuilt != nil {
		yearBuilt = fmt.Sprintf("%d", *p.YearBuilt)
	}
	if serialNumber == "" {
		serialNumber = "not provided"
	}
	return fmt.Sprintf(componentPromptTemplate, componentType, serialNumber, p.Address, yearBuilt)
}

// BuildInsightsPrompt asks for the advisory bundle.
func BuildInsightsPrompt(p *models.Property, components []models.Component) string {
	return fmt.Sprintf(insightsPromptTemplate, describeProperty(p), describeComponents(components))
}

// BuildRevaluationInsightsPrompt asks for a refreshed advisory bundle,
// giving the model the previous bundle and any supplementary context as
// reference material.
func BuildRevaluationInsightsPrompt(p *models.Property, components []models.Component, previousBundle, additionalContext string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf(insightsPromptTemplate, describeProperty(p), describeComponents(components)))
	if previousBundle != "" {
		b.WriteString("\n\n## PREVIOUS ANALYSIS (reference only, produce a fresh one)\n")
		b.WriteString(previousBundle)
	}
	if additionalContext != "" {
		b.WriteString("\n\n## SUPPLEMENTARY CONTEXT\n")
		b.WriteString(additionalContext)
	}
	return b.String()
}

// BuildInspectionReportPrompt asks for the inspection narrative.
func BuildInspectionReportPrompt(p *models.Property, components []models.Component) string {
	return fmt.Sprintf(inspectionReportPromptTemplate, describeProperty(p), describeComponents(components))
}

// BuildAppraisalReportPrompt asks for the appraisal narrative around the
// already-computed valuation figures.
func BuildAppraisalReportPrompt(p *models.Property, rebuildCost float64, marketAdjustment float64, marketTrends string) string {
	if marketTrends == "" {
		marketTrends = "No market insights available."
	}
	return fmt.Sprintf(appraisalReportPromptTemplate,
		describeProperty(p),
		rebuildCost, p.RebuildCostPerSqft, p.SquareFootage,
		p.LandValue,
		p.TotalAssetResidualValue,
		p.MarketRating, marketAdjustment*100,
		p.AppraisedValue,
		marketTrends)
}
