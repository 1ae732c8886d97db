package models

// InspectionReportData is the structured body of an inspection report
type InspectionReportData struct {
	Summary                    string                `json:"summary"`
	PropertyOverview           string                `json:"property_overview,omitempty"`
	ComponentAssessments       []ComponentAssessment `json:"component_assessments,omitempty"`
	MaintenanceRecommendations []string              `json:"maintenance_recommendations,omitempty"`
	OverallRating              string                `json:"overall_rating,omitempty"`
	InspectorNotes             string                `json:"inspector_notes,omitempty"`
}

// ComponentAssessment is a per-component entry in the inspection narrative
type ComponentAssessment struct {
	ComponentType string `json:"component_type"`
	Condition     string `json:"condition"`
	Assessment    string `json:"assessment,omitempty"`
}

// AppraisalReportData is the structured body of an appraisal report. The
// numeric fields are always calculator-authoritative: the report compiler
// overwrites anything the inference call may have guessed.
type AppraisalReportData struct {
	Summary            string `json:"summary"`
	Methodology        string `json:"methodology,omitempty"`
	MarketAnalysis     string `json:"market_analysis,omitempty"`
	ComparablesComment string `json:"comparables_comment,omitempty"`

	AppraisedValue     float64 `json:"appraised_value"`
	RebuildCost        float64 `json:"rebuild_cost"`
	LandValue          float64 `json:"land_value"`
	AssetResidualValue float64 `json:"asset_residual_value"`
	MarketAdjustment   float64 `json:"market_adjustment"`

	// Set by revaluation only: delta against the previous appraisal
	PreviousAppraisedValue *float64 `json:"previous_appraised_value,omitempty"`
	ValueDelta             *float64 `json:"value_delta,omitempty"`
}
