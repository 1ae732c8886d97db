package models

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// InsightBundle is the structured advisory payload produced by the insight
// stage. The shape mirrors what the inference service is asked to return;
// every field is optional on the wire, but the bundle as a whole has no
// fallback - insight generation is fatal when it fails.
type InsightBundle struct {
	MarketTrends          string               `json:"market_trends,omitempty"`
	ROIProjection         ROIProjection        `json:"roi_projection"`
	Risks                 []RiskFactor         `json:"risks,omitempty"`
	Opportunities         []string             `json:"opportunities,omitempty"`
	Comparables           []ComparableProperty `json:"comparables,omitempty"`
	ValueDrivers          []string             `json:"value_drivers,omitempty"`
	MaintenancePriorities []MaintenanceItem    `json:"maintenance_priorities,omitempty"`

	// Carried through from the caller; inference output never overrides it.
	MarketRating int `json:"market_rating"`
}

// ROIProjection holds return-on-investment percentages over fixed horizons
type ROIProjection struct {
	OneYearPct  float64 `json:"one_year_pct"`
	FiveYearPct float64 `json:"five_year_pct"`
	TenYearPct  float64 `json:"ten_year_pct"`
}

// RiskFactor is an investment risk with a severity rating
type RiskFactor struct {
	Description string `json:"description"`
	Severity    string `json:"severity"` // low, medium, high
}

// ComparableProperty is a nearby comparable used as valuation context
type ComparableProperty struct {
	Address         string  `json:"address"`
	Price           float64 `json:"price"`
	SquareFootage   float64 `json:"square_footage"`
	SimilarityScore float64 `json:"similarity_score"` // 0-100
}

// MaintenanceItem is a prioritized maintenance recommendation
type MaintenanceItem struct {
	Item          string  `json:"item"`
	EstimatedCost float64 `json:"estimated_cost"`
	Urgency       string  `json:"urgency"` // low, medium, high
}

// ToJSON serializes a payload struct into a JSON column value
func ToJSON(v any) (datatypes.JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// FromJSON deserializes a JSON column value into out
func FromJSON(data datatypes.JSON, out any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}
