package models

import "time"

// Component represents a physical building component (roof, HVAC, windows, ...)
// analyzed during property digitization. A component cannot outlive its property.
type Component struct {
	ID            string `gorm:"type:varchar(36);primaryKey" json:"id"`
	PropertyID    string `gorm:"type:varchar(36);not null;index:idx_components_property" json:"property_id"`
	ComponentType string `gorm:"type:varchar(50);not null" json:"component_type"`
	SerialNumber  string `gorm:"type:varchar(100)" json:"serial_number,omitempty"`

	CurrentCondition       ComponentCondition `gorm:"type:varchar(20);not null;default:'good'" json:"current_condition"`
	InstallationYear       int                `gorm:"type:int" json:"installation_year"`
	EstimatedLifetimeYears int                `gorm:"type:int" json:"estimated_lifetime_years"`
	ReplacementCost        float64            `gorm:"type:decimal(12,2)" json:"replacement_cost"`
	ResidualValue          float64            `gorm:"type:decimal(12,2)" json:"residual_value"`
	MaintenanceNotes       string             `gorm:"type:text" json:"maintenance_notes,omitempty"`

	// Whether the values came from a successful analysis or the failure-default path
	AnalysisSource AnalysisSource `gorm:"type:varchar(20);not null;default:'default'" json:"analysis_source"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`

	// Relationship
	Property Property `gorm:"foreignKey:PropertyID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

// ComponentCondition is the normalized condition rating for a component
type ComponentCondition string

const (
	ConditionExcellent ComponentCondition = "excellent"
	ConditionGood      ComponentCondition = "good"
	ConditionFair      ComponentCondition = "fair"
	ConditionPoor      ComponentCondition = "poor"
)

// AnalysisSource records which path produced a component's values
type AnalysisSource string

const (
	AnalysisSourceInference AnalysisSource = "inference"
	AnalysisSourceDefault   AnalysisSource = "default"
)

// TableName specifies the table name
func (Component) TableName() string {
	return "components"
}

// ValidCondition reports whether s is one of the enumerated condition ratings
func ValidCondition(s string) bool {
	switch ComponentCondition(s) {
	case ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}
