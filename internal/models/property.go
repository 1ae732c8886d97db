package models

import (
	"time"

	"gorm.io/datatypes"
)

type Property struct {
	// Identity and ownership
	ID      string `gorm:"type:varchar(36);primaryKey" json:"id"`
	OwnerID string `gorm:"type:varchar(64);index" json:"owner_id,omitempty"`

	// Physical attributes
	Address        string  `gorm:"type:text;not null" json:"address"`
	SquareFootage  float64 `gorm:"type:decimal(12,2);not null" json:"square_footage"`
	LotSize        float64 `gorm:"type:decimal(12,2)" json:"lot_size"`
	Bedrooms       int     `gorm:"type:int" json:"bedrooms,omitempty"`
	Bathrooms      float64 `gorm:"type:decimal(4,1)" json:"bathrooms,omitempty"`
	YearBuilt      *int    `gorm:"type:int" json:"year_built,omitempty"`
	PropertyType   string  `gorm:"type:varchar(50);index" json:"property_type,omitempty"`
	Classification string  `gorm:"type:varchar(50)" json:"classification,omitempty"`

	// Cost basis (resolved by enrichment, possibly defaults)
	RebuildCostPerSqft float64 `gorm:"type:decimal(12,2)" json:"rebuild_cost_per_sqft"`
	LandValue          float64 `gorm:"type:decimal(14,2)" json:"land_value"`

	// Derived valuation fields (cached; recomputable from the inputs above)
	MarketRating            int     `gorm:"type:int;default:5" json:"market_rating"`
	AppraisedValue          float64 `gorm:"type:decimal(14,2)" json:"appraised_value"`
	TotalAssetResidualValue float64 `gorm:"type:decimal(14,2)" json:"total_asset_residual_value"`

	// Advisory bundle from the insight stage (opaque structured payload)
	Insights datatypes.JSON `gorm:"type:json" json:"insights,omitempty"`

	// Pipeline status
	Status PropertyStatus `gorm:"type:varchar(20);not null;default:'processing';index" json:"status"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index:idx_properties_created_at,sort:desc" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// PropertyStatus tracks where a property sits in the digitization pipeline
type PropertyStatus string

const (
	PropertyStatusProcessing PropertyStatus = "processing"
	PropertyStatusCompleted  PropertyStatus = "completed"
)

// TableName specifies the table name
func (Property) TableName() string {
	return "properties"
}

// IsCompleted reports whether the digitization pipeline finished for this property
func (p *Property) IsCompleted() bool {
	return p.Status == PropertyStatusCompleted
}
