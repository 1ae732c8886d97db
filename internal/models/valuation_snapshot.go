package models

import "time"

// ValuationSnapshot is a point-in-time record of a property's valuation inputs
// and output, written at initial pipeline completion and at every revaluation.
// It makes the revaluation delta auditable without re-deriving old state.
type ValuationSnapshot struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID string `gorm:"type:varchar(36);not null;index:idx_snapshots_property" json:"property_id"`

	// Valuation state at snapshot time
	RebuildCostPerSqft      float64 `gorm:"type:decimal(12,2)" json:"rebuild_cost_per_sqft"`
	LandValue               float64 `gorm:"type:decimal(14,2)" json:"land_value"`
	TotalAssetResidualValue float64 `gorm:"type:decimal(14,2)" json:"total_asset_residual_value"`
	MarketRating            int     `gorm:"type:int" json:"market_rating"`
	AppraisedValue          float64 `gorm:"type:decimal(14,2)" json:"appraised_value"`

	Trigger   string    `gorm:"type:varchar(20);not null" json:"trigger"` // digitization, revaluation
	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

// TableName specifies the table name
func (ValuationSnapshot) TableName() string {
	return "valuation_snapshots"
}

// Snapshot trigger constants
const (
	SnapshotTriggerDigitization = "digitization"
	SnapshotTriggerRevaluation  = "revaluation"
)
