package valuation

// Fallback cost basis used when enrichment cannot price the property.
const (
	DefaultRebuildCostPerSqft = 200.0
	DefaultLandValue          = 100000.0

	// Properties on shared land (condos) carry no parcel of their own;
	// their land share is proxied from interior square footage.
	SharedLandProxyPerSqft = 50.0
)

// Fallback component values used when a component analysis fails. The
// pipeline still records the component so the submission is never lost.
const (
	DefaultComponentCondition       = "good"
	DefaultComponentLifetimeYears   = 15
	DefaultComponentReplacementCost = 5000.0
	DefaultComponentResidualValue   = 2500.0
	DefaultComponentNotes           = "Regular maintenance recommended"
)

// DefaultMarketRating is the neutral market rating (no adjustment).
const DefaultMarketRating = 5

// BaselineYearBuilt is assumed when the owner did not provide one and
// enrichment could not recover it.
const BaselineYearBuilt = 2000
