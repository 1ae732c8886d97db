package valuation

// Input holds everything the cost-approach formula needs. All fields are
// plain values so the calculation is deterministic and side-effect free.
type Input struct {
	SquareFootage           float64
	RebuildCostPerSqft      float64
	LandValue               float64
	TotalAssetResidualValue float64
	MarketRating            int
}

// Result is the computed valuation with its intermediate figures kept for
// reporting and snapshots.
type Result struct {
	RebuildCost      float64
	LandValue        float64
	ResidualValue    float64
	MarketAdjustment float64
	AppraisedValue   float64
}

// MarketAdjustment converts a 0..10 market rating into a signed multiplier
// offset. A rating of 5 is neutral; each point is worth five percent.
func MarketAdjustment(rating int) float64 {
	return float64(rating-5) * 0.05
}

// Calculate runs the cost-approach valuation:
//
//	appraised = (sqft*rebuild_cost + land + residual) * (1 + adjustment)
func Calculate(in Input) Result {
	rebuildCost := in.SquareFootage * in.RebuildCostPerSqft
	adjustment := MarketAdjustment(in.MarketRating)
	base := rebuildCost + in.LandValue + in.TotalAssetResidualValue

	return Result{
		RebuildCost:      rebuildCost,
		LandValue:        in.LandValue,
		ResidualValue:    in.TotalAssetResidualValue,
		MarketAdjustment: adjustment,
		AppraisedValue:   base * (1 + adjustment),
	}
}

// SharedLandClassifications lists classifications whose missing land
// value is proxied from square footage instead of the parcel default.
var SharedLandClassifications = map[string]bool{
	"condo":       true,
	"condominium": true,
	"townhouse":   true,
}

// ResolveLandValue keeps a usable land estimate as-is. When enrichment
// returned zero, shared-land classifications get a square-footage proxy
// for their common-area share; everything else gets the default.
func ResolveLandValue(classification string, landValue, squareFootage float64) float64 {
	if landValue > 0 {
		return landValue
	}
	if SharedLandClassifications[classification] {
		return squareFootage * SharedLandProxyPerSqft
	}
	return DefaultLandValue
}

// ResolveRebuildCost falls back to the default when enrichment returned
// nothing usable.
func ResolveRebuildCost(costPerSqft float64) float64 {
	if costPerSqft > 0 {
		return costPerSqft
	}
	return DefaultRebuildCostPerSqft
}

// SumResiduals totals component residual values.
func SumResiduals(residuals []float64) float64 {
	var total float64
	for _, r := range residuals {
		total += r
	}
	return total
}
