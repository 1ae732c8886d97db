package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate_FullExample(t *testing.T) {
	// 2000 sqft at 150/sqft plus 80000 land and 5000 residuals at rating 8
	result := Calculate(Input{
		SquareFootage:           2000,
		RebuildCostPerSqft:      150,
		LandValue:               80000,
		TotalAssetResidualValue: 5000,
		MarketRating:            8,
	})

	assert.Equal(t, 300000.0, result.RebuildCost)
	assert.InDelta(t, 0.15, result.MarketAdjustment, 1e-9)
	assert.InDelta(t, 442750.0, result.AppraisedValue, 0.01, "(300000+80000+5000)*1.15")
}

func TestCalculate_NeutralRatingNoAdjustment(t *testing.T) {
	result := Calculate(Input{
		SquareFootage:           1000,
		RebuildCostPerSqft:      200,
		LandValue:               100000,
		TotalAssetResidualValue: 0,
		MarketRating:            5,
	})

	assert.Equal(t, 0.0, result.MarketAdjustment)
	assert.InDelta(t, 300000.0, result.AppraisedValue, 0.01)
}

func TestMarketAdjustment_Extremes(t *testing.T) {
	assert.InDelta(t, -0.25, MarketAdjustment(0), 1e-9)
	assert.InDelta(t, -0.20, MarketAdjustment(1), 1e-9)
	assert.InDelta(t, 0.25, MarketAdjustment(10), 1e-9)
}

func TestCalculate_RatingMonotonic(t *testing.T) {
	base := Input{
		SquareFootage:           1500,
		RebuildCostPerSqft:      180,
		LandValue:               90000,
		TotalAssetResidualValue: 12000,
	}

	prev := -1.0
	for rating := 1; rating <= 10; rating++ {
		in := base
		in.MarketRating = rating
		value := Calculate(in).AppraisedValue
		assert.Greater(t, value, prev, "appraised value must rise with rating")
		prev = value
	}
}

func TestResolveLandValue_SharedLandProxy(t *testing.T) {
	// Shared-land classifications only get the proxy when no parcel
	// estimate came back
	assert.Equal(t, 60000.0, ResolveLandValue("condo", 0, 1200))
	assert.Equal(t, 60000.0, ResolveLandValue("townhouse", 0, 1200))
	assert.Equal(t, 999999.0, ResolveLandValue("condo", 999999, 1200))
}

func TestResolveLandValue_Fallbacks(t *testing.T) {
	assert.Equal(t, 85000.0, ResolveLandValue("single_family", 85000, 1200))
	assert.Equal(t, DefaultLandValue, ResolveLandValue("single_family", 0, 1200))
	assert.Equal(t, DefaultLandValue, ResolveLandValue("", 0, 1200))
}

func TestResolveRebuildCost(t *testing.T) {
	assert.Equal(t, 175.0, ResolveRebuildCost(175))
	assert.Equal(t, DefaultRebuildCostPerSqft, ResolveRebuildCost(0))
	assert.Equal(t, DefaultRebuildCostPerSqft, ResolveRebuildCost(-10))
}

func TestSumResiduals(t *testing.T) {
	assert.Equal(t, 0.0, SumResiduals(nil))
	assert.Equal(t, 7500.0, SumResiduals([]float64{2500, 5000}))
}
