package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"property-appraisal/internal/history"
	"property-appraisal/internal/inference"
	"property-appraisal/internal/models"
	"property-appraisal/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway answers each prompt kind with canned JSON and can be told
// to fail selected stages.
type fakeGateway struct {
	mu                 sync.Mutex
	failEnrichment     bool
	failInsights       bool
	failAppraisal      bool
	failComponentTypes map[string]bool
	enrichmentJSON     string
	componentJSON      string
	calls              []string
}

func (g *fakeGateway) record(kind string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, kind)
}

func (g *fakeGateway) Generate(_ context.Context, req inference.Request) (map[string]any, error) {
	switch {
	case strings.Contains(req.Prompt, "property records analyst"):
		g.record("enrichment")
		if g.failEnrichment {
			return nil, errors.New("enrichment backend down")
		}
		payload := g.enrichmentJSON
		if payload == "" {
			payload = `{"classification": "single_family", "rebuild_cost_per_sqft": 150.0, "land_value": 80000.0}`
		}
		return inference.DecodeJSONResponse(payload)

	case strings.Contains(req.Prompt, "building inspector"):
		g.record("component")
		for componentType := range g.failComponentTypes {
			if strings.Contains(req.Prompt, "Type: "+componentType) {
				return nil, errors.New("component analysis backend down")
			}
		}
		payload := g.componentJSON
		if payload == "" {
			payload = `{
				"current_condition": "fair",
				"installation_year": 2016,
				"estimated_lifetime_years": 25,
				"replacement_cost": 8000.0,
				"residual_value": 4000.0,
				"maintenance_notes": "Inspect annually."
			}`
		}
		return inference.DecodeJSONResponse(payload)

	case strings.Contains(req.Prompt, "investment advisor"):
		g.record("insights")
		if g.failInsights {
			return nil, errors.New("insight backend down")
		}
		return inference.DecodeJSONResponse(`{
			"market_trends": "Steady demand with modest appreciation.",
			"roi_projection": {"one_year_pct": 3.0, "five_year_pct": 16.0, "ten_year_pct": 38.0},
			"risks": [{"description": "Roof nearing end of life", "severity": "medium"}],
			"opportunities": ["Unfinished attic"],
			"comparables": [{"address": "12 Elm St", "price": 430000.0, "square_footage": 1950.0, "similarity_score": 90.0}],
			"value_drivers": ["Walkable neighborhood"],
			"maintenance_priorities": [{"item": "Service furnace", "estimated_cost": 300.0, "urgency": "low"}]
		}`)

	case strings.Contains(req.Prompt, "licensed home inspector"):
		g.record("inspection")
		return inference.DecodeJSONResponse(`{
			"summary": "The property is in good overall condition.",
			"property_overview": "A well-maintained home.",
			"component_assessments": [{"component_type": "hvac", "condition": "fair", "assessment": "Serviceable."}],
			"maintenance_recommendations": ["Service furnace annually"],
			"overall_rating": "good",
			"inspector_notes": ""
		}`)

	case strings.Contains(req.Prompt, "certified property appraiser"):
		g.record("appraisal")
		if g.failAppraisal {
			return nil, errors.New("appraisal backend down")
		}
		return inference.DecodeJSONResponse(`{
			"summary": "Cost-approach appraisal.",
			"methodology": "Replacement cost plus land and residuals.",
			"market_analysis": "Stable local market.",
			"comparables_comment": "Within range of recent sales."
		}`)
	}
	return nil, errors.New("fake gateway: unrecognized prompt")
}

func newTestPipeline(g *fakeGateway) (*Pipeline, *store.MemoryStore, *history.Service) {
	memStore := store.NewMemoryStore()
	historyService := history.NewService(memStore)
	p := New(memStore, g, Options{History: historyService})
	return p, memStore, historyService
}

// timeAfterNow gives a cutoff every just-written record predates.
func timeAfterNow() time.Time {
	return time.Now().Add(time.Minute)
}

func intPtr(v int) *int {
	return &v
}

func validRequest() *DigitizeRequest {
	return &DigitizeRequest{
		OwnerID:       "owner-1",
		Address:       "34 Birch Lane, Springfield",
		SquareFootage: 2000,
		LotSize:       6000,
		Bedrooms:      3,
		Bathrooms:     2,
		MarketRating:  intPtr(8),
		Components: []ComponentSubmission{
			{ComponentType: "hvac", SerialNumber: "HV-2241"},
			{ComponentType: "roof", PhotoURLs: []string{"https://photos.example.com/roof-1.jpg"}},
		},
	}
}

func TestDigitize_FullSuccess(t *testing.T) {
	p, memStore, _ := newTestPipeline(&fakeGateway{})

	result, err := p.Digitize(context.Background(), validRequest())
	require.NoError(t, err)

	prop := result.Property
	assert.Equal(t, models.PropertyStatusCompleted, prop.Status)
	assert.Equal(t, 150.0, prop.RebuildCostPerSqft)
	assert.Equal(t, 80000.0, prop.LandValue)
	assert.Equal(t, 8000.0, prop.TotalAssetResidualValue, "two components at 4000 residual each")
	// (2000*150 + 80000 + 8000) * 1.15
	assert.InDelta(t, 446200.0, prop.AppraisedValue, 0.01)
	assert.NotEmpty(t, prop.Insights)

	require.Len(t, result.Components, 2)
	for _, c := range result.Components {
		assert.Equal(t, models.AnalysisSourceInference, c.AnalysisSource)
		assert.Equal(t, models.ComponentCondition("fair"), c.CurrentCondition)
	}

	require.Len(t, result.Reports, 2)
	assert.Equal(t, models.ReportTypeInspection, result.Reports[0].ReportType)
	assert.Equal(t, models.ReportTypeAppraisal, result.Reports[1].ReportType)

	var bundle models.InsightBundle
	require.NoError(t, models.FromJSON(prop.Insights, &bundle))
	assert.Equal(t, 8, bundle.MarketRating, "caller rating carried into the bundle")

	snapshots, err := memStore.ValuationHistory(prop.ID)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, models.SnapshotTriggerDigitization, snapshots[0].Trigger)

	run, err := memStore.LatestRun(prop.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.Equal(t, StageCompleted, run.Stage)
}

func TestDigitize_ValidationFailsBeforeAnyWrite(t *testing.T) {
	p, memStore, _ := newTestPipeline(&fakeGateway{})

	req := validRequest()
	req.Address = ""
	_, err := p.Digitize(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	count, err := memStore.CountProperties()
	require.NoError(t, err)
	assert.Zero(t, count, "nothing may be persisted on validation failure")
}

func TestDigitize_InvalidMarketRating(t *testing.T) {
	p, _, _ := newTestPipeline(&fakeGateway{})

	req := validRequest()
	req.MarketRating = intPtr(11)
	_, err := p.Digitize(context.Background(), req)
	assert.ErrorIs(t, err, ErrValidation)

	req.MarketRating = intPtr(-1)
	_, err = p.Digitize(context.Background(), req)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDigitize_ComponentFailureIsIsolated(t *testing.T) {
	p, _, _ := newTestPipeline(&fakeGateway{
		failComponentTypes: map[string]bool{"roof": true},
	})

	result, err := p.Digitize(context.Background(), validRequest())
	require.NoError(t, err, "one failed component must not fail the run")

	byType := map[string]models.Component{}
	for _, c := range result.Components {
		byType[c.ComponentType] = c
	}

	hvac := byType["hvac"]
	assert.Equal(t, models.AnalysisSourceInference, hvac.AnalysisSource)
	assert.Equal(t, 4000.0, hvac.ResidualValue)

	roof := byType["roof"]
	assert.Equal(t, models.AnalysisSourceDefault, roof.AnalysisSource)
	assert.Equal(t, models.ComponentCondition("good"), roof.CurrentCondition)
	assert.Equal(t, 2500.0, roof.ResidualValue)
	assert.Equal(t, 5000.0, roof.ReplacementCost)
	assert.Equal(t, 15, roof.EstimatedLifetimeYears)
	assert.Equal(t, "Regular maintenance recommended", roof.MaintenanceNotes)

	assert.Equal(t, 6500.0, result.Property.TotalAssetResidualValue)
	assert.Equal(t, models.PropertyStatusCompleted, result.Property.Status)
}

// componentWriteFailStore fails component writes for one component type.
type componentWriteFailStore struct {
	store.Store
	failType string
}

func (s *componentWriteFailStore) CreateComponent(c *models.Component, photos []models.ComponentPhoto) error {
	if c.ComponentType == s.failType {
		return errors.New("component write failed")
	}
	return s.Store.CreateComponent(c, photos)
}

func TestDigitize_UnpersistedComponentExcludedFromValuation(t *testing.T) {
	memStore := store.NewMemoryStore()
	failStore := &componentWriteFailStore{Store: memStore, failType: "roof"}
	p := New(failStore, &fakeGateway{}, Options{History: history.NewService(failStore)})

	result, err := p.Digitize(context.Background(), validRequest())
	require.NoError(t, err)

	require.Len(t, result.Components, 1)
	assert.Equal(t, "hvac", result.Components[0].ComponentType)

	stored, err := memStore.ComponentsByProperty(result.Property.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)

	// Only the persisted hvac residual enters the aggregate.
	assert.Equal(t, 4000.0, result.Property.TotalAssetResidualValue)
	// (2000*150 + 80000 + 4000) * 1.15
	assert.InDelta(t, 441600.0, result.Property.AppraisedValue, 0.01)
}

func TestDigitize_EmptySubmissionIsSkipped(t *testing.T) {
	p, memStore, _ := newTestPipeline(&fakeGateway{})

	req := validRequest()
	req.Components = append(req.Components, ComponentSubmission{ComponentType: "windows"})
	result, err := p.Digitize(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, result.Components, 2, "no photos and no serial number yields no record")
	stored, err := memStore.ComponentsByProperty(result.Property.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestDigitize_PartialComponentResponseKeepsFieldDefaults(t *testing.T) {
	p, _, _ := newTestPipeline(&fakeGateway{
		componentJSON: `{"current_condition": "excellent", "replacement_cost": 12000.0}`,
	})

	result, err := p.Digitize(context.Background(), validRequest())
	require.NoError(t, err)

	for _, c := range result.Components {
		assert.Equal(t, models.AnalysisSourceInference, c.AnalysisSource)
		assert.Equal(t, models.ComponentCondition("excellent"), c.CurrentCondition)
		assert.Equal(t, 12000.0, c.ReplacementCost)
		assert.Equal(t, 15, c.EstimatedLifetimeYears)
		assert.Equal(t, 2500.0, c.ResidualValue)
		assert.Equal(t, "Regular maintenance recommended", c.MaintenanceNotes)
	}
}

func TestDigitize_InsightFailureLeavesOrphanedRecord(t *testing.T) {
	p, memStore, _ := newTestPipeline(&fakeGateway{failInsights: true})

	_, err := p.Digitize(context.Background(), validRequest())
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageGeneratingInsights, stageErr.Stage)

	count, err := memStore.CountProperties()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "the processing record stays behind")

	// The orphan is still in processing and has no reports
	orphans, err := memStore.ProcessingPropertiesBefore(timeAfterNow())
	require.NoError(t, err)
	require.Len(t, orphans, 1)

	reports, err := memStore.ReportsByProperty(orphans[0].ID)
	require.NoError(t, err)
	assert.Empty(t, reports)

	run, err := memStore.LatestRun(orphans[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, run.Status)
	assert.Equal(t, StageGeneratingInsights, run.Stage)
}

func TestDigitize_ReportFailureLeavesOrphanedRecord(t *testing.T) {
	p, memStore, _ := newTestPipeline(&fakeGateway{failAppraisal: true})

	_, err := p.Digitize(context.Background(), validRequest())
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageCompilingAppraisal, stageErr.Stage)

	orphans, err := memStore.ProcessingPropertiesBefore(timeAfterNow())
	require.NoError(t, err)
	require.Len(t, orphans, 1, "the property never reaches completed")
}

func TestDigitize_NoComponents(t *testing.T) {
	p, _, _ := newTestPipeline(&fakeGateway{})

	req := validRequest()
	req.Components = nil
	result, err := p.Digitize(context.Background(), req)
	require.NoError(t, err)

	assert.Empty(t, result.Components)
	assert.Equal(t, 0.0, result.Property.TotalAssetResidualValue)
	assert.Equal(t, models.PropertyStatusCompleted, result.Property.Status)
	// (2000*150 + 80000) * 1.15
	assert.InDelta(t, 437000.0, result.Property.AppraisedValue, 0.01)
}

func TestDigitize_EnrichmentFailureUsesDefaults(t *testing.T) {
	p, _, _ := newTestPipeline(&fakeGateway{failEnrichment: true})

	req := validRequest()
	req.Components = nil
	result, err := p.Digitize(context.Background(), req)
	require.NoError(t, err, "enrichment failure never fails the run")

	assert.Equal(t, 200.0, result.Property.RebuildCostPerSqft)
	assert.Equal(t, 100000.0, result.Property.LandValue)
	// (2000*200 + 100000) * 1.15
	assert.InDelta(t, 575000.0, result.Property.AppraisedValue, 0.01)
}

func TestDigitize_CondoUsesSharedLandProxy(t *testing.T) {
	p, _, _ := newTestPipeline(&fakeGateway{
		enrichmentJSON: `{"classification": "condo", "rebuild_cost_per_sqft": 150.0, "land_value": 0}`,
	})

	req := validRequest()
	req.SquareFootage = 1200
	req.MarketRating = intPtr(5)
	req.Components = nil
	result, err := p.Digitize(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 60000.0, result.Property.LandValue, "1200 sqft * 50 common-area share")
	// (1200*150 + 60000) * 1.0
	assert.InDelta(t, 240000.0, result.Property.AppraisedValue, 0.01)
}

func TestDigitize_MisclassifiedCondoStillGetsSharedLandProxy(t *testing.T) {
	p, _, _ := newTestPipeline(&fakeGateway{
		enrichmentJSON: `{"classification": "single_family", "rebuild_cost_per_sqft": 150.0, "land_value": 0}`,
	})

	req := validRequest()
	req.SquareFootage = 1200
	req.PropertyType = "Condo"
	req.MarketRating = intPtr(5)
	req.Components = nil
	result, err := p.Digitize(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 60000.0, result.Property.LandValue,
		"the submitted property type qualifies even when enrichment disagrees")
	assert.InDelta(t, 240000.0, result.Property.AppraisedValue, 0.01)
}

func TestDigitize_ZeroMarketRatingApplies(t *testing.T) {
	p, _, _ := newTestPipeline(&fakeGateway{})

	req := validRequest()
	req.MarketRating = intPtr(0)
	result, err := p.Digitize(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Property.MarketRating)
	// (2000*150 + 80000 + 8000) * 0.75
	assert.InDelta(t, 291000.0, result.Property.AppraisedValue, 0.01)
}

func TestDigitize_BaselineYearBuiltApplied(t *testing.T) {
	p, _, _ := newTestPipeline(&fakeGateway{})

	req := validRequest()
	req.YearBuilt = nil
	result, err := p.Digitize(context.Background(), req)
	require.NoError(t, err)

	require.NotNil(t, result.Property.YearBuilt)
	assert.Equal(t, 2000, *result.Property.YearBuilt)
}

func TestRevalue_LowerRatingLowersValue(t *testing.T) {
	gw := &fakeGateway{}
	p, memStore, _ := newTestPipeline(gw)

	result, err := p.Digitize(context.Background(), validRequest())
	require.NoError(t, err)
	originalValue := result.Property.AppraisedValue

	appraisalBefore, err := memStore.ReportByType(result.Property.ID, string(models.ReportTypeAppraisal))
	require.NoError(t, err)

	callsBefore := len(gw.calls)
	reval, err := p.Revalue(context.Background(), result.Property.ID, &RevalueRequest{
		MarketRating:      intPtr(4),
		AdditionalContext: "New light rail stop announced two blocks away.",
	})
	require.NoError(t, err)

	// Enrichment and insights run again; components are not re-analyzed.
	assert.Equal(t, []string{"enrichment", "insights", "appraisal"}, gw.calls[callsBefore:])

	assert.Less(t, reval.AppraisedValue, originalValue)
	assert.Equal(t, originalValue, reval.PreviousValue)
	// (2000*150 + 80000 + 8000) * 0.95
	assert.InDelta(t, 368600.0, reval.AppraisedValue, 0.01)

	// The appraisal report is updated in place, never duplicated
	assert.Equal(t, appraisalBefore.ID, reval.Report.ID)
	reports, err := memStore.ReportsByProperty(result.Property.ID)
	require.NoError(t, err)
	assert.Len(t, reports, 2)

	var data models.AppraisalReportData
	require.NoError(t, models.FromJSON(reval.Report.ReportData, &data))
	require.NotNil(t, data.PreviousAppraisedValue)
	assert.Equal(t, originalValue, *data.PreviousAppraisedValue)
	require.NotNil(t, data.ValueDelta)
	assert.InDelta(t, reval.AppraisedValue-originalValue, *data.ValueDelta, 0.01)

	snapshots, err := memStore.ValuationHistory(result.Property.ID)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, models.SnapshotTriggerRevaluation, snapshots[1].Trigger)
}

func TestRevalue_ZeroRatingAccepted(t *testing.T) {
	p, memStore, _ := newTestPipeline(&fakeGateway{})

	result, err := p.Digitize(context.Background(), validRequest())
	require.NoError(t, err)

	reval, err := p.Revalue(context.Background(), result.Property.ID, &RevalueRequest{MarketRating: intPtr(0)})
	require.NoError(t, err)

	// (2000*150 + 80000 + 8000) * 0.75
	assert.InDelta(t, 291000.0, reval.AppraisedValue, 0.01)

	stored, err := memStore.GetProperty(result.Property.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.MarketRating)
}

func TestRevalue_RejectsProcessingProperty(t *testing.T) {
	p, memStore, _ := newTestPipeline(&fakeGateway{})

	prop := &models.Property{
		ID:            "prop-processing",
		Address:       "1 Main St",
		SquareFootage: 1000,
		Status:        models.PropertyStatusProcessing,
	}
	require.NoError(t, memStore.CreateProperty(prop))

	_, err := p.Revalue(context.Background(), prop.ID, &RevalueRequest{MarketRating: intPtr(6)})
	assert.ErrorIs(t, err, ErrNotCompleted)
}

func TestRevalue_UnknownProperty(t *testing.T) {
	p, _, _ := newTestPipeline(&fakeGateway{})

	_, err := p.Revalue(context.Background(), "missing", &RevalueRequest{MarketRating: intPtr(6)})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRevalue_InvalidRating(t *testing.T) {
	p, _, _ := newTestPipeline(&fakeGateway{})

	_, err := p.Revalue(context.Background(), "whatever", &RevalueRequest{MarketRating: intPtr(11)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = p.Revalue(context.Background(), "whatever", &RevalueRequest{})
	assert.ErrorIs(t, err, ErrValidation, "a rating must be supplied")
}

func TestRevalue_NarrativeFailureLeavesStateUntouched(t *testing.T) {
	gw := &fakeGateway{}
	p, memStore, _ := newTestPipeline(gw)

	result, err := p.Digitize(context.Background(), validRequest())
	require.NoError(t, err)
	originalValue := result.Property.AppraisedValue

	gw.failAppraisal = true
	_, err = p.Revalue(context.Background(), result.Property.ID, &RevalueRequest{MarketRating: intPtr(2)})
	require.Error(t, err)

	stored, err := memStore.GetProperty(result.Property.ID)
	require.NoError(t, err)
	assert.Equal(t, originalValue, stored.AppraisedValue, "no commit before the narrative succeeds")
	assert.Equal(t, 8, stored.MarketRating)

	snapshots, err := memStore.ValuationHistory(result.Property.ID)
	require.NoError(t, err)
	assert.Len(t, snapshots, 1, "no revaluation snapshot on failure")
}
