package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"property-appraisal/internal/history"
	"property-appraisal/internal/inference"
	"property-appraisal/internal/models"
	"property-appraisal/internal/store"
	"property-appraisal/internal/valuation"

	"github.com/google/uuid"
)

// Pipeline stages, in execution order. The stage is advanced on the run
// record as processing goes so a stuck property can be traced to the
// stage that killed it.
const (
	StageValidating          = "validating"
	StageEnriching           = "enriching"
	StageCreatingProperty    = "creating_property"
	StageAnalyzingComponents = "analyzing_components"
	StageAggregating         = "aggregating"
	StageGeneratingInsights  = "generating_insights"
	StageCompilingInspection = "compiling_inspection_report"
	StageComputingValuation  = "computing_valuation"
	StageCompilingAppraisal  = "compiling_appraisal_report"
	StagePersistingFinal     = "persisting_final"
	StageCompleted           = "completed"
)

// ErrValidation wraps request validation failures. Nothing has been
// persisted when it is returned.
var ErrValidation = errors.New("pipeline: invalid request")

// StageError reports which stage a pipeline run died in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// WebContextProvider supplies market listing snippets for insight prompts.
type WebContextProvider interface {
	Snippets(ctx context.Context, location string) []string
}

// Indexer pushes completed properties into the search index.
type Indexer interface {
	IndexProperty(p *models.Property) error
}

// Options carries the optional collaborators. Everything may be nil
// except the store and gateway passed to New.
type Options struct {
	PhotoFetcher      *inference.PhotoFetcher
	WebContext        WebContextProvider
	History           *history.Service
	Search            Indexer
	BaselineYearBuilt int
	UseWebContext     bool
}

// Pipeline orchestrates property digitization and revaluation.
type Pipeline struct {
	store             store.Store
	gateway           inference.Gateway
	photos            *inference.PhotoFetcher
	web               WebContextProvider
	history           *history.Service
	search            Indexer
	baselineYearBuilt int
	useWebContext     bool
}

func New(s store.Store, gateway inference.Gateway, opts Options) *Pipeline {
	baseline := opts.BaselineYearBuilt
	if baseline == 0 {
		baseline = valuation.BaselineYearBuilt
	}
	return &Pipeline{
		store:             s,
		gateway:           gateway,
		photos:            opts.PhotoFetcher,
		web:               opts.WebContext,
		history:           opts.History,
		search:            opts.Search,
		baselineYearBuilt: baseline,
		useWebContext:     opts.UseWebContext,
	}
}

// ComponentSubmission is one component as submitted by the owner.
type ComponentSubmission struct {
	ComponentType string   `json:"component_type" binding:"required"`
	SerialNumber  string   `json:"serial_number"`
	PhotoURLs     []string `json:"photo_urls"`
}

// DigitizeRequest is the full digitization submission.
type DigitizeRequest struct {
	OwnerID       string                `json:"owner_id"`
	Address       string                `json:"address" binding:"required"`
	SquareFootage float64               `json:"square_footage" binding:"required"`
	LotSize       float64               `json:"lot_size" binding:"required"`
	Bedrooms      int                   `json:"bedrooms"`
	Bathrooms     float64               `json:"bathrooms"`
	YearBuilt     *int                  `json:"year_built"`
	PropertyType  string                `json:"property_type"`
	MarketRating  *int                  `json:"market_rating"`
	Components    []ComponentSubmission `json:"components"`
}

// Validate checks the request before anything is persisted.
func (r *DigitizeRequest) Validate() error {
	if r.Address == "" {
		return fmt.Errorf("%w: address is required", ErrValidation)
	}
	if r.SquareFootage <= 0 {
		return fmt.Errorf("%w: square_footage must be positive", ErrValidation)
	}
	if r.LotSize <= 0 {
		return fmt.Errorf("%w: lot_size must be positive", ErrValidation)
	}
	if r.MarketRating != nil && (*r.MarketRating < 0 || *r.MarketRating > 10) {
		return fmt.Errorf("%w: market_rating must be between 0 and 10", ErrValidation)
	}
	for i, c := range r.Components {
		if c.ComponentType == "" {
			return fmt.Errorf("%w: component %d has no component_type", ErrValidation, i)
		}
	}
	return nil
}

// Result is what a successful digitization produced.
type Result struct {
	Property   *models.Property   `json:"property"`
	Components []models.Component `json:"components"`
	Reports    []models.Report    `json:"reports"`
}

// Digitize runs the full pipeline for one submission. On an insight or
// report failure the property record is left behind in processing status
// for the orphan sweep; nothing downstream of the failed stage is written.
func (p *Pipeline) Digitize(ctx context.Context, req *DigitizeRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, &StageError{Stage: StageValidating, Err: err}
	}

	property := &models.Property{
		ID:            uuid.NewString(),
		OwnerID:       req.OwnerID,
		Address:       req.Address,
		SquareFootage: req.SquareFootage,
		LotSize:       req.LotSize,
		Bedrooms:      req.Bedrooms,
		Bathrooms:     req.Bathrooms,
		YearBuilt:     req.YearBuilt,
		PropertyType:  req.PropertyType,
		MarketRating:  valuation.DefaultMarketRating,
		Status:        models.PropertyStatusProcessing,
	}
	if req.MarketRating != nil {
		property.MarketRating = *req.MarketRating
	}
	if property.YearBuilt == nil {
		baseline := p.baselineYearBuilt
		property.YearBuilt = &baseline
	}

	// Enrichment precedes the first durable write so the record is
	// created with its cost basis already resolved. It never fails the
	// run; on inference failure the default cost basis applies.
	p.enrichProperty(ctx, property)
	property.RebuildCostPerSqft = valuation.ResolveRebuildCost(property.RebuildCostPerSqft)
	property.LandValue = valuation.ResolveLandValue(landClassification(property), property.LandValue, property.SquareFootage)

	if err := p.store.CreateProperty(property); err != nil {
		return nil, &StageError{Stage: StageCreatingProperty, Err: err}
	}

	run := p.startRun(property.ID, models.RunKindDigitization, StageCreatingProperty)

	p.advance(run, StageAnalyzingComponents)
	components := p.analyzeComponents(ctx, property, req.Components)

	p.advance(run, StageAggregating)
	property.TotalAssetResidualValue = sumComponentResiduals(components)

	p.advance(run, StageGeneratingInsights)
	bundle, err := p.generateInsights(ctx, property, components, nil, "")
	if err != nil {
		p.failRun(run, StageGeneratingInsights, err)
		log.Printf("Pipeline: insights failed for property %s, record left in processing: %v", property.ID, err)
		return nil, &StageError{Stage: StageGeneratingInsights, Err: err}
	}

	p.advance(run, StageCompilingInspection)
	inspection, err := p.generateInspectionReport(ctx, property, components)
	if err != nil {
		p.failRun(run, StageCompilingInspection, err)
		log.Printf("Pipeline: inspection report failed for property %s, record left in processing: %v", property.ID, err)
		return nil, &StageError{Stage: StageCompilingInspection, Err: err}
	}

	p.advance(run, StageComputingValuation)
	p.applyValuation(property, bundle)

	p.advance(run, StageCompilingAppraisal)
	appraisal, err := p.generateAppraisalReport(ctx, property, bundle)
	if err != nil {
		p.failRun(run, StageCompilingAppraisal, err)
		log.Printf("Pipeline: appraisal report failed for property %s, record left in processing: %v", property.ID, err)
		return nil, &StageError{Stage: StageCompilingAppraisal, Err: err}
	}

	p.advance(run, StagePersistingFinal)
	property.Status = models.PropertyStatusCompleted
	if err := p.store.UpdateProperty(property); err != nil {
		p.failRun(run, StagePersistingFinal, err)
		return nil, &StageError{Stage: StagePersistingFinal, Err: err}
	}

	if p.history != nil {
		p.history.Record(property, models.SnapshotTriggerDigitization)
	}
	if p.search != nil {
		if err := p.search.IndexProperty(property); err != nil {
			log.Printf("Pipeline: search indexing failed for property %s: %v", property.ID, err)
		}
	}

	p.completeRun(run)

	return &Result{
		Property:   property,
		Components: components,
		Reports:    []models.Report{*inspection, *appraisal},
	}, nil
}

// landClassification picks the signal used for shared-land detection.
// The owner-supplied property type qualifies on its own, so a condo the
// model misclassified still gets the shared-land proxy.
func landClassification(p *models.Property) string {
	if ownerType := strings.ToLower(p.PropertyType); valuation.SharedLandClassifications[ownerType] {
		return ownerType
	}
	if p.Classification != "" {
		return p.Classification
	}
	return strings.ToLower(p.PropertyType)
}

func sumComponentResiduals(components []models.Component) float64 {
	residuals := make([]float64, len(components))
	for i, c := range components {
		residuals[i] = c.ResidualValue
	}
	return valuation.SumResiduals(residuals)
}

// applyValuation runs the valuation formula over the already-resolved
// cost basis and caches the result on the property, together with the
// insight bundle carrying the rating that produced it.
func (p *Pipeline) applyValuation(property *models.Property, bundle *models.InsightBundle) {
	result := valuation.Calculate(valuation.Input{
		SquareFootage:           property.SquareFootage,
		RebuildCostPerSqft:      property.RebuildCostPerSqft,
		LandValue:               property.LandValue,
		TotalAssetResidualValue: property.TotalAssetResidualValue,
		MarketRating:            property.MarketRating,
	})
	property.AppraisedValue = result.AppraisedValue

	if bundle != nil {
		bundle.MarketRating = property.MarketRating
		if data, err := models.ToJSON(bundle); err == nil {
			property.Insights = data
		}
	}
}

// Run tracking is best effort: run rows are diagnostic and never fail
// the pipeline.

func (p *Pipeline) startRun(propertyID, kind, stage string) *models.PipelineRun {
	run := &models.PipelineRun{
		PropertyID: propertyID,
		Kind:       kind,
		Stage:      stage,
		Status:     models.RunStatusRunning,
	}
	if err := p.store.CreateRun(run); err != nil {
		log.Printf("Pipeline: failed to create run record for property %s: %v", propertyID, err)
	}
	return run
}

func (p *Pipeline) advance(run *models.PipelineRun, stage string) {
	run.Stage = stage
	if err := p.store.UpdateRun(run); err != nil {
		log.Printf("Pipeline: failed to advance run %d to %s: %v", run.ID, stage, err)
	}
}

func (p *Pipeline) failRun(run *models.PipelineRun, stage string, cause error) {
	now := time.Now()
	run.Stage = stage
	run.Status = models.RunStatusFailed
	run.LastError = cause.Error()
	run.CompletedAt = &now
	if err := p.store.UpdateRun(run); err != nil {
		log.Printf("Pipeline: failed to mark run %d failed: %v", run.ID, err)
	}
}

func (p *Pipeline) completeRun(run *models.PipelineRun) {
	now := time.Now()
	run.Stage = StageCompleted
	run.Status = models.RunStatusCompleted
	run.CompletedAt = &now
	if err := p.store.UpdateRun(run); err != nil {
		log.Printf("Pipeline: failed to mark run %d completed: %v", run.ID, err)
	}
}

// decodeInto converts a decoded JSON object into a typed struct.
func decodeInto(m map[string]any, out any) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
