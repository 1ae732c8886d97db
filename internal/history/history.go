package history

import (
	"log"

	"property-appraisal/internal/models"
	"property-appraisal/internal/store"
)

// Service records point-in-time valuation snapshots and answers history
// queries. Snapshots are append only.
type Service struct {
	store store.Store
}

func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// Record saves the property's current valuation state with the given
// trigger. Failures are logged but never fail the pipeline; history is
// diagnostic, not authoritative.
func (s *Service) Record(p *models.Property, trigger string) {
	snapshot := &models.ValuationSnapshot{
		PropertyID:              p.ID,
		RebuildCostPerSqft:      p.RebuildCostPerSqft,
		LandValue:               p.LandValue,
		TotalAssetResidualValue: p.TotalAssetResidualValue,
		MarketRating:            p.MarketRating,
		AppraisedValue:          p.AppraisedValue,
		Trigger:                 trigger,
	}
	if err := s.store.CreateValuationSnapshot(snapshot); err != nil {
		log.Printf("History: failed to record %s snapshot for property %s: %v", trigger, p.ID, err)
	}
}

// Entry is one history row enriched with the change from the previous one.
type Entry struct {
	models.ValuationSnapshot
	ValueDelta    *float64 `json:"value_delta,omitempty"`
	ValueDeltaPct *float64 `json:"value_delta_pct,omitempty"`
}

// History returns the property's snapshots oldest first, each annotated
// with the delta from its predecessor.
func (s *Service) History(propertyID string) ([]Entry, error) {
	snapshots, err := s.store.ValuationHistory(propertyID)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(snapshots))
	for i, snap := range snapshots {
		entry := Entry{ValuationSnapshot: snap}
		if i > 0 {
			prev := snapshots[i-1].AppraisedValue
			delta := snap.AppraisedValue - prev
			entry.ValueDelta = &delta
			if prev != 0 {
				pct := delta / prev * 100
				entry.ValueDeltaPct = &pct
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
