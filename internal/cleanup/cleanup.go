package cleanup

import (
	"errors"
	"fmt"
	"log"
	"time"

	"property-appraisal/internal/models"
	"property-appraisal/internal/store"
)

// Indexer removes deleted properties from the search index.
type Indexer interface {
	RemoveProperty(id string) error
}

// Service physically deletes orphaned processing properties. A property
// is orphaned when its pipeline died mid-run (typically at the insight
// stage) and it has sat in processing status past the retention window.
type Service struct {
	store  store.Store
	search Indexer
}

// NewService creates a new cleanup service. search may be nil.
func NewService(s store.Store, search Indexer) *Service {
	return &Service{store: s, search: search}
}

// SweepConfig holds configuration for sweep operations
type SweepConfig struct {
	Retention        time.Duration // How long a processing property may sit before it counts as orphaned
	MaxDeletionCount int           // Maximum number of properties to delete in one run (safety limit)
	DryRun           bool          // If true, only log what would be deleted without actually deleting
}

// DefaultSweepConfig returns default configuration
func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		Retention:        24 * time.Hour,
		MaxDeletionCount: 1000,
		DryRun:           false,
	}
}

// SweepResult holds the result of a sweep operation
type SweepResult struct {
	TargetCount       int       `json:"target_count"`
	DeletedCount      int       `json:"deleted_count"`
	ErrorCount        int       `json:"error_count"`
	DryRun            bool      `json:"dry_run"`
	ExecutedAt        time.Time `json:"executed_at"`
	DeletedProperties []string  `json:"deleted_properties"`
	Errors            []string  `json:"errors,omitempty"`
}

// FindOrphans finds processing properties older than the retention window.
func (s *Service) FindOrphans(retention time.Duration) ([]models.Property, error) {
	cutoff := time.Now().Add(-retention)
	properties, err := s.store.ProcessingPropertiesBefore(cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to find orphaned properties: %w", err)
	}
	log.Printf("Cleanup: found %d processing properties stuck since before %s",
		len(properties), cutoff.Format(time.RFC3339))
	return properties, nil
}

// Sweep performs the orphan sweep
func (s *Service) Sweep(config SweepConfig) (*SweepResult, error) {
	result := &SweepResult{
		DryRun:     config.DryRun,
		ExecutedAt: time.Now(),
	}

	orphans, err := s.FindOrphans(config.Retention)
	if err != nil {
		return nil, err
	}

	result.TargetCount = len(orphans)
	if result.TargetCount == 0 {
		log.Println("Cleanup: no orphaned properties found")
		return result, nil
	}

	// Safety check: abort if too many properties would be deleted
	if result.TargetCount > config.MaxDeletionCount {
		return nil, fmt.Errorf("safety check failed: %d properties exceed max deletion limit of %d",
			result.TargetCount, config.MaxDeletionCount)
	}

	log.Printf("Cleanup: sweeping %d orphaned properties (retention: %v, dry-run: %v)",
		result.TargetCount, config.Retention, config.DryRun)

	for _, prop := range orphans {
		stage, active := s.lastStage(prop.ID, config.Retention)
		if active {
			log.Printf("Cleanup: skipping property %s, its pipeline run is still active", prop.ID)
			result.TargetCount--
			continue
		}

		if config.DryRun {
			log.Printf("Cleanup: [DRY-RUN] would delete property %s (address: %s, stage: %s, stuck since: %s)",
				prop.ID, prop.Address, stage, prop.UpdatedAt.Format(time.RFC3339))
			result.DeletedProperties = append(result.DeletedProperties, prop.ID)
			result.DeletedCount++
			continue
		}

		deleteLog := &models.DeleteLog{
			PropertyID: prop.ID,
			Address:    prop.Address,
			Stage:      stage,
			StuckSince: prop.UpdatedAt,
			Reason:     models.DeleteReasonOrphan,
		}
		if err := s.store.CreateDeleteLog(deleteLog); err != nil {
			errMsg := fmt.Sprintf("failed to create delete log for property %s: %v", prop.ID, err)
			log.Printf("Cleanup: ERROR: %s", errMsg)
			result.Errors = append(result.Errors, errMsg)
			result.ErrorCount++
			continue
		}

		if err := s.store.DeleteProperty(prop.ID); err != nil {
			errMsg := fmt.Sprintf("failed to delete property %s: %v", prop.ID, err)
			log.Printf("Cleanup: ERROR: %s", errMsg)
			result.Errors = append(result.Errors, errMsg)
			result.ErrorCount++
			continue
		}

		if s.search != nil {
			if err := s.search.RemoveProperty(prop.ID); err != nil {
				log.Printf("Cleanup: failed to remove property %s from search index: %v", prop.ID, err)
			}
		}

		log.Printf("Cleanup: deleted orphaned property %s (address: %s, died at stage: %s)",
			prop.ID, prop.Address, stage)
		result.DeletedProperties = append(result.DeletedProperties, prop.ID)
		result.DeletedCount++
	}

	log.Printf("Cleanup: sweep completed: %d/%d deleted, %d errors (dry-run: %v)",
		result.DeletedCount, result.TargetCount, result.ErrorCount, config.DryRun)

	return result, nil
}

// lastStage looks up where the orphan's pipeline run died. A run that is
// still marked running and started within the retention window counts as
// active and must not be swept.
func (s *Service) lastStage(propertyID string, retention time.Duration) (string, bool) {
	run, err := s.store.LatestRun(propertyID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("Cleanup: failed to look up last run for property %s: %v", propertyID, err)
		}
		return "", false
	}
	active := run.Status == models.RunStatusRunning && run.StartedAt.After(time.Now().Add(-retention))
	return run.Stage, active
}

// GetRecentDeleteLogs returns recent delete log entries
func (s *Service) GetRecentDeleteLogs(limit int) ([]models.DeleteLog, error) {
	return s.store.RecentDeleteLogs(limit)
}
