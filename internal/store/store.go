package store

import (
	"errors"
	"time"

	"property-appraisal/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: record not found")

// Store is the persistence contract shared by the pipeline, the API
// handlers and the maintenance jobs. Implementations exist for MySQL
// (gorm), PostgreSQL (database/sql) and an in-memory variant used by
// tests and the PoC binary.
type Store interface {
	// Properties
	CreateProperty(p *models.Property) error
	UpdateProperty(p *models.Property) error
	GetProperty(id string) (*models.Property, error)
	ProcessingPropertiesBefore(cutoff time.Time) ([]models.Property, error)
	DeleteProperty(id string) error
	CountProperties() (int64, error)

	// Components
	CreateComponent(c *models.Component, photos []models.ComponentPhoto) error
	ComponentsByProperty(propertyID string) ([]models.Component, error)

	// Reports
	CreateReport(r *models.Report) error
	UpdateReport(r *models.Report) error
	ReportByType(propertyID, reportType string) (*models.Report, error)
	ReportsByProperty(propertyID string) ([]models.Report, error)

	// Pipeline runs
	CreateRun(run *models.PipelineRun) error
	UpdateRun(run *models.PipelineRun) error
	RecentRuns(limit int) ([]models.PipelineRun, error)
	LatestRun(propertyID string) (*models.PipelineRun, error)

	// Valuation history
	CreateValuationSnapshot(s *models.ValuationSnapshot) error
	ValuationHistory(propertyID string) ([]models.ValuationSnapshot, error)

	// Delete logs
	CreateDeleteLog(l *models.DeleteLog) error
	RecentDeleteLogs(limit int) ([]models.DeleteLog, error)
}
