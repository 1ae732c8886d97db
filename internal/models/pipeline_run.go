package models

import "time"

// PipelineRun records the progress of one digitization or revaluation run.
// Persistence is best effort and purely diagnostic: the orchestrator advances
// the stage as it goes so the cleanup pass can tell which stage killed an
// orphaned processing property. No rollback is derived from these records.
type PipelineRun struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID  string     `gorm:"type:varchar(36);index:idx_runs_property" json:"property_id,omitempty"`
	Kind        string     `gorm:"type:varchar(20);not null" json:"kind"` // digitization, revaluation
	Stage       string     `gorm:"type:varchar(40);not null" json:"stage"`
	Status      string     `gorm:"type:varchar(20);not null;default:'running';index" json:"status"`
	LastError   string     `gorm:"type:text" json:"last_error,omitempty"`
	StartedAt   time.Time  `gorm:"not null;autoCreateTime" json:"started_at"`
	UpdatedAt   time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TableName specifies the table name for GORM
func (PipelineRun) TableName() string {
	return "pipeline_runs"
}

// Run kind constants
const (
	RunKindDigitization = "digitization"
	RunKindRevaluation  = "revaluation"
)

// Run status constants
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)
